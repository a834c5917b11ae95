// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scanner reads files in overlapping windows and reports the card
// numbers found in them.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"cardsearch/internal/card"
	"cardsearch/internal/detector"
	"cardsearch/internal/extract"
	"cardsearch/internal/observability"
	"cardsearch/internal/resilience"
	"cardsearch/internal/security"
	"cardsearch/internal/suppressions"

	"github.com/spf13/afero"
)

// MatchFunc receives each confirmed, unsuppressed match as soon as it is
// found. The match value is only valid until the outcome is cleared.
type MatchFunc func(m detector.Match)

// Scanner scans one file at a time. Its configuration is read-only after
// construction, so a single Scanner may serve several workers.
type Scanner struct {
	fs           afero.Fs
	opts         Options
	classifier   *card.Classifier
	contexts     *detector.ContextExtractor
	suppressions *suppressions.SuppressionManager
	extractor    *extract.Extractor
	observer     *observability.StandardObserver
	retry        resilience.RetryConfig

	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a scanner over fs. Options are expected to be validated.
func New(fs afero.Fs, opts Options) *Scanner {
	return &Scanner{
		fs:         fs,
		opts:       opts,
		classifier: card.NewClassifier(),
		contexts:   detector.NewContextExtractor().WithContextChars(opts.ContextChars),
		retry:      resilience.DefaultRetryConfig(),
		sleep:      sleepCtx,
	}
}

// WithClassifier replaces the default rule table.
func (s *Scanner) WithClassifier(c *card.Classifier) *Scanner {
	s.classifier = c
	return s
}

// WithSuppressions hides matches covered by an active suppression rule.
func (s *Scanner) WithSuppressions(sm *suppressions.SuppressionManager) *Scanner {
	s.suppressions = sm
	return s
}

// WithExtractor additionally scans text recovered from PDFs and images.
func (s *Scanner) WithExtractor(e *extract.Extractor) *Scanner {
	s.extractor = e
	return s
}

// WithObserver enables per-file timing diagnostics.
func (s *Scanner) WithObserver(o *observability.StandardObserver) *Scanner {
	s.observer = o
	return s
}

// WithRetry sets the backoff used when opening a file fails transiently.
func (s *Scanner) WithRetry(cfg resilience.RetryConfig) *Scanner {
	s.retry = cfg
	return s
}

// Options returns the scanner configuration.
func (s *Scanner) Options() Options {
	return s.opts
}

// Scan reads path from start to end and returns its outcome. A file that
// cannot be opened or read yields an empty outcome and a *ReadError.
// Cancellation is checked between chunks and returns ctx.Err().
func (s *Scanner) Scan(ctx context.Context, path string, onMatch MatchFunc) (*Outcome, error) {
	out := newOutcome(path)

	var finish func(bool, map[string]interface{})
	if s.observer != nil {
		finish = s.observer.StartTiming("scanner", "scan_file", path)
	}

	err := s.scanFile(ctx, path, out, onMatch)

	if finish != nil {
		finish(err == nil, map[string]interface{}{
			"chunks":     out.ChunksRead,
			"bytes":      out.BytesRead,
			"matches":    out.Count(),
			"suppressed": out.SuppressedCount(),
		})
	}

	var readErr *ReadError
	if errors.As(err, &readErr) {
		out.Clear()
		return newOutcome(path), err
	}
	return out, err
}

func (s *Scanner) scanFile(ctx context.Context, path string, out *Outcome, onMatch MatchFunc) error {
	f, err := resilience.RetryWithResult(ctx, s.retry, func(ctx context.Context) (afero.File, error) {
		return s.fs.Open(path)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &ReadError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	if err := s.scanSource(ctx, f, path, detector.SourceRaw, out, onMatch); err != nil {
		return err
	}

	if s.extractor == nil || !s.wantsExtraction(f) {
		return nil
	}

	sources, err := s.extractor.Sources(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// The raw bytes were scanned; a document that cannot be decoded only
		// loses its extracted text.
		if s.observer != nil && !errors.Is(err, extract.ErrUnsupported) {
			s.observer.Logger().Warn().Str("path", path).Err(err).Msg("document text extraction failed")
		}
		return nil
	}

	for _, src := range sources {
		if err := s.scanSource(ctx, bytes.NewReader(src.Text), path, src.Name, out, onMatch); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) wantsExtraction(f io.ReaderAt) bool {
	head := make([]byte, 262)
	n, _ := f.ReadAt(head, 0)
	return extract.Supported(head[:n])
}

// ScanReader runs the chunk loop over r, attributing matches to path and
// source. It is how extracted document text is scanned.
func (s *Scanner) ScanReader(ctx context.Context, r io.ReaderAt, path, source string, onMatch MatchFunc) (*Outcome, error) {
	out := newOutcome(path)
	if err := s.scanSource(ctx, r, path, source, out, onMatch); err != nil {
		var readErr *ReadError
		if errors.As(err, &readErr) {
			out.Clear()
			return newOutcome(path), err
		}
		return out, err
	}
	return out, nil
}

// scanSource is the chunk loop. Every window owns ChunkSize bytes starting
// at pos and carries a lookbehind and lookahead so that word boundaries, the
// exclusion marker and context snippets are judged on real neighbouring
// bytes. Windows advance by ChunkSize-Overlap; an offset evaluated twice
// because of the overlap is dropped by the seen set.
func (s *Scanner) scanSource(ctx context.Context, r io.ReaderAt, path, source string, out *Outcome, onMatch MatchFunc) error {
	chunk := windowChunk(s.opts.ChunkSize, r)
	marker := []byte(s.opts.ExclusionMarker)
	lookbehind := max(len(marker)+1, s.opts.ContextChars)
	lookahead := max(1, s.opts.ContextChars)
	step := int64(chunk - Overlap)

	buf := make([]byte, lookbehind+chunk+lookahead)
	seen := make(map[int64]struct{})
	throttle := newThrottler(s.opts.Throttle, s.sleep)

	var covered int64
	for pos := int64(0); ; pos += step {
		if err := ctx.Err(); err != nil {
			return err
		}

		back := int(min(pos, int64(lookbehind)))
		n, err := r.ReadAt(buf, pos-int64(back))
		if err != nil && err != io.EOF {
			return &ReadError{Path: path, Op: "read", Err: err}
		}
		if n <= back {
			return nil
		}

		w := detector.Window{
			Data:   buf[:n],
			Offset: pos - int64(back),
			Start:  back,
			End:    min(back+chunk, n),
			Final:  n < len(buf),
		}
		out.ChunksRead++

		var fresh []byte
		if end := w.Offset + int64(n); end > covered {
			fresh = w.Data[max(0, int(covered-w.Offset)):]
			out.BytesRead += end - covered
			covered = end
		}

		for _, c := range detector.Extract(w, marker) {
			if _, dup := seen[c.Offset]; dup {
				continue
			}
			seen[c.Offset] = struct{}{}
			s.evaluate(w, c, path, source, out, onMatch)
		}

		// The file may end inside the lookahead; candidates starting there
		// belong to the next window.
		if w.Final && w.End == n {
			return nil
		}

		next := pos + step
		for off := range seen {
			if off < next {
				delete(seen, off)
			}
		}

		if err := throttle.after(ctx, fresh); err != nil {
			return err
		}
	}
}

// windowChunk shrinks the chunk to the size of r when that is known and
// smaller, so small files do not get a full-size buffer. A source that grows
// while it is read is still covered by further windows.
func windowChunk(chunk int, r io.ReaderAt) int {
	var size int64
	switch src := r.(type) {
	case interface{ Size() int64 }:
		size = src.Size()
	case interface{ Stat() (os.FileInfo, error) }:
		info, err := src.Stat()
		if err != nil {
			return chunk
		}
		size = info.Size()
	default:
		return chunk
	}
	if size >= int64(chunk) {
		return chunk
	}
	return max(int(size), Overlap+1)
}

func (s *Scanner) evaluate(w detector.Window, c detector.Candidate, path, source string, out *Outcome, onMatch MatchFunc) {
	verdict := s.classifier.Identify(c.Digits)
	if !verdict.Confirmed {
		return
	}

	secure := security.NewSecureString(c.Digits)
	m := detector.Match{
		Filename:   path,
		Source:     source,
		Offset:     c.Offset,
		Scheme:     verdict.Scheme,
		Length:     len(c.Digits),
		SecureText: secure,
		Hash:       secure.Sum64(),
		Context:    s.contexts.ExtractContext(w, c),
	}

	if s.suppressions != nil {
		if suppressed, rule := s.suppressions.IsSuppressed(m); suppressed {
			out.Suppressed = append(out.Suppressed, detector.SuppressedMatch{
				Match:        m,
				SuppressedBy: rule.ID,
				RuleReason:   rule.Reason,
				ExpiresAt:    rule.ExpiresAt,
			})
			return
		}
	}

	out.add(m)
	if onMatch != nil {
		onMatch(m)
	}
}

// throttler counts chunks or newlines and sleeps once per Every units.
type throttler struct {
	cfg     Throttle
	pending int
	sleep   func(ctx context.Context, d time.Duration) error
}

func newThrottler(cfg Throttle, sleep func(ctx context.Context, d time.Duration) error) *throttler {
	return &throttler{cfg: cfg, sleep: sleep}
}

func (t *throttler) after(ctx context.Context, fresh []byte) error {
	if !t.cfg.Enabled() {
		return nil
	}

	if t.cfg.Unit == ThrottleLines {
		t.pending += bytes.Count(fresh, []byte{'\n'})
	} else {
		t.pending++
	}

	if t.pending < t.cfg.Every {
		return nil
	}
	times := t.pending / t.cfg.Every
	t.pending %= t.cfg.Every
	return t.sleep(ctx, time.Duration(times)*t.cfg.Sleep)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
