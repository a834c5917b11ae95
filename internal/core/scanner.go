// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package core runs a scan: it walks the roots, scans every file, feeds
// the sinks and writes the end-of-run report.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardsearch/internal/detector"
	"cardsearch/internal/formatters"
	_ "cardsearch/internal/formatters/csv"
	_ "cardsearch/internal/formatters/json"
	_ "cardsearch/internal/formatters/junit"
	_ "cardsearch/internal/formatters/sarif"
	_ "cardsearch/internal/formatters/yaml"
	"cardsearch/internal/observability"
	"cardsearch/internal/parallel"
	"cardsearch/internal/scanner"
	"cardsearch/internal/sink"
	"cardsearch/internal/suppressions"
	"cardsearch/internal/walker"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// GeneratedRuleReason is recorded on rules written by --generate-suppressions.
const GeneratedRuleReason = "Auto-generated suppression rule (disabled by default)"

// Config holds configuration for one run. It is not modified by Run.
type Config struct {
	Roots            []string
	Fs               afero.Fs
	Options          scanner.Options
	Whitelist        *walker.Whitelist
	Workers          int
	ExtractDocuments bool
	Report           ReportConfig

	// Suppressions, when non-nil, hides accepted findings from the sinks.
	Suppressions         *suppressions.SuppressionManager
	GenerateSuppressions bool

	Observer *observability.StandardObserver
}

// ReportConfig describes the optional structured report.
type ReportConfig struct {
	Path      string
	Format    string
	ShowMatch bool
	Verbose   bool
}

// Enabled reports whether a report file is requested.
func (r ReportConfig) Enabled() bool {
	return r.Path != ""
}

func (c Config) observer() *observability.StandardObserver {
	if c.Observer != nil {
		return c.Observer
	}
	return observability.NewStandardObserver(observability.ObservabilityOff, zerolog.Nop())
}

// Summary holds the totals of a run.
type Summary struct {
	FilesScanned     int
	FilesWithMatches int
	FilesFailed      int
	DirErrors        int
	Matches          int
	Suppressed       int
	RulesGenerated   int
	Duration         time.Duration
}

// Validate rejects a configuration Run cannot start with.
func (c Config) Validate() error {
	if len(c.Roots) == 0 {
		return errors.New("at least one root is required")
	}
	if err := c.Options.Validate(); err != nil {
		return err
	}
	if c.Report.Enabled() {
		if _, ok := formatters.Get(c.Report.Format); !ok {
			return fmt.Errorf("unsupported report format '%s'", c.Report.Format)
		}
	}
	if c.GenerateSuppressions && c.Suppressions == nil {
		return errors.New("generating suppressions needs a suppression file")
	}
	return nil
}

// run is the state of one Run call. Outcomes are handled by one goroutine
// at a time.
type run struct {
	cfg     Config
	out     sink.Sink
	logger  *zerolog.Logger
	summary Summary

	keepValues bool
	matches    []detector.Match
	suppressed []detector.SuppressedMatch
}

// Run scans every root and reports to out. Directory and file errors are
// logged and counted, never returned. The returned error is the context's
// error when the run was interrupted, or a report writing failure.
func Run(ctx context.Context, cfg Config, out sink.Sink) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}

	start := time.Now()
	obs := cfg.observer()
	finishTiming := obs.StartTiming("core", "run", fmt.Sprint(cfg.Roots))

	r := &run{
		cfg:        cfg,
		out:        out,
		logger:     obs.Logger(),
		keepValues: cfg.Report.Enabled() || cfg.GenerateSuppressions,
	}

	sc := BuildScanner(cfg)
	w := walker.New(cfg.Fs, cfg.Whitelist)
	w.OnError = r.directoryError

	var walkErr error
	if cfg.Workers <= 1 {
		walkErr = w.Walk(ctx, cfg.Roots, func(path string) error {
			outcome, err := sc.Scan(ctx, path, r.match)
			r.handle(path, outcome, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	} else {
		pp := parallel.NewParallelProcessor(cfg.Workers, obs)
		_, walkErr = pp.Process(ctx,
			func(submit func(string) error) error {
				return w.Walk(ctx, cfg.Roots, submit)
			},
			func(ctx context.Context, path string) (*scanner.Outcome, error) {
				return sc.Scan(ctx, path, r.match)
			},
			func(res *parallel.Result) {
				r.handle(res.FilePath, res.Outcome, res.Error)
			},
		)
	}

	reportErr := r.finish()
	r.summary.Duration = time.Since(start)

	finishTiming(walkErr == nil && reportErr == nil, map[string]interface{}{
		"files":       r.summary.FilesScanned,
		"failed":      r.summary.FilesFailed,
		"dir_errors":  r.summary.DirErrors,
		"matches":     r.summary.Matches,
		"suppressed":  r.summary.Suppressed,
		"interrupted": ctx.Err() != nil,
	})

	return &r.summary, errors.Join(walkErr, reportErr)
}

func (r *run) match(m detector.Match) {
	if err := r.out.Match(m); err != nil {
		r.logger.Error().Err(err).Str("path", m.Filename).Msg("cannot write match")
	}
}

func (r *run) directoryError(err error) {
	r.summary.DirErrors++

	var dirErr *walker.DirectoryAccessError
	if errors.As(err, &dirErr) {
		r.logger.Warn().Str("path", dirErr.Path).Err(dirErr.Err).Msgf("cannot %s directory", dirErr.Op)
		return
	}
	r.logger.Warn().Err(err).Msg("walk error")
}

func (r *run) handle(path string, outcome *scanner.Outcome, err error) {
	var readErr *scanner.ReadError
	switch {
	case errors.As(err, &readErr):
		r.summary.FilesFailed++
		r.logger.Warn().Str("path", readErr.Path).Err(readErr.Err).Msgf("cannot %s file", readErr.Op)
		return
	case err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded):
		r.summary.FilesFailed++
		r.logger.Warn().Str("path", path).Err(err).Msg("scan failed")
		return
	}
	if outcome == nil {
		return
	}

	// an interrupted file still reports what was already printed
	if err == nil {
		r.summary.FilesScanned++
	}
	r.summary.Suppressed += outcome.SuppressedCount()

	if !outcome.Empty() {
		r.summary.FilesWithMatches++
		r.summary.Matches += outcome.Count()
		if err := r.out.Summary(outcome); err != nil {
			r.logger.Error().Err(err).Str("path", outcome.Path).Msg("cannot write summary")
		}
	}

	if r.keepValues {
		r.matches = append(r.matches, outcome.Matches...)
		r.suppressed = append(r.suppressed, outcome.Suppressed...)
		return
	}
	outcome.Clear()
}

// finish writes the report and generated rules, then wipes every value
// still held.
func (r *run) finish() error {
	defer func() {
		for i := range r.matches {
			r.matches[i].Clear()
		}
		for i := range r.suppressed {
			r.suppressed[i].Match.Clear()
		}
	}()

	if r.cfg.GenerateSuppressions {
		r.generateRules()
	}

	if !r.cfg.Report.Enabled() {
		return nil
	}
	return r.writeReport()
}

func (r *run) generateRules() {
	if len(r.matches) == 0 {
		r.logger.Info().Msg("no findings to generate suppression rules for")
		return
	}

	added, err := r.cfg.Suppressions.GenerateSuppressionRules(r.matches, GeneratedRuleReason, false)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to generate suppression rules")
		return
	}
	r.summary.RulesGenerated = added
	r.logger.Info().
		Int("added", added).
		Str("file", r.cfg.Suppressions.GetConfigPath()).
		Msg("suppression rules updated; set 'enabled: true' to accept a finding")
}

func (r *run) writeReport() error {
	rc := r.cfg.Report
	report, err := formatters.Export(rc.Format, r.matches, r.suppressed, formatters.FormatterOptions{
		Verbose:   rc.Verbose,
		ShowMatch: rc.ShowMatch,
	})
	if err != nil {
		return fmt.Errorf("error formatting report: %w", err)
	}

	if err := afero.WriteFile(r.cfg.Fs, rc.Path, []byte(report), 0600); err != nil {
		return fmt.Errorf("error writing report to %s: %w", rc.Path, err)
	}

	r.logger.Info().Str("file", rc.Path).Str("format", rc.Format).Int("findings", len(r.matches)).Msg("report written")
	return nil
}
