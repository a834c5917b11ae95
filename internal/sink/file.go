// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"cardsearch/internal/detector"
	"cardsearch/internal/scanner"

	"github.com/spf13/afero"
)

// FileSink writes the aggregate log: a "Found <n> matches in <path>" line
// per file followed by one line per matched value.
type FileSink struct {
	mu   sync.Mutex
	path string
	file afero.File
	w    *bufio.Writer
}

// NewFileSink truncates or creates path. The file holds card numbers and
// is created readable by the owner only.
func NewFileSink(fs afero.Fs, path string) (*FileSink, error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, &InitError{Sink: "file", Target: path, Err: err}
	}
	return &FileSink{path: path, file: f, w: bufio.NewWriter(f)}, nil
}

// Path returns the log file location.
func (s *FileSink) Path() string {
	return s.path
}

// Match is a no-op; the aggregate log is written per file.
func (s *FileSink) Match(detector.Match) error {
	return nil
}

func (s *FileSink) Summary(o *scanner.Outcome) error {
	if o.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.WriteString(SummaryLine(o) + "\n"); err != nil {
		return fmt.Errorf("failed to write summary of %s: %w", o.Path, err)
	}
	for _, m := range o.Matches {
		if _, err := s.w.WriteString(m.Value() + "\n"); err != nil {
			return fmt.Errorf("failed to write match of %s: %w", o.Path, err)
		}
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", s.path, err)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flushErr := s.w.Flush()
	if err := s.file.Close(); err != nil {
		return err
	}
	return flushErr
}
