// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"cardsearch/internal/detector"
	"cardsearch/internal/scanner"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ConsoleOptions configures the console sink.
type ConsoleOptions struct {
	Writer  io.Writer // defaults to os.Stdout
	Quiet   bool      // per-file counts instead of per-match records
	NoColor bool
}

// ConsoleSink prints one record per match, or one count line per file in
// quiet mode.
type ConsoleSink struct {
	mu     sync.Mutex
	w      io.Writer
	quiet  bool
	colors map[string]*color.Color
}

// NewConsoleSink creates a console sink. Colour is used only when the
// writer is a terminal and NoColor is not set.
func NewConsoleSink(opts ConsoleOptions) *ConsoleSink {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	s := &ConsoleSink{
		w:     w,
		quiet: opts.Quiet,
		colors: map[string]*color.Color{
			"location": color.New(color.FgCyan),
			"scheme":   color.New(color.FgYellow),
			"value":    color.New(color.FgRed, color.Bold),
			"context":  color.New(color.FgWhite),
		},
	}

	enabled := !opts.NoColor && isTerminal(w)
	for _, c := range s.colors {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *ConsoleSink) Match(m detector.Match) error {
	if s.quiet {
		return nil
	}

	value := m.Value()
	location := m.Filename + ":"
	if m.Source != "" && m.Source != detector.SourceRaw {
		location += m.Source + ":"
	}
	location += strconv.FormatInt(m.Offset, 10)

	line := fmt.Sprintf("%s [%s] %s  ...%s[%s]%s...\n",
		s.colors["location"].Sprint(location),
		s.colors["scheme"].Sprint(m.Scheme),
		value,
		s.colors["context"].Sprint(m.Context.BeforeText),
		s.colors["value"].Sprint(value),
		s.colors["context"].Sprint(m.Context.AfterText),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line)
	return err
}

func (s *ConsoleSink) Summary(o *scanner.Outcome) error {
	if !s.quiet || o.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, SummaryLine(o))
	return err
}

// Close leaves the underlying writer open.
func (s *ConsoleSink) Close() error {
	return nil
}
