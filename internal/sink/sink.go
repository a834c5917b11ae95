// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package sink delivers scan results to the operator: an aggregate log
// file, syslog and the console.
package sink

import (
	"errors"
	"fmt"

	"cardsearch/internal/detector"
	"cardsearch/internal/scanner"
)

// Sink receives confirmed matches as they are found and a summary per file
// with at least one match. Implementations serialize their own writes and
// may be shared by concurrent scans.
type Sink interface {
	Match(m detector.Match) error
	Summary(o *scanner.Outcome) error
	Close() error
}

// InitError reports a sink that could not be opened. The run stops before
// anything is scanned.
type InitError struct {
	Sink   string
	Target string
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("cannot open %s sink %s: %v", e.Sink, e.Target, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// SummaryLine is the aggregate log header for one file.
func SummaryLine(o *scanner.Outcome) string {
	return fmt.Sprintf("Found %d matches in %s", o.Count(), o.Path)
}

// Multi fans every call out to all of its sinks.
type Multi []Sink

func (m Multi) Match(match detector.Match) error {
	var errs []error
	for _, s := range m {
		if err := s.Match(match); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Summary(o *scanner.Outcome) error {
	var errs []error
	for _, s := range m {
		if err := s.Summary(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
