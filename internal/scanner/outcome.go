// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"fmt"

	"cardsearch/internal/detector"
)

// Outcome is the result of scanning one file.
type Outcome struct {
	Path       string
	Matches    []detector.Match // confirmed and not suppressed, in discovery order
	Suppressed []detector.SuppressedMatch
	ChunksRead int
	BytesRead  int64

	distinct map[uint64]struct{}
}

func newOutcome(path string) *Outcome {
	return &Outcome{Path: path, distinct: make(map[uint64]struct{})}
}

func (o *Outcome) add(m detector.Match) {
	o.Matches = append(o.Matches, m)
	o.distinct[m.Hash] = struct{}{}
}

// Count is the number of reported matches.
func (o *Outcome) Count() int {
	return len(o.Matches)
}

// Unique is the number of distinct card numbers among the matches.
func (o *Outcome) Unique() int {
	return len(o.distinct)
}

// SuppressedCount is the number of confirmed matches hidden by a rule.
func (o *Outcome) SuppressedCount() int {
	return len(o.Suppressed)
}

// Empty reports whether there is nothing to hand to a sink.
func (o *Outcome) Empty() bool {
	return o == nil || len(o.Matches) == 0
}

// Clear wipes every match value held by the outcome.
func (o *Outcome) Clear() {
	for i := range o.Matches {
		o.Matches[i].Clear()
	}
	for i := range o.Suppressed {
		o.Suppressed[i].Match.Clear()
	}
}

// ReadError reports a file that could not be opened or read. The file's
// outcome is empty; the run continues.
type ReadError struct {
	Path string
	Op   string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
