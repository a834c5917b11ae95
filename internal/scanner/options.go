// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"fmt"
	"strings"
	"time"

	"cardsearch/internal/card"
	"cardsearch/internal/detector"
)

const (
	// DefaultChunkSize is the read window size (1 MiB).
	DefaultChunkSize = 1 << 20

	// MaxChunkSize bounds the read window (1 GiB).
	MaxChunkSize = 1 << 30

	// Overlap is how many bytes successive chunks share, so that a candidate
	// of maximal length is always seen whole by at least one chunk.
	Overlap = card.MaxCandidateLen - 1
)

// ThrottleUnit is what a throttle counts.
type ThrottleUnit string

const (
	ThrottleChunks ThrottleUnit = "chunks"
	ThrottleLines  ThrottleUnit = "lines"
)

// ParseThrottleUnit accepts "chunks" or "lines" (case-insensitive).
func ParseThrottleUnit(s string) (ThrottleUnit, error) {
	switch ThrottleUnit(strings.ToLower(strings.TrimSpace(s))) {
	case "", ThrottleChunks:
		return ThrottleChunks, nil
	case ThrottleLines:
		return ThrottleLines, nil
	default:
		return "", fmt.Errorf("unknown throttle unit %q (want chunks or lines)", s)
	}
}

// Throttle pauses for Sleep after every Every units of input. It bounds the
// I/O and CPU pressure a scan puts on a production host and has no effect
// on results.
type Throttle struct {
	Every int
	Sleep time.Duration
	Unit  ThrottleUnit
}

// Enabled reports whether the throttle will ever sleep.
func (t Throttle) Enabled() bool {
	return t.Every > 0 && t.Sleep > 0
}

// Options is the immutable per-run scanner configuration.
type Options struct {
	ChunkSize       int
	ExclusionMarker string
	ContextChars    int
	Throttle        Throttle
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ChunkSize:    DefaultChunkSize,
		ContextChars: detector.DefaultContextChars,
		Throttle:     Throttle{Unit: ThrottleChunks},
	}
}

// Validate rejects option values the chunk protocol cannot work with.
func (o Options) Validate() error {
	if o.ChunkSize <= Overlap {
		return fmt.Errorf("chunk size must be greater than %d bytes, got %d", Overlap, o.ChunkSize)
	}
	if o.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk size must be at most %d bytes, got %d", MaxChunkSize, o.ChunkSize)
	}
	if o.ContextChars < 0 {
		return fmt.Errorf("context chars must not be negative, got %d", o.ContextChars)
	}
	if o.Throttle.Every < 0 {
		return fmt.Errorf("throttle interval must not be negative, got %d", o.Throttle.Every)
	}
	if o.Throttle.Sleep < 0 {
		return fmt.Errorf("throttle sleep must not be negative, got %s", o.Throttle.Sleep)
	}
	if _, err := ParseThrottleUnit(string(o.Throttle.Unit)); err != nil {
		return err
	}
	return nil
}
