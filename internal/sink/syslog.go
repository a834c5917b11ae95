// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build !windows && !plan9

package sink

import (
	"io"
	"log/syslog"
	"sync"

	"cardsearch/internal/detector"
	"cardsearch/internal/scanner"

	"github.com/rs/zerolog"
)

// SyslogTag identifies cardsearch entries in the system log.
const SyslogTag = "cardsearch"

// SyslogSink sends per-file summaries to syslog. Matched values are never
// forwarded.
type SyslogSink struct {
	mu     sync.Mutex
	logger zerolog.Logger
	closer io.Closer
}

// NewSyslogSink connects to the local syslog daemon with facility LOG_USER.
func NewSyslogSink() (*SyslogSink, error) {
	w, err := syslog.New(syslog.LOG_USER|syslog.LOG_INFO, SyslogTag)
	if err != nil {
		return nil, &InitError{Sink: "syslog", Target: "LOG_USER", Err: err}
	}
	return newSyslogSink(w, w), nil
}

func newSyslogSink(w zerolog.SyslogWriter, closer io.Closer) *SyslogSink {
	return &SyslogSink{
		logger: zerolog.New(zerolog.SyslogLevelWriter(w)),
		closer: closer,
	}
}

// Match is a no-op; syslog only sees summaries.
func (s *SyslogSink) Match(detector.Match) error {
	return nil
}

func (s *SyslogSink) Summary(o *scanner.Outcome) error {
	if o.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info().
		Str("path", o.Path).
		Int("matches", o.Count()).
		Int("unique", o.Unique()).
		Msg(SummaryLine(o))
	return nil
}

func (s *SyslogSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
