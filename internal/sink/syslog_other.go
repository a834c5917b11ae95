// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build windows || plan9

package sink

import (
	"errors"

	"cardsearch/internal/detector"
	"cardsearch/internal/scanner"
)

// SyslogTag identifies cardsearch entries in the system log.
const SyslogTag = "cardsearch"

// SyslogSink is unavailable on this platform.
type SyslogSink struct{}

func NewSyslogSink() (*SyslogSink, error) {
	return nil, &InitError{Sink: "syslog", Target: "LOG_USER", Err: errors.New("syslog is not supported on this platform")}
}

func (s *SyslogSink) Match(detector.Match) error { return nil }
func (s *SyslogSink) Summary(*scanner.Outcome) error { return nil }
func (s *SyslogSink) Close() error { return nil }
