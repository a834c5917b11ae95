// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// DebugEnvVar turns on debug diagnostics when set to a non-empty value.
const DebugEnvVar = "CARDSEARCH_DEBUG"

// LoggerOptions controls the diagnostics channel. Diagnostics never go to
// the report sinks.
type LoggerOptions struct {
	Writer  io.Writer // defaults to os.Stderr
	Level   zerolog.Level
	NoColor bool
}

// NewLogger builds the console diagnostics logger.
func NewLogger(opts LoggerOptions) zerolog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    opts.NoColor,
		TimeFormat: "2006-01-02 15:04:05",
	}

	return zerolog.New(out).Level(opts.Level).With().Timestamp().Logger()
}

// ResolveLevel picks the diagnostics level. Debug wins over quiet; quiet
// keeps only errors.
func ResolveLevel(debug, quiet bool) zerolog.Level {
	if debug || debugFromEnv() {
		return zerolog.DebugLevel
	}
	if quiet {
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// ParseLevel maps a config level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func debugFromEnv() bool {
	v := strings.TrimSpace(os.Getenv(DebugEnvVar))
	return v != "" && v != "0" && !strings.EqualFold(v, "false")
}
