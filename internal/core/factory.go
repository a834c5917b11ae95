// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"cardsearch/internal/extract"
	"cardsearch/internal/scanner"
	"cardsearch/internal/sink"

	"github.com/spf13/afero"
)

// SinkConfig selects the reporting sinks of a run.
type SinkConfig struct {
	Fs      afero.Fs
	Output  string // aggregate log file, empty for none
	Syslog  bool
	Console sink.ConsoleOptions
}

// BuildSinks opens every configured sink. If one cannot be opened the ones
// already opened are closed and the *sink.InitError is returned.
func BuildSinks(cfg SinkConfig) (sink.Multi, error) {
	sinks := sink.Multi{sink.NewConsoleSink(cfg.Console)}

	if cfg.Output != "" {
		fs := cfg.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		fileSink, err := sink.NewFileSink(fs, cfg.Output)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, fileSink)
	}

	if cfg.Syslog {
		syslogSink, err := sink.NewSyslogSink()
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, syslogSink)
	}

	return sinks, nil
}

// BuildScanner wires the per-file scanner from the run configuration.
func BuildScanner(cfg Config) *scanner.Scanner {
	sc := scanner.New(cfg.Fs, cfg.Options).WithObserver(cfg.observer())

	if cfg.Suppressions != nil {
		sc = sc.WithSuppressions(cfg.Suppressions)
	}
	if cfg.ExtractDocuments {
		sc = sc.WithExtractor(extract.New(cfg.Fs))
	}
	return sc
}
