// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"time"

	"github.com/rs/zerolog"
)

// StandardObserver records timed operations on the diagnostics logger
type StandardObserver struct {
	level  ObservabilityLevel
	logger zerolog.Logger
}

type ObservabilityLevel int

const (
	ObservabilityOff     ObservabilityLevel = 0
	ObservabilityMetrics ObservabilityLevel = 1
	ObservabilityDebug   ObservabilityLevel = 2
)

// NewStandardObserver creates observability component
func NewStandardObserver(level ObservabilityLevel, logger zerolog.Logger) *StandardObserver {
	return &StandardObserver{
		level:  level,
		logger: logger,
	}
}

// Logger returns the diagnostics logger backing this observer.
func (o *StandardObserver) Logger() *zerolog.Logger {
	return &o.logger
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, filePath string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		o.LogOperation(StandardObservabilityData{
			Component:  component,
			Operation:  operation,
			FilePath:   filePath,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// LogOperation logs operation data. Metadata is only attached in debug mode.
func (o *StandardObserver) LogOperation(data StandardObservabilityData) {
	if o.level == ObservabilityOff {
		return
	}

	ev := o.logger.Debug()
	if !data.Success {
		ev = o.logger.Info()
	}

	ev = ev.Str("component", data.Component).
		Str("operation", data.Operation).
		Int64("duration_ms", data.DurationMs).
		Bool("success", data.Success)

	if data.FilePath != "" {
		ev = ev.Str("path", data.FilePath)
	}
	if data.Error != "" {
		ev = ev.Str("error", data.Error)
	}
	if data.MatchCount > 0 {
		ev = ev.Int("match_count", data.MatchCount)
	}
	if o.level == ObservabilityDebug && len(data.Metadata) > 0 {
		ev = ev.Fields(data.Metadata)
	}

	ev.Msg("operation")
}

// StandardObservabilityData for all components
type StandardObservabilityData struct {
	Component  string                 `json:"component"`
	Operation  string                 `json:"operation"`
	FilePath   string                 `json:"file_path,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	MatchCount int                    `json:"match_count,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
