// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"time"

	"cardsearch/internal/observability"
)

// ParallelProcessor scans files concurrently while a single consumer
// receives the results.
type ParallelProcessor struct {
	workers  int
	observer *observability.StandardObserver
}

// ProcessingStats tracks parallel processing statistics
type ProcessingStats struct {
	TotalFiles     int           `json:"total_files"`
	ProcessedFiles int           `json:"processed_files"`
	FailedFiles    int           `json:"failed_files"`
	TotalMatches   int           `json:"total_matches"`
	TotalDuration  time.Duration `json:"total_duration_ms"`
	WorkerCount    int           `json:"worker_count"`
	AvgFileTime    time.Duration `json:"avg_file_time_ms"`
}

// Producer feeds paths to submit until it is done or submit fails.
type Producer func(submit func(path string) error) error

// NewParallelProcessor creates a processor with the given number of workers.
func NewParallelProcessor(workers int, observer *observability.StandardObserver) *ParallelProcessor {
	return &ParallelProcessor{
		workers:  max(workers, 1),
		observer: observer,
	}
}

// Process runs produce on its own goroutine, scans every submitted path on
// the pool and calls consume for each result on the calling goroutine.
// The producer's error, including cancellation, is returned after all
// submitted jobs have been consumed.
func (pp *ParallelProcessor) Process(ctx context.Context, produce Producer, process ProcessFunc, consume func(*Result)) (*ProcessingStats, error) {
	start := time.Now()

	var finishTiming func(bool, map[string]interface{})
	if pp.observer != nil {
		finishTiming = pp.observer.StartTiming("parallel_processor", "process_files", "batch")
	}

	pool, err := NewWorkerPool(pp.workers, process, pp.observer)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	if err := pool.Start(ctx); err != nil {
		return nil, err
	}

	produced := make(chan error, 1)
	go func() {
		defer pool.CloseJobs()
		n := 0
		produced <- produce(func(path string) error {
			job := &Job{JobID: fmt.Sprintf("job_%d", n), FilePath: path}
			n++
			return pool.Submit(ctx, job)
		})
	}()

	stats := &ProcessingStats{WorkerCount: pool.Workers()}
	var totalFileTime time.Duration

	for result := range pool.Results() {
		stats.TotalFiles++
		if result.Error != nil {
			stats.FailedFiles++
		} else {
			stats.ProcessedFiles++
			if result.Outcome != nil {
				stats.TotalMatches += result.Outcome.Count()
			}
		}
		totalFileTime += result.Duration

		if consume != nil {
			consume(result)
		}
	}

	stats.TotalDuration = time.Since(start)
	stats.AvgFileTime = totalFileTime / time.Duration(max(stats.TotalFiles, 1))

	produceErr := <-produced

	if finishTiming != nil {
		finishTiming(produceErr == nil, map[string]interface{}{
			"total_files":     stats.TotalFiles,
			"processed_files": stats.ProcessedFiles,
			"total_matches":   stats.TotalMatches,
			"worker_count":    stats.WorkerCount,
		})
	}

	return stats, produceErr
}
