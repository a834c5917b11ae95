// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardsearch/internal/observability"
	"cardsearch/internal/scanner"

	"github.com/panjf2000/ants/v2"
)

// ProcessFunc scans one file.
type ProcessFunc func(ctx context.Context, path string) (*scanner.Outcome, error)

// WorkerPool runs a fixed number of scan workers on an ants goroutine pool
type WorkerPool struct {
	workers  int
	jobs     chan *Job
	results  chan *Result
	wg       sync.WaitGroup
	pool     *ants.Pool
	process  ProcessFunc
	observer *observability.StandardObserver
}

// Job represents a file scanning task
type Job struct {
	JobID    string
	FilePath string
}

// Result represents the outcome of one job
type Result struct {
	JobID    string
	FilePath string
	Outcome  *scanner.Outcome
	Error    error
	Duration time.Duration
}

// NewWorkerPool creates a pool of workers that hand every job to process.
func NewWorkerPool(workers int, process ProcessFunc, observer *observability.StandardObserver) (*WorkerPool, error) {
	if workers < 1 {
		workers = 1
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create goroutine pool: %w", err)
	}

	return &WorkerPool{
		workers:  workers,
		jobs:     make(chan *Job, workers*2),
		results:  make(chan *Result, workers*2),
		pool:     pool,
		process:  process,
		observer: observer,
	}, nil
}

// Start launches the workers. Results is closed once CloseJobs was called
// and every queued job has been processed.
func (wp *WorkerPool) Start(ctx context.Context) error {
	for i := 0; i < wp.workers; i++ {
		id := i
		wp.wg.Add(1)
		if err := wp.pool.Submit(func() { wp.worker(ctx, id) }); err != nil {
			wp.wg.Done()
			close(wp.jobs)
			wp.wg.Wait()
			close(wp.results)
			return fmt.Errorf("failed to start worker %d: %w", id, err)
		}
	}

	go func() {
		wp.wg.Wait()
		close(wp.results)
	}()
	return nil
}

// Submit queues a job, blocking while all workers are busy.
func (wp *WorkerPool) Submit(ctx context.Context, job *Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseJobs tells the workers no more jobs will arrive.
func (wp *WorkerPool) CloseJobs() {
	close(wp.jobs)
}

// Results returns the result channel. It must be drained.
func (wp *WorkerPool) Results() <-chan *Result {
	return wp.results
}

// Release frees the goroutine pool after Results was drained.
func (wp *WorkerPool) Release() {
	wp.pool.Release()
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		wp.results <- wp.processJob(ctx, job, id)
	}
}

func (wp *WorkerPool) processJob(ctx context.Context, job *Job, workerID int) *Result {
	start := time.Now()

	var finishTiming func(bool, map[string]interface{})
	if wp.observer != nil {
		finishTiming = wp.observer.StartTiming("worker_pool", "process_job", job.FilePath)
	}

	outcome, err := wp.process(ctx, job.FilePath)
	duration := time.Since(start)

	if finishTiming != nil {
		matches := 0
		if outcome != nil {
			matches = outcome.Count()
		}
		finishTiming(err == nil, map[string]interface{}{
			"worker_id":   workerID,
			"match_count": matches,
			"had_error":   err != nil,
		})
	}

	return &Result{
		JobID:    job.JobID,
		FilePath: job.FilePath,
		Outcome:  outcome,
		Error:    err,
		Duration: duration,
	}
}
