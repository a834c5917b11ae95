// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxRetries      int                          // Attempts after the first one
	InitialInterval time.Duration                // Delay before the first retry
	MaxInterval     time.Duration                // Upper bound of a single delay, 0 for none
	Multiplier      float64                      // Growth of the delay per retry
	Jitter          bool                         // Add up to 25% random delay
	OnRetry         func(attempt int, err error) // Called before each retry
}

// DefaultRetryConfig returns the backoff used when opening files. Descriptor
// exhaustion usually clears within milliseconds once other workers close
// their files.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      4,
		InitialInterval: 25 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		Jitter:          true,
	}
}

// Delay is the wait before retry number attempt (1-based), without jitter:
// InitialInterval * Multiplier^(attempt-1), capped at MaxInterval.
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := float64(c.InitialInterval)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
		if c.MaxInterval > 0 && d >= float64(c.MaxInterval) {
			return c.MaxInterval
		}
	}
	if c.MaxInterval > 0 && d > float64(c.MaxInterval) {
		return c.MaxInterval
	}
	return time.Duration(d)
}

func (c RetryConfig) wait(ctx context.Context, attempt int) error {
	d := c.Delay(attempt)
	if c.Jitter && d > 0 {
		d += time.Duration(float64(d) * 0.25 * rand.Float64())
		if c.MaxInterval > 0 {
			d = min(d, c.MaxInterval)
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryableOperation represents an operation that can be retried.
type RetryableOperation func(ctx context.Context) error

// RetryWithBackoff runs operation until it succeeds, fails with an error that
// is not retryable, or MaxRetries retries are used up. The last error is
// returned in the latter case.
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation RetryableOperation) error {
	err := operation(ctx)
	for attempt := 1; err != nil && attempt <= config.MaxRetries; attempt++ {
		if !IsRetryable(err) {
			return err
		}
		if waitErr := config.wait(ctx, attempt); waitErr != nil {
			return waitErr
		}
		if config.OnRetry != nil {
			config.OnRetry(attempt, err)
		}
		err = operation(ctx)
	}
	return err
}

// RetryableFunc is a retryable operation that produces a value.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithResult is RetryWithBackoff for operations that return a value,
// such as opening a file.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn RetryableFunc[T]) (T, error) {
	var result T
	err := RetryWithBackoff(ctx, config, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}

// IsRetryable reports whether an error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).IsRetryable()
}
