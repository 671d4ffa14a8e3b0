// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the wait before the first retry.
	DefaultBaseDelay = time.Second
	// DefaultJitter is the relative spread applied to every wait.
	DefaultJitter = 0.2
)

// Operation is a remote call that can be attempted more than once.
type Operation[T any] func(ctx context.Context) (T, error)

// Policy describes how an operation is retried.
// A Policy holds no state between calls and is safe for concurrent use.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero means a single attempt.
	MaxRetries int

	// BaseDelay is the wait before retry 1; retry k waits BaseDelay * 2^(k-1).
	BaseDelay time.Duration

	// Jitter spreads every wait by up to ±Jitter of its length (0.2 = ±20%).
	Jitter float64

	// IsRetryable decides whether an error is worth another attempt.
	// Defaults to the package IsRetryable.
	IsRetryable func(error) bool

	// Logger receives retry diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	random func() float64
}

// DefaultPolicy returns a policy of 3 retries starting at one second with ±20% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:  DefaultMaxRetries,
		BaseDelay:   DefaultBaseDelay,
		Jitter:      DefaultJitter,
		IsRetryable: IsRetryable,
	}
}

// Delay returns the wait before the given attempt (attempt 0 never waits).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 || p.BaseDelay <= 0 {
		return 0
	}

	// Calculate exponential backoff: baseDelay * 2^(attempt-1)
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	if p.Jitter > 0 {
		random := p.random
		if random == nil {
			random = rand.Float64
		}
		factor := 1 + p.Jitter*(2*random()-1)
		delay = time.Duration(float64(delay) * factor)
	}
	return delay
}

// Do runs an operation that returns only an error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Execute(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Execute runs op, retrying retryable failures with exponential backoff.
// It makes at most MaxRetries+1 attempts. Non-retryable errors are returned
// unchanged; after the last attempt the final error is returned wrapped in
// ErrRetriesExhausted.
func Execute[T any](ctx context.Context, p Policy, op Operation[T]) (T, error) {
	var zero T
	if p.MaxRetries < 0 {
		return zero, ErrInvalidMaxRetries
	}

	isRetryable := p.IsRetryable
	if isRetryable == nil {
		isRetryable = IsRetryable
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.Delay(attempt)
			logger.Debug("retrying operation", "attempt", attempt, "maxRetries", p.MaxRetries, "delay", delay, "err", lastErr)
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		// Check context before attempting
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, p.MaxRetries+1, lastErr)
}

// sleepContext waits for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
