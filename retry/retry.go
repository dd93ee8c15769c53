// Package retry runs an operation with bounded attempts and a backoff between them.
package retry

import (
	"context"
	"time"
)

// Do performs operation, retrying on failure.
// Returns a *MultiError once attempts are exhausted.
func Do(ctx context.Context, operation func() error, opts ...Option) error {
	_, err := DoWithData(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	}, opts...)

	return err
}

// DoWithData performs operation and returns its data, retrying on failure
func DoWithData[T any](ctx context.Context, operation func() (T, error), opts ...Option) (T, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var zero T
	var errs []error

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}
		errs = append(errs, err)

		if !cfg.condition.ShouldRetry(err, attempt) || attempt == cfg.maxAttempts {
			return zero, &MultiError{Errors: errs, Attempts: attempt}
		}

		if cfg.onRetry != nil {
			cfg.onRetry(attempt, err)
		}

		backoff := cfg.backoff.Next(attempt)

		// Not enough time left before the deadline
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < backoff {
			return zero, &MultiError{Errors: append(errs, context.DeadlineExceeded), Attempts: attempt}
		}

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}

	return zero, &MultiError{Errors: errs, Attempts: cfg.maxAttempts}
}
