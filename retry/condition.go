package retry

import (
	"context"
	"errors"
)

// RetryCondition decides whether a failed attempt is retried
type RetryCondition interface {
	ShouldRetry(err error, attempt int) bool
}

// ConditionFunc adapts a function to RetryCondition
type ConditionFunc func(err error, attempt int) bool

func (f ConditionFunc) ShouldRetry(err error, attempt int) bool {
	return f(err, attempt)
}

// AlwaysRetry retries every non-nil error
func AlwaysRetry() RetryCondition {
	return ConditionFunc(func(err error, _ int) bool {
		return err != nil
	})
}

// SkipContextErrors retries every error except context cancellation and deadline
func SkipContextErrors() RetryCondition {
	return ConditionFunc(func(err error, _ int) bool {
		if err == nil {
			return false
		}
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	})
}
