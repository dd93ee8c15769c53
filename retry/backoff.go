package retry

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy 退避策略接口
type BackoffStrategy interface {
	// Next returns the delay after the given attempt (attempt starts at 1)
	Next(attempt int) time.Duration
}

// BackoffOption 退避策略选项
type BackoffOption func(*backoffConfig)

type backoffConfig struct {
	multiplier float64
	maxDelay   time.Duration
	jitter     float64
}

// WithMultiplier sets the exponential multiplier
func WithMultiplier(m float64) BackoffOption {
	return func(c *backoffConfig) {
		if m > 0 {
			c.multiplier = m
		}
	}
}

// WithMaxDelay caps the delay
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(c *backoffConfig) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// WithJitter sets the jitter ratio (0.0 - 1.0)
func WithJitter(ratio float64) BackoffOption {
	return func(c *backoffConfig) {
		if ratio >= 0 && ratio <= 1.0 {
			c.jitter = ratio
		}
	}
}

type exponentialBackoff struct {
	base   time.Duration
	config backoffConfig
}

// ExponentialBackoff delay = base * multiplier^(attempt-1), capped and jittered
func ExponentialBackoff(base time.Duration, opts ...BackoffOption) BackoffStrategy {
	config := backoffConfig{multiplier: 2.0, maxDelay: 30 * time.Second, jitter: 0.2}
	for _, opt := range opts {
		opt(&config)
	}
	return &exponentialBackoff{base: base, config: config}
}

func (b *exponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(b.base) * math.Pow(b.config.multiplier, float64(attempt-1))
	if delay > float64(b.config.maxDelay) {
		delay = float64(b.config.maxDelay)
	}
	if b.config.jitter > 0 {
		delay = applyJitter(delay, b.config.jitter)
	}

	return time.Duration(delay)
}

type constantBackoff struct {
	delay  time.Duration
	config backoffConfig
}

// ConstantBackoff waits the same delay after every attempt.
// No jitter unless WithJitter is given.
func ConstantBackoff(delay time.Duration, opts ...BackoffOption) BackoffStrategy {
	var config backoffConfig
	for _, opt := range opts {
		opt(&config)
	}
	return &constantBackoff{delay: delay, config: config}
}

func (b *constantBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(b.delay)
	if b.config.jitter > 0 {
		delay = applyJitter(delay, b.config.jitter)
	}

	return time.Duration(delay)
}

// NoBackoff retries immediately
func NoBackoff() BackoffStrategy {
	return ConstantBackoff(0)
}

// applyJitter picks a value in [delay*(1-jitter), delay*(1+jitter)]
func applyJitter(delay float64, jitter float64) float64 {
	spread := delay * jitter
	result := delay - spread + rand.Float64()*2*spread
	if result < 0 {
		return 0
	}
	return result
}
