package retry

import "time"

// Config 重试配置
type Config struct {
	maxAttempts int
	backoff     BackoffStrategy
	condition   RetryCondition
	onRetry     func(attempt int, err error)
}

func defaultConfig() *Config {
	return &Config{
		maxAttempts: 3,
		backoff:     ExponentialBackoff(time.Second),
		condition:   AlwaysRetry(),
	}
}

// Option 配置选项函数
type Option func(*Config)

// MaxAttempts sets the total number of attempts (including the first)
func MaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// Backoff sets the backoff strategy
func Backoff(b BackoffStrategy) Option {
	return func(c *Config) {
		if b != nil {
			c.backoff = b
		}
	}
}

// Condition sets the retry condition
func Condition(cond RetryCondition) Option {
	return func(c *Config) {
		if cond != nil {
			c.condition = cond
		}
	}
}

// OnRetry is called after a failed attempt that will be retried
func OnRetry(f func(attempt int, err error)) Option {
	return func(c *Config) {
		c.onRetry = f
	}
}
