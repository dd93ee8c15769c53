package httpclient

import (
	"net/http"
	"time"

	"github.com/KOMKZ/yogan-market/retry"
)

type config struct {
	baseURL       string
	timeout       time.Duration
	transport     http.RoundTripper
	headers       http.Header
	retryOpts     []retry.Option
	retryEnabled  bool
	beforeRequest func(*http.Request) error
}

// Option 配置选项类型
type Option func(*config)

// WithBaseURL 设置基础 URL
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithTimeout per-request timeout; 0 disables it
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithTransport 设置自定义 Transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) {
		c.transport = rt
	}
}

// WithHeader default header added to every request
func WithHeader(key, value string) Option {
	return func(c *config) {
		c.headers.Set(key, value)
	}
}

// WithRetry replays idempotent requests after transport errors
func WithRetry(opts ...retry.Option) Option {
	return func(c *config) {
		c.retryEnabled = true
		c.retryOpts = opts
	}
}

// WithBeforeRequest 设置请求前钩子
func WithBeforeRequest(fn func(*http.Request) error) Option {
	return func(c *config) {
		c.beforeRequest = fn
	}
}

func newConfig() *config {
	return &config{
		timeout: 30 * time.Second,
		headers: make(http.Header),
	}
}
