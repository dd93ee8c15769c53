// Package httpclient is a small HTTP client for forwarding requests to
// upstream services. Any status code is a response; only transport
// failures are errors.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KOMKZ/yogan-market/retry"
)

// ErrRequestFailed the request never produced a response
var ErrRequestFailed = errors.New("http request failed")

// Client HTTP client
type Client struct {
	httpClient *http.Client
	config     *config
}

// NewClient 创建 HTTP 客户端
func NewClient(opts ...Option) *Client {
	cfg := newConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.transport == nil {
		cfg.transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Client{
		httpClient: &http.Client{
			Transport: cfg.transport,
			// upstream redirects are passed back to the caller untouched
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		config: cfg,
	}
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.config.baseURL
}

// Do performs req. Transport errors are wrapped in ErrRequestFailed;
// a deadline hit is also reported as context.DeadlineExceeded.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	if !c.config.retryEnabled || !req.idempotent() {
		resp, err := c.doOnce(ctx, req)
		if err != nil {
			return nil, err
		}
		resp.Duration = time.Since(start)
		resp.Attempts = 1
		return resp, nil
	}

	attempts := 0
	resp, err := retry.DoWithData(ctx, func() (*Response, error) {
		attempts++
		return c.doOnce(ctx, req)
	}, append([]retry.Option{retry.Condition(retry.SkipContextErrors())}, c.config.retryOpts...)...)
	if err != nil {
		var multi *retry.MultiError
		if errors.As(err, &multi) && multi.Last() != nil {
			return nil, multi.Last()
		}
		return nil, err
	}

	resp.Duration = time.Since(start)
	resp.Attempts = attempts
	return resp, nil
}

func (c *Client) doOnce(ctx context.Context, req *Request) (*Response, error) {
	if c.config.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.timeout)
		defer cancel()
	}

	httpReq, err := req.build(ctx, c.config.baseURL, c.config.headers)
	if err != nil {
		return nil, fmt.Errorf("build http request: %w", err)
	}

	if c.config.beforeRequest != nil {
		if err := c.config.beforeRequest(httpReq); err != nil {
			return nil, fmt.Errorf("before request hook: %w", err)
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	resp, err := readResponse(httpResp)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}
	return resp, nil
}
