package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request HTTP 请求封装
// Body is buffered so the request can be replayed on retry.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Query  url.Values
	Body   []byte
}

// NewRequest 创建新的 Request
func NewRequest(method, rawURL string) *Request {
	return &Request{
		Method: method,
		URL:    rawURL,
		Header: make(http.Header),
		Query:  make(url.Values),
	}
}

// WithHeader 设置 Header
func (r *Request) WithHeader(key, value string) *Request {
	r.Header.Set(key, value)
	return r
}

// WithQuery replaces the query parameters
func (r *Request) WithQuery(q url.Values) *Request {
	r.Query = q
	return r
}

// WithBody 设置 Body
func (r *Request) WithBody(body []byte) *Request {
	r.Body = body
	return r
}

// idempotent methods may be replayed after a transport error
func (r *Request) idempotent() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// build resolves the URL against baseURL and creates the http.Request
func (r *Request) build(ctx context.Context, baseURL string, defaults http.Header) (*http.Request, error) {
	full := r.URL
	if baseURL != "" && !strings.HasPrefix(full, "http://") && !strings.HasPrefix(full, "https://") {
		full = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(full, "/")
	}
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + r.Query.Encode()
	}

	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, full, body)
	if err != nil {
		return nil, err
	}

	for k, vs := range defaults {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range r.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	return req, nil
}
