// Package gateway routes public API prefixes to upstream services,
// each behind its own circuit breaker.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/KOMKZ/yogan-market/breaker"
	"github.com/KOMKZ/yogan-market/errcode"
	"github.com/KOMKZ/yogan-market/httpclient"
	"github.com/KOMKZ/yogan-market/jwt"
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/KOMKZ/yogan-market/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var forwardedHeaders = []string{"Authorization", "Content-Type", "Accept"}

// hop-by-hop and recomputed headers never copied from upstream
var droppedResponseHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
}

type upstream struct {
	name   string
	prefix string
	client *httpclient.Client
}

// Router 网关路由
type Router struct {
	config    Config
	breaker   breaker.Breaker
	tokens    jwt.TokenManager
	upstreams []upstream
	handlers  []gin.HandlerFunc
	logger    *logger.CtxZapLogger
}

// Option configures a Router
type Option func(*Router)

// WithLogger sets the router logger
func WithLogger(l *logger.CtxZapLogger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMiddleware runs handlers after authentication on every upstream group
func WithMiddleware(handlers ...gin.HandlerFunc) Option {
	return func(r *Router) {
		r.handlers = append(r.handlers, handlers...)
	}
}

// WithClientOptions appends options to every upstream client (tests inject transports)
func WithClientOptions(opts ...httpclient.Option) Option {
	return func(r *Router) {
		for i := range r.upstreams {
			u := &r.upstreams[i]
			svc := r.config.Services[u.name]
			base := []httpclient.Option{httpclient.WithBaseURL(svc.BaseURL), httpclient.WithTimeout(svc.Timeout)}
			u.client = httpclient.NewClient(append(base, opts...)...)
		}
	}
}

// NewRouter creates the gateway router
func NewRouter(cfg Config, br breaker.Breaker, tokens jwt.TokenManager, opts ...Option) (*Router, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}

	r := &Router{
		config:  cfg,
		breaker: br,
		tokens:  tokens,
		logger:  logger.GetLogger("gateway"),
	}

	names := make([]string, 0, len(cfg.Services))
	for name := range cfg.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		svc := cfg.Services[name]
		r.upstreams = append(r.upstreams, upstream{
			name:   name,
			prefix: svc.Prefix,
			client: httpclient.NewClient(httpclient.WithBaseURL(svc.BaseURL), httpclient.WithTimeout(svc.Timeout)),
		})
	}

	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Register mounts every upstream group plus GET /internal/breakers,
// which always requires a valid token
func (r *Router) Register(engine gin.IRouter) {
	auth := middleware.JWT(r.tokens, middleware.JWTConfig{
		Skipper: middleware.SkipPaths(r.config.PublicPaths...),
	})

	for _, u := range r.upstreams {
		group := engine.Group(u.prefix, append([]gin.HandlerFunc{auth}, r.handlers...)...)
		group.Any("/*path", r.proxy(u))

		r.logger.DebugCtx(context.Background(), "🔀 Upstream registered",
			zap.String("service", u.name),
			zap.String("prefix", u.prefix),
			zap.String("base_url", u.client.BaseURL()))
	}

	engine.GET("/internal/breakers", middleware.JWT(r.tokens, middleware.JWTConfig{}), r.breakers)
}

func (r *Router) proxy(u upstream) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, r.config.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errcode.ErrInvalidRequest.WithMsgf("request body too large").Body())
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, errcode.ErrInvalidRequest.WithMsgf("unreadable request body").Body())
			return
		}

		req := httpclient.NewRequest(c.Request.Method, c.Param("path")).
			WithQuery(c.Request.URL.Query()).
			WithBody(body)
		for _, h := range forwardedHeaders {
			if v := c.GetHeader(h); v != "" {
				req.WithHeader(h, v)
			}
		}
		if traceID := middleware.GetTraceID(c); traceID != "" {
			req.WithHeader(middleware.TraceIDHeaderDefault, traceID)
		}
		if userID, ok := middleware.GetUserID(c); ok {
			req.WithHeader("X-User-ID", userID)
		}

		result, err := r.breaker.Execute(ctx, &breaker.Request{
			Resource: u.name,
			Execute: func(ctx context.Context) (any, error) {
				resp, err := u.client.Do(ctx, req)
				if err != nil {
					return nil, err
				}
				if resp.IsServerError() {
					return nil, &UpstreamError{Service: u.name, Response: resp}
				}
				return resp, nil
			},
			Fallback: func(ctx context.Context, err error) (any, error) {
				return r.fallback(ctx, u.name, err), nil
			},
		})
		if err != nil {
			// breakers disabled or caller gone
			result = r.fallback(ctx, u.name, err)
		}

		writeResponse(c, result.(*httpclient.Response))
	}
}

// fallback maps a breaker outcome to the response sent to the client
func (r *Router) fallback(ctx context.Context, service string, err error) *httpclient.Response {
	var upstreamErr *UpstreamError
	switch {
	case errors.As(err, &upstreamErr):
		r.logger.WarnCtx(ctx, "⚠️ Upstream server error",
			zap.String("service", service),
			zap.Int("status", upstreamErr.Response.StatusCode))
		return upstreamErr.Response

	case errors.Is(err, breaker.ErrCircuitOpen):
		return errorResponse(errcode.ErrServiceUnavailable.WithMsgf("%s service is unavailable", service))

	case errors.Is(err, breaker.ErrRequestTimeout):
		r.logger.ErrorCtx(ctx, "⏱️ Upstream request timed out", zap.String("service", service))
		return errorResponse(errcode.ErrProxy.WithMsgf("%s service timed out", service).Wrap(err))

	default:
		r.logger.ErrorCtx(ctx, "❌ Proxy request failed",
			zap.String("service", service),
			zap.Error(err))
		return errorResponse(errcode.ErrProxy.Wrap(err))
	}
}

func errorResponse(e *errcode.LayeredError) *httpclient.Response {
	body, _ := json.Marshal(e.Body())
	header := make(http.Header)
	header.Set("Content-Type", "application/json; charset=utf-8")
	return &httpclient.Response{
		StatusCode: e.HTTPStatus(),
		Header:     header,
		Body:       body,
	}
}

func writeResponse(c *gin.Context, resp *httpclient.Response) {
	h := c.Writer.Header()
	for k, vs := range resp.Header {
		if droppedResponseHeaders[k] {
			continue
		}
		h[k] = append([]string(nil), vs...)
	}
	c.Status(resp.StatusCode)
	_, _ = c.Writer.Write(resp.Body)
}

// breakers snapshots every upstream breaker for operators
func (r *Router) breakers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"breakers": r.breaker.Snapshots()})
}
