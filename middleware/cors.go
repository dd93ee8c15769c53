package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig CORS 中间件配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
	AllowMethods []string `mapstructure:"allow_methods"`
	AllowHeaders []string `mapstructure:"allow_headers"`

	// AllowCredentials cannot be combined with a "*" origin
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// MaxAge preflight cache in seconds
	MaxAge int `mapstructure:"max_age"`
}

// DefaultCORSConfig 默认 CORS 配置
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", TraceIDHeaderDefault},
		MaxAge:       43200,
	}
}

// CORS answers preflight requests and decorates responses for allowed origins.
// Requests from unlisted origins pass through without CORS headers.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	def := DefaultCORSConfig()
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = def.AllowOrigins
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = def.AllowMethods
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = def.AllowHeaders
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	wildcard := slices.Contains(cfg.AllowOrigins, "*")
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		allowOrigin := ""
		switch {
		case wildcard && !cfg.AllowCredentials:
			allowOrigin = "*"
		case wildcard || slices.Contains(cfg.AllowOrigins, origin):
			allowOrigin = origin
		}
		if allowOrigin == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		h.Set("Access-Control-Expose-Headers", TraceIDHeaderDefault)
		if allowOrigin != "*" {
			h.Add("Vary", "Origin")
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
