package gateway

import (
	"errors"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ServiceConfig one upstream service
type ServiceConfig struct {
	// BaseURL upstream root, the stripped path is appended to it
	BaseURL string `mapstructure:"base_url"`

	// Prefix route group served by this upstream, defaults to "/<name>"
	Prefix string `mapstructure:"prefix"`

	// Timeout client-side timeout; the breaker's request timeout usually fires first
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config gateway configuration
type Config struct {
	Services map[string]ServiceConfig `mapstructure:"services"`

	// PublicPaths full request paths that skip JWT verification
	PublicPaths []string `mapstructure:"public_paths"`

	// MaxBodyBytes request bodies above this are rejected with 413
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// DefaultConfig upstreams on localhost, one port per service
func DefaultConfig() Config {
	return Config{
		Services: map[string]ServiceConfig{
			"customer": {BaseURL: "http://localhost:8001"},
			"products": {BaseURL: "http://localhost:8002"},
			"shopping": {BaseURL: "http://localhost:8003"},
			"tenant":   {BaseURL: "http://localhost:8004"},
			"admin":    {BaseURL: "http://localhost:8005"},
		},
		PublicPaths:  []string{"/customer/signup", "/customer/login"},
		MaxBodyBytes: 4 << 20,
	}
}

// ApplyDefaults fills prefixes, timeouts and the body limit.
// Services is replaced by a normalised copy; the caller's map is left as is.
func (c *Config) ApplyDefaults() {
	src := c.Services
	if len(src) == 0 {
		src = DefaultConfig().Services
	}
	services := make(map[string]ServiceConfig, len(src))
	for name, svc := range src {
		if svc.Prefix == "" {
			svc.Prefix = "/" + name
		}
		svc.Prefix = "/" + strings.Trim(svc.Prefix, "/")
		if svc.Timeout == 0 {
			svc.Timeout = 30 * time.Second
		}
		services[name] = svc
	}
	c.Services = services
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 4 << 20
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Services, validation.Required),
	); err != nil {
		return err
	}

	errs := validation.Errors{}
	for name, svc := range c.Services {
		if err := validation.ValidateStruct(&svc,
			validation.Field(&svc.BaseURL, validation.Required, validation.By(absoluteURL)),
			validation.Field(&svc.Prefix, validation.Required),
		); err != nil {
			errs[name] = err
		}
	}
	return errs.Filter()
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}
