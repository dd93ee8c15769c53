package application

import (
	"fmt"
	"time"

	"github.com/KOMKZ/yogan-market/breaker"
	"github.com/KOMKZ/yogan-market/broker"
	"github.com/KOMKZ/yogan-market/config"
	"github.com/KOMKZ/yogan-market/customer"
	"github.com/KOMKZ/yogan-market/gateway"
	"github.com/KOMKZ/yogan-market/health"
	"github.com/KOMKZ/yogan-market/jwt"
	"github.com/KOMKZ/yogan-market/limiter"
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/KOMKZ/yogan-market/middleware"
	"github.com/KOMKZ/yogan-market/redis"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/pflag"
)

// EnvPrefix prefix of every environment variable read
const EnvPrefix = "MARKET"

// AppConfig 应用配置
type AppConfig struct {
	Logger     logger.ManagerConfig `mapstructure:"logger"`
	Server     ServerConfig         `mapstructure:"server"`
	Middleware MiddlewareConfig     `mapstructure:"middleware"`
	Metrics    MetricsConfig        `mapstructure:"metrics"`
	Health     health.Config        `mapstructure:"health"`

	Breaker   breaker.Config  `mapstructure:"breaker"`
	Broker    broker.Config   `mapstructure:"broker"`
	Gateway   gateway.Config  `mapstructure:"gateway"`
	RateLimit limiter.Config  `mapstructure:"rate_limit"`
	Customer  customer.Config `mapstructure:"customer"`
	Redis     redis.Config    `mapstructure:"redis"`
	JWT       jwt.Config      `mapstructure:"jwt"`
}

// ServerConfig HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MiddlewareConfig middleware configuration
type MiddlewareConfig struct {
	// CORS nil disables the middleware
	CORS       *middleware.CORSConfig `mapstructure:"cors"`
	RequestLog RequestLogConfig       `mapstructure:"request_log"`
}

// RequestLogConfig HTTP request log middleware configuration
type RequestLogConfig struct {
	Enable    bool     `mapstructure:"enable"`
	SkipPaths []string `mapstructure:"skip_paths"`
}

// MetricsConfig OpenTelemetry metrics configuration
type MetricsConfig struct {
	// Enabled false installs a no-op meter provider
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	Interval    time.Duration `mapstructure:"interval"` // stdout export interval
}

// envBindings explicit environment names (without prefix)
var envBindings = map[string]string{
	"broker.url":                                  "BROKER_URL",
	"broker.exchange":                             "BROKER_EXCHANGE",
	"breaker.default.failure_threshold":           "BREAKER_FAILURE_THRESHOLD",
	"breaker.default.reset_timeout":               "BREAKER_RESET_TIMEOUT",
	"breaker.default.half_open_success_threshold": "BREAKER_HALF_OPEN_SUCCESS_THRESHOLD",
	"breaker.default.request_timeout":             "BREAKER_REQUEST_TIMEOUT",
	"gateway.services.customer.base_url":          "CUSTOMER_SERVICE_URL",
	"gateway.services.products.base_url":          "PRODUCTS_SERVICE_URL",
	"gateway.services.tenant.base_url":            "TENANT_SERVICE_URL",
	"gateway.services.shopping.base_url":          "SHOPPING_SERVICE_URL",
	"gateway.services.admin.base_url":             "ADMIN_SERVICE_URL",
	"redis.addr":                                  "REDIS_ADDR",
	"jwt.secret":                                  "JWT_SECRET",
	"server.port":                                 "PORT",
}

// flagBindings command-line flag name -> config key
var flagBindings = map[string]string{
	"port":       "server.port",
	"log-level":  "logger.level",
	"broker-url": "broker.url",
	"redis-addr": "redis.addr",
}

// DefaultAppConfig 默认配置
func DefaultAppConfig() AppConfig {
	brokerCfg := broker.DefaultConfig()
	brokerCfg.Queues = map[string]broker.QueueBinding{
		"customer": {Name: "CUSTOMER_QUEUE", BindingKeys: []string{"CUSTOMER_SERVICE"}},
		"shopping": {Name: "SHOPPING_QUEUE", BindingKeys: []string{"SHOPPING_SERVICE"}},
	}

	return AppConfig{
		Logger: logger.DefaultManagerConfig(),
		Server: ServerConfig{
			Port:            8000,
			Mode:            "release",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Middleware: MiddlewareConfig{
			RequestLog: RequestLogConfig{Enable: true, SkipPaths: []string{"/health", "/health/live", "/health/ready"}},
		},
		Metrics:   MetricsConfig{ServiceName: "yogan-market", Interval: time.Minute},
		Health:    health.Config{Timeout: 3 * time.Second},
		Breaker:   breaker.DefaultConfig(),
		Broker:    brokerCfg,
		Gateway:   gateway.DefaultConfig(),
		RateLimit: limiter.DefaultConfig(),
		Customer:  customer.Config{PublishRoutingKeys: []string{"SHOPPING_SERVICE"}},
	}
}

// ApplyDefaults fills zero-valued fields of every section
func (c *AppConfig) ApplyDefaults() {
	c.Logger.ApplyDefaults()
	c.Broker.ApplyDefaults()
	c.Gateway.ApplyDefaults()
	c.RateLimit.ApplyDefaults()
	c.Customer.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.JWT.ApplyDefaults()

	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = time.Minute
	}
	if c.Health.Timeout == 0 {
		c.Health.Timeout = 3 * time.Second
	}
}

// Validate checks the sections used by role
func (c AppConfig) Validate(role Role) error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Server.Mode, validation.In("debug", "release", "test")),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	checks := map[string]validation.Validatable{}
	switch role {
	case RoleGateway:
		checks["breaker"] = breakerValidatable{c.Breaker}
		checks["gateway"] = c.Gateway
		checks["rate_limit"] = c.RateLimit
		checks["jwt"] = c.JWT
	case RoleCustomer:
		checks["broker"] = c.Broker
		checks["customer"] = c.Customer
		checks["jwt"] = c.JWT
		if c.Redis.Enabled() {
			checks["redis"] = c.Redis
		}
	case RoleShopping:
		checks["broker"] = c.Broker
		if c.Redis.Enabled() {
			checks["redis"] = c.Redis
		}
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	errs := validation.Errors{}
	for name, v := range checks {
		if err := v.Validate(); err != nil {
			errs[name] = err
		}
	}
	return errs.Filter()
}

// breaker.Config.Validate fills defaults through a pointer receiver
type breakerValidatable struct{ cfg breaker.Config }

func (b breakerValidatable) Validate() error {
	return b.cfg.Validate()
}

// LoadConfig merges defaults, configPath/config.yaml, configPath/<env>.yaml,
// MARKET_* variables and flags (highest priority).
func LoadConfig(configPath string, flags *pflag.FlagSet) (*AppConfig, error) {
	loader, err := config.NewLoaderBuilder().
		WithConfigPath(configPath).
		WithEnvPrefix(EnvPrefix).
		WithEnvBindings(envBindings).
		WithFlags(flags, flagBindings).
		Build()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := DefaultAppConfig()
	if err := loader.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}
