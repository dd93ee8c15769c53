package redis

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config Redis settings
type Config struct {
	// Addr host:port; empty disables Redis (in-memory repositories are used)
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// KeyPrefix namespaces every key of this process (default "market:")
	KeyPrefix string `mapstructure:"key_prefix"`

	PoolSize     int           `mapstructure:"pool_size"`      // default 10
	MinIdleConns int           `mapstructure:"min_idle_conns"` // default 5
	MaxRetries   int           `mapstructure:"max_retries"`    // default 3
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`   // default 5s
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`   // default 3s
	WriteTimeout time.Duration `mapstructure:"write_timeout"`  // default 3s
}

// Enabled reports whether an address is configured
func (c Config) Enabled() bool {
	return c.Addr != ""
}

// ApplyDefaults fills zero-valued fields
func (c *Config) ApplyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "market:"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 5
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

// Validate configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DB, validation.Min(0), validation.Max(15)),
		validation.Field(&c.PoolSize, validation.Min(0)),
		validation.Field(&c.MinIdleConns, validation.Min(0)),
	)
}
