package limiter

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Key sources for the gateway middleware
const (
	KeyByIP   = "ip"
	KeyByUser = "user" // falls back to the client IP for public paths
)

// Config token bucket rate limiter configuration
type Config struct {
	// Enabled false lets every request through
	Enabled bool `mapstructure:"enabled"`

	// Rate tokens added per second
	Rate float64 `mapstructure:"rate"`

	// Capacity bucket size, the largest burst accepted
	Capacity int64 `mapstructure:"capacity"`

	// KeyBy ip | user
	KeyBy string `mapstructure:"key_by"`

	// MaxKeys buckets kept before idle ones are swept
	MaxKeys int `mapstructure:"max_keys"`
}

// DefaultConfig 50 req/s per client with bursts of 100, disabled
func DefaultConfig() Config {
	return Config{
		Rate:     50,
		Capacity: 100,
		KeyBy:    KeyByUser,
		MaxKeys:  10000,
	}
}

// ApplyDefaults fills zero-valued fields
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Rate == 0 {
		c.Rate = d.Rate
	}
	if c.Capacity == 0 {
		c.Capacity = d.Capacity
	}
	if c.KeyBy == "" {
		c.KeyBy = d.KeyBy
	}
	if c.MaxKeys == 0 {
		c.MaxKeys = d.MaxKeys
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.Rate, validation.Required, validation.Min(0.001)),
		validation.Field(&c.Capacity, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.KeyBy, validation.In(KeyByIP, KeyByUser)),
		validation.Field(&c.MaxKeys, validation.Min(1)),
	)
}
