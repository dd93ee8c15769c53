package jwt

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config JWT 配置
type Config struct {
	Algorithm string        `mapstructure:"algorithm"` // HS256, HS384, HS512
	Secret    string        `mapstructure:"secret"`
	TTL       time.Duration `mapstructure:"ttl"`
	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	ClockSkew time.Duration `mapstructure:"clock_skew"` // 时钟偏移容忍
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = "HS256"
	}
	if c.TTL == 0 {
		c.TTL = 2 * time.Hour
	}
	if c.Issuer == "" {
		c.Issuer = "yogan-market"
	}
	if c.ClockSkew == 0 {
		c.ClockSkew = 60 * time.Second
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Secret == "" {
		return ErrSecretEmpty
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return ErrAlgorithmNotSupported
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ClockSkew, validation.Min(time.Duration(0))),
	)
}
