package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "direct", cfg.ExchangeType)
	assert.Equal(t, 5, cfg.ConnectAttempts)
	assert.Equal(t, 5*time.Second, cfg.ConnectBackoff)
	assert.Equal(t, 10, cfg.PrefetchCount)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.URL = "" }},
		{"empty exchange", func(c *Config) { c.Exchange = "" }},
		{"unsupported exchange type", func(c *Config) { c.ExchangeType = "headers" }},
		{"negative attempts", func(c *Config) { c.ConnectAttempts = -1 }},
		{"negative prefetch", func(c *Config) { c.PrefetchCount = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
