package breaker

import (
	"fmt"
	"time"
)

// Config 熔断器配置
type Config struct {
	// Enabled false passes every call straight through
	Enabled bool `mapstructure:"enabled"`

	// EventBusBuffer 事件总线缓冲区大小
	EventBusBuffer int `mapstructure:"event_bus_buffer"`

	// EventWorkers listener notification pool size
	EventWorkers int `mapstructure:"event_workers"`

	// Default 默认资源配置
	Default ResourceConfig `mapstructure:"default"`

	// Resources per-service overrides (merged over Default)
	Resources map[string]ResourceConfig `mapstructure:"resources"`
}

// ResourceConfig 资源级配置
type ResourceConfig struct {
	// FailureThreshold consecutive failures in Closed that open the breaker
	FailureThreshold int `mapstructure:"failure_threshold" json:"failure_threshold"`

	// ResetTimeout how long Open lasts before a probe is allowed
	ResetTimeout time.Duration `mapstructure:"reset_timeout" json:"reset_timeout"`

	// HalfOpenSuccessThreshold probe successes needed to close again
	HalfOpenSuccessThreshold int `mapstructure:"half_open_success_threshold" json:"half_open_success_threshold"`

	// HalfOpenMaxProbes concurrent probes admitted in HalfOpen
	HalfOpenMaxProbes int `mapstructure:"half_open_max_probes" json:"half_open_max_probes"`

	// RequestTimeout a call slower than this counts as a failure
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		EventBusBuffer: 500,
		EventWorkers:   8,
		Default:        DefaultResourceConfig(),
		Resources:      make(map[string]ResourceConfig),
	}
}

// DefaultResourceConfig 返回默认资源配置
func DefaultResourceConfig() ResourceConfig {
	return ResourceConfig{
		FailureThreshold:         5,
		ResetTimeout:             10 * time.Second,
		HalfOpenSuccessThreshold: 2,
		HalfOpenMaxProbes:        1,
		RequestTimeout:           5 * time.Second,
	}
}

// Validate fills buffer defaults, merges resource overrides and validates them
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.EventBusBuffer <= 0 {
		c.EventBusBuffer = 500
	}
	if c.EventWorkers <= 0 {
		c.EventWorkers = 8
	}

	c.Default = DefaultResourceConfig().Merge(c.Default)
	if err := c.Default.Validate(); err != nil {
		return err
	}

	for name, cfg := range c.Resources {
		merged := c.Default.Merge(cfg)
		c.Resources[name] = merged

		if err := merged.Validate(); err != nil {
			return &ValidationError{Resource: name, Err: err}
		}
	}

	return nil
}

// Merge 合并配置（override 非零值覆盖）
func (rc ResourceConfig) Merge(override ResourceConfig) ResourceConfig {
	result := rc

	if override.FailureThreshold > 0 {
		result.FailureThreshold = override.FailureThreshold
	}
	if override.ResetTimeout > 0 {
		result.ResetTimeout = override.ResetTimeout
	}
	if override.HalfOpenSuccessThreshold > 0 {
		result.HalfOpenSuccessThreshold = override.HalfOpenSuccessThreshold
	}
	if override.HalfOpenMaxProbes > 0 {
		result.HalfOpenMaxProbes = override.HalfOpenMaxProbes
	}
	if override.RequestTimeout > 0 {
		result.RequestTimeout = override.RequestTimeout
	}

	return result
}

// Validate 验证资源配置
func (rc ResourceConfig) Validate() error {
	if rc.FailureThreshold <= 0 {
		return &ValidationError{Field: "FailureThreshold", Message: "must be > 0"}
	}
	if rc.ResetTimeout <= 0 {
		return &ValidationError{Field: "ResetTimeout", Message: "must be > 0"}
	}
	if rc.HalfOpenSuccessThreshold <= 0 {
		return &ValidationError{Field: "HalfOpenSuccessThreshold", Message: "must be > 0"}
	}
	if rc.HalfOpenMaxProbes <= 0 || rc.HalfOpenMaxProbes > rc.HalfOpenSuccessThreshold {
		return &ValidationError{Field: "HalfOpenMaxProbes", Message: "must be between 1 and HalfOpenSuccessThreshold"}
	}
	if rc.RequestTimeout <= 0 {
		return &ValidationError{Field: "RequestTimeout", Message: "must be > 0"}
	}
	return nil
}

// GetResourceConfig returns the merged config for resource
func (c *Config) GetResourceConfig(resource string) ResourceConfig {
	if cfg, ok := c.Resources[resource]; ok {
		return cfg
	}
	return c.Default
}

// ValidationError 配置验证错误
type ValidationError struct {
	Resource string
	Field    string
	Message  string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("breaker config validation failed for resource '%s': %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("breaker config validation failed for field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
