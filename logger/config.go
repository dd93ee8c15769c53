package logger

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ManagerConfig global manager configuration (shared by all modules)
type ManagerConfig struct {
	BaseLogDir    string `mapstructure:"base_log_dir"` // log root directory (default logs/)
	Level         string `mapstructure:"level"`
	AppName       string `mapstructure:"app_name"` // injected into every entry, even when empty
	Encoding      string `mapstructure:"encoding"` // json or console
	EnableConsole bool   `mapstructure:"enable_console"`
	EnableFile    bool   `mapstructure:"enable_file"`
	MaxSize       int    `mapstructure:"max_size"`    // MB per file
	MaxBackups    int    `mapstructure:"max_backups"` // rotated files to keep
	MaxAge        int    `mapstructure:"max_age"`     // days to keep
	Compress      bool   `mapstructure:"compress"`
	EnableCaller  bool   `mapstructure:"enable_caller"`

	// Trace ID configuration
	EnableTraceID    bool   `mapstructure:"enable_trace_id"`
	TraceIDFieldName string `mapstructure:"trace_id_field_name"` // log field name (default "trace_id")
}

// DefaultManagerConfig returns default manager configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BaseLogDir:       "logs",
		Level:            "info",
		Encoding:         "json",
		EnableConsole:    true,
		EnableFile:       false,
		MaxSize:          100,
		MaxBackups:       3,
		MaxAge:           28,
		Compress:         true,
		EnableCaller:     true,
		EnableTraceID:    true,
		TraceIDFieldName: "trace_id",
	}
}

// ApplyDefaults fills zero-valued fields with default values (in-place modification)
// Boolean fields cannot be told apart from "unset" and keep their value.
func (c *ManagerConfig) ApplyDefaults() {
	defaults := DefaultManagerConfig()

	if c.BaseLogDir == "" {
		c.BaseLogDir = defaults.BaseLogDir
	}
	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Encoding == "" {
		c.Encoding = defaults.Encoding
	}
	if c.TraceIDFieldName == "" {
		c.TraceIDFieldName = defaults.TraceIDFieldName
	}
	if c.MaxSize == 0 {
		c.MaxSize = defaults.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = defaults.MaxBackups
	}
	if c.MaxAge == 0 {
		c.MaxAge = defaults.MaxAge
	}
}

// Validate checks the manager configuration
func (c ManagerConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, c.Level) {
		return fmt.Errorf("[Logger] Log level must be: %v, current: %s", validLevels, c.Level)
	}

	validEncodings := []string{"json", "console"}
	if !contains(validEncodings, c.Encoding) {
		return fmt.Errorf("[Logger] Encoding format must be: %v, current: %s", validEncodings, c.Encoding)
	}

	if c.EnableFile {
		if c.BaseLogDir == "" {
			return fmt.Errorf("[Logger] Log directory cannot be empty when file output is enabled")
		}
		if c.MaxSize < 1 || c.MaxSize > 10000 {
			return fmt.Errorf("[Logger] File size must be between 1-10000MB, current: %d", c.MaxSize)
		}
		if c.MaxBackups < 0 || c.MaxBackups > 100 {
			return fmt.Errorf("[Logger] Number of backups must be between 0-100, current: %d", c.MaxBackups)
		}
		if c.MaxAge < 1 || c.MaxAge > 365 {
			return fmt.Errorf("[Logger] Days to retain must be between 1-365, current: %d", c.MaxAge)
		}
	}

	return nil
}

// infoFilePath logs/<module>/<module>-info.log
func (c ManagerConfig) infoFilePath(module string) string {
	return filepath.Join(c.BaseLogDir, module, module+"-info.log")
}

// errorFilePath logs/<module>/<module>-error.log
func (c ManagerConfig) errorFilePath(module string) string {
	return filepath.Join(c.BaseLogDir, module, module+"-error.log")
}

// ParseLevel parse log level string
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
