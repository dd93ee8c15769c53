// Package config merges configuration from YAML files, environment
// variables and command-line flags, then decodes it with viper.
package config

// ConfigSource one configuration data source
type ConfigSource interface {
	// Name 数据源名称（日志和调试用）
	Name() string

	// Priority higher wins: defaults 1, config.yaml 10, <env>.yaml 20, env 50, flags 100
	Priority() int

	// Load returns flat, dot-separated, lower-case keys ("broker.url")
	Load() (map[string]any, error)
}
