package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// LoaderBuilder 配置加载器构建器
type LoaderBuilder struct {
	configPath   string
	envPrefix    string
	envBindings  map[string]string
	defaults     map[string]any
	flags        *pflag.FlagSet
	flagBindings map[string]string
}

// NewLoaderBuilder 创建构建器
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{
		envBindings:  make(map[string]string),
		flagBindings: make(map[string]string),
	}
}

// WithConfigPath directory holding config.yaml and <env>.yaml
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithEnvPrefix 设置环境变量前缀
func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

// WithEnvBindings explicit env names (without prefix) per config key
func (b *LoaderBuilder) WithEnvBindings(bindings map[string]string) *LoaderBuilder {
	for k, v := range bindings {
		b.envBindings[k] = v
	}
	return b
}

// WithDefaults lowest-priority values
func (b *LoaderBuilder) WithDefaults(defaults map[string]any) *LoaderBuilder {
	b.defaults = defaults
	return b
}

// WithFlags binds flag names to config keys
func (b *LoaderBuilder) WithFlags(flags *pflag.FlagSet, bindings map[string]string) *LoaderBuilder {
	b.flags = flags
	for k, v := range bindings {
		b.flagBindings[k] = v
	}
	return b
}

// Build 构建并加载
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	if b.defaults != nil {
		loader.AddSource(NewMapSource("defaults", b.defaults, 1))
	}

	if b.configPath != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, "config.yaml"), 10))
		if env := GetEnv(); env != "" {
			loader.AddSource(NewFileSource(filepath.Join(b.configPath, env+".yaml"), 20))
		}
	}

	if b.envPrefix != "" {
		envSource := NewEnvSource(b.envPrefix, 50)
		for key, envKey := range b.envBindings {
			envSource.AddBinding(key, envKey)
		}
		loader.AddSource(envSource)
	}

	if b.flags != nil {
		loader.AddSource(NewFlagSource(b.flags, b.flagBindings, 100))
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv deployment environment: MARKET_ENV > APP_ENV > dev
func GetEnv() string {
	if env := os.Getenv("MARKET_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "dev"
}
