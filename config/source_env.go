package config

import (
	"os"
	"strings"
)

const nestingSeparator = "__"

// EnvSource 环境变量数据源
//
// Two forms are read:
//   - explicit bindings: MARKET_BROKER_URL -> broker.url
//   - nested names: MARKET_BREAKER__DEFAULT__RESET_TIMEOUT -> breaker.default.reset_timeout
//
// Explicit bindings win when both set the same key.
type EnvSource struct {
	prefix   string
	priority int
	bindings map[string]string // config key -> env name without prefix
	environ  func() []string
}

// NewEnvSource 创建环境变量数据源
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{
		prefix:   strings.TrimSuffix(prefix, "_"),
		priority: priority,
		bindings: make(map[string]string),
		environ:  os.Environ,
	}
}

// AddBinding maps key to PREFIX_envKey
func (s *EnvSource) AddBinding(key, envKey string) {
	s.bindings[key] = envKey
}

// Name 数据源名称
func (s *EnvSource) Name() string {
	return "env:" + s.prefix
}

// Priority 优先级
func (s *EnvSource) Priority() int {
	return s.priority
}

// Load 加载环境变量配置
func (s *EnvSource) Load() (map[string]any, error) {
	result := make(map[string]any)
	env := make(map[string]string)
	for _, kv := range s.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok {
			env[name] = value
		}
	}

	prefix := ""
	if s.prefix != "" {
		prefix = s.prefix + "_"
	}

	for name, value := range env {
		if !strings.HasPrefix(name, prefix) || value == "" {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if !strings.Contains(rest, nestingSeparator) {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(rest, nestingSeparator, "."))
		result[key] = value
	}

	for key, envKey := range s.bindings {
		if value := env[prefix+envKey]; value != "" {
			result[key] = value
		}
	}

	return result, nil
}
