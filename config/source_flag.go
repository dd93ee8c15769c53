package config

import (
	"github.com/spf13/pflag"
)

// FlagSource command-line flags; only flags the user actually set are loaded
type FlagSource struct {
	flags    *pflag.FlagSet
	bindings map[string]string // flag name -> config key
	priority int
}

// NewFlagSource binds flag names to config keys
func NewFlagSource(flags *pflag.FlagSet, bindings map[string]string, priority int) *FlagSource {
	return &FlagSource{flags: flags, bindings: bindings, priority: priority}
}

// Name 数据源名称
func (s *FlagSource) Name() string {
	return "flags"
}

// Priority 优先级
func (s *FlagSource) Priority() int {
	return s.priority
}

// Load 加载命令行参数
func (s *FlagSource) Load() (map[string]any, error) {
	result := make(map[string]any)
	if s.flags == nil {
		return result, nil
	}

	for name, key := range s.bindings {
		f := s.flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		result[key] = f.Value.String()
	}
	return result, nil
}
