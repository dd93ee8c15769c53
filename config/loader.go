package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader 多数据源配置加载器
type Loader struct {
	sources     []ConfigSource
	merged      map[string]any
	v           *viper.Viper
	loadedFiles []string
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		merged: make(map[string]any),
		v:      viper.New(),
	}
}

// AddSource 添加数据源
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load merges every source, low priority first
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.merged = make(map[string]any)
	l.loadedFiles = nil
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("加载数据源 %s 失败: %w", source.Name(), err)
		}
		if fileSource, ok := source.(*FileSource); ok && len(data) > 0 {
			l.loadedFiles = append(l.loadedFiles, fileSource.path)
		}
		for key, value := range data {
			l.merged[strings.ToLower(key)] = value
		}
	}

	l.v = viper.New()
	for key, value := range unflatten(l.merged) {
		l.v.Set(key, value)
	}
	return nil
}

// unflatten {"broker.url": x} -> {"broker": {"url": x}}
func unflatten(flat map[string]any) map[string]any {
	// shorter keys first so deeper keys override scalar parents
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		current := result
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = flat[key]
	}
	return result
}

// Unmarshal decodes the merged configuration (durations accept "10s")
func (l *Loader) Unmarshal(v any) error {
	return l.v.Unmarshal(v)
}

// UnmarshalKey decodes one subtree
func (l *Loader) UnmarshalKey(key string, v any) error {
	return l.v.UnmarshalKey(key, v)
}

// GetString 获取字符串配置
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// IsSet 检查配置项是否存在
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// GetLoadedFiles files that contributed values
func (l *Loader) GetLoadedFiles() []string {
	return l.loadedFiles
}
