package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"
)

// FileSource 文件配置数据源
type FileSource struct {
	path     string
	priority int
}

// NewFileSource 创建文件数据源
func NewFileSource(path string, priority int) *FileSource {
	return &FileSource{path: path, priority: priority}
}

// Name 数据源名称
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Priority 优先级
func (s *FileSource) Priority() int {
	return s.priority
}

// Load a missing file is an empty source, not an error
func (s *FileSource) Load() (map[string]any, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("访问配置文件失败 %s: %w", s.path, err)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败 %s: %w", s.path, err)
	}

	return flattenMap("", v.AllSettings()), nil
}

// flattenMap {"broker": {"url": x}} -> {"broker.url": x}
func flattenMap(prefix string, data map[string]any) map[string]any {
	result := make(map[string]any)
	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(fullKey, nested) {
				result[k] = v
			}
			continue
		}
		result[fullKey] = value
	}
	return result
}
