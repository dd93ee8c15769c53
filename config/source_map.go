package config

// MapSource static values, used for built-in defaults
type MapSource struct {
	name     string
	values   map[string]any
	priority int
}

// NewMapSource values may be nested; they are flattened on load
func NewMapSource(name string, values map[string]any, priority int) *MapSource {
	return &MapSource{name: name, values: values, priority: priority}
}

// Name 数据源名称
func (s *MapSource) Name() string {
	return "map:" + s.name
}

// Priority 优先级
func (s *MapSource) Priority() int {
	return s.priority
}

// Load 加载
func (s *MapSource) Load() (map[string]any, error) {
	return flattenMap("", s.values), nil
}
