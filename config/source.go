package config

// ConfigSource one layer of configuration.
// Suggested priorities: defaults 1, config.yaml 10, <env>.yaml 20,
// environment variables 50, command line flags 100.
type ConfigSource interface {
	Name() string
	Priority() int
	// Load returns dot-separated keys, e.g. "jwt.algorithm"
	Load() (map[string]interface{}, error)
}

// MapSource static in-memory values, used for defaults and tests
type MapSource struct {
	name     string
	priority int
	values   map[string]interface{}
}

// NewMapSource creates a source from nested or flat values
func NewMapSource(name string, priority int, values map[string]interface{}) *MapSource {
	return &MapSource{name: name, priority: priority, values: values}
}

// Name source name
func (s *MapSource) Name() string { return "map:" + s.name }

// Priority source priority
func (s *MapSource) Priority() int { return s.priority }

// Load flattens the stored values
func (s *MapSource) Load() (map[string]interface{}, error) {
	return flattenMap("", s.values), nil
}

// flattenMap {"jwt": {"algorithm": "HS256"}} -> {"jwt.algorithm": "HS256"}
func flattenMap(prefix string, data map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			for k, v := range flattenMap(fullKey, nested) {
				result[k] = v
			}
			continue
		}
		result[fullKey] = value
	}
	return result
}
