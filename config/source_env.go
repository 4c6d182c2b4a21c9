package config

import (
	"os"
	"strings"
)

// EnvSource environment variables.
//
// Without bindings every PREFIX_ variable is imported, with a double
// underscore separating levels so that single underscores survive in keys:
//
//	TOKENAUTH_JWT__ACCESS_TOKEN_EXPIRY=30m -> jwt.access_token_expiry
type EnvSource struct {
	prefix   string
	priority int
	bindings map[string]string // config key -> variable name
}

// NewEnvSource creates an environment source
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{
		prefix:   strings.TrimSuffix(prefix, "_"),
		priority: priority,
		bindings: make(map[string]string),
	}
}

// Bind maps a config key to an explicit variable name.
// Once any binding exists only bound variables are read.
func (s *EnvSource) Bind(key, envKey string) *EnvSource {
	s.bindings[key] = envKey
	return s
}

// Name source name
func (s *EnvSource) Name() string { return "env:" + s.prefix }

// Priority source priority
func (s *EnvSource) Priority() int { return s.priority }

// Load collects matching variables; empty values are ignored
func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	if len(s.bindings) > 0 {
		for key, envKey := range s.bindings {
			if s.prefix != "" && !strings.HasPrefix(envKey, s.prefix+"_") {
				envKey = s.prefix + "_" + envKey
			}
			if value := os.Getenv(envKey); value != "" {
				result[key] = value
			}
		}
		return result, nil
	}

	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || value == "" || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		key = strings.ReplaceAll(key, "__", ".")
		result[key] = value
	}
	return result, nil
}
