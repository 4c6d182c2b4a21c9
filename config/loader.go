// Package config merges layered configuration sources into one viper view.
//
// Sources are flattened to dot-separated keys, merged in ascending priority
// order and then synced into a viper instance for typed reads and unmarshalling.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader merged view over several ConfigSource values
type Loader struct {
	sources     []ConfigSource
	merged      map[string]interface{}
	v           *viper.Viper
	loadedFiles []string
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{
		merged: make(map[string]interface{}),
		v:      viper.New(),
	}
}

// AddSource registers a source; order does not matter, priority does
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load reads every source and rebuilds the merged view.
// Higher priority sources override lower ones key by key.
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	merged := make(map[string]interface{})
	var files []string
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("config: load source %s: %w", source.Name(), err)
		}
		if fs, ok := source.(*FileSource); ok && fs.found {
			files = append(files, fs.path)
		}
		for key, value := range data {
			merged[strings.ToLower(key)] = value
		}
	}

	v := viper.New()
	for key, value := range unflatten(merged) {
		v.Set(key, value)
	}

	l.merged = merged
	l.loadedFiles = files
	l.v = v
	return nil
}

// unflatten {"jwt.algorithm": "HS256"} -> {"jwt": {"algorithm": "HS256"}}
func unflatten(flat map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	// shorter keys first so a nested key wins over a scalar parent
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) < len(keys[j]) })

	result := make(map[string]interface{})
	for _, key := range keys {
		parts := strings.FieldsFunc(key, func(r rune) bool { return r == '.' })
		if len(parts) == 0 {
			continue
		}
		current := result
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = flat[key]
	}
	return result
}

// Unmarshal decodes the section under key into v; an empty key decodes everything
func (l *Loader) Unmarshal(key string, v interface{}) error {
	if key == "" {
		return l.v.Unmarshal(v)
	}
	return l.v.UnmarshalKey(key, v)
}

// Get raw value
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString string value
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// GetInt int value
func (l *Loader) GetInt(key string) int {
	return l.v.GetInt(key)
}

// GetBool bool value
func (l *Loader) GetBool(key string) bool {
	return l.v.GetBool(key)
}

// IsSet reports whether key (or a child of it) was provided by any source
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings nested copy of the merged configuration
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}

// LoadedFiles files that existed and were read during the last Load
func (l *Loader) LoadedFiles() []string {
	return append([]string(nil), l.loadedFiles...)
}

// Viper exposes the underlying viper instance
func (l *Loader) Viper() *viper.Viper {
	return l.v
}
