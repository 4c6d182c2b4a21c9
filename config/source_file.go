package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// FileSource yaml/json/toml file read through viper.
// A missing file yields an empty layer, not an error.
type FileSource struct {
	path     string
	priority int
	found    bool
}

// NewFileSource creates a file source
func NewFileSource(path string, priority int) *FileSource {
	return &FileSource{path: path, priority: priority}
}

// Name source name
func (s *FileSource) Name() string { return "file:" + s.path }

// Priority source priority
func (s *FileSource) Priority() int { return s.priority }

// Load reads and flattens the file
func (s *FileSource) Load() (map[string]interface{}, error) {
	s.found = false
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	s.found = true
	return flattenMap("", v.AllSettings()), nil
}
