package config

import (
	"github.com/spf13/pflag"
)

// FlagSource command line flags.
// Only flags the user actually set are imported, so defaults declared on the
// FlagSet never mask values from files or the environment.
type FlagSource struct {
	flags    *pflag.FlagSet
	priority int
	keys     map[string]string // flag name -> config key
}

// NewFlagSource creates a flag source; unmapped flag names become keys with
// dashes turned into underscores (access-token-expiry -> access_token_expiry)
func NewFlagSource(flags *pflag.FlagSet, priority int) *FlagSource {
	return &FlagSource{flags: flags, priority: priority, keys: make(map[string]string)}
}

// Map binds a flag to a config key, e.g. Map("algorithm", "jwt.algorithm")
func (s *FlagSource) Map(flagName, key string) *FlagSource {
	s.keys[flagName] = key
	return s
}

// Name source name
func (s *FlagSource) Name() string { return "flags" }

// Priority source priority
func (s *FlagSource) Priority() int { return s.priority }

// Load collects changed flags
func (s *FlagSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if s.flags == nil {
		return result, nil
	}

	s.flags.Visit(func(f *pflag.Flag) {
		key, ok := s.keys[f.Name]
		if !ok {
			key = flagKey(f.Name)
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			result[key] = sv.GetSlice()
			return
		}
		result[key] = f.Value.String()
	})
	return result, nil
}

func flagKey(name string) string {
	out := []byte(name)
	for i, c := range out {
		if c == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}
