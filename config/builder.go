package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// LoaderBuilder wires the standard layers:
// defaults (1) < config.yaml (10) < <env>.yaml (20) < environment (50) < flags (100)
type LoaderBuilder struct {
	configPath string
	configFile string
	envPrefix  string
	defaults   map[string]interface{}
	flags      *FlagSource
}

// NewLoaderBuilder creates a builder
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{}
}

// WithConfigPath directory containing config.yaml and <env>.yaml
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithConfigFile one explicit file at priority 10, replaces the directory layout
func (b *LoaderBuilder) WithConfigFile(file string) *LoaderBuilder {
	b.configFile = file
	return b
}

// WithEnvPrefix environment variable prefix, e.g. "TOKENAUTH"
func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

// WithDefaults lowest priority values
func (b *LoaderBuilder) WithDefaults(defaults map[string]interface{}) *LoaderBuilder {
	b.defaults = defaults
	return b
}

// WithFlags command line flags; mapping flag name -> config key is optional
func (b *LoaderBuilder) WithFlags(flags *pflag.FlagSet, mapping map[string]string) *LoaderBuilder {
	b.flags = NewFlagSource(flags, 100)
	for name, key := range mapping {
		b.flags.Map(name, key)
	}
	return b
}

// Build adds the configured sources and loads them
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	if b.defaults != nil {
		loader.AddSource(NewMapSource("defaults", 1, b.defaults))
	}

	switch {
	case b.configFile != "":
		loader.AddSource(NewFileSource(b.configFile, 10))
	case b.configPath != "":
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, "config.yaml"), 10))
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, GetEnv()+".yaml"), 20))
	}

	if b.envPrefix != "" {
		loader.AddSource(NewEnvSource(b.envPrefix, 50))
	}
	if b.flags != nil {
		loader.AddSource(b.flags)
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv APP_ENV, then ENV, then "dev"
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
