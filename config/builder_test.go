package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderBuilder_Layers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "jwt:\n  algorithm: HS256\n  issuer: base\n  audience: base-aud\n")
	writeFile(t, dir, "staging.yaml", "jwt:\n  issuer: staging\n")

	t.Setenv("APP_ENV", "staging")
	t.Setenv("TKBUILD_JWT__AUDIENCE", "env-aud")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("algorithm", "", "")
	require.NoError(t, fs.Parse([]string{"--algorithm=HS512"}))

	loader, err := NewLoaderBuilder().
		WithDefaults(map[string]interface{}{"jwt.clock_tolerance": 60}).
		WithConfigPath(dir).
		WithEnvPrefix("TKBUILD").
		WithFlags(fs, map[string]string{"algorithm": "jwt.algorithm"}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 60, loader.GetInt("jwt.clock_tolerance"))
	assert.Equal(t, "staging", loader.GetString("jwt.issuer"))
	assert.Equal(t, "env-aud", loader.GetString("jwt.audience"))
	assert.Equal(t, "HS512", loader.GetString("jwt.algorithm"))
	assert.Len(t, loader.LoadedFiles(), 2)
}

func TestLoaderBuilder_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "jwt:\n  issuer: custom\n")

	loader, err := NewLoaderBuilder().WithConfigFile(path).Build()
	require.NoError(t, err)
	assert.Equal(t, "custom", loader.GetString("jwt.issuer"))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	assert.Equal(t, "dev", GetEnv())

	t.Setenv("ENV", "test")
	assert.Equal(t, "test", GetEnv())

	t.Setenv("APP_ENV", "prod")
	assert.Equal(t, "prod", GetEnv())
}
