package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagSource_OnlyChangedFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("algorithm", "HS256", "")
	fs.String("access-token-expiry", "15m", "")
	fs.StringSlice("audience", nil, "")
	require.NoError(t, fs.Parse([]string{"--algorithm=RS256", "--audience=a,b"}))

	src := NewFlagSource(fs, 100).Map("algorithm", "jwt.algorithm")
	data, err := src.Load()
	require.NoError(t, err)

	assert.Equal(t, "RS256", data["jwt.algorithm"])
	assert.Equal(t, []string{"a", "b"}, data["audience"])
	assert.NotContains(t, data, "access_token_expiry")
}

func TestFlagSource_NilFlagSet(t *testing.T) {
	data, err := NewFlagSource(nil, 100).Load()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "refresh_token_expiry", flagKey("refresh-token-expiry"))
}
