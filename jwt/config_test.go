package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/KOMKZ/go-yogan-tokenauth/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.Equal(t, DefaultClockTolerance, cfg.ClockTolerance)
	assert.Equal(t, StorageMemory, cfg.Blacklist.Storage)
	assert.Equal(t, 5*time.Minute, cfg.Blacklist.PurgeInterval)

	lifetimes, err := cfg.lifetimes()
	require.NoError(t, err)
	assert.Equal(t, map[TokenType]int64{
		TokenTypeAccess:       900,
		TokenTypeRefresh:      604800,
		TokenTypeReset:        3600,
		TokenTypeVerification: 86400,
	}, lifetimes)
}

func TestConfig_KeepsExplicitValues(t *testing.T) {
	cfg := Config{AccessTokenExpiry: 300, ClockTolerance: 5, Blacklist: BlacklistConfig{Storage: StorageRedis}}
	cfg.ApplyDefaults()

	assert.Equal(t, 300, cfg.AccessTokenExpiry)
	assert.Equal(t, 5, cfg.ClockTolerance)
	assert.Equal(t, StorageRedis, cfg.Blacklist.Storage)
	assert.Equal(t, "tokenauth:blacklist:", cfg.Blacklist.RedisKeyPrefix)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"missing secret", func(c *Config) { c.Secret = "" }, "secret"},
		{"rsa without keys", func(c *Config) { c.Algorithm = "RS256" }, "private_key"},
		{"bad refresh expiry", func(c *Config) { c.RefreshTokenExpiry = "1y" }, "refresh_token_expiry"},
		{"purge too often", func(c *Config) { c.Blacklist.PurgeInterval = time.Millisecond }, "blacklist.purge_interval"},
		{"unknown algorithm", func(c *Config) { c.Algorithm = "PS256" }, "algorithm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.ApplyDefaults()
			tt.mod(&cfg)

			err := validator.Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, validator.ErrValidation))

			le, ok := errcode.From(err)
			require.True(t, ok)
			assert.Contains(t, le.Data()["fields"], tt.field)
		})
	}

	t.Run("rsa with key paths", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Algorithm = "RS256"
		cfg.PrivateKeyPath = "private.pem"
		cfg.PublicKeyPath = "public.pem"
		cfg.ApplyDefaults()
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_Redacted(t *testing.T) {
	keys := testRSAKeys(t)
	cfg := Config{Secret: "s", PrivateKey: keys[0].private, PublicKey: keys[0].public}

	r := cfg.redacted()
	assert.Equal(t, "[redacted]", r.Secret)
	assert.Equal(t, "[redacted]", r.PrivateKey)
	assert.Equal(t, keys[0].public, r.PublicKey)
	assert.Equal(t, "s", cfg.Secret)
}
