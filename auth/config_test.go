package auth

import (
	"context"
	"testing"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordConfig_ApplyDefaults(t *testing.T) {
	var cfg PasswordConfig
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultPasswordConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestPasswordConfig_KeepsCustomPolicy(t *testing.T) {
	cfg := PasswordConfig{Policy: PasswordPolicy{MinLength: 12}}
	cfg.ApplyDefaults()

	assert.Equal(t, 12, cfg.Policy.MinLength)
	assert.Equal(t, 128, cfg.Policy.MaxLength)
	assert.True(t, cfg.Policy.RequireUppercase)
	assert.True(t, cfg.Policy.RequireDigit)
}

func TestPasswordConfig_PartialPolicyKeepsFloor(t *testing.T) {
	cfg := PasswordConfig{Policy: PasswordPolicy{RequireSpecialChar: true}}
	cfg.ApplyDefaults()

	want := DefaultPolicy()
	want.RequireSpecialChar = true
	assert.Equal(t, want, cfg.Policy)

	s, err := NewPasswordService(PasswordConfig{
		Policy:     PasswordPolicy{RequireSpecialChar: true},
		Iterations: MinIterations,
	})
	require.NoError(t, err)
	_, err = s.Hash(context.Background(), "!")
	require.Error(t, err)
	le, ok := errcode.From(err)
	require.True(t, ok)
	assert.Equal(t, []string{ViolationTooShort, ViolationNoUppercase, ViolationNoLowercase, ViolationNoDigit},
		le.Data()["violations"])
}

func TestPasswordConfig_Validate(t *testing.T) {
	cfg := DefaultPasswordConfig()
	cfg.SaltLength = 8
	assert.Error(t, cfg.Validate())

	cfg = DefaultPasswordConfig()
	cfg.Policy.MaxLength = 4
	assert.Error(t, cfg.Validate())

	cfg = DefaultPasswordConfig()
	cfg.Policy.MinLength = 6
	assert.Error(t, cfg.Validate())

	_, err := NewPasswordService(PasswordConfig{Policy: PasswordPolicy{MinLength: 4}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
