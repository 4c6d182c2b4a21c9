package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPasswordService(t *testing.T) *PasswordService {
	t.Helper()
	cfg := DefaultPasswordConfig()
	cfg.Iterations = MinIterations
	s, err := NewPasswordService(cfg)
	require.NoError(t, err)
	return s
}

func TestPasswordService_HashAndVerify(t *testing.T) {
	s := newTestPasswordService(t)
	ctx := context.Background()

	h, err := s.Hash(ctx, "Correct1Horse")
	require.NoError(t, err)
	assert.Len(t, h.Salt, 32) // 16 bytes hex
	assert.Len(t, h.Hash, 128)

	assert.True(t, s.Verify(ctx, "Correct1Horse", h.Hash, h.Salt))
	assert.False(t, s.Verify(ctx, "Correct1Hors", h.Hash, h.Salt))
	assert.False(t, s.Verify(ctx, "correct1Horse", h.Hash, h.Salt))
}

func TestPasswordService_SingleCharacterMutations(t *testing.T) {
	s := newTestPasswordService(t)
	ctx := context.Background()
	password := "Str0ngPass"

	h, err := s.Hash(ctx, password)
	require.NoError(t, err)

	for i := range password {
		mutated := []byte(password)
		mutated[i] ^= 0x01
		assert.False(t, s.Verify(ctx, string(mutated), h.Hash, h.Salt), "mutation at %d", i)
	}
}

func TestPasswordService_FreshSaltPerHash(t *testing.T) {
	s := newTestPasswordService(t)
	ctx := context.Background()

	a, err := s.Hash(ctx, "Same1Password")
	require.NoError(t, err)
	b, err := s.Hash(ctx, "Same1Password")
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestPasswordService_ReportsAllViolations(t *testing.T) {
	s := newTestPasswordService(t)

	_, err := s.Hash(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPasswordPolicy))

	le, ok := errcode.From(err)
	require.True(t, ok)
	assert.Equal(t, []string{ViolationTooShort, ViolationNoUppercase, ViolationNoDigit},
		le.Data()["violations"])
	assert.Contains(t, le.Message(), "at least 8 characters")
	assert.Contains(t, le.Message(), "a digit")
}

func TestPasswordService_Validate(t *testing.T) {
	cfg := DefaultPasswordConfig()
	cfg.Iterations = MinIterations
	cfg.Policy.RequireSpecialChar = true
	cfg.Policy.Blacklist = []string{"password"}
	s, err := NewPasswordService(cfg)
	require.NoError(t, err)

	tests := []struct {
		name       string
		password   string
		violations []string
	}{
		{name: "valid", password: "Good1Secret!"},
		{name: "missing special", password: "Good1Secret", violations: []string{ViolationNoSpecialChar}},
		{name: "blacklisted", password: "MyPassword1!", violations: []string{ViolationBlacklisted}},
		{name: "only lowercase", password: "lowercaseonly", violations: []string{
			ViolationNoUppercase, ViolationNoDigit, ViolationNoSpecialChar,
		}},
		{name: "too long", password: "Aa1!" + strings.Repeat("x", 130), violations: []string{ViolationTooLong}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(context.Background(), tt.password)
			if tt.violations == nil {
				assert.NoError(t, err)
				return
			}
			le, ok := errcode.From(err)
			require.True(t, ok)
			assert.Equal(t, tt.violations, le.Data()["violations"])
		})
	}
}

func TestPasswordService_VerifyMalformedInput(t *testing.T) {
	s := newTestPasswordService(t)
	ctx := context.Background()

	assert.False(t, s.Verify(ctx, "Any1Password", "not-hex", "00ff"))
	assert.False(t, s.Verify(ctx, "Any1Password", "00ff", "zz"))
	assert.False(t, s.Verify(ctx, "Any1Password", "", ""))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestPasswordService_RandomFailure(t *testing.T) {
	s := newTestPasswordService(t)
	s.SetRandom(failingReader{})

	_, err := s.Hash(context.Background(), "Valid1Password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPasswordHash))
}

func TestNewPasswordService_InvalidConfig(t *testing.T) {
	cfg := DefaultPasswordConfig()
	cfg.Iterations = 1000

	_, err := NewPasswordService(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
