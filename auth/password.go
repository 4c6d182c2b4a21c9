package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/KOMKZ/go-yogan-tokenauth/validator"
	"golang.org/x/crypto/pbkdf2"
)

// PasswordHash hex-encoded derived key and salt
type PasswordHash struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// PasswordService validates, hashes and verifies passwords with PBKDF2-HMAC-SHA512
type PasswordService struct {
	policy     PasswordPolicy
	iterations int
	keyLength  int
	saltLength int
	random     io.Reader
	metrics    *Metrics // optional
}

// NewPasswordService creates a password service; zero values in cfg get defaults
func NewPasswordService(cfg PasswordConfig) (*PasswordService, error) {
	cfg.ApplyDefaults()
	if err := validator.Validate(cfg); err != nil {
		return nil, ErrInvalidConfig.Wrap(err)
	}
	return &PasswordService{
		policy:     cfg.Policy,
		iterations: cfg.Iterations,
		keyLength:  cfg.KeyLength,
		saltLength: cfg.SaltLength,
		random:     rand.Reader,
	}, nil
}

// SetMetrics injects the metrics provider
func (s *PasswordService) SetMetrics(metrics *Metrics) {
	s.metrics = metrics
}

// SetRandom replaces the salt source, crypto/rand by default
func (s *PasswordService) SetRandom(r io.Reader) {
	s.random = r
}

// Policy active policy
func (s *PasswordService) Policy() PasswordPolicy {
	return s.policy
}

// Validate checks every rule and reports all violations at once
func (s *PasswordService) Validate(ctx context.Context, password string) error {
	violations, messages := s.check(password)
	if len(violations) == 0 {
		s.recordValidation(ctx, "valid")
		return nil
	}

	for _, v := range violations {
		s.recordValidation(ctx, v)
	}
	return ErrPasswordPolicy.
		WithMsgf("password does not meet the policy: %s", strings.Join(messages, ", ")).
		WithData("violations", violations)
}

func (s *PasswordService) check(password string) (violations, messages []string) {
	add := func(code, msg string) {
		violations = append(violations, code)
		messages = append(messages, msg)
	}

	length := utf8.RuneCountInString(password)
	if length < s.policy.MinLength {
		add(ViolationTooShort, fmt.Sprintf("at least %d characters", s.policy.MinLength))
	}
	if s.policy.MaxLength > 0 && length > s.policy.MaxLength {
		add(ViolationTooLong, fmt.Sprintf("at most %d characters", s.policy.MaxLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	if s.policy.RequireUppercase && !hasUpper {
		add(ViolationNoUppercase, "an upper-case letter")
	}
	if s.policy.RequireLowercase && !hasLower {
		add(ViolationNoLowercase, "a lower-case letter")
	}
	if s.policy.RequireDigit && !hasDigit {
		add(ViolationNoDigit, "a digit")
	}
	if s.policy.RequireSpecialChar && !hasSpecial {
		add(ViolationNoSpecialChar, "a special character")
	}

	lower := strings.ToLower(password)
	for _, weak := range s.policy.Blacklist {
		if weak != "" && strings.Contains(lower, strings.ToLower(weak)) {
			add(ViolationBlacklisted, "no common words")
			break
		}
	}
	return violations, messages
}

// Hash validates the password and derives a key with a fresh random salt
func (s *PasswordService) Hash(ctx context.Context, password string) (*PasswordHash, error) {
	if err := s.Validate(ctx, password); err != nil {
		return nil, err
	}

	salt := make([]byte, s.saltLength)
	if _, err := io.ReadFull(s.random, salt); err != nil {
		return nil, ErrPasswordHash.Wrap(err)
	}

	start := time.Now()
	key := pbkdf2.Key([]byte(password), salt, s.iterations, s.keyLength, sha512.New)
	if s.metrics != nil {
		s.metrics.RecordHash(ctx, time.Since(start))
	}

	return &PasswordHash{
		Hash: hex.EncodeToString(key),
		Salt: hex.EncodeToString(salt),
	}, nil
}

// Verify re-derives the key with salt and compares in constant time.
// Malformed hex input never matches.
func (s *PasswordService) Verify(ctx context.Context, password, hash, salt string) bool {
	expected, err := hex.DecodeString(hash)
	if err != nil || len(expected) == 0 {
		s.recordVerify(ctx, false)
		return false
	}
	rawSalt, err := hex.DecodeString(salt)
	if err != nil || len(rawSalt) == 0 {
		s.recordVerify(ctx, false)
		return false
	}

	derived := pbkdf2.Key([]byte(password), rawSalt, s.iterations, len(expected), sha512.New)
	ok := subtle.ConstantTimeCompare(derived, expected) == 1
	s.recordVerify(ctx, ok)
	return ok
}

func (s *PasswordService) recordValidation(ctx context.Context, result string) {
	if s.metrics != nil {
		s.metrics.RecordPasswordValidation(ctx, result)
	}
}

func (s *PasswordService) recordVerify(ctx context.Context, matched bool) {
	if s.metrics != nil {
		s.metrics.RecordVerify(ctx, matched)
	}
}
