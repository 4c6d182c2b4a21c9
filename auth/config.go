package auth

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// DefaultIterations PBKDF2 rounds used when none are configured
	DefaultIterations = 210000
	// MinIterations lowest accepted round count
	MinIterations = 10000
	// MinPasswordLength lowest accepted policy minimum
	MinPasswordLength = 8

	defaultKeyLength  = 64
	defaultSaltLength = 16
)

// PasswordConfig password hashing configuration
type PasswordConfig struct {
	Policy     PasswordPolicy `yaml:"policy" mapstructure:"policy"`
	Iterations int            `yaml:"iterations" mapstructure:"iterations"`   // PBKDF2-HMAC-SHA512 rounds
	KeyLength  int            `yaml:"key_length" mapstructure:"key_length"`   // derived key bytes
	SaltLength int            `yaml:"salt_length" mapstructure:"salt_length"` // random salt bytes
}

// PasswordPolicy strength rules checked before hashing
type PasswordPolicy struct {
	MinLength          int      `yaml:"min_length" mapstructure:"min_length"`
	MaxLength          int      `yaml:"max_length" mapstructure:"max_length"`
	RequireUppercase   bool     `yaml:"require_uppercase" mapstructure:"require_uppercase"`
	RequireLowercase   bool     `yaml:"require_lowercase" mapstructure:"require_lowercase"`
	RequireDigit       bool     `yaml:"require_digit" mapstructure:"require_digit"`
	RequireSpecialChar bool     `yaml:"require_special_char" mapstructure:"require_special_char"`
	Blacklist          []string `yaml:"blacklist" mapstructure:"blacklist"` // case-insensitive substrings
}

// DefaultPolicy at least 8 characters with an upper-case letter, a lower-case letter and a digit
func DefaultPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        MinPasswordLength,
		MaxLength:        128,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
	}
}

// DefaultPasswordConfig default policy and KDF parameters
func DefaultPasswordConfig() PasswordConfig {
	return PasswordConfig{
		Policy:     DefaultPolicy(),
		Iterations: DefaultIterations,
		KeyLength:  defaultKeyLength,
		SaltLength: defaultSaltLength,
	}
}

// ApplyDefaults fills zero values in place. The length floor and the upper,
// lower and digit rules of DefaultPolicy always apply; config can only tighten them.
func (c *PasswordConfig) ApplyDefaults() {
	floor := DefaultPolicy()
	if c.Policy.MinLength == 0 {
		c.Policy.MinLength = floor.MinLength
	}
	if c.Policy.MaxLength == 0 {
		c.Policy.MaxLength = floor.MaxLength
	}
	c.Policy.RequireUppercase = true
	c.Policy.RequireLowercase = true
	c.Policy.RequireDigit = true
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.KeyLength == 0 {
		c.KeyLength = defaultKeyLength
	}
	if c.SaltLength == 0 {
		c.SaltLength = defaultSaltLength
	}
}

// Validate checks KDF parameters and the policy bounds
func (c PasswordConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Iterations, validation.Min(MinIterations)),
		validation.Field(&c.KeyLength, validation.Min(32), validation.Max(128)),
		validation.Field(&c.SaltLength, validation.Min(16), validation.Max(64)),
		validation.Field(&c.Policy),
	)
}

// Validate checks the length bounds; MinLength may not go below MinPasswordLength
func (p PasswordPolicy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MinLength, validation.Required, validation.Min(MinPasswordLength)),
		validation.Field(&p.MaxLength, validation.Min(p.MinLength)),
	)
}
