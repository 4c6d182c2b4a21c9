package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/auth"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Storage backends for the blacklist and refresh registry
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config token service configuration, read from the "jwt" section
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"` // component switch, ignored by NewService

	Algorithm string `yaml:"algorithm" mapstructure:"algorithm"` // HS256, HS384, HS512, RS256, RS384, RS512

	// HMAC secret
	Secret string `yaml:"secret" mapstructure:"secret"`
	// RSA keys as PEM text, or paths to PEM files; text wins when both are set
	PrivateKey     string `yaml:"private_key" mapstructure:"private_key"`
	PublicKey      string `yaml:"public_key" mapstructure:"public_key"`
	PrivateKeyPath string `yaml:"private_key_path" mapstructure:"private_key_path"`
	PublicKeyPath  string `yaml:"public_key_path" mapstructure:"public_key_path"`

	Issuer   string `yaml:"issuer" mapstructure:"issuer"`
	Audience string `yaml:"audience" mapstructure:"audience"`

	// Lifetimes: seconds (number) or "15m", "7d" style strings
	AccessTokenExpiry       interface{} `yaml:"access_token_expiry" mapstructure:"access_token_expiry"`
	RefreshTokenExpiry      interface{} `yaml:"refresh_token_expiry" mapstructure:"refresh_token_expiry"`
	ResetTokenExpiry        interface{} `yaml:"reset_token_expiry" mapstructure:"reset_token_expiry"`
	VerificationTokenExpiry interface{} `yaml:"verification_token_expiry" mapstructure:"verification_token_expiry"`

	// ClockTolerance seconds accepted past exp; 0 means DefaultClockTolerance
	ClockTolerance int `yaml:"clock_tolerance" mapstructure:"clock_tolerance"`

	Blacklist BlacklistConfig     `yaml:"blacklist" mapstructure:"blacklist"`
	Password  auth.PasswordConfig `yaml:"password" mapstructure:"password"`
	Metrics   MetricsConfig       `yaml:"metrics" mapstructure:"metrics"`
}

// BlacklistConfig revocation and refresh registry storage
type BlacklistConfig struct {
	Storage           string        `yaml:"storage" mapstructure:"storage"` // memory / redis
	PurgeInterval     time.Duration `yaml:"purge_interval" mapstructure:"purge_interval"`
	RedisKeyPrefix    string        `yaml:"redis_key_prefix" mapstructure:"redis_key_prefix"`
	RegistryKeyPrefix string        `yaml:"registry_key_prefix" mapstructure:"registry_key_prefix"`
}

// MetricsConfig metrics switch
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// DefaultConfig HS256 with the default lifetimes; Secret still has to be set
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero values in place
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = "HS256"
	}
	if isEmptyExpiry(c.AccessTokenExpiry) {
		c.AccessTokenExpiry = "15m"
	}
	if isEmptyExpiry(c.RefreshTokenExpiry) {
		c.RefreshTokenExpiry = "7d"
	}
	if isEmptyExpiry(c.ResetTokenExpiry) {
		c.ResetTokenExpiry = "1h"
	}
	if isEmptyExpiry(c.VerificationTokenExpiry) {
		c.VerificationTokenExpiry = "24h"
	}
	if c.ClockTolerance == 0 {
		c.ClockTolerance = DefaultClockTolerance
	}

	if c.Blacklist.Storage == "" {
		c.Blacklist.Storage = StorageMemory
	}
	if c.Blacklist.PurgeInterval == 0 {
		c.Blacklist.PurgeInterval = 5 * time.Minute
	}
	if c.Blacklist.RedisKeyPrefix == "" {
		c.Blacklist.RedisKeyPrefix = "tokenauth:blacklist:"
	}
	if c.Blacklist.RegistryKeyPrefix == "" {
		c.Blacklist.RegistryKeyPrefix = "tokenauth:refresh:"
	}

	c.Password.ApplyDefaults()
}

func isEmptyExpiry(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// Validate checks algorithm, key presence and lifetimes.
// Key contents are checked later, when they are parsed.
func (c Config) Validate() error {
	hmac := isHMAC(c.Algorithm)
	rsa := isRSA(c.Algorithm)

	return validation.ValidateStruct(&c,
		validation.Field(&c.Algorithm, validation.Required, validation.In(stringsToIface(SupportedAlgorithms())...)),
		validation.Field(&c.Secret, validation.When(hmac, validation.Required.Error("is required for HMAC algorithms"))),
		validation.Field(&c.PrivateKey, validation.When(rsa && c.PrivateKeyPath == "",
			validation.Required.Error("private_key or private_key_path is required for RSA algorithms"))),
		validation.Field(&c.PublicKey, validation.When(rsa && c.PublicKeyPath == "",
			validation.Required.Error("public_key or public_key_path is required for RSA algorithms"))),
		validation.Field(&c.AccessTokenExpiry, validation.By(validExpiry)),
		validation.Field(&c.RefreshTokenExpiry, validation.By(validExpiry)),
		validation.Field(&c.ResetTokenExpiry, validation.By(validExpiry)),
		validation.Field(&c.VerificationTokenExpiry, validation.By(validExpiry)),
		validation.Field(&c.ClockTolerance, validation.Min(0)),
		validation.Field(&c.Blacklist),
		validation.Field(&c.Password),
	)
}

// Validate checks storage and purge settings
func (b BlacklistConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Storage, validation.Required, validation.In(StorageMemory, StorageRedis)),
		validation.Field(&b.PurgeInterval, validation.Min(time.Second)),
		validation.Field(&b.RedisKeyPrefix, validation.When(b.Storage == StorageRedis, validation.Required)),
		validation.Field(&b.RegistryKeyPrefix, validation.When(b.Storage == StorageRedis, validation.Required)),
	)
}

func validExpiry(value interface{}) error {
	if value == nil {
		return nil
	}
	if _, err := ParseDuration(value); err != nil {
		var msg string
		if le, ok := err.(interface{ Message() string }); ok {
			msg = le.Message()
		} else {
			msg = err.Error()
		}
		return errors.New(msg)
	}
	return nil
}

// lifetimes resolves every token type's default lifetime in seconds
func (c Config) lifetimes() (map[TokenType]int64, error) {
	raw := map[TokenType]interface{}{
		TokenTypeAccess:       c.AccessTokenExpiry,
		TokenTypeRefresh:      c.RefreshTokenExpiry,
		TokenTypeReset:        c.ResetTokenExpiry,
		TokenTypeVerification: c.VerificationTokenExpiry,
	}
	out := make(map[TokenType]int64, len(raw))
	for typ, v := range raw {
		seconds, err := ParseDuration(v)
		if err != nil {
			return nil, err
		}
		out[typ] = seconds
	}
	return out, nil
}

// redacted copy without key material
func (c Config) redacted() Config {
	if c.Secret != "" {
		c.Secret = "[redacted]"
	}
	if c.PrivateKey != "" {
		c.PrivateKey = "[redacted]"
	}
	return c
}

func stringsToIface(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
