package jwt

import (
	"encoding/json"
	"time"
)

// TokenType token purpose, selects the default lifetime
type TokenType string

const (
	TokenTypeAccess       TokenType = "access"
	TokenTypeRefresh      TokenType = "refresh"
	TokenTypeReset        TokenType = "reset"
	TokenTypeVerification TokenType = "verification"
)

// TokenTypes every supported type
var TokenTypes = []TokenType{TokenTypeAccess, TokenTypeRefresh, TokenTypeReset, TokenTypeVerification}

// Valid reports whether t is a known type
func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeReset, TokenTypeVerification:
		return true
	}
	return false
}

// TokenPayload caller claims, e.g. {"sub": "u1", "role": "admin"}
type TokenPayload map[string]interface{}

// Audience "aud" claim; decodes from a string or an array, a single value encodes as a string
type Audience []string

// UnmarshalJSON accepts "a", ["a","b"] and null
func (a *Audience) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*a = Audience{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*a = many
	return nil
}

// MarshalJSON encodes one value as a plain string
func (a Audience) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Contains exact membership
func (a Audience) Contains(aud string) bool {
	for _, v := range a {
		if v == aud {
			return true
		}
	}
	return false
}

// DecodedToken registered claims plus the full claim set
type DecodedToken struct {
	Subject  string
	Issuer   string
	Audience Audience
	IssuedAt int64
	// IssuedAtMicro "iat_us" claim; 0 for tokens minted without it
	IssuedAtMicro int64
	ExpiresAt     int64
	JTI           string
	// Claims every claim as decoded from JSON, registered ones included; numbers are float64
	Claims map[string]interface{}
}

// Get returns a raw claim
func (d *DecodedToken) Get(key string) (interface{}, bool) {
	v, ok := d.Claims[key]
	return v, ok
}

// Email "email" claim or ""
func (d *DecodedToken) Email() string {
	s, _ := d.Claims["email"].(string)
	return s
}

// Role "role" claim or ""
func (d *DecodedToken) Role() string {
	s, _ := d.Claims["role"].(string)
	return s
}

// Permissions "permissions" claim; non-string entries are skipped
func (d *DecodedToken) Permissions() []string {
	raw, _ := d.Claims["permissions"].([]interface{})
	perms := make([]string, 0, len(raw))
	for _, p := range raw {
		if s, ok := p.(string); ok {
			perms = append(perms, s)
		}
	}
	return perms
}

// ExpiresAtTime exp as time.Time
func (d *DecodedToken) ExpiresAtTime() time.Time {
	return time.Unix(d.ExpiresAt, 0)
}

// IssuedAtTime iat as time.Time
func (d *DecodedToken) IssuedAtTime() time.Time {
	return time.Unix(d.IssuedAt, 0)
}

// issuedAtMicros issue instant in unix microseconds. Without "iat_us" the
// start of the iat second is used, so a revocation anywhere in that second
// still covers the token.
func (d *DecodedToken) issuedAtMicros() int64 {
	if d.IssuedAtMicro != 0 {
		return d.IssuedAtMicro
	}
	return d.IssuedAt * 1_000_000
}

// SignedToken result of Sign; treat as read-only
type SignedToken struct {
	Token     string
	ExpiresAt time.Time
	Type      TokenType
	Payload   *DecodedToken
}

// SignOptions per-call overrides; zero values mean "not set"
type SignOptions struct {
	// ExpiresIn seconds as a number, a time.Duration or a string such as "15m"
	ExpiresIn interface{}
	Subject   string
	Issuer    string
	Audience  Audience
}

// VerifyResult outcome of a verification.
// Expected failures are reported here, never as a returned error.
type VerifyResult struct {
	Valid bool
	// Payload set only when Valid
	Payload *DecodedToken
	// Error human readable reason, empty when Valid
	Error string
	// Err the failure as a matchable error, nil when Valid
	Err         error
	Expired     bool
	Blacklisted bool
}

func failedResult(err error) *VerifyResult {
	return &VerifyResult{Error: err.Error(), Err: err}
}

// TokenPair access and refresh tokens minted together
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RefreshEntry live refresh token known to the registry
type RefreshEntry struct {
	JTI       string
	Subject   string
	ExpiresAt time.Time
}

// registeredClaims typed view used while decoding a payload
type registeredClaims struct {
	Subject   string   `json:"sub"`
	Issuer    string   `json:"iss"`
	Audience  Audience `json:"aud"`
	IssuedAt  *float64 `json:"iat"`
	IssuedUS  *float64 `json:"iat_us"`
	ExpiresAt *float64 `json:"exp"`
	JTI       string   `json:"jti"`
}

// decodeClaims parses a raw payload; it rejects claims of the wrong JSON type
// but does not require any claim to be present
func decodeClaims(raw []byte) (*DecodedToken, error) {
	var claims map[string]interface{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, errInvalidPayload.Wrap(err)
	}
	if claims == nil {
		return nil, errInvalidPayload.WithMsg("token payload is not a JSON object")
	}

	var rc registeredClaims
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, errInvalidPayload.Wrap(err)
	}

	d := &DecodedToken{
		Subject:  rc.Subject,
		Issuer:   rc.Issuer,
		Audience: rc.Audience,
		JTI:      rc.JTI,
		Claims:   claims,
	}
	if rc.IssuedAt != nil {
		d.IssuedAt = int64(*rc.IssuedAt)
	}
	if rc.IssuedUS != nil {
		d.IssuedAtMicro = int64(*rc.IssuedUS)
	}
	if rc.ExpiresAt != nil {
		d.ExpiresAt = int64(*rc.ExpiresAt)
	}
	return d, nil
}
