package jwt

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// jtiBytes random bytes per token id (256 bits)
const jtiBytes = 32

var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
	"RS256": jwt.SigningMethodRS256,
	"RS384": jwt.SigningMethodRS384,
	"RS512": jwt.SigningMethodRS512,
}

// SupportedAlgorithms names accepted in Config.Algorithm
func SupportedAlgorithms() []string {
	return []string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512"}
}

func isHMAC(alg string) bool {
	return alg == "HS256" || alg == "HS384" || alg == "HS512"
}

func isRSA(alg string) bool {
	return alg == "RS256" || alg == "RS384" || alg == "RS512"
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// AdapterOptions settings the adapter needs besides keys
type AdapterOptions struct {
	Algorithm string
	Issuer    string
	Audience  string
	// Lifetimes default lifetime in seconds per token type
	Lifetimes map[TokenType]int64
	// Tolerance seconds accepted past exp
	Tolerance int64
	Clock     clockwork.Clock
	Random    io.Reader
}

// Adapter signs and verifies compact tokens.
// All methods are safe for concurrent use.
type Adapter struct {
	alg       string
	method    jwt.SigningMethod
	keys      KeyMaterial
	header    string
	issuer    string
	audience  string
	lifetimes map[TokenType]int64
	tolerance int64
	clock     clockwork.Clock
	random    io.Reader
	// issueFloor lowest unix microsecond Sign may stamp as iat_us
	issueFloor *atomic.Int64
}

// NewAdapter builds an adapter. A verify-only RSA adapter may omit the private key;
// Sign then fails with ErrSign.
func NewAdapter(keys KeyMaterial, opts AdapterOptions) (*Adapter, error) {
	method, ok := signingMethods[opts.Algorithm]
	if !ok {
		return nil, ErrUnsupportedAlgorithm.WithMsgf("unsupported algorithm %q", opts.Algorithm).
			WithData("algorithm", opts.Algorithm)
	}
	if isHMAC(opts.Algorithm) && len(keys.Secret) == 0 {
		return nil, ErrSecret.WithMsgf("secret is required for %s", opts.Algorithm)
	}
	if isRSA(opts.Algorithm) && keys.PublicKey == nil {
		return nil, ErrSecret.WithMsgf("public key is required for %s", opts.Algorithm)
	}

	header, err := EncodeJSONSegment(tokenHeader{Alg: opts.Algorithm, Typ: "JWT"})
	if err != nil {
		return nil, ErrSign.Wrap(err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	random := opts.Random
	if random == nil {
		random = rand.Reader
	}
	tolerance := opts.Tolerance
	if tolerance < 0 {
		tolerance = 0
	}

	lifetimes := make(map[TokenType]int64, len(opts.Lifetimes))
	for k, v := range opts.Lifetimes {
		lifetimes[k] = v
	}

	return &Adapter{
		alg:        opts.Algorithm,
		method:     method,
		keys:       keys,
		header:     header,
		issuer:     opts.Issuer,
		audience:   opts.Audience,
		lifetimes:  lifetimes,
		tolerance:  tolerance,
		clock:      clock,
		random:     random,
		issueFloor: new(atomic.Int64),
	}, nil
}

// Algorithm configured algorithm name
func (a *Adapter) Algorithm() string {
	return a.alg
}

func (a *Adapter) signingKey() (interface{}, error) {
	if isHMAC(a.alg) {
		return a.keys.Secret, nil
	}
	if a.keys.PrivateKey == nil {
		return nil, ErrSign.WithMsgf("private key is required to sign with %s", a.alg)
	}
	return a.keys.PrivateKey, nil
}

// Sign mints a token of type typ.
// Registered claims are stamped over the payload: iat, iat_us, exp and jti always;
// sub, iss and aud from opts first, then from the adapter's issuer/audience.
// A numeric sub in the payload is written as its decimal string.
func (a *Adapter) Sign(payload TokenPayload, typ TokenType, opts *SignOptions) (*SignedToken, error) {
	key, err := a.signingKey()
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &SignOptions{}
	}

	var lifetime int64
	if opts.ExpiresIn != nil {
		if lifetime, err = ParseDuration(opts.ExpiresIn); err != nil {
			return nil, err
		}
	} else {
		var ok bool
		if lifetime, ok = a.lifetimes[typ]; !ok {
			return nil, ErrSign.WithMsgf("no lifetime configured for token type %q", typ)
		}
	}

	jti, err := a.newJTI()
	if err != nil {
		return nil, ErrSign.Wrapf(err, "generate jti")
	}

	issued := a.clock.Now().UnixMicro()
	if floor := a.issueFloor.Load(); issued < floor {
		issued = floor
	}
	iat := issued / int64(time.Second/time.Microsecond)
	claims := make(map[string]interface{}, len(payload)+7)
	for k, v := range payload {
		claims[k] = v
	}
	if sub, ok := numericSubject(claims["sub"]); ok {
		claims["sub"] = sub
	}
	claims["iat"] = iat
	claims["iat_us"] = issued
	claims["exp"] = iat + lifetime
	claims["jti"] = jti

	if opts.Subject != "" {
		claims["sub"] = opts.Subject
	}
	switch {
	case opts.Issuer != "":
		claims["iss"] = opts.Issuer
	case a.issuer != "":
		claims["iss"] = a.issuer
	}
	switch {
	case len(opts.Audience) > 0:
		claims["aud"] = opts.Audience
	case a.audience != "":
		claims["aud"] = a.audience
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return nil, ErrSign.Wrapf(err, "encode claims")
	}
	decoded, err := decodeClaims(raw)
	if err != nil {
		return nil, ErrSign.Wrapf(err, "invalid claims")
	}

	signingInput := a.header + "." + EncodeSegment(raw)
	sig, err := a.method.Sign(signingInput, key)
	if err != nil {
		return nil, ErrSign.Wrap(err)
	}

	return &SignedToken{
		Token:     signingInput + "." + EncodeSegment(sig),
		ExpiresAt: decoded.ExpiresAtTime(),
		Type:      typ,
		Payload:   decoded,
	}, nil
}

// issuedAfter makes every later Sign stamp an iat_us strictly after t
func (a *Adapter) issuedAfter(t time.Time) {
	us := t.UnixMicro()
	for {
		cur := a.issueFloor.Load()
		if cur > us || a.issueFloor.CompareAndSwap(cur, us+1) {
			return
		}
	}
}

// numericSubject renders integer subjects (and integral floats) as decimal strings
func numericSubject(v interface{}) (string, bool) {
	switch n := v.(type) {
	case nil, string:
		return "", false
	case json.Number:
		return n.String(), true
	case float64:
		if n != float64(int64(n)) {
			return "", false
		}
		return strconv.FormatInt(int64(n), 10), true
	case float32:
		if n != float32(int64(n)) {
			return "", false
		}
		return strconv.FormatInt(int64(n), 10), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	}
	return "", false
}

func (a *Adapter) newJTI() (string, error) {
	b := make([]byte, jtiBytes)
	if _, err := io.ReadFull(a.random, b); err != nil {
		return "", err
	}
	return EncodeSegment(b), nil
}

// Verify checks structure, header, signature, payload, expiry, issuer and audience, in that order.
// It never returns an error value; every failure is described by the result.
func (a *Adapter) Verify(token string) *VerifyResult {
	parts, err := splitToken(token)
	if err != nil {
		return failedResult(err)
	}

	if err := a.verifySignature(parts); err != nil {
		return failedResult(err)
	}

	payload, err := DecodeSegment(parts[1])
	if err != nil {
		return failedResult(errInvalidPayload.Wrap(err))
	}
	decoded, err := decodeClaims(payload)
	if err != nil {
		return failedResult(err)
	}
	if decoded.JTI == "" || decoded.ExpiresAt == 0 || decoded.IssuedAt == 0 {
		return failedResult(errInvalidPayload.WithMsg("token payload is missing iat, exp or jti"))
	}

	now := a.clock.Now()
	if IsExpired(decoded.ExpiresAt, a.tolerance, now) {
		err := ErrExpired.WithFields(map[string]interface{}{
			"expired_at": decoded.ExpiresAt,
			"elapsed":    now.Unix() - decoded.ExpiresAt,
		})
		res := failedResult(err)
		res.Expired = true
		return res
	}

	if a.issuer != "" && decoded.Issuer != a.issuer {
		return failedResult(errInvalidIssuer.WithData("issuer", decoded.Issuer))
	}
	if a.audience != "" && !decoded.Audience.Contains(a.audience) {
		return failedResult(errInvalidAudience.WithData("audience", []string(decoded.Audience)))
	}

	return &VerifyResult{Valid: true, Payload: decoded}
}

// VerifySignature checks only the structure, header and signature
func (a *Adapter) VerifySignature(token string) error {
	parts, err := splitToken(token)
	if err != nil {
		return err
	}
	return a.verifySignature(parts)
}

func (a *Adapter) verifySignature(parts []string) error {
	var h tokenHeader
	if err := DecodeJSONSegment(parts[0], &h); err != nil {
		return ErrInvalidSignature.WithMsg("invalid token header").Wrap(err)
	}
	if h.Alg != a.alg {
		return ErrInvalidSignature.WithMsgf("unexpected signing algorithm %q", h.Alg)
	}

	sig, err := DecodeSegment(parts[2])
	if err != nil {
		return ErrInvalidSignature.Wrap(err)
	}

	signingInput := parts[0] + "." + parts[1]
	if isHMAC(a.alg) {
		expected, err := a.method.Sign(signingInput, a.keys.Secret)
		if err != nil {
			return ErrInvalidSignature.Wrap(err)
		}
		if subtle.ConstantTimeCompare(expected, sig) != 1 {
			return ErrInvalidSignature
		}
		return nil
	}

	if err := a.method.Verify(signingInput, sig, a.keys.PublicKey); err != nil {
		return ErrInvalidSignature.Wrap(err)
	}
	return nil
}

// Decode parses the payload without checking anything else.
// For introspection only; never use it to authorize a request.
func (a *Adapter) Decode(token string) (*DecodedToken, error) {
	return Decode(token)
}

// Decode parses a token payload without verification
func Decode(token string) (*DecodedToken, error) {
	parts, err := splitToken(token)
	if err != nil {
		return nil, err
	}
	payload, err := DecodeSegment(parts[1])
	if err != nil {
		return nil, errInvalidPayload.Wrap(err)
	}
	return decodeClaims(payload)
}

func splitToken(token string) ([]string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errInvalidFormat.WithData("segments", len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return nil, errInvalidFormat
		}
	}
	return parts, nil
}
