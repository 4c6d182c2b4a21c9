package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/auth"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type rsaPair struct {
	private string
	public  string
}

var (
	rsaOnce  sync.Once
	rsaKeys  [2]rsaPair
	rsaError error
)

// testRSAKeys two independent PEM encoded key pairs, generated once per run
func testRSAKeys(t *testing.T) [2]rsaPair {
	t.Helper()
	rsaOnce.Do(func() {
		for i := range rsaKeys {
			key, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				rsaError = err
				return
			}
			pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
			if err != nil {
				rsaError = err
				return
			}
			rsaKeys[i] = rsaPair{
				private: string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})),
				public:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})),
			}
		}
	})
	require.NoError(t, rsaError)
	return rsaKeys
}

// newTestConfig HS256 config with cheap password hashing
func newTestConfig() Config {
	return Config{
		Secret:   testSecret,
		Password: auth.PasswordConfig{Iterations: auth.MinIterations},
	}
}

func newTestConfigFor(t *testing.T, alg string) Config {
	cfg := newTestConfig()
	cfg.Algorithm = alg
	if isRSA(alg) {
		keys := testRSAKeys(t)
		cfg.Secret = ""
		cfg.PrivateKey = keys[0].private
		cfg.PublicKey = keys[0].public
	}
	return cfg
}

func newFakeClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(epoch)
}

// newTestService service on a fake clock with a silent logger, cleaned up with the test
func newTestService(t *testing.T, cfg Config, opts ...Option) (*Service, *clockwork.FakeClock) {
	t.Helper()
	fc := newFakeClock()
	opts = append([]Option{WithClock(fc), WithLogger(logger.NewNop())}, opts...)
	s, err := NewService(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Cleanup(context.Background()) })
	return s, fc
}

func newTestAdapter(t *testing.T, alg string, clock clockwork.Clock) *Adapter {
	t.Helper()
	cfg := newTestConfigFor(t, alg)
	cfg.ApplyDefaults()

	keys, err := LoadKeyMaterial(cfg)
	require.NoError(t, err)
	lifetimes, err := cfg.lifetimes()
	require.NoError(t, err)

	a, err := NewAdapter(*keys, AdapterOptions{
		Algorithm: alg,
		Lifetimes: lifetimes,
		Tolerance: DefaultClockTolerance,
		Clock:     clock,
	})
	require.NoError(t, err)
	return a
}

// signRaw signs arbitrary claims with a's key, bypassing the claim stamping of Sign
func signRaw(t *testing.T, a *Adapter, claims map[string]interface{}) string {
	t.Helper()
	payload, err := EncodeJSONSegment(claims)
	require.NoError(t, err)
	key, err := a.signingKey()
	require.NoError(t, err)
	input := a.header + "." + payload
	sig, err := a.method.Sign(input, key)
	require.NoError(t, err)
	return input + "." + EncodeSegment(sig)
}

// newTestRedis miniredis plus a client that does not retry
func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
