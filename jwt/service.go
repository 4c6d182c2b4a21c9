package jwt

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/auth"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/validator"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// minimum HMAC secret length per algorithm, the hash output size
var minSecretLength = map[string]int{"HS256": 32, "HS384": 48, "HS512": 64}

// Option customizes a Service
type Option func(*Service)

// WithBlacklist replaces the in-memory blacklist
func WithBlacklist(b Blacklist) Option {
	return func(s *Service) { s.blacklist = b }
}

// WithRefreshRegistry replaces the in-memory refresh registry
func WithRefreshRegistry(r RefreshRegistry) Option {
	return func(s *Service) { s.registry = r }
}

func WithLogger(l *logger.CtxZapLogger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock drives iat/exp, expiry checks, store retention and the purge schedule
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithRandom source of jti bytes and password salts
func WithRandom(r io.Reader) Option {
	return func(s *Service) { s.random = r }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPasswordService replaces the service built from Config.Password
func WithPasswordService(p *auth.PasswordService) Option {
	return func(s *Service) { s.passwords = p }
}

// Service token service: signs, verifies, rotates and revokes tokens, and hashes passwords.
//
// Safe for concurrent use. After Cleanup every token operation fails with ErrNotInitialized.
type Service struct {
	cfg          Config
	adapter      *Adapter
	blacklist    Blacklist
	registry     RefreshRegistry
	ownsRegistry bool
	passwords    *auth.PasswordService
	logger       *logger.CtxZapLogger
	metrics      *Metrics
	clock        clockwork.Clock
	random       io.Reader
	stats        *stats
	tolerance    int64
	maxLifetime  int64
	closed       atomic.Bool

	purgeMu     sync.Mutex
	scheduler   gocron.Scheduler
	purgeCancel context.CancelFunc
}

// NewService validates cfg, loads the keys and wires the stores.
// Zero values in cfg get defaults; without options the stores live in memory.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()

	if _, ok := signingMethods[cfg.Algorithm]; !ok {
		return nil, ErrUnsupportedAlgorithm.WithMsgf("unsupported algorithm %q", cfg.Algorithm).
			WithData("algorithm", cfg.Algorithm)
	}
	if err := validator.Validate(cfg); err != nil {
		return nil, ErrConfiguration.Wrap(err)
	}
	keys, err := LoadKeyMaterial(cfg)
	if err != nil {
		return nil, ErrConfiguration.Wrap(err)
	}
	lifetimes, err := cfg.lifetimes()
	if err != nil {
		return nil, ErrConfiguration.Wrap(err)
	}

	s := &Service{cfg: cfg, stats: newStats(), tolerance: int64(cfg.ClockTolerance)}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.GetLogger("jwt")
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.random == nil {
		s.random = rand.Reader
	}
	if s.blacklist == nil {
		s.blacklist = NewMemoryBlacklist(s.clock)
	}
	if s.registry == nil {
		s.registry = NewMemoryRefreshRegistry()
		s.ownsRegistry = true
	}
	if s.passwords == nil {
		if s.passwords, err = auth.NewPasswordService(cfg.Password); err != nil {
			return nil, ErrConfiguration.Wrap(err)
		}
		s.passwords.SetRandom(s.random)
	}

	for _, lt := range lifetimes {
		if lt > s.maxLifetime {
			s.maxLifetime = lt
		}
	}

	s.adapter, err = NewAdapter(*keys, AdapterOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		Audience:  cfg.Audience,
		Lifetimes: lifetimes,
		Tolerance: s.tolerance,
		Clock:     s.clock,
		Random:    s.random,
	})
	if err != nil {
		return nil, ErrConfiguration.Wrap(err)
	}

	if want, ok := minSecretLength[cfg.Algorithm]; ok && len(keys.Secret) < want {
		s.logger.Warn("hmac secret is shorter than the hash output",
			zap.String("algorithm", cfg.Algorithm),
			zap.Int("length", len(keys.Secret)),
			zap.Int("recommended", want),
		)
	}

	return s, nil
}

func (s *Service) checkOpen() error {
	if s.closed.Load() {
		return ErrNotInitialized
	}
	return nil
}

// Sign mints a token of typ with the type's default lifetime unless opts.ExpiresIn is set
func (s *Service) Sign(ctx context.Context, payload TokenPayload, typ TokenType, opts *SignOptions) (*SignedToken, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	start := time.Now()
	tok, err := s.adapter.Sign(payload, typ, opts)
	if err != nil {
		s.logger.WarnCtx(ctx, "token signing failed", zap.String("type", string(typ)), zap.Error(err))
		return nil, err
	}
	elapsed := time.Since(start)

	s.stats.recordSign(typ, elapsed)
	s.metrics.RecordSigned(ctx, typ, elapsed)
	return tok, nil
}

// Verify checks signature, expiry and claims, then the blacklist and subject watermark.
// Expected failures come back as an invalid result; err is reserved for a closed
// service or a store failure.
func (s *Service) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := s.adapter.Verify(token)
	if res.Valid {
		revoked, err := s.isRevoked(ctx, res.Payload)
		if err != nil {
			s.finishVerify(ctx, failedResult(err), start)
			s.logger.ErrorCtx(ctx, "blacklist lookup failed", zap.Error(err))
			return nil, err
		}
		if revoked {
			res = failedResult(ErrBlacklisted.WithData("jti", res.Payload.JTI))
			res.Blacklisted = true
		}
	}

	s.finishVerify(ctx, res, start)
	return res, nil
}

func (s *Service) finishVerify(ctx context.Context, res *VerifyResult, start time.Time) {
	elapsed := time.Since(start)
	s.stats.recordVerify(res, elapsed)
	s.metrics.RecordVerified(ctx, verifyResultLabel(res), elapsed)
	if !res.Valid {
		s.logger.DebugCtx(ctx, "token rejected", zap.String("reason", res.Error))
	}
}

func (s *Service) isRevoked(ctx context.Context, d *DecodedToken) (bool, error) {
	hit, err := s.blacklist.Has(ctx, d.JTI)
	if err != nil || hit {
		return hit, err
	}
	if d.Subject == "" {
		return false, nil
	}
	at, ok, err := s.blacklist.SubjectRevokedAt(ctx, d.Subject)
	if err != nil || !ok {
		return false, err
	}
	return d.issuedAtMicros() <= at.UnixMicro(), nil
}

// VerifyFromHeader verifies the token of an "Authorization: Bearer <token>" value.
// The prefix is case-sensitive; a missing prefix or token yields ErrInvalidHeader.
func (s *Service) VerifyFromHeader(ctx context.Context, header string) (*VerifyResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(header, bearerPrefix) || len(header) == len(bearerPrefix) {
		res := failedResult(ErrInvalidHeader)
		s.finishVerify(ctx, res, time.Now())
		return res, nil
	}
	return s.Verify(ctx, header[len(bearerPrefix):])
}

// CreateTokenPair signs an access and a refresh token from one payload and
// registers the refresh token so it can be used exactly once.
func (s *Service) CreateTokenPair(ctx context.Context, payload TokenPayload) (*TokenPair, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	access, err := s.Sign(ctx, payload, TokenTypeAccess, nil)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Sign(ctx, payload, TokenTypeRefresh, nil)
	if err != nil {
		return nil, err
	}

	sub := refresh.Payload.Subject
	if sub == "" {
		s.logger.WarnCtx(ctx, "token pair without subject, revoking by subject will not reach it",
			zap.String("jti", shortJTI(refresh.Payload.JTI)))
	}
	if err := s.registry.Register(ctx, refresh.Payload.JTI, sub, s.retention(refresh.Payload.ExpiresAt)); err != nil {
		s.logger.ErrorCtx(ctx, "refresh token registration failed", zap.Error(err))
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// Decode parses a token without verifying it; never use the result to authorize
func (s *Service) Decode(token string) (*DecodedToken, error) {
	return s.adapter.Decode(token)
}

// HashPassword checks the password policy, then derives a PBKDF2 hash with a fresh salt
func (s *Service) HashPassword(ctx context.Context, password string) (*auth.PasswordHash, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.passwords.Hash(ctx, password)
}

// VerifyPassword constant-time comparison against a stored hash and salt
func (s *Service) VerifyPassword(ctx context.Context, password, hash, salt string) bool {
	if s.closed.Load() {
		return false
	}
	return s.passwords.Verify(ctx, password, hash, salt)
}

// GetStats counters since construction or the last Cleanup
func (s *Service) GetStats() Stats {
	return s.stats.snapshot()
}

// GetConfig effective configuration with key material redacted
func (s *Service) GetConfig() Config {
	return s.cfg.redacted()
}

// retention unix exp plus clock tolerance, as a time
func (s *Service) retention(exp int64) time.Time {
	return time.Unix(exp+s.tolerance, 0)
}

// retentionCap upper bound for any entry this service can create
func (s *Service) retentionCap() time.Time {
	return s.clock.Now().Add(time.Duration(s.maxLifetime+s.tolerance) * time.Second)
}

func shortJTI(jti string) string {
	if len(jti) <= 8 {
		return jti
	}
	return jti[:8] + "..."
}
