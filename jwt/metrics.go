package jwt

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Verification outcomes used as the "result" attribute
const (
	ResultValid       = "valid"
	ResultInvalid     = "invalid"
	ResultExpired     = "expired"
	ResultBlacklisted = "blacklisted"
)

// Metrics implements component.MetricsProvider for the token service.
// Record methods are no-ops until RegisterMetrics succeeds, and on a nil receiver.
type Metrics struct {
	config     MetricsConfig
	mu         sync.Mutex
	registered atomic.Bool

	tokensSigned         metric.Int64Counter
	tokensVerified       metric.Int64Counter
	tokensRefreshed      metric.Int64Counter
	tokensRevoked        metric.Int64Counter
	signDuration         metric.Float64Histogram
	verificationDuration metric.Float64Histogram
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{config: cfg}
}

// MetricsName returns the metrics group name
func (m *Metrics) MetricsName() string {
	return "jwt"
}

// IsMetricsEnabled returns whether metrics collection is enabled
func (m *Metrics) IsMetricsEnabled() bool {
	return m.config.Enabled
}

// RegisterMetrics creates the instruments; calling it again is a no-op
func (m *Metrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered.Load() {
		return nil
	}

	var err error

	m.tokensSigned, err = meter.Int64Counter(
		"jwt_tokens_signed_total",
		metric.WithDescription("Total number of tokens signed"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return err
	}

	m.tokensVerified, err = meter.Int64Counter(
		"jwt_tokens_verified_total",
		metric.WithDescription("Total number of token verifications"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return err
	}

	m.tokensRefreshed, err = meter.Int64Counter(
		"jwt_tokens_refreshed_total",
		metric.WithDescription("Total number of refresh attempts"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return err
	}

	m.tokensRevoked, err = meter.Int64Counter(
		"jwt_tokens_revoked_total",
		metric.WithDescription("Total number of revoked tokens"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return err
	}

	m.signDuration, err = meter.Float64Histogram(
		"jwt_sign_duration_seconds",
		metric.WithDescription("Token signing duration distribution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.verificationDuration, err = meter.Float64Histogram(
		"jwt_verification_duration_seconds",
		metric.WithDescription("Token verification duration distribution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.registered.Store(true)
	return nil
}

// IsRegistered returns whether metrics have been registered
func (m *Metrics) IsRegistered() bool {
	return m != nil && m.registered.Load()
}

// RecordSigned one signed token of tokenType
func (m *Metrics) RecordSigned(ctx context.Context, tokenType TokenType, duration time.Duration) {
	if !m.IsRegistered() {
		return
	}
	m.tokensSigned.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(tokenType))))
	m.signDuration.Record(ctx, duration.Seconds())
}

// RecordVerified one verification with its outcome
func (m *Metrics) RecordVerified(ctx context.Context, result string, duration time.Duration) {
	if !m.IsRegistered() {
		return
	}
	m.tokensVerified.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.verificationDuration.Record(ctx, duration.Seconds())
}

// RecordRefreshed one refresh attempt, result "success" or "failure"
func (m *Metrics) RecordRefreshed(ctx context.Context, result string) {
	if !m.IsRegistered() {
		return
	}
	m.tokensRefreshed.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordRevoked n revoked tokens; scope is "token" or "subject"
func (m *Metrics) RecordRevoked(ctx context.Context, scope string, n int) {
	if !m.IsRegistered() || n <= 0 {
		return
	}
	m.tokensRevoked.Add(ctx, int64(n), metric.WithAttributes(attribute.String("scope", scope)))
}

func verifyResultLabel(res *VerifyResult) string {
	switch {
	case res.Valid:
		return ResultValid
	case res.Blacklisted:
		return ResultBlacklisted
	case res.Expired:
		return ResultExpired
	}
	return ResultInvalid
}
