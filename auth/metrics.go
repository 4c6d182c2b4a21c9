package auth

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsConfig metrics switch
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Metrics implements component.MetricsProvider for password operations
type Metrics struct {
	config     MetricsConfig
	registered bool
	mu         sync.RWMutex

	passwordValidations metric.Int64Counter
	passwordVerifies    metric.Int64Counter
	hashDuration        metric.Float64Histogram
}

// NewMetrics creates the provider
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{config: cfg}
}

// MetricsName metrics group name
func (m *Metrics) MetricsName() string {
	return "auth"
}

// IsMetricsEnabled configured switch
func (m *Metrics) IsMetricsEnabled() bool {
	return m.config.Enabled
}

// RegisterMetrics creates instruments once
func (m *Metrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	var err error
	m.passwordValidations, err = meter.Int64Counter("auth_password_validations_total",
		metric.WithDescription("Password policy checks by result"))
	if err != nil {
		return err
	}
	m.passwordVerifies, err = meter.Int64Counter("auth_password_verifications_total",
		metric.WithDescription("Password verifications by outcome"))
	if err != nil {
		return err
	}
	m.hashDuration, err = meter.Float64Histogram("auth_password_hash_duration_seconds",
		metric.WithDescription("PBKDF2 derivation time"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	m.registered = true
	return nil
}

// IsRegistered reports whether instruments exist
func (m *Metrics) IsRegistered() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered
}

// RecordPasswordValidation result is "valid" or a violation code
func (m *Metrics) RecordPasswordValidation(ctx context.Context, result string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.registered {
		return
	}
	m.passwordValidations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordVerify records a verification outcome
func (m *Metrics) RecordVerify(ctx context.Context, matched bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.registered {
		return
	}
	m.passwordVerifies.Add(ctx, 1, metric.WithAttributes(attribute.Bool("matched", matched)))
}

// RecordHash records key derivation latency
func (m *Metrics) RecordHash(ctx context.Context, duration time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.registered {
		return
	}
	m.hashDuration.Record(ctx, duration.Seconds())
}
