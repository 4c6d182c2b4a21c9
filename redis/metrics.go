package redis

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics OpenTelemetry instruments for store commands.
// Implements component.MetricsProvider.
type Metrics struct {
	enabled    bool
	registered bool
	mu         sync.RWMutex

	commandsTotal   metric.Int64Counter
	commandDuration metric.Float64Histogram
	errorsTotal     metric.Int64Counter
}

// NewMetrics creates a provider; nothing is recorded until RegisterMetrics
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// MetricsName metrics group name
func (m *Metrics) MetricsName() string {
	return "redis"
}

// IsMetricsEnabled reports the configured switch
func (m *Metrics) IsMetricsEnabled() bool {
	return m.enabled
}

// RegisterMetrics creates the instruments once
func (m *Metrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	var err error
	m.commandsTotal, err = meter.Int64Counter("redis_commands_total",
		metric.WithDescription("Redis commands issued by the token stores"))
	if err != nil {
		return err
	}
	m.commandDuration, err = meter.Float64Histogram("redis_command_duration_seconds",
		metric.WithDescription("Redis command latency"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}
	m.errorsTotal, err = meter.Int64Counter("redis_errors_total",
		metric.WithDescription("Redis commands that failed, excluding nil replies"))
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

// RecordCommand records one command outcome; failed reports a real error
func (m *Metrics) RecordCommand(ctx context.Context, cmd string, duration time.Duration, failed bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.registered {
		return
	}

	attrs := metric.WithAttributes(attribute.String("command", cmd))
	m.commandsTotal.Add(ctx, 1, attrs)
	m.commandDuration.Record(ctx, duration.Seconds(), attrs)
	if failed {
		m.errorsTotal.Add(ctx, 1, attrs)
	}
}
