package component

import "go.opentelemetry.io/otel/metric"

// MetricsProvider implemented by components that publish OpenTelemetry instruments.
// The host calls RegisterMetrics once with a meter of its choosing; providers
// must tolerate repeated calls.
type MetricsProvider interface {
	// MetricsName short lowercase group name, e.g. "jwt"
	MetricsName() string
	RegisterMetrics(meter metric.Meter) error
	IsMetricsEnabled() bool
}
