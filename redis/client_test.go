package redis

import (
	"context"
	"testing"

	"github.com/KOMKZ/go-yogan-tokenauth/config"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestConfig_ApplyDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "127.0.0.1:6379", cfg.Addr)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.NoError(t, cfg.Validate())

	cfg.DB = 16
	assert.Error(t, cfg.Validate())
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), Config{Addr: mr.Addr()}, nil, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))

	assert.NoError(t, NewHealthChecker(client).Check(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), Config{Addr: addr, MaxRetries: -1}, nil, logger.NewNop())
	assert.Error(t, err)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Addr: "x:1", DB: 99}, nil, logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis config")
}

func TestHealthChecker_NilClient(t *testing.T) {
	h := NewHealthChecker(nil)
	assert.Equal(t, "redis", h.Name())
	assert.Error(t, h.Check(context.Background()))
}

func TestMetricsHook_RecordsCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))

	m := NewMetrics(MetricsConfig{Enabled: true})
	require.NoError(t, m.RegisterMetrics(provider.Meter("test")))
	require.NoError(t, m.RegisterMetrics(provider.Meter("test")))
	assert.True(t, m.IsRegistered())

	client, err := NewClient(context.Background(), Config{Addr: mr.Addr()}, m, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	_ = client.Get(ctx, "missing").Err()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	commands := map[string]int64{}
	failures := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				name, _ := dp.Attributes.Value("command")
				switch md.Name {
				case "redis_commands_total":
					commands[name.AsString()] += dp.Value
				case "redis_errors_total":
					failures[name.AsString()] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), commands["get"])
	assert.Equal(t, int64(1), commands["set"])
	// a nil reply is not a failure
	assert.Zero(t, failures["get"])
}

func TestComponent_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)

	loader := config.NewLoader()
	loader.AddSource(config.NewMapSource("test", 1, map[string]interface{}{
		"redis.addr": mr.Addr(),
	}))
	require.NoError(t, loader.Load())

	c := NewComponent()
	assert.Equal(t, "redis", c.Name())
	require.NoError(t, c.Init(context.Background(), loader))
	require.NoError(t, c.Start(context.Background()))
	require.NotNil(t, c.Client())
	require.NotNil(t, c.GetHealthChecker())
	assert.False(t, c.Metrics().IsMetricsEnabled())

	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	assert.Nil(t, c.Client())
}

func TestComponent_NotConfigured(t *testing.T) {
	loader := config.NewLoader()
	require.NoError(t, loader.Load())

	c := NewComponent()
	require.NoError(t, c.Init(context.Background(), loader))
	assert.Nil(t, c.Client())
	assert.Nil(t, c.GetHealthChecker())
}
