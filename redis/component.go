package redis

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-tokenauth/component"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Component owns the shared client.
// It reads the "redis" section; when the section is absent Init is a no-op and
// Client returns nil.
type Component struct {
	client  *redis.Client
	metrics *Metrics
	logger  *logger.CtxZapLogger
}

// NewComponent creates the component
func NewComponent() *Component {
	return &Component{}
}

// Name component name
func (c *Component) Name() string {
	return component.ComponentRedis
}

// DependsOn config and logger
func (c *Component) DependsOn() []string {
	return []string{component.ComponentConfig, component.ComponentLogger}
}

// Init connects when configured
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.logger = logger.GetLogger("redis")

	if !loader.IsSet("redis") {
		c.logger.DebugCtx(ctx, "redis not configured, skipping")
		return nil
	}

	var cfg Config
	if err := loader.Unmarshal("redis", &cfg); err != nil {
		return fmt.Errorf("read redis config: %w", err)
	}

	c.metrics = NewMetrics(cfg.Metrics)
	client, err := NewClient(ctx, cfg, c.metrics, c.logger)
	if err != nil {
		return err
	}
	c.client = client

	c.logger.InfoCtx(ctx, "redis component initialized", zap.String("addr", client.Options().Addr))
	return nil
}

// Start nothing to start
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop closes the client; safe to call twice
func (c *Component) Stop(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	if err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// Client shared client, nil when redis is not configured
func (c *Component) Client() *redis.Client {
	return c.client
}

// Metrics command metrics provider, nil before Init
func (c *Component) Metrics() *Metrics {
	return c.metrics
}

// GetHealthChecker nil when redis is not configured
func (c *Component) GetHealthChecker() component.HealthChecker {
	if c.client == nil {
		return nil
	}
	return NewHealthChecker(c.client)
}
