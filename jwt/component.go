package jwt

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-tokenauth/auth"
	"github.com/KOMKZ/go-yogan-tokenauth/component"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/redis"
	"go.uber.org/zap"
)

// Component runs the token service from the "jwt" config section.
// With blacklist.storage=redis it needs a redis component injected through
// SetRedisComponent before Init.
type Component struct {
	config         Config
	logger         *logger.CtxZapLogger
	service        *Service
	metrics        *Metrics
	authMetrics    *auth.Metrics
	redisComponent *redis.Component // optional, blacklist.storage=redis only
}

// NewComponent creates the component
func NewComponent() *Component {
	return &Component{}
}

// Name component name
func (c *Component) Name() string {
	return component.ComponentJWT
}

// DependsOn config and logger, redis when available
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
		component.Optional(component.ComponentRedis),
	}
}

// SetRedisComponent injects the redis component used by the redis storage
func (c *Component) SetRedisComponent(rc *redis.Component) {
	c.redisComponent = rc
}

// Init reads the config and builds the service; a disabled component does nothing
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.logger = logger.GetLogger("jwt")

	c.config = DefaultConfig()
	if loader.IsSet("jwt") {
		if err := loader.Unmarshal("jwt", &c.config); err != nil {
			return fmt.Errorf("read jwt config: %w", err)
		}
	}
	if !c.config.Enabled {
		c.logger.DebugCtx(ctx, "jwt component disabled")
		return nil
	}

	c.metrics = NewMetrics(c.config.Metrics)
	c.authMetrics = auth.NewMetrics(auth.MetricsConfig{Enabled: c.config.Metrics.Enabled})

	passwords, err := auth.NewPasswordService(c.config.Password)
	if err != nil {
		return ErrConfiguration.Wrap(err)
	}
	passwords.SetMetrics(c.authMetrics)

	opts := []Option{WithLogger(c.logger), WithMetrics(c.metrics), WithPasswordService(passwords)}

	if c.config.Blacklist.Storage == StorageRedis {
		if c.redisComponent == nil || c.redisComponent.Client() == nil {
			return ErrConfiguration.WithMsg("blacklist.storage is redis but no redis client is configured")
		}
		client := c.redisComponent.Client()
		opts = append(opts,
			WithBlacklist(NewRedisBlacklist(client, c.config.Blacklist.RedisKeyPrefix, nil)),
			WithRefreshRegistry(NewRedisRefreshRegistry(client, c.config.Blacklist.RegistryKeyPrefix, nil)),
		)
	}

	service, err := NewService(c.config, opts...)
	if err != nil {
		return err
	}
	c.service = service

	c.logger.InfoCtx(ctx, "jwt component initialized",
		zap.String("algorithm", c.config.Algorithm),
		zap.String("storage", c.config.Blacklist.Storage),
	)
	return nil
}

// Start begins the purge job
func (c *Component) Start(ctx context.Context) error {
	if c.service == nil {
		return nil
	}
	return c.service.Start(ctx)
}

// Stop cleans the service up; safe to call twice
func (c *Component) Stop(ctx context.Context) error {
	if c.service == nil {
		return nil
	}
	if err := c.service.Cleanup(ctx); err != nil {
		c.logger.ErrorCtx(ctx, "jwt cleanup failed", zap.Error(err))
		return err
	}
	c.logger.InfoCtx(ctx, "jwt component stopped")
	return nil
}

// Service nil when the component is disabled
func (c *Component) Service() *Service {
	return c.service
}

// Metrics provider for the host's meter, nil when disabled
func (c *Component) Metrics() component.MetricsProvider {
	if c.metrics == nil {
		return nil
	}
	return c.metrics
}

// PasswordMetrics provider for password validation and hashing, nil when disabled
func (c *Component) PasswordMetrics() component.MetricsProvider {
	if c.authMetrics == nil {
		return nil
	}
	return c.authMetrics
}

// MetricsProviders every provider the host should register, empty when disabled
func (c *Component) MetricsProviders() []component.MetricsProvider {
	if c.service == nil {
		return nil
	}
	return []component.MetricsProvider{c.metrics, c.authMetrics}
}

// GetConfig effective configuration, key material redacted
func (c *Component) GetConfig() Config {
	return c.config.redacted()
}
