// Package redis builds the go-redis client shared by the token stores
package redis

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/validator"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient validates cfg, connects and pings.
// metrics may be nil; when set a command hook is installed.
func NewClient(ctx context.Context, cfg Config, metrics *Metrics, log *logger.CtxZapLogger) (*redis.Client, error) {
	cfg.ApplyDefaults()
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}
	if log == nil {
		log = logger.GetLogger("redis")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if metrics != nil && metrics.IsMetricsEnabled() {
		client.AddHook(NewMetricsHook(metrics))
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	log.DebugCtx(ctx, "redis connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return client, nil
}
