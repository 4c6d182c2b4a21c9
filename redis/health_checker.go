package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// HealthChecker pings the store client
type HealthChecker struct {
	client *redis.Client
}

// NewHealthChecker creates a checker for client
func NewHealthChecker(client *redis.Client) *HealthChecker {
	return &HealthChecker{client: client}
}

// Name check name
func (h *HealthChecker) Name() string {
	return "redis"
}

// Check pings redis
func (h *HealthChecker) Check(ctx context.Context) error {
	if h.client == nil {
		return errors.New("redis client not initialized")
	}
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
