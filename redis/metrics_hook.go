package redis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// MetricsHook redis.Hook feeding Metrics
type MetricsHook struct {
	metrics *Metrics
}

// NewMetricsHook creates a hook
func NewMetricsHook(metrics *Metrics) *MetricsHook {
	return &MetricsHook{metrics: metrics}
}

// DialHook passes through
func (h *MetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

// ProcessHook times single commands, including EVALSHA from the Lua scripts
func (h *MetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.metrics.RecordCommand(ctx, cmd.Name(), time.Since(start), isFailure(err))
		return err
	}
}

// ProcessPipelineHook splits pipeline latency evenly across its commands
func (h *MetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		if len(cmds) == 0 {
			return err
		}
		per := time.Since(start) / time.Duration(len(cmds))
		for _, cmd := range cmds {
			h.metrics.RecordCommand(ctx, cmd.Name(), per, isFailure(cmd.Err()))
		}
		return err
	}
}

func isFailure(err error) bool {
	return err != nil && !errors.Is(err, redis.Nil)
}
