package jwt

import (
	"context"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Start schedules the purge job every Blacklist.PurgeInterval on the service clock.
// Calling it twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.purgeMu.Lock()
	defer s.purgeMu.Unlock()
	if s.scheduler != nil {
		return nil
	}

	scheduler, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return ErrConfiguration.Wrapf(err, "create purge scheduler")
	}

	// the job outlives ctx, which may be request scoped
	purgeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.Blacklist.PurgeInterval),
		gocron.NewTask(func() { s.purge(purgeCtx) }),
		gocron.WithName("jwt-purge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return ErrConfiguration.Wrapf(err, "schedule purge job")
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.purgeCancel = cancel

	s.logger.DebugCtx(ctx, "purge job started", zap.Duration("interval", s.cfg.Blacklist.PurgeInterval))
	return nil
}

// purge drops expired blacklist and registry entries; failures are logged and retried next run
func (s *Service) purge(ctx context.Context) {
	now := s.clock.Now()

	revoked, err := s.blacklist.PurgeExpired(ctx, now)
	if err != nil {
		s.logger.WarnCtx(ctx, "blacklist purge failed", zap.Error(err))
	}
	refresh, err := s.registry.PurgeExpired(ctx, now)
	if err != nil {
		s.logger.WarnCtx(ctx, "refresh registry purge failed", zap.Error(err))
	}

	if revoked > 0 || refresh > 0 {
		s.logger.DebugCtx(ctx, "expired entries purged",
			zap.Int("blacklist", revoked),
			zap.Int("refresh_registry", refresh),
		)
	}
}

// Cleanup stops the purge job, purges the blacklist, clears an owned registry and
// resets the counters. The service is unusable afterwards.
//
// A registry passed in with WithRefreshRegistry may be shared with other
// instances and is purged but never cleared.
func (s *Service) Cleanup(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}

	s.purgeMu.Lock()
	if s.scheduler != nil {
		s.purgeCancel()
		if err := s.scheduler.Shutdown(); err != nil {
			s.logger.WarnCtx(ctx, "purge scheduler shutdown failed", zap.Error(err))
		}
		s.scheduler = nil
	}
	s.purgeMu.Unlock()

	s.purge(ctx)

	var firstErr error
	if s.ownsRegistry {
		if err := s.registry.Clear(ctx); err != nil {
			firstErr = err
		}
	}
	s.stats.reset()

	s.logger.DebugCtx(ctx, "token service cleaned up")
	return firstErr
}
