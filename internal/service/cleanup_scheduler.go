package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/vaccination-engine/internal/lock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	CleanupLockKey        = "lock:vaccination-cleanup"
	defaultCleanupLockTTL = 10 * time.Minute
)

type cleanupRunner interface {
	RunNow(ctx context.Context) (*CleanupResult, error)
}

// CleanupScheduler triggers the cleanup job on a cron schedule. With a
// locker, only the replica holding the lock runs a given tick.
type CleanupScheduler struct {
	job      cleanupRunner
	locker   lock.Locker
	schedule string
	lockTTL  time.Duration
	options
}

func NewCleanupScheduler(
	job cleanupRunner,
	locker lock.Locker,
	schedule string,
	lockTTL time.Duration,
	opts ...Option,
) (*CleanupScheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("cleanup job is required")
	}
	schedule = strings.TrimSpace(schedule)
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	if lockTTL <= 0 {
		lockTTL = defaultCleanupLockTTL
	}

	return &CleanupScheduler{
		job:      job,
		locker:   locker,
		schedule: schedule,
		lockTTL:  lockTTL,
		options:  newOptions(opts),
	}, nil
}

// Start blocks until ctx is done, then waits for an in-flight tick to return.
func (s *CleanupScheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to register cleanup schedule: %w", err)
	}

	c.Start()
	s.logger.Info("cleanup scheduler started",
		zap.String("schedule", s.schedule),
		zap.String("timezone", s.location.String()),
	)

	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	s.logger.Info("cleanup scheduler stopped")
	return nil
}

// tick runs one scheduled cleanup and reports whether the job was invoked.
func (s *CleanupScheduler) tick(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	if s.locker != nil {
		release, acquired, err := s.locker.TryLock(ctx, CleanupLockKey, s.lockTTL)
		if err != nil {
			s.logger.Error("failed to acquire cleanup lock, skipping tick", zap.Error(err))
			return false
		}
		if !acquired {
			s.logger.Info("cleanup lock held elsewhere, skipping tick")
			return false
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release cleanup lock", zap.Error(err))
			}
		}()
	}

	if _, err := s.job.RunNow(ctx); err != nil {
		s.logger.Error("scheduled cleanup failed", zap.Error(err))
	}
	return true
}
