package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/queue"
	"github.com/kursadbilgin/vaccination-engine/internal/repository"
	"go.uber.org/zap"
)

type CleanupResult struct {
	Cutoff       time.Time
	DeletedCount int64
	RanAt        time.Time
}

type EligibleResult struct {
	Cutoff        time.Time
	EligibleCount int64
	AsOf          time.Time
}

// CleanupJob deletes incomplete vaccinations whose scheduled date fell more
// than the retention window before today. Manual and scheduled runs share Run.
type CleanupJob struct {
	vaccinations  repository.VaccinationRepository
	retentionDays int
	options
}

func NewCleanupJob(vaccinations repository.VaccinationRepository, retentionDays int, opts ...Option) (*CleanupJob, error) {
	if vaccinations == nil {
		return nil, fmt.Errorf("vaccination repository is required")
	}
	if retentionDays < 1 {
		retentionDays = domain.RetentionWindowDays
	}

	return &CleanupJob{
		vaccinations:  vaccinations,
		retentionDays: retentionDays,
		options:       newOptions(opts),
	}, nil
}

// Cutoff is the earliest scheduled date that survives a run at now.
func (j *CleanupJob) Cutoff(now time.Time) time.Time {
	return domain.CleanupCutoff(now.In(j.location), j.retentionDays)
}

// Run performs one cleanup pass. It does not retry; on failure no count is
// reported and the error carries the store or timeout kind.
func (j *CleanupJob) Run(ctx context.Context, now time.Time) (*CleanupResult, error) {
	cutoff := j.Cutoff(now)
	logger := j.loggerFor(ctx).With(zap.String("cutoff", domain.FormatDate(cutoff)))

	start := time.Now()
	storeCtx, cancel := j.storeCtx(ctx)
	deleted, err := j.vaccinations.DeleteStale(storeCtx, cutoff)
	cancel()
	duration := time.Since(start)

	j.metrics.ObserveCleanupRun(err, deleted, duration, j.now())
	if err != nil {
		err = asStoreError("cleanup vaccinations before", domain.FormatDate(cutoff), err)
		logger.Error("vaccination cleanup failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	result := &CleanupResult{
		Cutoff:       cutoff,
		DeletedCount: deleted,
		RanAt:        now.UTC(),
	}

	logger.Info("vaccination cleanup completed",
		zap.Int64("deletedCount", deleted),
		zap.Duration("duration", duration),
	)
	j.publish(ctx, queue.NewCleanupEvent(cutoff, deleted, now))

	return result, nil
}

func (j *CleanupJob) RunNow(ctx context.Context) (*CleanupResult, error) {
	return j.Run(ctx, j.now())
}

// CountEligible reports how many rows a run at now would delete.
func (j *CleanupJob) CountEligible(ctx context.Context, now time.Time) (*EligibleResult, error) {
	cutoff := j.Cutoff(now)

	storeCtx, cancel := j.storeCtx(ctx)
	defer cancel()

	count, err := j.vaccinations.CountStale(storeCtx, cutoff)
	if err != nil {
		return nil, asStoreError("count cleanup candidates before", domain.FormatDate(cutoff), err)
	}

	return &EligibleResult{Cutoff: cutoff, EligibleCount: count, AsOf: now.UTC()}, nil
}

func (j *CleanupJob) CountEligibleNow(ctx context.Context) (*EligibleResult, error) {
	return j.CountEligible(ctx, j.now())
}

func asStoreError(op string, id string, err error) error {
	if errors.Is(err, domain.ErrStore) || errors.Is(err, domain.ErrTimeout) {
		return err
	}
	kind := domain.ErrStore
	if errors.Is(err, context.DeadlineExceeded) {
		kind = domain.ErrTimeout
	}
	return &domain.OperationError{Op: op, ID: id, Kind: kind, Err: err}
}
