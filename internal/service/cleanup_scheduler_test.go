package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kursadbilgin/vaccination-engine/internal/lock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeCleanupRunner struct {
	mu    sync.Mutex
	calls int
	runFn func(ctx context.Context) (*CleanupResult, error)
}

func (f *fakeCleanupRunner) RunNow(ctx context.Context) (*CleanupResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.runFn != nil {
		return f.runFn(ctx)
	}
	return &CleanupResult{}, nil
}

func (f *fakeCleanupRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	released int
	err      error
	gotTTL   time.Duration
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (lock.ReleaseFunc, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gotTTL = ttl
	if f.err != nil {
		return nil, false, f.err
	}
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[key] {
		return nil, false, nil
	}
	f.held[key] = true

	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, key)
		f.released++
		return nil
	}, true, nil
}

func TestNewCleanupSchedulerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewCleanupScheduler(nil, nil, "0 3 * * *", 0); err == nil {
		t.Fatal("expected error for nil job")
	}
	if _, err := NewCleanupScheduler(&fakeCleanupRunner{}, nil, "every night", 0); err == nil {
		t.Fatal("expected error for invalid schedule")
	}

	scheduler, err := NewCleanupScheduler(&fakeCleanupRunner{}, nil, " 0 3 * * * ", 0)
	if err != nil {
		t.Fatalf("NewCleanupScheduler() error = %v", err)
	}
	if scheduler.lockTTL != defaultCleanupLockTTL {
		t.Fatalf("lockTTL = %s, want %s", scheduler.lockTTL, defaultCleanupLockTTL)
	}
}

func TestCleanupSchedulerTickRunsJobUnderLock(t *testing.T) {
	t.Parallel()

	job := &fakeCleanupRunner{}
	locker := &fakeLocker{}
	scheduler, err := NewCleanupScheduler(job, locker, "0 3 * * *", time.Minute)
	if err != nil {
		t.Fatalf("NewCleanupScheduler() error = %v", err)
	}

	if !scheduler.tick(context.Background()) {
		t.Fatal("tick() = false, want true")
	}
	if job.callCount() != 1 {
		t.Fatalf("job calls = %d, want 1", job.callCount())
	}
	if locker.released != 1 {
		t.Fatalf("lock releases = %d, want 1", locker.released)
	}
	if locker.gotTTL != time.Minute {
		t.Fatalf("lock ttl = %s, want 1m", locker.gotTTL)
	}
}

func TestCleanupSchedulerTickSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	job := &fakeCleanupRunner{}
	locker := &fakeLocker{held: map[string]bool{CleanupLockKey: true}}
	scheduler, err := NewCleanupScheduler(job, locker, "0 3 * * *", time.Minute, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("NewCleanupScheduler() error = %v", err)
	}

	if scheduler.tick(context.Background()) {
		t.Fatal("tick() = true, want false while another replica holds the lock")
	}
	if job.callCount() != 0 {
		t.Fatalf("job calls = %d, want 0", job.callCount())
	}
	if logs.FilterMessage("cleanup lock held elsewhere, skipping tick").Len() != 1 {
		t.Fatal("expected skip log entry")
	}
}

func TestCleanupSchedulerTickSkipsOnLockError(t *testing.T) {
	t.Parallel()

	job := &fakeCleanupRunner{}
	scheduler, err := NewCleanupScheduler(job, &fakeLocker{err: errors.New("redis down")}, "0 3 * * *", time.Minute)
	if err != nil {
		t.Fatalf("NewCleanupScheduler() error = %v", err)
	}

	if scheduler.tick(context.Background()) {
		t.Fatal("tick() = true, want false")
	}
	if job.callCount() != 0 {
		t.Fatalf("job calls = %d, want 0", job.callCount())
	}
}

func TestCleanupSchedulerTickWithoutLockerAndJobFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	job := &fakeCleanupRunner{runFn: func(context.Context) (*CleanupResult, error) {
		return nil, errors.New("store down")
	}}
	scheduler, err := NewCleanupScheduler(job, nil, "0 3 * * *", 0, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("NewCleanupScheduler() error = %v", err)
	}

	if !scheduler.tick(context.Background()) {
		t.Fatal("tick() = false, want true")
	}
	if job.callCount() != 1 {
		t.Fatalf("job calls = %d, want exactly 1 (no retry)", job.callCount())
	}
	if logs.FilterMessage("scheduled cleanup failed").Len() != 1 {
		t.Fatal("expected failure log entry")
	}
}

func TestCleanupSchedulerStartReturnsOnContextCancel(t *testing.T) {
	t.Parallel()

	scheduler, err := NewCleanupScheduler(&fakeCleanupRunner{}, nil, "0 3 * * *", 0)
	if err != nil {
		t.Fatalf("NewCleanupScheduler() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- scheduler.Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after context cancel")
	}
}

func TestCleanupSchedulerTickSkipsAfterShutdown(t *testing.T) {
	t.Parallel()

	job := &fakeCleanupRunner{}
	scheduler, err := NewCleanupScheduler(job, nil, "0 3 * * *", 0)
	if err != nil {
		t.Fatalf("NewCleanupScheduler() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if scheduler.tick(ctx) {
		t.Fatal("tick() = true after shutdown")
	}
	if job.callCount() != 0 {
		t.Fatalf("job calls = %d, want 0", job.callCount())
	}
}
