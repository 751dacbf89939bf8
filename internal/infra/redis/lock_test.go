package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRedisLockerTryLockIsExclusive(t *testing.T) {
	t.Parallel()

	rdb, mr := newTestRedisClient(t)
	locker, err := NewRedisLocker(rdb)
	if err != nil {
		t.Fatalf("NewRedisLocker() error = %v", err)
	}

	release, acquired, err := locker.TryLock(context.Background(), "lock:vaccination-cleanup", time.Minute)
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if !acquired {
		t.Fatal("first TryLock() should acquire")
	}
	if ttl := mr.TTL("lock:vaccination-cleanup"); ttl != time.Minute {
		t.Fatalf("lock ttl = %s, want 1m", ttl)
	}

	_, acquired, err = locker.TryLock(context.Background(), "lock:vaccination-cleanup", time.Minute)
	if err != nil {
		t.Fatalf("second TryLock() error = %v", err)
	}
	if acquired {
		t.Fatal("second TryLock() should not acquire while held")
	}

	if err := release(context.Background()); err != nil {
		t.Fatalf("release() error = %v", err)
	}

	_, acquired, err = locker.TryLock(context.Background(), "lock:vaccination-cleanup", time.Minute)
	if err != nil {
		t.Fatalf("TryLock() after release error = %v", err)
	}
	if !acquired {
		t.Fatal("TryLock() after release should acquire")
	}
}

func TestRedisLockerReleaseAfterExpiryKeepsNewHolder(t *testing.T) {
	t.Parallel()

	rdb, mr := newTestRedisClient(t)
	locker, err := NewRedisLocker(rdb)
	if err != nil {
		t.Fatalf("NewRedisLocker() error = %v", err)
	}

	staleRelease, acquired, err := locker.TryLock(context.Background(), "lock:k", 2*time.Second)
	if err != nil || !acquired {
		t.Fatalf("TryLock() = %v, %v; want acquired", acquired, err)
	}

	mr.FastForward(3 * time.Second)

	_, acquired, err = locker.TryLock(context.Background(), "lock:k", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("TryLock() after expiry = %v, %v; want acquired", acquired, err)
	}

	if err := staleRelease(context.Background()); !errors.Is(err, errLockNotHeld) {
		t.Fatalf("stale release() error = %v, want errLockNotHeld", err)
	}
	if !mr.Exists("lock:k") {
		t.Fatal("stale release must not delete the new holder's lock")
	}
}

func TestRedisLockerRejectsBlankKey(t *testing.T) {
	t.Parallel()

	rdb, _ := newTestRedisClient(t)
	locker, err := NewRedisLocker(rdb)
	if err != nil {
		t.Fatalf("NewRedisLocker() error = %v", err)
	}

	if _, _, err := locker.TryLock(context.Background(), "  ", time.Minute); err == nil {
		t.Fatal("expected error for blank key")
	}
}
