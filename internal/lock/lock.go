package lock

import (
	"context"
	"time"
)

// ReleaseFunc gives up a lock obtained from a Locker.
type ReleaseFunc func(ctx context.Context) error

// Locker grants short-lived exclusive ownership of a key across replicas.
type Locker interface {
	// TryLock never blocks waiting for the holder. acquired is false when
	// someone else owns key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release ReleaseFunc, acquired bool, err error)
}
