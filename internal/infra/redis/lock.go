package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/vaccination-engine/internal/lock"
	goredis "github.com/redis/go-redis/v9"
)

const minLockTTL = time.Second

// Deletes the key only while it still holds the caller's token, so an expired
// holder cannot release a lock that has since been taken by someone else.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var errLockNotHeld = errors.New("lock is no longer held")

var _ lock.Locker = (*RedisLocker)(nil)

// RedisLocker implements lock.Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client   *goredis.Client
	newToken func() string
}

func NewRedisLocker(client *goredis.Client) (*RedisLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisLocker{client: client, newToken: uuid.NewString}, nil
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (lock.ReleaseFunc, bool, error) {
	if l == nil || l.client == nil {
		return nil, false, fmt.Errorf("locker is not initialized")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("lock key is required")
	}
	ttl = max(ttl, minLockTTL)

	token := l.newToken()
	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("failed to release lock %q: %w", key, err)
		}
		if deleted == 0 {
			return fmt.Errorf("release lock %q: %w", key, errLockNotHeld)
		}
		return nil
	}

	return release, true, nil
}
