package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var _ domain.Locker = (*Locker)(nil)

// releaseScript deletes the key only while it still holds our token, so an expired
// lock re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker is a best-effort mutual exclusion over SET NX with a TTL
type Locker struct {
	client *Client
	tokens sync.Map // key -> token
}

// NewLocker creates a Redis-backed locker
func NewLocker(client *Client) *Locker {
	return &Locker{client: client}
}

// Acquire returns false when the key is already held
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.Redis.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if ok {
		l.tokens.Store(key, token)
	}
	return ok, nil
}

// Release frees a key acquired by this locker. Releasing an unknown key is a no-op.
func (l *Locker) Release(ctx context.Context, key string) error {
	token, ok := l.tokens.LoadAndDelete(key)
	if !ok {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client.Redis, []string{key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}

// ReportLockKey is the lock guarding a single report's generation
func ReportLockKey(reportID string) string {
	return "report:generate:" + reportID
}
