package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunLockRepository serializes schedule generation per period through a Redis
// lock. Only one generation run may hold the lock of a period at a time; the
// TTL guards against locks leaked by a crashed process.
type RunLockRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunLockRepository constructs a run lock repository.
func NewRunLockRepository(client *redis.Client, ttl time.Duration) *RunLockRepository {
	return &RunLockRepository{client: client, ttl: ttl}
}

func (r *RunLockRepository) key(periodID string) string {
	return "timetable:generation:lock:" + periodID
}

// Acquire attempts to take the generation lock for a period. It returns false
// when another run already holds it. The token identifies the owning run so
// only that run can release the lock.
func (r *RunLockRepository) Acquire(ctx context.Context, periodID, token string) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	ok, err := r.client.SetNX(ctx, r.key(periodID), token, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire generation lock for %s: %w", periodID, err)
	}
	return ok, nil
}

// Release frees the lock if the given token still owns it.
func (r *RunLockRepository) Release(ctx context.Context, periodID, token string) error {
	if r.client == nil {
		return nil
	}
	const script = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`
	if err := r.client.Eval(ctx, script, []string{r.key(periodID)}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release generation lock for %s: %w", periodID, err)
	}
	return nil
}
