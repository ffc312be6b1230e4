package status

import (
	"context"
	"errors"
	"time"

	"github.com/kiranshivaraju/vintra/internal/cache"
)

// RedisStore keeps snapshots in Redis with a TTL, so status survives restarts
// and is shared across instances.
type RedisStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewRedisStore(c cache.Cache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, jobID string) (Status, bool, error) {
	s, found, err := cache.GetJSON[Status](ctx, r.cache, cache.StatusKey(jobID))
	if errors.Is(err, cache.ErrCorrupt) {
		_ = r.cache.Delete(ctx, cache.StatusKey(jobID))
		return Status{}, false, nil
	}
	return s, found, err
}

func (r *RedisStore) Set(ctx context.Context, jobID string, s Status) error {
	return cache.SetJSON(ctx, r.cache, cache.StatusKey(jobID), s, r.ttl)
}

func (r *RedisStore) Delete(ctx context.Context, jobID string) error {
	return r.cache.Delete(ctx, cache.StatusKey(jobID))
}

var _ Store = (*RedisStore)(nil)
