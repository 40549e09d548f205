package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-room-service/internal/domain"
)

// PoolLoader fetches the full question pool from a backing store.
type PoolLoader interface {
	LoadPool(ctx context.Context) ([]domain.Question, error)
}

const poolKey = "trivia:questions:pool"

// CachedSource keeps the question pool in Redis as one JSON blob with a TTL
// and serves each Fetch as a fresh random sample from it, so restarts and
// sibling processes share the cached pool instead of re-hitting the store.
type CachedSource struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewCachedSource(client *redis.Client, loader PoolLoader, ttl time.Duration) *CachedSource {
	return &CachedSource{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (s *CachedSource) Fetch(ctx context.Context, count int) ([]domain.Question, error) {
	pool, err := s.cachedPool(ctx)
	if err != nil {
		return nil, err
	}
	return domain.SamplePool(pool, count)
}

func (s *CachedSource) cachedPool(ctx context.Context) ([]domain.Question, error) {
	if pool, ok := s.readCache(ctx); ok {
		return pool, nil
	}

	result, err, _ := s.sf.Do(poolKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if pool, ok := s.readCache(ctx); ok {
			return pool, nil
		}

		pool, err := s.loader.LoadPool(ctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(pool)
		if err != nil {
			return nil, fmt.Errorf("marshal pool: %w", err)
		}
		// best-effort write; a failed SET only costs a reload next time
		_ = s.client.Set(ctx, poolKey, data, s.ttlWithJitter()).Err()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (s *CachedSource) readCache(ctx context.Context) ([]domain.Question, bool) {
	data, err := s.client.Get(ctx, poolKey).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var pool []domain.Question
	if err := json.Unmarshal(data, &pool); err != nil || len(pool) == 0 {
		return nil, false
	}
	return pool, true
}

func (s *CachedSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
