package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-room-service/internal/domain"
)

// PoolLoader fetches the full question pool from a backing store.
type PoolLoader interface {
	LoadPool(ctx context.Context) ([]domain.Question, error)
}

// CachedSource caches the pool with a TTL to avoid repeated backing-store hits
// and serves each Fetch as a fresh random sample from it.
type CachedSource struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.RWMutex
	pool      []domain.Question
	expiresAt time.Time
}

func NewCachedSource(loader PoolLoader, ttl time.Duration) *CachedSource {
	return &CachedSource{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
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
	now := s.clock()

	s.mu.RLock()
	if s.pool != nil && s.expiresAt.After(now) {
		pool := s.pool
		s.mu.RUnlock()
		return pool, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do("pool", func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if s.pool != nil && s.expiresAt.After(now) {
			pool := s.pool
			s.mu.RUnlock()
			return pool, nil
		}
		s.mu.RUnlock()

		pool, err := s.loader.LoadPool(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.pool = pool
		s.expiresAt = now.Add(s.ttlWithJitter())
		s.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (s *CachedSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(rand.Int63n(jitterMax+1))
}

// StaticPoolLoader serves a fixed pool (useful for tests/demos).
type StaticPoolLoader struct {
	pool []domain.Question
}

func NewStaticPoolLoader(pool []domain.Question) *StaticPoolLoader {
	return &StaticPoolLoader{pool: pool}
}

func (l *StaticPoolLoader) LoadPool(_ context.Context) ([]domain.Question, error) {
	if len(l.pool) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return l.pool, nil
}
