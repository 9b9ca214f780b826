package repository

import (
	"context"
	"encoding/json"
	"time"

	"SwapGate/internal/domain/models"
	domrepo "SwapGate/internal/domain/repository"
	pkgcache "SwapGate/pkg/cache"
)

const decisionKeyPrefix = "decision"

// CachedDecisionStore implements DecisionCache over the cache service.
// Decisions travel as JSON strings so every cache backend handles them the
// same way.
type CachedDecisionStore struct {
	cache pkgcache.Service
	ttl   time.Duration
}

// NewCachedDecisionStore creates a decision cache with the given TTL.
func NewCachedDecisionStore(cache pkgcache.Service, ttl time.Duration) domrepo.DecisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedDecisionStore{cache: cache, ttl: ttl}
}

func (s *CachedDecisionStore) Get(ctx context.Context, digest string) (models.Decision, bool) {
	var raw string
	err := s.cache.Get(ctx, pkgcache.GenerateKey(decisionKeyPrefix, digest), &raw)
	if err != nil {
		return models.Decision{}, false
	}
	var d models.Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return models.Decision{}, false
	}
	return d, true
}

func (s *CachedDecisionStore) Set(ctx context.Context, digest string, d models.Decision) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, pkgcache.GenerateKey(decisionKeyPrefix, digest), string(b), s.ttl)
}

func (s *CachedDecisionStore) Close() error {
	return s.cache.Close()
}
