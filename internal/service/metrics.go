package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Robson16/daily-diet-api/internal/metrics"
	"github.com/Robson16/daily-diet-api/internal/model"
)

// Metrics returns the caller's meal metrics, computed over the list in the
// same order List returns it.
//
// CACHE PROTOCOL:
//
//  1. Get returns the owner's generation g and the entry for g, if any.
//  2. On a miss the full list is read and metrics.Compute runs over it.
//  3. The result is stored under g, the generation seen BEFORE the list read.
//
// A write that lands between 1 and 3 bumps the generation after it commits,
// so the value stored in 3 is filed under a generation nobody reads anymore.
//
// When an invalidation fails, the write still succeeds and the owner is
// marked stale. A stale owner bypasses the cache until an invalidation goes
// through again, so a failed Invalidate cannot leave an old value visible.
// Other cache failures are logged and answered from the store.
func (s *MealService) Metrics(ctx context.Context, ownerID string) (model.Metrics, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.Metrics{}, err
	}

	useCache := s.recoverStale(ctx, ownerID)

	var gen int64
	if useCache {
		cached, g, ok, err := s.cache.Get(ctx, ownerID)
		switch {
		case err != nil:
			s.logger.Warn("metrics cache read failed", slog.String("error", err.Error()))
			useCache = false
		case ok:
			return cached, nil
		default:
			gen = g
		}
	}

	meals, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list meals for metrics", slog.String("error", err.Error()))
		return model.Metrics{}, fmt.Errorf("computing metrics: %w", err)
	}

	m := metrics.Compute(meals)

	if useCache {
		if err := s.cache.Set(ctx, ownerID, gen, m); err != nil {
			s.logger.Warn("metrics cache write failed", slog.String("error", err.Error()))
		}
	}
	return m, nil
}

// invalidateMetrics runs after every successful write. On failure the owner
// is marked stale instead of failing the already committed write.
func (s *MealService) invalidateMetrics(ctx context.Context, ownerID string) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn("metrics cache invalidation failed", slog.String("error", err.Error()))
		s.mu.Lock()
		s.stale[ownerID]++
		s.mu.Unlock()
	}
}

// recoverStale reports whether the cache may be used for ownerID. For a
// stale owner it retries the invalidation first. The mark is cleared only if
// no other write failed to invalidate while the retry was in flight.
func (s *MealService) recoverStale(ctx context.Context, ownerID string) bool {
	s.mu.Lock()
	mark, isStale := s.stale[ownerID]
	s.mu.Unlock()
	if !isStale {
		return true
	}

	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn("metrics cache still unavailable", slog.String("error", err.Error()))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale[ownerID] != mark {
		return false
	}
	delete(s.stale, ownerID)
	return true
}
