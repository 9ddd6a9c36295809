// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership, orchestrates
//	Repository (Data layer)  → reads/writes the Record Store
//
// Every MealService method takes the caller's owner ID as an explicit
// argument. The service never reads identity from ambient state, and every
// repository call it makes is scoped by that ID.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Robson16/daily-diet-api/internal/apperror"
	"github.com/Robson16/daily-diet-api/internal/cache"
	"github.com/Robson16/daily-diet-api/internal/model"
	"github.com/Robson16/daily-diet-api/internal/repository"
)

// MealService is the Meal Registry plus the metrics endpoint.
//
// STRUCT FIELDS:
// - repo: the Record Store, injected as the repository interface
// - cache: the metrics cache, cache.Nop when caching is off
// - logger: structured logging of business events
// - stale: owners whose last cache invalidation failed, see metrics.go
type MealService struct {
	repo   repository.MealRepository
	cache  cache.MetricsCache
	logger *slog.Logger

	mu    sync.Mutex
	stale map[string]uint64
}

// NewMealService creates a MealService. A nil cache disables caching.
//
// The caller picks the concrete store and cache (sqlite or postgres, Redis
// or Nop); the service only sees the interfaces, and tests pass in-memory
// mocks for both.
func NewMealService(repo repository.MealRepository, metricsCache cache.MetricsCache, logger *slog.Logger) *MealService {
	if metricsCache == nil {
		metricsCache = cache.Nop{}
	}
	return &MealService{
		repo:   repo,
		cache:  metricsCache,
		logger: logger,
		stale:  make(map[string]uint64),
	}
}

// requireOwner rejects calls that arrive without an identity. The transport
// guard already enforces this; the check keeps the service safe to call
// directly.
func requireOwner(ownerID string) error {
	if ownerID == "" {
		return apperror.Unauthorized("identity token required")
	}
	return nil
}

// List returns all of the caller's meals ordered by date_time descending.
func (s *MealService) List(ctx context.Context, ownerID string) ([]model.Meal, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	meals, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list meals", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing meals: %w", err)
	}
	return meals, nil
}

// Get returns the caller's meal with the given id, or (nil, nil) when there
// is no such meal or it belongs to someone else. A malformed id is a
// validation error.
func (s *MealService) Get(ctx context.Context, ownerID, id string) (*model.Meal, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.ValidationFailed("id", "meal id must be a valid UUID")
	}

	meal, err := s.repo.GetByID(ctx, ownerID, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to get meal", slog.String("id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("getting meal: %w", err)
	}
	return meal, nil
}

// Create validates in and stores a new meal owned by ownerID. Minting the
// owner ID for first-time callers is the transport's job; by the time Create
// runs the caller has one.
func (s *MealService) Create(ctx context.Context, ownerID string, in CreateMealInput) (*model.Meal, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	v, err := in.validate()
	if err != nil {
		return nil, err
	}

	meal := &model.Meal{
		OwnerID:     ownerID,
		Name:        v.name,
		Description: v.description,
		DateTime:    v.dateTime,
		OnDiet:      v.onDiet,
	}

	if err := s.repo.Create(ctx, meal); err != nil {
		s.logger.Error("failed to create meal",
			slog.String("name", meal.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating meal: %w", err)
	}

	s.invalidateMetrics(ctx, ownerID)
	s.logger.Info("meal created",
		slog.String("id", meal.ID),
		slog.Bool("on_diet", meal.OnDiet),
	)
	return meal, nil
}

// Update applies a partial replacement to the caller's meal.
//
// The meal is read first, so a missing or foreign meal fails with NotFound
// before anything is written. Concurrent updates are last-writer-wins.
func (s *MealService) Update(ctx context.Context, ownerID, id string, in UpdateMealInput) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}

	meal, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := in.apply(meal); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, meal); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to update meal", slog.String("id", id), slog.String("error", err.Error()))
		return fmt.Errorf("updating meal: %w", err)
	}

	s.invalidateMetrics(ctx, ownerID)
	s.logger.Info("meal updated", slog.String("id", id))
	return nil
}

// Delete physically removes the caller's meal.
func (s *MealService) Delete(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}

	if _, err := s.findOwned(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete meal", slog.String("id", id), slog.String("error", err.Error()))
		return fmt.Errorf("deleting meal: %w", err)
	}

	s.invalidateMetrics(ctx, ownerID)
	s.logger.Info("meal deleted", slog.String("id", id))
	return nil
}

// findOwned is the pre-check read shared by Update and Delete. A malformed
// id cannot name any meal, so it is reported as NotFound too.
func (s *MealService) findOwned(ctx context.Context, ownerID, id string) (*model.Meal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("meal", id)
	}

	meal, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to get meal", slog.String("id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("getting meal: %w", err)
	}
	return meal, nil
}
