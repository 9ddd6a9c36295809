// Package repository defines the Record Store contract.
//
// Every method that reads or changes an existing meal takes the caller's
// owner ID and filters on it in the query itself, so a meal owned by another
// caller is reported exactly like a meal that does not exist.
//
// WHY AN INTERFACE HERE?
// The service depends on MealRepository, not on a driver. Two stores
// implement it (repository/sqlite, repository/postgres), and the service
// tests use an in-memory mock. The server picks one from DB_DRIVER.
//
// OWNERSHIP IN THE QUERY:
// Scoping is `WHERE id = ? AND user_id = ?`, never "load by id, then compare
// owners in Go". There is no code path that can fetch another caller's row.
package repository

import (
	"context"

	"github.com/Robson16/daily-diet-api/internal/model"
)

// MealRepository is the owner-scoped CRUD surface over stored meals.
type MealRepository interface {
	// Create assigns meal.ID and meal.CreatedAt and persists the row.
	Create(ctx context.Context, meal *model.Meal) error
	// GetByID returns apperror.ErrNotFound when no meal with id belongs to ownerID.
	GetByID(ctx context.Context, ownerID, id string) (*model.Meal, error)
	// ListByOwner returns the owner's meals ordered by date_time descending.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Meal, error)
	// Update replaces the mutable fields of the row matching meal.ID and meal.OwnerID.
	Update(ctx context.Context, meal *model.Meal) error
	// Delete removes the row; apperror.ErrNotFound when nothing matched.
	Delete(ctx context.Context, ownerID, id string) error
}

// Store is a MealRepository backed by a connection the caller must close.
type Store interface {
	MealRepository
	// Ping checks the connection; used by GET /health.
	Ping(ctx context.Context) error
	// Close releases the connection pool.
	Close() error
}
