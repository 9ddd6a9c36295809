package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Robson16/daily-diet-api/internal/apperror"
	"github.com/Robson16/daily-diet-api/internal/model"
	"github.com/Robson16/daily-diet-api/internal/repository"
)

// Compile-time check that *DB satisfies the same contract as the sqlite
// store; server.openStore returns either behind repository.Store.
var _ repository.MealRepository = (*DB)(nil)

// mealColumns is shared by INSERT and SELECT, in scanMeal's order.
const mealColumns = `id, user_id, name, description, date_time, on_diet, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMeal reads one row in mealColumns order into m.
func scanMeal(s rowScanner, m *model.Meal) error {
	return s.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Description, &m.DateTime, &m.OnDiet, &m.CreatedAt)
}

// validID reports whether id can be compared against the UUID primary key.
// Postgres rejects malformed UUID literals with an error, and callers expect
// "not found" instead.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create inserts a new meal, assigning meal.ID and meal.CreatedAt.
//
// PLACEHOLDERS:
// lib/pq binds $1..$n positionally, where sqlite uses ?. The values never
// become part of the SQL text, so input cannot change the statement.
func (db *DB) Create(ctx context.Context, meal *model.Meal) error {
	meal.ID = uuid.NewString()
	meal.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO meals (`+mealColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		meal.ID, meal.OwnerID, meal.Name, meal.Description, meal.DateTime, meal.OnDiet, meal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating meal: %w", err)
	}
	return nil
}

// GetByID returns the meal with id owned by ownerID, or apperror.NotFound.
// A malformed id short-circuits to NotFound before any query runs.
func (db *DB) GetByID(ctx context.Context, ownerID, id string) (*model.Meal, error) {
	if !validID(id) {
		return nil, apperror.NotFound("meal", id)
	}

	var meal model.Meal
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+mealColumns+` FROM meals WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err := scanMeal(row, &meal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("meal", id)
		}
		return nil, fmt.Errorf("postgres: getting meal %s: %w", id, err)
	}
	return &meal, nil
}

// ListByOwner returns the owner's meals, most recent date_time first, with
// the same tie-break as the sqlite store. date_time is fixed-width UTC text,
// so ordering the column orders by time.
func (db *DB) ListByOwner(ctx context.Context, ownerID string) ([]model.Meal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+mealColumns+`
		 FROM meals
		 WHERE user_id = $1
		 ORDER BY date_time DESC, created_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing meals: %w", err)
	}
	defer rows.Close()

	meals := make([]model.Meal, 0)
	for rows.Next() {
		var m model.Meal
		if err := scanMeal(rows, &m); err != nil {
			return nil, fmt.Errorf("postgres: scanning meal row: %w", err)
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating meals: %w", err)
	}
	return meals, nil
}

// Update rewrites the mutable fields of the meal matching meal.ID and
// meal.OwnerID. Zero affected rows is NotFound.
func (db *DB) Update(ctx context.Context, meal *model.Meal) error {
	if !validID(meal.ID) {
		return apperror.NotFound("meal", meal.ID)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE meals
		 SET name = $1, description = $2, date_time = $3, on_diet = $4
		 WHERE id = $5 AND user_id = $6`,
		meal.Name, meal.Description, meal.DateTime, meal.OnDiet, meal.ID, meal.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating meal %s: %w", meal.ID, err)
	}
	return checkAffected(result, meal.ID)
}

// Delete removes the meal matching id and ownerID. Zero affected rows is
// NotFound.
func (db *DB) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return apperror.NotFound("meal", id)
	}

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM meals WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("postgres: deleting meal %s: %w", id, err)
	}
	return checkAffected(result, id)
}

// checkAffected maps a write that matched no row to apperror.NotFound.
func checkAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("meal", id)
	}
	return nil
}
