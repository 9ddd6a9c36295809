package sqlite

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

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a typed nil pointer to the interface. If *DB
// ever stops implementing repository.MealRepository, this line fails to
// compile, instead of the failure surfacing where server.New passes *DB on.
var _ repository.MealRepository = (*DB)(nil)

// mealColumns is the column list shared by INSERT and SELECT, in the order
// scanMeal reads them.
const mealColumns = `id, user_id, name, description, date_time, on_diet, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMeal reads one row in mealColumns order into m.
func scanMeal(s rowScanner, m *model.Meal) error {
	return s.Scan(
		&m.ID,
		&m.OwnerID,
		&m.Name,
		&m.Description,
		&m.DateTime,
		&m.OnDiet,
		&m.CreatedAt,
	)
}

// Create inserts a new meal. The ID and CreatedAt are assigned here and
// written back into meal.
//
// KEY CONCEPTS:
//
// 1. UUID IDS:
//    Meal ids are random v4 UUIDs. GET /meals/{id} rejects anything that
//    does not parse as a UUID, so ids must be generated in that format.
//
// 2. POINTER ARGUMENT:
//    meal is a *model.Meal so the generated ID and timestamp reach the
//    caller. A value receiver would update a copy.
//
// 3. PARAMETERIZED QUERIES (the ? placeholders):
//    Values travel separately from the SQL text and the driver binds them.
//    A meal named `x'); DROP TABLE meals; --` is stored as that literal name.
//    Never build SQL with fmt.Sprintf or string concatenation of input.
func (db *DB) Create(ctx context.Context, meal *model.Meal) error {
	meal.ID = uuid.NewString()
	meal.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO meals (`+mealColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meal.ID,
		meal.OwnerID,
		meal.Name,
		meal.Description,
		meal.DateTime,
		meal.OnDiet,
		meal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating meal: %w", err)
	}

	return nil
}

// GetByID retrieves a single meal owned by ownerID.
//
// sql.ErrNoRows covers both "no such id" and "someone else's id"; both become
// apperror.NotFound so the two cases are indistinguishable to callers.
func (db *DB) GetByID(ctx context.Context, ownerID, id string) (*model.Meal, error) {
	var meal model.Meal

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+mealColumns+`
		 FROM meals
		 WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err := scanMeal(row, &meal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("meal", id)
		}
		return nil, fmt.Errorf("sqlite: getting meal %s: %w", id, err)
	}

	return &meal, nil
}

// ListByOwner returns every meal owned by ownerID, most recent date_time
// first. Ties fall back to creation order so the result is stable.
//
// ORDERING ON TEXT:
// date_time is stored as fixed-width UTC text (2006-01-02T15:04:05.000Z).
// For that layout lexical order is chronological order, so ORDER BY on the
// column sorts by time, and the (user_id, date_time) index serves it.
//
// The slice starts as make([]model.Meal, 0) so an owner with no meals
// encodes as [] rather than null.
func (db *DB) ListByOwner(ctx context.Context, ownerID string) ([]model.Meal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+mealColumns+`
		 FROM meals
		 WHERE user_id = ?
		 ORDER BY date_time DESC, created_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meals: %w", err)
	}
	defer rows.Close()

	meals := make([]model.Meal, 0)
	for rows.Next() {
		var m model.Meal
		if err := scanMeal(rows, &m); err != nil {
			return nil, fmt.Errorf("sqlite: scanning meal row: %w", err)
		}
		meals = append(meals, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meals: %w", err)
	}

	return meals, nil
}

// Update writes name, description, date_time and on_diet for the meal
// matching both meal.ID and meal.OwnerID. id, user_id and created_at never
// change.
//
// RowsAffected tells an update that matched nothing apart from one that did.
// Zero rows means the id is unknown or owned by someone else: NotFound.
func (db *DB) Update(ctx context.Context, meal *model.Meal) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE meals
		 SET name = ?, description = ?, date_time = ?, on_diet = ?
		 WHERE id = ? AND user_id = ?`,
		meal.Name,
		meal.Description,
		meal.DateTime,
		meal.OnDiet,
		meal.ID,
		meal.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating meal %s: %w", meal.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("meal", meal.ID)
	}

	return nil
}

// Delete physically removes the meal matching id and ownerID.
func (db *DB) Delete(ctx context.Context, ownerID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM meals WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting meal %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("meal", id)
	}

	return nil
}
