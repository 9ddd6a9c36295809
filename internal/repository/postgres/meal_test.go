package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Robson16/daily-diet-api/internal/apperror"
	"github.com/Robson16/daily-diet-api/internal/model"
)

// newTestDB connects to TEST_DATABASE_URL. Tests are skipped when it is not
// set, since they need a live PostgreSQL server.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestValidID(t *testing.T) {
	assert.True(t, validID(uuid.NewString()))
	assert.False(t, validID("not-a-uuid"))
	assert.False(t, validID(""))
}

func TestMealLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := uuid.NewString()

	first := &model.Meal{OwnerID: owner, Name: "first", DateTime: "2024-03-09T08:00:00.000Z", OnDiet: true}
	second := &model.Meal{OwnerID: owner, Name: "second", DateTime: "2024-03-10T08:00:00.000Z", OnDiet: false}
	require.NoError(t, db.Create(ctx, first))
	require.NoError(t, db.Create(ctx, second))

	meals, err := db.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, "second", meals[0].Name)
	assert.Equal(t, "first", meals[1].Name)

	_, err = db.GetByID(ctx, uuid.NewString(), first.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	first.Name = "renamed"
	require.NoError(t, db.Update(ctx, first))
	got, err := db.GetByID(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	require.NoError(t, db.Delete(ctx, owner, first.ID))
	require.NoError(t, db.Delete(ctx, owner, second.ID))
	assert.ErrorIs(t, db.Delete(ctx, owner, second.ID), apperror.ErrNotFound)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetByID(ctx, "owner", "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, db.Delete(ctx, "owner", "nope"), apperror.ErrNotFound)
	assert.ErrorIs(t, db.Update(ctx, &model.Meal{ID: "nope", OwnerID: "owner"}), apperror.ErrNotFound)
}
