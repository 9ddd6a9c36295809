package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Robson16/daily-diet-api/internal/auth"
	"github.com/Robson16/daily-diet-api/internal/handler"
	"github.com/Robson16/daily-diet-api/internal/model"
	sqliteRepo "github.com/Robson16/daily-diet-api/internal/repository/sqlite"
	"github.com/Robson16/daily-diet-api/internal/service"
)

// newTestRouter wires MealHandler onto a chi router backed by an in-memory
// SQLite store, with the same guards the server uses.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := handler.NewMealHandler(service.NewMealService(db, nil, logger), auth.CookieOptions{}, logger)

	r := chi.NewRouter()
	r.Route("/meals", func(r chi.Router) {
		r.With(auth.OptionalToken).Post("/", h.HandleCreate)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireToken)
			r.Get("/", h.HandleList)
			r.Get("/metrics", h.HandleMetrics)
			r.Get("/{id}", h.HandleGetByID)
			r.Put("/{id}", h.HandleUpdate)
			r.Delete("/{id}", h.HandleDelete)
		})
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func tokenCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

// createAs posts a meal and returns the token that owns it.
func createAs(t *testing.T, h http.Handler, token, body string) string {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/meals", token, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	if c := tokenCookie(rr); c != nil {
		return c.Value
	}
	return token
}

func listMeals(t *testing.T, h http.Handler, token string) []model.Meal {
	t.Helper()
	rr := do(t, h, http.MethodGet, "/meals", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var res struct {
		Meals []model.Meal `json:"meals"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res.Meals
}

func TestCreate_MintsTokenOnce(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/meals", "", `{"name":"Breakfast","dateTime":"2024-03-10T08:00:00Z","onDiet":true}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Empty(t, rr.Body.String())

	cookie := tokenCookie(rr)
	require.NotNil(t, cookie, "first create sets the identity cookie")
	_, err := uuid.Parse(cookie.Value)
	assert.NoError(t, err)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)

	rr = do(t, h, http.MethodPost, "/meals", cookie.Value, `{"name":"Lunch","dateTime":"2024-03-10T12:00:00Z","onDiet":false}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Nil(t, tokenCookie(rr), "an existing token is reused, not reminted")

	assert.Len(t, listMeals(t, h, cookie.Value), 2)
}

func TestCreate_DistinctAnonymousCallersGetDistinctTokens(t *testing.T) {
	h := newTestRouter(t)
	body := `{"name":"x","dateTime":"2024-03-10","onDiet":true}`

	a := createAs(t, h, "", body)
	b := createAs(t, h, "", body)
	assert.NotEqual(t, a, b)
}

func TestCreate_ValidationFailure(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"unknown field", `{"name":"x","dateTime":"2024-03-10","onDiet":true,"calories":900}`},
		{"missing name", `{"dateTime":"2024-03-10","onDiet":true}`},
		{"missing onDiet", `{"name":"x","dateTime":"2024-03-10"}`},
		{"bad dateTime", `{"name":"x","dateTime":"someday","onDiet":true}`},
		{"empty body", ``},
		{"trailing garbage", `{"name":"x","dateTime":"2024-03-10","onDiet":true}garbage`},
		{"two objects", `{"name":"x","dateTime":"2024-03-10","onDiet":true}{"name":"y"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/meals", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Nil(t, tokenCookie(rr), "no token is issued for a rejected create")
		})
	}
}

func TestGuardedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t)
	id := uuid.NewString()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/meals"},
		{http.MethodGet, "/meals/metrics"},
		{http.MethodGet, "/meals/" + id},
		{http.MethodPut, "/meals/" + id},
		{http.MethodDelete, "/meals/" + id},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := do(t, h, tc.method, tc.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestGetByID(t *testing.T) {
	h := newTestRouter(t)
	token := createAs(t, h, "", `{"name":"Dinner","description":"soup","dateTime":"2024-03-10T19:00:00-03:00","onDiet":true}`)
	meals := listMeals(t, h, token)
	require.Len(t, meals, 1)

	t.Run("owner sees the meal", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/meals/"+meals[0].ID, token, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			Meal *model.Meal `json:"meal"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		require.NotNil(t, res.Meal)
		assert.Equal(t, "Dinner", res.Meal.Name)
		assert.Equal(t, "soup", res.Meal.Description)
		assert.Equal(t, "2024-03-10T22:00:00.000Z", res.Meal.DateTime)
		assert.True(t, res.Meal.OnDiet)
		assert.Equal(t, token, res.Meal.OwnerID)
	})

	t.Run("other caller gets null", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/meals/"+meals[0].ID, uuid.NewString(), "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"meal":null}`, rr.Body.String())
	})

	t.Run("unknown id gets null", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/meals/"+uuid.NewString(), token, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"meal":null}`, rr.Body.String())
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/meals/not-a-uuid", token, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestList_EmptyIsArray(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, http.MethodGet, "/meals", uuid.NewString(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"meals":[]}`, rr.Body.String())
}

func TestUpdate(t *testing.T) {
	h := newTestRouter(t)
	token := createAs(t, h, "", `{"name":"Dinner","description":"soup","dateTime":"2024-03-10T19:00:00Z","onDiet":true}`)
	id := listMeals(t, h, token)[0].ID

	rr := do(t, h, http.MethodPut, "/meals/"+id, token, `{"onDiet":false}`)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	got := listMeals(t, h, token)[0]
	assert.False(t, got.OnDiet)
	assert.Equal(t, "Dinner", got.Name)
	assert.Equal(t, "soup", got.Description)
	assert.Equal(t, "2024-03-10T19:00:00.000Z", got.DateTime)

	t.Run("other caller is 404", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/meals/"+id, uuid.NewString(), `{"name":"stolen"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Dinner", listMeals(t, h, token)[0].Name)
	})

	t.Run("invalid dateTime is 400", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/meals/"+id, token, `{"dateTime":"31/31/2024"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("trailing data is 400 and nothing changes", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/meals/"+id, token, `{"name":"Supper"} trailing`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Dinner", listMeals(t, h, token)[0].Name)
	})

	t.Run("trailing newline is accepted", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/meals/"+id, token, "{\"onDiet\":false}\n")
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("empty body is a no-op", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/meals/"+id, token, "")
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestDelete(t *testing.T) {
	h := newTestRouter(t)
	token := createAs(t, h, "", `{"name":"Snack","dateTime":"2024-03-10T16:00:00Z","onDiet":false}`)
	id := listMeals(t, h, token)[0].ID

	rr := do(t, h, http.MethodDelete, "/meals/"+id, uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "foreign delete looks like a missing meal")
	assert.Len(t, listMeals(t, h, token), 1)

	rr = do(t, h, http.MethodDelete, "/meals/"+id, token, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, listMeals(t, h, token))

	rr = do(t, h, http.MethodDelete, "/meals/"+id, token, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetrics(t *testing.T) {
	h := newTestRouter(t)

	// Posted out of order; the streak follows date_time descending:
	// 03-04 true, 03-03 true, 03-02 false, 03-01 true.
	token := createAs(t, h, "", `{"name":"a","dateTime":"2024-03-01T08:00:00Z","onDiet":true}`)
	createAs(t, h, token, `{"name":"c","dateTime":"2024-03-03T08:00:00Z","onDiet":true}`)
	createAs(t, h, token, `{"name":"d","dateTime":"2024-03-04T08:00:00Z","onDiet":true}`)
	createAs(t, h, token, `{"name":"b","dateTime":"2024-03-02T08:00:00Z","onDiet":false}`)

	rr := do(t, h, http.MethodGet, "/meals/metrics", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"metrics":{"recorded_meals":4,"on_diet_meals":3,"off_diet_meals":1,"best_sequence":2}}`,
		rr.Body.String())

	rr = do(t, h, http.MethodGet, "/meals/metrics", uuid.NewString(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"metrics":{"recorded_meals":0,"on_diet_meals":0,"off_diet_meals":0,"best_sequence":0}}`,
		rr.Body.String())
}
