package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Robson16/daily-diet-api/internal/apperror"
	"github.com/Robson16/daily-diet-api/internal/auth"
	"github.com/Robson16/daily-diet-api/internal/model"
	"github.com/Robson16/daily-diet-api/internal/service"
)

// maxBodyBytes caps request bodies on create and update.
const maxBodyBytes = 1 << 20

// MealHandler serves the /meals routes.
//
//	GET    /meals          → list the caller's meals
//	GET    /meals/metrics  → the caller's metrics
//	GET    /meals/{id}     → one meal, or null
//	POST   /meals          → create (mints the identity cookie if absent)
//	PUT    /meals/{id}     → partial update
//	DELETE /meals/{id}     → delete
//
// All routes except POST sit behind auth.RequireToken. The handler reads the
// caller identity from the request context and passes it to the service.
type MealHandler struct {
	meals   *service.MealService
	cookies auth.CookieOptions
	logger  *slog.Logger
}

// NewMealHandler creates a MealHandler.
func NewMealHandler(meals *service.MealService, cookies auth.CookieOptions, logger *slog.Logger) *MealHandler {
	return &MealHandler{
		meals:   meals,
		cookies: cookies,
		logger:  logger,
	}
}

// mealRequest is the JSON body of POST and PUT. Pointers distinguish an
// omitted field from a zero value.
type mealRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	DateTime    *string `json:"dateTime"`
	OnDiet      *bool   `json:"onDiet"`
}

type listResponse struct {
	Meals []model.Meal `json:"meals"`
}

type mealResponse struct {
	Meal *model.Meal `json:"meal"`
}

type metricsResponse struct {
	Metrics model.Metrics `json:"metrics"`
}

// decodeMealRequest reads a mealRequest. An empty body decodes to an empty
// request when allowEmpty is set.
//
// STRICT DECODING:
// json.Decoder reads one value and stops, so on its own it would accept
// `{"name":"x"}garbage` or two objects back to back. After the object we
// decode once more and require io.EOF. DisallowUnknownFields turns a typo
// like "ondiet" into a 400 instead of a silently missing field.
func decodeMealRequest(w http.ResponseWriter, r *http.Request, allowEmpty bool) (mealRequest, error) {
	var req mealRequest
	invalid := apperror.ValidationFailed("body", "request body must be a single valid JSON object")

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return mealRequest{}, nil
		}
		return mealRequest{}, invalid
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return mealRequest{}, invalid
	}
	return req, nil
}

// ownerID returns the identity the auth middleware stored in the context, or
// "" when there is none.
func ownerID(r *http.Request) string {
	id, _ := auth.OwnerIDFromContext(r.Context())
	return id
}

// HandleList returns the caller's meals, most recent first.
//
// HTTP: GET /meals
func (h *MealHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	meals, err := h.meals.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Meals: meals})
}

// HandleGetByID returns one meal. A meal that does not exist or belongs to
// another caller renders as {"meal": null} with 200.
//
// HTTP: GET /meals/{id}
func (h *MealHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	meal, err := h.meals.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mealResponse{Meal: meal})
}

// HandleMetrics returns the caller's summary metrics.
//
// HTTP: GET /meals/metrics
func (h *MealHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.meals.Metrics(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metricsResponse{Metrics: m})
}

// HandleCreate stores a new meal and answers 201 with no body.
//
// HTTP: POST /meals
// REQUEST BODY: {"name": "...", "description": "...", "dateTime": "...", "onDiet": true}
//
// A caller without an identity token gets a freshly minted one. The cookie
// is only issued once the meal is stored, so a rejected request leaves the
// caller anonymous.
func (h *MealHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMealRequest(w, r, false)
	if err != nil {
		writeError(w, err)
		return
	}

	owner, minted := ownerID(r), false
	if owner == "" {
		owner, minted = auth.NewToken(), true
	}

	in := service.CreateMealInput{
		Name:        deref(req.Name),
		Description: deref(req.Description),
		DateTime:    deref(req.DateTime),
		OnDiet:      req.OnDiet,
	}

	if _, err := h.meals.Create(r.Context(), owner, in); err != nil {
		writeError(w, err)
		return
	}

	if minted {
		auth.SetTokenCookie(w, owner, h.cookies)
		h.logger.Debug("identity token minted")
	}
	w.WriteHeader(http.StatusCreated)
}

// HandleUpdate replaces the fields present in the body and answers 204.
//
// HTTP: PUT /meals/{id}
func (h *MealHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMealRequest(w, r, true)
	if err != nil {
		writeError(w, err)
		return
	}

	in := service.UpdateMealInput{
		Name:        req.Name,
		Description: req.Description,
		DateTime:    req.DateTime,
		OnDiet:      req.OnDiet,
	}
	if err := h.meals.Update(r.Context(), ownerID(r), chi.URLParam(r, "id"), in); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes a meal and answers 204.
//
// HTTP: DELETE /meals/{id}
func (h *MealHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.meals.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deref maps an omitted string field to "".
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
