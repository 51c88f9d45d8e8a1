package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/gate"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MealStore defines the database methods needed by meal handlers.
// Satisfied by *database.Queries.
type MealStore interface {
	ListAvailableMeals(ctx context.Context, now time.Time) ([]database.ListAvailableMealsRow, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	GetMeal(ctx context.Context, id uuid.UUID) (database.Meal, error)
	CreateMeal(ctx context.Context, arg database.CreateMealParams) (database.Meal, error)
	UpdateMeal(ctx context.Context, arg database.UpdateMealParams) (database.Meal, error)
}

// MealHandler handles meal listing and management.
type MealHandler struct {
	store MealStore
	gates *gate.Registry
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewMealHandler(store MealStore, gates *gate.Registry, log *zap.SugaredLogger) *MealHandler {
	return &MealHandler{store: store, gates: gates, log: log, now: time.Now}
}

// RegisterPublicRoutes registers the anonymous catalogue.
func (h *MealHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/meals", h.ListAvailable)
}

// RegisterProviderRoutes registers meal management for restaurant owners.
func (h *MealHandler) RegisterProviderRoutes(r chi.Router) {
	r.Post("/restaurants/{rid}/meals", h.Create)
	r.Patch("/meals/{id}", h.Update)
}

// --- Request / Response types ---

type createMealRequest struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	OriginalPrice   string    `json:"original_price"`
	DiscountedPrice string    `json:"discounted_price"`
	Quantity        int32     `json:"quantity"`
	AvailableFrom   time.Time `json:"available_from"`
	AvailableUntil  time.Time `json:"available_until"`
}

type updateMealRequest struct {
	Name            *string    `json:"name"`
	Description     *string    `json:"description"`
	OriginalPrice   *string    `json:"original_price"`
	DiscountedPrice *string    `json:"discounted_price"`
	Quantity        *int32     `json:"quantity"`
	AvailableFrom   *time.Time `json:"available_from"`
	AvailableUntil  *time.Time `json:"available_until"`
}

type mealResponse struct {
	ID              uuid.UUID `json:"id"`
	RestaurantID    uuid.UUID `json:"restaurant_id"`
	RestaurantName  string    `json:"restaurant_name,omitempty"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	OriginalPrice   string    `json:"original_price"`
	DiscountedPrice string    `json:"discounted_price"`
	Quantity        int32     `json:"quantity"`
	AvailableFrom   time.Time `json:"available_from"`
	AvailableUntil  time.Time `json:"available_until"`
}

// --- Handlers ---

// ListAvailable handles GET /meals.
func (h *MealHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListAvailableMeals(r.Context(), h.now())
	if err != nil {
		h.log.Errorw("list available meals", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]mealResponse, len(rows))
	for i, m := range rows {
		resp[i] = mealResponse{
			ID:              m.ID,
			RestaurantID:    m.RestaurantID,
			RestaurantName:  m.RestaurantName,
			Name:            m.Name,
			Description:     optionalText(m.Description),
			OriginalPrice:   numericToString(m.OriginalPrice),
			DiscountedPrice: numericToString(m.DiscountedPrice),
			Quantity:        m.Quantity,
			AvailableFrom:   m.AvailableFrom,
			AvailableUntil:  m.AvailableUntil,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /restaurants/{rid}/meals.
func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	restaurantID, ok := urlID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	restaurant, err := h.store.GetRestaurant(r.Context(), restaurantID)
	if err != nil {
		h.lookupError(w, "restaurant", err)
		return
	}
	if !h.gates.Allows(gate.OwnRestaurant, actor, gate.Restaurant{OwnerID: restaurant.OwnerID}) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		return
	}

	var req createMealRequest
	if !decodeBody(w, r, &req) {
		return
	}

	original, err := decimal.NewFromString(req.OriginalPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid original_price"})
		return
	}
	discounted, err := decimal.NewFromString(req.DiscountedPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discounted_price"})
		return
	}
	m := mealFields{
		Name:            strings.TrimSpace(req.Name),
		OriginalPrice:   original,
		DiscountedPrice: discounted,
		Quantity:        req.Quantity,
		AvailableFrom:   req.AvailableFrom,
		AvailableUntil:  req.AvailableUntil,
	}
	if msg := m.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	var desc pgtype.Text
	if d := strings.TrimSpace(req.Description); d != "" {
		desc = pgtype.Text{String: d, Valid: true}
	}

	meal, err := h.store.CreateMeal(r.Context(), database.CreateMealParams{
		RestaurantID:    restaurant.ID,
		Name:            m.Name,
		Description:     desc,
		OriginalPrice:   decimalToNumeric(m.OriginalPrice),
		DiscountedPrice: decimalToNumeric(m.DiscountedPrice),
		Quantity:        m.Quantity,
		AvailableFrom:   m.AvailableFrom,
		AvailableUntil:  m.AvailableUntil,
	})
	if err != nil {
		h.log.Errorw("create meal", "restaurant_id", restaurant.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toMealResponse(meal))
}

// Update handles PATCH /meals/{id}. Omitted fields keep their value; the
// merged result must still be a valid meal.
func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id", "meal")
	if !ok {
		return
	}

	meal, err := h.store.GetMeal(r.Context(), id)
	if err != nil {
		h.lookupError(w, "meal", err)
		return
	}
	restaurant, err := h.store.GetRestaurant(r.Context(), meal.RestaurantID)
	if err != nil {
		h.lookupError(w, "restaurant", err)
		return
	}
	if !h.gates.Allows(gate.OwnMeal, actor, gate.Meal{RestaurantOwnerID: restaurant.OwnerID}) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		return
	}

	var req updateMealRequest
	if !decodeBody(w, r, &req) {
		return
	}

	merged := mealFields{
		Name:            meal.Name,
		OriginalPrice:   numericToDecimal(meal.OriginalPrice),
		DiscountedPrice: numericToDecimal(meal.DiscountedPrice),
		Quantity:        meal.Quantity,
		AvailableFrom:   meal.AvailableFrom,
		AvailableUntil:  meal.AvailableUntil,
	}
	params := database.UpdateMealParams{ID: meal.ID}

	if req.Name != nil {
		merged.Name = strings.TrimSpace(*req.Name)
		params.Name = pgtype.Text{String: merged.Name, Valid: true}
	}
	if req.Description != nil {
		params.Description = pgtype.Text{String: strings.TrimSpace(*req.Description), Valid: true}
	}
	if req.OriginalPrice != nil {
		d, err := decimal.NewFromString(*req.OriginalPrice)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid original_price"})
			return
		}
		merged.OriginalPrice = d
		params.OriginalPrice = decimalToNumeric(d)
	}
	if req.DiscountedPrice != nil {
		d, err := decimal.NewFromString(*req.DiscountedPrice)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discounted_price"})
			return
		}
		merged.DiscountedPrice = d
		params.DiscountedPrice = decimalToNumeric(d)
	}
	if req.Quantity != nil {
		merged.Quantity = *req.Quantity
		params.Quantity = pgtype.Int4{Int32: *req.Quantity, Valid: true}
	}
	if req.AvailableFrom != nil {
		merged.AvailableFrom = *req.AvailableFrom
		params.AvailableFrom = pgtype.Timestamptz{Time: *req.AvailableFrom, Valid: true}
	}
	if req.AvailableUntil != nil {
		merged.AvailableUntil = *req.AvailableUntil
		params.AvailableUntil = pgtype.Timestamptz{Time: *req.AvailableUntil, Valid: true}
	}
	if msg := merged.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	updated, err := h.store.UpdateMeal(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "meal not found"})
			return
		}
		h.log.Errorw("update meal", "meal_id", meal.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMealResponse(updated))
}

// --- Helpers ---

type mealFields struct {
	Name            string
	OriginalPrice   decimal.Decimal
	DiscountedPrice decimal.Decimal
	Quantity        int32
	AvailableFrom   time.Time
	AvailableUntil  time.Time
}

func (m mealFields) validate() string {
	switch {
	case m.Name == "":
		return "name is required"
	case !m.OriginalPrice.IsPositive():
		return "original_price must be > 0"
	case !m.DiscountedPrice.IsPositive():
		return "discounted_price must be > 0"
	case m.DiscountedPrice.GreaterThan(m.OriginalPrice):
		return "discounted_price must not exceed original_price"
	case m.Quantity < 0:
		return "quantity must be >= 0"
	case m.AvailableFrom.IsZero() || m.AvailableUntil.IsZero():
		return "available_from and available_until are required"
	case !m.AvailableUntil.After(m.AvailableFrom):
		return "available_until must be after available_from"
	}
	return ""
}

func (h *MealHandler) lookupError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, pgx.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": what + " not found"})
		return
	}
	h.log.Errorw("get "+what, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func toMealResponse(m database.Meal) mealResponse {
	return mealResponse{
		ID:              m.ID,
		RestaurantID:    m.RestaurantID,
		Name:            m.Name,
		Description:     optionalText(m.Description),
		OriginalPrice:   numericToString(m.OriginalPrice),
		DiscountedPrice: numericToString(m.DiscountedPrice),
		Quantity:        m.Quantity,
		AvailableFrom:   m.AvailableFrom,
		AvailableUntil:  m.AvailableUntil,
	}
}
