package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/gate"
	"github.com/savedfeast/api/internal/service"
	"go.uber.org/zap"
)

const maxReasonLen = 500

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Create(ctx context.Context, actor gate.Actor, req service.CreateOrderRequest) (database.Order, error)
	Get(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.Order, error)
	ListForCustomer(ctx context.Context, actor gate.Actor) ([]database.Order, error)
	ListForProvider(ctx context.Context, actor gate.Actor) ([]database.Order, error)
	Accept(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.Order, error)
	MarkReady(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.Order, error)
	CancelByCustomer(ctx context.Context, actor gate.Actor, id uuid.UUID, reason string) (database.Order, error)
	CancelByRestaurant(ctx context.Context, actor gate.Actor, id uuid.UUID, reason string) (database.Order, error)
	Complete(ctx context.Context, actor gate.Actor, id uuid.UUID, code string) (database.Order, error)
	PickupCode(ctx context.Context, actor gate.Actor, id uuid.UUID) (string, error)
}

// OrderHandler handles customer and provider order endpoints.
type OrderHandler struct {
	svc OrderServicer
	log *zap.SugaredLogger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, log *zap.SugaredLogger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

// RegisterCustomerRoutes registers the customer endpoints.
func (h *OrderHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders", h.ListMine)
	r.Get("/orders/{id}", h.Get)
	r.Post("/orders/{id}/cancel", h.CancelByCustomer)
	r.Get("/orders/{id}/pickup-code", h.PickupCode)
}

// RegisterProviderRoutes registers the restaurant-side endpoints.
func (h *OrderHandler) RegisterProviderRoutes(r chi.Router) {
	r.Get("/provider/orders", h.ListForProvider)
	r.Post("/provider/orders/{id}/accept", h.Accept)
	r.Post("/provider/orders/{id}/ready", h.MarkReady)
	r.Post("/provider/orders/{id}/cancel", h.CancelByRestaurant)
	r.Post("/provider/orders/{id}/complete", h.Complete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	MealID   string `json:"meal_id"`
	Quantity int32  `json:"quantity"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type completeOrderRequest struct {
	PickupCode string `json:"pickup_code"`
}

type orderResponse struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	RestaurantID       uuid.UUID  `json:"restaurant_id"`
	MealID             uuid.UUID  `json:"meal_id"`
	Quantity           int32      `json:"quantity"`
	TotalAmount        string     `json:"total_amount"`
	Status             string     `json:"status"`
	PickupDeadline     time.Time  `json:"pickup_deadline"`
	AcceptedAt         *time.Time `json:"accepted_at"`
	ReadyAt            *time.Time `json:"ready_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	ExpiredAt          *time.Time `json:"expired_at"`
	CancellationReason *string    `json:"cancellation_reason"`
	CancelledBy        *string    `json:"cancelled_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// --- Customer handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mealID, err := uuid.Parse(req.MealID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid meal_id"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}

	order, err := h.svc.Create(r.Context(), actor, service.CreateOrderRequest{MealID: mealID, Quantity: req.Quantity})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// ListMine handles GET /orders.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.ListForCustomer(r.Context(), actor)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, func(actor gate.Actor, id uuid.UUID) (database.Order, error) {
		return h.svc.Get(r.Context(), actor, id)
	})
}

// CancelByCustomer handles POST /orders/{id}/cancel.
func (h *OrderHandler) CancelByCustomer(w http.ResponseWriter, r *http.Request) {
	reason, ok := readReason(w, r)
	if !ok {
		return
	}
	h.withOrder(w, r, func(actor gate.Actor, id uuid.UUID) (database.Order, error) {
		return h.svc.CancelByCustomer(r.Context(), actor, id, reason)
	})
}

// PickupCode handles GET /orders/{id}/pickup-code.
func (h *OrderHandler) PickupCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}

	code, err := h.svc.PickupCode(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pickup_code": code})
}

// --- Provider handlers ---

// ListForProvider handles GET /provider/orders.
func (h *OrderHandler) ListForProvider(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.ListForProvider(r.Context(), actor)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// Accept handles POST /provider/orders/{id}/accept.
func (h *OrderHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, func(actor gate.Actor, id uuid.UUID) (database.Order, error) {
		return h.svc.Accept(r.Context(), actor, id)
	})
}

// MarkReady handles POST /provider/orders/{id}/ready.
func (h *OrderHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, func(actor gate.Actor, id uuid.UUID) (database.Order, error) {
		return h.svc.MarkReady(r.Context(), actor, id)
	})
}

// CancelByRestaurant handles POST /provider/orders/{id}/cancel.
func (h *OrderHandler) CancelByRestaurant(w http.ResponseWriter, r *http.Request) {
	reason, ok := readReason(w, r)
	if !ok {
		return
	}
	h.withOrder(w, r, func(actor gate.Actor, id uuid.UUID) (database.Order, error) {
		return h.svc.CancelByRestaurant(r.Context(), actor, id, reason)
	})
}

// Complete handles POST /provider/orders/{id}/complete.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PickupCode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pickup_code is required"})
		return
	}
	h.withOrder(w, r, func(actor gate.Actor, id uuid.UUID) (database.Order, error) {
		return h.svc.Complete(r.Context(), actor, id, strings.TrimSpace(req.PickupCode))
	})
}

// --- Helpers ---

func (h *OrderHandler) withOrder(w http.ResponseWriter, r *http.Request, fn func(actor gate.Actor, id uuid.UUID) (database.Order, error)) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := fn(actor, id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// readReason reads an optional cancellation reason. An empty body is fine.
func readReason(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.ContentLength == 0 {
		return "", true
	}
	var req cancelOrderRequest
	if !decodeBody(w, r, &req) {
		return "", false
	}
	reason := strings.TrimSpace(req.Reason)
	if len(reason) > maxReasonLen {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason is too long"})
		return "", false
	}
	return reason, true
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:                 o.ID,
		UserID:             o.UserID,
		RestaurantID:       o.RestaurantID,
		MealID:             o.MealID,
		Quantity:           o.Quantity,
		TotalAmount:        numericToString(o.TotalAmount),
		Status:             o.Status,
		PickupDeadline:     o.PickupDeadline,
		AcceptedAt:         optionalTime(o.AcceptedAt),
		ReadyAt:            optionalTime(o.ReadyAt),
		CompletedAt:        optionalTime(o.CompletedAt),
		CancelledAt:        optionalTime(o.CancelledAt),
		ExpiredAt:          optionalTime(o.ExpiredAt),
		CancellationReason: optionalText(o.CancellationReason),
		CancelledBy:        optionalText(o.CancelledBy),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toOrderResponses(orders []database.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return resp
}
