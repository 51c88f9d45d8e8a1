package handler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/notify"
	"go.uber.org/zap"
)

// RestaurantStore defines the database methods needed by restaurant handlers.
type RestaurantStore interface {
	CreateRestaurantApplication(ctx context.Context, arg database.CreateRestaurantApplicationParams) (database.RestaurantApplication, error)
	ListRestaurantsByOwner(ctx context.Context, ownerID uuid.UUID) ([]database.Restaurant, error)
}

// ApplicationNotifier tells the admins about new applications.
// Satisfied by *notify.Mailer.
type ApplicationNotifier interface {
	ApplicationReceived(ctx context.Context, app notify.RestaurantApplicationReceived) error
}

// RestaurantHandler handles restaurant applications and the provider's
// restaurant list.
type RestaurantHandler struct {
	store    RestaurantStore
	notifier ApplicationNotifier
	log      *zap.SugaredLogger
}

func NewRestaurantHandler(store RestaurantStore, notifier ApplicationNotifier, log *zap.SugaredLogger) *RestaurantHandler {
	return &RestaurantHandler{store: store, notifier: notifier, log: log}
}

func (h *RestaurantHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/restaurant-applications", h.Apply)
}

func (h *RestaurantHandler) RegisterProviderRoutes(r chi.Router) {
	r.Get("/provider/restaurants", h.ListMine)
}

// --- Request / Response types ---

type restaurantApplicationRequest struct {
	ApplicantName  string `json:"applicant_name"`
	Email          string `json:"email"`
	RestaurantName string `json:"restaurant_name"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Message        string `json:"message"`
}

type restaurantApplicationResponse struct {
	ID             uuid.UUID `json:"id"`
	RestaurantName string    `json:"restaurant_name"`
	CreatedAt      time.Time `json:"created_at"`
}

type restaurantResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	CommissionRate string    `json:"commission_rate"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// --- Handlers ---

// Apply handles POST /restaurant-applications. The application is stored
// even when the admin notification cannot be queued.
func (h *RestaurantHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req restaurantApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.ApplicantName = strings.TrimSpace(req.ApplicantName)
	req.Email = strings.TrimSpace(req.Email)
	req.RestaurantName = strings.TrimSpace(req.RestaurantName)
	if req.ApplicantName == "" || req.Email == "" || req.RestaurantName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "applicant_name, email and restaurant_name are required"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email"})
		return
	}

	var msg pgtype.Text
	if m := strings.TrimSpace(req.Message); m != "" {
		msg = pgtype.Text{String: m, Valid: true}
	}

	app, err := h.store.CreateRestaurantApplication(r.Context(), database.CreateRestaurantApplicationParams{
		ApplicantName:  req.ApplicantName,
		Email:          req.Email,
		RestaurantName: req.RestaurantName,
		Address:        strings.TrimSpace(req.Address),
		Phone:          strings.TrimSpace(req.Phone),
		Message:        msg,
	})
	if err != nil {
		h.log.Errorw("create restaurant application", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	notice := notify.RestaurantApplicationReceived{
		ApplicantName:  app.ApplicantName,
		Email:          app.Email,
		RestaurantName: app.RestaurantName,
		Address:        app.Address,
		Phone:          app.Phone,
		Message:        app.Message.String,
		SubmittedAt:    app.CreatedAt,
	}
	if err := h.notifier.ApplicationReceived(r.Context(), notice); err != nil {
		h.log.Warnw("restaurant application mail not queued", "application_id", app.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, restaurantApplicationResponse{
		ID:             app.ID,
		RestaurantName: app.RestaurantName,
		CreatedAt:      app.CreatedAt,
	})
}

// ListMine handles GET /provider/restaurants.
func (h *RestaurantHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	rows, err := h.store.ListRestaurantsByOwner(r.Context(), actor.UserID)
	if err != nil {
		h.log.Errorw("list restaurants by owner", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]restaurantResponse, len(rows))
	for i, rs := range rows {
		resp[i] = restaurantResponse{
			ID:             rs.ID,
			Name:           rs.Name,
			Address:        rs.Address,
			CommissionRate: rateToString(rs.CommissionRate),
			Status:         rs.Status,
			CreatedAt:      rs.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
