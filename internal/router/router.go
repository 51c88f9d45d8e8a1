package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/savedfeast/api/internal/config"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/enum"
	"github.com/savedfeast/api/internal/gate"
	"github.com/savedfeast/api/internal/handler"
	mw "github.com/savedfeast/api/internal/middleware"
	"github.com/savedfeast/api/internal/ws"
	"go.uber.org/zap"
)

// Deps are the shared components the routes are built from.
type Deps struct {
	Config   *config.Config
	Location *time.Location
	Queries  *database.Queries
	Orders   handler.OrderServicer
	Invoices handler.InvoiceServicer
	Notifier handler.ApplicationNotifier
	Gates    *gate.Registry
	Hub      *ws.Hub
	Log      *zap.SugaredLogger
}

// New creates a Chi router with all application routes wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes
	handler.NewAuthHandler(d.Queries, d.Config.JWTSecret, d.Log).RegisterRoutes(r)

	mealHandler := handler.NewMealHandler(d.Queries, d.Gates, d.Log)
	mealHandler.RegisterPublicRoutes(r)

	restaurantHandler := handler.NewRestaurantHandler(d.Queries, d.Notifier, d.Log)
	restaurantHandler.RegisterPublicRoutes(r)

	// WebSocket route (authenticates via the token query param)
	r.Handle("/ws/restaurants/{rid}/orders", ws.NewHandler(d.Hub, d.Config.JWTSecret, d.Queries, d.Gates))

	orderHandler := handler.NewOrderHandler(d.Orders, d.Log)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(d.Config.JWTSecret))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleCustomer))
			orderHandler.RegisterCustomerRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleProvider))
			orderHandler.RegisterProviderRoutes(r)
			mealHandler.RegisterProviderRoutes(r)
			restaurantHandler.RegisterProviderRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireGate(d.Gates, gate.AdminAccess))
			handler.NewInvoiceHandler(d.Invoices, d.Location, d.Log).RegisterRoutes(r)
		})
	})

	d.Log.Info("router initialized")
	return r
}
