package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kafe-adisyon/api/internal/archive"
	"github.com/kafe-adisyon/api/internal/config"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/kafe-adisyon/api/internal/handler"
	"github.com/kafe-adisyon/api/internal/metrics"
	mw "github.com/kafe-adisyon/api/internal/middleware"
	"github.com/kafe-adisyon/api/internal/service"
	"github.com/kafe-adisyon/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, ledger *service.Ledger, archives *archive.Store, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // Vite dev server
			"http://localhost:4173", // Vite preview
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/tables", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Floor: tables, orders and payments
		tableHandler := handler.NewTableHandler(ledger, hub, cfg.LateTableThreshold)
		r.Route("/tables", tableHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(ledger, hub)
		paymentHandler := handler.NewPaymentHandler(ledger, hub)
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r)
			paymentHandler.RegisterRoutes(r)
		})

		// Catalog (writes are ADMIN only inside the handlers)
		categoryHandler := handler.NewCategoryHandler(ledger)
		r.Route("/categories", categoryHandler.RegisterRoutes)

		productHandler := handler.NewProductHandler(ledger)
		r.Route("/products", productHandler.RegisterRoutes)

		// Customers
		customerHandler := handler.NewCustomerHandler(ledger)
		r.Route("/customers", customerHandler.RegisterRoutes)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)

			reportsHandler := handler.NewReportsHandler(queries)
			r.Route("/reports", reportsHandler.RegisterRoutes)

			archiveHandler := handler.NewArchiveHandler(ledger, archives)
			r.Route("/archive", archiveHandler.RegisterRoutes)

			settingHandler := handler.NewSettingHandler(ledger)
			r.Route("/settings", settingHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
