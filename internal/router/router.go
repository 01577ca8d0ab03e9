// Package router assembles the HTTP routes of the API.
package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gymflow/backend/internal/handler"
	appMiddleware "github.com/gymflow/backend/internal/middleware"
	"github.com/gymflow/backend/internal/service"
	"github.com/gymflow/backend/internal/ws"
	"github.com/gymflow/backend/pkg/storage"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Health        handler.Pinger
	Auth          *service.AuthService
	Orders        *service.OrderService
	Subscriptions *service.SubscriptionService
	Stats         *service.StatsService
	Proofs        *storage.ProofStorage
	Feed          *ws.OrderFeed
	Metrics       http.Handler // nil disables /metrics

	CORSOrigins  []string
	SecureCookie bool
	MetricsUser  string
	MetricsPass  string
}

// New builds the router. Background rate-limiter cleanup stops with ctx.
func New(ctx context.Context, d Deps) http.Handler {
	authHandler := handler.NewAuthHandler(d.Auth, d.SecureCookie)
	healthHandler := handler.NewHealthHandler(d.Health)
	plansHandler := handler.NewPlansHandler()
	paymentHandler := handler.NewPaymentHandler(d.Orders, d.Subscriptions)
	uploadHandler := handler.NewUploadHandler(d.Proofs)
	adminHandler := handler.NewAdminHandler(d.Auth, d.Orders, d.Subscriptions, d.Stats)
	userHandler := handler.NewUserHandler(d.Auth)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(appMiddleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(ctx, 20, 40)
	r.Use(globalRL.Middleware())

	// Health check and public routes (no auth)
	r.Get("/health", healthHandler.Check)
	r.Get("/api/plans", plansHandler.List)
	if d.Metrics != nil {
		r.With(appMiddleware.BasicAuth(d.MetricsUser, d.MetricsPass)).Handle("/metrics", d.Metrics)
	}
	if d.Proofs != nil {
		fs := http.StripPrefix("/uploads/proofs/", http.FileServer(http.Dir(d.Proofs.Dir())))
		r.Handle("/uploads/proofs/*", fs)
	}

	// Credential routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.StrictRateLimiter(ctx))
		r.Post("/api/auth/signup", authHandler.Signup)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Member routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(d.Auth))

		r.Get("/api/auth/me", authHandler.Me)
		r.Post("/api/payment/create-order", paymentHandler.CreateOrder)
		r.Get("/api/payment/orders", paymentHandler.ListOrders)
		r.Get("/api/subscription", paymentHandler.CurrentSubscription)
		if d.Proofs != nil {
			r.Post("/api/upload", uploadHandler.Proof)
		}
	})

	// Back office
	r.Route("/api/admin", func(r chi.Router) {
		r.With(appMiddleware.StrictRateLimiter(ctx)).Post("/login", authHandler.AdminLogin)
		r.Post("/logout", authHandler.AdminLogout)

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AdminAuth(d.Auth))

			r.Get("/me", authHandler.Me)
			r.Get("/stats", adminHandler.Stats)

			r.Get("/users", userHandler.List)
			r.Post("/users", userHandler.Create)
			r.Get("/users/{id}", userHandler.Get)
			r.Patch("/users/{id}", userHandler.Update)

			r.Get("/orders", adminHandler.ListOrders)
			r.Post("/orders", adminHandler.CreateOrder)
			r.Get("/orders/{id}", adminHandler.GetOrder)
			r.Post("/orders/{id}/approve", adminHandler.ApproveOrder)
			r.Post("/orders/{id}/reject", adminHandler.RejectOrder)

			r.Get("/subscriptions", adminHandler.ListSubscriptions)

			if d.Feed != nil {
				r.Get("/ws/orders", d.Feed.Serve)
			}

			// Destructive actions
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RootOnly)
				r.Delete("/users/{id}", userHandler.Delete)
				r.Delete("/orders/{id}", adminHandler.DeleteOrder)
				r.Delete("/subscriptions/{id}", adminHandler.DeleteSubscription)
			})
		})
	})

	return r
}
