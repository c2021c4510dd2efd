package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/tokenpay/backend/internal/api/handlers"
	"github.com/tokenpay/backend/internal/auth"
	"github.com/tokenpay/backend/internal/config"
	"github.com/tokenpay/backend/internal/metrics"
	"github.com/tokenpay/backend/internal/middleware"
)

type RouterDeps struct {
	Cfg      config.Config
	TM       *auth.TokenManager
	Checkout *handlers.CheckoutHandler
	Webhook  *handlers.WebhookHandler
	Txns     *handlers.TransactionsHandler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{d.Cfg.FrontendURL},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout/session", d.Checkout.CreateSession)

		// raw body; the handler verifies the signature itself
		r.Post("/webhook", d.Webhook.Handle)

		r.Get("/transactions", d.Txns.List)
		r.Get("/transactions/{id}", d.Txns.Get)
		r.Get("/users/{userId}/transactions", d.Txns.UserSummary)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.TM))
			r.Get("/admin/stats", d.Txns.Stats)
		})
	})

	return r
}
