package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tokenpay/backend/internal/api"
	"github.com/tokenpay/backend/internal/api/handlers"
	"github.com/tokenpay/backend/internal/auth"
	"github.com/tokenpay/backend/internal/config"
	"github.com/tokenpay/backend/internal/db"
	"github.com/tokenpay/backend/internal/keylock"
	"github.com/tokenpay/backend/internal/ledger"
	"github.com/tokenpay/backend/internal/logger"
	"github.com/tokenpay/backend/internal/metrics"
	"github.com/tokenpay/backend/internal/payment"
	"github.com/tokenpay/backend/internal/repository/memory"
	"github.com/tokenpay/backend/internal/repository/postgres"
	"github.com/tokenpay/backend/internal/services"
	"github.com/tokenpay/backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	repos, closeDB, err := buildRepositories(ctx, cfg, log)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer closeDB()

	wp := worker.NewPool(4)
	defer wp.Stop()

	locks := keylock.New()
	ldg := ledger.NewHTTPLedger(cfg.LedgerURL)
	provider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.FrontendURL)
	verifier := payment.NewStripeVerifier(cfg.StripeWebhookSecret)
	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, 24*time.Hour)

	checkoutSvc := services.NewCheckoutService(repos.Transactions, provider, locks, cfg.PricePerTokenCents, log)
	reconcileSvc := services.NewReconcileService(repos.Transactions, repos.WebhookEvents, ldg, locks, wp, log)
	querySvc := services.NewQueryService(repos.Transactions)

	r := api.NewRouter(api.RouterDeps{
		Cfg:      cfg,
		TM:       tm,
		Checkout: handlers.NewCheckoutHandler(checkoutSvc, log),
		Webhook:  handlers.NewWebhookHandler(verifier, reconcileSvc, log),
		Txns:     handlers.NewTransactionsHandler(querySvc, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// buildRepositories wires postgres when DATABASE_URL is set and falls back to
// the in-memory store for local development without a database.
func buildRepositories(ctx context.Context, cfg config.Config, log *slog.Logger) (postgres.Repositories, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		return postgres.Repositories{
			Transactions:  memory.NewTransactions(),
			WebhookEvents: memory.NewWebhookEvents(),
		}, func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return postgres.Repositories{}, nil, err
	}
	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return postgres.Repositories{}, nil, err
		}
	}
	return postgres.NewRepositories(pool), pool.Close, nil
}
