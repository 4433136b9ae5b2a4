package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sevafinance/notifier/internal/alerts"
	"github.com/sevafinance/notifier/internal/billing"
	"github.com/sevafinance/notifier/internal/config"
	"github.com/sevafinance/notifier/internal/domain/analytics"
	"github.com/sevafinance/notifier/internal/domain/budgets"
	"github.com/sevafinance/notifier/internal/domain/expenses"
	"github.com/sevafinance/notifier/internal/domain/recurring"
	"github.com/sevafinance/notifier/internal/domain/users"
	"github.com/sevafinance/notifier/internal/infra/db"
	httpx "github.com/sevafinance/notifier/internal/infra/http"
	"github.com/sevafinance/notifier/internal/infra/logger"
	"github.com/sevafinance/notifier/internal/infra/push"
	"github.com/sevafinance/notifier/internal/infra/telegram"
	"github.com/sevafinance/notifier/internal/jobs"
	"github.com/sevafinance/notifier/internal/reports"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Error("invalid timezone", "tz", cfg.App.Timezone, "err", err)
		return
	}

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	usersRepo := users.NewRepo(pool)
	budgetsRepo := budgets.NewRepo(pool)
	recurringRepo := recurring.NewRepo(pool)
	expensesRepo := expenses.NewRepo(pool)
	analyticsRepo := analytics.NewRepo(pool)

	var sender push.Sender
	if cfg.FCM.DryRun {
		sender = push.DryRun{Log: log}
		log.Info("push sender in dry-run mode")
	} else {
		fcm, err := push.NewFCM(ctx, cfg.FCM.CredentialsFile)
		if err != nil {
			log.Error("fcm init failed", "err", err)
			return
		}
		sender = fcm
	}

	eval := alerts.Evaluator{DashboardURL: cfg.App.DashboardURL}
	dispatcher := alerts.NewDispatcher(sender, log)
	scanner := alerts.NewScanner(log, eval, usersRepo, budgetsRepo, recurringRepo, expensesRepo, analyticsRepo, dispatcher, loc)

	billingSvc := billing.NewService(log, usersRepo, cfg.Stripe.SecretKey)
	billingHandler := billing.NewHandler(log, billingSvc, cfg.Stripe.PortalReturnURL)
	stripeWebhook := billing.NewWebhook(log, cfg.Stripe.WebhookSecret, usersRepo, billingSvc)

	testHandler := alerts.NewTestHandler(log, eval, sender)
	exportHandler := reports.NewHandler(log, usersRepo)

	ops, err := telegram.New(log, cfg.Telegram.Token, cfg.Telegram.AdminChatID)
	if err != nil {
		log.Error("telegram init failed", "err", err)
		return
	}
	if ops != nil {
		log.Info("telegram ops channel enabled", "chat_id", cfg.Telegram.AdminChatID)
	}

	c := cron.New(cron.WithLocation(loc))
	if err := jobs.New(log, scanner, usersRepo, ops).Register(c, cfg.Jobs); err != nil {
		log.Error("job registration failed", "err", err)
		return
	}
	c.Start()
	defer c.Stop()
	log.Info("scheduler started", "tz", cfg.App.Timezone)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, func(mux *http.ServeMux) {
		mux.Handle("POST /webhooks/stripe", stripeWebhook)
		mux.HandleFunc("POST /api/notifications/test", httpx.RequireAuth(usersRepo, testHandler.ServeHTTP))
		mux.HandleFunc("POST /api/billing/checkout-session", httpx.RequireAuth(usersRepo, billingHandler.CreateCheckoutSession))
		mux.HandleFunc("POST /api/billing/portal-session", httpx.RequireAuth(usersRepo, billingHandler.CreatePortalSession))
		mux.HandleFunc("POST /api/billing/cancel-subscription", httpx.RequireAuth(usersRepo, billingHandler.CancelSubscription))
		mux.HandleFunc("GET /admin/export/subscribers.xlsx", httpx.RequireAuth(usersRepo, exportHandler.ServeHTTP))
	})
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
