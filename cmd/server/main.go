package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	billingengine "github.com/clubledger/billing-engine"
	"github.com/clubledger/billing-engine/internal/config"
	"github.com/clubledger/billing-engine/internal/handler"
	"github.com/clubledger/billing-engine/internal/notify"
	"github.com/clubledger/billing-engine/internal/processor"
	"github.com/clubledger/billing-engine/internal/repository"
	"github.com/clubledger/billing-engine/internal/service"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if level := logLevel(cfg.LogLevel); level != slog.LevelInfo {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})))
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(billingengine.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Payment processor gateway, injected everywhere it is needed
	gateway, err := processor.NewStripeGateway(cfg.StripeSecretKey,
		cfg.StripeWebhookSecret, cfg.Currency, cfg.ProcessorTimeout)
	if err != nil {
		slog.Error("failed to initialize payment gateway", "error", err)
		os.Exit(1)
	}
	if cfg.StripeWebhookSecret == "" {
		slog.Warn("webhook signing secret not set, all inbound webhooks will be refused")
	}

	// Notification worker
	mailer := notify.NewMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, cfg.NotifyQueueSize)
	go mailer.Run(ctx)

	// Services
	ledger := repository.NewLedger(pool)
	invoices := service.NewInvoiceManager(ledger, gateway, cfg.InvoiceDueDays)
	reconciler := service.NewReconciler(ledger, gateway, mailer)
	refunds := service.NewRefundProcessor(ledger, gateway, mailer)

	gin.SetMode(gin.ReleaseMode)
	h := handler.New(handler.Deps{
		Invoices: invoices,
		Settler:  reconciler,
		Refunder: refunds,
		Verifier: gateway,
		Ping:     pool.Ping,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	slog.Info("server stopped gracefully")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
