// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laundry-settlement/internal/config"
	pg "laundry-settlement/internal/infra/db/postgres"
	"laundry-settlement/internal/infra/logging"
	"laundry-settlement/internal/infra/metrics"
	"laundry-settlement/internal/infra/payment"
	"laundry-settlement/internal/infra/sched"
	"laundry-settlement/internal/infra/web"
	"laundry-settlement/internal/usecase"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	orderRepo := pg.NewOrderRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	eventRepo := pg.NewProcessedEventRepo(pool)
	auditRepo := pg.NewAuditRepo(pool)
	directoryRepo := pg.NewDirectoryRepo(pool)

	// ---- Stripe ----
	processor := payment.NewStripeClient(cfg.Stripe.SecretKey)
	verifier := payment.NewStripeVerifier(cfg.Stripe.WebhookSecret)

	// ---- Use cases ----
	settlementUC := usecase.NewSettlementUseCase(paymentRepo, orderRepo, directoryRepo, auditRepo, processor, tm, cfg.Fees, logger)
	subscriptionUC := usecase.NewSubscriptionUseCase(subRepo, auditRepo, logger)
	dispatchUC := usecase.NewDispatchUseCase(tm, eventRepo, auditRepo, directoryRepo, settlementUC, subscriptionUC, logger)

	// ---- HTTP ----
	server := web.NewServer(cfg.Server.Port, verifier, dispatchUC, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Stale-payment sweeper ----
	sweeper := sched.NewSweepWorker(settlementUC, paymentRepo, cfg.Sweep.Interval, cfg.Sweep.StaleAfter, cfg.Sweep.BatchSize, logger)
	go sweeper.Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
