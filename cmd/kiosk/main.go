// File: cmd/kiosk/main.go
//
// Device-side sync agent. Runs next to the POS app on the kiosk, owns the
// local draft store, accepts draft edits over loopback HTTP, and drains
// pending orders to the backend whenever connectivity allows.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laundry-settlement/internal/client"
	"laundry-settlement/internal/client/store"
	"laundry-settlement/internal/config"
	"laundry-settlement/internal/infra/logging"
	"laundry-settlement/internal/infra/metrics"
	red "laundry-settlement/internal/infra/redis"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "kiosk.yaml", "path to config file")
	devMode := flag.Bool("dev", false, "console logs")
	flag.Parse()

	cfg, err := config.LoadKioskConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	drafts := store.NewRedisDraftStore(redisClient)
	api := client.NewHTTPOrderAPI(cfg.Sync.BackendURL)

	monitor := client.NewConnectivityMonitor(client.HealthProbe(cfg.Sync.BackendURL), cfg.Sync.ProbeInterval, logger)
	monitor.Start(ctx)
	defer monitor.Stop()

	syncer := client.NewSyncQueueProcessor(drafts, api, monitor, cfg.Sync.DrainInterval, logger)
	syncer.Start(ctx)
	defer syncer.Stop()

	debouncer := client.NewAutoSaveDebouncer(drafts, cfg.Sync.DebounceWait, logger)
	defer debouncer.Close()

	intake := &http.Server{
		Addr:              cfg.Sync.ListenAddr,
		Handler:           client.NewDraftIntakeHandler(debouncer, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := intake.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("draft intake server failed")
		}
	}()

	logger.Info().
		Str("backend", cfg.Sync.BackendURL).
		Str("listen", cfg.Sync.ListenAddr).
		Msg("kiosk sync agent running")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := intake.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("draft intake shutdown failed")
	}
	cancel()
}
