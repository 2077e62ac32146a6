package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tabwatch/tabwatch/internal/api"
	"github.com/tabwatch/tabwatch/internal/config"
	"github.com/tabwatch/tabwatch/internal/core/router"
	"github.com/tabwatch/tabwatch/internal/host"
	"github.com/tabwatch/tabwatch/internal/platform/factory"
	"github.com/tabwatch/tabwatch/internal/platform/logger"
)

func main() {
	// Optional driver flag override (sqlite | postgres)
	dbDriver := flag.String("db-driver", "", "Override TABWATCH_DB_DRIVER (sqlite, postgres)")
	flag.Parse()

	log := logger.New("tabwatch-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *dbDriver != "" {
		cfg.DBDriver = *dbDriver
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid db-driver override")
		}
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("bridge_url", cfg.BridgeURL).
		Msg("Tabwatch service starting…")

	// -------- Persistence layer -------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := factory.NewKV(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Persistence backend unavailable")
	}
	defer func() { _ = kv.Close() }()

	// -------- Accounting core ---------------
	bridge := host.NewHTTPBridge(cfg.BridgeURL)
	core := router.New(ctx, kv, bridge, cfg.MaxClosedTabs, time.Now())
	core.StartTimers(ctx, cfg.FlushInterval, cfg.RolloverCheckInterval)

	// -------- Health monitor ----------------
	api.StartHealthMonitor(ctx, kv, bridge, 30*time.Second)

	// -------- Router & Server ---------------
	httpRouter := api.NewRouter(core, time.Now)
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      httpRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown. No state flush here: up to one flush interval of
	// active time may be lost, matching the documented risk model.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
