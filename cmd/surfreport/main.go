package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/surf-report-service/internal/adapter/http"
	"github.com/couchcryptid/surf-report-service/internal/app"
	"github.com/couchcryptid/surf-report-service/internal/config"
	"github.com/couchcryptid/surf-report-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Runner:     a.Pipeline,
		Reports:    a.Store,
		Catalog:    cfg,
		Default:    cfg.DefaultLocation,
		Ready:      a,
		RunTimeout: runTimeout(cfg),
		Clock:      a.Clock,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("surf report service started",
		"default_location", cfg.DefaultLocation,
		"locations", len(cfg.Locations),
		"policy", string(cfg.ExhaustionPolicy),
		"rating_strategy", cfg.RatingStrategy,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := a.Close(); err != nil {
		logger.Error("resource close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// runTimeout is the worst-case length of one synchronous run.
func runTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.MaxAttempts)*(cfg.RetryDelay+cfg.UpstreamTimeout) + 2*cfg.UpstreamTimeout + time.Minute
}
