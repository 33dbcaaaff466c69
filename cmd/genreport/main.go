// Command genreport runs one surf report generation and prints the result as
// JSON. It is the entry point for cron and external schedulers; the exit
// status is non-zero when the run fails.
//
// Usage:
//
//	go run ./cmd/genreport -location ocean-beach
//	go run ./cmd/genreport -location ocean-beach -max-attempts 1 -policy degrade
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/surf-report-service/internal/adapter/http"
	"github.com/couchcryptid/surf-report-service/internal/app"
	"github.com/couchcryptid/surf-report-service/internal/config"
	"github.com/couchcryptid/surf-report-service/internal/domain"
	"github.com/couchcryptid/surf-report-service/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	location := flag.String("location", "", "location name from the catalog (default DEFAULT_LOCATION)")
	maxAttempts := flag.Int("max-attempts", 0, "override MAX_ATTEMPTS")
	delay := flag.Duration("delay", -1, "override RETRY_DELAY")
	policy := flag.String("policy", "", "override EXHAUSTION_POLICY (fail|degrade)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 2
	}
	if err := applyOverrides(cfg, *maxAttempts, *delay, *policy); err != nil {
		slog.Error("invalid flag", "error", err)
		return 2
	}

	name := *location
	if name == "" {
		name = cfg.DefaultLocation
	}
	loc, ok := cfg.Location(name)
	if !ok {
		slog.Error("unknown location", "location", name)
		return 2
	}

	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, observability.NewMetricsForTesting())
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return 1
	}
	defer a.Close()

	res, runErr := a.Pipeline.Run(ctx, loc)
	_, body := httpadapter.GenerateResult(res, runErr)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		logger.Error("write result", "error", err)
		return 1
	}
	if runErr != nil {
		return 1
	}
	return 0
}

func applyOverrides(cfg *config.Config, maxAttempts int, delay time.Duration, policy string) error {
	if maxAttempts < 0 {
		return fmt.Errorf("-max-attempts must be positive")
	}
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if delay >= 0 {
		cfg.RetryDelay = delay
	}
	if policy != "" {
		p, err := domain.ParseExhaustionPolicy(policy)
		if err != nil {
			return err
		}
		cfg.ExhaustionPolicy = p
	}
	return nil
}
