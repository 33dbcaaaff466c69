// Package app wires configuration into a ready-to-run report pipeline. Both
// the HTTP service and the one-shot CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/surf-report-service/internal/adapter/coops"
	kafkaadapter "github.com/couchcryptid/surf-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/surf-report-service/internal/adapter/ndbc"
	"github.com/couchcryptid/surf-report-service/internal/adapter/nws"
	"github.com/couchcryptid/surf-report-service/internal/adapter/postgres"
	"github.com/couchcryptid/surf-report-service/internal/adapter/redislock"
	"github.com/couchcryptid/surf-report-service/internal/adapter/sqlite"
	"github.com/couchcryptid/surf-report-service/internal/config"
	"github.com/couchcryptid/surf-report-service/internal/domain"
	"github.com/couchcryptid/surf-report-service/internal/ingest"
	"github.com/couchcryptid/surf-report-service/internal/observability"
	"github.com/couchcryptid/surf-report-service/internal/pipeline"
)

// Store is everything the service needs from a report database.
type Store interface {
	pipeline.ConditionsReader
	pipeline.ReportWriter
	ingest.SensorSaver
	ingest.WeatherSaver
	ingest.TideSaver
	GetReport(ctx context.Context, key domain.ReportKey) (domain.SurfReport, error)
	CheckReadiness(ctx context.Context) error
	Close() error
}

// OpenStore picks the backend from the DATABASE_URL scheme: postgres:// or
// postgresql:// use pgx, sqlite:// or file: use the embedded SQLite store.
func OpenStore(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.New(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return sqlite.Open(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "file:"):
		return sqlite.Open(ctx, databaseURL)
	default:
		return nil, &domain.ConfigurationError{Key: "DATABASE_URL", Reason: "unsupported scheme, want postgres://, sqlite:// or file:"}
	}
}

// App holds the wired pipeline and the resources it owns.
type App struct {
	Pipeline *pipeline.Pipeline
	Store    Store
	Clock    clockwork.Clock

	closers []func() error
	checks  []readinessCheck
}

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

// New opens the store and builds the pipeline from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	store, err := OpenStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a := &App{Store: store, Clock: clockwork.NewRealClock()}
	a.closers = append(a.closers, store.Close)
	a.checks = append(a.checks, readinessCheck{"store", store.CheckReadiness})

	rating, err := domain.RatingStrategyByName(cfg.RatingStrategy)
	if err != nil {
		a.Close()
		return nil, &domain.ConfigurationError{Key: "RATING_STRATEGY", Reason: err.Error()}
	}

	buoy := ndbc.NewClient(cfg.NDBCBaseURL, cfg.UpstreamTimeout, logger)
	weather := nws.NewClient(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.UpstreamTimeout, logger)
	weather.UseResolver(nws.NewCachedResolver(weather, cfg.NWSCacheSize, metrics))
	tides := coops.NewClient(cfg.COOPSBaseURL, cfg.UpstreamTimeout, logger)

	clock := a.Clock
	deps := pipeline.Deps{
		Sensor:   ingest.NewSensorJob(buoy, store, logger),
		Weather:  ingest.NewWeatherJob(weather, store, logger),
		Tides:    ingest.NewTideJob(tides, store, logger),
		Reader:   store,
		Reports:  store,
		Composer: domain.NewComposer(clock, domain.ClockSelector(clock)),
		Clock:    clock,
		Logger:   logger,
		Metrics:  metrics,
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		locker := redislock.New(client)
		deps.Locker = locker
		a.closers = append(a.closers, client.Close)
		a.checks = append(a.checks, readinessCheck{"redis", locker.CheckReadiness})
		logger.Info("redis run lock enabled", "addr", cfg.RedisAddr)
	} else {
		deps.Locker = pipeline.NewLocalLocker()
		logger.Info("in-process run lock enabled")
	}

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaReportTopic, logger)
		deps.Publisher = writer
		a.closers = append(a.closers, writer.Close)
		logger.Info("report events enabled", "topic", cfg.KafkaReportTopic)
	} else {
		logger.Info("report events disabled")
	}

	a.Pipeline = pipeline.New(deps, pipeline.Options{
		MaxAttempts:      cfg.MaxAttempts,
		Delay:            cfg.RetryDelay,
		UpstreamTimeout:  cfg.UpstreamTimeout,
		ExhaustionPolicy: cfg.ExhaustionPolicy,
		Rating:           rating,
	})
	return a, nil
}

// CheckReadiness reports the first failing dependency.
func (a *App) CheckReadiness(ctx context.Context) error {
	for _, c := range a.checks {
		if err := c.check(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
