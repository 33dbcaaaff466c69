// Package ingest holds the upstream refresh jobs. Each job fetches one feed
// for a location and rewrites that feed's intermediate rows for the report
// key. The pipeline treats them as pipeline.Refresher.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// SensorFetcher returns the latest buoy observation for a location.
type SensorFetcher interface {
	FetchReading(ctx context.Context, loc domain.Location) (domain.SensorReading, error)
}

// WeatherFetcher returns the current forecast for a location.
type WeatherFetcher interface {
	FetchForecast(ctx context.Context, loc domain.Location) (domain.WeatherSnapshot, error)
}

// TideFetcher returns the tide predictions for a location on a date.
type TideFetcher interface {
	FetchTides(ctx context.Context, loc domain.Location, date string) ([]domain.TideEvent, error)
}

// SensorSaver persists a sensor reading, replacing any row for its key.
type SensorSaver interface {
	SaveSensorReading(ctx context.Context, r domain.SensorReading) error
}

// WeatherSaver persists a weather snapshot, replacing any row for its key.
type WeatherSaver interface {
	SaveWeatherSnapshot(ctx context.Context, w domain.WeatherSnapshot) error
}

// TideSaver replaces the tide schedule for a key.
type TideSaver interface {
	ReplaceTideEvents(ctx context.Context, key domain.ReportKey, events []domain.TideEvent) error
}

// SensorJob refreshes the sensor_readings row.
type SensorJob struct {
	fetcher SensorFetcher
	store   SensorSaver
	logger  *slog.Logger
}

func NewSensorJob(fetcher SensorFetcher, store SensorSaver, logger *slog.Logger) *SensorJob {
	return &SensorJob{fetcher: fetcher, store: store, logger: logger}
}

// Refresh fetches the buoy observation and stores it under key. A reading
// with unmeasured waves is still stored; validity is the pipeline's call.
func (j *SensorJob) Refresh(ctx context.Context, loc domain.Location, key domain.ReportKey) error {
	reading, err := j.fetcher.FetchReading(ctx, loc)
	if err != nil {
		return fmt.Errorf("fetch sensor reading: %w", err)
	}
	reading.Date = key.Date
	reading.Location = key.Location
	if err := j.store.SaveSensorReading(ctx, reading); err != nil {
		return fmt.Errorf("save sensor reading: %w", err)
	}
	j.logger.Debug("sensor reading refreshed", "key", key.String(), "wave_height", reading.WaveHeight)
	return nil
}

// WeatherJob refreshes the weather_snapshots row.
type WeatherJob struct {
	fetcher WeatherFetcher
	store   WeatherSaver
	logger  *slog.Logger
}

func NewWeatherJob(fetcher WeatherFetcher, store WeatherSaver, logger *slog.Logger) *WeatherJob {
	return &WeatherJob{fetcher: fetcher, store: store, logger: logger}
}

func (j *WeatherJob) Refresh(ctx context.Context, loc domain.Location, key domain.ReportKey) error {
	snap, err := j.fetcher.FetchForecast(ctx, loc)
	if err != nil {
		return fmt.Errorf("fetch forecast: %w", err)
	}
	snap.Date = key.Date
	snap.Location = key.Location
	if err := j.store.SaveWeatherSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save weather snapshot: %w", err)
	}
	j.logger.Debug("weather snapshot refreshed", "key", key.String(), "conditions", snap.ShortConditions)
	return nil
}

// TideJob refreshes the day's tide_events rows.
type TideJob struct {
	fetcher TideFetcher
	store   TideSaver
	logger  *slog.Logger
}

func NewTideJob(fetcher TideFetcher, store TideSaver, logger *slog.Logger) *TideJob {
	return &TideJob{fetcher: fetcher, store: store, logger: logger}
}

// Refresh replaces the stored schedule. An empty prediction set leaves the
// existing rows untouched.
func (j *TideJob) Refresh(ctx context.Context, loc domain.Location, key domain.ReportKey) error {
	events, err := j.fetcher.FetchTides(ctx, loc, key.Date)
	if err != nil {
		return fmt.Errorf("fetch tides: %w", err)
	}
	if len(events) == 0 {
		j.logger.Info("no tide predictions returned", "key", key.String(), "station", loc.TideStation)
		return nil
	}
	if err := j.store.ReplaceTideEvents(ctx, key, events); err != nil {
		return fmt.Errorf("save tide events: %w", err)
	}
	j.logger.Debug("tide events refreshed", "key", key.String(), "events", len(events))
	return nil
}
