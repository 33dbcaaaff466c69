// Package postgres is the production report store backed by a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS sensor_readings (
	report_date     TEXT NOT NULL,
	location        TEXT NOT NULL,
	wave_height     TEXT NOT NULL,
	wave_period     TEXT NOT NULL,
	swell_direction TEXT NOT NULL,
	wind_speed      TEXT NOT NULL,
	wind_direction  TEXT NOT NULL,
	water_temp      TEXT NOT NULL,
	captured_at     TIMESTAMPTZ,
	PRIMARY KEY (report_date, location)
);
CREATE TABLE IF NOT EXISTS weather_snapshots (
	report_date       TEXT NOT NULL,
	location          TEXT NOT NULL,
	short_conditions  TEXT NOT NULL,
	temperature       TEXT NOT NULL,
	detailed_forecast TEXT NOT NULL,
	fetched_at        TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (report_date, location)
);
CREATE TABLE IF NOT EXISTS tide_events (
	report_date TEXT NOT NULL,
	location    TEXT NOT NULL,
	event_time  TIMESTAMPTZ NOT NULL,
	event_type  TEXT NOT NULL CHECK (event_type IN ('high', 'low')),
	height      DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (report_date, location, event_time)
);
CREATE TABLE IF NOT EXISTS surf_reports (
	report_date     TEXT NOT NULL,
	location        TEXT NOT NULL,
	wave_height     TEXT NOT NULL,
	wave_period     TEXT NOT NULL,
	swell_direction TEXT NOT NULL,
	wind_speed      TEXT NOT NULL,
	wind_direction  TEXT NOT NULL,
	water_temp      TEXT NOT NULL,
	tide            TEXT NOT NULL,
	conditions      TEXT NOT NULL,
	rating          SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 10),
	degraded        BOOLEAN NOT NULL DEFAULT FALSE,
	run_id          TEXT NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (report_date, location)
);
`

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) SaveSensorReading(ctx context.Context, r domain.SensorReading) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO sensor_readings (report_date, location, wave_height, wave_period, swell_direction, wind_speed, wind_direction, water_temp, captured_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (report_date, location) DO UPDATE SET
	wave_height = EXCLUDED.wave_height,
	wave_period = EXCLUDED.wave_period,
	swell_direction = EXCLUDED.swell_direction,
	wind_speed = EXCLUDED.wind_speed,
	wind_direction = EXCLUDED.wind_direction,
	water_temp = EXCLUDED.water_temp,
	captured_at = EXCLUDED.captured_at`,
		r.Date, r.Location, r.WaveHeight, r.WavePeriod, r.SwellDirection, r.WindSpeed, r.WindDirection, r.WaterTemp, nullTime(r.CapturedAt))
	if err != nil {
		return fmt.Errorf("save sensor reading: %w", err)
	}
	return nil
}

func (s *Store) SensorReading(ctx context.Context, key domain.ReportKey) (domain.SensorReading, error) {
	r := domain.SensorReading{Date: key.Date, Location: key.Location}
	var captured *time.Time
	err := s.pool.QueryRow(ctx, `
SELECT wave_height, wave_period, swell_direction, wind_speed, wind_direction, water_temp, captured_at
FROM sensor_readings WHERE report_date = $1 AND location = $2`, key.Date, key.Location).
		Scan(&r.WaveHeight, &r.WavePeriod, &r.SwellDirection, &r.WindSpeed, &r.WindDirection, &r.WaterTemp, &captured)
	if err != nil {
		return domain.SensorReading{}, notFound(err, "sensor reading")
	}
	if captured != nil {
		r.CapturedAt = captured.UTC()
	}
	return r, nil
}

func (s *Store) SaveWeatherSnapshot(ctx context.Context, w domain.WeatherSnapshot) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO weather_snapshots (report_date, location, short_conditions, temperature, detailed_forecast, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (report_date, location) DO UPDATE SET
	short_conditions = EXCLUDED.short_conditions,
	temperature = EXCLUDED.temperature,
	detailed_forecast = EXCLUDED.detailed_forecast,
	fetched_at = EXCLUDED.fetched_at`,
		w.Date, w.Location, w.ShortConditions, w.Temperature, w.DetailedForecast, w.FetchedAt)
	if err != nil {
		return fmt.Errorf("save weather snapshot: %w", err)
	}
	return nil
}

func (s *Store) WeatherSnapshot(ctx context.Context, key domain.ReportKey) (domain.WeatherSnapshot, error) {
	w := domain.WeatherSnapshot{Date: key.Date, Location: key.Location}
	err := s.pool.QueryRow(ctx, `
SELECT short_conditions, temperature, detailed_forecast, fetched_at
FROM weather_snapshots WHERE report_date = $1 AND location = $2`, key.Date, key.Location).
		Scan(&w.ShortConditions, &w.Temperature, &w.DetailedForecast, &w.FetchedAt)
	if err != nil {
		return domain.WeatherSnapshot{}, notFound(err, "weather snapshot")
	}
	w.FetchedAt = w.FetchedAt.UTC()
	return w, nil
}

// ReplaceTideEvents swaps the day's schedule in one transaction, sending the
// inserts as a single batch.
func (s *Store) ReplaceTideEvents(ctx context.Context, key domain.ReportKey, events []domain.TideEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM tide_events WHERE report_date = $1 AND location = $2`, key.Date, key.Location); err != nil {
		return fmt.Errorf("clear tide events: %w", err)
	}

	if len(events) > 0 {
		batch := &pgx.Batch{}
		for _, e := range events {
			batch.Queue(`
INSERT INTO tide_events (report_date, location, event_time, event_type, height) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (report_date, location, event_time) DO UPDATE SET event_type = EXCLUDED.event_type, height = EXCLUDED.height`,
				key.Date, key.Location, e.Time, string(e.Type), e.Height)
		}
		br := tx.SendBatch(ctx, batch)
		for range events {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert tide event: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) TideEvents(ctx context.Context, key domain.ReportKey) ([]domain.TideEvent, error) {
	rows, err := s.pool.Query(ctx, `
SELECT event_time, event_type, height FROM tide_events
WHERE report_date = $1 AND location = $2 ORDER BY event_time`, key.Date, key.Location)
	if err != nil {
		return nil, fmt.Errorf("query tide events: %w", err)
	}
	defer rows.Close()

	var events []domain.TideEvent
	for rows.Next() {
		var e domain.TideEvent
		var typ string
		if err := rows.Scan(&e.Time, &typ, &e.Height); err != nil {
			return nil, fmt.Errorf("scan tide event: %w", err)
		}
		e.Time = e.Time.UTC()
		e.Type = domain.TideType(typ)
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpsertReport writes the report unless a row with a later updated_at
// already exists, in which case it returns domain.ErrReportSuperseded.
// Concurrent writers for the same key are serialized by a transaction-scoped
// advisory lock.
func (s *Store) UpsertReport(ctx context.Context, r domain.SurfReport) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, r.Key().String()); err != nil {
		return fmt.Errorf("lock report key: %w", err)
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO surf_reports (report_date, location, wave_height, wave_period, swell_direction, wind_speed, wind_direction, water_temp, tide, conditions, rating, degraded, run_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (report_date, location) DO UPDATE SET
	wave_height = EXCLUDED.wave_height,
	wave_period = EXCLUDED.wave_period,
	swell_direction = EXCLUDED.swell_direction,
	wind_speed = EXCLUDED.wind_speed,
	wind_direction = EXCLUDED.wind_direction,
	water_temp = EXCLUDED.water_temp,
	tide = EXCLUDED.tide,
	conditions = EXCLUDED.conditions,
	rating = EXCLUDED.rating,
	degraded = EXCLUDED.degraded,
	run_id = EXCLUDED.run_id,
	updated_at = EXCLUDED.updated_at
WHERE surf_reports.updated_at <= EXCLUDED.updated_at`,
		r.Date, r.Location, r.WaveHeight, r.WavePeriod, r.SwellDirection, r.WindSpeed, r.WindDirection, r.WaterTemp,
		r.Tide, r.Conditions, r.Rating, r.Degraded, r.RunID, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReportSuperseded
	}
	return tx.Commit(ctx)
}

// GetReport reads the stored report for key.
func (s *Store) GetReport(ctx context.Context, key domain.ReportKey) (domain.SurfReport, error) {
	r := domain.SurfReport{Date: key.Date, Location: key.Location}
	err := s.pool.QueryRow(ctx, `
SELECT wave_height, wave_period, swell_direction, wind_speed, wind_direction, water_temp, tide, conditions, rating, degraded, run_id, updated_at
FROM surf_reports WHERE report_date = $1 AND location = $2`, key.Date, key.Location).
		Scan(&r.WaveHeight, &r.WavePeriod, &r.SwellDirection, &r.WindSpeed, &r.WindDirection, &r.WaterTemp,
			&r.Tide, &r.Conditions, &r.Rating, &r.Degraded, &r.RunID, &r.UpdatedAt)
	if err != nil {
		return domain.SurfReport{}, notFound(err, "surf report")
	}
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

// CountReports returns the number of report rows for key.
func (s *Store) CountReports(ctx context.Context, key domain.ReportKey) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM surf_reports WHERE report_date = $1 AND location = $2`, key.Date, key.Location).Scan(&n)
	return n, err
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("read %s: %w", what, err)
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
