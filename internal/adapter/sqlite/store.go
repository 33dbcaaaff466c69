// Package sqlite is the single-file report store used for local runs and
// tests. It mirrors the Postgres schema with times stored as Unix nanoseconds.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

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
	captured_at     INTEGER NOT NULL,
	PRIMARY KEY (report_date, location)
);
CREATE TABLE IF NOT EXISTS weather_snapshots (
	report_date       TEXT NOT NULL,
	location          TEXT NOT NULL,
	short_conditions  TEXT NOT NULL,
	temperature       TEXT NOT NULL,
	detailed_forecast TEXT NOT NULL,
	fetched_at        INTEGER NOT NULL,
	PRIMARY KEY (report_date, location)
);
CREATE TABLE IF NOT EXISTS tide_events (
	report_date TEXT NOT NULL,
	location    TEXT NOT NULL,
	event_time  INTEGER NOT NULL,
	event_type  TEXT NOT NULL,
	height      REAL NOT NULL,
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
	rating          INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 10),
	degraded        INTEGER NOT NULL DEFAULT 0,
	run_id          TEXT NOT NULL,
	updated_at      INTEGER NOT NULL,
	PRIMARY KEY (report_date, location)
);
`

// Store implements the report and intermediate-row storage on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
// path may be a plain file path or a "file:" DSN.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if !strings.Contains(dsn, "_pragma=busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) SaveSensorReading(ctx context.Context, r domain.SensorReading) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sensor_readings (report_date, location, wave_height, wave_period, swell_direction, wind_speed, wind_direction, water_temp, captured_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (report_date, location) DO UPDATE SET
	wave_height = excluded.wave_height,
	wave_period = excluded.wave_period,
	swell_direction = excluded.swell_direction,
	wind_speed = excluded.wind_speed,
	wind_direction = excluded.wind_direction,
	water_temp = excluded.water_temp,
	captured_at = excluded.captured_at`,
		r.Date, r.Location, r.WaveHeight, r.WavePeriod, r.SwellDirection, r.WindSpeed, r.WindDirection, r.WaterTemp, toNanos(r.CapturedAt))
	if err != nil {
		return fmt.Errorf("save sensor reading: %w", err)
	}
	return nil
}

func (s *Store) SensorReading(ctx context.Context, key domain.ReportKey) (domain.SensorReading, error) {
	r := domain.SensorReading{Date: key.Date, Location: key.Location}
	var captured int64
	err := s.db.QueryRowContext(ctx, `
SELECT wave_height, wave_period, swell_direction, wind_speed, wind_direction, water_temp, captured_at
FROM sensor_readings WHERE report_date = ? AND location = ?`, key.Date, key.Location).
		Scan(&r.WaveHeight, &r.WavePeriod, &r.SwellDirection, &r.WindSpeed, &r.WindDirection, &r.WaterTemp, &captured)
	if err != nil {
		return domain.SensorReading{}, notFound(err, "sensor reading")
	}
	r.CapturedAt = fromNanos(captured)
	return r, nil
}

func (s *Store) SaveWeatherSnapshot(ctx context.Context, w domain.WeatherSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO weather_snapshots (report_date, location, short_conditions, temperature, detailed_forecast, fetched_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (report_date, location) DO UPDATE SET
	short_conditions = excluded.short_conditions,
	temperature = excluded.temperature,
	detailed_forecast = excluded.detailed_forecast,
	fetched_at = excluded.fetched_at`,
		w.Date, w.Location, w.ShortConditions, w.Temperature, w.DetailedForecast, toNanos(w.FetchedAt))
	if err != nil {
		return fmt.Errorf("save weather snapshot: %w", err)
	}
	return nil
}

func (s *Store) WeatherSnapshot(ctx context.Context, key domain.ReportKey) (domain.WeatherSnapshot, error) {
	w := domain.WeatherSnapshot{Date: key.Date, Location: key.Location}
	var fetched int64
	err := s.db.QueryRowContext(ctx, `
SELECT short_conditions, temperature, detailed_forecast, fetched_at
FROM weather_snapshots WHERE report_date = ? AND location = ?`, key.Date, key.Location).
		Scan(&w.ShortConditions, &w.Temperature, &w.DetailedForecast, &fetched)
	if err != nil {
		return domain.WeatherSnapshot{}, notFound(err, "weather snapshot")
	}
	w.FetchedAt = fromNanos(fetched)
	return w, nil
}

// ReplaceTideEvents swaps the day's schedule atomically.
func (s *Store) ReplaceTideEvents(ctx context.Context, key domain.ReportKey, events []domain.TideEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM tide_events WHERE report_date = ? AND location = ?`, key.Date, key.Location); err != nil {
		return fmt.Errorf("clear tide events: %w", err)
	}
	for _, e := range events {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO tide_events (report_date, location, event_time, event_type, height) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (report_date, location, event_time) DO UPDATE SET event_type = excluded.event_type, height = excluded.height`,
			key.Date, key.Location, toNanos(e.Time), string(e.Type), e.Height); err != nil {
			return fmt.Errorf("insert tide event: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) TideEvents(ctx context.Context, key domain.ReportKey) ([]domain.TideEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT event_time, event_type, height FROM tide_events
WHERE report_date = ? AND location = ? ORDER BY event_time`, key.Date, key.Location)
	if err != nil {
		return nil, fmt.Errorf("query tide events: %w", err)
	}
	defer rows.Close()

	var events []domain.TideEvent
	for rows.Next() {
		var at int64
		var typ string
		var e domain.TideEvent
		if err := rows.Scan(&at, &typ, &e.Height); err != nil {
			return nil, fmt.Errorf("scan tide event: %w", err)
		}
		e.Time = fromNanos(at)
		e.Type = domain.TideType(typ)
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpsertReport writes the report unless a row with a later updated_at
// already exists, in which case it returns domain.ErrReportSuperseded.
func (s *Store) UpsertReport(ctx context.Context, r domain.SurfReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
INSERT INTO surf_reports (report_date, location, wave_height, wave_period, swell_direction, wind_speed, wind_direction, water_temp, tide, conditions, rating, degraded, run_id, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (report_date, location) DO UPDATE SET
	wave_height = excluded.wave_height,
	wave_period = excluded.wave_period,
	swell_direction = excluded.swell_direction,
	wind_speed = excluded.wind_speed,
	wind_direction = excluded.wind_direction,
	water_temp = excluded.water_temp,
	tide = excluded.tide,
	conditions = excluded.conditions,
	rating = excluded.rating,
	degraded = excluded.degraded,
	run_id = excluded.run_id,
	updated_at = excluded.updated_at
WHERE surf_reports.updated_at <= excluded.updated_at`,
		r.Date, r.Location, r.WaveHeight, r.WavePeriod, r.SwellDirection, r.WindSpeed, r.WindDirection, r.WaterTemp,
		r.Tide, r.Conditions, r.Rating, r.Degraded, r.RunID, toNanos(r.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	if n == 0 {
		return domain.ErrReportSuperseded
	}
	return tx.Commit()
}

// GetReport reads the stored report for key.
func (s *Store) GetReport(ctx context.Context, key domain.ReportKey) (domain.SurfReport, error) {
	r := domain.SurfReport{Date: key.Date, Location: key.Location}
	var updated int64
	err := s.db.QueryRowContext(ctx, `
SELECT wave_height, wave_period, swell_direction, wind_speed, wind_direction, water_temp, tide, conditions, rating, degraded, run_id, updated_at
FROM surf_reports WHERE report_date = ? AND location = ?`, key.Date, key.Location).
		Scan(&r.WaveHeight, &r.WavePeriod, &r.SwellDirection, &r.WindSpeed, &r.WindDirection, &r.WaterTemp,
			&r.Tide, &r.Conditions, &r.Rating, &r.Degraded, &r.RunID, &updated)
	if err != nil {
		return domain.SurfReport{}, notFound(err, "surf report")
	}
	r.UpdatedAt = fromNanos(updated)
	return r, nil
}

// CountReports returns the number of report rows for key. Used by tests and
// diagnostics to check the one-row-per-key invariant.
func (s *Store) CountReports(ctx context.Context, key domain.ReportKey) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM surf_reports WHERE report_date = ? AND location = ?`, key.Date, key.Location).Scan(&n)
	return n, err
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("read %s: %w", what, err)
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
