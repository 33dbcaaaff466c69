package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// buildAndStore refreshes the best-effort feeds, composes the report from
// whatever is stored, and writes it.
func (p *Pipeline) buildAndStore(ctx context.Context, loc domain.Location, reading domain.SensorReading, res *Result, logger *slog.Logger) error {
	if err := p.refresh(ctx, "weather", p.deps.Weather, loc, res.Key); err != nil {
		logger.Warn("weather refresh failed, continuing with stored data", "error", err)
	}
	if err := p.refresh(ctx, "tide", p.deps.Tides, loc, res.Key); err != nil {
		logger.Warn("tide refresh failed, continuing with stored data", "error", err)
	}

	weather := p.readWeather(ctx, res.Key, logger)
	tides := p.readTides(ctx, res.Key, loc.TimeLocation(), logger)
	res.HasWeatherData = weather != nil
	res.HasTideData = len(tides) > 0

	now := p.deps.Clock.Now()
	rating := p.opts.Rating(reading)

	report := domain.NewSurfReport(res.Key, reading)
	report.Rating = rating
	report.Conditions = p.deps.Composer.Compose(reading, weather, tides, rating, captureLabel(reading, loc.TimeLocation()))
	report.Tide = domain.TideSummary(tides, now)
	report.Degraded = res.Degraded
	report.RunID = res.RunID
	report.UpdatedAt = now

	res.Rating = rating
	res.Report = &report

	err := p.deps.Reports.UpsertReport(ctx, report)
	if errors.Is(err, domain.ErrReportSuperseded) {
		res.Superseded = true
		logger.Info("newer report already stored, write skipped", "rating", rating)
		return nil
	}
	if err != nil {
		logger.Error("persist report failed", "error", err)
		return &domain.PersistenceError{Op: "upsert", Err: err}
	}

	p.deps.Metrics.LastRating.WithLabelValues(loc.Name).Set(float64(rating))
	logger.Info("report persisted",
		"rating", rating,
		"attempts", res.Attempts,
		"degraded", res.Degraded,
		"has_weather", res.HasWeatherData,
		"has_tides", res.HasTideData,
	)

	p.publish(ctx, report, logger)
	return nil
}

func (p *Pipeline) readWeather(ctx context.Context, key domain.ReportKey, logger *slog.Logger) *domain.WeatherSnapshot {
	w, err := p.deps.Reader.WeatherSnapshot(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("read weather snapshot failed", "error", err)
		}
		return nil
	}
	return &w
}

func (p *Pipeline) readTides(ctx context.Context, key domain.ReportKey, tz *time.Location, logger *slog.Logger) []domain.TideEvent {
	tides, err := p.deps.Reader.TideEvents(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("read tide events failed", "error", err)
		}
		return nil
	}
	for i := range tides {
		tides[i].Time = tides[i].Time.In(tz)
	}
	return tides
}

// publish announces the report. Failures are logged and counted only.
func (p *Pipeline) publish(ctx context.Context, report domain.SurfReport, logger *slog.Logger) {
	if p.deps.Publisher == nil {
		return
	}
	if err := p.deps.Publisher.PublishReport(ctx, report); err != nil {
		p.deps.Metrics.PublishErrors.Inc()
		logger.Warn("publish report event failed", "error", err)
		return
	}
	p.deps.Metrics.ReportsPublished.Inc()
}

// captureLabel renders the reading's capture time in the spot's timezone,
// e.g. "6:40 AM". Empty when unknown.
func captureLabel(r domain.SensorReading, tz *time.Location) string {
	if r.CapturedAt.IsZero() {
		return ""
	}
	return r.CapturedAt.In(tz).Format("3:04 PM")
}
