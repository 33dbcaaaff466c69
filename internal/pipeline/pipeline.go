package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/surf-report-service/internal/domain"
	"github.com/couchcryptid/surf-report-service/internal/observability"
)

// Refresher asks an upstream feed to rewrite its intermediate rows for a key.
type Refresher interface {
	Refresh(ctx context.Context, loc domain.Location, key domain.ReportKey) error
}

// ConditionsReader reads the intermediate rows written by the refreshers.
// Missing rows are reported as domain.ErrNotFound.
type ConditionsReader interface {
	SensorReading(ctx context.Context, key domain.ReportKey) (domain.SensorReading, error)
	WeatherSnapshot(ctx context.Context, key domain.ReportKey) (domain.WeatherSnapshot, error)
	TideEvents(ctx context.Context, key domain.ReportKey) ([]domain.TideEvent, error)
}

// ReportWriter persists the final report. A write older than the stored row
// returns domain.ErrReportSuperseded.
type ReportWriter interface {
	UpsertReport(ctx context.Context, report domain.SurfReport) error
}

// ReportPublisher announces a persisted report. Optional.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report domain.SurfReport) error
}

// Locker serializes runs per report key. Acquire returns
// domain.ErrRunInProgress when another run holds the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Deps are the collaborators a Pipeline drives. Publisher and Locker may be nil.
type Deps struct {
	Sensor    Refresher
	Weather   Refresher
	Tides     Refresher
	Reader    ConditionsReader
	Reports   ReportWriter
	Publisher ReportPublisher
	Locker    Locker
	Composer  *domain.Composer
	Clock     clockwork.Clock
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// Options are the per-pipeline run settings.
type Options struct {
	MaxAttempts      int
	Delay            time.Duration
	UpstreamTimeout  time.Duration
	ExhaustionPolicy domain.ExhaustionPolicy
	Rating           domain.RatingStrategy
	// LockTTL bounds how long a crashed run can hold its key. Zero derives
	// it from MaxAttempts * Delay.
	LockTTL time.Duration
}

// DefaultOptions returns the production settings: 60 attempts one minute
// apart, 15s per upstream call, fail on exhaustion, directional rating.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:      60,
		Delay:            time.Minute,
		UpstreamTimeout:  15 * time.Second,
		ExhaustionPolicy: domain.ExhaustFail,
		Rating:           domain.DirectionalRating,
	}
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Key      domain.ReportKey
	Attempts int
	Policy   domain.ExhaustionPolicy

	Rating     int
	Degraded   bool
	Superseded bool
	Report     *domain.SurfReport

	HasValidWaveData bool
	HasWeatherData   bool
	HasTideData      bool
}

// Pipeline is the bounded-retry report orchestrator.
type Pipeline struct {
	deps Deps
	opts Options
}

// New creates a Pipeline. Zero-valued options fall back to DefaultOptions.
func New(deps Deps, opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = def.UpstreamTimeout
	}
	if opts.ExhaustionPolicy == "" {
		opts.ExhaustionPolicy = def.ExhaustionPolicy
	}
	if opts.Rating == nil {
		opts.Rating = def.Rating
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = time.Duration(opts.MaxAttempts)*(opts.Delay+opts.UpstreamTimeout) + 5*time.Minute
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Composer == nil {
		deps.Composer = domain.NewComposer(deps.Clock, nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetricsForTesting()
	}
	return &Pipeline{deps: deps, opts: opts}
}

// Run generates the report for today's date at loc. It returns
// domain.ErrDataUnavailable when the attempt budget is exhausted under the
// fail policy, domain.ErrRunInProgress when another run holds the key, a
// *domain.PersistenceError when the write fails, or the context error on
// cancellation. A superseded write is not an error.
func (p *Pipeline) Run(ctx context.Context, loc domain.Location) (Result, error) {
	start := p.deps.Clock.Now()
	res := Result{
		RunID:  uuid.NewString(),
		Key:    loc.KeyAt(start),
		Policy: p.opts.ExhaustionPolicy,
	}
	logger := p.deps.Logger.With("run_id", res.RunID, "date", res.Key.Date, "location", res.Key.Location)

	p.deps.Metrics.PipelineRunning.Inc()
	defer p.deps.Metrics.PipelineRunning.Dec()

	outcome := observability.OutcomeFailed
	defer func() {
		p.deps.Metrics.RunsTotal.WithLabelValues(outcome).Inc()
		p.deps.Metrics.RunDuration.Observe(p.deps.Clock.Since(start).Seconds())
		if res.Attempts > 0 {
			p.deps.Metrics.RunAttempts.Observe(float64(res.Attempts))
		}
	}()

	if p.deps.Locker != nil {
		release, err := p.deps.Locker.Acquire(ctx, res.Key.String(), p.opts.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrRunInProgress) {
				outcome = observability.OutcomeInProgress
				logger.Info("report run already in progress")
			}
			return res, err
		}
		defer func() {
			// Release even if ctx was cancelled.
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("release run lock failed", "error", err)
			}
		}()
	}

	logger.Info("report run started",
		"max_attempts", p.opts.MaxAttempts,
		"delay", p.opts.Delay,
		"policy", string(p.opts.ExhaustionPolicy),
	)

	reading, valid, err := p.awaitValidReading(ctx, loc, &res, logger)
	if err != nil {
		return res, err
	}
	res.HasValidWaveData = valid

	if !valid {
		logger.Warn("valid wave data unavailable, attempts exhausted", "attempts", res.Attempts)
		if p.opts.ExhaustionPolicy != domain.ExhaustDegrade {
			outcome = observability.OutcomeExhausted
			return res, fmt.Errorf("%w after %d attempts", domain.ErrDataUnavailable, res.Attempts)
		}
		res.Degraded = true
	}

	if err := p.buildAndStore(ctx, loc, reading, &res, logger); err != nil {
		return res, err
	}

	switch {
	case res.Superseded:
		outcome = observability.OutcomeSuperseded
	case res.Degraded:
		outcome = observability.OutcomeDegraded
	default:
		outcome = observability.OutcomeSucceeded
	}
	return res, nil
}

// awaitValidReading runs the attempt loop. It returns the last reading seen
// and whether it is valid; err is non-nil only on cancellation.
func (p *Pipeline) awaitValidReading(ctx context.Context, loc domain.Location, res *Result, logger *slog.Logger) (domain.SensorReading, bool, error) {
	last := domain.SensorReading{Date: res.Key.Date, Location: res.Key.Location, WaveHeight: "N/A"}

	for res.Attempts < p.opts.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return last, false, err
		}
		res.Attempts++

		if err := p.refresh(ctx, "sensor", p.deps.Sensor, loc, res.Key); err != nil {
			logger.Info("sensor refresh failed", "attempt", res.Attempts, "error", err)
		}

		reading, err := p.deps.Reader.SensorReading(ctx, res.Key)
		switch {
		case err == nil:
			last = reading
			if domain.IsValid(reading) {
				logger.Info("valid wave data received", "attempt", res.Attempts, "wave_height", reading.WaveHeight)
				return reading, true, nil
			}
			logger.Info("wave data not yet valid", "attempt", res.Attempts, "wave_height", reading.WaveHeight)
		case errors.Is(err, domain.ErrNotFound):
			logger.Info("no sensor reading stored yet", "attempt", res.Attempts)
		default:
			if ctx.Err() != nil {
				return last, false, ctx.Err()
			}
			logger.Info("read sensor reading failed", "attempt", res.Attempts, "error", err)
		}

		if res.Attempts < p.opts.MaxAttempts {
			if err := sleepWithContext(ctx, p.deps.Clock, p.opts.Delay); err != nil {
				return last, false, err
			}
		}
	}
	return last, false, nil
}

// refresh calls one upstream refresher under the per-call timeout.
func (p *Pipeline) refresh(ctx context.Context, source string, r Refresher, loc domain.Location, key domain.ReportKey) error {
	if r == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, p.opts.UpstreamTimeout)
	defer cancel()

	start := p.deps.Clock.Now()
	err := r.Refresh(callCtx, loc, key)
	p.deps.Metrics.UpstreamDuration.WithLabelValues(source).Observe(p.deps.Clock.Since(start).Seconds())
	if err != nil {
		p.deps.Metrics.UpstreamErrors.WithLabelValues(source).Inc()
		return &domain.UpstreamFetchError{Source: source, Err: err}
	}
	return nil
}

// sleepWithContext waits d on clock. It returns ctx.Err() if ctx ends first.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(d):
		return nil
	}
}
