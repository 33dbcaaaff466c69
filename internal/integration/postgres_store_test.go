//go:build integration

package integration_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/surf-report-service/internal/adapter/postgres"
	"github.com/couchcryptid/surf-report-service/internal/domain"
)

func TestPostgresStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := postgres.New(ctx, startPostgres(ctx, t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	key := domain.ReportKey{Date: "2024-06-01", Location: "ocean-beach"}
	base := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

	report := func(rating int, at time.Time, runID string) domain.SurfReport {
		return domain.SurfReport{
			Date: key.Date, Location: key.Location,
			WaveHeight: "5.2 ft", WavePeriod: "11 s", SwellDirection: "W",
			WindSpeed: "8.1 mph", WindDirection: "NW", WaterTemp: "60.8 F",
			Tide: "incoming", Conditions: "Firing!", Rating: rating,
			RunID: runID, UpdatedAt: at,
		}
	}

	t.Run("readiness", func(t *testing.T) {
		require.NoError(t, store.CheckReadiness(ctx))
	})

	t.Run("sensor reading round trip", func(t *testing.T) {
		_, err := store.SensorReading(ctx, key)
		require.ErrorIs(t, err, domain.ErrNotFound)

		r := domain.SensorReading{Date: key.Date, Location: key.Location, WaveHeight: "5.2 ft", CapturedAt: base}
		require.NoError(t, store.SaveSensorReading(ctx, r))
		r.WavePeriod = "11 s"
		require.NoError(t, store.SaveSensorReading(ctx, r))

		got, err := store.SensorReading(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, r, got)
	})

	t.Run("tide events replaced", func(t *testing.T) {
		first := []domain.TideEvent{
			{Time: base.Add(-9 * time.Hour), Type: domain.TideLow, Height: 0.8},
			{Time: base.Add(-3 * time.Hour), Type: domain.TideHigh, Height: 4.9},
		}
		require.NoError(t, store.ReplaceTideEvents(ctx, key, first))
		second := first[1:]
		require.NoError(t, store.ReplaceTideEvents(ctx, key, second))

		got, err := store.TideEvents(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, second, got)
	})

	t.Run("upsert keeps one row and skips stale writes", func(t *testing.T) {
		require.NoError(t, store.UpsertReport(ctx, report(6, base, "run-1")))
		require.NoError(t, store.UpsertReport(ctx, report(6, base, "run-1")))
		require.NoError(t, store.UpsertReport(ctx, report(8, base.Add(time.Minute), "run-2")))
		require.ErrorIs(t, store.UpsertReport(ctx, report(3, base, "run-0")), domain.ErrReportSuperseded)

		n, err := store.CountReports(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := store.GetReport(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "run-2", got.RunID)
		assert.Equal(t, 8, got.Rating)
	})

	t.Run("concurrent duplicate runs leave one row", func(t *testing.T) {
		dupKey := domain.ReportKey{Date: "2024-06-02", Location: key.Location}
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r := report(5, base.Add(time.Duration(i)*time.Second), "run")
				r.Date = dupKey.Date
				err := store.UpsertReport(ctx, r)
				if err != nil {
					assert.ErrorIs(t, err, domain.ErrReportSuperseded)
				}
			}()
		}
		wg.Wait()

		n, err := store.CountReports(ctx, dupKey)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := store.GetReport(ctx, dupKey)
		require.NoError(t, err)
		assert.Equal(t, base.Add(7*time.Second), got.UpdatedAt, "latest write wins")
	})
}
