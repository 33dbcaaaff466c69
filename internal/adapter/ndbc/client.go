// Package ndbc reads the latest standard meteorological observation for a
// buoy from the NOAA National Data Buoy Center realtime2 text feed.
package ndbc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// DefaultBaseURL is the NDBC realtime2 directory.
const DefaultBaseURL = "https://www.ndbc.noaa.gov/data/realtime2"

// Wave rows are reported less often than wind rows. A wave observation older
// than this relative to the newest row is treated as missing.
const maxWaveAge = time.Hour

const notAvailable = "N/A"

// Client fetches buoy observations.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an NDBC client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// FetchReading returns the newest observation for the location's buoy.
// Unmeasured quantities are returned as "N/A".
func (c *Client) FetchReading(ctx context.Context, loc domain.Location) (domain.SensorReading, error) {
	if loc.BuoyStation == "" {
		return domain.SensorReading{}, fmt.Errorf("location %q has no buoy station", loc.Name)
	}
	u := fmt.Sprintf("%s/%s.txt", c.baseURL, strings.ToUpper(loc.BuoyStation))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.SensorReading{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SensorReading{}, fmt.Errorf("ndbc request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.SensorReading{}, fmt.Errorf("ndbc error: status %d: %s", resp.StatusCode, body)
	}

	rows, err := parseRealtime(resp.Body)
	if err != nil {
		return domain.SensorReading{}, fmt.Errorf("parse station %s: %w", loc.BuoyStation, err)
	}

	reading := toReading(rows)
	c.logger.Debug("ndbc observation fetched",
		"station", loc.BuoyStation,
		"captured_at", reading.CapturedAt,
		"wave_height", reading.WaveHeight,
	)
	return reading, nil
}

// observation is one data row keyed by column name (WVHT, DPD, ...).
type observation struct {
	at     time.Time
	fields map[string]string
}

// parseRealtime reads the whitespace-separated realtime2 format: a "#YY MM DD
// hh mm ..." header, a "#yr mo dy ..." units line, then rows newest first.
func parseRealtime(r io.Reader) ([]observation, error) {
	sc := bufio.NewScanner(r)
	var columns []string
	var rows []observation

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if columns == nil {
				columns = strings.Fields(strings.TrimPrefix(line, "#"))
			}
			continue
		}
		if columns == nil {
			return nil, errors.New("missing header line")
		}
		values := strings.Fields(line)
		if len(values) < len(columns) {
			continue
		}
		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			fields[col] = values[i]
		}
		at, err := rowTime(fields)
		if err != nil {
			continue
		}
		rows = append(rows, observation{at: at, fields: fields})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("no observations")
	}
	return rows, nil
}

func rowTime(f map[string]string) (time.Time, error) {
	parts := make([]int, 0, 5)
	for _, k := range []string{"YY", "MM", "DD", "hh", "mm"} {
		n, err := strconv.Atoi(f[k])
		if err != nil {
			return time.Time{}, fmt.Errorf("bad %s %q", k, f[k])
		}
		parts = append(parts, n)
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC), nil
}

// toReading converts the newest row to display units. Wave fields come from
// the newest row that reports WVHT, if it is recent enough.
func toReading(rows []observation) domain.SensorReading {
	latest := rows[0]
	r := domain.SensorReading{
		WaveHeight:     notAvailable,
		WavePeriod:     notAvailable,
		SwellDirection: notAvailable,
		WindSpeed:      convert(latest.fields["WSPD"], metersPerSecondToMPH, " mph"),
		WindDirection:  compassOrNA(latest.fields["WDIR"]),
		WaterTemp:      convert(latest.fields["WTMP"], celsiusToFahrenheit, " F"),
		CapturedAt:     latest.at,
	}

	for _, row := range rows {
		if latest.at.Sub(row.at) > maxWaveAge {
			break
		}
		if isMissing(row.fields["WVHT"]) {
			continue
		}
		r.WaveHeight = convert(row.fields["WVHT"], metersToFeet, " ft")
		r.WavePeriod = convert(row.fields["DPD"], identity, " s")
		r.SwellDirection = compassOrNA(row.fields["MWD"])
		break
	}
	return r
}

func isMissing(v string) bool {
	return v == "" || v == "MM"
}

func convert(v string, fn func(float64) float64, unit string) string {
	if isMissing(v) {
		return notAvailable
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return notAvailable
	}
	return strconv.FormatFloat(roundTenth(fn(f)), 'f', -1, 64) + unit
}

func compassOrNA(v string) string {
	if isMissing(v) {
		return notAvailable
	}
	deg, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return notAvailable
	}
	return Compass(deg)
}

var compassPoints = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Compass converts degrees true to a 16-point compass direction.
func Compass(deg float64) string {
	d := math.Mod(math.Mod(deg, 360)+360, 360)
	return compassPoints[int(math.Mod(d+11.25, 360)/22.5)%len(compassPoints)]
}

func metersToFeet(m float64) float64 { return m * 3.28084 }

func metersPerSecondToMPH(ms float64) float64 { return ms * 2.23694 }

func celsiusToFahrenheit(c float64) float64 { return c*9/5 + 32 }

func identity(v float64) float64 { return v }

func roundTenth(v float64) float64 { return math.Round(v*10) / 10 }
