package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for report keys.
const DateLayout = "2006-01-02"

// ReportKey identifies one report slot: a calendar date at a named location.
type ReportKey struct {
	Date     string `json:"date"`
	Location string `json:"location"`
}

func (k ReportKey) String() string {
	return fmt.Sprintf("%s|%s", k.Date, k.Location)
}

// Location describes a surf spot and the upstream stations that cover it.
type Location struct {
	Name        string  `json:"name"`
	BuoyStation string  `json:"buoy_station"`
	TideStation string  `json:"tide_station"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
}

// TimeLocation resolves the spot's IANA timezone, falling back to UTC.
func (l Location) TimeLocation() *time.Location {
	if l.Timezone == "" {
		return time.UTC
	}
	tz, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.UTC
	}
	return tz
}

// KeyAt returns the report key for the calendar day containing t in the
// spot's local timezone.
func (l Location) KeyAt(t time.Time) ReportKey {
	return ReportKey{
		Date:     t.In(l.TimeLocation()).Format(DateLayout),
		Location: l.Name,
	}
}

// SensorReading is the latest buoy observation for a report key. Fields hold
// the raw strings written by the sensor adapter; "N/A", empty, or
// unparseable values mean the quantity is not currently measured.
type SensorReading struct {
	Date           string    `json:"date"`
	Location       string    `json:"location"`
	WaveHeight     string    `json:"wave_height"`
	WavePeriod     string    `json:"wave_period"`
	SwellDirection string    `json:"swell_direction"`
	WindSpeed      string    `json:"wind_speed"`
	WindDirection  string    `json:"wind_direction"`
	WaterTemp      string    `json:"water_temp"`
	CapturedAt     time.Time `json:"captured_at"`
}

// WeatherSnapshot is a best-effort forecast summary for a report key.
type WeatherSnapshot struct {
	Date             string    `json:"date"`
	Location         string    `json:"location"`
	ShortConditions  string    `json:"short_conditions"`
	Temperature      string    `json:"temperature"`
	DetailedForecast string    `json:"detailed_forecast"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// TideType distinguishes high and low water events.
type TideType string

const (
	TideHigh TideType = "high"
	TideLow  TideType = "low"
)

// TideEvent is one predicted high or low tide.
type TideEvent struct {
	Time   time.Time `json:"time"`
	Type   TideType  `json:"type"`
	Height float64   `json:"height"` // feet relative to MLLW
}

// SurfReport is the single authoritative report row for a report key.
type SurfReport struct {
	Date           string    `json:"date"`
	Location       string    `json:"location"`
	WaveHeight     string    `json:"wave_height"`
	WavePeriod     string    `json:"wave_period"`
	SwellDirection string    `json:"swell_direction"`
	WindSpeed      string    `json:"wind_speed"`
	WindDirection  string    `json:"wind_direction"`
	WaterTemp      string    `json:"water_temp"`
	Tide           string    `json:"tide"`
	Conditions     string    `json:"conditions"`
	Rating         int       `json:"rating"`
	Degraded       bool      `json:"degraded"`
	RunID          string    `json:"run_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Key returns the report's unique key.
func (r SurfReport) Key() ReportKey {
	return ReportKey{Date: r.Date, Location: r.Location}
}

// NewSurfReport copies the measurement fields of the reading into a report.
func NewSurfReport(key ReportKey, reading SensorReading) SurfReport {
	return SurfReport{
		Date:           key.Date,
		Location:       key.Location,
		WaveHeight:     reading.WaveHeight,
		WavePeriod:     reading.WavePeriod,
		SwellDirection: reading.SwellDirection,
		WindSpeed:      reading.WindSpeed,
		WindDirection:  reading.WindDirection,
		WaterTemp:      reading.WaterTemp,
	}
}
