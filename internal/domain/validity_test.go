package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"feet suffix", "3.5 ft", 3.5, true},
		{"seconds suffix", "11s", 11, true},
		{"bare integer", "8", 8, true},
		{"leading dot", ".5", 0.5, true},
		{"negative", "-0.4", -0.4, true},
		{"surrounding whitespace", "  4.2 ft ", 4.2, true},
		{"not available", "N/A", 0, false},
		{"lowercase sentinel", " n/a ", 0, false},
		{"null", "null", 0, false},
		{"undefined", "undefined", 0, false},
		{"ndbc missing", "MM", 0, false},
		{"empty", "", 0, false},
		{"no numeric prefix", "ft 3", 0, false},
		{"words", "flat", 0, false},
		{"overflow", "1e400", 0, false},
		{"infinity text", "Infinity", 0, false},
		{"nan text", "NaN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMeasurement(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name       string
		waveHeight string
		want       bool
	}{
		{"height with unit", "3.5 ft", true},
		{"zero height", "0", true},
		{"not available", "N/A", false},
		{"empty", "", false},
		{"null", "null", false},
		{"undefined", "undefined", false},
		{"negative", "-1", false},
		{"garbage", "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SensorReading{WaveHeight: tt.waveHeight, WindSpeed: "5", WavePeriod: "10"}
			assert.Equal(t, tt.want, IsValid(r))
		})
	}
}

func TestIsValid_IgnoresOtherFields(t *testing.T) {
	r := SensorReading{WaveHeight: "2.1 ft", WavePeriod: "N/A", WindSpeed: "", WaterTemp: "null"}
	assert.True(t, IsValid(r))
}
