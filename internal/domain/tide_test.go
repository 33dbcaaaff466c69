package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 1, hour, minute, 0, 0, time.UTC)
}

func sampleTides() []TideEvent {
	// Deliberately out of order.
	return []TideEvent{
		{Time: at(11, 58), Type: TideHigh, Height: 4.9},
		{Time: at(5, 42), Type: TideLow, Height: 0.8},
		{Time: at(18, 10), Type: TideLow, Height: -0.3},
	}
}

func TestCurrentTidePhase(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want TidePhase
	}{
		{"between low and high", at(8, 0), TideIncoming},
		{"exactly at low", at(5, 42), TideIncoming},
		{"between high and low", at(13, 0), TideOutgoing},
		{"exactly at high", at(11, 58), TideOutgoing},
		{"before first low", at(4, 0), TideOutgoing},
		{"after last low", at(20, 0), TideIncoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentTidePhase(sampleTides(), tt.now))
		})
	}
}

func TestCurrentTidePhase_BeforeFirstHigh(t *testing.T) {
	events := []TideEvent{
		{Time: at(7, 0), Type: TideHigh, Height: 5.1},
		{Time: at(13, 0), Type: TideLow, Height: 0.2},
	}
	assert.Equal(t, TideIncoming, CurrentTidePhase(events, at(3, 0)))
	assert.Equal(t, TideOutgoing, CurrentTidePhase(events, at(22, 0)))
}

func TestCurrentTidePhase_Empty(t *testing.T) {
	assert.Equal(t, TidePhase(""), CurrentTidePhase(nil, at(8, 0)))
}

func TestTideSchedule(t *testing.T) {
	got := TideSchedule(sampleTides())
	assert.Equal(t, "Low 5:42 AM (0.8 ft), High 11:58 AM (4.9 ft), Low 6:10 PM (-0.3 ft)", got)
}

func TestTideSchedule_DoesNotReorderInput(t *testing.T) {
	events := sampleTides()
	_ = TideSchedule(events)
	assert.Equal(t, TideHigh, events[0].Type)
}

func TestTideSummary(t *testing.T) {
	assert.Empty(t, TideSummary(nil, at(8, 0)))
	assert.Equal(t,
		"incoming; Low 5:42 AM (0.8 ft), High 11:58 AM (4.9 ft), Low 6:10 PM (-0.3 ft)",
		TideSummary(sampleTides(), at(8, 0)))
}
