package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// TidePhase names the direction the water is moving.
type TidePhase string

const (
	TideIncoming TidePhase = "incoming"
	TideOutgoing TidePhase = "outgoing"
)

// sortedTides returns a time-ordered copy of events.
func sortedTides(events []TideEvent) []TideEvent {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b TideEvent) int {
		return a.Time.Compare(b.Time)
	})
	return out
}

// CurrentTidePhase finds the pair of events bracketing now. Between a low and
// the following high the tide is incoming; between a high and the following
// low it is outgoing. Outside the schedule the phase is extrapolated from the
// nearest event. Returns "" for an empty schedule.
func CurrentTidePhase(events []TideEvent, now time.Time) TidePhase {
	if len(events) == 0 {
		return ""
	}
	sorted := sortedTides(events)

	if now.Before(sorted[0].Time) {
		// Heading toward the first event.
		if sorted[0].Type == TideHigh {
			return TideIncoming
		}
		return TideOutgoing
	}

	for i := 0; i < len(sorted)-1; i++ {
		if !now.Before(sorted[i].Time) && now.Before(sorted[i+1].Time) {
			return phaseAfter(sorted[i])
		}
	}
	return phaseAfter(sorted[len(sorted)-1])
}

func phaseAfter(e TideEvent) TidePhase {
	if e.Type == TideLow {
		return TideIncoming
	}
	return TideOutgoing
}

// TideSchedule renders the ordered schedule, e.g.
// "Low 5:42 AM (0.8 ft), High 11:58 AM (4.9 ft)".
func TideSchedule(events []TideEvent) string {
	sorted := sortedTides(events)
	parts := make([]string, 0, len(sorted))
	for _, e := range sorted {
		parts = append(parts, fmt.Sprintf("%s %s (%s ft)",
			tideLabel(e.Type), e.Time.Format("3:04 PM"), formatNumber(e.Height)))
	}
	return strings.Join(parts, ", ")
}

// TideSummary is the free-text tide column persisted with a report.
func TideSummary(events []TideEvent, now time.Time) string {
	if len(events) == 0 {
		return ""
	}
	return fmt.Sprintf("%s; %s", CurrentTidePhase(events, now), TideSchedule(events))
}

func tideLabel(t TideType) string {
	if t == TideHigh {
		return "High"
	}
	return "Low"
}
