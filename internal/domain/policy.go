package domain

import (
	"fmt"
	"strings"
)

// ExhaustionPolicy decides what a run does when the attempt budget is spent
// without a valid sensor reading.
type ExhaustionPolicy string

const (
	// ExhaustFail ends the run with ErrDataUnavailable and writes nothing.
	ExhaustFail ExhaustionPolicy = "fail"
	// ExhaustDegrade writes a report flagged Degraded with the fallback narrative.
	ExhaustDegrade ExhaustionPolicy = "degrade"
)

// ParseExhaustionPolicy resolves a configured policy name. Empty means fail.
func ParseExhaustionPolicy(s string) (ExhaustionPolicy, error) {
	switch p := ExhaustionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ExhaustFail, nil
	case ExhaustFail, ExhaustDegrade:
		return p, nil
	default:
		return "", fmt.Errorf("unknown exhaustion policy %q", s)
	}
}
