package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	MinRating = 1
	MaxRating = 10
)

// RatingStrategy scores a reading on the 1-10 scale. Implementations must be
// pure and total: missing fields count as zero and no input is an error.
type RatingStrategy func(SensorReading) int

const (
	RatingDirectional = "directional"
	RatingAdditive    = "additive"
)

// RatingStrategyByName resolves a configured strategy name.
func RatingStrategyByName(name string) (RatingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RatingDirectional:
		return DirectionalRating, nil
	case RatingAdditive:
		return AdditiveRating, nil
	default:
		return nil, fmt.Errorf("unknown rating strategy %q", name)
	}
}

// IsOffshore classifies a compass wind direction as blowing offshore. Any
// direction containing N or W counts as offshore for a west-facing coast.
// An unmeasured direction is never offshore.
func IsOffshore(windDirection string) bool {
	if IsSentinel(windDirection) {
		return false
	}
	return strings.ContainsAny(strings.ToUpper(windDirection), "NW")
}

// DirectionalRating is the canonical scoring table. Height and period are
// bucketed, and wind is scored in graduated bands whose sign and weight
// depend on the offshore/onshore classification.
func DirectionalRating(r SensorReading) int {
	height := measurementOrZero(r.WaveHeight)
	period := measurementOrZero(r.WavePeriod)
	wind := measurementOrZero(r.WindSpeed)

	score := 3.0

	switch {
	case height >= 8:
		score += 4
	case height >= 5:
		score += 3
	case height >= 3:
		score += 2
	case height >= 2:
		score++
	case height >= 1:
	default:
		score--
	}

	switch {
	case period >= 13:
		score += 2
	case period >= 10:
		score++
	case period >= 7:
		score += 0.5
	default:
		score--
	}

	if IsOffshore(r.WindDirection) {
		switch {
		case wind < 5:
			score += 1.5
		case wind < 10:
			score++
		case wind < 15:
			score += 0.5
		case wind < 20:
			score -= 0.5
		default:
			score -= 1.5
		}
	} else {
		switch {
		case wind < 5:
			score += 0.5
		case wind < 8:
		case wind < 12:
			score--
		case wind < 18:
			score -= 2
		default:
			score -= 3
		}
	}

	return clampRating(score)
}

// AdditiveRating is the legacy table: a base of 5 adjusted by height,
// period, and wind speed, ignoring wind direction.
//
// Deprecated: kept for comparison with historical reports; use DirectionalRating.
func AdditiveRating(r SensorReading) int {
	height := measurementOrZero(r.WaveHeight)
	period := measurementOrZero(r.WavePeriod)
	wind := measurementOrZero(r.WindSpeed)

	score := 5.0

	switch {
	case height >= 6:
		score += 4
	case height >= 4:
		score += 3
	case height >= 3:
		score += 2
	case height >= 2:
		score++
	case height < 1:
		score -= 2
	}

	switch {
	case period >= 12:
		score += 3
	case period >= 10:
		score += 2
	case period >= 8:
		score++
	case period < 6:
		score--
	}

	switch {
	case wind < 5:
		score++
	case wind > 15:
		score -= 2
	}

	return clampRating(score)
}

func clampRating(score float64) int {
	n := int(math.Round(score))
	if n < MinRating {
		return MinRating
	}
	if n > MaxRating {
		return MaxRating
	}
	return n
}
