package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPrefixRe matches the leading number of a measurement string,
// e.g. "3.5 ft" -> "3.5", "11s" -> "11", "-0.4" -> "-0.4".
var numericPrefixRe = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)

// sentinels are the upstream markers for an unmeasured value.
var sentinels = map[string]struct{}{
	"":          {},
	"n/a":       {},
	"null":      {},
	"undefined": {},
	"mm":        {}, // NDBC missing-data marker
}

// IsSentinel reports whether s is one of the known "not measured" markers.
func IsSentinel(s string) bool {
	_, ok := sentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseMeasurement extracts the leading numeric prefix of s. It returns
// false for sentinels, strings without a numeric prefix, and non-finite values.
func ParseMeasurement(s string) (float64, bool) {
	if IsSentinel(s) {
		return 0, false
	}
	m := numericPrefixRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// measurementOrZero parses s, defaulting to 0 when unmeasured.
func measurementOrZero(s string) float64 {
	v, ok := ParseMeasurement(s)
	if !ok {
		return 0
	}
	return v
}

// IsValid reports whether the reading carries a usable wave height: present,
// not a sentinel, and a finite non-negative number.
func IsValid(r SensorReading) bool {
	v, ok := ParseMeasurement(r.WaveHeight)
	return ok && v >= 0
}
