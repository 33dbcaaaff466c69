package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Rating tiers shared by the opening and closing candidate sets.
const (
	tierEpic = iota
	tierGood
	tierFair
	tierPoor
)

func ratingTier(rating int) int {
	switch {
	case rating >= 8:
		return tierEpic
	case rating >= 6:
		return tierGood
	case rating >= 4:
		return tierFair
	default:
		return tierPoor
	}
}

var openings = [...][]string{
	tierEpic: {
		"Firing! Today is one to call in sick for.",
		"Epic conditions on tap. Grab your board and go.",
		"It's pumping out there. Days like this don't come often.",
	},
	tierGood: {
		"Solid session ahead with plenty of rideable waves.",
		"Good conditions today, well worth the paddle out.",
		"Fun surf on offer today.",
	},
	tierFair: {
		"Fair conditions today, with something for the patient surfer.",
		"Mixed bag out there, but there are waves to be had.",
		"Middling surf today; worth a look if you're nearby.",
	},
	tierPoor: {
		"Tough conditions today. Keep expectations low.",
		"Not much happening in the water today.",
		"Slim pickings out there today.",
	},
}

var closings = [...][]string{
	tierEpic: {
		"Don't miss this one.",
		"Get out there early and often.",
		"Clear your schedule and paddle out.",
	},
	tierGood: {
		"Worth the session if you can get out.",
		"Wax up and enjoy it.",
		"A good day to put in some water time.",
	},
	tierFair: {
		"A longboard or fish will help you make the most of it.",
		"Go if you need the water time.",
		"Pick your peak carefully and you'll find a few.",
	},
	tierPoor: {
		"Maybe a good day for a beach walk instead.",
		"Save your energy for the next swell.",
		"Check back tomorrow for a better forecast.",
	},
}

// fallbackTemplates take, in order: capture label, wind, water temperature,
// weather sentence (possibly empty).
var fallbackTemplates = []string{
	"Wave sensors are offline right now (last check %s), so we can't report surf size or period. Wind is %s and the water is %s.%s Check local cams and other sources before heading out.",
	"No valid wave data from the buoy as of %s. Here's what we know: wind %s, water %s.%s The sensors are offline, so check other sources for current surf.",
	"Buoy wave sensors are offline (checked %s). Wind: %s. Water: %s.%s We recommend checking other sources for today's surf.",
}

// OpeningCandidates lists every opening line for the rating's tier.
func OpeningCandidates(rating int) []string {
	return append([]string(nil), openings[ratingTier(rating)]...)
}

// ClosingCandidates lists every closing line for the rating's tier.
func ClosingCandidates(rating int) []string {
	return append([]string(nil), closings[ratingTier(rating)]...)
}

// FallbackCandidates renders every "no wave data" message for the inputs.
func FallbackCandidates(r SensorReading, w *WeatherSnapshot, captureTimeLabel string) []string {
	out := make([]string, 0, len(fallbackTemplates))
	for i := range fallbackTemplates {
		out = append(out, renderFallback(i, r, w, captureTimeLabel))
	}
	return out
}

func renderFallback(i int, r SensorReading, w *WeatherSnapshot, label string) string {
	if label == "" {
		label = "unknown time"
	}
	weather := ""
	if w != nil && w.ShortConditions != "" {
		weather = " Weather: " + weatherLine(w) + "."
	}
	return fmt.Sprintf(fallbackTemplates[i], label, windPhrase(r), waterPhrase(r), weather)
}

// Composer builds the narrative for a report. Phrasing among same-tier
// candidates comes from the injected selector; the tide phase uses the clock.
type Composer struct {
	clock  clockwork.Clock
	choose Selector
}

// NewComposer creates a Composer. A nil clock uses real time and a nil
// selector falls back to ClockSelector.
func NewComposer(clock clockwork.Clock, choose Selector) *Composer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if choose == nil {
		choose = ClockSelector(clock)
	}
	return &Composer{clock: clock, choose: choose}
}

// Compose returns the narrative. Without valid wave data it returns one of
// FallbackCandidates; otherwise a multi-section report in fixed order:
// opening, surf size, period, wind, weather (if any), tide (if any), closing.
func (c *Composer) Compose(r SensorReading, w *WeatherSnapshot, tides []TideEvent, rating int, captureTimeLabel string) string {
	if !IsValid(r) {
		return renderFallback(c.pick(len(fallbackTemplates)), r, w, captureTimeLabel)
	}

	tier := ratingTier(rating)
	height := measurementOrZero(r.WaveHeight)

	sections := []string{
		openings[tier][c.pick(len(openings[tier]))],
		surfSizeSection(r, captureTimeLabel),
		periodSection(r),
		windSection(r),
	}
	if w != nil {
		sections = append(sections, weatherSection(r, w))
	}
	if len(tides) > 0 {
		sections = append(sections, tideSection(tides, height, c.clock.Now()))
	}
	sections = append(sections, closings[tier][c.pick(len(closings[tier]))])

	return strings.Join(sections, "\n\n")
}

func (c *Composer) pick(n int) int {
	i := c.choose(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}

// HeightBand names the qualitative surf size for a height in feet.
func HeightBand(height float64) string {
	switch {
	case height >= 7:
		return "overhead+"
	case height >= 4.5:
		return "chest-to-head high"
	case height >= 2:
		return "waist-to-chest high"
	case height >= 1:
		return "ankle-to-knee high"
	default:
		return "minimal"
	}
}

// IsClean reports whether the wind leaves wave faces clean: offshore under
// 15 mph or onshore under 8 mph.
func IsClean(r SensorReading) bool {
	speed := measurementOrZero(r.WindSpeed)
	if IsOffshore(r.WindDirection) {
		return speed < 15
	}
	return speed < 8
}

func surfSizeSection(r SensorReading, label string) string {
	height := measurementOrZero(r.WaveHeight)
	surface := "choppy"
	if IsClean(r) {
		surface = "clean"
	}
	from := ""
	if !IsSentinel(r.SwellDirection) {
		from = " from the " + strings.TrimSpace(r.SwellDirection)
	}
	lead := "The buoy shows"
	if label != "" {
		lead = "As of " + label + ", the buoy shows"
	}
	return fmt.Sprintf("%s %s ft of swell%s. Surf is %s and %s.",
		lead, formatNumber(height), from, HeightBand(height), surface)
}

func periodSection(r SensorReading) string {
	period, ok := ParseMeasurement(r.WavePeriod)
	if !ok {
		return "Swell period is not being reported, so expect a mix of wind-driven swell."
	}
	p := formatNumber(period)
	switch {
	case period >= 12:
		return fmt.Sprintf("Period is %ss: excellent long-period groundswell with real power.", p)
	case period >= 10:
		return fmt.Sprintf("Period is %ss: good swell with decent push.", p)
	case period >= 8:
		return fmt.Sprintf("Period is %ss: moderate swell, fairly consistent sets.", p)
	case period >= 6:
		return fmt.Sprintf("Period is %ss: short-period swell that will break a bit weak.", p)
	default:
		return fmt.Sprintf("Period is %ss: choppy, wind-driven swell.", p)
	}
}

func windSection(r SensorReading) string {
	speed := measurementOrZero(r.WindSpeed)
	s := formatNumber(speed)
	dir := windDirection(r)

	if IsOffshore(r.WindDirection) {
		switch {
		case speed < 5:
			return fmt.Sprintf("Winds are light offshore (%s mph %s), keeping the faces glassy.", s, dir)
		case speed < 10:
			return fmt.Sprintf("A gentle offshore breeze at %s mph from the %s is grooming the faces nicely.", s, dir)
		case speed < 15:
			return fmt.Sprintf("Moderate offshore winds at %s mph from the %s; expect clean faces with spray off the lips.", s, dir)
		case speed < 20:
			return fmt.Sprintf("Strong offshore winds at %s mph from the %s may make it hard to get into waves.", s, dir)
		default:
			return fmt.Sprintf("Very strong offshore winds at %s mph from the %s; paddling in will be a battle.", s, dir)
		}
	}

	switch {
	case speed < 5:
		return fmt.Sprintf("Winds are light (%s mph %s), so the surface should hold up.", s, dir)
	case speed < 10:
		return fmt.Sprintf("Light onshore winds at %s mph from the %s are adding some texture.", s, dir)
	case speed < 15:
		return fmt.Sprintf("Onshore winds at %s mph from the %s are making it bumpy.", s, dir)
	case speed < 20:
		return fmt.Sprintf("Strong onshore winds at %s mph from the %s; expect choppy, disorganized surf.", s, dir)
	default:
		return fmt.Sprintf("Blown out by %s mph onshore winds from the %s.", s, dir)
	}
}

// WetsuitAdvice recommends a suit for a water temperature in °F.
func WetsuitAdvice(waterTemp float64) string {
	switch {
	case waterTemp >= 75:
		return "boardshorts or a bikini will do"
	case waterTemp >= 68:
		return "a springsuit or 2mm top is plenty"
	case waterTemp >= 60:
		return "bring a 3/2 fullsuit"
	case waterTemp >= 50:
		return "a 4/3 fullsuit with booties is recommended"
	default:
		return "go 5/4 hooded with booties and gloves"
	}
}

func weatherSection(r SensorReading, w *WeatherSnapshot) string {
	var b strings.Builder
	b.WriteString("Weather: ")
	b.WriteString(weatherLine(w))
	b.WriteString(".")
	if water, ok := ParseMeasurement(r.WaterTemp); ok {
		fmt.Fprintf(&b, " Water is %s°F, %s.", formatNumber(water), WetsuitAdvice(water))
	}
	return b.String()
}

func weatherLine(w *WeatherSnapshot) string {
	conditions := strings.TrimSpace(w.ShortConditions)
	if conditions == "" {
		conditions = "conditions unavailable"
	}
	if t := strings.TrimSpace(w.Temperature); t != "" {
		return conditions + ", " + t
	}
	return conditions
}

func tideSection(tides []TideEvent, height float64, now time.Time) string {
	return fmt.Sprintf("Tide is currently %s. Today's tides: %s. %s",
		CurrentTidePhase(tides, now), TideSchedule(tides), tideTimingAdvice(height))
}

func tideTimingAdvice(height float64) string {
	switch {
	case height >= 6:
		return "With this much size, mid to high tide should offer the most manageable lineup."
	case height >= 3:
		return "Mid tide should be the sweet spot today."
	default:
		return "Small surf tends to work best on the lower tide with the push of the incoming."
	}
}

func windDirection(r SensorReading) string {
	if IsSentinel(r.WindDirection) {
		return "variable"
	}
	return strings.TrimSpace(r.WindDirection)
}

func windPhrase(r SensorReading) string {
	speed, ok := ParseMeasurement(r.WindSpeed)
	if !ok {
		return "unavailable"
	}
	if IsSentinel(r.WindDirection) {
		return formatNumber(speed) + " mph"
	}
	return fmt.Sprintf("%s mph from the %s", formatNumber(speed), strings.TrimSpace(r.WindDirection))
}

func waterPhrase(r SensorReading) string {
	water, ok := ParseMeasurement(r.WaterTemp)
	if !ok {
		return "unavailable"
	}
	return formatNumber(water) + "°F"
}

// formatNumber renders v with at most one decimal place and no trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
