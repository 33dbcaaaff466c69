// Command validate checks the rating and narrative tables against a file of
// calibration scenarios. For each scenario it verifies the validity verdict,
// that every rating strategy lands in the expected band, and that the
// composed narrative is drawn from the candidate phrasings for its tier.
//
// Usage:
//
//	go run ./cmd/validate -scenarios data/scenarios.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

type scenario struct {
	Name        string               `json:"name"`
	Reading     domain.SensorReading `json:"reading"`
	Valid       bool                 `json:"valid"`
	Directional [2]int               `json:"directional"`
	Additive    [2]int               `json:"additive"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("scenarios", "data/scenarios.json", "calibration scenarios JSON file")
	flag.Parse()
	os.Exit(run(*path))
}

func run(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read scenarios: %v\n", err)
		return 2
	}
	var scenarios []scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		fmt.Fprintf(os.Stderr, "parse scenarios: %v\n", err)
		return 2
	}
	fmt.Printf("loaded %d scenarios from %s\n\n", len(scenarios), path)

	phases := []*phase{
		validateValidity(scenarios),
		validateRatings(scenarios),
		validateNarratives(scenarios),
	}

	failed := 0
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s\n", status, p.name)
		for _, e := range p.errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	fmt.Println()
	if failed > 0 {
		fmt.Printf("%d of %d phases failed\n", failed, len(phases))
		return 1
	}
	fmt.Println("all phases passed")
	return 0
}

func validateValidity(scenarios []scenario) *phase {
	p := &phase{name: "validity verdicts"}
	for _, s := range scenarios {
		if got := domain.IsValid(s.Reading); got != s.Valid {
			p.errorf("%s: IsValid(%q) = %v, want %v", s.Name, s.Reading.WaveHeight, got, s.Valid)
		}
	}
	return p
}

func validateRatings(scenarios []scenario) *phase {
	p := &phase{name: "rating bands"}
	strategies := []struct {
		name string
		band func(scenario) [2]int
	}{
		{domain.RatingDirectional, func(s scenario) [2]int { return s.Directional }},
		{domain.RatingAdditive, func(s scenario) [2]int { return s.Additive }},
	}

	for _, st := range strategies {
		rate, err := domain.RatingStrategyByName(st.name)
		if err != nil {
			p.errorf("%s: %v", st.name, err)
			continue
		}
		for _, s := range scenarios {
			got := rate(s.Reading)
			band := st.band(s)
			if got < domain.MinRating || got > domain.MaxRating {
				p.errorf("%s/%s: rating %d outside [%d,%d]", s.Name, st.name, got, domain.MinRating, domain.MaxRating)
			}
			if band != [2]int{} && (got < band[0] || got > band[1]) {
				p.errorf("%s/%s: rating %d outside expected band [%d,%d]", s.Name, st.name, got, band[0], band[1])
			}
		}
	}
	return p
}

func validateNarratives(scenarios []scenario) *phase {
	p := &phase{name: "narrative phrasing"}
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.June, 1, 15, 0, 0, 0, time.UTC))

	for _, s := range scenarios {
		rating := domain.DirectionalRating(s.Reading)
		// Every selector index must resolve to a candidate.
		for i := range 3 {
			c := domain.NewComposer(clock, domain.FixedSelector(i))
			text := c.Compose(s.Reading, nil, nil, rating, "8:00 AM")
			if text == "" {
				p.errorf("%s: empty narrative", s.Name)
				continue
			}
			if !s.Valid {
				if !slices.Contains(domain.FallbackCandidates(s.Reading, nil, "8:00 AM"), text) {
					p.errorf("%s: fallback narrative %q not a fallback candidate", s.Name, text)
				}
				continue
			}
			sections := strings.Split(text, "\n\n")
			if !slices.Contains(domain.OpeningCandidates(rating), sections[0]) {
				p.errorf("%s: opening %q not a tier %d candidate", s.Name, sections[0], rating)
			}
			if !slices.Contains(domain.ClosingCandidates(rating), sections[len(sections)-1]) {
				p.errorf("%s: closing %q not a tier %d candidate", s.Name, sections[len(sections)-1], rating)
			}
		}
	}
	return p
}
