package circuit

import (
	"fmt"
	"math"
	"strings"
)

// Corrector maps a raw recovered estimate back towards the prime.
type Corrector interface {
	Name() string
	// Factor is the multiplier applied to the raw estimate for prime p.
	Factor(p float64) float64
}

// Static applies the same factor to every prime.
type Static struct {
	Value float64
}

// DefaultStatic is the historical fixed correction of 0.5.
var DefaultStatic = Static{Value: 0.5}

func (s Static) Name() string             { return "static" }
func (s Static) Factor(_ float64) float64 { return s.Value }

// Dynamic applies factor = A/p + B.
type Dynamic struct {
	A, B float64
}

// DefaultDynamic holds the fitted reciprocal constants.
var DefaultDynamic = Dynamic{A: 0.335508, B: 0.466337}

func (d Dynamic) Name() string { return "dynamic" }

func (d Dynamic) Factor(p float64) float64 {
	if p == 0 {
		return d.B
	}
	return d.A/p + d.B
}

// Correctors lists the available correction model names.
func Correctors() []string { return []string{"static", "dynamic"} }

// CorrectorByName returns the default corrector for a model name.
func CorrectorByName(name string) (Corrector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "static":
		return DefaultStatic, nil
	case "dynamic", "":
		return DefaultDynamic, nil
	default:
		return nil, fmt.Errorf("unknown correction model %q (available: %s)", name, strings.Join(Correctors(), ", "))
	}
}

// Correct applies c to raw for prime p.
func Correct(c Corrector, p, raw float64) float64 {
	return c.Factor(p) * raw
}

// OptimalFactor is the factor that would map raw exactly onto p.
func OptimalFactor(p, raw float64) float64 {
	if raw == 0 {
		return math.NaN()
	}
	return p / raw
}

// Estimate simulates p at voltage v, recovers the raw value and applies c.
//
// Returns:
//   - raw: The uncorrected recovery.
//   - corrected: c.Factor(p)·raw.
//   - err: Any simulation or recovery error.
func Estimate(c Corrector, p, v float64) (raw, corrected float64, err error) {
	sim, err := Simulate(p, v)
	if err != nil {
		return 0, 0, err
	}
	raw, err = Recover(sim)
	if err != nil {
		return 0, 0, err
	}
	return raw, Correct(c, p, raw), nil
}
