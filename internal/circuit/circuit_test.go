package circuit

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParams(t *testing.T) {
	t.Parallel()
	prm, err := Params(4)
	if err != nil {
		t.Fatalf("Params failed: %v", err)
	}
	if prm.R != 2 || prm.C != 0.5 || prm.L != 1.0/32 {
		t.Errorf("Unexpected element values: %+v", prm)
	}
	if math.Abs(prm.Omega-8) > 1e-12 {
		t.Errorf("Expected ω = 2p = 8, got %v", prm.Omega)
	}

	for _, p := range []float64{0, -3, math.NaN()} {
		if _, err := Params(p); !errors.Is(err, ErrNonPositive) {
			t.Errorf("Params(%v): expected ErrNonPositive, got %v", p, err)
		}
	}
}

func TestResonanceAtNaturalFrequency(t *testing.T) {
	t.Parallel()
	for _, p := range []float64{2, 3, 7, 97, 7919} {
		imp, err := DefaultImpedance(p)
		if err != nil {
			t.Fatalf("DefaultImpedance(%v) failed: %v", p, err)
		}
		if math.Abs(imp.X) > 1e-9 {
			t.Errorf("p=%v: expected zero reactance, got %v", p, imp.X)
		}
		if math.Abs(imp.Magnitude-math.Sqrt(p)) > 1e-9 {
			t.Errorf("p=%v: expected |Z| = √p, got %v", p, imp.Magnitude)
		}
		if math.Abs(imp.Phase) > 1e-9 {
			t.Errorf("p=%v: expected zero phase, got %v", p, imp.Phase)
		}
	}
}

func TestImpedanceOffResonance(t *testing.T) {
	t.Parallel()
	imp, err := ImpedanceAt(7, 100)
	if err != nil {
		t.Fatal(err)
	}
	if imp.X <= 0 {
		t.Errorf("Above resonance the circuit should be inductive, got X=%v", imp.X)
	}
	if _, err := ImpedanceAt(7, 0); !errors.Is(err, ErrNonPositive) {
		t.Errorf("Expected ErrNonPositive for ω=0, got %v", err)
	}
}

func TestSimulate(t *testing.T) {
	t.Parallel()
	s, err := Simulate(7, 10)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if got, want := s.CurrentMagnitude(), 10/math.Sqrt(7); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected |I| = %v, got %v", want, got)
	}
	if math.Abs(real(s.VR)-10) > 1e-9 {
		t.Errorf("At resonance V_R should equal the applied voltage, got %v", s.VR)
	}
	if math.Abs(s.QC-s.QL) > 1e-12 {
		t.Errorf("Expected Q_C = Q_L at resonance, got %v and %v", s.QC, s.QL)
	}
	if s.ETotal != s.ER+s.EL+s.EC {
		t.Error("E_total should be the sum of the element energies")
	}
	if want := PlanckConstant * 7 / math.Pi; math.Abs(s.EQuantum-want) > 1e-12*want {
		t.Errorf("Unexpected quantum energy %v", s.EQuantum)
	}

	if _, err := Simulate(7, 0); !errors.Is(err, ErrNonPositive) {
		t.Errorf("Expected ErrNonPositive for zero voltage, got %v", err)
	}
}

func TestRecoverAndCorrect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		p       float64
		raw     float64
		dynamic float64
	}{
		{7, 13.617296, 7.002922},
		{11, 22.136485, 10.998241},
		{97, 206.502382, 97.013961},
		{997, 2137.015445, 997.288515},
	}
	for _, tt := range tests {
		raw, corrected, err := Estimate(DefaultDynamic, tt.p, 10)
		if err != nil {
			t.Fatalf("Estimate(%v) failed: %v", tt.p, err)
		}
		if math.Abs(raw-tt.raw) > 1e-5 {
			t.Errorf("p=%v: expected raw %v, got %v", tt.p, tt.raw, raw)
		}
		if math.Abs(corrected-tt.dynamic) > 1e-5 {
			t.Errorf("p=%v: expected dynamic %v, got %v", tt.p, tt.dynamic, corrected)
		}
		if got := Correct(DefaultStatic, tt.p, raw); got != raw/2 {
			t.Errorf("p=%v: static correction should halve the raw value, got %v", tt.p, got)
		}
	}
}

func TestRecoverDegenerate(t *testing.T) {
	t.Parallel()
	if _, err := Recover(Simulation{}); !errors.Is(err, ErrDegenerate) {
		t.Errorf("Expected ErrDegenerate, got %v", err)
	}
}

func TestCorrectorByName(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"static", "Dynamic", ""} {
		if _, err := CorrectorByName(name); err != nil {
			t.Errorf("CorrectorByName(%q) failed: %v", name, err)
		}
	}
	if _, err := CorrectorByName("quantum"); err == nil {
		t.Error("Expected an error for an unknown model")
	}
	if f := OptimalFactor(7, 14); f != 0.5 {
		t.Errorf("Expected optimal factor 0.5, got %v", f)
	}
	if !math.IsNaN(OptimalFactor(7, 0)) {
		t.Error("Expected NaN for a zero raw value")
	}
}

// TestRecoveryProperties checks that recovery is voltage-independent and
// that the dynamic factor tracks the optimal factor within 1% for p ≥ 5.
func TestRecoveryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("recovery does not depend on the applied voltage", prop.ForAll(
		func(p, v float64) bool {
			a, _, errA := Estimate(DefaultDynamic, p, v)
			b, _, errB := Estimate(DefaultDynamic, p, 10)
			return errA == nil && errB == nil && math.Abs(a-b) <= 1e-9*b
		},
		gen.Float64Range(2, 1e5),
		gen.Float64Range(0.1, 1000),
	))

	properties.Property("dynamic correction lands within 1% of p", prop.ForAll(
		func(p float64) bool {
			_, corrected, err := Estimate(DefaultDynamic, p, 10)
			return err == nil && math.Abs(corrected-p)/p < 0.01
		},
		gen.Float64Range(5, 1e6),
	))

	properties.TestingRun(t)
}
