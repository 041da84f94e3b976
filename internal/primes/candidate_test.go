package primes

import (
	"math"
	"testing"
)

func TestOptimizeCandidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		candidate int
		want      int
	}{
		{"already prime", 97, 97},
		{"odd composite below prime", 95, 97},
		{"tie prefers lower", 99, 97},
		{"negative candidate climbs to 3", -1, 3},
		{"one maps to 3", 1, 3},
		{"even candidate only reaches 2", 4, 2},
		{"large even candidate unchanged", 1000, 1000},
		{"composite with wider gap", 1001, 997},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := OptimizeCandidate(tt.candidate); got != tt.want {
				t.Errorf("OptimizeCandidate(%d) = %d, want %d", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestOptimizeCandidateWithinCustomWindow(t *testing.T) {
	t.Parallel()
	// 1000 is even; a unit step reaches the primes either side.
	if got := OptimizeCandidateWithin(1000, Window{Radius: 5, Step: 1}); got != 997 {
		t.Errorf("Expected 997, got %d", got)
	}
	if got := OptimizeCandidateWithin(1000, Window{Radius: 2, Step: 1}); got != 1000 {
		t.Errorf("Expected candidate unchanged, got %d", got)
	}
	if got := OptimizeCandidateWithin(90, Window{Radius: 0, Step: 0}); got != 90 {
		t.Errorf("Expected zero radius to return candidate, got %d", got)
	}
}

func TestSnap(t *testing.T) {
	t.Parallel()
	tests := []struct {
		x    float64
		want int
	}{
		{96.6, 97},
		{100.2, 101},
		{2.2, 2},
		{118.0, 113},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Snap(tt.x); got != tt.want {
			t.Errorf("Snap(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestScanUp(t *testing.T) {
	t.Parallel()
	if got := ScanUp(114, 163); got != 127 {
		t.Errorf("ScanUp(114, 163) = %d, want 127", got)
	}
	if got := ScanUp(114, 120); got != 120 {
		t.Errorf("ScanUp should stop at the ceiling, got %d", got)
	}
	if got := ScanUp(113, 120); got != 113 {
		t.Errorf("ScanUp should return a prime start, got %d", got)
	}
}

func TestFrequency(t *testing.T) {
	t.Parallel()
	if got := Frequency(math.Pi * 7); math.Abs(got-7) > 1e-12 {
		t.Errorf("Frequency(7π) = %v, want 7", got)
	}
	for _, p := range primesBelow100 {
		back := FromFrequency(Frequency(float64(p)))
		if math.Abs(back-float64(p)) > 1e-9 {
			t.Errorf("round trip for %d gave %v", p, back)
		}
	}
}

func TestTwoSquares(t *testing.T) {
	t.Parallel()
	for _, p := range Sieve(500) {
		a, b, ok := TwoSquares(p)
		expectOK := p == 2 || p%4 == 1
		if ok != expectOK {
			t.Errorf("TwoSquares(%d) ok = %v, want %v", p, ok, expectOK)
			continue
		}
		if ok && (a*a+b*b != p || a > b) {
			t.Errorf("TwoSquares(%d) = (%d, %d)", p, a, b)
		}
	}
}
