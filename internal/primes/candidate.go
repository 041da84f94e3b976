package primes

import "math"

// Window bounds the neighbourhood searched by OptimizeCandidateWithin.
// Offsets range over [-Radius, Radius] in multiples of Step.
type Window struct {
	Radius int
	Step   int
}

// DefaultWindow is the search window used by the prediction heuristics:
// offsets -20..20 in steps of 2.
var DefaultWindow = Window{Radius: 20, Step: 2}

// OptimizeCandidate nudges a guess to a nearby prime inside DefaultWindow.
// See OptimizeCandidateWithin.
func OptimizeCandidate(candidate int) int {
	return OptimizeCandidateWithin(candidate, DefaultWindow)
}

// OptimizeCandidateWithin returns the prime closest to candidate among
// candidate+k·Step for |k·Step| <= Radius, preferring the lower value on a
// tie. Values <= 1 are never returned. When no offset yields a prime the
// original candidate is returned unchanged, so the search always terminates
// after at most 2·Radius/Step+1 primality tests.
//
// Parameters:
//   - candidate: The initial guess.
//   - w: The search window. A non-positive Step is treated as 1.
//
// Returns:
//   - int: A prime inside the window, or candidate itself.
func OptimizeCandidateWithin(candidate int, w Window) int {
	step := w.Step
	if step <= 0 {
		step = 1
	}
	if w.Radius < 0 {
		return candidate
	}
	for d := 0; d <= w.Radius; d += step {
		if c := candidate - d; c > 1 && IsPrime(c) {
			return c
		}
		if d == 0 {
			continue
		}
		if c := candidate + d; c > 1 && IsPrime(c) {
			return c
		}
	}
	return candidate
}

// Snap turns a real-valued estimate into a prime. The estimate is rounded,
// an even result other than 2 is moved up to the next odd number so the
// even-step window can reach primes, and OptimizeCandidate finishes the job.
func Snap(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	c := int(math.Round(x))
	if c > 2 && c%2 == 0 {
		c++
	}
	return OptimizeCandidate(c)
}

// ScanUp returns the first prime p with start <= p < ceiling. The "+1 until
// prime" walk stops at the ceiling, so a failed search returns the ceiling
// and a start at or past it is returned unchanged.
func ScanUp(start, ceiling int) int {
	c := start
	for c < ceiling && !IsPrime(c) {
		c++
	}
	return c
}

// Frequency maps a prime to its "resonant frequency" p/π.
func Frequency(p float64) float64 {
	return p / math.Pi
}

// FromFrequency is the inverse of Frequency: π·f.
func FromFrequency(f float64) float64 {
	return f * math.Pi
}

// TwoSquares returns a and b with a <= b and a²+b² = p. By Fermat's theorem
// such a pair exists exactly for p = 2 and primes p ≡ 1 (mod 4); ok is false
// otherwise.
func TwoSquares(p int) (a, b int, ok bool) {
	if p < 2 {
		return 0, 0, false
	}
	for a = 1; 2*a*a <= p; a++ {
		rest := p - a*a
		b = int(math.Sqrt(float64(rest)))
		for b*b > rest {
			b--
		}
		for (b+1)*(b+1) <= rest {
			b++
		}
		if b*b == rest {
			return a, b, true
		}
	}
	return 0, 0, false
}
