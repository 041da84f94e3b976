package primes

import "testing"

// FuzzIsPrimeAgainstSieve verifies that trial division and the sieve agree
// on every value up to the fuzzed bound.
func FuzzIsPrimeAgainstSieve(f *testing.F) {
	f.Add(0)
	f.Add(2)
	f.Add(97)
	f.Add(1000)
	f.Add(7919)

	f.Fuzz(func(t *testing.T, n int) {
		if n < 0 || n > 20000 {
			return
		}
		ps := Sieve(n)
		set := make(map[int]struct{}, len(ps))
		for _, p := range ps {
			set[p] = struct{}{}
		}
		for k := 0; k <= n; k++ {
			_, inSieve := set[k]
			if inSieve != IsPrime(k) {
				t.Fatalf("disagreement at %d (limit %d): sieve=%v trial=%v", k, n, inSieve, IsPrime(k))
			}
		}
	})
}

// FuzzOptimizeCandidate verifies the search always terminates inside the
// window and only returns a non-prime when it returns the input.
func FuzzOptimizeCandidate(f *testing.F) {
	f.Add(0)
	f.Add(95)
	f.Add(1000)
	f.Add(31_415)

	f.Fuzz(func(t *testing.T, c int) {
		if c < -1_000_000 || c > 1_000_000_000 {
			return
		}
		got := OptimizeCandidate(c)
		if got == c {
			return
		}
		if !IsPrime(got) {
			t.Fatalf("OptimizeCandidate(%d) = %d is not prime", c, got)
		}
		if d := got - c; d > 20 || d < -20 || d%2 != 0 {
			t.Fatalf("OptimizeCandidate(%d) = %d lies outside the window", c, got)
		}
	})
}
