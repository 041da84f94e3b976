// Package primes provides the elementary number theory used across primelab:
// sieving, trial-division primality, gaps, the p/π "frequency" mapping and
// the bounded candidate search used by the prediction heuristics.
package primes

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// MaxLimit is the largest sieve bound accepted by SieveContext.
// A bound of 10^7 needs a 10 MB bitmap, which keeps a server request cheap.
const MaxLimit = 10_000_000

// ErrInvalidLimit is returned when a sieve bound is outside [0, MaxLimit].
var ErrInvalidLimit = errors.New("invalid sieve limit")

// cancelCheckInterval controls how often SieveContext polls the context
// while crossing out multiples.
const cancelCheckInterval = 64

// Sieve returns all primes p with 2 <= p <= limit in ascending order using
// the Sieve of Eratosthenes. A limit below 2 yields an empty slice. Unlike
// SieveContext, Sieve does not enforce MaxLimit; memory grows as limit bytes.
//
// Parameters:
//   - limit: The inclusive upper bound.
//
// Returns:
//   - []int: The ordered primes not exceeding limit.
func Sieve(limit int) []int {
	ps, _ := sieve(context.Background(), limit)
	return ps
}

// SieveContext is the cancellable form of Sieve. It polls ctx between
// outer iterations and returns ctx.Err() if the context is done.
//
// Parameters:
//   - ctx: The context for cancellation.
//   - limit: The inclusive upper bound, at most MaxLimit.
//
// Returns:
//   - []int: The ordered primes not exceeding limit.
//   - error: ErrInvalidLimit for a negative or oversized bound, or a context error.
func SieveContext(ctx context.Context, limit int) ([]int, error) {
	if limit < 0 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: %d (accepted range 0..%d)", ErrInvalidLimit, limit, MaxLimit)
	}
	return sieve(ctx, limit)
}

func sieve(ctx context.Context, limit int) ([]int, error) {
	if limit < 2 {
		return []int{}, nil
	}

	composite := make([]bool, limit+1)
	for i := 2; i*i <= limit; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if composite[i] {
			continue
		}
		for j := i * i; j <= limit; j += i {
			composite[j] = true
		}
	}

	out := make([]int, 0, estimateCount(limit))
	for i := 2; i <= limit; i++ {
		if !composite[i] {
			out = append(out, i)
		}
	}
	return out, nil
}

// estimateCount returns a capacity hint for π(limit) based on x/ln x with a
// small safety margin.
func estimateCount(limit int) int {
	if limit < 17 {
		return 8
	}
	n := 0
	for x := limit; x > 1; x >>= 1 {
		n++
	}
	// ln x ≈ 0.693·log2 x; 1.26 covers the underestimate of x/ln x.
	return int(1.26 * float64(limit) / (0.693 * float64(n)))
}

// IsPrime reports whether n is prime using deterministic trial division by
// 2, 3 and numbers of the form 6k±1 up to √n.
func IsPrime(n int) bool {
	switch {
	case n < 2:
		return false
	case n < 4:
		return true
	case n%2 == 0 || n%3 == 0:
		return false
	}
	for i := 5; i*i <= n; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

// NextPrime returns the smallest prime strictly greater than n.
func NextPrime(n int) int {
	if n < 2 {
		return 2
	}
	c := n + 1
	if c > 2 && c%2 == 0 {
		c++
	}
	for !IsPrime(c) {
		c += 2
	}
	return c
}

// PrevPrime returns the largest prime strictly less than n. The boolean is
// false when no such prime exists (n <= 2).
func PrevPrime(n int) (int, bool) {
	for c := n - 1; c >= 2; c-- {
		if IsPrime(c) {
			return c, true
		}
	}
	return 0, false
}

// CountPrimes returns π(x) for an ascending list of primes, i.e. the number
// of entries not exceeding x. The list must cover x for the count to be
// meaningful.
func CountPrimes(sorted []int, x int) int {
	return sort.SearchInts(sorted, x+1)
}

// Gaps returns the differences between consecutive primes. Fewer than two
// primes yield an empty slice.
func Gaps(ps []int) []int {
	if len(ps) < 2 {
		return []int{}
	}
	gaps := make([]int, len(ps)-1)
	for i := 1; i < len(ps); i++ {
		gaps[i-1] = ps[i] - ps[i-1]
	}
	return gaps
}
