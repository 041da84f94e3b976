// Package circuitrsa demonstrates textbook RSA on primes nudged by the
// prime circuit: a seeded random prime is simulated, its dynamic-corrected
// recovery shifts it, and the prime nearest the shifted value is kept.
//
// The keys are for demonstration only. Encryption is unpadded and the
// generator is a seeded PCG stream.
package circuitrsa

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/rand/v2"
	"strings"

	"github.com/agbru/primelab/internal/circuit"
)

const (
	// MinPrimeBits is the smallest prime size CircuitPrime accepts.
	MinPrimeBits = 8
	// MaxPrimeBits bounds CircuitPrime to keep key generation interactive.
	MaxPrimeBits = 1024
	// HashPrimeBits is the size of the primes mixed into Hash.
	HashPrimeBits = 16

	// millerRabinRounds is passed to big.Int.ProbablyPrime.
	millerRabinRounds = 20
	// keyAttempts bounds the number of prime pairs GenerateKey draws.
	keyAttempts = 32
	// pcgStream is the second PCG word; the seed is the first.
	pcgStream = 0x9e3779b97f4a7c15
)

var (
	// ErrBits is returned for a prime or key size outside the accepted range.
	ErrBits = errors.New("unsupported bit size")
	// ErrKey is returned when no usable prime pair is found.
	ErrKey = errors.New("no usable key")
	// ErrCiphertext is returned for blocks that do not decrypt under the key.
	ErrCiphertext = errors.New("malformed ciphertext")
)

// publicExponent is the RSA e.
var publicExponent = big.NewInt(65537)

// SeededPrime is one circuit-seeded prime and how it was reached.
type SeededPrime struct {
	Seed    uint64  `json:"seed"`
	Voltage float64 `json:"voltage"`
	// Candidate is the random prime before the circuit step.
	Candidate *big.Int `json:"candidate"`
	Prime     *big.Int `json:"prime"`
	// Shifted reports whether the circuit step moved the candidate.
	Shifted bool `json:"shifted"`
}

// CircuitPrime draws a bits-bit prime from seed. The stream first picks a
// voltage in [5, 20) and a random prime in [2^(bits−1), 2^bits); the circuit
// recovery of that prime, corrected with circuit.DefaultDynamic, then
// shifts it and the nearest prime of the same size is returned. A shift
// that leaves the range keeps the candidate.
//
// Parameters:
//   - seed: The PCG seed; equal seeds give equal primes.
//   - bits: The prime size in bits, in [MinPrimeBits, MaxPrimeBits].
//
// Returns:
//   - SeededPrime: The candidate and the final prime.
//   - error: ErrBits for an unsupported size.
func CircuitPrime(seed uint64, bits int) (SeededPrime, error) {
	if bits < MinPrimeBits || bits > MaxPrimeBits {
		return SeededPrime{}, fmt.Errorf("%w: %d-bit prime (accepted %d..%d)", ErrBits, bits, MinPrimeBits, MaxPrimeBits)
	}
	rng := rand.New(rand.NewPCG(seed, pcgStream))
	voltage := 5 + 15*rng.Float64()

	lo := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	hi := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	cand := nearestPrime(randomBits(rng, bits), lo, hi)

	sp := SeededPrime{Seed: seed, Voltage: voltage, Candidate: cand, Prime: cand}
	pf, _ := new(big.Float).SetInt(cand).Float64()
	_, corrected, err := circuit.Estimate(circuit.DefaultDynamic, pf, voltage)
	if err != nil || math.IsNaN(corrected) || math.IsInf(corrected, 0) {
		return sp, nil
	}
	shift, _ := big.NewFloat(math.Round(corrected - pf)).Int(nil)
	target := new(big.Int).Add(cand, shift)
	if target.Cmp(lo) < 0 || target.Cmp(hi) >= 0 {
		return sp, nil
	}
	if p := nearestPrime(target, lo, hi); p != nil {
		sp.Prime = p
		sp.Shifted = p.Cmp(cand) != 0
	}
	return sp, nil
}

// randomBits returns a bits-bit integer with the top bit set.
func randomBits(rng *rand.Rand, bits int) *big.Int {
	buf := make([]byte, (bits+7)/8)
	for i := 0; i < len(buf); i += 8 {
		var w [8]byte
		binary.BigEndian.PutUint64(w[:], rng.Uint64())
		copy(buf[i:], w[:])
	}
	n := new(big.Int).SetBytes(buf)
	n.Rsh(n, uint(8*len(buf)-bits))
	return n.SetBit(n, bits-1, 1)
}

// nearestPrime searches outwards from n for the closest probable prime in
// [lo, hi), preferring the smaller on a tie. It returns nil if the range
// holds none.
func nearestPrime(n, lo, hi *big.Int) *big.Int {
	down := new(big.Int).Set(n)
	up := new(big.Int).Set(n)
	one := big.NewInt(1)
	for {
		downOK := down.Cmp(lo) >= 0
		upOK := up.Cmp(hi) < 0
		if !downOK && !upOK {
			return nil
		}
		if downOK && down.ProbablyPrime(millerRabinRounds) {
			return down
		}
		if upOK && up.ProbablyPrime(millerRabinRounds) {
			return up
		}
		down.Sub(down, one)
		up.Add(up, one)
	}
}

// PublicKey is (n, e).
type PublicKey struct {
	N *big.Int `json:"n"`
	E *big.Int `json:"e"`
}

// PrivateKey is (n, d).
type PrivateKey struct {
	N *big.Int `json:"n"`
	D *big.Int `json:"d"`
}

// KeyPair is an RSA key pair built from two circuit-seeded primes.
type KeyPair struct {
	Public  PublicKey   `json:"public"`
	Private PrivateKey  `json:"private"`
	P       SeededPrime `json:"p"`
	Q       SeededPrime `json:"q"`
}

// GenerateKey builds a key pair whose modulus has about bits bits. The two
// prime seeds are drawn from a PCG stream seeded with seed; pairs with
// p = q or gcd(e, φ(n)) ≠ 1 are redrawn.
//
// Parameters:
//   - seed: The master seed.
//   - bits: The modulus size, even and in [2·MinPrimeBits, 2·MaxPrimeBits].
//
// Returns:
//   - *KeyPair: The key pair and the primes it came from.
//   - error: ErrBits for an unsupported size, ErrKey if no pair is usable.
func GenerateKey(seed uint64, bits int) (*KeyPair, error) {
	if bits%2 != 0 || bits < 2*MinPrimeBits || bits > 2*MaxPrimeBits {
		return nil, fmt.Errorf("%w: %d-bit key", ErrBits, bits)
	}
	master := rand.New(rand.NewPCG(seed, pcgStream))
	one := big.NewInt(1)
	for range keyAttempts {
		p, err := CircuitPrime(master.Uint64(), bits/2)
		if err != nil {
			return nil, err
		}
		q, err := CircuitPrime(master.Uint64(), bits/2)
		if err != nil {
			return nil, err
		}
		if p.Prime.Cmp(q.Prime) == 0 {
			continue
		}
		n := new(big.Int).Mul(p.Prime, q.Prime)
		phi := new(big.Int).Mul(new(big.Int).Sub(p.Prime, one), new(big.Int).Sub(q.Prime, one))
		d := new(big.Int).ModInverse(publicExponent, phi)
		if d == nil {
			continue
		}
		return &KeyPair{
			Public:  PublicKey{N: n, E: new(big.Int).Set(publicExponent)},
			Private: PrivateKey{N: new(big.Int).Set(n), D: d},
			P:       p,
			Q:       q,
		}, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrKey, keyAttempts)
}

// Ciphertext is a message encrypted block by block.
type Ciphertext struct {
	Blocks []*big.Int `json:"blocks"`
	// BlockSize is the plaintext bytes per block.
	BlockSize int `json:"block_size"`
	// Length is the plaintext length in bytes.
	Length int `json:"length"`
}

// blockSize is the largest byte count whose integers stay below n.
func blockSize(n *big.Int) int { return (n.BitLen() - 1) / 8 }

// Encrypt computes c = m^e mod n for each block of msg.
func (k PublicKey) Encrypt(msg []byte) (Ciphertext, error) {
	bs := blockSize(k.N)
	if bs < 1 {
		return Ciphertext{}, fmt.Errorf("%w: %d-bit modulus", ErrBits, k.N.BitLen())
	}
	ct := Ciphertext{BlockSize: bs, Length: len(msg)}
	for i := 0; i < len(msg); i += bs {
		m := new(big.Int).SetBytes(msg[i:min(i+bs, len(msg))])
		ct.Blocks = append(ct.Blocks, modExp(m, k.E, k.N))
	}
	return ct, nil
}

// Decrypt computes m = c^d mod n for each block and reassembles the
// plaintext, restoring leading zero bytes.
func (k PrivateKey) Decrypt(ct Ciphertext) ([]byte, error) {
	if ct.BlockSize != blockSize(k.N) || ct.Length < 0 {
		return nil, fmt.Errorf("%w: block size %d for a %d-bit modulus", ErrCiphertext, ct.BlockSize, k.N.BitLen())
	}
	out := make([]byte, 0, len(ct.Blocks)*ct.BlockSize)
	for i, c := range ct.Blocks {
		if c == nil || c.Sign() < 0 || c.Cmp(k.N) >= 0 {
			return nil, fmt.Errorf("%w: block %d out of range", ErrCiphertext, i)
		}
		m := modExp(c, k.D, k.N)
		size := ct.BlockSize
		if rest := ct.Length - i*ct.BlockSize; rest < size {
			size = rest
		}
		if size <= 0 || m.BitLen() > 8*size {
			return nil, fmt.Errorf("%w: block %d does not fit", ErrCiphertext, i)
		}
		out = append(out, m.FillBytes(make([]byte, size))...)
	}
	if len(out) != ct.Length {
		return nil, fmt.Errorf("%w: %d bytes decrypted, %d expected", ErrCiphertext, len(out), ct.Length)
	}
	return out, nil
}

// Digest is the result of Hash.
type Digest struct {
	Sum    string     `json:"sum"`
	Primes []*big.Int `json:"primes"`
}

// Hash seeds count circuit primes of HashPrimeBits bits from the first four
// bytes of SHA-256(data) and returns the SHA-256 of their concatenated
// decimal digits.
func Hash(data []byte, count int) (Digest, error) {
	if count < 1 {
		return Digest{}, fmt.Errorf("hash over %d primes: need at least one", count)
	}
	sum := sha256.Sum256(data)
	seed := uint64(binary.BigEndian.Uint32(sum[:4]))

	var b strings.Builder
	d := Digest{Primes: make([]*big.Int, 0, count)}
	for i := range count {
		sp, err := CircuitPrime(seed+uint64(i), HashPrimeBits)
		if err != nil {
			return Digest{}, err
		}
		d.Primes = append(d.Primes, sp.Prime)
		b.WriteString(sp.Prime.String())
	}
	final := sha256.Sum256([]byte(b.String()))
	d.Sum = hex.EncodeToString(final[:])
	return d, nil
}
