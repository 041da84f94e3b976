package analysis

import (
	"bytes"
	"context"
	"fmt"

	"github.com/agbru/primelab/internal/circuitrsa"
	"github.com/agbru/primelab/internal/report"
)

const (
	// cryptoSeed makes the key pair and the seeded primes reproducible.
	cryptoSeed    = 20250623
	cryptoKeyBits = 512
	// cryptoSamples is the number of small seeded primes tabulated.
	cryptoSamples    = 20
	cryptoHashPrimes = 5
)

const cryptoMessage = "Prime circuits carry this message through RSA and back."

type circuitCrypto struct{}

func (circuitCrypto) Name() string { return "circuit-crypto" }
func (circuitCrypto) Description() string {
	return "Circuit-seeded primes, an RSA key pair, an encryption round trip and the circuit hash"
}

func (a circuitCrypto) RunCore(ctx context.Context, reporter ProgressReporter, _ *Env) (*report.Report, error) {
	rep := report.New(a.Name(), "Circuit Cryptography")
	progress := NewStepper(reporter, cryptoSamples+3)

	samples := rep.AddTable("seeded primes", "seed", "voltage", "candidate", "prime", "shifted")
	shifted := 0
	for i := range cryptoSamples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sp, err := circuitrsa.CircuitPrime(uint64(cryptoSeed+i), circuitrsa.MinPrimeBits)
		if err != nil {
			return nil, err
		}
		if sp.Shifted {
			shifted++
		}
		samples.AddRow(sp.Seed, sp.Voltage, sp.Candidate, sp.Prime, sp.Shifted)
		progress.Step(i)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kp, err := circuitrsa.GenerateKey(cryptoSeed, cryptoKeyBits)
	if err != nil {
		return nil, err
	}
	keys := rep.AddTable("key primes", "role", "seed", "voltage", "bits", "shifted", "prime")
	keys.AddRow("p", kp.P.Seed, kp.P.Voltage, kp.P.Prime.BitLen(), kp.P.Shifted, kp.P.Prime)
	keys.AddRow("q", kp.Q.Seed, kp.Q.Voltage, kp.Q.Prime.BitLen(), kp.Q.Shifted, kp.Q.Prime)
	progress.Step(cryptoSamples)

	msg := []byte(cryptoMessage)
	ct, err := kp.Public.Encrypt(msg)
	if err != nil {
		return nil, err
	}
	plain, err := kp.Private.Decrypt(ct)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(plain, msg) {
		return nil, fmt.Errorf("%s: decrypted message differs from the original", a.Name())
	}
	progress.Step(cryptoSamples + 1)

	digest, err := circuitrsa.Hash(msg, cryptoHashPrimes)
	if err != nil {
		return nil, err
	}
	hash := rep.AddTable("circuit hash", "digest", "primes")
	hash.AddRow(digest.Sum, fmt.Sprint(digest.Primes))
	progress.Step(cryptoSamples + 2)

	rep.AddMetric("seeded primes", float64(cryptoSamples), "")
	rep.AddMetric("shifted by circuit", float64(shifted), "")
	rep.AddMetric("modulus bits", float64(kp.Public.N.BitLen()), "")
	rep.AddMetric("public exponent", float64(kp.Public.E.Int64()), "")
	rep.AddMetric("message bytes", float64(len(msg)), "")
	rep.AddMetric("ciphertext blocks", float64(len(ct.Blocks)), "")
	rep.AddMetric("round trip", 1, "")
	rep.Notef("demonstration keys only: unpadded RSA over seeded primes")
	return rep, nil
}
