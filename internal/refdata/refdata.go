// Package refdata holds the read-only reference constants primelab compares
// against: published imaginary parts of the first Riemann zeta zeros and a
// short list of known small primes. The defaults are embedded from
// reference.yaml; a replacement file with the same layout can be loaded at
// runtime.
package refdata

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/agbru/primelab/internal/primes"
)

//go:embed reference.yaml
var embeddedReference []byte

// ErrInvalidDataset is wrapped by every validation failure.
var ErrInvalidDataset = errors.New("invalid reference dataset")

// Dataset is the reference data used by the analyses. Callers must treat it
// as immutable; the accessors return copies.
type Dataset struct {
	Version     int       `yaml:"version" json:"version"`
	Source      string    `yaml:"source" json:"source"`
	Precision   float64   `yaml:"precision" json:"precision"`
	ZetaZeros   []float64 `yaml:"zeta_zeros" json:"zeta_zeros"`
	SmallPrimes []int     `yaml:"small_primes" json:"small_primes"`
}

var defaultDataset *Dataset

func init() {
	ds, err := Parse(embeddedReference)
	if err != nil {
		panic(fmt.Sprintf("refdata: embedded reference data is invalid: %v", err))
	}
	defaultDataset = ds
}

// Default returns a copy of the embedded reference dataset.
func Default() *Dataset {
	return defaultDataset.Clone()
}

// Load reads and validates a YAML dataset from path. An empty path returns
// the embedded defaults.
//
// Parameters:
//   - path: The file to read, or "" for the defaults.
//
// Returns:
//   - *Dataset: The validated dataset.
//   - error: An error if the file cannot be read, parsed or validated.
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes and validates a YAML dataset.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks that zeros are positive and strictly increasing and that
// the primes are strictly increasing and actually prime.
func (d *Dataset) Validate() error {
	if len(d.ZetaZeros) == 0 {
		return fmt.Errorf("%w: no zeta zeros", ErrInvalidDataset)
	}
	if len(d.SmallPrimes) == 0 {
		return fmt.Errorf("%w: no small primes", ErrInvalidDataset)
	}
	prev := 0.0
	for i, z := range d.ZetaZeros {
		if math.IsNaN(z) || math.IsInf(z, 0) || z <= prev {
			return fmt.Errorf("%w: zeta zero #%d (%v) is not positive and increasing", ErrInvalidDataset, i, z)
		}
		prev = z
	}
	last := 0
	for i, p := range d.SmallPrimes {
		if p <= last || !primes.IsPrime(p) {
			return fmt.Errorf("%w: small prime #%d (%d) is not an increasing prime", ErrInvalidDataset, i, p)
		}
		last = p
	}
	return nil
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	c := *d
	c.ZetaZeros = slices.Clone(d.ZetaZeros)
	c.SmallPrimes = slices.Clone(d.SmallPrimes)
	return &c
}

// Zeros returns a copy of the zeta zeros.
func (d *Dataset) Zeros() []float64 { return slices.Clone(d.ZetaZeros) }

// Primes returns a copy of the small primes.
func (d *Dataset) Primes() []int { return slices.Clone(d.SmallPrimes) }
