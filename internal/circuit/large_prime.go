package circuit

import (
	"fmt"
	"math"
	"math/cmplx"
)

// LargePrimeModel is the adaptive circuit used to extrapolate beyond small
// primes. Above Threshold the resistance coefficient k shrinks by
// SizeCorrection per unit of excess (never below MinK) and the reactive
// elements are rescaled by EnergyScaling.
type LargePrimeModel struct {
	K              float64 `json:"k"`
	Threshold      float64 `json:"threshold"`
	SizeCorrection float64 `json:"size_correction"`
	EnergyScaling  float64 `json:"energy_scaling"`
}

// MinK is the floor applied by AdaptiveK.
const MinK = 0.45

// DefaultLargePrimeModel returns the uncalibrated defaults.
func DefaultLargePrimeModel() LargePrimeModel {
	return LargePrimeModel{
		K:              0.48,
		Threshold:      100,
		SizeCorrection: 0.001,
		EnergyScaling:  1.2,
	}
}

// Validate rejects models that cannot produce a finite simulation.
func (m LargePrimeModel) Validate() error {
	if m.K <= 0 || m.EnergyScaling <= 0 {
		return fmt.Errorf("large-prime model k=%v scaling=%v: %w", m.K, m.EnergyScaling, ErrNonPositive)
	}
	if m.SizeCorrection < 0 {
		return fmt.Errorf("large-prime model size correction %v: %w", m.SizeCorrection, ErrNonPositive)
	}
	return nil
}

// AdaptiveK returns the resistance coefficient for p.
func (m LargePrimeModel) AdaptiveK(p float64) float64 {
	if p <= m.Threshold {
		return m.K
	}
	return math.Max(MinK, m.K-(p-m.Threshold)*m.SizeCorrection)
}

// LargeSimulation is the response of the adaptive circuit.
type LargeSimulation struct {
	AdaptiveK float64   `json:"adaptive_k"`
	R         float64   `json:"resistance"`
	L         float64   `json:"inductance"`
	C         float64   `json:"capacitance"`
	Frequency float64   `json:"frequency"`
	Impedance Impedance `json:"impedance"`
	Current   float64   `json:"current"`
	ER        float64   `json:"e_r"`
	EL        float64   `json:"e_l"`
	EC        float64   `json:"e_c"`
	ETotal    float64   `json:"e_total"`
	Power     float64   `json:"power"`
}

// Simulate runs the adaptive circuit for p at voltage v. The frequency is
// stretched to (p/π)(1 + 10⁻⁴p); element values are fixed at 1 µF / 1 mH
// below the threshold and scaled above it.
func (m LargePrimeModel) Simulate(p, v float64) (LargeSimulation, error) {
	if p <= 0 || v <= 0 {
		return LargeSimulation{}, fmt.Errorf("large-prime simulation p=%v v=%v: %w", p, v, ErrNonPositive)
	}
	k := m.AdaptiveK(p)
	r := math.Sqrt(p) * k
	f := (p / math.Pi) * (1 + p*0.0001)
	omega := 2 * math.Pi * f

	c, l := 1e-6, 1e-3
	if p > m.Threshold {
		c = (1e-6 * m.EnergyScaling) / (1 + p*0.00001)
		l = (1e-3 * m.EnergyScaling) * (1 + p*0.00001)
	}

	xl := omega * l
	xc := 1 / (omega * c)
	z := complex(r, xl-xc)
	imp := Impedance{
		Omega:     omega,
		XL:        xl,
		XC:        xc,
		X:         xl - xc,
		Z:         z,
		Magnitude: cmplx.Abs(z),
		Phase:     math.Atan2(xl-xc, r),
	}

	var i float64
	if imp.Magnitude != 0 {
		i = v / imp.Magnitude
	}
	s := LargeSimulation{
		AdaptiveK: k,
		R:         r,
		L:         l,
		C:         c,
		Frequency: f,
		Impedance: imp,
		Current:   i,
		ER:        0.5 * r * i * i,
		EL:        0.5 * l * i * i,
		EC:        0.5 * c * (i * xc) * (i * xc),
		Power:     i * i * r,
	}
	s.ETotal = s.ER + s.EL + s.EC
	return s, nil
}

// Extrapolate returns the real-valued estimate of the prime after p:
// p + 2 + 0.1·E_total + 0.01·|Z| + 0.001·f, plus 0.01 per unit above the
// threshold.
func (m LargePrimeModel) Extrapolate(p, v float64) (float64, LargeSimulation, error) {
	sim, err := m.Simulate(p, v)
	if err != nil {
		return 0, LargeSimulation{}, err
	}
	correction := sim.ETotal*0.1 + sim.Impedance.Magnitude*0.01 + sim.Frequency*0.001
	if p > m.Threshold {
		correction += (p - m.Threshold) * 0.01
	}
	return p + 2 + correction, sim, nil
}
