package circuit

import (
	"fmt"
	"math"
)

// Oscillator is the differential-current form of the prime circuit: fixed L
// and C, R = √p, driven at ω = 2p, with the charge oscillating as
// Q(t) = Q₀·cos(ωt + φ) and the current taken as i = dQ/dt.
type Oscillator struct {
	L     float64 `json:"inductance"`
	C     float64 `json:"capacitance"`
	Phase float64 `json:"phase"`
}

// DefaultOscillator uses L = 1 mH and C = 1 µF.
var DefaultOscillator = Oscillator{L: 1e-3, C: 1e-6}

// Differential compares the i = dQ/dt current and energies of one prime
// with the simple i = Q/t rendition at the same instant.
type Differential struct {
	Prime     float64 `json:"prime"`
	Time      float64 `json:"time"`
	Omega     float64 `json:"omega"`
	Impedance float64 `json:"impedance"`
	// Q0 is the charge amplitude p/(π·|Z|).
	Q0 float64 `json:"q0"`

	Charge  float64 `json:"charge"`
	Current float64 `json:"current"`
	// RMSCurrent is ωQ₀/√2.
	RMSCurrent float64 `json:"rms_current"`
	EL         float64 `json:"e_l"`
	EC         float64 `json:"e_c"`
	ETotal     float64 `json:"e_total"`

	// Time averages over a period: ⟨sin²⟩ = ⟨cos²⟩ = ½.
	ELAverage     float64 `json:"e_l_average"`
	ECAverage     float64 `json:"e_c_average"`
	ETotalAverage float64 `json:"e_total_average"`

	SimpleCurrent float64 `json:"simple_current"`
	SimpleEL      float64 `json:"simple_e_l"`
	SimpleEC      float64 `json:"simple_e_c"`
	SimpleETotal  float64 `json:"simple_e_total"`
}

// CurrentRatio is |i(t)| / |Q₀/t|.
func (d Differential) CurrentRatio() float64 { return ratio(math.Abs(d.Current), d.SimpleCurrent) }

// EnergyRatio is E(t) / E_simple.
func (d Differential) EnergyRatio() float64 { return ratio(d.ETotal, d.SimpleETotal) }

// AverageEnergyRatio is ⟨E⟩ / E_simple.
func (d Differential) AverageEnergyRatio() float64 { return ratio(d.ETotalAverage, d.SimpleETotal) }

func ratio(a, b float64) float64 {
	if b == 0 {
		return math.Inf(1)
	}
	return a / b
}

// Validate rejects oscillators with non-positive reactive elements.
func (o Oscillator) Validate() error {
	if o.L <= 0 || o.C <= 0 || math.IsNaN(o.L) || math.IsNaN(o.C) {
		return fmt.Errorf("oscillator L=%v C=%v: %w", o.L, o.C, ErrNonPositive)
	}
	return nil
}

// Differential evaluates the oscillator for p at time t.
//
// Parameters:
//   - p: The prime.
//   - t: The instant in seconds, also the divisor of the simple method.
//
// Returns:
//   - Differential: Instantaneous and averaged values of both methods.
//   - error: ErrNonPositive for p ≤ 0, t ≤ 0 or an invalid oscillator.
func (o Oscillator) Differential(p, t float64) (Differential, error) {
	if err := o.Validate(); err != nil {
		return Differential{}, err
	}
	if p <= 0 || math.IsNaN(p) {
		return Differential{}, fmt.Errorf("prime %v: %w", p, ErrNonPositive)
	}
	if t <= 0 || math.IsNaN(t) {
		return Differential{}, fmt.Errorf("time %v: %w", t, ErrNonPositive)
	}

	omega := 2 * p
	x := omega*o.L - 1/(omega*o.C)
	z := math.Hypot(math.Sqrt(p), x)
	q0 := p / (math.Pi * z)

	arg := omega*t + o.Phase
	q := q0 * math.Cos(arg)
	i := -omega * q0 * math.Sin(arg)
	peak := omega * q0

	d := Differential{
		Prime:      p,
		Time:       t,
		Omega:      omega,
		Impedance:  z,
		Q0:         q0,
		Charge:     q,
		Current:    i,
		RMSCurrent: peak / math.Sqrt2,
		EL:         0.5 * o.L * i * i,
		EC:         0.5 * q * q / o.C,
		ELAverage:  0.25 * o.L * peak * peak,
		ECAverage:  0.25 * q0 * q0 / o.C,
	}
	d.ETotal = d.EL + d.EC
	d.ETotalAverage = d.ELAverage + d.ECAverage

	d.SimpleCurrent = q0 / t
	d.SimpleEL = 0.5 * o.L * d.SimpleCurrent * d.SimpleCurrent
	d.SimpleEC = 0.5 * q0 * q0 / o.C
	d.SimpleETotal = d.SimpleEL + d.SimpleEC
	return d, nil
}
