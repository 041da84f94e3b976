// Package circuit implements the prime RLC-circuit analogy: a prime p is
// mapped to a series RLC circuit (R = √p, L = 1/(4p^1.5), C = 1/√p driven at
// f = p/π), the circuit is simulated at an applied voltage, and p is
// recovered from the simulated voltages and charges.
//
// With these parameters the circuit is resonant at ω = 2p: X_L = X_C and
// |Z| = R. The recovery formula therefore returns π^(2/3)·p/(1+c/p)^(2/3)
// for a constant c ≈ 1.105, which is why a multiplicative correction
// close to π^(-2/3) ≈ 0.466 is needed to land back on p.
package circuit

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// PlanckConstant in J·s.
const PlanckConstant = 6.62607015e-34

var (
	// ErrNonPositive is returned for a non-positive prime, voltage or frequency.
	ErrNonPositive = errors.New("value must be positive")
	// ErrDegenerate is returned when the recovery denominator K is not positive.
	ErrDegenerate = errors.New("degenerate circuit: recovery denominator is not positive")
)

// Parameters are the circuit element values derived from a prime.
type Parameters struct {
	Prime     float64 `json:"prime"`
	R         float64 `json:"resistance"`
	L         float64 `json:"inductance"`
	C         float64 `json:"capacitance"`
	Frequency float64 `json:"frequency"`
	Omega     float64 `json:"omega"`
}

// Params derives the circuit element values for p.
//
// Parameters:
//   - p: The prime (any positive value is accepted).
//
// Returns:
//   - Parameters: R = √p, L = 1/(4p^1.5), C = 1/√p, f = p/π and ω = 2πf.
//   - error: ErrNonPositive if p ≤ 0.
func Params(p float64) (Parameters, error) {
	if p <= 0 || math.IsNaN(p) {
		return Parameters{}, fmt.Errorf("prime %v: %w", p, ErrNonPositive)
	}
	f := p / math.Pi
	return Parameters{
		Prime:     p,
		R:         math.Sqrt(p),
		L:         1 / (4 * math.Pow(p, 1.5)),
		C:         1 / math.Sqrt(p),
		Frequency: f,
		Omega:     2 * math.Pi * f,
	}, nil
}

// Impedance describes the complex impedance of the circuit at one angular
// frequency.
type Impedance struct {
	Omega     float64    `json:"omega"`
	XL        float64    `json:"x_l"`
	XC        float64    `json:"x_c"`
	X         float64    `json:"reactance"`
	Z         complex128 `json:"-"`
	Magnitude float64    `json:"magnitude"`
	Phase     float64    `json:"phase"`
}

// ImpedanceAt evaluates the circuit for p at angular frequency omega.
func ImpedanceAt(p, omega float64) (Impedance, error) {
	prm, err := Params(p)
	if err != nil {
		return Impedance{}, err
	}
	if omega <= 0 {
		return Impedance{}, fmt.Errorf("omega %v: %w", omega, ErrNonPositive)
	}
	return prm.impedance(omega), nil
}

// DefaultImpedance evaluates the circuit at its natural ω = 2p.
func DefaultImpedance(p float64) (Impedance, error) {
	return ImpedanceAt(p, 2*p)
}

func (prm Parameters) impedance(omega float64) Impedance {
	xl := omega * prm.L
	xc := 1 / (omega * prm.C)
	x := xl - xc
	z := complex(prm.R, x)
	return Impedance{
		Omega:     omega,
		XL:        xl,
		XC:        xc,
		X:         x,
		Z:         z,
		Magnitude: cmplx.Abs(z),
		Phase:     math.Atan2(x, prm.R),
	}
}

// Simulation is the steady-state response of the circuit to an applied
// voltage at its natural frequency.
type Simulation struct {
	Params    Parameters `json:"params"`
	Impedance Impedance  `json:"impedance"`
	Voltage   float64    `json:"voltage"`

	Current complex128 `json:"-"`
	VR      complex128 `json:"-"`
	VL      complex128 `json:"-"`
	VC      complex128 `json:"-"`

	QC       float64 `json:"q_c"`
	QL       float64 `json:"q_l"`
	ER       float64 `json:"e_r"`
	EL       float64 `json:"e_l"`
	EC       float64 `json:"e_c"`
	ETotal   float64 `json:"e_total"`
	EQuantum float64 `json:"e_quantum"`
}

// CurrentMagnitude returns |I|.
func (s Simulation) CurrentMagnitude() float64 { return cmplx.Abs(s.Current) }

// Simulate drives the circuit for p with voltage v at ω = 2πf.
//
// Parameters:
//   - p: The prime.
//   - v: The applied voltage.
//
// Returns:
//   - Simulation: Complex current and element voltages, charges and energies.
//   - error: ErrNonPositive if p or v is not positive.
func Simulate(p, v float64) (Simulation, error) {
	prm, err := Params(p)
	if err != nil {
		return Simulation{}, err
	}
	if v <= 0 {
		return Simulation{}, fmt.Errorf("voltage %v: %w", v, ErrNonPositive)
	}
	imp := prm.impedance(prm.Omega)

	i := complex(v, 0) / imp.Z
	vr := i * complex(prm.R, 0)
	vl := i * complex(0, imp.XL)
	vc := i * complex(0, -imp.XC)

	im := cmplx.Abs(i)
	vcm := cmplx.Abs(vc)
	s := Simulation{
		Params:    prm,
		Impedance: imp,
		Voltage:   v,
		Current:   i,
		VR:        vr,
		VL:        vl,
		VC:        vc,
		QC:        prm.C * vcm,
		QL:        im / (2 * math.Pi * prm.Frequency),
		ER:        0.5 * prm.R * im * im,
		EL:        0.5 * prm.L * im * im,
		EC:        0.5 * prm.C * vcm * vcm,
		EQuantum:  PlanckConstant * prm.Frequency,
	}
	s.ETotal = s.ER + s.EL + s.EC
	return s, nil
}

// Recover reconstructs the raw prime estimate from a simulation:
//
//	K     = V_tot·Q_tot + ½·Q_C·|V_C| − |V_L|·Q_L/(4π)
//	p_raw = (|V_R|²·π / K)^(2/3)
//
// where V_tot = |V_R| + |V_L| + |V_C| and Q_tot = Q_C + Q_L.
func Recover(s Simulation) (float64, error) {
	vr := cmplx.Abs(s.VR)
	vl := cmplx.Abs(s.VL)
	vc := cmplx.Abs(s.VC)
	vTot := vr + vl + vc
	qTot := s.QC + s.QL

	k := vTot*qTot + 0.5*s.QC*vc - vl*s.QL/(4*math.Pi)
	if k <= 0 || math.IsNaN(k) {
		return 0, ErrDegenerate
	}
	return math.Pow(vr*vr*math.Pi/k, 2.0/3.0), nil
}
