// Package fit provides the least-squares fits used to describe error patterns
// and correction factors: straight lines, polynomials, multivariate linear
// models and a small set of one-parameter curve families. All fitting is
// delegated to gonum.
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientData is returned when there are fewer points than
	// parameters to fit.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrLengthMismatch is returned when x and y have different lengths.
	ErrLengthMismatch = errors.New("x and y lengths differ")
	// ErrDomain is returned when a transform is undefined for the data
	// (log or power fits with non-positive values).
	ErrDomain = errors.New("data outside the fit domain")
)

func checkXY(x, y []float64, need int) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) < need {
		return fmt.Errorf("need at least %d points, have %d: %w", need, len(x), ErrInsufficientData)
	}
	return nil
}

// Line is a fitted y = Slope·x + Intercept.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// Eval returns the line at x.
func (l Line) Eval(x float64) float64 { return l.Slope*x + l.Intercept }

// Linear fits a straight line by ordinary least squares.
func Linear(x, y []float64) (Line, error) {
	if err := checkXY(x, y, 2); err != nil {
		return Line{}, err
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return Line{}, fmt.Errorf("constant x: %w", ErrInsufficientData)
	}
	r2 := stat.RSquared(x, y, nil, alpha, beta)
	if math.IsNaN(r2) {
		r2 = 0
	}
	return Line{Slope: beta, Intercept: alpha, R2: r2}, nil
}

// Poly is a polynomial with coefficients in ascending powers.
type Poly struct {
	Coeffs []float64 `json:"coefficients"`
	R2     float64   `json:"r2"`
}

// Degree returns the polynomial degree.
func (p Poly) Degree() int { return len(p.Coeffs) - 1 }

// Eval evaluates the polynomial at x by Horner's rule.
func (p Poly) Eval(x float64) float64 {
	var v float64
	for i := len(p.Coeffs) - 1; i >= 0; i-- {
		v = v*x + p.Coeffs[i]
	}
	return v
}

// Polynomial fits a polynomial of the given degree by solving the
// Vandermonde system in the least-squares sense.
//
// Parameters:
//   - x, y: Sample points.
//   - degree: Polynomial degree, at least 0.
//
// Returns:
//   - Poly: Ascending coefficients and R².
//   - error: ErrInsufficientData if len(x) <= degree, or a solver error.
func Polynomial(x, y []float64, degree int) (Poly, error) {
	if degree < 0 {
		return Poly{}, fmt.Errorf("negative degree %d", degree)
	}
	if err := checkXY(x, y, degree+1); err != nil {
		return Poly{}, err
	}
	n, cols := len(x), degree+1
	a := mat.NewDense(n, cols, nil)
	for i, xi := range x {
		v := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= xi
		}
	}
	coeffs, err := solve(a, y)
	if err != nil {
		return Poly{}, err
	}
	p := Poly{Coeffs: coeffs}
	yhat := make([]float64, n)
	for i, xi := range x {
		yhat[i] = p.Eval(xi)
	}
	p.R2 = RSquared(y, yhat)
	return p, nil
}

// Model is a multivariate linear model y = Coeffs[0] + Σ Coeffs[i+1]·x_i.
type Model struct {
	Coeffs []float64 `json:"coefficients"`
	R2     float64   `json:"r2"`
}

// Predict evaluates the model for one feature row.
func (m Model) Predict(row []float64) float64 {
	v := m.Coeffs[0]
	for i, x := range row {
		if i+1 < len(m.Coeffs) {
			v += m.Coeffs[i+1] * x
		}
	}
	return v
}

// Multivariate fits y against the columns of X plus an intercept.
func Multivariate(X [][]float64, y []float64) (Model, error) {
	if len(X) != len(y) {
		return Model{}, fmt.Errorf("%w: %d rows vs %d targets", ErrLengthMismatch, len(X), len(y))
	}
	if len(X) == 0 {
		return Model{}, ErrInsufficientData
	}
	k := len(X[0])
	if len(X) < k+1 {
		return Model{}, fmt.Errorf("need at least %d rows, have %d: %w", k+1, len(X), ErrInsufficientData)
	}
	a := mat.NewDense(len(X), k+1, nil)
	for i, row := range X {
		if len(row) != k {
			return Model{}, fmt.Errorf("%w: row %d has %d features, want %d", ErrLengthMismatch, i, len(row), k)
		}
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	coeffs, err := solve(a, y)
	if err != nil {
		return Model{}, err
	}
	m := Model{Coeffs: coeffs}
	yhat := make([]float64, len(y))
	for i, row := range X {
		yhat[i] = m.Predict(row)
	}
	m.R2 = RSquared(y, yhat)
	return m, nil
}

// solve returns the least-squares solution of a·c = y.
func solve(a *mat.Dense, y []float64) ([]float64, error) {
	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(len(y), append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("least squares: %w", err)
	}
	return mat.Col(nil, 0, &c), nil
}

// RSquared is the coefficient of determination 1 − SS_res/SS_tot. A
// constant y gives 1 for a perfect fit and 0 otherwise.
func RSquared(y, yhat []float64) float64 {
	if len(y) == 0 || len(y) != len(yhat) {
		return 0
	}
	mean := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i := range y {
		r := y[i] - yhat[i]
		d := y[i] - mean
		ssRes += r * r
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// Pearson returns the correlation coefficient of x and y. Constant inputs
// give 0.
func Pearson(x, y []float64) (float64, error) {
	if err := checkXY(x, y, 2); err != nil {
		return 0, err
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, nil
	}
	return r, nil
}

// Stats summarises a sample.
type Stats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary returns count, mean, population standard deviation and range.
func Summary(xs []float64) (Stats, error) {
	if len(xs) == 0 {
		return Stats{}, ErrInsufficientData
	}
	mean, sd := stat.PopMeanStdDev(xs, nil)
	return Stats{
		N:      len(xs),
		Mean:   mean,
		StdDev: sd,
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
	}, nil
}
