package fit

import (
	"fmt"
	"math"
	"strings"
)

// CurveKind names a two-parameter curve family.
type CurveKind string

const (
	CurveLinear     CurveKind = "linear"     // a·x + b
	CurveLog        CurveKind = "log"        // a·ln x + b
	CurveSqrt       CurveKind = "sqrt"       // a·√x + b
	CurvePower      CurveKind = "power"      // a·x^b
	CurveReciprocal CurveKind = "reciprocal" // a/x + b
)

// CurveKinds lists every family BestCurve tries, in tie-break order.
var CurveKinds = []CurveKind{CurveLinear, CurveLog, CurveSqrt, CurvePower, CurveReciprocal}

// Curve is a fitted member of a family.
type Curve struct {
	Kind CurveKind `json:"kind"`
	A    float64   `json:"a"`
	B    float64   `json:"b"`
	R2   float64   `json:"r2"`
}

// Eval returns the curve at x.
func (c Curve) Eval(x float64) float64 {
	switch c.Kind {
	case CurveLog:
		return c.A*math.Log(x) + c.B
	case CurveSqrt:
		return c.A*math.Sqrt(x) + c.B
	case CurvePower:
		return c.A * math.Pow(x, c.B)
	case CurveReciprocal:
		return c.A/x + c.B
	default:
		return c.A*x + c.B
	}
}

// String renders the fitted formula.
func (c Curve) String() string {
	switch c.Kind {
	case CurveLog:
		return fmt.Sprintf("%.6g·ln(x) %+.6g", c.A, c.B)
	case CurveSqrt:
		return fmt.Sprintf("%.6g·√x %+.6g", c.A, c.B)
	case CurvePower:
		return fmt.Sprintf("%.6g·x^%.6g", c.A, c.B)
	case CurveReciprocal:
		return fmt.Sprintf("%.6g/x %+.6g", c.A, c.B)
	default:
		return fmt.Sprintf("%.6g·x %+.6g", c.A, c.B)
	}
}

// ParseCurveKind resolves a family name.
func ParseCurveKind(s string) (CurveKind, error) {
	k := CurveKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range CurveKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown curve kind %q", s)
}

// FitCurve fits one family by linearising it and running Linear on the
// transformed data. R² is always reported on the original scale.
func FitCurve(kind CurveKind, x, y []float64) (Curve, error) {
	if err := checkXY(x, y, 2); err != nil {
		return Curve{}, err
	}
	tx := make([]float64, len(x))
	ty := append([]float64(nil), y...)
	for i, xi := range x {
		switch kind {
		case CurveLinear:
			tx[i] = xi
		case CurveLog:
			if xi <= 0 {
				return Curve{}, fmt.Errorf("log curve at x=%v: %w", xi, ErrDomain)
			}
			tx[i] = math.Log(xi)
		case CurveSqrt:
			if xi < 0 {
				return Curve{}, fmt.Errorf("sqrt curve at x=%v: %w", xi, ErrDomain)
			}
			tx[i] = math.Sqrt(xi)
		case CurvePower:
			if xi <= 0 || y[i] <= 0 {
				return Curve{}, fmt.Errorf("power curve at (%v, %v): %w", xi, y[i], ErrDomain)
			}
			tx[i] = math.Log(xi)
			ty[i] = math.Log(y[i])
		case CurveReciprocal:
			if xi == 0 {
				return Curve{}, fmt.Errorf("reciprocal curve at x=0: %w", ErrDomain)
			}
			tx[i] = 1 / xi
		default:
			return Curve{}, fmt.Errorf("unknown curve kind %q", kind)
		}
	}

	line, err := Linear(tx, ty)
	if err != nil {
		return Curve{}, fmt.Errorf("%s curve: %w", kind, err)
	}
	c := Curve{Kind: kind, A: line.Slope, B: line.Intercept}
	if kind == CurvePower {
		c.A, c.B = math.Exp(line.Intercept), line.Slope
	}
	yhat := make([]float64, len(x))
	for i, xi := range x {
		yhat[i] = c.Eval(xi)
	}
	c.R2 = RSquared(y, yhat)
	return c, nil
}

// BestCurve fits every family the data allows and returns the one with the
// highest R², together with all successful fits in CurveKinds order.
func BestCurve(x, y []float64) (Curve, []Curve, error) {
	var (
		best    Curve
		all     []Curve
		lastErr error
	)
	for _, k := range CurveKinds {
		c, err := FitCurve(k, x, y)
		if err != nil {
			lastErr = err
			continue
		}
		all = append(all, c)
		if len(all) == 1 || c.R2 > best.R2 {
			best = c
		}
	}
	if len(all) == 0 {
		return Curve{}, nil, lastErr
	}
	return best, all, nil
}
