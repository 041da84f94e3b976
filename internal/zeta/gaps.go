package zeta

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// GapStats compares consecutive zero spacings with prime gaps scaled by 1/π.
type GapStats struct {
	Pairs            int     `json:"pairs"`
	MeanZeroGap      float64 `json:"mean_zero_gap"`
	MeanScaledPrime  float64 `json:"mean_scaled_prime_gap"`
	Correlation      float64 `json:"correlation"`
	MeanAbsoluteDiff float64 `json:"mean_absolute_difference"`
}

// GapCorrelation computes the Pearson correlation between zero gaps and
// prime gaps divided by π over their common length.
//
// Parameters:
//   - zeros: Ascending zeta zeros.
//   - ps: Ascending primes.
//
// Returns:
//   - GapStats: Means, correlation and mean absolute difference.
//   - error: ErrInsufficientData if fewer than three gap pairs exist.
func GapCorrelation(zeros []float64, ps []int) (GapStats, error) {
	n := min(len(zeros), len(ps)) - 1
	if n < 3 {
		return GapStats{}, fmt.Errorf("gap correlation needs at least 3 gap pairs, have %d: %w", max(n, 0), ErrInsufficientData)
	}
	zg := make([]float64, n)
	pg := make([]float64, n)
	var absDiff float64
	for i := 0; i < n; i++ {
		zg[i] = zeros[i+1] - zeros[i]
		pg[i] = float64(ps[i+1]-ps[i]) / math.Pi
		absDiff += math.Abs(zg[i] - pg[i])
	}
	corr := stat.Correlation(zg, pg, nil)
	if math.IsNaN(corr) {
		corr = 0
	}
	return GapStats{
		Pairs:            n,
		MeanZeroGap:      stat.Mean(zg, nil),
		MeanScaledPrime:  stat.Mean(pg, nil),
		Correlation:      corr,
		MeanAbsoluteDiff: absDiff / float64(n),
	}, nil
}

// Prediction is an extrapolated zero location.
type Prediction struct {
	Method     string  `json:"method"`
	Value      float64 `json:"value"`
	Gap        float64 `json:"gap"`
	Confidence float64 `json:"confidence"`
}

// recentWindow is the number of trailing gaps used by PredictNext.
const recentWindow = 4

// PredictNext extrapolates the next zero as the last zero plus the mean of
// the last four gaps. Confidence is 1 - σ/μ of those gaps, clamped to [0, 1].
func PredictNext(zeros []float64) (Prediction, error) {
	if len(zeros) < 2 {
		return Prediction{}, fmt.Errorf("next-zero prediction needs 2 zeros: %w", ErrInsufficientData)
	}
	start := max(1, len(zeros)-recentWindow)
	gaps := make([]float64, 0, recentWindow)
	for i := start; i < len(zeros); i++ {
		gaps = append(gaps, zeros[i]-zeros[i-1])
	}
	mean, sd := stat.PopMeanStdDev(gaps, nil)

	conf := 0.0
	if mean > 0 {
		conf = math.Max(0, math.Min(1, 1-sd/mean))
	}
	return Prediction{
		Method:     "recent-gap",
		Value:      zeros[len(zeros)-1] + mean,
		Gap:        mean,
		Confidence: conf,
	}, nil
}

// PredictNextScaled extrapolates with the mean of all gaps stretched by
// 1 + 0.1·ln(last/π), the logarithmic thinning of zero spacing.
func PredictNextScaled(zeros []float64) (Prediction, error) {
	if len(zeros) < 2 {
		return Prediction{}, fmt.Errorf("next-zero prediction needs 2 zeros: %w", ErrInsufficientData)
	}
	last := zeros[len(zeros)-1]
	meanGap := (last - zeros[0]) / float64(len(zeros)-1)
	gap := meanGap * (1 + 0.1*math.Log(last/math.Pi))
	return Prediction{
		Method:     "scaled-gap",
		Value:      last + gap,
		Gap:        gap,
		Confidence: 0.70,
	}, nil
}

// PredictNextGrowth fits the zero gaps linearly against their index,
// extrapolates one gap ahead and adds 0.5·ln(last/π).
func PredictNextGrowth(zeros []float64) (Prediction, error) {
	if len(zeros) < 3 {
		return Prediction{}, fmt.Errorf("growth prediction needs 3 zeros: %w", ErrInsufficientData)
	}
	n := len(zeros) - 1
	idx := make([]float64, n)
	gaps := make([]float64, n)
	for i := 0; i < n; i++ {
		idx[i] = float64(i)
		gaps[i] = zeros[i+1] - zeros[i]
	}
	alpha, beta := stat.LinearRegression(idx, gaps, nil, false)
	last := zeros[n]
	gap := alpha + beta*float64(n) + 0.5*math.Log(last/math.Pi)
	return Prediction{
		Method:     "growth",
		Value:      last + gap,
		Gap:        gap,
		Confidence: 0.75,
	}, nil
}
