package predict

import (
	"context"
	"fmt"

	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/zeta"
)

// SyncThreshold is the largest |t − p/π| at which a prime counts as
// synchronised with a zero.
const SyncThreshold = 2.0

// zeroStep is the assumed spacing to the zero after the last synchronised one.
const zeroStep = 7.0

// SyncPoint is a prime whose frequency lies close to a zeta zero.
type SyncPoint struct {
	Prime     int     `json:"prime"`
	Frequency float64 `json:"frequency"`
	Zero      float64 `json:"zero"`
	Distance  float64 `json:"distance"`
	Strength  float64 `json:"strength"`
}

// SyncPoints returns every prime of known whose frequency p/π lies within
// SyncThreshold of a zero, compared on the raw zero value t.
func SyncPoints(known []int, zeros []float64) []SyncPoint {
	var pts []SyncPoint
	for _, p := range known {
		f := primes.Frequency(float64(p))
		m, err := zeta.Nearest(f, zeros)
		if err != nil {
			return nil
		}
		if m.Distance < SyncThreshold {
			pts = append(pts, SyncPoint{
				Prime:     p,
				Frequency: f,
				Zero:      m.Value,
				Distance:  m.Distance,
				Strength:  zeta.SyncStrength(m.Distance),
			})
		}
	}
	return pts
}

// ZetaSync takes the last synchronised zero, steps seven units to an
// estimate of the next zero and maps it back to a prime with π·t.
// Confidence is the mean synchronisation strength.
type ZetaSync struct {
	Zeros []float64
}

func (ZetaSync) Name() string { return NameZetaSync }

func (z ZetaSync) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameZetaSync); err != nil {
		return Prediction{}, err
	}
	pts := SyncPoints(known, z.Zeros)
	if len(pts) == 0 {
		return Prediction{}, fmt.Errorf("zeta-sync found no synchronisation points: %w", ErrInsufficientData)
	}
	var sum float64
	for _, sp := range pts {
		sum += sp.Strength
	}
	mean := sum / float64(len(pts))
	next := pts[len(pts)-1].Zero + zeroStep

	pred := snapped(NameZetaSync, primes.FromFrequency(next), mean)
	pred.Details = map[string]float64{
		"sync_points": float64(len(pts)),
		"next_zero":   next,
	}
	return pred, nil
}
