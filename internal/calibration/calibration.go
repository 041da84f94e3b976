package calibration

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/cli"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/ui"
)

// CalibrationOptions configures a calibration run. Zero values select the
// defaults.
type CalibrationOptions struct {
	// ProfilePath is where the profile is saved; empty means the default.
	ProfilePath string
	// SaveProfile writes the best model to ProfilePath.
	SaveProfile bool
	// Grid is the parameter grid; the zero value means DefaultGrid.
	Grid Grid
	// Base supplies the threshold kept fixed during the search.
	Base circuit.LargePrimeModel
	// SampleLow, SampleHigh and SampleSize select the sample primes.
	SampleLow, SampleHigh, SampleSize int
	// Voltage is the applied voltage; 10 V when not positive.
	Voltage float64
	// Rows is the number of ranked candidates printed.
	Rows int
}

func (o CalibrationOptions) withDefaults() CalibrationOptions {
	if o.Grid.Size() == 0 {
		o.Grid = DefaultGrid()
	}
	if o.Base == (circuit.LargePrimeModel{}) {
		o.Base = circuit.DefaultLargePrimeModel()
	}
	if o.SampleHigh <= o.SampleLow {
		o.SampleLow, o.SampleHigh = DefaultSampleLow, DefaultSampleHigh
	}
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.Voltage <= 0 {
		o.Voltage = 10
	}
	if o.Rows <= 0 {
		o.Rows = DefaultTableRows
	}
	return o
}

// RunCalibration grid-searches the large-prime model and saves the best
// parameters with the default options.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - out: The io.Writer to which progress and results will be written.
//   - profilePath: The profile destination; empty means the default path.
//
// Returns:
//   - int: The exit code.
func RunCalibration(ctx context.Context, out io.Writer, profilePath string) int {
	_, code := RunCalibrationWithOptions(ctx, out, CalibrationOptions{
		ProfilePath: profilePath,
		SaveProfile: true,
	})
	return code
}

// RunCalibrationWithOptions scores every grid candidate on the sample
// primes, prints the ranking and optionally saves the best model.
//
// Returns:
//   - *CalibrationProfile: The profile of the best model, nil on failure.
//   - int: The exit code.
func RunCalibrationWithOptions(ctx context.Context, out io.Writer, opts CalibrationOptions) (*CalibrationProfile, int) {
	opts = opts.withDefaults()
	fmt.Fprintf(out, "--- Calibration Mode: Tuning the Large-Prime Circuit Model ---\n")

	samples, err := SamplePrimes(opts.SampleLow, opts.SampleHigh, opts.SampleSize)
	if err != nil {
		fmt.Fprintf(out, "%sCalibration failed: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return nil, apperrors.ExitErrorConfig
	}
	candidates := opts.Grid.Candidates(opts.Base)
	fmt.Fprintf(out, "%sScoring %d candidates on primes %v at %g V using %d workers%s\n",
		ui.ColorCyan(), len(candidates), samples, opts.Voltage, runtime.GOMAXPROCS(0), ui.ColorReset())

	start := time.Now()
	var wg sync.WaitGroup
	progressChan := make(chan analysis.ProgressUpdate, len(candidates))
	wg.Add(1)
	go cli.DisplayProgress(&wg, progressChan, 1, out)

	results, err := Search(ctx, candidates, samples, opts.Voltage, progressChan)
	close(progressChan)
	wg.Wait()
	elapsed := time.Since(start)

	if err != nil {
		fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
		return nil, apperrors.HandleAnalysisError(err, elapsed, out, cli.CLIColorProvider{})
	}

	best, ok := Best(results)
	if !ok {
		fmt.Fprintf(out, "\n%sCalibration failed: no candidate produced a usable prediction.%s\n", ui.ColorRed(), ui.ColorReset())
		return nil, apperrors.ExitErrorGeneric
	}

	printCalibrationResults(out, results, best.Model, opts.Rows)
	fmt.Fprintln(out)
	printModel(out, "✅ Best model for this machine", best.Model)
	fmt.Fprintf(out, "Mean accuracy: %s%.2f%%%s over %d of %d samples, in %s.\n",
		ui.ColorYellow(), best.MeanAccuracy, ui.ColorReset(), best.Scored, len(samples), cli.FormatExecutionDuration(elapsed))

	profile := NewProfile()
	profile.Model = best.Model
	profile.MeanAccuracy = best.MeanAccuracy
	profile.Samples = samples
	profile.Voltage = opts.Voltage
	profile.Candidates = len(candidates)
	profile.CalibrationTime = elapsed.String()

	if opts.SaveProfile {
		path := opts.ProfilePath
		if path == "" {
			path = GetDefaultProfilePath()
		}
		if err := profile.SaveProfile(path); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n", ui.ColorGreen(), path, ui.ColorReset())
		}
	}
	return profile, apperrors.ExitSuccess
}

// LoadCachedCalibration applies the model of a valid cached profile to
// env. It returns env unchanged and false when no valid profile exists at
// profilePath (or the default path).
func LoadCachedCalibration(env analysis.EnvOptions, profilePath string) (updated analysis.EnvOptions, ok bool) {
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded {
		return env, false
	}
	updated = env
	updated.LargePrime = profile.Model
	return updated, true
}
