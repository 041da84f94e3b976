// Package orchestration runs the selected analyses concurrently against a
// shared environment, drives the progress display and summarises the
// outcome as an exit code.
package orchestration

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/cli"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/ui"
)

// AnalysisResult is the outcome of one analysis.
type AnalysisResult struct {
	// Name is the registry name of the analysis.
	Name string
	// Report is nil if Err is set.
	Report *report.Report
	// Duration is the wall time of the run.
	Duration time.Duration
	// Err is an apperrors.AnalysisError wrapping the failure cause.
	Err error
}

// ProgressBufferMultiplier sizes the progress channel per analysis so that
// analyses rarely drop updates while the display is busy.
const ProgressBufferMultiplier = 5

// progressLogThreshold is the progress step between debug log events.
const progressLogThreshold = 0.25

// ExecuteAnalyses runs analyses concurrently and waits for all of them. A
// failing analysis does not cancel the others.
//
// Parameters:
//   - ctx: The context for cancellation and the run deadline.
//   - analyses: The analyses to run.
//   - env: The shared, read-only environment.
//   - out: Where the progress display is rendered; io.Discard hides it.
//
// Returns:
//   - []AnalysisResult: One result per analysis, in input order.
func ExecuteAnalyses(ctx context.Context, analyses []analysis.Analysis, env *analysis.Env, out io.Writer) []AnalysisResult {
	results := make([]AnalysisResult, len(analyses))
	progressChan := make(chan analysis.ProgressUpdate, len(analyses)*ProgressBufferMultiplier)

	metrics := analysis.NewMetricsObserver()
	metrics.ResetMetrics()
	subject := analysis.NewProgressSubject()
	subject.Register(analysis.NewChannelObserver(progressChan))
	subject.Register(metrics)
	subject.Register(analysis.NewLoggingObserver(log.Logger, progressLogThreshold))

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(analyses), out)

	var g errgroup.Group
	for i, a := range analyses {
		g.Go(func() error {
			start := time.Now()
			rep, err := a.RunWithObservers(ctx, subject, i, env)
			results[i] = AnalysisResult{
				Name:     a.Name(),
				Report:   rep,
				Duration: time.Since(start),
				Err:      apperrors.NewAnalysisError(a.Name(), err),
			}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// Reports returns the reports of the successful results, in order.
func Reports(results []AnalysisResult) []*report.Report {
	out := make([]*report.Report, 0, len(results))
	for _, r := range results {
		if r.Err == nil && r.Report != nil {
			out = append(out, r.Report)
		}
	}
	return out
}

// SummarizeResults prints a summary table, successes first and fastest
// first, followed by a global status line.
//
// Parameters:
//   - results: The results to summarise. The slice is not reordered.
//   - out: The destination writer.
//
// Returns:
//   - int: ExitSuccess, ExitErrorPartial when some analyses failed, or the
//     code of the first error when all failed.
func SummarizeResults(results []AnalysisResult, out io.Writer) int {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b AnalysisResult) int {
		if (a.Err == nil) != (b.Err == nil) {
			if a.Err == nil {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Duration, b.Duration)
	})

	var firstError error
	successCount := 0

	fmt.Fprintf(out, "\n--- Execution Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sAnalysis%s\t%sDuration%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())

	for _, res := range sorted {
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
			if firstError == nil {
				firstError = res.Err
			}
		} else {
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
			successCount++
		}
		duration := cli.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(),
			ui.ColorYellow(), duration, ui.ColorReset(),
			status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	switch {
	case len(results) == 0:
		fmt.Fprintf(out, "\nGlobal Status: Nothing to run.\n")
		return apperrors.ExitSuccess
	case successCount == 0:
		fmt.Fprintf(out, "\nGlobal Status: Failure. No analysis could complete.\n")
		return apperrors.HandleAnalysisError(firstError, 0, out, cli.CLIColorProvider{})
	case successCount < len(results):
		fmt.Fprintf(out, "\nGlobal Status: %sPartial success%s. %d of %d analyses failed.\n",
			ui.ColorYellow(), ui.ColorReset(), len(results)-successCount, len(results))
		return apperrors.ExitErrorPartial
	}
	fmt.Fprintf(out, "\nGlobal Status: %sSuccess%s. All %d analyses completed.\n", ui.ColorGreen(), ui.ColorReset(), len(results))
	return apperrors.ExitSuccess
}

// ExitCode maps results to an exit code without printing anything, for
// quiet and JSON output.
func ExitCode(results []AnalysisResult) int {
	failed := 0
	var firstError error
	for _, r := range results {
		if r.Err != nil {
			failed++
			if firstError == nil {
				firstError = r.Err
			}
		}
	}
	switch {
	case failed == 0:
		return apperrors.ExitSuccess
	case failed < len(results):
		return apperrors.ExitErrorPartial
	}
	return apperrors.HandleAnalysisError(firstError, 0, io.Discard, apperrors.DefaultColorProvider{})
}
