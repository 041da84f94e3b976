// Package cli is the terminal front end of primelab: the live progress
// display for concurrently running analyses, the execution banner, report
// rendering in text, quiet and JSON form, shell completion scripts and the
// interactive REPL.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/primelab/internal/analysis"
)

// FormatExecutionDuration formats a time.Duration for display: microseconds
// below a millisecond, milliseconds below a second, the default
// representation otherwise.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: The formatted duration.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

const (
	// ProgressRefreshRate is the refresh period of the spinner line.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner abstracts the terminal spinner so DisplayProgress can be tested
// without a terminal.
type Spinner interface {
	Start()
	Stop()
	// UpdateSuffix sets the text displayed after the spinner.
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressState aggregates the progress of concurrently running analyses
// into one average.
type ProgressState struct {
	progresses  []float64
	numAnalyses int
}

// NewProgressState tracks numAnalyses independent progress values.
func NewProgressState(numAnalyses int) *ProgressState {
	return &ProgressState{
		progresses:  make([]float64, numAnalyses),
		numAnalyses: numAnalyses,
	}
}

// Update records value for the analysis at index. Out-of-range indices are
// ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage returns the mean progress in [0, 1].
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numAnalyses == 0 {
		return 0.0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numAnalyses)
}

// progressBar renders progress (clamped to [0, 1]) as a bar of length
// characters.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0.0), 1.0)
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

func progressLabel(numAnalyses int) string {
	if numAnalyses > 1 {
		return "Avg progress"
	}
	return "Progress"
}

// DisplayProgress renders a spinner with the average progress and ETA of
// the running analyses until progressChan is closed, then prints a final
// 100% line. It is meant to run in its own goroutine.
//
// Parameters:
//   - wg: Signalled when the display routine returns.
//   - progressChan: The channel receiving progress updates.
//   - numAnalyses: The number of analyses contributing to the progress.
//   - out: Where the progress line is rendered.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan analysis.ProgressUpdate, numAnalyses int, out io.Writer) {
	defer wg.Done()
	if numAnalyses <= 0 {
		for range progressChan {
		}
		return
	}

	state := NewProgressWithETA(numAnalyses)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	spinnerStopped := false
	defer func() {
		if !spinnerStopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	label := progressLabel(numAnalyses)
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				spinnerStopped = true
				fmt.Fprintf(out, "%s: %6.2f%% [%s] ETA: %s\n", label, 100.0, progressBar(1.0, ProgressBarWidth), "< 1s")
				return
			}
			state.UpdateWithETA(update.AnalysisIndex, update.Value)
		case <-ticker.C:
			avg := state.CalculateAverage()
			s.UpdateSuffix(fmt.Sprintf(" %s: %s", label, FormatProgressBarWithETA(avg, state.GetETA(), ProgressBarWidth)))
		}
	}
}

// formatNumberString inserts thousands separators into a decimal integer
// string.
func formatNumberString(s string) string {
	if len(s) == 0 {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix = "-"
		s = s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}

	var builder strings.Builder
	builder.Grow(len(prefix) + n + (n-1)/3)
	builder.WriteString(prefix)

	first := n % 3
	if first == 0 {
		first = 3
	}
	builder.WriteString(s[:first])
	for i := first; i < n; i += 3 {
		builder.WriteByte(',')
		builder.WriteString(s[i : i+3])
	}
	return builder.String()
}

// FormatCount formats n with thousands separators.
func FormatCount(n int) string {
	return formatNumberString(fmt.Sprintf("%d", n))
}
