package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/ui"
)

// OutputConfig selects how reports are printed and saved.
type OutputConfig struct {
	// Quiet prints one line per report, for scripts.
	Quiet bool
	// JSON prints the reports as a JSON array. It wins over Quiet.
	JSON bool
	// Verbose prints tables in full.
	Verbose bool
	// OutDir receives CSV, JSON and plot artifacts; empty disables them.
	OutDir string
	// PlotFormat is the plot encoding used in OutDir.
	PlotFormat report.PlotFormat
}

// FormatQuietReport renders r as "analysis name=value name=value ...".
// Non-finite metrics are printed as NaN or ±Inf.
func FormatQuietReport(r *report.Report) string {
	var b strings.Builder
	b.WriteString(r.Analysis)
	for _, m := range r.Summary {
		fmt.Fprintf(&b, " %s=%g", strings.ReplaceAll(m.Name, " ", "_"), m.Value)
	}
	return b.String()
}

// DisplayReports prints reports according to config.
//
// Parameters:
//   - out: The destination writer.
//   - reports: The reports, in display order.
//   - config: The output configuration.
//
// Returns:
//   - error: The first write error.
func DisplayReports(out io.Writer, reports []*report.Report, config OutputConfig) error {
	switch {
	case config.JSON:
		return report.WriteJSON(out, reports)
	case config.Quiet:
		for _, r := range reports {
			if _, err := fmt.Fprintln(out, FormatQuietReport(r)); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range reports {
		if err := report.WriteText(out, r, config.Verbose); err != nil {
			return err
		}
	}
	return nil
}

// SaveArtifacts writes the artifacts of reports to config.OutDir and lists
// the files written unless the output is quiet or JSON. It does nothing
// when OutDir is empty.
//
// Returns:
//   - error: The first failure.
func SaveArtifacts(out io.Writer, reports []*report.Report, config OutputConfig) error {
	if config.OutDir == "" || len(reports) == 0 {
		return nil
	}
	format := config.PlotFormat
	if format == "" {
		format = report.PlotPNG
	}
	paths, err := report.WriteArtifacts(config.OutDir, format, reports)
	if err != nil {
		return fmt.Errorf("failed to save artifacts: %w", err)
	}
	if config.Quiet || config.JSON {
		return nil
	}
	fmt.Fprintf(out, "\n%s✓ %d artifacts saved to: %s%s%s\n",
		ui.ColorGreen(), len(paths), ui.ColorCyan(), config.OutDir, ui.ColorReset())
	if config.Verbose {
		for _, p := range paths {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	return nil
}
