package calibration

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/ui"
)

// DefaultTableRows is the number of ranked candidates printed.
const DefaultTableRows = 10

// printCalibrationResults prints the rows best-ranked results, ranked by
// mean accuracy. Candidates with the same accuracy keep grid order.
func printCalibrationResults(out io.Writer, results []Result, best circuit.LargePrimeModel, rows int) {
	ranked := slices.Clone(results)
	slices.SortStableFunc(ranked, func(a, b Result) int {
		return cmp.Compare(b.MeanAccuracy, a.MeanAccuracy)
	})
	if rows > 0 && len(ranked) > rows {
		ranked = ranked[:rows]
	}

	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sk%s\t%sSize correction%s\t%sEnergy scaling%s\t%sMean accuracy%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s\n", strings.Repeat("─", 60))
	for _, r := range ranked {
		acc := fmt.Sprintf("%sN/A%s", ui.ColorRed(), ui.ColorReset())
		if r.Err == nil && r.Scored > 0 {
			acc = fmt.Sprintf("%s%.2f%%%s", ui.ColorYellow(), r.MeanAccuracy, ui.ColorReset())
		}
		highlight := ""
		if r.Model == best && r.Err == nil {
			highlight = fmt.Sprintf(" %s(Optimal)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%g%s\t%g\t%g\t%s%s\n",
			ui.ColorCyan(), r.Model.K, ui.ColorReset(), r.Model.SizeCorrection, r.Model.EnergyScaling, acc, highlight)
	}
	tw.Flush()
}

// printModel prints a one-line description of m prefixed by label.
func printModel(out io.Writer, label string, m circuit.LargePrimeModel) {
	fmt.Fprintf(out, "%s%s%s: k=%s%g%s, size correction=%s%g%s, energy scaling=%s%g%s\n",
		ui.ColorGreen(), label, ui.ColorReset(),
		ui.ColorYellow(), m.K, ui.ColorReset(),
		ui.ColorYellow(), m.SizeCorrection, ui.ColorReset(),
		ui.ColorYellow(), m.EnergyScaling, ui.ColorReset())
}
