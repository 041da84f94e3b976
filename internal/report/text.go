package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/agbru/primelab/internal/ui"
)

// MaxTextRows is the number of table rows shown in the terminal unless
// verbose output is requested.
const MaxTextRows = 15

// WriteText renders r for the terminal using the current theme.
//
// Parameters:
//   - w: The destination writer.
//   - r: The report to render.
//   - verbose: If true, tables are printed in full.
//
// Returns:
//   - error: The first write or flush error.
func WriteText(w io.Writer, r *Report, verbose bool) error {
	if _, err := fmt.Fprintf(w, "\n%s=== %s ===%s %s(%s)%s\n",
		ui.ColorBold(), r.Title, ui.ColorReset(), ui.ColorCyan(), r.Analysis, ui.ColorReset()); err != nil {
		return err
	}

	if len(r.Summary) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, m := range r.Summary {
			fmt.Fprintf(tw, "  %s\t%s%s%s\t%s\n", m.Name, ui.ColorGreen(), formatMetric(m.Value), ui.ColorReset(), m.Unit)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, t := range r.Tables {
		if err := writeTable(w, t, verbose); err != nil {
			return err
		}
	}

	for _, n := range r.Notes {
		if _, err := fmt.Fprintf(w, "%s• %s%s\n", ui.ColorYellow(), n, ui.ColorReset()); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, t *Table, verbose bool) error {
	fmt.Fprintf(w, "\n%s--- %s ---%s\n", ui.ColorBlue(), t.Name, ui.ColorReset())
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.AlignRight)
	for i, c := range t.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprint(tw, "\t\n")

	rows := t.Rows
	hidden := 0
	if !verbose && len(rows) > MaxTextRows {
		hidden = len(rows) - MaxTextRows
		rows = rows[:MaxTextRows]
	}
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprint(tw, "\t\n")
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if hidden > 0 {
		fmt.Fprintf(w, "  ... %d more rows (use -v to show all)\n", hidden)
	}
	return nil
}

func formatMetric(v float64) string {
	if v == float64(int64(v)) && v < 1e15 && v > -1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.6g", v)
}

// WriteJSON encodes the reports as an indented JSON array.
func WriteJSON(w io.Writer, reports []*Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
