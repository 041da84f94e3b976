package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/agbru/primelab/internal/ui"
	"github.com/agbru/primelab/pkg/models"
)

// shortID keeps the first eight characters of a run ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusColor(status string) string {
	switch status {
	case "success":
		return ui.ColorGreen()
	case "partial":
		return ui.ColorYellow()
	default:
		return ui.ColorRed()
	}
}

// DisplayHistory prints recorded runs, newest first. With verbose each run
// is followed by its analyses; with asJSON the runs are printed as a
// models.HistoryResponse.
//
// Parameters:
//   - out: The destination writer.
//   - runs: The runs, newest first.
//   - verbose: Whether to list the analyses of each run.
//   - asJSON: Whether to print JSON instead of a table.
//
// Returns:
//   - error: The first write error.
func DisplayHistory(out io.Writer, runs []models.Run, verbose, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.HistoryResponse{Runs: runs})
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No recorded runs.")
		return err
	}

	fmt.Fprintf(out, "--- Recent Runs ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sRun%s\t%sStarted%s\t%sLimit%s\t%sAnalyses%s\t%sDuration%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	for _, r := range runs {
		ok := 0
		for _, a := range r.Analyses {
			if a.Error == "" {
				ok++
			}
		}
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s\t%d/%d\t%s\t%s%s%s\n",
			ui.ColorBlue(), shortID(r.ID), ui.ColorReset(),
			r.Started.Local().Format(time.DateTime),
			FormatCount(r.Limit),
			ok, len(r.Analyses),
			r.Duration,
			statusColor(r.Status), r.Status, ui.ColorReset())
		if verbose {
			for _, a := range r.Analyses {
				detail := a.Duration
				if a.Error != "" {
					detail = a.Error
				}
				fmt.Fprintf(tw, "\t  %s\t\t\t%s\t%s%s%s\n", a.Name, detail, statusColor(a.Status), a.Status, ui.ColorReset())
			}
		}
	}
	return tw.Flush()
}
