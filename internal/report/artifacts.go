package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotFormat selects the image encoding of plot artifacts.
type PlotFormat string

const (
	PlotPNG PlotFormat = "png"
	PlotSVG PlotFormat = "svg"
)

// ErrNoSeries is returned when a plot is requested for a report without
// plottable data.
var ErrNoSeries = errors.New("report has no plottable series")

// ParsePlotFormat validates a plot format name.
func ParsePlotFormat(s string) (PlotFormat, error) {
	switch f := PlotFormat(strings.ToLower(s)); f {
	case PlotPNG, PlotSVG:
		return f, nil
	}
	return "", fmt.Errorf("unknown plot format %q (want png or svg)", s)
}

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// WriteCSV writes t with its column header.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WritePlot draws every series of r on one set of axes, labelled after
// the first series.
//
// Parameters:
//   - w: The destination writer.
//   - r: The report whose series are drawn.
//   - format: The image encoding.
//
// Returns:
//   - error: ErrNoSeries if r has no non-empty series, or an encoding error.
func WritePlot(w io.Writer, r *Report, format PlotFormat) error {
	p := plot.New()
	p.Title.Text = r.Title
	p.Legend.Top = true

	drawn := 0
	for i, s := range r.Series {
		if len(s.X) == 0 {
			continue
		}
		if drawn == 0 {
			p.X.Label.Text = s.XLabel
			p.Y.Label.Text = s.YLabel
		}
		pts := make(plotter.XYs, len(s.X))
		for j := range s.X {
			pts[j].X, pts[j].Y = s.X[j], s.Y[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
		drawn++
	}
	if drawn == 0 {
		return ErrNoSeries
	}
	p.Add(plotter.NewGrid())

	wt, err := p.WriterTo(plotWidth, plotHeight, string(format))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// WriteArtifacts saves the reports under dir, creating it if needed. Each
// report produces <analysis>.json, one <analysis>_<table>.csv per table
// and, when it has series, <analysis>.<format>.
//
// Parameters:
//   - dir: The output directory.
//   - format: The plot encoding.
//   - reports: The reports to save.
//
// Returns:
//   - []string: The paths written, in order.
//   - error: The first failure; paths written before it are still returned.
func WriteArtifacts(dir string, format PlotFormat, reports []*Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	var written []string
	save := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	for _, r := range reports {
		base := slug(r.Analysis)
		if err := save(base+".json", func(w io.Writer) error { return WriteJSON(w, []*Report{r}) }); err != nil {
			return written, err
		}
		for _, t := range r.Tables {
			if err := save(base+"_"+slug(t.Name)+".csv", func(w io.Writer) error { return WriteCSV(w, t) }); err != nil {
				return written, err
			}
		}
		if !hasPoints(r) {
			continue
		}
		if err := save(base+"."+string(format), func(w io.Writer) error { return WritePlot(w, r, format) }); err != nil {
			return written, err
		}
	}
	return written, nil
}

func hasPoints(r *Report) bool {
	for _, s := range r.Series {
		if len(s.X) > 0 {
			return true
		}
	}
	return false
}

// slug lowercases s and replaces every run of characters outside
// [a-z0-9] with a single '-'.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
