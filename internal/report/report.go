// Package report defines the document every analysis produces and the
// writers that render it: a themed text view for the terminal, JSON for
// machines, one CSV file per table and one plot per report.
//
// A Report is plain data. Analyses fill it through the helper methods and
// never write to the terminal themselves.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Metric is a single named summary value.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// MarshalJSON encodes a non-finite value as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	type plain Metric
	if finite(m.Value) {
		return json.Marshal(plain(m))
	}
	return json.Marshal(struct {
		Name  string   `json:"name"`
		Value *float64 `json:"value"`
		Unit  string   `json:"unit,omitempty"`
	}{Name: m.Name, Unit: m.Unit})
}

// Table is a rectangular block of preformatted cells.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Series is a named curve for plotting. X and Y have the same length.
type Series struct {
	Name   string    `json:"name"`
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
}

// Report is the outcome of one analysis run.
type Report struct {
	Analysis string    `json:"analysis"`
	Title    string    `json:"title"`
	Summary  []Metric  `json:"summary"`
	Tables   []*Table  `json:"tables,omitempty"`
	Series   []*Series `json:"series,omitempty"`
	Notes    []string  `json:"notes,omitempty"`
}

// New returns an empty report for the named analysis.
func New(analysis, title string) *Report {
	return &Report{Analysis: analysis, Title: title}
}

// AddMetric appends a summary value.
func (r *Report) AddMetric(name string, value float64, unit string) {
	r.Summary = append(r.Summary, Metric{Name: name, Value: value, Unit: unit})
}

// Metric looks up a summary value by name.
func (r *Report) Metric(name string) (float64, bool) {
	for _, m := range r.Summary {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// AddTable appends an empty table and returns it for filling.
func (r *Report) AddTable(name string, columns ...string) *Table {
	t := &Table{Name: name, Columns: columns}
	r.Tables = append(r.Tables, t)
	return t
}

// Table looks up a table by name.
func (r *Report) Table(name string) *Table {
	for _, t := range r.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// AddSeries appends a plot series. Points where either coordinate is not
// finite are dropped, as are unpaired trailing values.
func (r *Report) AddSeries(name, xLabel, yLabel string, x, y []float64) {
	n := min(len(x), len(y))
	s := &Series{Name: name, XLabel: xLabel, YLabel: yLabel, X: make([]float64, 0, n), Y: make([]float64, 0, n)}
	for i := 0; i < n; i++ {
		if finite(x[i]) && finite(y[i]) {
			s.X = append(s.X, x[i])
			s.Y = append(s.Y, y[i])
		}
	}
	r.Series = append(r.Series, s)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Notef appends a free-form remark.
func (r *Report) Notef(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// AddRow formats values and appends them as a row. Missing trailing cells
// are left empty; extra values are dropped.
func (t *Table) AddRow(values ...any) {
	row := make([]string, len(t.Columns))
	for i := 0; i < len(row) && i < len(values); i++ {
		row[i] = FormatCell(values[i])
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// FormatCell renders a value the way tables display it: floats with six
// decimals, non-finite floats as NaN/Inf, everything else with %v.
func FormatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if !finite(x) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return strconv.FormatFloat(x, 'f', 6, 64)
	case float32:
		return FormatCell(float64(x))
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
