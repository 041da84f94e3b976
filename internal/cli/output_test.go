package cli

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/testutil"
)

func sampleReports() []*report.Report {
	a := report.New("frequency-law", "Frequency Law")
	a.AddMetric("primes", 168, "")
	a.AddMetric("max deviation", 1e-12, "")
	tbl := a.AddTable("samples", "p", "f")
	tbl.AddRow(2, 0.6366)
	a.AddSeries("f(p)", "p", "f", []float64{2, 3, 5}, []float64{0.64, 0.95, 1.59})

	b := report.New("gaps", "Prime Gaps")
	b.AddMetric("max gap", 20, "")
	b.AddMetric("ratio", math.NaN(), "")
	return []*report.Report{a, b}
}

func TestFormatQuietReport(t *testing.T) {
	t.Parallel()
	got := FormatQuietReport(sampleReports()[0])
	want := "frequency-law primes=168 max_deviation=1e-12"
	if got != want {
		t.Errorf("FormatQuietReport = %q, want %q", got, want)
	}
}

func TestDisplayReports(t *testing.T) {
	t.Parallel()
	reports := sampleReports()

	t.Run("quiet", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := DisplayReports(&buf, reports, OutputConfig{Quiet: true}); err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
		}
		if lines[1] != "gaps max_gap=20 ratio=NaN" {
			t.Errorf("Unexpected quiet line %q", lines[1])
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := DisplayReports(&buf, reports, OutputConfig{JSON: true, Quiet: true}); err != nil {
			t.Fatal(err)
		}
		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("Expected valid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0]["analysis"] != "frequency-law" {
			t.Errorf("Unexpected JSON document: %v", decoded)
		}
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := DisplayReports(&buf, reports, OutputConfig{}); err != nil {
			t.Fatal(err)
		}
		got := testutil.StripAnsiCodes(buf.String())
		for _, w := range []string{"=== Frequency Law ===", "=== Prime Gaps ===", "--- samples ---"} {
			if !strings.Contains(got, w) {
				t.Errorf("Expected text output to contain %q", w)
			}
		}
	})
}

func TestSaveArtifacts(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "out")
	var buf bytes.Buffer
	cfg := OutputConfig{OutDir: dir, PlotFormat: report.PlotSVG}
	if err := SaveArtifacts(&buf, sampleReports(), cfg); err != nil {
		t.Fatalf("SaveArtifacts failed: %v", err)
	}
	for _, name := range []string{"frequency-law.json", "frequency-law.svg", "gaps.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected artifact %s: %v", name, err)
		}
	}
	if !strings.Contains(testutil.StripAnsiCodes(buf.String()), "artifacts saved to: "+dir) {
		t.Errorf("Expected a confirmation line, got %q", buf.String())
	}
}

func TestSaveArtifactsDisabled(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := SaveArtifacts(&buf, sampleReports(), OutputConfig{}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output without an artifact directory, got %q", buf.String())
	}

	dir := t.TempDir()
	if err := SaveArtifacts(&buf, sampleReports(), OutputConfig{OutDir: dir, Quiet: true}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected quiet mode to print nothing, got %q", buf.String())
	}
}
