package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/config"
	"github.com/agbru/primelab/internal/ui"
)

// CPUFeatures lists the SIMD extensions reported by the processor, e.g.
// "AVX2 FMA" on x86-64 or "ASIMD" on arm64, or "none".
func CPUFeatures() string {
	var feats []string
	switch runtime.GOARCH {
	case "amd64", "386":
		for _, f := range []struct {
			name string
			ok   bool
		}{
			{"SSE4.2", cpu.X86.HasSSE42},
			{"AVX", cpu.X86.HasAVX},
			{"AVX2", cpu.X86.HasAVX2},
			{"AVX512F", cpu.X86.HasAVX512F},
			{"FMA", cpu.X86.HasFMA},
		} {
			if f.ok {
				feats = append(feats, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			feats = append(feats, "ASIMD")
		}
		if cpu.ARM64.HasSVE {
			feats = append(feats, "SVE")
		}
	}
	if len(feats) == 0 {
		return "none"
	}
	return strings.Join(feats, " ")
}

// PrintExecutionConfig prints the run configuration banner.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The destination writer.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Analysing primes up to %s%s%s with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), FormatCount(cfg.Limit), ui.ColorReset(), ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Circuit model: %s%s%s correction, voltages %s%s%s V.\n",
		ui.ColorCyan(), cfg.Correction, ui.ColorReset(), ui.ColorCyan(), cfg.Voltages.String(), ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s, SIMD: %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(),
		ui.ColorCyan(), runtime.Version(), ui.ColorReset(),
		ui.ColorCyan(), CPUFeatures(), ui.ColorReset())
}

// PrintExecutionMode prints whether one analysis or several run, then the
// start marker.
func PrintExecutionMode(analyses []analysis.Analysis, out io.Writer) {
	var modeDesc string
	switch len(analyses) {
	case 0:
		modeDesc = "nothing to run"
	case 1:
		modeDesc = fmt.Sprintf("single analysis %s%s%s", ui.ColorGreen(), analyses[0].Name(), ui.ColorReset())
	default:
		modeDesc = fmt.Sprintf("%s%d%s analyses in parallel", ui.ColorGreen(), len(analyses), ui.ColorReset())
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
