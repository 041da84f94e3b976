// Package config parses and validates the primelab command line. Every
// flag can also be supplied through a PRIMELAB_-prefixed environment
// variable; an explicit flag always wins over the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/circuit"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/ui"
)

// EnvPrefix prefixes every environment variable read by primelab.
const EnvPrefix = "PRIMELAB_"

// Defaults.
const (
	DefaultLimit      = 1000
	DefaultTimeout    = 2 * time.Minute
	DefaultPort       = "8080"
	DefaultAnalysis   = analysis.All
	DefaultCorrection = "dynamic"
	DefaultPlotFormat = "png"
	DefaultTheme      = "dark"
	// MinLimit is the smallest sieve bound worth analysing.
	MinLimit = 2
)

// AppConfig is the parsed command line.
type AppConfig struct {
	// Limit is the sieve bound for the analyses.
	Limit int
	// Analysis is "all" or a comma-separated list of analysis names.
	Analysis string
	// Voltages are the applied circuit voltages, first one used by the
	// predictors.
	Voltages Voltages
	// Correction is the circuit correction model: "static" or "dynamic".
	Correction string
	// Timeout bounds the whole run.
	Timeout time.Duration

	// OutDir receives CSV, JSON and plot artifacts; empty disables them.
	OutDir string
	// PlotFormat is "png" or "svg".
	PlotFormat string
	// Reference is an optional YAML file replacing the embedded reference
	// data.
	Reference string

	// HistoryPath is the SQLite database recording runs; empty disables
	// recording.
	HistoryPath string
	// HistoryShow prints the N most recent runs and exits when positive.
	HistoryShow int

	JSONOutput bool
	Quiet      bool
	// Verbose enables debug logging and untruncated tables.
	Verbose bool

	ServerMode  bool
	Port        string
	Interactive bool

	// Calibrate grid-searches the large-prime model and saves a profile.
	Calibrate bool
	// CalibrationProfile overrides ~/.primelab_calibration.json.
	CalibrationProfile string

	NoColor bool
	Theme   string
	// Completion is a shell name: bash, zsh, fish or powershell.
	Completion string
}

// Voltages is a flag.Value holding a comma-separated list of voltages.
type Voltages []float64

func (v *Voltages) String() string {
	if v == nil {
		return ""
	}
	parts := make([]string, len(*v))
	for i, x := range *v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Set parses a comma-separated list, replacing any previous value.
func (v *Voltages) Set(s string) error {
	var out Voltages
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		x, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return fmt.Errorf("invalid voltage %q", part)
		}
		out = append(out, x)
	}
	*v = out
	return nil
}

// ToEnvOptions converts the configuration into analysis environment
// options. The reference dataset and the large-prime model are filled in
// by the caller once the reference file and calibration profile are
// loaded.
func (c AppConfig) ToEnvOptions() (analysis.EnvOptions, error) {
	corrector, err := circuit.CorrectorByName(c.Correction)
	if err != nil {
		return analysis.EnvOptions{}, apperrors.NewConfigError("%v", err)
	}
	return analysis.EnvOptions{
		Limit:     c.Limit,
		Voltages:  slices.Clone(c.Voltages),
		Corrector: corrector,
	}, nil
}

// Validate checks the configuration for consistency.
//
// Parameters:
//   - availableAnalyses: The registered analysis names.
//
// Returns:
//   - error: A ConfigError describing the first problem, or nil.
func (c AppConfig) Validate(availableAnalyses []string) error {
	if c.Limit < MinLimit || c.Limit > primes.MaxLimit {
		return apperrors.NewConfigError("limit must be between %d and %d, got %d", MinLimit, primes.MaxLimit, c.Limit)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be strictly positive")
	}
	if len(c.Voltages) == 0 {
		return apperrors.NewConfigError("at least one voltage is required")
	}
	for _, v := range c.Voltages {
		if v <= 0 {
			return apperrors.NewConfigError("voltages must be positive, got %g", v)
		}
	}
	if !slices.Contains(circuit.Correctors(), c.Correction) {
		return apperrors.NewConfigError("unknown correction model %q; valid models are [%s]",
			c.Correction, strings.Join(circuit.Correctors(), ", "))
	}
	if c.Analysis != analysis.All {
		for _, name := range strings.Split(c.Analysis, ",") {
			name = strings.TrimSpace(name)
			if name != "" && !slices.Contains(availableAnalyses, name) {
				return apperrors.NewConfigError("unknown analysis %q; valid analyses are 'all' or [%s]",
					name, strings.Join(availableAnalyses, ", "))
			}
		}
	}
	if _, err := report.ParsePlotFormat(c.PlotFormat); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if c.HistoryShow < 0 {
		return apperrors.NewConfigError("history-show cannot be negative: %d", c.HistoryShow)
	}
	if !slices.Contains(ui.ThemeNames(), c.Theme) {
		return apperrors.NewConfigError("unknown theme %q; valid themes are [%s]",
			c.Theme, strings.Join(ui.ThemeNames(), ", "))
	}
	return nil
}

// ParseConfig parses args into an AppConfig, applies environment
// overrides and validates the result.
//
// Parameters:
//   - programName: The program name shown in the usage text.
//   - args: The arguments, without the program name.
//   - errorWriter: Where usage and parse errors are printed.
//   - availableAnalyses: The registered analysis names.
//
// Returns:
//   - AppConfig: The configuration.
//   - error: flag.ErrHelp for -h, a parse error, or a ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableAnalyses []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{Voltages: slices.Clone(Voltages(analysis.DefaultVoltages))}
	fs.IntVar(&config.Limit, "limit", DefaultLimit, "Sieve bound for the analyses.")
	fs.StringVar(&config.Analysis, "analysis", DefaultAnalysis,
		fmt.Sprintf("Analyses to run: 'all' or a comma list of [%s].", strings.Join(availableAnalyses, ", ")))
	fs.Var(&config.Voltages, "voltages", "Comma-separated applied voltages for the circuit analyses.")
	fs.StringVar(&config.Correction, "correction", DefaultCorrection, "Circuit correction model: static or dynamic.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum duration of the whole run.")
	fs.StringVar(&config.OutDir, "out", "", "Directory for CSV, JSON and plot artifacts.")
	fs.StringVar(&config.PlotFormat, "plot-format", DefaultPlotFormat, "Plot format: png or svg.")
	fs.StringVar(&config.Reference, "reference", "", "YAML file overriding the embedded zeta zeros and small primes.")
	fs.StringVar(&config.HistoryPath, "history", "", "SQLite database recording each run.")
	fs.IntVar(&config.HistoryShow, "history-show", 0, "Print the N most recent recorded runs and exit.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Print reports as JSON.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Minimal output (shorthand).")
	fs.BoolVar(&config.Verbose, "v", false, "Debug logging and full tables.")
	fs.BoolVar(&config.ServerMode, "server", false, "Serve the HTTP API.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port for the HTTP API.")
	fs.BoolVar(&config.Interactive, "interactive", false, "Start the interactive REPL.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Grid-search the large-prime model and save a calibration profile.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Calibration profile path (default: ~/.primelab_calibration.json).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colours (NO_COLOR is also honoured).")
	fs.StringVar(&config.Theme, "theme", DefaultTheme, "Colour theme: dark, light or none.")
	fs.StringVar(&config.Completion, "completion", "", "Print a completion script for bash, zsh, fish or powershell.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if err := applyEnvOverrides(&config, fs); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		return AppConfig{}, err
	}

	config.Analysis = strings.ToLower(strings.TrimSpace(config.Analysis))
	if config.Analysis == "" {
		config.Analysis = analysis.All
	}
	config.Correction = strings.ToLower(config.Correction)
	config.PlotFormat = strings.ToLower(config.PlotFormat)
	if err := config.Validate(availableAnalyses); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}

// IsHelp reports whether err is the result of -h or -help.
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
