package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/calibration"
	"github.com/agbru/primelab/internal/cli"
	"github.com/agbru/primelab/internal/config"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/history"
	"github.com/agbru/primelab/internal/logging"
	"github.com/agbru/primelab/internal/orchestration"
	"github.com/agbru/primelab/internal/refdata"
	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/server"
	"github.com/agbru/primelab/internal/service"
	"github.com/agbru/primelab/internal/ui"
	"github.com/agbru/primelab/pkg/models"
)

// historyWriteTimeout bounds the recording of a finished run, which may
// happen after the run context has expired.
const historyWriteTimeout = 5 * time.Second

// Application is one primelab invocation: the parsed configuration and the
// analyses it can run.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Registry provides the analyses.
	Registry *analysis.Registry
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
}

// New creates an Application by parsing command-line arguments.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for usage and error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: flag.ErrHelp, a parse error or a ConfigError.
func New(args []string, errWriter io.Writer) (*Application, error) {
	registry := analysis.DefaultRegistry()

	programName := "primelab"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, registry.List())
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		Registry:  registry,
		ErrWriter: errWriter,
	}, nil
}

// Run dispatches to the mode selected by the configuration, in order:
// completion, history listing, server, REPL, calibration, and finally the
// analyses. Calibration loads neither the reference data nor a cached
// profile.
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.InitTheme(a.Config.NoColor, a.Config.Theme)
	logging.SetVerbose(a.Config.Verbose)

	if a.Config.HistoryShow > 0 {
		return a.runHistoryShow(ctx, out)
	}

	if a.Config.Calibrate && !a.Config.ServerMode && !a.Config.Interactive {
		return a.runCalibration(ctx, out)
	}

	opts, err := a.envOptions()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	switch {
	case a.Config.ServerMode:
		return a.runServer(opts)
	case a.Config.Interactive:
		return a.runREPL(opts)
	}
	return a.runAnalyses(ctx, out, opts)
}

// envOptions builds the analysis environment options: circuit settings
// from the flags, the reference dataset, and the cached calibration when a
// valid profile exists.
func (a *Application) envOptions() (analysis.EnvOptions, error) {
	opts, err := a.Config.ToEnvOptions()
	if err != nil {
		return analysis.EnvOptions{}, err
	}
	dataset, err := refdata.Load(a.Config.Reference)
	if err != nil {
		return analysis.EnvOptions{}, apperrors.NewConfigError("reference data: %v", err)
	}
	opts.Dataset = dataset

	if calibrated, ok := calibration.LoadCachedCalibration(opts, a.Config.CalibrationProfile); ok {
		logging.NewDefaultLogger().Debug("using cached calibration",
			logging.Float64("k", calibrated.LargePrime.K),
			logging.Float64("size_correction", calibrated.LargePrime.SizeCorrection),
			logging.Float64("energy_scaling", calibrated.LargePrime.EnergyScaling))
		opts = calibrated
	}
	return opts, nil
}

func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Registry.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

func (a *Application) openHistory(ctx context.Context) (*history.Store, error) {
	return history.Open(ctx, a.Config.HistoryPath, logging.NewDefaultLogger())
}

// runHistoryShow prints the most recent recorded runs.
func (a *Application) runHistoryShow(ctx context.Context, out io.Writer) int {
	if a.Config.HistoryPath == "" {
		fmt.Fprintln(a.ErrWriter, "Configuration error: -history-show requires -history <path>")
		return apperrors.ExitErrorConfig
	}
	store, err := a.openHistory(ctx)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "History error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	defer store.Close()

	runs, err := store.Recent(ctx, a.Config.HistoryShow)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "History error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	if err := cli.DisplayHistory(out, runs, a.Config.Verbose, a.Config.JSONOutput); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runServer serves the HTTP API until a termination signal.
func (a *Application) runServer(opts analysis.EnvOptions) int {
	serverOpts := []server.Option{
		server.WithService(service.NewPrimeService(a.Registry, opts, 0)),
		server.WithVersion(Version),
	}
	if a.Config.HistoryPath != "" {
		store, err := a.openHistory(context.Background())
		if err != nil {
			fmt.Fprintf(a.ErrWriter, "History error: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		defer store.Close()
		serverOpts = append(serverOpts, server.WithHistory(store))
	}

	srv := server.NewServer(a.Config, serverOpts...)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runREPL starts the interactive session on stdin and stdout.
func (a *Application) runREPL(opts analysis.EnvOptions) int {
	repl := cli.NewREPL(service.NewPrimeService(a.Registry, opts, 0), cli.REPLConfig{
		Limit:   a.Config.Limit,
		Timeout: a.Config.Timeout,
		Verbose: a.Config.Verbose,
	})
	repl.Start()
	return apperrors.ExitSuccess
}

// runCalibration grid-searches the large-prime model within the run
// timeout.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, cancel := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancel.Cleanup()

	_, code := calibration.RunCalibrationWithOptions(ctx, out, calibration.CalibrationOptions{
		ProfilePath: a.Config.CalibrationProfile,
		SaveProfile: true,
		Voltage:     a.Config.Voltages[0],
		Rows:        a.tableRows(),
	})
	return code
}

func (a *Application) tableRows() int {
	if a.Config.Verbose {
		return calibration.DefaultGrid().Size()
	}
	return calibration.DefaultTableRows
}

// runAnalyses runs the selected analyses in parallel, prints and saves
// their reports, and records the run when a history database is set.
func (a *Application) runAnalyses(ctx context.Context, out io.Writer, opts analysis.EnvOptions) int {
	ctx, cancel := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancel.Cleanup()

	analyses, err := a.Registry.Select(a.Config.Analysis)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	plain := a.Config.JSONOutput || a.Config.Quiet
	if !plain {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(analyses, out)
	}
	progressOut := out
	if plain {
		progressOut = io.Discard
	}

	started := time.Now()
	env, err := analysis.NewEnv(ctx, opts)
	if err != nil {
		return apperrors.HandleAnalysisError(err, time.Since(started), a.ErrWriter, cli.CLIColorProvider{})
	}

	results := orchestration.ExecuteAnalyses(ctx, analyses, env, progressOut)
	reports := orchestration.Reports(results)

	plotFormat, _ := report.ParsePlotFormat(a.Config.PlotFormat)
	outputCfg := cli.OutputConfig{
		Quiet:      a.Config.Quiet,
		JSON:       a.Config.JSONOutput,
		Verbose:    a.Config.Verbose,
		OutDir:     a.Config.OutDir,
		PlotFormat: plotFormat,
	}
	if !plain {
		fmt.Fprintln(out)
	}
	if err := cli.DisplayReports(out, reports, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing reports: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	var exitCode int
	if plain {
		exitCode = orchestration.ExitCode(results)
	} else {
		exitCode = orchestration.SummarizeResults(results, out)
	}

	if err := cli.SaveArtifacts(out, reports, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		if exitCode == apperrors.ExitSuccess {
			exitCode = apperrors.ExitErrorGeneric
		}
	}

	if a.Config.HistoryPath != "" {
		a.recordRun(out, buildRun(results, started, time.Since(started), a.Config.Limit, exitCode), plain)
	}
	return exitCode
}

// recordRun stores run in the history database. Failures are reported but
// do not change the exit code.
func (a *Application) recordRun(out io.Writer, run models.Run, quiet bool) {
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	store, err := a.openHistory(ctx)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Warning: could not open history: %v\n", err)
		return
	}
	defer store.Close()

	id, err := store.RecordRun(ctx, run)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Warning: could not record run: %v\n", err)
		return
	}
	if !quiet {
		fmt.Fprintf(out, "%sRun recorded as %s%s\n", ui.ColorCyan(), id, ui.ColorReset())
	}
}

// buildRun converts analysis results into a history record.
func buildRun(results []orchestration.AnalysisResult, started time.Time, elapsed time.Duration, limit, exitCode int) models.Run {
	run := models.Run{
		Started:  started,
		Duration: elapsed.Round(time.Millisecond).String(),
		Limit:    limit,
		Status:   runStatus(exitCode),
		Analyses: make([]models.AnalysisOutcome, 0, len(results)),
	}
	for _, r := range results {
		o := models.AnalysisOutcome{
			Name:     r.Name,
			Status:   history.StatusSuccess,
			Duration: r.Duration.Round(time.Microsecond).String(),
		}
		if r.Err != nil {
			o.Status = history.StatusFailure
			o.Error = r.Err.Error()
		}
		if r.Report != nil {
			o.Summary = make(map[string]float64, len(r.Report.Summary))
			for _, m := range r.Report.Summary {
				o.Summary[m.Name] = m.Value
			}
		}
		run.Analyses = append(run.Analyses, o)
	}
	return run
}

func runStatus(exitCode int) string {
	switch exitCode {
	case apperrors.ExitSuccess:
		return history.StatusSuccess
	case apperrors.ExitErrorPartial:
		return history.StatusPartial
	default:
		return history.StatusFailure
	}
}

// IsHelpError reports whether err is the result of -h or -help.
func IsHelpError(err error) bool {
	return config.IsHelp(err)
}
