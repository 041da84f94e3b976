package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/service"
	"github.com/agbru/primelab/internal/ui"
	"github.com/agbru/primelab/pkg/models"
)

// maxListedPrimes caps the primes printed by the primes command.
const maxListedPrimes = 100

// REPLConfig holds the session defaults.
type REPLConfig struct {
	// Limit is the default sieve bound for predict and run.
	Limit int
	// Predictor is the default predictor; empty selects the service default.
	Predictor string
	// Timeout bounds every command.
	Timeout time.Duration
	// Verbose prints analysis tables in full.
	Verbose bool
}

// REPL is an interactive session over a service.Service.
type REPL struct {
	config  REPLConfig
	service service.Service
	in      io.Reader
	out     io.Writer
}

// NewREPL creates a session reading stdin and writing stdout.
func NewREPL(svc service.Service, config REPLConfig) *REPL {
	if config.Limit < 2 {
		config.Limit = 1000
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	return &REPL{
		config:  config,
		service: svc,
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// SetInput replaces the input reader.
func (r *REPL) SetInput(in io.Reader) { r.in = in }

// SetOutput replaces the output writer.
func (r *REPL) SetOutput(out io.Writer) { r.out = out }

// Start reads and executes commands until exit or EOF.
func (r *REPL) Start() {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)
	for {
		fmt.Fprint(r.out, ui.ColorGreen()+"primelab> "+ui.ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && strings.TrimSpace(input) != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !r.processCommand(input) {
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════════════════╗%s\n", ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s║%s     %sprimelab - Interactive Mode%s                          %s║%s\n",
		ui.ColorCyan(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════════════════╝%s\n\n", ui.ColorCyan(), ui.ColorReset())
}

func (r *REPL) printHelp() {
	cmd := func(name, desc string) {
		fmt.Fprintf(r.out, "  %s%-24s%s - %s\n", ui.ColorYellow(), name, ui.ColorReset(), desc)
	}
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	cmd("features <p> [omega]", "Circuit quantities and nearest zero of p")
	cmd("nearest <v> [raw]", "Reference zero closest to v (by frequency unless raw)")
	cmd("predict [method] [limit]", "Predict the prime after the largest prime <= limit")
	cmd("primes <n>", "List the primes up to n")
	cmd("check <n>", "Primality of n and its neighbouring primes")
	cmd("run <analysis> [limit]", "Run one analysis and print its report")
	cmd("list", "List analyses and predictors")
	cmd("limit <n>", "Change the default limit")
	cmd("status", "Display the session settings")
	cmd("help", "Display this help")
	cmd("exit / quit", "Leave interactive mode")
}

// processCommand executes one command line and returns false on exit.
func (r *REPL) processCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	var err error
	switch cmd {
	case "features", "f":
		err = r.cmdFeatures(ctx, args)
	case "nearest", "n":
		err = r.cmdNearest(ctx, args)
	case "predict", "p":
		err = r.cmdPredict(ctx, args)
	case "primes":
		err = r.cmdPrimes(ctx, args)
	case "check", "c":
		err = r.cmdCheck(args)
	case "run", "r":
		err = r.cmdRun(ctx, args)
	case "list", "ls":
		r.cmdList()
	case "limit":
		err = r.cmdLimit(args)
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		if _, convErr := strconv.Atoi(cmd); convErr == nil {
			err = r.cmdFeatures(ctx, []string{cmd})
		} else {
			fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
			fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
		}
	}
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
	}
	return true
}

func usageError(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", s)
	}
	return n, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", s)
	}
	return v, nil
}

func (r *REPL) cmdFeatures(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("features <p> [omega]")
	}
	p, err := parseInt(args[0])
	if err != nil {
		return err
	}
	var omega float64
	if len(args) > 1 {
		if omega, err = parseFloat(args[1]); err != nil {
			return err
		}
	}
	f, err := r.service.Features(ctx, p, omega)
	if err != nil {
		return err
	}

	kind := ui.Paint(ui.ColorGreen(), "prime")
	if !f.IsPrime {
		kind = ui.Paint(ui.ColorYellow(), "not prime")
	}
	fmt.Fprintf(r.out, "\n%sFeatures of %d%s (%s)\n", ui.ColorBold(), f.Prime, ui.ColorReset(), kind)
	row := func(label string, v float64) {
		fmt.Fprintf(r.out, "  %-16s %s%.6g%s\n", label, ui.ColorCyan(), v, ui.ColorReset())
	}
	row("Frequency p/π", f.Frequency)
	row("R (Ω)", f.Resistance)
	row("L (H)", f.Inductance)
	row("C (F)", f.Capacitance)
	row("ω (rad/s)", f.Omega)
	row("X_L", f.XL)
	row("X_C", f.XC)
	row("|Z|", f.Impedance)
	row("Phase (rad)", f.Phase)
	row("Nearest zero", f.NearestZero)
	row("Zero frequency", f.ZeroFrequency)
	row("Distance", f.Distance)
	row("Strength", f.Strength)
	fmt.Fprintln(r.out)
	return nil
}

func (r *REPL) cmdNearest(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("nearest <value> [raw|frequency]")
	}
	v, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	mode := models.ModeFrequency
	if len(args) > 1 {
		mode = args[1]
	}
	nz, err := r.service.NearestZero(ctx, v, mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Zero #%s%d%s t = %s%.6f%s (%s value %.6f), distance %.6g, strength %.4f\n",
		ui.ColorMagenta(), nz.Index, ui.ColorReset(),
		ui.ColorGreen(), nz.Zero, ui.ColorReset(),
		nz.Mode, nz.Value, nz.Distance, nz.Strength)
	return nil
}

func (r *REPL) cmdPredict(ctx context.Context, args []string) error {
	method := r.config.Predictor
	limit := r.config.Limit
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			limit = n
		} else {
			method = a
		}
	}
	pred, err := r.service.Predict(ctx, method, limit)
	if err != nil {
		return err
	}
	status := ui.Paint(ui.ColorRed(), "✗ miss")
	if pred.Hit {
		status = ui.Paint(ui.ColorGreen(), "✓ hit")
	}
	fmt.Fprintf(r.out, "%s%s%s after %d: predicted %s%d%s (raw %.4f, confidence %.2f), actual %d, accuracy %.2f%% %s\n",
		ui.ColorYellow(), pred.Method, ui.ColorReset(), pred.Last,
		ui.ColorCyan(), pred.Predicted, ui.ColorReset(), pred.Raw, pred.Confidence,
		pred.Actual, pred.Accuracy, status)
	return nil
}

func (r *REPL) cmdPrimes(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("primes <n>")
	}
	n, err := parseInt(args[0])
	if err != nil {
		return err
	}
	resp, err := r.service.Primes(ctx, n)
	if err != nil {
		return err
	}
	shown := resp.Primes
	if len(shown) > maxListedPrimes {
		shown = shown[len(shown)-maxListedPrimes:]
	}
	strs := make([]string, len(shown))
	for i, p := range shown {
		strs[i] = strconv.Itoa(p)
	}
	fmt.Fprintf(r.out, "π(%d) = %s%s%s\n", n, ui.ColorGreen(), FormatCount(resp.Count), ui.ColorReset())
	if len(shown) < resp.Count {
		fmt.Fprintf(r.out, "last %d: ", len(shown))
	}
	fmt.Fprintln(r.out, strings.Join(strs, " "))
	return nil
}

func (r *REPL) cmdCheck(args []string) error {
	if len(args) == 0 {
		return usageError("check <n>")
	}
	n, err := parseInt(args[0])
	if err != nil {
		return err
	}
	if primes.IsPrime(n) {
		fmt.Fprintf(r.out, "%d is %sprime%s", n, ui.ColorGreen(), ui.ColorReset())
	} else {
		fmt.Fprintf(r.out, "%d is %snot prime%s", n, ui.ColorYellow(), ui.ColorReset())
	}
	if prev, ok := primes.PrevPrime(n); ok {
		fmt.Fprintf(r.out, "; previous prime %d", prev)
	}
	fmt.Fprintf(r.out, "; next prime %d\n", primes.NextPrime(n))
	return nil
}

func (r *REPL) cmdRun(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("run <analysis> [limit]")
	}
	limit := r.config.Limit
	if len(args) > 1 {
		n, err := parseInt(args[1])
		if err != nil {
			return err
		}
		limit = n
	}
	start := time.Now()
	rep, err := r.service.RunAnalysis(ctx, args[0], limit)
	if err != nil {
		return err
	}
	if err := report.WriteText(r.out, rep, r.config.Verbose); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "\nCompleted in %s%s%s\n\n", ui.ColorGreen(), FormatExecutionDuration(time.Since(start)), ui.ColorReset())
	return nil
}

func (r *REPL) cmdList() {
	fmt.Fprintf(r.out, "\n%sAnalyses:%s\n", ui.ColorBold(), ui.ColorReset())
	for _, a := range r.service.Analyses() {
		fmt.Fprintf(r.out, "  %s%-18s%s %s\n", ui.ColorYellow(), a.Name, ui.ColorReset(), a.Description)
	}
	fmt.Fprintf(r.out, "%sPredictors:%s\n  %s\n\n", ui.ColorBold(), ui.ColorReset(), strings.Join(r.service.Predictors(), ", "))
}

func (r *REPL) cmdLimit(args []string) error {
	if len(args) == 0 {
		return usageError("limit <n>")
	}
	n, err := parseInt(args[0])
	if err != nil {
		return err
	}
	if n < 2 || n > primes.MaxLimit {
		return fmt.Errorf("limit must be between 2 and %d", primes.MaxLimit)
	}
	r.config.Limit = n
	fmt.Fprintf(r.out, "Default limit changed to: %s%s%s\n", ui.ColorGreen(), FormatCount(n), ui.ColorReset())
	return nil
}

func (r *REPL) cmdStatus() {
	predictor := r.config.Predictor
	if predictor == "" {
		predictor = service.DefaultPredictor
	}
	fmt.Fprintf(r.out, "\n%sCurrent configuration:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Limit:      %s%s%s\n", ui.ColorCyan(), FormatCount(r.config.Limit), ui.ColorReset())
	fmt.Fprintf(r.out, "  Predictor:  %s%s%s\n", ui.ColorCyan(), predictor, ui.ColorReset())
	fmt.Fprintf(r.out, "  Timeout:    %s%s%s\n", ui.ColorCyan(), r.config.Timeout, ui.ColorReset())
	fmt.Fprintln(r.out)
}
