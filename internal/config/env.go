package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/primelab/internal/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Overrides
// ─────────────────────────────────────────────────────────────────────────────

func lookupEnv(key string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func getEnvString(key, defaultVal string) string {
	if val, ok := lookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt falls back to defaultVal when the variable is unset or not an
// integer.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool accepts true/1/yes and false/0/no, case-insensitively.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := lookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet reports whether any of names was given on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, n := range names {
			if f.Name == n {
				found = true
			}
		}
	})
	return found
}

// envBinding ties a flag (and its aliases) to the variable overriding it.
type envBinding struct {
	flags []string
	key   string
	apply func(c *AppConfig, key string) error
}

func stringVar(field func(*AppConfig) *string) func(*AppConfig, string) error {
	return func(c *AppConfig, key string) error {
		p := field(c)
		*p = getEnvString(key, *p)
		return nil
	}
}

func intVar(field func(*AppConfig) *int) func(*AppConfig, string) error {
	return func(c *AppConfig, key string) error {
		p := field(c)
		*p = getEnvInt(key, *p)
		return nil
	}
}

func boolVar(field func(*AppConfig) *bool) func(*AppConfig, string) error {
	return func(c *AppConfig, key string) error {
		p := field(c)
		*p = getEnvBool(key, *p)
		return nil
	}
}

// envBindings lists every supported variable, e.g. PRIMELAB_LIMIT=5000 or
// PRIMELAB_VOLTAGES=5,10.
var envBindings = []envBinding{
	{[]string{"limit"}, "LIMIT", intVar(func(c *AppConfig) *int { return &c.Limit })},
	{[]string{"analysis"}, "ANALYSIS", stringVar(func(c *AppConfig) *string { return &c.Analysis })},
	{[]string{"voltages"}, "VOLTAGES", func(c *AppConfig, key string) error {
		val, ok := lookupEnv(key)
		if !ok {
			return nil
		}
		if err := c.Voltages.Set(val); err != nil {
			return apperrors.NewConfigError("%s%s: %v", EnvPrefix, key, err)
		}
		return nil
	}},
	{[]string{"correction"}, "CORRECTION", stringVar(func(c *AppConfig) *string { return &c.Correction })},
	{[]string{"timeout"}, "TIMEOUT", func(c *AppConfig, key string) error {
		c.Timeout = getEnvDuration(key, c.Timeout)
		return nil
	}},
	{[]string{"out"}, "OUT", stringVar(func(c *AppConfig) *string { return &c.OutDir })},
	{[]string{"plot-format"}, "PLOT_FORMAT", stringVar(func(c *AppConfig) *string { return &c.PlotFormat })},
	{[]string{"reference"}, "REFERENCE", stringVar(func(c *AppConfig) *string { return &c.Reference })},
	{[]string{"history"}, "HISTORY", stringVar(func(c *AppConfig) *string { return &c.HistoryPath })},
	{[]string{"history-show"}, "HISTORY_SHOW", intVar(func(c *AppConfig) *int { return &c.HistoryShow })},
	{[]string{"json"}, "JSON", boolVar(func(c *AppConfig) *bool { return &c.JSONOutput })},
	{[]string{"quiet", "q"}, "QUIET", boolVar(func(c *AppConfig) *bool { return &c.Quiet })},
	{[]string{"v"}, "VERBOSE", boolVar(func(c *AppConfig) *bool { return &c.Verbose })},
	{[]string{"server"}, "SERVER", boolVar(func(c *AppConfig) *bool { return &c.ServerMode })},
	{[]string{"port"}, "PORT", stringVar(func(c *AppConfig) *string { return &c.Port })},
	{[]string{"interactive"}, "INTERACTIVE", boolVar(func(c *AppConfig) *bool { return &c.Interactive })},
	{[]string{"calibrate"}, "CALIBRATE", boolVar(func(c *AppConfig) *bool { return &c.Calibrate })},
	{[]string{"calibration-profile"}, "CALIBRATION_PROFILE", stringVar(func(c *AppConfig) *string { return &c.CalibrationProfile })},
	{[]string{"no-color"}, "NO_COLOR", boolVar(func(c *AppConfig) *bool { return &c.NoColor })},
	{[]string{"theme"}, "THEME", stringVar(func(c *AppConfig) *string { return &c.Theme })},
}

// applyEnvOverrides fills every field whose flag was not given from its
// environment variable. Priority: flag > environment > default.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) error {
	for _, b := range envBindings {
		if isFlagSet(fs, b.flags...) {
			continue
		}
		if err := b.apply(config, b.key); err != nil {
			return err
		}
	}
	return nil
}

// EnvVars lists the supported variable names, for the usage text.
func EnvVars() []string {
	out := make([]string, len(envBindings))
	for i, b := range envBindings {
		out[i] = fmt.Sprintf("%s%s", EnvPrefix, b.key)
	}
	return out
}
