package cli

import (
	"fmt"
	"io"
	"strings"
)

// completionFlag describes one flag for the completion scripts. Values
// lists fixed choices; File marks a path argument.
type completionFlag struct {
	Name   string
	Help   string
	Values []string
	File   bool
	Arg    bool
}

func completionFlags(analyses []string) []completionFlag {
	return []completionFlag{
		{Name: "limit", Help: "Sieve bound for the analyses", Values: []string{"1000", "10000", "100000", "1000000"}, Arg: true},
		{Name: "analysis", Help: "Analyses to run", Values: append(append([]string{}, analyses...), "all"), Arg: true},
		{Name: "voltages", Help: "Comma-separated applied voltages", Values: []string{"10,12,15", "5,10,20"}, Arg: true},
		{Name: "correction", Help: "Circuit correction model", Values: []string{"static", "dynamic"}, Arg: true},
		{Name: "timeout", Help: "Maximum duration of the run", Values: []string{"30s", "1m", "2m", "10m"}, Arg: true},
		{Name: "out", Help: "Artifact directory", File: true, Arg: true},
		{Name: "plot-format", Help: "Plot format", Values: []string{"png", "svg"}, Arg: true},
		{Name: "reference", Help: "Reference data YAML file", File: true, Arg: true},
		{Name: "history", Help: "SQLite history database", File: true, Arg: true},
		{Name: "history-show", Help: "Print recent runs and exit", Values: []string{"5", "10", "20"}, Arg: true},
		{Name: "json", Help: "Print reports as JSON"},
		{Name: "quiet", Help: "Minimal output"},
		{Name: "q", Help: "Minimal output"},
		{Name: "v", Help: "Debug logging and full tables"},
		{Name: "server", Help: "Serve the HTTP API"},
		{Name: "port", Help: "HTTP API port", Values: []string{"8080", "3000", "9000"}, Arg: true},
		{Name: "interactive", Help: "Start the REPL"},
		{Name: "calibrate", Help: "Calibrate the large-prime model"},
		{Name: "calibration-profile", Help: "Calibration profile path", File: true, Arg: true},
		{Name: "no-color", Help: "Disable colours"},
		{Name: "theme", Help: "Colour theme", Values: []string{"dark", "light", "none"}, Arg: true},
		{Name: "completion", Help: "Print a completion script", Values: []string{"bash", "zsh", "fish", "powershell"}, Arg: true},
		{Name: "version", Help: "Show version information"},
		{Name: "help", Help: "Show help"},
	}
}

// GenerateCompletion writes a completion script for shell.
//
// Parameters:
//   - out: The destination writer.
//   - shell: "bash", "zsh", "fish" or "powershell" (alias "ps").
//   - analyses: The registered analysis names, offered for -analysis.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string, analyses []string) error {
	flags := completionFlags(analyses)
	switch shell {
	case "bash":
		return generateBashCompletion(out, flags)
	case "zsh":
		return generateZshCompletion(out, flags)
	case "fish":
		return generateFishCompletion(out, flags)
	case "powershell", "ps":
		return generatePowerShellCompletion(out, flags)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
}

func generateBashCompletion(out io.Writer, flags []completionFlag) error {
	var opts []string
	var cases strings.Builder
	for _, f := range flags {
		opts = append(opts, "-"+f.Name)
		switch {
		case f.File:
			fmt.Fprintf(&cases, "        -%s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n", f.Name)
		case len(f.Values) > 0:
			fmt.Fprintf(&cases, "        -%s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				f.Name, strings.Join(f.Values, " "))
		}
	}

	_, err := fmt.Fprintf(out, `# Bash completion script for primelab
# Add this to your ~/.bashrc or ~/.bash_completion

_primelab_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="%s"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _primelab_completions primelab
`, strings.Join(opts, " "), cases.String())
	return err
}

func generateZshCompletion(out io.Writer, flags []completionFlag) error {
	var args strings.Builder
	for _, f := range flags {
		spec := fmt.Sprintf("'-%s[%s]", f.Name, f.Help)
		switch {
		case f.File:
			spec += ":file:_files"
		case len(f.Values) > 0:
			spec += fmt.Sprintf(":value:(%s)", strings.Join(f.Values, " "))
		case f.Arg:
			spec += ":value:"
		}
		fmt.Fprintf(&args, "        %s' \\\n", spec)
	}

	_, err := fmt.Fprintf(out, `#compdef primelab

# Zsh completion script for primelab
# Add this to your ~/.zshrc or place in $fpath

_primelab() {
    _arguments -s \
%s        && return 0
}

_primelab "$@"
`, args.String())
	return err
}

func generateFishCompletion(out io.Writer, flags []completionFlag) error {
	if _, err := fmt.Fprint(out, "# Fish completion script for primelab\n# Save to ~/.config/fish/completions/primelab.fish\n\ncomplete -c primelab -f\n"); err != nil {
		return err
	}
	for _, f := range flags {
		line := fmt.Sprintf("complete -c primelab -o %s -d '%s'", f.Name, f.Help)
		switch {
		case f.File:
			line += " -r -F"
		case len(f.Values) > 0:
			line += fmt.Sprintf(" -x -a '%s'", strings.Join(f.Values, " "))
		case f.Arg:
			line += " -x"
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func generatePowerShellCompletion(out io.Writer, flags []completionFlag) error {
	var names, values strings.Builder
	for i, f := range flags {
		if i > 0 {
			names.WriteString(", ")
		}
		fmt.Fprintf(&names, "'-%s'", f.Name)
		if len(f.Values) > 0 {
			quoted := make([]string, len(f.Values))
			for j, v := range f.Values {
				quoted[j] = "'" + v + "'"
			}
			fmt.Fprintf(&values, "        '-%s' = @(%s)\n", f.Name, strings.Join(quoted, ", "))
		}
	}

	_, err := fmt.Fprintf(out, `# PowerShell completion script for primelab
# Add this to your $PROFILE

Register-ArgumentCompleter -Native -CommandName primelab -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $flags = @(%s)
    $values = @{
%s    }

    $prev = $commandAst.CommandElements[-2].ToString()
    if ($values.ContainsKey($prev)) {
        $values[$prev] | Where-Object { $_ -like "$wordToComplete*" } |
            ForEach-Object { [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_) }
        return
    }
    $flags | Where-Object { $_ -like "$wordToComplete*" } |
        ForEach-Object { [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_) }
}
`, names.String(), values.String())
	return err
}
