// Command primelab runs exploratory numeric analyses of the primes, the
// nontrivial zeros of the Riemann zeta function and an RLC-circuit analogy
// between them.
package main

import (
	"context"
	"os"

	"github.com/agbru/primelab/internal/app"
	apperrors "github.com/agbru/primelab/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	// Parse errors are already reported by the flag set.
	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.ExitErrorConfig)
	}

	os.Exit(application.Run(context.Background(), os.Stdout))
}
