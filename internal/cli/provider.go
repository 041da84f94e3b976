package cli

import (
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/ui"
)

var _ apperrors.ColorProvider = CLIColorProvider{}

// CLIColorProvider implements apperrors.ColorProvider with the current
// terminal theme, so error reports honour -theme and NO_COLOR.
type CLIColorProvider struct{}

func (c CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (c CLIColorProvider) Reset() string  { return ui.ColorReset() }
