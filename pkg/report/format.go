package report

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// colorEnabled decides whether warning output should carry pterm/
// lipgloss styling: disabled under NO_COLOR, when stdout isn't a
// terminal, or when the terminal's color profile is plain ASCII.
func colorEnabled(out *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd()) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}
