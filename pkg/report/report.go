// Package report implements the installer's warning sink
// (project.Report): a pterm/lipgloss-styled writer for the non-fatal
// conditions the installer surfaces, such as a virtual instance of a
// workspace being devirtualised during attachment. Styling degrades
// to plain text automatically when stdout isn't a color terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

var (
	warningColor = lipgloss.AdaptiveColor{Light: "#FFC107", Dark: "#FFD54F"}
	codeColor    = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#A0A8B0"}

	warningStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	codeStyle    = lipgloss.NewStyle().Foreground(codeColor).Italic(true)
)

// Warning is one recorded warning, in the order it was reported.
type Warning struct {
	Code    string
	Message string
}

// Sink collects warnings and renders them to an io.Writer. It
// implements project.Report and is safe for concurrent use, since
// materialise/attach report from many goroutines at once.
type Sink struct {
	mu       sync.Mutex
	warnings []Warning
	out      io.Writer
	styled   bool
}

// New returns a Sink writing to out. If out is *os.File, color styling
// is auto-detected (colorEnabled); any other writer gets plain text,
// matching how a non-terminal destination (a log file, a pipe) should
// never receive escape codes.
func New(out io.Writer) *Sink {
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = colorEnabled(f)
	}
	return &Sink{out: out, styled: styled}
}

// ReportWarning implements project.Report.
func (s *Sink) ReportWarning(code, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.warnings = append(s.warnings, Warning{Code: code, Message: msg})

	if s.styled {
		fmt.Fprintf(s.out, "%s %s %s\n",
			pterm.Warning.Prefix.Text,
			warningStyle.Render(msg),
			codeStyle.Render("["+code+"]"))
		return
	}
	fmt.Fprintf(s.out, "warning: %s [%s]\n", msg, code)
}

// Warnings returns every warning reported so far, in order.
func (s *Sink) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}
