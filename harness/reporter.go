package harness

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Reporter writes one line per test outcome: passes to stdout, failures to
// stderr. Status words are coloured only when the stream is a terminal.
type Reporter struct {
	stdout io.Writer
	stderr io.Writer
	ok     lipgloss.Style
	failed lipgloss.Style
	color  struct{ out, err bool }
	mu     sync.Mutex
}

// NewReporter creates a reporter writing to stdout and stderr.
func NewReporter(stdout, stderr io.Writer) *Reporter {
	r := &Reporter{
		stdout: stdout,
		stderr: stderr,
		ok:     lipgloss.NewRenderer(stdout).NewStyle().Foreground(lipgloss.Color("#90EE90")).Bold(true),
		failed: lipgloss.NewRenderer(stderr).NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
	r.color.out = isTerminal(stdout)
	r.color.err = isTerminal(stderr)
	return r
}

// Report writes the outcome of the named test.
func (r *Reporter) Report(name string, outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if outcome.Status == Passed {
		fmt.Fprintf(r.stdout, "%s ... %s\n", name, r.paint(r.ok, r.color.out, "OK!"))
		return
	}
	fmt.Fprintf(r.stderr, "error: %s test %s: %s\n", name, r.paint(r.failed, r.color.err, "failed"), outcome.Reason)
}

func (r *Reporter) paint(style lipgloss.Style, color bool, s string) string {
	if !color {
		return s
	}
	return style.Render(s)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
