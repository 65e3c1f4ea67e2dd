package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DividerWidth is how wide Divider draws.
const DividerWidth = 64

// PhaseResult is the outcome of one pipeline step.
type PhaseResult struct {
	Name     string
	Duration time.Duration
	Err      error
	Skipped  bool
}

// PhaseDisplay prints one line per pipeline step and remembers how each
// ended:
//
//	● Backup located 0.3s
//	✗ Transfer 2.3s
//	⊘ Cleanup (keep_dump is set)
type PhaseDisplay struct {
	w       io.Writer
	results []PhaseResult
}

func NewPhaseDisplay(w io.Writer) *PhaseDisplay {
	return &PhaseDisplay{w: w}
}

// RenderProgress prints "◐ name..." without a newline; the next Render call
// overwrites it.
func (pd *PhaseDisplay) RenderProgress(name string) {
	fmt.Fprintf(pd.w, "\r%s %s...", paint(ColorSecondary, SymbolProgress), name)
}

func (pd *PhaseDisplay) RenderSuccess(name string, d time.Duration) {
	pd.finish(PhaseResult{Name: name, Duration: d}, paint(ColorSuccess, SymbolComplete), formatDuration(d))
}

func (pd *PhaseDisplay) RenderFailed(name string, d time.Duration, err error) {
	pd.finish(PhaseResult{Name: name, Duration: d, Err: err}, paint(ColorError, SymbolFail), formatDuration(d))
}

// RenderSkipped prints the step with reason in parentheses, if any.
func (pd *PhaseDisplay) RenderSkipped(name, reason string) {
	if reason != "" {
		reason = "(" + reason + ")"
	}
	pd.finish(PhaseResult{Name: name, Skipped: true}, paint(ColorWarning, SymbolSkipped), reason)
}

func (pd *PhaseDisplay) finish(r PhaseResult, symbol, detail string) {
	pd.clearLine()
	pd.results = append(pd.results, r)

	line := symbol + " " + r.Name
	if detail != "" {
		line += " " + paint(ColorMuted, detail)
	}
	fmt.Fprintln(pd.w, line)
}

// Step runs fn between a progress line and its outcome. quiet suppresses the
// progress line for steps that prompt.
func (pd *PhaseDisplay) Step(name string, quiet bool, fn func() error) error {
	if !quiet {
		pd.RenderProgress(name)
	}
	start := time.Now()
	if err := fn(); err != nil {
		pd.RenderFailed(name, time.Since(start), err)
		return err
	}
	pd.RenderSuccess(name, time.Since(start))
	return nil
}

// RenderSubStatus prints an indented "  ○ name status" detail line.
func (pd *PhaseDisplay) RenderSubStatus(symbol, name, status string) {
	fmt.Fprintf(pd.w, "  %s %s %s\n", paint(ColorMuted, symbol), name, paint(ColorMuted, status))
}

// Divider separates the steps from the summary below them.
func (pd *PhaseDisplay) Divider() {
	fmt.Fprintf(pd.w, "\n%s\n\n", FormatDivider(DividerWidth))
}

// Results returns a copy of every finished step, in order.
func (pd *PhaseDisplay) Results() []PhaseResult {
	return append([]PhaseResult(nil), pd.results...)
}

func (pd *PhaseDisplay) clearLine() {
	fmt.Fprint(pd.w, "\r"+strings.Repeat(" ", 80)+"\r")
}

// FormatDivider is a muted rule width cells wide.
func FormatDivider(width int) string {
	return paint(ColorMuted, strings.Repeat("━", width))
}

func paint(c lipgloss.TerminalColor, s string) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}
