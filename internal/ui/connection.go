package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus is how dialing one SSH destination ended.
type ConnectionStatus int

const (
	StatusSuccess ConnectionStatus = iota
	StatusTimeout
	StatusRefused
	StatusUnreachable
	StatusAuthFailed
	StatusFailed
)

var statusLabels = [...]string{
	StatusSuccess:     "connected",
	StatusTimeout:     "timeout",
	StatusRefused:     "refused",
	StatusUnreachable: "unreachable",
	StatusAuthFailed:  "auth failed",
	StatusFailed:      "failed",
}

func (s ConnectionStatus) String() string {
	if s >= 0 && int(s) < len(statusLabels) {
		return statusLabels[s]
	}
	return "failed"
}

// ConnectionAttempt is one destination tried while connecting to a host.
type ConnectionAttempt struct {
	Alias   string
	Status  ConnectionStatus
	Latency time.Duration
	Error   string
}

// attemptColumn is the width the alias is padded to before the status.
const attemptColumn = 50

// ConnectionDisplay lists the destinations tried for a host under an
// animated "Connecting" line:
//
//	○ prod-vpn                                          timeout (10.0s)
//	● prod.example.com                                            0.3s
//	● Connected to prod via prod.example.com                     10.3s
type ConnectionDisplay struct {
	mu       sync.Mutex
	w        io.Writer
	attempts []ConnectionAttempt
	spinner  *Spinner
	started  time.Time
}

func NewConnectionDisplay(w io.Writer) *ConnectionDisplay {
	return &ConnectionDisplay{w: w}
}

// Start shows the spinner and starts the overall clock.
func (cd *ConnectionDisplay) Start() {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	cd.started = time.Now()
	cd.spinner = NewSpinner(cd.w, "Connecting")
	cd.spinner.Start()
}

// AddAttempt prints a line for one destination above the spinner. The
// spinner resumes after a failure.
func (cd *ConnectionDisplay) AddAttempt(alias string, status ConnectionStatus, latency time.Duration, errMsg string) {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	a := ConnectionAttempt{Alias: alias, Status: status, Latency: latency, Error: errMsg}
	cd.attempts = append(cd.attempts, a)
	cd.pauseSpinner()

	color := ColorMuted
	if status == StatusSuccess {
		color = ColorSuccess
	}
	symbol, rest := attemptParts(a)
	fmt.Fprintf(cd.w, "  %s%s\n", lipgloss.NewStyle().Foreground(color).Render(symbol), rest)

	if status != StatusSuccess && cd.spinner != nil {
		cd.spinner.Start()
	}
}

func (cd *ConnectionDisplay) Success(hostName, alias string) {
	cd.finish(ColorSuccess, SymbolComplete, "Connected to "+hostName+" via "+alias)
}

func (cd *ConnectionDisplay) Fail(errMsg string) {
	msg := "Connection failed"
	if errMsg != "" {
		msg += ": " + errMsg
	}
	cd.finish(ColorError, SymbolFail, msg)
}

func (cd *ConnectionDisplay) pauseSpinner() {
	if cd.spinner != nil {
		cd.spinner.Stop()
		cd.spinner.clear()
	}
}

// finish prints the closing line with the time since Start.
func (cd *ConnectionDisplay) finish(color lipgloss.Color, symbol, msg string) {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	cd.pauseSpinner()

	var total time.Duration
	if !cd.started.IsZero() {
		total = time.Since(cd.started)
	}
	fmt.Fprintln(cd.w, lipgloss.NewStyle().Foreground(color).Render(symbol)+" "+msg+" "+
		lipgloss.NewStyle().Foreground(ColorMuted).Render(formatDuration(total)))
}

// Attempts returns a copy of the recorded attempts.
func (cd *ConnectionDisplay) Attempts() []ConnectionAttempt {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return append([]ConnectionAttempt(nil), cd.attempts...)
}

// HasFailedAttempts reports whether a destination failed before one answered.
func (cd *ConnectionDisplay) HasFailedAttempts() bool {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	for _, a := range cd.attempts {
		if a.Status != StatusSuccess {
			return true
		}
	}
	return false
}

// RenderAttemptLine is an attempt line without colors.
func RenderAttemptLine(a ConnectionAttempt) string {
	symbol, rest := attemptParts(a)
	return "  " + symbol + rest
}

func attemptParts(a ConnectionAttempt) (symbol, rest string) {
	symbol, status := SymbolPending, a.Status.String()
	switch {
	case a.Status == StatusSuccess:
		symbol, status = SymbolComplete, formatDuration(a.Latency)
	case a.Status == StatusTimeout:
		status = "timeout (" + formatDuration(a.Latency) + ")"
	case a.Status == StatusFailed && a.Error != "":
		status = a.Error
	}

	gap := max(attemptColumn-len(a.Alias), 2)
	return symbol, " " + a.Alias + strings.Repeat(" ", gap) + status
}
