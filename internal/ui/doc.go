// Package ui renders neoprene's operator-facing output.
//
// Output is plain line-oriented text styled with Lip Gloss. Colors are ANSI
// codes so they follow the terminal theme; DisableColors switches to ASCII
// for --no-color and NO_COLOR.
//
// # Components
//
//	RenderSection     - dashed, bold blue header between pipeline stages
//	RenderDanger      - red text ahead of destructive confirmations
//	PhaseDisplay      - one status line per pipeline step with timing
//	Spinner           - animated line while a long remote command runs
//	ConnectionDisplay - the SSH aliases tried for a host and their outcome
//	SSHHostPicker     - Bubble Tea list over ~/.ssh/config entries
//	RenderSimpleTable - static table for listings such as `db list`
//
// # Phase Display
//
//	pd := ui.NewPhaseDisplay(os.Stdout)
//	err := pd.Step("Locating backup", false, func() error { ... })
//
// Interactive steps pass quiet=true so the progress line never overlaps a
// prompt.
package ui
