package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SSHHostInfo describes one Host entry from ~/.ssh/config.
type SSHHostInfo struct {
	Alias    string
	Hostname string
	User     string
	Port     string
}

// Summary returns "user@hostname:port" with the empty parts left out.
func (h SSHHostInfo) Summary() string {
	var b strings.Builder
	if h.User != "" {
		b.WriteString(h.User + "@")
	}
	if h.Hostname != "" {
		b.WriteString(h.Hostname)
	} else {
		b.WriteString(h.Alias)
	}
	if h.Port != "" && h.Port != "22" {
		b.WriteString(":" + h.Port)
	}
	return b.String()
}

type sshHostItem struct {
	host SSHHostInfo
}

func (i sshHostItem) Title() string       { return i.host.Alias }
func (i sshHostItem) Description() string { return i.host.Summary() }

func (i sshHostItem) FilterValue() string {
	return strings.Join([]string{i.host.Alias, i.host.Hostname, i.host.User}, " ")
}

// PickOutcome is how the operator left the host picker.
type PickOutcome int

const (
	// PickSelected means an entry was chosen.
	PickSelected PickOutcome = iota
	// PickManual means the operator wants to type a host instead.
	PickManual
	// PickCancelled means the operator quit the picker.
	PickCancelled
)

var (
	pickerEnter  = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))
	pickerManual = key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "type a host"))
	pickerQuit   = key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "cancel"))
)

// SSHHostPickerModel is a Bubble Tea model for choosing the server that
// hosts the site.
type SSHHostPickerModel struct {
	list     list.Model
	selected *SSHHostInfo
	outcome  PickOutcome
	done     bool
}

// NewSSHHostPickerModel creates a picker over hosts.
func NewSSHHostPickerModel(hosts []SSHHostInfo) SSHHostPickerModel {
	items := make([]list.Item, len(hosts))
	for i, h := range hosts {
		items[i] = sshHostItem{host: h}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorInfo).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = "Which server hosts the site?"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true).Padding(0, 0, 1, 0)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{pickerManual}
	}

	return SSHHostPickerModel{list: l, outcome: PickCancelled}
}

// Init implements tea.Model.
func (m SSHHostPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SSHHostPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, pickerEnter):
			if item, ok := m.list.SelectedItem().(sshHostItem); ok {
				host := item.host
				m.selected = &host
				m.outcome = PickSelected
			}
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, pickerManual):
			m.outcome = PickManual
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, pickerQuit):
			m.outcome = PickCancelled
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m SSHHostPickerModel) View() string {
	if m.done {
		return ""
	}
	return m.list.View() + RenderMuted("\n  Press 'm' to type a host instead")
}

// Selected returns the chosen host, or nil.
func (m SSHHostPickerModel) Selected() *SSHHostInfo {
	return m.selected
}

// Outcome reports how the picker finished.
func (m SSHHostPickerModel) Outcome() PickOutcome {
	return m.outcome
}

// PickSSHHost runs the picker on the given terminal streams. An empty host
// list skips straight to PickManual.
func PickSSHHost(hosts []SSHHostInfo, in io.Reader, out io.Writer) (*SSHHostInfo, PickOutcome, error) {
	if len(hosts) == 0 {
		return nil, PickManual, nil
	}

	p := tea.NewProgram(NewSSHHostPickerModel(hosts), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return nil, PickCancelled, fmt.Errorf("host picker: %w", err)
	}

	m, ok := final.(SSHHostPickerModel)
	if !ok {
		return nil, PickCancelled, nil
	}
	return m.Selected(), m.Outcome(), nil
}
