package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SectionWidth is the width of the dashed rule around section headers.
const SectionWidth = 54

// RenderSection decorates a title so it stands out between pipeline stages.
//
//	------------------------------------------------------
//	Getting a database backup of your remote site.
//	------------------------------------------------------
func RenderSection(title string) string {
	style := lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	rule := strings.Repeat("-", SectionWidth)
	return style.Render(rule + "\n" + title + "\n" + rule)
}

// PrintSection writes a section header surrounded by blank lines.
func PrintSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n\n", RenderSection(title))
}

// RenderDanger renders text that precedes a destructive action.
func RenderDanger(text string) string {
	return lipgloss.NewStyle().Foreground(ColorError).Render(text)
}

// RenderNotice renders a non-fatal warning.
func RenderNotice(text string) string {
	return lipgloss.NewStyle().Foreground(ColorWarning).Render(text)
}

// RenderDone renders a success line prefixed with the success symbol.
func RenderDone(text string) string {
	symbol := lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolSuccess)
	return symbol + " " + text
}

// RenderMuted renders secondary text such as hints and timings.
func RenderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(ColorMuted).Render(text)
}
