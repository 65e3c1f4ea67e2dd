package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSection(t *testing.T) {
	out := RenderSection("Importing the database on your local machine.")

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], strings.Repeat("-", SectionWidth))
	assert.Contains(t, lines[1], "Importing the database on your local machine.")
	assert.Contains(t, lines[2], strings.Repeat("-", SectionWidth))
}

func TestPrintSection(t *testing.T) {
	var buf bytes.Buffer
	PrintSection(&buf, "Checking dependencies")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\n"))
	assert.True(t, strings.HasSuffix(out, "\n\n"))
	assert.Contains(t, out, "Checking dependencies")
}

func TestRenderHelpersKeepText(t *testing.T) {
	assert.Contains(t, RenderDanger("Do you wish to overwrite?"), "Do you wish to overwrite?")
	assert.Contains(t, RenderNotice("careful"), "careful")
	assert.Contains(t, RenderMuted("hint"), "hint")

	done := RenderDone("ready")
	assert.Contains(t, done, SymbolSuccess)
	assert.Contains(t, done, "ready")
}
