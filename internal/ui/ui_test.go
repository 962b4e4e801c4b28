package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")

	t.Setenv("GPTXT_DARK_MODE", "1")
	assert.True(t, DetectTheme().IsDark)

	t.Setenv("GPTXT_DARK_MODE", "0")
	assert.False(t, DetectTheme().IsDark)

	t.Setenv("GPTXT_DARK_MODE", "")
	t.Setenv("COLORFGBG", "0;15")
	assert.False(t, DetectTheme().IsDark)

	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DetectTheme().IsDark)
}

func TestPrinter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Error(errors.New("boom"))
	p.Errorf("Error reading input file: %s", "in.txt")
	p.Blank()
	p.Progress("Generating program...")
	p.Success("done")

	// A buffer is not a terminal, so no escape sequences are emitted.
	assert.Equal(t, "boom\nError reading input file: in.txt\n\nGenerating program...\ndone\n", buf.String())
}

func TestPrinter_Candidate(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Candidate("Generated program:", "result = data:upper()\n")

	want := strings.Join([]string{
		"Generated program:",
		Divider,
		"result = data:upper()",
		Divider,
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestPrinter_CompletionPrompt(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).CompletionPrompt("-- task:")
	assert.True(t, strings.HasPrefix(buf.String(), "Prompt:\n"+Divider+"\n-- task:\n"))
}

func TestPrinter_Highlight(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, WithHighlight("lua"), WithTheme(DarkTheme()))
	require.NotNil(t, p.highlighter)

	p.Candidate("Edited program:", "result = data")
	assert.Contains(t, buf.String(), "result")
	assert.Contains(t, buf.String(), "Edited program:")
}

func TestPrinter_Prompt(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{})
	assert.Equal(t, "Run program? ", p.Prompt("Run program?"))
}

func TestSpinner_NonAnimated(t *testing.T) {
	var buf bytes.Buffer
	stop := NewSpinner(&buf, false).Start("Generating program...")
	stop()
	stop()
	assert.Equal(t, "Generating program...\n", buf.String())
}

func TestSpinnerModel(t *testing.T) {
	sp := spinner.New()
	m := spinnerModel{spinner: sp, label: "Generating program..."}
	assert.Contains(t, m.View(), "Generating program...")

	next, cmd := m.Update(stopMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, "", next.View())
}
