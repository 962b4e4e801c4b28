package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Divider frames previews on the diagnostic stream.
const Divider = "------------------------------"

// Printer writes styled messages to the diagnostic stream.
type Printer struct {
	w      io.Writer
	styles Styles

	// Markdown fence language for highlighted previews; empty disables it.
	highlightLang string
	highlighter   *glamour.TermRenderer
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithTheme overrides the detected theme.
func WithTheme(theme Theme) PrinterOption {
	return func(p *Printer) {
		p.styles = NewStyles(lipgloss.NewRenderer(p.w), theme)
	}
}

// WithHighlight renders candidate previews as syntax-highlighted code in
// language lang.
func WithHighlight(lang string) PrinterOption {
	return func(p *Printer) { p.highlightLang = lang }
}

// NewPrinter creates a Printer on w.
func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{w: w}
	p.styles = NewStyles(lipgloss.NewRenderer(w), DetectTheme())
	for _, opt := range opts {
		opt(p)
	}
	if p.highlightLang != "" {
		style := "light"
		if p.styles.Theme.IsDark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(0),
		)
		if err == nil {
			p.highlighter = r
		}
	}
	return p
}

// Error prints err in red.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.w, p.styles.Error.Render(err.Error()))
}

// Errorf prints a formatted message in red.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.w, p.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}

// Success prints msg in green.
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.w, p.styles.Success.Render(msg))
}

// Progress prints msg in cyan.
func (p *Printer) Progress(msg string) {
	fmt.Fprintln(p.w, p.styles.Progress.Render(msg))
}

// Prompt renders a command prompt without a trailing newline; the key
// reader echoes the choice on the same line.
func (p *Printer) Prompt(msg string) string {
	return p.styles.Prompt.Render(msg) + " "
}

// Candidate prints a framed script preview under label.
func (p *Printer) Candidate(label, script string) {
	p.framed(label, p.highlight(script))
}

// CompletionPrompt prints the prompt sent to the completion provider.
func (p *Printer) CompletionPrompt(prompt string) {
	p.framed("Prompt:", prompt)
}

func (p *Printer) framed(label, body string) {
	divider := p.styles.Divider.Render(Divider)
	fmt.Fprintln(p.w, p.styles.Progress.Render(label))
	fmt.Fprintln(p.w, divider)
	fmt.Fprintln(p.w, strings.TrimRight(body, "\n"))
	fmt.Fprintln(p.w, divider)
}

func (p *Printer) highlight(script string) string {
	if p.highlighter == nil {
		return script
	}
	out, err := p.highlighter.Render("```" + p.highlightLang + "\n" + script + "\n```\n")
	if err != nil {
		return script
	}
	return strings.Trim(out, "\n")
}
