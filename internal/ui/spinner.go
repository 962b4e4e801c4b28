package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type stopMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		// Final frame is empty so the line is cleared on exit.
		return ""
	}
	return m.spinner.View() + " " + m.label
}

// Spinner shows an animated busy indicator while a blocking call runs.
type Spinner struct {
	w       io.Writer
	animate bool
	style   lipgloss.Style
}

// NewSpinner creates a Spinner on w. When animate is false (w is not a
// terminal) Start prints the label once instead.
func NewSpinner(w io.Writer, animate bool) *Spinner {
	return &Spinner{
		w:       w,
		animate: animate,
		style:   NewStyles(lipgloss.NewRenderer(w), DetectTheme()).Spinner,
	}
}

// Start shows label until the returned stop function is called. stop is
// safe to call more than once.
func (s *Spinner) Start(label string) (stop func()) {
	if !s.animate {
		fmt.Fprintln(s.w, label)
		return func() {}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.style

	p := tea.NewProgram(
		spinnerModel{spinner: sp, label: label},
		tea.WithOutput(s.w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_, _ = p.Run()
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.Send(stopMsg{})
			<-finished
		})
	}
}
