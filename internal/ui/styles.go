// Package ui renders the diagnostic side of the terminal: styled messages,
// the candidate preview and the busy spinner.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors, shared by both themes.
var (
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Info        = lipgloss.Color("#00ACC1")
)

// Theme holds the colors that differ between light and dark terminals.
type Theme struct {
	Muted  lipgloss.Color
	Accent lipgloss.Color
	IsDark bool
}

func LightTheme() Theme {
	return Theme{
		Muted:  lipgloss.Color("#6b7280"),
		Accent: lipgloss.Color("#101F38"),
	}
}

func DarkTheme() Theme {
	return Theme{
		Muted:  lipgloss.Color("#9ca3af"),
		Accent: lipgloss.Color("#8BC34A"),
		IsDark: true,
	}
}

// DetectTheme picks a theme from GPTXT_DARK_MODE or COLORFGBG
// ("foreground;background"). It defaults to dark, the common terminal setup.
func DetectTheme() Theme {
	switch os.Getenv("GPTXT_DARK_MODE") {
	case "1":
		return DarkTheme()
	case "0":
		return LightTheme()
	}

	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil {
			if (bg >= 0 && bg <= 6) || bg == 8 {
				return DarkTheme()
			}
			return LightTheme()
		}
	}
	return DarkTheme()
}

// Styles holds the styled components used on the diagnostic stream.
type Styles struct {
	Theme Theme

	Error    lipgloss.Style
	Success  lipgloss.Style
	Progress lipgloss.Style
	Prompt   lipgloss.Style
	Divider  lipgloss.Style
	Spinner  lipgloss.Style
}

// NewStyles builds styles for theme on renderer r, so color output follows
// the capabilities of the stream r was created for.
func NewStyles(r *lipgloss.Renderer, theme Theme) Styles {
	return Styles{
		Theme: theme,

		Error: r.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Success: r.NewStyle().
			Foreground(Success).
			Bold(true),

		Progress: r.NewStyle().
			Foreground(Info).
			Bold(true),

		Prompt: r.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Divider: r.NewStyle().
			Foreground(theme.Muted),

		Spinner: r.NewStyle().
			Foreground(Info),
	}
}
