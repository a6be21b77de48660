// Package themes holds the color palettes for the watch dashboard.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Selected    lipgloss.Style
	Option      lipgloss.Style
	RoundedBox  lipgloss.Style
	StatusBar   lipgloss.Style
	StatusOK    lipgloss.Style
	StatusError lipgloss.Style
	StatusStale lipgloss.Style
	Primary     lipgloss.Color
	Muted       lipgloss.Color
	Border      lipgloss.Color
	Foreground  lipgloss.Color
	Success     lipgloss.Color
	Warning     lipgloss.Color
	Error       lipgloss.Color
}

type palette struct {
	primary    lipgloss.Color
	muted      lipgloss.Color
	border     lipgloss.Color
	foreground lipgloss.Color
	dim        lipgloss.Color
	success    lipgloss.Color
	warning    lipgloss.Color
	danger     lipgloss.Color
}

func build(p palette) Theme {
	return Theme{
		Primary:    p.primary,
		Muted:      p.muted,
		Border:     p.border,
		Foreground: p.foreground,
		Success:    p.success,
		Warning:    p.warning,
		Error:      p.danger,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.dim),
		Normal: lipgloss.NewStyle().
			Foreground(p.foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Padding(0, 1),
		Option: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(0, 1),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.muted),
		StatusOK: lipgloss.NewStyle().
			Foreground(p.success).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.danger).
			Bold(true),
		StatusStale: lipgloss.NewStyle().
			Foreground(p.warning).
			Bold(true),
	}
}

// Default is the default theme.
var Default = build(palette{
	primary:    "#4f86f7",
	muted:      "#737373",
	border:     "#404040",
	foreground: "#fafafa",
	dim:        "#a3a3a3",
	success:    "#10b981",
	warning:    "#f59e0b",
	danger:     "#ef4444",
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(palette{
	primary:    "#cba6f7",
	muted:      "#6c7086",
	border:     "#45475a",
	foreground: "#cdd6f4",
	dim:        "#a6adc8",
	success:    "#a6e3a1",
	warning:    "#f9e2af",
	danger:     "#f38ba8",
})

// ByName returns a theme by its configuration name, falling back to
// Default.
func ByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha", "mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
