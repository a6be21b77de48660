package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Periods
	Today     key.Binding
	Yesterday key.Binding
	Week      key.Binding
	Month     key.Binding
	Custom    key.Binding

	// Custom month navigation
	PrevMonth key.Binding
	NextMonth key.Binding

	// Filters
	NextFacet   key.Binding
	NextValue   key.Binding
	NextMetric  key.Binding
	ClearFilter key.Binding

	// Application
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Today: key.NewBinding(
			key.WithKeys("t", "1"),
			key.WithHelp("t", "today"),
		),
		Yesterday: key.NewBinding(
			key.WithKeys("y", "2"),
			key.WithHelp("y", "yesterday"),
		),
		Week: key.NewBinding(
			key.WithKeys("w", "3"),
			key.WithHelp("w", "last 7 days"),
		),
		Month: key.NewBinding(
			key.WithKeys("m", "4"),
			key.WithHelp("m", "this month"),
		),
		Custom: key.NewBinding(
			key.WithKeys("c", "5"),
			key.WithHelp("c", "custom month"),
		),

		PrevMonth: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next month"),
		),

		NextFacet: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "next filter column"),
		),
		NextValue: key.NewBinding(
			key.WithKeys("o", "tab"),
			key.WithHelp("o/Tab", "next value"),
		),
		NextMetric: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next metric"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filter"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/Esc", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Today, k.Yesterday, k.Week, k.Month, k.Custom, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Today, k.Yesterday, k.Week, k.Month, k.Custom},
		{k.PrevMonth, k.NextMonth},
		{k.NextFacet, k.NextValue, k.NextMetric, k.ClearFilter},
		{k.Refresh, k.Help, k.Quit},
	}
}
