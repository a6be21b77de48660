package tui

import (
	"time"

	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/Veraticus/sheetboard/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme     themes.Theme
	Now       func() time.Time
	Refresh   func()
	Selection pipeline.Selection
	Width     int
	Height    int
	ShowHelp  bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Now:       time.Now,
		Refresh:   func() {},
		Selection: pipeline.Selection{Period: period.Yesterday},
		Width:     100,
		Height:    30,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithSelection sets the period and filters shown on start.
func WithSelection(sel pipeline.Selection) Option {
	return func(c *Config) {
		c.Selection = sel
	}
}

// WithRefresh sets the function called when the user asks for fresh data.
func WithRefresh(refresh func()) Option {
	return func(c *Config) {
		if refresh != nil {
			c.Refresh = refresh
		}
	}
}

// WithClock overrides the wall clock used for today and yesterday.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		if now != nil {
			c.Now = now
		}
	}
}

// WithHelp expands the key help on start.
func WithHelp(show bool) Option {
	return func(c *Config) {
		c.ShowHelp = show
	}
}
