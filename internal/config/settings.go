// Package config loads the application settings and the dashboard catalog
// from viper.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/dates"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/spf13/viper"
)

// Defaults for settings that are not configured.
const (
	DefaultTimezone        = "America/Sao_Paulo"
	DefaultRefreshInterval = 60 * time.Second
	DefaultCacheKeep       = 20
	DefaultListenAddr      = "127.0.0.1:8080"
)

// Settings are the options shared by every command.
type Settings struct {
	Location        *time.Location
	Timezone        string
	DefaultPeriod   period.Kind
	YearPolicy      dates.YearPolicy
	DatabasePath    string
	ListenAddr      string
	RefreshInterval time.Duration
	FallbackYear    int
	CacheKeep       int
	StrictDates     bool
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("timezone", DefaultTimezone)
	v.SetDefault("default_period", string(period.Yesterday))
	v.SetDefault("dates.assume_year", string(dates.YearCurrent))
	v.SetDefault("dates.fallback_year", 0)
	v.SetDefault("dates.strict", false)
	v.SetDefault("refresh_interval", DefaultRefreshInterval)
	v.SetDefault("cache.keep", DefaultCacheKeep)
	v.SetDefault("server.listen", DefaultListenAddr)
}

// LoadSettings reads and validates the settings from v.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	SetDefaults(v)

	s := &Settings{
		Timezone:        v.GetString("timezone"),
		FallbackYear:    v.GetInt("dates.fallback_year"),
		StrictDates:     v.GetBool("dates.strict"),
		RefreshInterval: v.GetDuration("refresh_interval"),
		CacheKeep:       v.GetInt("cache.keep"),
		ListenAddr:      v.GetString("server.listen"),
		DatabasePath:    ExpandPath(v.GetString("database.path")),
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, s.Timezone, err)
	}
	s.Location = loc

	if s.DefaultPeriod, err = period.ParseKind(v.GetString("default_period")); err != nil {
		return nil, fmt.Errorf("%w: default_period: %w", common.ErrInvalidConfig, err)
	}
	if s.YearPolicy, err = dates.ParseYearPolicy(v.GetString("dates.assume_year")); err != nil {
		return nil, fmt.Errorf("%w: dates.assume_year: %w", common.ErrInvalidConfig, err)
	}
	if s.YearPolicy == dates.YearExplicit && s.FallbackYear <= 0 {
		return nil, fmt.Errorf("%w: dates.assume_year is explicit but dates.fallback_year is not set", common.ErrInvalidConfig)
	}
	if s.RefreshInterval <= 0 {
		return nil, fmt.Errorf("%w: refresh_interval must be positive", common.ErrInvalidConfig)
	}
	if s.CacheKeep < 1 {
		s.CacheKeep = 1
	}

	return s, nil
}

// Parser builds the date parser described by the settings.
func (s *Settings) Parser() dates.Parser {
	return dates.Parser{
		Location:     s.Location,
		Policy:       s.YearPolicy,
		FallbackYear: s.FallbackYear,
		Strict:       s.StrictDates,
	}
}

// Database returns the snapshot cache path, defaulting to dir/cache.db.
func (s *Settings) Database(dir string) string {
	if s.DatabasePath != "" {
		return s.DatabasePath
	}
	return filepath.Join(dir, "cache.db")
}

// Refresh returns the poll interval for a dashboard.
func (s *Settings) Refresh(configured time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return s.RefreshInterval
}
