package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Veraticus/sheetboard/internal/config"
	"github.com/Veraticus/sheetboard/internal/feed"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/Veraticus/sheetboard/internal/service"
	"github.com/Veraticus/sheetboard/internal/sheets"
	"github.com/Veraticus/sheetboard/internal/storage"
	"github.com/spf13/viper"
)

// app bundles what the data commands share: settings, the dashboard
// catalog, the sheet reader and the snapshot cache.
type app struct {
	settings *config.Settings
	catalog  *config.Catalog
	store    *storage.SQLiteStorage
	source   *feed.CachingSource
	logger   *slog.Logger
}

// newApp loads the configuration and opens the reader and cache. With
// noCache the snapshot cache is neither read nor written.
func newApp(ctx context.Context, noCache bool) (*app, error) {
	v := viper.GetViper()

	settings, err := config.LoadSettings(v)
	if err != nil {
		return nil, err
	}
	catalog, err := config.LoadDashboards(v)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	reader, err := sheets.NewReader(ctx, sheetsConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets reader: %w", err)
	}

	a := &app{settings: settings, catalog: catalog, logger: logger}
	var store service.SnapshotStore
	if !noCache {
		if a.store, err = initStorage(ctx, settings); err != nil {
			return nil, err
		}
		store = a.store
	}
	a.source = feed.NewCachingSource(reader, store, logger)
	return a, nil
}

// Close releases the cache.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *app) pipeline(d model.Dashboard) *pipeline.Pipeline {
	return pipeline.New(d, a.settings.Parser(), a.settings.Location)
}

func (a *app) loader(d model.Dashboard) *feed.Loader {
	return feed.NewLoader(a.source, a.pipeline(d))
}

// dashboards resolves names to dashboards; no names means all of them.
func (a *app) dashboards(names []string) ([]model.Dashboard, error) {
	if len(names) == 0 {
		return a.catalog.All(), nil
	}
	out := make([]model.Dashboard, 0, len(names))
	for _, name := range names {
		d, err := a.catalog.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// initStorage opens the snapshot cache with proper path expansion.
func initStorage(ctx context.Context, settings *config.Settings) (*storage.SQLiteStorage, error) {
	dir, err := config.Dir(true)
	if err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(settings.Database(dir))
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	store.SetRetention(settings.CacheKeep)

	return store, nil
}

// sheetsConfig reads the sheets section, falling back to the
// GOOGLE_SHEETS_* environment variables for credentials.
func sheetsConfig() sheets.Config {
	cfg := sheets.DefaultConfig()

	cfg.APIKey = viper.GetString("sheets.api_key")
	cfg.ClientID = viper.GetString("sheets.client_id")
	cfg.ClientSecret = viper.GetString("sheets.client_secret")
	cfg.RefreshToken = viper.GetString("sheets.refresh_token")
	cfg.ServiceAccountPath = config.ExpandPath(viper.GetString("sheets.service_account_path"))
	cfg.ExportSpreadsheetID = viper.GetString("sheets.export_spreadsheet_id")

	if title := viper.GetString("sheets.export_title"); title != "" {
		cfg.ExportTitle = title
	}
	if tz := viper.GetString("timezone"); tz != "" {
		cfg.TimeZone = tz
	}
	if viper.IsSet("sheets.timeout") {
		cfg.Timeout = viper.GetDuration("sheets.timeout")
	}
	if viper.IsSet("sheets.retry_attempts") {
		cfg.RetryAttempts = viper.GetInt("sheets.retry_attempts")
	}
	if viper.IsSet("sheets.batch_size") {
		cfg.BatchSize = viper.GetInt("sheets.batch_size")
	}
	if viper.IsSet("sheets.formatting") {
		cfg.EnableFormatting = viper.GetBool("sheets.formatting")
	}

	cfg.LoadFromEnv()
	return cfg
}

// tokenFile is where the OAuth2 token from 'auth' is kept.
func tokenFile() (string, error) {
	dir, err := config.Dir(true)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sheets-token.json"), nil
}

func since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return time.Since(t).Round(time.Second).String() + " ago"
}
