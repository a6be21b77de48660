package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/sheetboard/internal/cli"
	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/config"
	"github.com/Veraticus/sheetboard/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets.

Public sheets only need an API key (sheets.api_key). Exporting reports needs a
service account (sheets.service_account_path) or an OAuth2 login from
'sheetboard auth sheets'.`,
	}

	cmd.AddCommand(authSheetsCmd())
	cmd.AddCommand(authStatusCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Log in to Google Sheets with OAuth2",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Open your browser to authenticate with Google
2. Save the token next to the config file
3. Store the refresh token in your config file

You'll need to run this once before exporting with an OAuth2 client.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := sheetsConfig()

	// Override with flags if provided
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		cfg.ClientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		cfg.ClientSecret = flagSecret
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("%w: set sheets.client_id and sheets.client_secret or use --client-id and --client-secret", common.ErrMissingConfig)
	}

	path, err := tokenFile()
	if err != nil {
		return err
	}
	slog.Info("Starting Google Sheets authentication", "token_file", path)

	token, err := sheets.GetOrCreateToken(ctx, sheets.OAuth2Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenFile:    path,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	// Update config file with refresh token
	viper.Set("sheets.client_id", cfg.ClientID)
	viper.Set("sheets.client_secret", cfg.ClientSecret)
	viper.Set("sheets.refresh_token", token.RefreshToken)

	out := cmd.OutOrStdout()
	if err := saveConfig(); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		fmt.Fprintln(out, cli.FormatWarning("Could not save the refresh token; add it to config.yaml under sheets.refresh_token"))
		return nil
	}

	fmt.Fprintln(out, cli.FormatSuccess("Authentication successful"))
	fmt.Fprintln(out, cli.FormatInfo("Run 'sheetboard report <dashboard> --export' to export reports."))
	return nil
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which Google credentials will be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := sheetsConfig()
			out := cmd.OutOrStdout()

			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(out, cli.FormatError(err.Error()))
				return nil
			}

			fmt.Fprintln(out, cli.FormatSuccess("Using "+string(cfg.Method())))
			if cfg.Method() == sheets.AuthAPIKey {
				fmt.Fprintln(out, cli.FormatWarning(sheets.ErrReadOnlyAuth.Error()))
			}
			return nil
		},
	}
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		dir, err := config.Dir(true)
		if err != nil {
			return err
		}
		configFile = filepath.Join(dir, "config.yaml")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configFile), 0o750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}
