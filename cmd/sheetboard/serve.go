package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"

	"github.com/Veraticus/sheetboard/internal/certs"
	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/config"
	"github.com/Veraticus/sheetboard/internal/feed"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/Veraticus/sheetboard/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [dashboard...]",
		Short: "Serve dashboards as a JSON API",
		Long: `Poll the dashboards' sheets in the background and serve their summaries over HTTP.

Endpoints:
  GET /api/v1/dashboards
  GET /api/v1/dashboards/{name}/summary?period=week&VENDEDOR=Ana,Bruno
  GET /api/v1/dashboards/{name}/options/{column}
  GET /healthz

Without names every configured dashboard is served.`,
		RunE: runServe,
	}

	cmd.Flags().String("listen", "", "listen address (default: 127.0.0.1:8080)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	boards, err := a.dashboards(args)
	if err != nil {
		return err
	}

	pipelines := make([]*pipeline.Pipeline, len(boards))
	for i, d := range boards {
		pipelines[i] = a.pipeline(d)
	}
	registry := server.NewRegistry(pipelines...)

	cfg := server.Config{Addr: a.settings.ListenAddr}
	if viper.GetBool("server.tls") {
		if cfg.TLS, err = tlsConfig(a.settings.ListenAddr); err != nil {
			return err
		}
	}
	api := server.NewWebAPI(a.logger, cfg, server.NewHandler(registry, a.settings.DefaultPeriod))

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, d := range boards {
		loader := feed.NewLoader(a.source, pipelines[i])
		interval := a.settings.Refresh(d.RefreshInterval)
		g.Go(func() error {
			registry.Watch(ctx, loader, interval, a.logger)
			return nil
		})
	}
	g.Go(func() error {
		return api.Start(ctx)
	})

	slog.Info("serving dashboards", "count", len(boards), "addr", a.settings.ListenAddr)
	return g.Wait()
}

// tlsConfig loads or creates a certificate covering the listen host.
func tlsConfig(addr string) (*tls.Config, error) {
	dir, err := config.Dir(true)
	if err != nil {
		return nil, err
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: server.listen %q: %w", common.ErrInvalidConfig, addr, err)
	}

	cfg, err := certs.NewFileManager(filepath.Join(dir, "certs"), host).TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare TLS certificate: %w", err)
	}
	return cfg, nil
}
