package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "schedcal/internal/log"
	"schedcal/internal/refresh"
	"schedcal/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, if a portal URL is configured, the refresh loop",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Listen = serveListen
		}

		appLog.Info("effective config",
			"listen", cfg.Listen,
			"portal_url", cfg.PortalURL,
			"refresh", cfg.RefreshCron,
			"term_end", cfg.TermEnd,
			"output", cfg.OutputPath,
		)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		}()

		server := web.NewServer(cfg)

		if cfg.PortalURL != "" {
			refresher := refresh.New(cfg, server)
			if err := refresher.Start(ctx); err != nil {
				return err
			}
			defer refresher.Stop()
		} else {
			appLog.Info("no portal_url configured; serving on-demand API only")
		}

		return server.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
	rootCmd.AddCommand(serveCmd)
}
