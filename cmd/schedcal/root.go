package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schedcal/internal/config"
	appLog "schedcal/internal/log"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "schedcal",
	Short: "Convert a saved university schedule page into an iCalendar file",
	Long: `schedcal extracts course-section meeting patterns from a saved HTML
schedule page (or a live portal page via headless Chromium) and emits a
weekly-recurring iCalendar file importable into any calendar application.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "schedcal.yaml", "Path to config file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the YAML config and applies its log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", configPath)
		return nil, err
	}
	appLog.SetLevel(cfg.LogLevel)
	return cfg, nil
}
