package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/hxnav"
	"github.com/pthm/hxnav/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "hxnav",
	Short:         "hxnav serves isomorphic Go web apps",
	Long:          `hxnav renders pages on the server and hands them to a client app that keeps navigating in place.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "hxnav.yaml", "Path to the config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config")
}

// loadConfig reads --config. A missing default file yields a development
// config so the demo runs without one.
func loadConfig(cmd *cobra.Command) (*hxnav.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if _, err := os.Stat(path); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		return &hxnav.Config{
			Addr:         hxnav.DefaultAddr,
			ClientAppURL: "/static/app.js",
			StateKey:     "development-only",
			Debug:        true,
		}, nil
	}
	return hxnav.LoadConfig(path)
}

func newLogger(cmd *cobra.Command, cfg *hxnav.Config) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.LogLevel
	}
	return logging.New(logging.ParseLevel(level))
}
