package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dealbridge/gateway/internal/bootstrap"
	"github.com/dealbridge/gateway/internal/infrastructure/config"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:           "gatewayctl",
	Short:         "Operate the Jira <-> Pipedrive gateway",
	Long:          `Run one-off reconciliation passes between Jira and Pipedrive and manage the gateway configuration file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml, ./config/, /etc/dealbridge/)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every created record to stderr")
}

// loadConfig loads and validates configuration. Commands that talk to the remote systems call this.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger writes to stderr so stdout carries only command output
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logCfg := *cfg
	logCfg.Log.Output = "stderr"
	logCfg.Log.Format = "console"
	if verbose {
		logCfg.Log.Level = "debug"
	} else if logCfg.Log.Level == "info" {
		logCfg.Log.Level = "warn"
	}
	return bootstrap.NewLogger(&logCfg)
}
