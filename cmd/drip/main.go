// Command drip is the operator CLI: campaign runs over a targets file, the
// daily schedule, the send ledger and quick access to config and output.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibeckermayer/xdrip/internal/config"
	"github.com/ibeckermayer/xdrip/internal/logging"
)

var (
	configFile string
	logLevel   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "drip",
		Short:         "Operate follower outreach campaigns through a logged-in browser",
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is the user config dir)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newOpenCmd(),
		newConfigCmd(),
		newCampaignCmd(),
		newLedgerCmd(),
		newCheckCmd(),
	)
	return root
}

// setup loads config and builds the logger shared by every subcommand
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
