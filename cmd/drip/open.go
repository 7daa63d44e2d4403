package main

import (
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xdrip/internal/config"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "open <config|output|data>",
		Short:     "Open the config file or a data directory with the system handler",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"config", "output", "data"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := openTarget(args[0])
			if err != nil {
				return err
			}
			if err := browser.OpenFile(path); err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			return nil
		},
	}
}

func openTarget(target string) (string, error) {
	switch target {
	case "config":
		path := configFile
		if path == "" {
			var err error
			if path, err = config.ConfigPath(); err != nil {
				return "", err
			}
		}
		// Materialize defaults so there is something to edit
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := config.Default().Save(path); err != nil {
				return "", err
			}
		}
		return path, nil
	case "output", "data":
		cfg, err := config.Load(configFile)
		if err != nil {
			return "", err
		}
		dir := cfg.Output.OutputDir
		if target == "data" {
			dir = cfg.Output.DataDir
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
		return dir, nil
	}
	return "", fmt.Errorf("unknown target: %s", target)
}
