// Command collect scrapes a user's follower list from an already logged-in
// browser and writes it to a timestamped CSV file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibeckermayer/xdrip/internal/browser"
	"github.com/ibeckermayer/xdrip/internal/config"
	"github.com/ibeckermayer/xdrip/internal/logging"
	"github.com/ibeckermayer/xdrip/internal/scraper"
	"github.com/ibeckermayer/xdrip/internal/store"
	"github.com/ibeckermayer/xdrip/internal/types"
)

var (
	configFile string
	logLevel   string
	debugURL   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "collect <handle>",
		Short:        "Collect a user's followers into a CSV file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (default is the user config dir)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&debugURL, "debug-url", "", "remote-debugging endpoint of the running browser")
	return cmd
}

func run(handle string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if debugURL != "" {
		cfg.Browser.DebugURL = debugURL
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	handle = strings.TrimPrefix(handle, "@")
	outPath := filepath.Join(cfg.Output.OutputDir, store.OutputFilename(time.Now()))

	sess, err := browser.Attach(ctx, cfg.Browser.DebugURL, browser.FromConfig(cfg.Browser, logger))
	if err != nil {
		return err
	}
	defer sess.Release()

	fmt.Printf("Collecting followers of @%s\n", handle)

	c := scraper.New(sess.Page(), scraper.Options{
		FollowersURL: cfg.Browser.FollowersURL,
		ScrollSettle: cfg.Browser.ScrollSettle,
		PollInterval: cfg.Browser.PollInterval,
		OnRecord: func(r types.FollowerRecord) {
			fmt.Printf("  @%s  %s\n", r.UserID, r.Nickname)
		},
		Snapshot: func(records []types.FollowerRecord) error {
			return store.WriteFollowersCSV(outPath, records)
		},
		Logger: logger,
	})

	records, err := c.Collect(ctx, handle)
	if err != nil {
		if len(records) > 0 {
			fmt.Printf("Collection stopped early, %d followers saved to %s\n", len(records), outPath)
		}
		logger.Error("Collection failed", zap.String("handle", handle), zap.Error(err))
		return err
	}

	// Write even when empty so every run leaves a file behind
	if err := store.WriteFollowersCSV(outPath, records); err != nil {
		return err
	}

	fmt.Printf("Collected %d followers\n", len(records))
	fmt.Printf("CSV saved: %s\n", outPath)
	return nil
}
