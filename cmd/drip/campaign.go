package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibeckermayer/xdrip/internal/browser"
	"github.com/ibeckermayer/xdrip/internal/campaign"
	"github.com/ibeckermayer/xdrip/internal/config"
	"github.com/ibeckermayer/xdrip/internal/notifier"
	"github.com/ibeckermayer/xdrip/internal/report"
	"github.com/ibeckermayer/xdrip/internal/scheduler"
	"github.com/ibeckermayer/xdrip/internal/sender"
	"github.com/ibeckermayer/xdrip/internal/store"
	"github.com/ibeckermayer/xdrip/internal/types"
)

// campaignFlags are shared by run and schedule
type campaignFlags struct {
	targets      string
	messages     []string
	workers      int
	skipExisting bool
	all          bool
}

func (f *campaignFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.targets, "targets", "t", "", "targets CSV (userId,name,nickname,profile,status,isSend)")
	cmd.Flags().StringArrayVarP(&f.messages, "message", "m", nil, "message template, repeatable; one is picked at random per target (default from config)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "parallel browser tabs (default from config)")
	cmd.Flags().BoolVar(&f.skipExisting, "skip-existing", false, "skip targets already marked success (default from config)")
	cmd.Flags().BoolVar(&f.all, "all", false, "send to every target, ignoring isSend")
	_ = cmd.MarkFlagRequired("targets")
}

// campaignConfig merges flags over the [sending] config section
func (f *campaignFlags) campaignConfig(cmd *cobra.Command, cfg *config.Config) campaign.Config {
	c := campaign.Config{
		Templates:    cfg.Sending.Templates,
		Policy:       cfg.Sending.SendPolicy,
		SkipExisting: cfg.Sending.SkipExisting,
		SelectAll:    f.all,
		Workers:      cfg.Sending.Workers,
		TargetsPath:  f.targets,
	}
	if len(f.messages) > 0 {
		c.Templates = f.messages
	}
	if f.workers > 0 {
		c.Workers = f.workers
	}
	if cmd.Flags().Changed("skip-existing") {
		c.SkipExisting = f.skipExisting
	}
	return c
}

func newCampaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Send messages to every selected target in a CSV file",
	}
	cmd.AddCommand(newCampaignRunCmd(), newCampaignScheduleCmd(), newCampaignLastCmd())
	return cmd
}

func newCampaignRunCmd() *cobra.Command {
	var flags campaignFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a campaign now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = runCampaign(ctx, cmd.OutOrStdout(), cfg, flags.campaignConfig(cmd, cfg), logger)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newCampaignScheduleCmd() *cobra.Command {
	var (
		flags   campaignFlags
		at      string
		timeout time.Duration
		now     bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run a campaign every day at a fixed time until interrupted or done",
		Long: `Run a campaign every day at a fixed time. With skip-existing on, the
schedule ends by itself once a run leaves nothing to send.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if at == "" {
				at = cfg.Schedule.At
			}
			cc := flags.campaignConfig(cmd, cfg)

			s, err := scheduler.New(cfg.Schedule.Timezone, timeout, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			job := func(ctx context.Context) error {
				summary, err := runCampaign(ctx, cmd.OutOrStdout(), cfg, cc, logger)
				if err != nil {
					return err
				}
				if cc.SkipExisting && summary.Exhausted() {
					fmt.Fprintln(cmd.OutOrStdout(), "Every selected target has been sent; ending the schedule.")
					s.RemoveJob(campaignJob)
					stop()
				}
				return nil
			}
			if err := s.AddDailyJob(campaignJob, at, job); err != nil {
				return err
			}

			// Interrupts must also reach a run started by --now
			unwatch := context.AfterFunc(ctx, func() { s.Stop() })
			defer unwatch()

			s.Start()
			if now {
				if err := s.RunNow(campaignJob, job); err != nil {
					logger.Error("First run failed", zap.Error(err))
				}
			}
			for _, j := range s.ListJobs() {
				fmt.Fprintf(cmd.OutOrStdout(), "Next %s run: %s\n", j.Name, j.NextRun.Format("2006-01-02 15:04 MST"))
			}

			<-ctx.Done()
			<-s.Stop().Done()
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&at, "at", "", "daily start time HH:MM (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Hour, "maximum length of one run")
	cmd.Flags().BoolVar(&now, "now", false, "also run once immediately")
	return cmd
}

const campaignJob = "campaign"

func newCampaignLastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Show the summary of the most recent campaign run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			summary, _, err := store.LoadLatestRunSummary[campaign.Summary](cfg.Output.DataDir)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
}

// runCampaign executes one campaign against the configured browser and
// persists its summary
func runCampaign(ctx context.Context, out io.Writer, cfg *config.Config, cc campaign.Config, logger *zap.Logger) (campaign.Summary, error) {
	targets, err := store.ReadTargetsCSV(cc.TargetsPath)
	if err != nil {
		return campaign.Summary{}, fmt.Errorf("failed to read targets: %w", err)
	}

	notify, err := notifier.NewFromConfig(cfg.Notify)
	if err != nil {
		return campaign.Summary{}, err
	}

	ledger, err := store.New(filepath.Join(cfg.Output.DataDir, store.LedgerFile))
	if err != nil {
		return campaign.Summary{}, fmt.Errorf("failed to open send ledger: %w", err)
	}
	defer ledger.Close()

	sess, err := browser.Attach(ctx, cfg.Browser.DebugURL, browser.FromConfig(cfg.Browser, logger))
	if err != nil {
		return campaign.Summary{}, err
	}
	defer sess.Release()

	senders := campaign.BrowserSenders(sess, sender.Options{
		BaseURL:   cfg.Browser.BaseURL,
		SiteHosts: cfg.Browser.SiteHosts,
		Logger:    logger,
	})

	progress := func(t types.SendTarget, res sender.Result) {
		line := fmt.Sprintf("%-8s @%s", res.Status(), t.UserID)
		if err := res.Err(); err != nil {
			line += "  " + err.Error()
		}
		fmt.Fprintln(out, line)
	}

	runner, err := campaign.New(cc, ledger, senders, logger, campaign.WithAttemptHook(progress))
	if err != nil {
		return campaign.Summary{}, err
	}

	summary, runErr := runner.Run(ctx, targets)

	if path, err := store.SaveRunSummary(cfg.Output.DataDir, summary); err != nil {
		logger.Warn("Failed to save run summary", zap.Error(err))
	} else {
		logger.Debug("Saved run summary", zap.String("path", path))
	}

	text, err := renderSummary(summary)
	if err != nil {
		return campaign.Summary{}, err
	}
	fmt.Fprint(out, text)

	if notify != nil {
		if err := notify.SendSummary(summary, text); err != nil {
			logger.Warn("Failed to mail run summary", zap.Error(err))
		}
	}

	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(out, "Interrupted; unsent targets keep their status for the next run.")
		return summary, nil
	}
	return summary, runErr
}

func renderSummary(summary campaign.Summary) (string, error) {
	b, err := report.New()
	if err != nil {
		return "", err
	}
	return b.Summary(summary)
}

func printSummary(out io.Writer, summary campaign.Summary) error {
	text, err := renderSummary(summary)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, text)
	return err
}
