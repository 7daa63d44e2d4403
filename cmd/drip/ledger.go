package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xdrip/internal/report"
	"github.com/ibeckermayer/xdrip/internal/store"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the send ledger",
	}

	today := &cobra.Command{
		Use:   "today",
		Short: "List today's send attempts and the remaining daily allowance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ledger, err := store.New(filepath.Join(cfg.Output.DataDir, store.LedgerFile))
			if err != nil {
				return err
			}
			defer ledger.Close()

			ctx := cmd.Context()
			day := store.StartOfDay(time.Now())

			sent, err := ledger.CountSince(ctx, day)
			if err != nil {
				return err
			}
			records, err := ledger.SendsSince(ctx, day)
			if err != nil {
				return err
			}

			b, err := report.New()
			if err != nil {
				return err
			}
			text, err := b.Ledger(report.LedgerData{
				Day:        day,
				DailyLimit: cfg.Sending.DailyLimit,
				Sent:       sent,
				Records:    records,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.AddCommand(today)
	return cmd
}
