// Command senddm sends one direct message to one user through an already
// logged-in browser and prints the outcome as a single JSON line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibeckermayer/xdrip/internal/browser"
	"github.com/ibeckermayer/xdrip/internal/config"
	"github.com/ibeckermayer/xdrip/internal/logging"
	"github.com/ibeckermayer/xdrip/internal/markup"
	"github.com/ibeckermayer/xdrip/internal/sender"
	"github.com/ibeckermayer/xdrip/internal/store"
)

// errNotSent makes the exit code mirror the reported outcome
var errNotSent = errors.New("message not sent")

var (
	configFile string
	logLevel   string
	debugURL   string
)

func main() {
	err := newRootCmd().Execute()
	if errors.Is(err, errNotSent) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           usage,
		Short:         "Send one direct message and report the outcome as JSON",
		Args:          arity,
		SilenceErrors: true,
		RunE:          run,
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (default is the user config dir)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&debugURL, "debug-url", "", "remote-debugging endpoint of the running browser")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	req, err := parseArgs(args, cfg.Sending.SendPolicy)
	if err != nil {
		return err
	}
	// Arguments are valid; from here on failures are outcomes, not usage
	cmd.SilenceUsage = true

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := store.New(filepath.Join(cfg.Output.DataDir, store.LedgerFile))
	if err != nil {
		if !req.PolicyFromArgs {
			return fmt.Errorf("failed to open send ledger: %w", err)
		}
		logger.Warn("Send ledger unavailable, attempt will not be recorded", zap.Error(err))
	} else {
		defer ledger.Close()
	}

	if !req.PolicyFromArgs {
		if req.Policy.CurrentSendCount, err = ledger.CountToday(ctx); err != nil {
			return fmt.Errorf("failed to read today's send count: %w", err)
		}
	}

	page := &lazyPage{debugURL: cfg.Browser.DebugURL, opts: browser.FromConfig(cfg.Browser, logger)}
	defer page.release()

	s := sender.New(page, sender.Options{
		BaseURL:   cfg.Browser.BaseURL,
		SiteHosts: cfg.Browser.SiteHosts,
		Logger:    logger,
	})
	res := s.Send(ctx, req.Target, req.Message, req.Policy)

	if ledger != nil {
		rec := store.SendRecord{
			RunID:  "senddm-" + uuid.NewString(),
			UserID: req.Target.UserID,
			Status: res.Status(),
		}
		if err := res.Err(); err != nil {
			rec.Error = err.Error()
		}
		if err := ledger.RecordSend(context.WithoutCancel(ctx), rec); err != nil {
			logger.Warn("Failed to record send", zap.Error(err))
		}
	}

	if err := json.NewEncoder(os.Stdout).Encode(sender.Report(res)); err != nil {
		return err
	}
	if !res.Success() {
		return errNotSent
	}
	return nil
}

// lazyPage attaches to the browser on first use, so a send stopped by the
// daily limit never touches the browser
type lazyPage struct {
	debugURL string
	opts     browser.Options
	sess     *browser.Session
}

func (p *lazyPage) page(ctx context.Context) (*browser.Page, error) {
	if p.sess == nil {
		sess, err := browser.Attach(ctx, p.debugURL, p.opts)
		if err != nil {
			return nil, err
		}
		p.sess = sess
	}
	return p.sess.Page(), nil
}

func (p *lazyPage) release() {
	if p.sess != nil {
		p.sess.Release()
	}
}

func (p *lazyPage) Navigate(ctx context.Context, url string) error {
	page, err := p.page(ctx)
	if err != nil {
		return err
	}
	return page.Navigate(ctx, url)
}

func (p *lazyPage) Location(ctx context.Context) (string, error) {
	page, err := p.page(ctx)
	if err != nil {
		return "", err
	}
	return page.Location(ctx)
}

func (p *lazyPage) Locate(ctx context.Context, role markup.Role, handle string) (markup.Element, bool, error) {
	page, err := p.page(ctx)
	if err != nil {
		return nil, false, err
	}
	return page.Locate(ctx, role, handle)
}

func (p *lazyPage) LocateAny(ctx context.Context, roles []markup.Role, handle string) (markup.Element, markup.Role, bool, error) {
	page, err := p.page(ctx)
	if err != nil {
		return nil, "", false, err
	}
	return page.LocateAny(ctx, roles, handle)
}
