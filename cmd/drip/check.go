package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xdrip/internal/browser"
	"github.com/ibeckermayer/xdrip/internal/markup"
	"github.com/ibeckermayer/xdrip/internal/sender"
)

// checkPage is the part of a tab the readiness check drives
type checkPage interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	WaitFor(ctx context.Context, role markup.Role) (bool, error)
}

// Paths the site redirects to when the session is logged out
var loginPaths = []string{"/login", "/i/flow/login", "/i/flow/signup", "/logout"}

type readiness struct {
	Location string
	OnSite   bool
	LoggedIn bool
}

func (r readiness) Ready() bool { return r.OnSite && r.LoggedIn }

// checkSession opens baseURL in page and reports whether the browser is
// on the site with a logged-in session
func checkSession(ctx context.Context, page checkPage, baseURL string, hosts []string) (readiness, error) {
	if err := page.Navigate(ctx, baseURL); err != nil {
		return readiness{}, err
	}
	loc, err := page.Location(ctx)
	if err != nil {
		return readiness{}, err
	}

	r := readiness{Location: loc, OnSite: sender.OnSite(loc, hosts)}
	if !r.OnSite || isLoginFlow(loc) {
		return r, nil
	}
	r.LoggedIn, err = page.WaitFor(ctx, markup.RolePrimaryColumn)
	return r, err
}

func isLoginFlow(loc string) bool {
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	path := strings.TrimRight(u.Path, "/")
	for _, p := range loginPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func newCheckCmd() *cobra.Command {
	var debugURL string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the running browser is reachable and logged in to the site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if debugURL != "" {
				cfg.Browser.DebugURL = debugURL
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Attaching to %s\n", browser.RemoteURL(cfg.Browser.DebugURL))

			sess, err := browser.Attach(ctx, cfg.Browser.DebugURL, browser.FromConfig(cfg.Browser, logger))
			if err != nil {
				return fmt.Errorf("browser not reachable: %w", err)
			}
			defer sess.Release()

			r, err := checkSession(ctx, sess.Page(), cfg.Browser.BaseURL, cfg.Browser.SiteHosts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Opened %s, landed on %s\n", cfg.Browser.BaseURL, r.Location)

			switch {
			case !r.OnSite:
				fmt.Fprintf(out, "Left %v; check browser.base_url and browser.site_hosts.\n", cfg.Browser.SiteHosts)
			case !r.LoggedIn:
				fmt.Fprintln(out, "Not logged in; log in in that browser before collecting or sending.")
			default:
				fmt.Fprintln(out, "Ready.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&debugURL, "debug-url", "", "remote-debugging endpoint of the running browser")
	return cmd
}
