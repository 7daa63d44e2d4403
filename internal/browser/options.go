// Package browser attaches to an externally launched, already authenticated
// browser over its remote-debugging endpoint and exposes the tab the tools
// drive through chromedp.
package browser

import (
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/ibeckermayer/xdrip/internal/config"
	"github.com/ibeckermayer/xdrip/internal/markup"
)

// Options configures a Session and the pages it hands out
type Options struct {
	Table           *markup.Table
	LocateTimeout   time.Duration
	PollInterval    time.Duration
	PageLoadTimeout time.Duration
	Logger          *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Table == nil {
		o.Table = markup.Default
	}
	if o.LocateTimeout <= 0 {
		o.LocateTimeout = 10 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 250 * time.Millisecond
	}
	if o.PageLoadTimeout <= 0 {
		o.PageLoadTimeout = 20 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// FromConfig builds session options from the [browser] config section
func FromConfig(c config.BrowserConfig, logger *zap.Logger) Options {
	return Options{
		Table:           markup.Default,
		LocateTimeout:   c.LocateTimeout,
		PollInterval:    c.PollInterval,
		PageLoadTimeout: c.PageLoadTimeout,
		Logger:          logger,
	}
}

// RemoteURL normalizes a debugging endpoint. A bare host:port becomes an
// http URL, which chromedp resolves to the browser websocket itself.
func RemoteURL(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "http://" + endpoint
}

// contextOptions routes chromedp's own logging through zap.
// Protocol noise goes to debug so it does not drown the tool output.
func contextOptions(log *zap.Logger) []chromedp.ContextOption {
	sugar := log.Named("cdp").Sugar()
	return []chromedp.ContextOption{
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithDebugf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	}
}
