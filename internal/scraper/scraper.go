// Package scraper collects a user's followers from the rendered followers
// listing by scrolling until the page stops growing.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ibeckermayer/xdrip/internal/browser"
	"github.com/ibeckermayer/xdrip/internal/markup"
	"github.com/ibeckermayer/xdrip/internal/types"
)

// Page is the slice of a browser tab the collector needs
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, role markup.Role) (bool, error)
	ListItems(ctx context.Context) ([][]string, error)
	ScrollToBottom(ctx context.Context) error
	ScrollHeight(ctx context.Context) (int64, error)
}

// Options tunes a Collector. Zero values fall back to defaults.
type Options struct {
	// FollowersURL builds the listing address for a handle
	FollowersURL func(handle string) string
	// ScrollSettle bounds the wait for new rows after each scroll
	ScrollSettle time.Duration
	PollInterval time.Duration
	// OnRecord is called once for every newly discovered record
	OnRecord func(types.FollowerRecord)
	// Snapshot receives the full accumulated sequence after every pass
	Snapshot func([]types.FollowerRecord) error
	Logger   *zap.Logger
}

// Collector handles extracting followers from X.com
type Collector struct {
	page Page
	opts Options
	log  *zap.Logger
}

// New creates a new collector driving page
func New(page Page, opts Options) *Collector {
	if opts.FollowersURL == nil {
		opts.FollowersURL = func(handle string) string {
			return "https://twitter.com/" + handle + "/followers"
		}
	}
	if opts.ScrollSettle <= 0 {
		opts.ScrollSettle = 2 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Collector{page: page, opts: opts, log: opts.Logger.Named("scraper")}
}

// Collect returns every distinct follower of handle in discovery order.
// Markup that matches nothing yields an empty result, not an error.
// On error the records gathered so far are returned alongside it.
func (c *Collector) Collect(ctx context.Context, handle string) ([]types.FollowerRecord, error) {
	url := c.opts.FollowersURL(handle)
	if err := c.page.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("failed to load followers page: %w", err)
	}

	ready, err := c.page.WaitFor(ctx, markup.RolePrimaryColumn)
	if err != nil {
		return nil, err
	}
	if !ready {
		c.log.Warn("Followers list did not render, continuing anyway", zap.String("url", url))
	}

	return c.extractFollowers(ctx)
}

// extractFollowers scrolls and extracts followers until the page height
// stops changing
func (c *Collector) extractFollowers(ctx context.Context) ([]types.FollowerRecord, error) {
	var records []types.FollowerRecord
	seen := make(map[types.FollowerRecord]bool)

	last, err := c.page.ScrollHeight(ctx)
	if err != nil {
		return nil, err
	}

	for pass := 1; ; pass++ {
		items, err := c.page.ListItems(ctx)
		if err != nil {
			return records, err
		}

		added := 0
		for _, fragments := range items {
			rec, ok := markup.ParseFollower(fragments)
			if !ok || seen[rec] {
				continue
			}
			seen[rec] = true
			records = append(records, rec)
			added++
			if c.opts.OnRecord != nil {
				c.opts.OnRecord(rec)
			}
		}

		c.log.Debug("Extracted visible followers",
			zap.Int("pass", pass),
			zap.Int("items", len(items)),
			zap.Int("new", added),
			zap.Int("total", len(records)))

		if c.opts.Snapshot != nil {
			if err := c.opts.Snapshot(records); err != nil {
				return records, fmt.Errorf("failed to write snapshot: %w", err)
			}
		}

		if err := c.page.ScrollToBottom(ctx); err != nil {
			return records, err
		}

		// Wait for new content to load
		err = browser.WaitUntil(ctx, c.opts.ScrollSettle, c.opts.PollInterval, func(ctx context.Context) (bool, error) {
			h, err := c.page.ScrollHeight(ctx)
			return h != last, err
		})
		if err != nil && !errors.Is(err, browser.ErrTimeout) {
			return records, err
		}

		h, err := c.page.ScrollHeight(ctx)
		if err != nil {
			return records, err
		}
		if h == last {
			c.log.Info("Reached end of followers list", zap.Int("passes", pass), zap.Int("total", len(records)))
			return records, nil
		}
		last = h
	}
}
