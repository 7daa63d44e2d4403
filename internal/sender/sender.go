// Package sender delivers one direct message to one user by driving the
// profile page UI: optional follow, open the composer, type, submit.
package sender

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ibeckermayer/xdrip/internal/markup"
	"github.com/ibeckermayer/xdrip/internal/types"
)

// Page is the slice of a browser tab the sender needs
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	// Locate reports ok=false when the affordance never appeared
	Locate(ctx context.Context, role markup.Role, handle string) (markup.Element, bool, error)
	// LocateAny waits once for whichever of roles shows up first; earlier
	// roles win when several are present
	LocateAny(ctx context.Context, roles []markup.Role, handle string) (markup.Element, markup.Role, bool, error)
}

// Options configures a Sender. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	SiteHosts []string
	Sleep     Sleeper
	// Rand drives the delay sampling. It is not safe for concurrent use,
	// so give each Sender its own.
	Rand   *rand.Rand
	Logger *zap.Logger
}

// Sender performs single send attempts on one page
type Sender struct {
	page Page
	opts Options
	log  *zap.Logger
}

// New creates a Sender driving page
func New(page Page, opts Options) *Sender {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://twitter.com"
	}
	if len(opts.SiteHosts) == 0 {
		opts.SiteHosts = []string{"twitter.com", "x.com"}
	}
	if opts.Sleep == nil {
		opts.Sleep = SleepContext
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Sender{page: page, opts: opts, log: opts.Logger.Named("sender")}
}

// Send makes exactly one attempt to message target. It never retries.
func (s *Sender) Send(ctx context.Context, target types.SendTarget, message string, policy types.SendPolicy) Result {
	log := s.log.With(zap.String("user_id", target.UserID))

	if policy.CurrentSendCount >= policy.DailyLimit {
		log.Info("Daily limit reached, not sending",
			zap.Int("sent_today", policy.CurrentSendCount),
			zap.Int("daily_limit", policy.DailyLimit))
		return Failed{Cause: &LimitError{Limit: policy.DailyLimit}}
	}

	text := FormatMessage(message, target.Nickname)

	delay := RandomInterval(s.opts.Rand, policy.MinIntervalSeconds, policy.MaxIntervalSeconds)
	log.Info("Waiting before send", zap.Duration("delay", delay))
	if err := s.opts.Sleep(ctx, delay); err != nil {
		return Failed{Cause: err}
	}

	followed := false
	fail := func(err error) Result {
		log.Warn("Send failed", zap.Bool("followed", followed), zap.Error(err))
		if followed {
			return Followed{Cause: err}
		}
		return Failed{Cause: err}
	}

	if err := s.openProfile(ctx, target.UserID); err != nil {
		return fail(err)
	}

	if policy.FollowBeforeMessage {
		if err := s.follow(ctx, target.UserID); err != nil {
			return fail(err)
		}
		followed = true
	}

	if err := s.compose(ctx, target.UserID, text); err != nil {
		return fail(err)
	}

	log.Info("Message sent")
	return Sent{}
}

func (s *Sender) openProfile(ctx context.Context, userID string) error {
	profile := strings.TrimRight(s.opts.BaseURL, "/") + "/" + userID
	if err := s.page.Navigate(ctx, profile); err != nil {
		return err
	}

	loc, err := s.page.Location(ctx)
	if err != nil {
		return err
	}
	if !OnSite(loc, s.opts.SiteHosts) {
		return &NavigationError{Want: strings.Join(s.opts.SiteHosts, "|"), Got: loc}
	}
	return nil
}

// OnSite reports whether loc is on one of hosts or a subdomain of one
func OnSite(loc string, hosts []string) bool {
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// follow clicks follow or follow-back. An existing follow counts as done
// and is left alone, since clicking it would unfollow.
func (s *Sender) follow(ctx context.Context, userID string) error {
	el, role, ok, err := s.page.LocateAny(ctx, followRoles, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Role: markup.RoleFollow}
	}
	if role == markup.RoleFollowing {
		s.log.Debug("Already following", zap.String("user_id", userID))
		return nil
	}
	s.log.Debug("Following", zap.String("user_id", userID), zap.String("via", string(role)))
	return el.Click(ctx)
}

var followRoles = []markup.Role{markup.RoleFollow, markup.RoleFollowBack, markup.RoleFollowing}

func (s *Sender) compose(ctx context.Context, userID, text string) error {
	if err := s.click(ctx, markup.RoleMessage, userID); err != nil {
		return err
	}

	composer, ok, err := s.page.Locate(ctx, markup.RoleComposer, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Role: markup.RoleComposer}
	}

	for i, line := range SplitLines(text) {
		if i > 0 {
			if err := composer.LineBreak(ctx); err != nil {
				return err
			}
		}
		if line == "" {
			continue
		}
		if err := composer.Type(ctx, line); err != nil {
			return err
		}
	}
	// One extra keystroke makes the composer register the typed text
	if err := composer.Type(ctx, " "); err != nil {
		return err
	}

	return s.click(ctx, markup.RoleSend, userID)
}

func (s *Sender) click(ctx context.Context, role markup.Role, userID string) error {
	el, ok, err := s.page.Locate(ctx, role, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Role: role}
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", role, err)
	}
	return nil
}
