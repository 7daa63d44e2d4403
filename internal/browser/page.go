package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/ibeckermayer/xdrip/internal/markup"
)

// Page drives one browser tab. Every DOM query goes through the markup
// table so nothing outside internal/markup knows a selector.
type Page struct {
	ctx  context.Context // chromedp tab context
	opts Options
	log  *zap.Logger
}

func newPage(ctx context.Context, opts Options) *Page {
	return &Page{ctx: ctx, opts: opts, log: opts.Logger.Named("page")}
}

// run executes actions in the tab, bounded by the caller's ctx
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Navigate loads url and waits for the load event
func (p *Page) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.PageLoadTimeout)
	defer cancel()

	p.log.Debug("Navigating", zap.String("url", url))
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Location returns the URL the tab settled on
func (p *Page) Location(ctx context.Context) (string, error) {
	var url string
	if err := p.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

const firstPresentJS = `((sels) => {
	for (let i = 0; i < sels.length; i++) {
		if (document.querySelector(sels[i])) return i;
	}
	return -1;
})(%s)`

// Locate polls for the first selector of role that matches, up to the
// locate timeout. Absence is reported with ok=false, not an error.
func (p *Page) Locate(ctx context.Context, role markup.Role, handle string) (markup.Element, bool, error) {
	el, _, ok, err := p.LocateAny(ctx, []markup.Role{role}, handle)
	return el, ok, err
}

// LocateAny polls for several roles at once and returns the first one, in
// the given order, present on a check. One locate timeout covers them all.
func (p *Page) LocateAny(ctx context.Context, roles []markup.Role, handle string) (markup.Element, markup.Role, bool, error) {
	var (
		sels  []string
		owner []markup.Role
	)
	for _, role := range roles {
		rs, err := p.opts.Table.Resolve(role, handle)
		if err != nil {
			return nil, "", false, err
		}
		sels = append(sels, rs...)
		for range rs {
			owner = append(owner, role)
		}
	}
	arg, err := json.Marshal(sels)
	if err != nil {
		return nil, "", false, err
	}
	js := fmt.Sprintf(firstPresentJS, arg)

	found := -1
	err = WaitUntil(ctx, p.opts.LocateTimeout, p.opts.PollInterval, func(ctx context.Context) (bool, error) {
		if err := p.run(ctx, chromedp.Evaluate(js, &found)); err != nil {
			return false, err
		}
		return found >= 0, nil
	})
	if errors.Is(err, ErrTimeout) {
		p.log.Debug("Element not present", zap.Any("roles", roles), zap.String("handle", handle))
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to locate %v: %w", roles, err)
	}

	role := owner[found]
	return &element{page: p, role: role, selector: sels[found]}, role, true, nil
}

// WaitFor is Locate without the element
func (p *Page) WaitFor(ctx context.Context, role markup.Role) (bool, error) {
	_, ok, err := p.Locate(ctx, role, "")
	return ok, err
}

const listItemsJS = `((sel) => Array.from(document.querySelectorAll(sel))
	.map(el => Array.from(el.querySelectorAll('span'))
		.map(s => (s.textContent || '').trim())
		.filter(t => t.length > 0))
	.filter(f => f.length > 0))(%s)`

// ListItems returns the span text fragments of every list item on the page,
// in document order
func (p *Page) ListItems(ctx context.Context) ([][]string, error) {
	sels, err := p.opts.Table.Resolve(markup.RoleListItem, "")
	if err != nil {
		return nil, err
	}
	arg, err := json.Marshal(sels[0])
	if err != nil {
		return nil, err
	}

	var items [][]string
	if err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(listItemsJS, arg), &items)); err != nil {
		return nil, fmt.Errorf("failed to extract list items: %w", err)
	}
	return items, nil
}

// ScrollToBottom scrolls the window to the current document height
func (p *Page) ScrollToBottom(ctx context.Context) error {
	return p.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

// ScrollHeight returns the document's scrollable height
func (p *Page) ScrollHeight(ctx context.Context) (int64, error) {
	var h int64
	if err := p.run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &h)); err != nil {
		return 0, fmt.Errorf("failed to read scroll height: %w", err)
	}
	return h, nil
}

type element struct {
	page     *Page
	role     markup.Role
	selector string
}

const clickJS = `((sel) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.click();
	return true;
})(%s)`

func (e *element) Click(ctx context.Context) error {
	arg, err := json.Marshal(e.selector)
	if err != nil {
		return err
	}
	var clicked bool
	if err := e.page.run(ctx, chromedp.Evaluate(fmt.Sprintf(clickJS, arg), &clicked)); err != nil {
		return fmt.Errorf("failed to click %s: %w", e.role, err)
	}
	if !clicked {
		return fmt.Errorf("%s detached before click", e.role)
	}
	// Give the page a moment to react before the next lookup
	return sleep(ctx, e.page.opts.PollInterval)
}

func (e *element) Type(ctx context.Context, text string) error {
	if err := e.page.run(ctx, chromedp.SendKeys(e.selector, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to type into %s: %w", e.role, err)
	}
	return nil
}

func (e *element) LineBreak(ctx context.Context) error {
	err := e.page.run(ctx,
		chromedp.Focus(e.selector, chromedp.ByQuery),
		chromedp.KeyEvent(kb.Enter, chromedp.KeyModifiers(input.ModifierShift)),
	)
	if err != nil {
		return fmt.Errorf("failed to insert line break in %s: %w", e.role, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
