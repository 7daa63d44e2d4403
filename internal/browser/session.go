package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Session is a borrowed connection to a browser the tool did not launch.
// It owns only the tabs it opens. Release closes those tabs and drops the
// debugging connection; the browser itself is never closed.
type Session struct {
	opts Options
	log  *zap.Logger

	cancelAlloc context.CancelFunc
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	page        *Page

	mu       sync.Mutex
	extra    map[*Page]context.CancelFunc
	released bool
}

// Attach connects to the remote-debugging endpoint and opens one tab for
// the caller. The caller must call Release exactly once.
func Attach(ctx context.Context, debugURL string, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	log := opts.Logger.Named("browser")

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, RemoteURL(debugURL))
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, contextOptions(log)...)

	// An empty run connects and creates the tab
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to attach to browser at %s: %w", debugURL, err)
	}

	log.Info("Attached to browser", zap.String("endpoint", debugURL))

	s := &Session{
		opts:        opts,
		log:         log,
		cancelAlloc: cancelAlloc,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		extra:       make(map[*Page]context.CancelFunc),
	}
	s.page = newPage(tabCtx, opts)
	return s, nil
}

// Page returns the session's own tab
func (s *Session) Page() *Page {
	return s.page
}

// NewPage opens an additional tab in the same browser, sharing its login.
// The returned func closes that tab; Release closes any left open.
func (s *Session) NewPage() (*Page, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, nil, fmt.Errorf("session already released")
	}

	ctx, cancel := chromedp.NewContext(s.tabCtx)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to open tab: %w", err)
	}

	p := newPage(ctx, s.opts)
	s.extra[p] = cancel

	closeFn := func() {
		s.mu.Lock()
		cancel, ok := s.extra[p]
		delete(s.extra, p)
		s.mu.Unlock()
		if ok {
			s.closeTab(ctx, cancel)
		}
	}
	return p, closeFn, nil
}

// Release closes the tabs this session opened and disconnects.
// Calling it more than once is a no-op.
func (s *Session) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	extra := s.extra
	s.extra = nil
	s.mu.Unlock()

	for p, cancel := range extra {
		s.closeTab(p.ctx, cancel)
	}
	s.closeTab(s.tabCtx, s.cancelTab)
	s.cancelAlloc()

	s.log.Info("Released browser session")
}

// closeTab closes a tab this session created. Only the page is closed,
// never the browser, so chromedp.Cancel is not used here.
func (s *Session) closeTab(ctx context.Context, cancel context.CancelFunc) {
	if err := chromedp.Run(ctx, page.Close()); err != nil {
		s.log.Debug("Closing tab failed", zap.Error(err))
	}
	cancel()
}
