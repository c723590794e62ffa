package fetcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"course-matcher/internal/common/logging"
)

// ChromeLauncher starts a headless Chrome or Chromium through chromedp
type ChromeLauncher struct {
	// ExecPath is the browser binary; empty means chromedp's auto-detection
	ExecPath string
	// NoSandbox disables the Chrome sandbox, required when running as root in containers
	NoSandbox bool
	Logger    logging.Logger
}

// Launch starts the browser process. The browser outlives ctx; it is stopped
// by Browser.Close.
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	if l.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.ExecPath))
	}
	if l.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	launched := make(chan error, 1)
	go func() {
		// Running no actions starts the browser process and its first target
		launched <- chromedp.Run(browserCtx)
	}()

	select {
	case err := <-launched:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, err
		}
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		return nil, ctx.Err()
	}

	logger := l.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &chromeBrowser{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

type chromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      logging.Logger
	closeOnce   sync.Once
	closeErr    error
}

// NewSession opens a new tab. The tab is a child of the browser context, not
// of ctx, so it is torn down by Session.Close or by the browser closing.
func (b *chromeBrowser) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(b.ctx)

	// The first Run allocates the target and ties it to the context it is
	// given, so it must run on the uncancelled tab context.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	return &chromeSession{ctx: tabCtx, cancel: cancel, logger: b.logger}, nil
}

func (b *chromeBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		b.cancel()
		b.allocCancel()
	})
	return b.closeErr
}

type chromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger logging.Logger
}

// BlockResources intercepts every request in the tab and fails the ones whose
// resource type is in types. Everything else is continued unchanged.
func (s *chromeSession) BlockResources(ctx context.Context, types []ResourceType) error {
	blocked := make(map[network.ResourceType]bool, len(types))
	for _, t := range types {
		blocked[network.ResourceType(t)] = true
	}

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		// Listeners must not block the event loop
		go func() {
			c := chromedp.FromContext(s.ctx)
			if c == nil || c.Target == nil {
				return
			}
			execCtx := cdp.WithExecutor(s.ctx, c.Target)

			var err error
			if blocked[paused.ResourceType] {
				err = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			} else {
				err = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
			}
			if err != nil && s.ctx.Err() == nil {
				s.logger.Debug("Failed to resolve intercepted request",
					logging.Field{"request_url", paused.Request.URL},
					logging.Field{"error", err.Error()},
				)
			}
		}()
	})

	runCtx, stop := bindContext(s.ctx, ctx)
	defer stop()

	return chromedp.Run(runCtx, fetch.Enable().WithPatterns([]*fetch.RequestPattern{{URLPattern: "*"}}))
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, stop := bindContext(s.ctx, ctx)
	defer stop()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *chromeSession) Content(ctx context.Context) (string, error) {
	runCtx, stop := bindContext(s.ctx, ctx)
	defer stop()

	var html string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(`document.documentElement.outerHTML`, &html)); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return html, nil
}

// Close closes the tab
func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	return err
}

// bindContext derives a context from the chromedp context target that is also
// canceled when caller is done, keeping caller's deadline. Canceling the
// derived context aborts the running actions without closing the tab.
func bindContext(target, caller context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(target)
	if deadline, ok := caller.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		ctx, cancelDeadline = context.WithDeadline(ctx, deadline)
		prev := cancel
		cancel = func() {
			cancelDeadline()
			prev()
		}
	}
	stopAfter := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stopAfter()
		cancel()
	}
}
