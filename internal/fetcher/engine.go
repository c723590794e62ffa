// Package fetcher renders course pages in a shared headless browser.
//
// The Engine owns the browser handle. The browser is launched on first use,
// each fetch runs in its own tab session, and Close tears the browser down
// exactly once. Sub-resources that do not affect the rendered text (images,
// stylesheets, fonts) are blocked to keep renders fast.
package fetcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"course-matcher/internal/common/errors"
	"course-matcher/internal/common/logging"
)

// DefaultTimeout bounds navigation plus content extraction for one page
const DefaultTimeout = 60 * time.Second

// DefaultMaxSessions bounds the number of tabs open at once
const DefaultMaxSessions = 8

// ResourceType names a sub-resource class using the DevTools protocol spelling
type ResourceType string

const (
	ResourceImage      ResourceType = "Image"
	ResourceStylesheet ResourceType = "Stylesheet"
	ResourceFont       ResourceType = "Font"
)

// DefaultBlocked are the resource types aborted during a render
var DefaultBlocked = []ResourceType{ResourceImage, ResourceStylesheet, ResourceFont}

// ErrEngineClosed is returned by Fetch after Close
var ErrEngineClosed = stderrors.New("fetch engine is closed")

// Request describes one page render
type Request struct {
	URL     string
	Timeout time.Duration
	Blocked []ResourceType
}

// Launcher starts a browser process
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser is a running browser that can open isolated tab sessions
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

// Session is one browser tab. It is used by a single fetch and must be closed
// by it.
type Session interface {
	BlockResources(ctx context.Context, types []ResourceType) error
	Navigate(ctx context.Context, url string) error
	Content(ctx context.Context) (string, error)
	Close() error
}

// Option configures an Engine
type Option func(*Engine)

// WithTimeout overrides DefaultTimeout
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithMaxSessions overrides DefaultMaxSessions
func WithMaxSessions(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSessions = n
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine renders pages through a lazily launched shared browser
type Engine struct {
	launcher    Launcher
	timeout     time.Duration
	maxSessions int
	sessions    *semaphore.Weighted
	logger      logging.Logger

	mu      sync.Mutex
	browser Browser
	closed  bool
}

// NewEngine creates an engine. No browser is started until the first Fetch.
func NewEngine(launcher Launcher, opts ...Option) *Engine {
	e := &Engine{
		launcher:    launcher,
		timeout:     DefaultTimeout,
		maxSessions: DefaultMaxSessions,
		logger:      logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sessions = semaphore.NewWeighted(int64(e.maxSessions))
	return e
}

// Fetch renders url with the default timeout and blocked resource types and
// returns the page's outer HTML.
func (e *Engine) Fetch(ctx context.Context, url string) (string, error) {
	return e.Render(ctx, Request{
		URL:     url,
		Timeout: e.timeout,
		Blocked: DefaultBlocked,
	})
}

// Render performs one page render. Every failure is returned as a fetch
// error; deadline overruns carry errors.CodeFetchTimeout.
func (e *Engine) Render(ctx context.Context, req Request) (string, error) {
	if req.Timeout <= 0 {
		req.Timeout = e.timeout
	}

	browser, err := e.acquireBrowser(ctx, req.URL)
	if err != nil {
		return "", err
	}

	if err := e.sessions.Acquire(ctx, 1); err != nil {
		return "", errors.FetchError(req.URL, err)
	}
	defer e.sessions.Release(1)

	renderCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	start := time.Now()
	content, err := e.renderInSession(renderCtx, browser, req)
	if err != nil {
		if stderrors.Is(renderCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			e.logger.WithContext(ctx).Warn("Page render timed out",
				logging.Field{"url", req.URL},
				logging.Field{"timeout", req.Timeout.String()},
			)
			return "", errors.FetchTimeoutError(req.URL, err)
		}
		if _, ok := errors.As(err); ok {
			return "", err
		}
		return "", errors.FetchError(req.URL, err)
	}

	e.logger.WithContext(ctx).Debug("Page rendered",
		logging.Field{"url", req.URL},
		logging.Field{"bytes", len(content)},
		logging.Field{"duration", time.Since(start).String()},
	)

	return content, nil
}

func (e *Engine) renderInSession(ctx context.Context, browser Browser, req Request) (content string, err error) {
	session, err := browser.NewSession(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			e.logger.Warn("Failed to close browser session",
				logging.Field{"url", req.URL},
				logging.Field{"error", closeErr.Error()},
			)
		}
	}()

	if len(req.Blocked) > 0 {
		if err := session.BlockResources(ctx, req.Blocked); err != nil {
			return "", fmt.Errorf("failed to install resource filter: %w", err)
		}
	}

	if err := session.Navigate(ctx, req.URL); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	content, err = session.Content(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// acquireBrowser returns the shared browser, launching it if needed. A failed
// launch is not remembered, so the next caller tries again.
func (e *Engine) acquireBrowser(ctx context.Context, url string) (Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errors.FetchError(url, ErrEngineClosed).WithCode(errors.CodeEngineClosed)
	}
	if e.browser != nil {
		return e.browser, nil
	}

	e.logger.Info("Launching headless browser")
	browser, err := e.launcher.Launch(ctx)
	if err != nil {
		e.logger.Error("Failed to launch headless browser", err)
		return nil, errors.FetchError(url, fmt.Errorf("failed to launch browser: %w", err)).
			WithCode(errors.CodeBrowserLaunch)
	}

	e.browser = browser
	return browser, nil
}

// Started reports whether the browser has been launched and not yet closed
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.browser != nil
}

// Close shuts the browser down. It is safe to call more than once; only the
// first call has an effect.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.browser == nil {
		return nil
	}

	err := e.browser.Close()
	e.browser = nil
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	e.logger.Info("Headless browser closed")
	return nil
}
