package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// SessionConfig holds configuration for an interactive browser session.
type SessionConfig struct {
	UserAgent string
	Headless  bool // Search sessions run visible so a human can clear challenges
}

// Session is a long-lived browser session shared across sequential search
// operations within one run. It is lazily created on first use,
// health-checked before reuse, and torn down once at end of run. At most one
// concurrent user: callers serialize access. Not persisted across runs.
type Session struct {
	config SessionConfig
	logger arbor.ILogger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	started       bool
}

// NewSession creates an unstarted session; the browser launches on first use.
func NewSession(config SessionConfig, logger arbor.ILogger) *Session {
	return &Session{config: config, logger: logger}
}

// Context returns a live browser context, starting the browser if needed and
// replacing it if the health check fails.
func (s *Session) Context() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		if s.healthyLocked() {
			return s.browserCtx, nil
		}
		s.logger.Warn().Msg("Browser session unhealthy, recreating")
		s.teardownLocked()
	}
	return s.startLocked()
}

func (s *Session) startLocked() (context.Context, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Keeps search engines from flagging the session as automated.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if s.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.config.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Verify the browser actually starts before handing it out.
	testCtx, testCancel := context.WithTimeout(browserCtx, 15*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	s.started = true

	s.logger.Info().
		Bool("headless", s.config.Headless).
		Msg("Browser session started")

	return browserCtx, nil
}

func (s *Session) healthyLocked() bool {
	ctx, cancel := context.WithTimeout(s.browserCtx, 3*time.Second)
	defer cancel()
	var title string
	return chromedp.Run(ctx, chromedp.Title(&title)) == nil
}

func (s *Session) teardownLocked() {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.browserCancel = nil
	s.allocCancel = nil
	s.browserCtx = nil
	s.started = false
}

// Navigate loads a URL in the session and waits settle for scripts to run.
func (s *Session) Navigate(url string, settle time.Duration) error {
	ctx, err := s.Context()
	if err != nil {
		return err
	}
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if settle > 0 {
		actions = append(actions, chromedp.Sleep(settle))
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Location returns the session's current URL.
func (s *Session) Location() (string, error) {
	ctx, err := s.Context()
	if err != nil {
		return "", err
	}
	var url string
	if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// HTML returns the full serialized DOM of the current page.
func (s *Session) HTML() (string, error) {
	ctx, err := s.Context()
	if err != nil {
		return "", err
	}
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// Close tears down the browser. Safe to call when never started.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.teardownLocked()
	s.logger.Info().Msg("Browser session closed")
}
