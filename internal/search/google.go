package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/browser"
)

var googleSkipHosts = []string{
	"google.", "gstatic.com", "googleusercontent.com", "youtube.com",
}

type googleEngine struct {
	session        *browser.Session
	gate           *browser.Gate
	captchaTimeout time.Duration
	logger         arbor.ILogger
}

func (e *googleEngine) Name() string { return "google" }

func (e *googleEngine) Search(ctx context.Context, query string, page int) ([]string, error) {
	searchURL := fmt.Sprintf("https://www.google.com/search?q=%s&start=%d",
		url.QueryEscape(query), page*10)
	if err := e.session.Navigate(searchURL, 2*time.Second); err != nil {
		return nil, err
	}

	// A timed-out challenge fails this search and consumes a retry attempt.
	if !e.gate.AwaitClear(ctx, e.session, googleBlocked, e.captchaTimeout) {
		return nil, fmt.Errorf("challenge page not cleared for query %q", query)
	}

	html, err := e.session.HTML()
	if err != nil {
		return nil, err
	}
	return extractResultLinks(html, googleSkipHosts)
}

// googleBlocked reports whether the session sits on a Google interstitial.
func googleBlocked(s *browser.Session) bool {
	loc, err := s.Location()
	if err != nil {
		return true
	}
	if strings.Contains(loc, "/sorry/") || strings.Contains(loc, "google.com/sorry") {
		return true
	}
	html, err := s.HTML()
	if err != nil {
		return true
	}
	lower := strings.ToLower(html)
	return strings.Contains(lower, "unusual traffic") ||
		strings.Contains(lower, "recaptcha")
}
