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

var bingSkipHosts = []string{
	"bing.com", "microsoft.com", "msn.com", "live.com", "bing.net",
}

type bingEngine struct {
	session        *browser.Session
	gate           *browser.Gate
	captchaTimeout time.Duration
	logger         arbor.ILogger
}

func (e *bingEngine) Name() string { return "bing" }

func (e *bingEngine) Search(ctx context.Context, query string, page int) ([]string, error) {
	searchURL := fmt.Sprintf("https://www.bing.com/search?q=%s&first=%d",
		url.QueryEscape(query), page*10+1)
	if err := e.session.Navigate(searchURL, 2*time.Second); err != nil {
		return nil, err
	}

	if !e.gate.AwaitClear(ctx, e.session, bingBlocked, e.captchaTimeout) {
		return nil, fmt.Errorf("challenge page not cleared for query %q", query)
	}

	html, err := e.session.HTML()
	if err != nil {
		return nil, err
	}
	return extractResultLinks(html, bingSkipHosts)
}

func bingBlocked(s *browser.Session) bool {
	html, err := s.HTML()
	if err != nil {
		return true
	}
	lower := strings.ToLower(html)
	return strings.Contains(lower, "verify you are human") ||
		strings.Contains(lower, "captcha")
}
