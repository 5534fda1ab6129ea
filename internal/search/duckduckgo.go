package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// duckDuckGoEngine uses the HTML endpoint, which needs no browser session
// and does not serve interactive challenges.
type duckDuckGoEngine struct {
	client    *http.Client
	userAgent string
	logger    arbor.ILogger
}

func newDuckDuckGoEngine(userAgent string, logger arbor.ILogger) *duckDuckGoEngine {
	return &duckDuckGoEngine{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: userAgent,
		logger:    logger,
	}
}

func (e *duckDuckGoEngine) Name() string { return "duckduckgo" }

func (e *duckDuckGoEngine) Search(ctx context.Context, query string, page int) ([]string, error) {
	form := url.Values{"q": {query}}
	if page > 0 {
		form.Set("s", fmt.Sprintf("%d", page*30))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://html.duckduckgo.com/html/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseDuckDuckGoResults(string(body))
}

func parseDuckDuckGoResults(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a.result__a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if link := unwrapDuckDuckGoLink(href); link != "" {
			links = append(links, link)
		}
	})
	return links, nil
}

// unwrapDuckDuckGoLink resolves the redirect wrapper DuckDuckGo puts around
// result links, where the target sits in the uddg query parameter.
func unwrapDuckDuckGoLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		href = target
		parsed, err = url.Parse(href)
		if err != nil {
			return ""
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if strings.Contains(strings.ToLower(parsed.Host), "duckduckgo.com") {
		return ""
	}
	return href
}
