package search

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractResultLinks pulls absolute http(s) links out of a results page,
// dropping links that point back at the engine's own infrastructure.
func extractResultLinks(html string, skipHosts []string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if link, ok := normalizeResultLink(href, skipHosts); ok {
			links = append(links, link)
		}
	})
	return links, nil
}

func normalizeResultLink(href string, skipHosts []string) (string, bool) {
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return "", false
	}
	parsed, err := url.Parse(href)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	host := strings.ToLower(parsed.Host)
	for _, skip := range skipHosts {
		if strings.Contains(host, skip) {
			return "", false
		}
	}
	return href, true
}
