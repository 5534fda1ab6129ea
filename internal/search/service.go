package search

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/colligo/internal/browser"
	"github.com/ternarybob/colligo/internal/common"
)

// Engine performs one paged search and returns result URLs in rank order.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string, page int) ([]string, error)
}

// Service paces and retries searches against a single engine. Pacing applies
// between consecutive searches regardless of query or page.
type Service struct {
	engine  Engine
	limiter *rate.Limiter
	retry   common.RetryPolicy
	logger  arbor.ILogger
}

// NewService builds a search service for the configured engine. Google and
// Bing drive the shared browser session so a human can clear challenge
// pages; DuckDuckGo uses its HTML endpoint directly.
func NewService(config common.CrawlerConfig, session *browser.Session, gate *browser.Gate, logger arbor.ILogger) (*Service, error) {
	var engine Engine
	switch config.SearchEngine {
	case "google":
		engine = &googleEngine{session: session, gate: gate, captchaTimeout: config.CaptchaTimeout, logger: logger}
	case "bing":
		engine = &bingEngine{session: session, gate: gate, captchaTimeout: config.CaptchaTimeout, logger: logger}
	case "duckduckgo":
		engine = newDuckDuckGoEngine(config.UserAgent, logger)
	default:
		return nil, fmt.Errorf("unknown search engine: %s", config.SearchEngine)
	}

	return &Service{
		engine:  engine,
		limiter: rate.NewLimiter(rate.Every(config.SearchInterval), 1),
		retry: common.RetryPolicy{
			MaxAttempts: config.SearchRetries,
			Delay:       config.SearchInterval,
		},
		logger: logger,
	}, nil
}

// Collect gathers up to limit result URLs for query across pages result
// pages, deduplicated in rank order. A page that keeps failing after retries
// is skipped; earlier pages' results are still returned.
func (s *Service) Collect(ctx context.Context, query string, pages, limit int) ([]string, error) {
	seen := make(map[string]struct{})
	var urls []string

	for page := 0; page < pages && len(urls) < limit; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return urls, err
		}

		var pageURLs []string
		err := s.retry.Execute(ctx, func() error {
			var searchErr error
			pageURLs, searchErr = s.engine.Search(ctx, query, page)
			return searchErr
		})
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("engine", s.engine.Name()).
				Str("query", query).
				Int("page", page).
				Msg("Search page failed, skipping")
			continue
		}

		for _, u := range pageURLs {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
			if len(urls) >= limit {
				break
			}
		}

		s.logger.Info().
			Str("engine", s.engine.Name()).
			Str("query", query).
			Int("page", page).
			Int("collected", len(urls)).
			Msg("Search page collected")
	}

	return urls, nil
}
