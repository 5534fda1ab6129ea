package phases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/scheduler"
	"github.com/ternarybob/colligo/internal/search"
	"github.com/ternarybob/colligo/internal/supervisor"
)

// CrawlStats is the per-category outcome recorded in the phase data.
type CrawlStats struct {
	Downloaded map[string]int `json:"downloaded"`
	Skipped    map[string]int `json:"skipped"`
	Failed     map[string]int `json:"failed"`
}

// CrawlPhase collects real webpages: it searches for candidate URLs per
// category, then downloads each as a self-contained HTML file through the
// external downloader binary.
type CrawlPhase struct {
	config  common.CrawlerConfig
	dataDir string
	search  *search.Service
	docs    interfaces.DocumentStorage
	logger  arbor.ILogger
}

func NewCrawlPhase(config common.CrawlerConfig, dataDir string, svc *search.Service, docs interfaces.DocumentStorage, logger arbor.ILogger) *CrawlPhase {
	return &CrawlPhase{
		config:  config,
		dataDir: dataDir,
		search:  svc,
		docs:    docs,
		logger:  logger,
	}
}

// downloadRunner adapts the supervisor to the scheduler's task contract.
// One task attempt is one downloader invocation with a hard deadline.
type downloadRunner struct {
	sup    *supervisor.Supervisor
	config common.CrawlerConfig
}

func (r *downloadRunner) RunTask(ctx context.Context, task *models.Task) (int, error) {
	return r.sup.Run(ctx, supervisor.Command{
		Path:            r.config.DownloaderBin,
		Args:            []string{task.URL, task.OutputPath},
		Timeout:         r.config.DownloadTimeout,
		SuccessExit:     0,
		Artifact:        task.OutputPath,
		MinArtifactSize: r.config.MinArtifactSize,
	})
}

func (p *CrawlPhase) Run(ctx context.Context) (any, error) {
	rawDir := filepath.Join(p.dataDir, "raw_html")
	mapping := LoadURLMapping(p.dataDir, p.logger)

	stats := CrawlStats{
		Downloaded: map[string]int{},
		Skipped:    map[string]int{},
		Failed:     map[string]int{},
	}

	var tasks []*models.Task
	for _, category := range p.config.Categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		categoryTasks, skipped, err := p.planCategory(ctx, category, rawDir, mapping)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		stats.Skipped[category] = skipped
		tasks = append(tasks, categoryTasks...)
	}

	if len(tasks) > 0 {
		runner := &downloadRunner{
			sup:    supervisor.New(p.config.MaxRetries, p.config.RetryDelay, p.logger),
			config: p.config,
		}
		result := scheduler.New(p.config.Concurrency, runner, p.logger).Run(ctx, tasks)

		for _, task := range result.Tasks {
			if task.Status != models.TaskStatusSucceeded {
				stats.Failed[task.Category]++
				continue
			}
			stats.Downloaded[task.Category]++
			mapping[task.ID] = task.URL
			if err := p.docs.SavePage(&models.PageDocument{
				ID:          "page_" + uuid.New().String(),
				Category:    task.Category,
				Filename:    task.ID,
				Source:      models.PageSourceCrawled,
				URL:         task.URL,
				CollectedAt: time.Now(),
			}); err != nil {
				p.logger.Warn().Err(err).Str("task", task.ID).Msg("Failed to record page document")
			}
		}
	}

	if err := SaveURLMapping(p.dataDir, mapping); err != nil {
		return nil, err
	}

	p.logger.Info().
		Int("tasks", len(tasks)).
		Str("downloaded", fmt.Sprintf("%v", stats.Downloaded)).
		Str("failed", fmt.Sprintf("%v", stats.Failed)).
		Msg("Crawl phase finished")

	return stats, nil
}

// planCategory searches for candidate URLs and builds download tasks for the
// slots not already filled by a previous run.
func (p *CrawlPhase) planCategory(ctx context.Context, category, rawDir string, mapping map[string]string) ([]*models.Task, int, error) {
	needed := p.config.PagesPerCategory
	skipped := 0

	// Artifacts above the minimum size survive from earlier runs; their
	// slots are not re-downloaded.
	existing := map[int]bool{}
	for i := 0; i < needed; i++ {
		path := p.artifactPath(rawDir, category, i)
		if info, err := os.Stat(path); err == nil && info.Size() >= p.config.MinArtifactSize {
			existing[i] = true
			skipped++
		}
	}
	if skipped == needed {
		p.logger.Info().Str("category", category).Msg("All pages already downloaded, skipping category")
		return nil, skipped, nil
	}

	urls, err := p.collectURLs(ctx, category, mapping)
	if err != nil {
		return nil, skipped, err
	}

	var tasks []*models.Task
	next := 0
	for i := 0; i < needed; i++ {
		if existing[i] {
			continue
		}
		if next >= len(urls) {
			p.logger.Warn().
				Str("category", category).
				Int("have", len(urls)).
				Int("needed", needed-skipped).
				Msg("Not enough search results to fill category")
			break
		}
		outputPath := p.artifactPath(rawDir, category, i)
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return nil, skipped, fmt.Errorf("failed to create category directory: %w", err)
		}
		tasks = append(tasks, &models.Task{
			ID:         relativeFilename(category, p.artifactName(category, i)),
			Category:   category,
			Filename:   p.artifactName(category, i),
			URL:        urls[next],
			OutputPath: outputPath,
			Status:     models.TaskStatusPending,
		})
		next++
	}
	return tasks, skipped, nil
}

// collectURLs gathers candidate URLs for a category across its configured
// queries, excluding URLs already claimed by earlier runs.
func (p *CrawlPhase) collectURLs(ctx context.Context, category string, mapping map[string]string) ([]string, error) {
	queries := p.config.Queries[category]
	if len(queries) == 0 {
		queries = []string{category + " website"}
	}

	claimed := make(map[string]struct{}, len(mapping))
	for _, u := range mapping {
		claimed[u] = struct{}{}
	}

	var urls []string
	seen := map[string]struct{}{}
	for _, query := range queries {
		found, err := p.search.Collect(ctx, query, pagesForResults(p.config.ResultsPerQuery), p.config.ResultsPerQuery)
		if err != nil {
			return nil, err
		}
		for _, u := range found {
			if _, ok := claimed[u]; ok {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}

	p.logger.Info().
		Str("category", category).
		Int("queries", len(queries)).
		Int("urls", len(urls)).
		Msg("Candidate URLs collected")
	return urls, nil
}

func (p *CrawlPhase) artifactName(category string, index int) string {
	return fmt.Sprintf("%s_real_%d.html", strings.ToLower(category), index)
}

func (p *CrawlPhase) artifactPath(rawDir, category string, index int) string {
	return filepath.Join(rawDir, category, p.artifactName(category, index))
}

func relativeFilename(category, name string) string {
	return category + "/" + name
}

// pagesForResults converts a result budget into result pages to fetch,
// assuming roughly ten organic results per page.
func pagesForResults(results int) int {
	pages := (results + 9) / 10
	if pages < 1 {
		pages = 1
	}
	return pages
}
