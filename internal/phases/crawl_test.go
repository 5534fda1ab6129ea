//go:build !windows

package phases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/supervisor"
)

func crawlTestConfig() common.CrawlerConfig {
	return common.CrawlerConfig{
		Categories:       []string{"Blog"},
		PagesPerCategory: 3,
		ResultsPerQuery:  10,
		MinArtifactSize:  10,
		MaxRetries:       2,
		RetryDelay:       10 * time.Millisecond,
		DownloadTimeout:  5 * time.Second,
		Concurrency:      2,
	}
}

func TestPlanCategory_AllArtifactsPresentSkipsSearch(t *testing.T) {
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw_html")
	require.NoError(t, os.MkdirAll(filepath.Join(rawDir, "Blog"), 0755))
	for i := 0; i < 3; i++ {
		path := filepath.Join(rawDir, "Blog", fmt.Sprintf("blog_real_%d.html", i))
		require.NoError(t, os.WriteFile(path, []byte("<html>enough bytes</html>"), 0644))
	}

	// search service is nil: a fully-downloaded category must not touch it.
	phase := NewCrawlPhase(crawlTestConfig(), dir, nil, newMemoryStorage(), arbor.NewLogger())
	tasks, skipped, err := phase.planCategory(context.Background(), "Blog", rawDir, map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, 3, skipped)
}

func TestDownloadRunner_InvokesDownloader(t *testing.T) {
	dir := t.TempDir()

	// Stub downloader honoring the contract: <bin> <url> <output>.
	bin := filepath.Join(dir, "fetch.sh")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nprintf '<html>%s</html>' \"$1\" > \"$2\"\n"), 0755))

	config := crawlTestConfig()
	config.DownloaderBin = bin
	runner := &downloadRunner{
		sup:    supervisor.New(config.MaxRetries, config.RetryDelay, arbor.NewLogger()),
		config: config,
	}

	output := filepath.Join(dir, "Blog", "blog_real_0.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(output), 0755))
	task := &models.Task{
		ID:         "Blog/blog_real_0.html",
		Category:   "Blog",
		URL:        "https://example.com/post",
		OutputPath: output,
	}

	attempts, err := runner.RunTask(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "<html>https://example.com/post</html>", string(data))
}

func TestPagesForResults(t *testing.T) {
	tests := []struct {
		results int
		pages   int
	}{
		{1, 1},
		{10, 1},
		{11, 2},
		{30, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.pages, pagesForResults(tt.results), "results=%d", tt.results)
	}
}
