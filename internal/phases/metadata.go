package phases

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const metadataFile = "dataset_metadata.json"

// DatasetMetadata is the final aggregate artifact tying together every page,
// its prompts, its interaction histories, and its screenshot inventory.
type DatasetMetadata struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Counts      DatasetCounts          `json:"counts"`
	Pages       []*models.PageDocument `json:"pages"`
	Prompts     []PromptRecord         `json:"prompts"`
	Histories   []HistoryRecord        `json:"histories"`
	URLMapping  map[string]string      `json:"url_mapping"`
}

type DatasetCounts struct {
	Total       int            `json:"total"`
	ByCategory  map[string]int `json:"by_category"`
	BySource    map[string]int `json:"by_source"`
	Screenshots int            `json:"screenshots"`
}

// MetadataPhase aggregates the document store and the upstream phase
// artifacts into one dataset manifest.
type MetadataPhase struct {
	dataDir string
	docs    interfaces.DocumentStorage
	logger  arbor.ILogger
}

func NewMetadataPhase(dataDir string, docs interfaces.DocumentStorage, logger arbor.ILogger) *MetadataPhase {
	return &MetadataPhase{dataDir: dataDir, docs: docs, logger: logger}
}

func (p *MetadataPhase) Run(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := p.docs.ListPages()
	if err != nil {
		return nil, err
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Filename < pages[j].Filename })

	counts := DatasetCounts{
		Total:      len(pages),
		ByCategory: map[string]int{},
		BySource:   map[string]int{},
	}
	for _, page := range pages {
		counts.ByCategory[page.Category]++
		counts.BySource[page.Source]++
		counts.Screenshots += len(page.Screenshots) + len(page.RawScreenshots)
	}

	meta := DatasetMetadata{
		GeneratedAt: time.Now(),
		Counts:      counts,
		Pages:       pages,
		Prompts:     loadPromptRecords(p.dataDir, p.logger),
		Histories:   loadHistoryRecords(p.dataDir, p.logger),
		URLMapping:  LoadURLMapping(p.dataDir, p.logger),
	}

	if err := writeJSONArtifact(filepath.Join(p.dataDir, metadataFile), meta); err != nil {
		return nil, err
	}

	p.logger.Info().
		Int("pages", counts.Total).
		Int("screenshots", counts.Screenshots).
		Msg("Metadata phase finished")
	return counts, nil
}

// Upstream artifacts may be absent when their phases were disabled; the
// manifest just records what exists.
func loadPromptRecords(dataDir string, logger arbor.ILogger) []PromptRecord {
	var records []PromptRecord
	loadArtifact(filepath.Join(dataDir, promptsFile), &records, logger)
	return records
}

func loadHistoryRecords(dataDir string, logger arbor.ILogger) []HistoryRecord {
	var records []HistoryRecord
	loadArtifact(filepath.Join(dataDir, historiesFile), &records, logger)
	return records
}

func loadArtifact(path string, v any, logger arbor.ILogger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to read artifact")
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Corrupt artifact, omitting from metadata")
	}
}
