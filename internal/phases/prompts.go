package phases

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
)

const promptsFile = "prompts.json"

// PromptRecord pairs one collected page with the text prompts used to
// condition downstream generation: a target description of the page and a
// user-style request that would produce it.
type PromptRecord struct {
	Filename string `json:"filename"`
	Category string `json:"category"`
	Target   string `json:"target_prompt"`
	User     string `json:"user_prompt"`
}

// PromptsPhase derives prompt records for every page in the document store
// and writes them as one JSON artifact.
type PromptsPhase struct {
	dataDir string
	docs    interfaces.DocumentStorage
	logger  arbor.ILogger
}

func NewPromptsPhase(dataDir string, docs interfaces.DocumentStorage, logger arbor.ILogger) *PromptsPhase {
	return &PromptsPhase{dataDir: dataDir, docs: docs, logger: logger}
}

var targetTemplates = []string{
	"A screenshot of a %s webpage with a standard desktop layout",
	"A full-page capture of a typical %s website",
	"A desktop browser view of a %s page",
}

var userTemplates = []string{
	"Show me what a %s website usually looks like",
	"Open a representative %s page",
	"Display an example of a %s site",
}

func (p *PromptsPhase) Run(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := p.docs.ListPages()
	if err != nil {
		return nil, err
	}

	records := make([]PromptRecord, 0, len(pages))
	for _, page := range pages {
		// Seeded per file so re-runs regenerate identical prompts.
		rng := rand.New(rand.NewSource(pageSeed(page.Filename, 0)))
		category := strings.ToLower(page.Category)
		records = append(records, PromptRecord{
			Filename: page.Filename,
			Category: page.Category,
			Target:   fmt.Sprintf(targetTemplates[rng.Intn(len(targetTemplates))], category),
			User:     fmt.Sprintf(userTemplates[rng.Intn(len(userTemplates))], category),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Filename < records[j].Filename })

	if err := writeJSONArtifact(filepath.Join(p.dataDir, promptsFile), records); err != nil {
		return nil, err
	}

	p.logger.Info().Int("prompts", len(records)).Msg("Prompts phase finished")
	return map[string]int{"prompts": len(records)}, nil
}

// writeJSONArtifact writes a phase output file via temp-and-rename so a
// crash mid-write never leaves a truncated artifact behind.
func writeJSONArtifact(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
