package phases

import (
	"context"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
)

const historiesFile = "histories.json"

// HistoryEvent is one simulated interaction on a page.
type HistoryEvent struct {
	Type     string `json:"type"` // click, scroll, hover
	X        int    `json:"x"`
	Y        int    `json:"y"`
	OffsetMs int    `json:"offset_ms"` // Milliseconds since the session started
}

// HistoryRecord is the simulated interaction trail for one page, covering
// both a visible user session and a background shadow session.
type HistoryRecord struct {
	Filename string         `json:"filename"`
	Category string         `json:"category"`
	User     []HistoryEvent `json:"user_events"`
	Shadow   []HistoryEvent `json:"shadow_events"`
}

// HistoriesPhase generates deterministic interaction histories for every
// page in the document store and writes them as one JSON artifact.
type HistoriesPhase struct {
	dataDir string
	docs    interfaces.DocumentStorage
	logger  arbor.ILogger
}

func NewHistoriesPhase(dataDir string, docs interfaces.DocumentStorage, logger arbor.ILogger) *HistoriesPhase {
	return &HistoriesPhase{dataDir: dataDir, docs: docs, logger: logger}
}

func (p *HistoriesPhase) Run(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := p.docs.ListPages()
	if err != nil {
		return nil, err
	}

	records := make([]HistoryRecord, 0, len(pages))
	for _, page := range pages {
		rng := rand.New(rand.NewSource(pageSeed(page.Filename, 1)))
		records = append(records, HistoryRecord{
			Filename: page.Filename,
			Category: page.Category,
			User:     simulateEvents(rng, 4+rng.Intn(8)),
			Shadow:   simulateEvents(rng, 2+rng.Intn(4)),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Filename < records[j].Filename })

	if err := writeJSONArtifact(filepath.Join(p.dataDir, historiesFile), records); err != nil {
		return nil, err
	}

	p.logger.Info().Int("histories", len(records)).Msg("Histories phase finished")
	return map[string]int{"histories": len(records)}, nil
}

var eventTypes = []string{"click", "scroll", "hover"}

func simulateEvents(rng *rand.Rand, count int) []HistoryEvent {
	events := make([]HistoryEvent, count)
	offset := 0
	for i := range events {
		offset += 200 + rng.Intn(2500)
		events[i] = HistoryEvent{
			Type:     eventTypes[rng.Intn(len(eventTypes))],
			X:        rng.Intn(1920),
			Y:        rng.Intn(1080),
			OffsetMs: offset,
		}
	}
	return events
}
