package phases

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestHistories_WritesRecordForEveryPage(t *testing.T) {
	dir := t.TempDir()
	storage := newMemoryStorage()
	seedPages(t, storage)

	phase := NewHistoriesPhase(dir, storage, arbor.NewLogger())
	result, err := phase.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"histories": 3}, result)

	data, err := os.ReadFile(filepath.Join(dir, historiesFile))
	require.NoError(t, err)

	var records []HistoryRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 3)

	for _, record := range records {
		assert.NotEmpty(t, record.User)
		assert.NotEmpty(t, record.Shadow)

		// Event offsets grow monotonically within a session.
		last := 0
		for _, event := range record.User {
			assert.Greater(t, event.OffsetMs, last)
			assert.Contains(t, eventTypes, event.Type)
			last = event.OffsetMs
		}
	}
}

func TestHistories_Deterministic(t *testing.T) {
	storage := newMemoryStorage()
	seedPages(t, storage)

	dir1 := t.TempDir()
	_, err := NewHistoriesPhase(dir1, storage, arbor.NewLogger()).Run(context.Background())
	require.NoError(t, err)
	dir2 := t.TempDir()
	_, err = NewHistoriesPhase(dir2, storage, arbor.NewLogger()).Run(context.Background())
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir1, historiesFile))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir2, historiesFile))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
