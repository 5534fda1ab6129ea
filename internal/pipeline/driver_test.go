package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func recordingPhase(id string, executed *[]string) Phase {
	return Phase{
		ID:      id,
		Enabled: true,
		Run: func(ctx context.Context) (any, error) {
			*executed = append(*executed, id)
			return map[string]bool{"done": true}, nil
		},
	}
}

func TestDriverRunsPhasesInOrder(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()
	driver := NewDriver(store, arbor.NewLogger())

	var executed []string
	phases := []Phase{
		recordingPhase("a", &executed),
		recordingPhase("b", &executed),
		recordingPhase("c", &executed),
	}

	require.NoError(t, driver.Run(context.Background(), phases))
	assert.Equal(t, []string{"a", "b", "c"}, executed)
}

func TestDriverSkipsPreCompletedPhase(t *testing.T) {
	store, path := newTestStore(t)
	store.Load()
	require.NoError(t, store.MarkCompleted("b", nil))

	// Reload through a fresh store to mirror a restarted process.
	reloaded := NewStore(path, arbor.NewLogger())
	reloaded.Load()
	driver := NewDriver(reloaded, arbor.NewLogger())

	var executed []string
	phases := []Phase{
		recordingPhase("a", &executed),
		recordingPhase("b", &executed),
		recordingPhase("c", &executed),
	}

	require.NoError(t, driver.Run(context.Background(), phases))
	assert.Equal(t, []string{"a", "c"}, executed)
}

func TestDriverSecondRunExecutesNothing(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()
	driver := NewDriver(store, arbor.NewLogger())

	var executed []string
	phases := []Phase{
		recordingPhase("a", &executed),
		recordingPhase("b", &executed),
	}

	require.NoError(t, driver.Run(context.Background(), phases))
	require.NoError(t, driver.Run(context.Background(), phases))

	// Each phase body ran at most once across both runs combined.
	assert.Equal(t, []string{"a", "b"}, executed)
}

func TestDriverHaltsOnPhaseFailure(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()
	driver := NewDriver(store, arbor.NewLogger())

	var executed []string
	boom := errors.New("batch blew up")
	phases := []Phase{
		recordingPhase("a", &executed),
		{
			ID:      "b",
			Enabled: true,
			Run: func(ctx context.Context) (any, error) {
				return nil, boom
			},
		},
		recordingPhase("c", &executed),
	}

	err := driver.Run(context.Background(), phases)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// Prior phase stays durable, failed phase does not, rest never ran.
	assert.Equal(t, []string{"a"}, executed)
	assert.True(t, store.IsCompleted("a"))
	assert.False(t, store.IsCompleted("b"))
	assert.False(t, store.IsCompleted("c"))
}

func TestDriverResumesAtFailedPhase(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()
	driver := NewDriver(store, arbor.NewLogger())

	var executed []string
	failing := true
	phases := []Phase{
		recordingPhase("a", &executed),
		{
			ID:      "b",
			Enabled: true,
			Run: func(ctx context.Context) (any, error) {
				if failing {
					return nil, errors.New("transient outage")
				}
				executed = append(executed, "b")
				return nil, nil
			},
		},
	}

	require.Error(t, driver.Run(context.Background(), phases))

	failing = false
	require.NoError(t, driver.Run(context.Background(), phases))

	assert.Equal(t, []string{"a", "b"}, executed)
}

func TestDriverMarksDisabledPhaseSkipped(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()
	driver := NewDriver(store, arbor.NewLogger())

	var executed []string
	phases := []Phase{
		{
			ID:      "crawl",
			Enabled: false,
			Run: func(ctx context.Context) (any, error) {
				executed = append(executed, "crawl")
				return nil, nil
			},
		},
	}

	require.NoError(t, driver.Run(context.Background(), phases))
	assert.Empty(t, executed)
	assert.True(t, store.IsCompleted("crawl"))

	// Re-enabling without a reset must not re-execute the phase.
	phases[0].Enabled = true
	require.NoError(t, driver.Run(context.Background(), phases))
	assert.Empty(t, executed)
}

func TestDriverStopsWhenContextCancelled(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()
	driver := NewDriver(store, arbor.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed []string
	err := driver.Run(ctx, []Phase{recordingPhase("a", &executed)})
	require.Error(t, err)
	assert.Empty(t, executed)
}
