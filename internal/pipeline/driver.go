package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
)

// Phase is one named stage of the pipeline. Run executes the phase body and
// returns a small serializable summary of what the phase produced.
type Phase struct {
	ID      string
	Enabled bool
	Run     func(ctx context.Context) (any, error)
}

// Driver executes a fixed, ordered list of phases strictly in sequence,
// skipping any phase already marked complete in the state store. Phases are
// not retried by the driver: each phase body owns its internal retry policy,
// and an unhandled failure halts the run with prior completions durable.
type Driver struct {
	store  *Store
	logger arbor.ILogger
}

// NewDriver creates a pipeline driver over the given state store.
func NewDriver(store *Store, logger arbor.ILogger) *Driver {
	return &Driver{store: store, logger: logger}
}

// Run executes the phases in order. A disabled phase is marked completed
// immediately with a skipped marker, so re-enabling it later requires an
// explicit state reset, not a config flip.
func (d *Driver) Run(ctx context.Context, phases []Phase) error {
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline cancelled before phase %s: %w", phase.ID, err)
		}

		if d.store.IsCompleted(phase.ID) {
			d.logger.Info().Str("phase", phase.ID).Msg("Phase already completed, skipping")
			continue
		}

		if !phase.Enabled {
			d.logger.Info().Str("phase", phase.ID).Msg("Phase disabled, marking skipped")
			if err := d.store.MarkCompleted(phase.ID, map[string]bool{"skipped": true}); err != nil {
				return err
			}
			continue
		}

		d.logger.Info().Str("phase", phase.ID).Msg("Phase starting")
		start := time.Now()

		result, err := phase.Run(ctx)
		if err != nil {
			d.logger.Error().Err(err).Str("phase", phase.ID).Msg("Phase failed")
			return fmt.Errorf("phase %s: %w", phase.ID, err)
		}

		if err := d.store.MarkCompleted(phase.ID, result); err != nil {
			return err
		}

		d.logger.Info().
			Str("phase", phase.ID).
			Dur("duration", time.Since(start)).
			Msg("Phase completed")
	}
	return nil
}
