package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/models"
)

// Step executes one unit of a long-running iterative job and returns the full
// resumable state after that unit plus a scalar metric. The state blob is
// opaque to the runner.
type Step func(ctx context.Context, unit int) (state []byte, metric float64, err error)

// Runner drives a unit-indexed iterative computation with periodic
// checkpoints. On startup it restores from the latest valid checkpoint and
// resumes exactly at the next unit; a job killed at an arbitrary instant
// loses at most the units since the last save. Restart after a crash is an
// external action (a supervising process relaunching the runner).
type Runner struct {
	store          *Store
	saveInterval   int
	coarseInterval int
	logger         arbor.ILogger
}

// NewRunner creates a checkpointed job runner. saveInterval controls how
// often (in completed units) the canonical checkpoint is replaced;
// coarseInterval controls the additional numbered historical copies.
func NewRunner(store *Store, saveInterval, coarseInterval int, logger arbor.ILogger) *Runner {
	if saveInterval < 1 {
		saveInterval = 1
	}
	return &Runner{
		store:          store,
		saveInterval:   saveInterval,
		coarseInterval: coarseInterval,
		logger:         logger,
	}
}

// Run executes units start..units-1 where start comes from the canonical
// checkpoint (unit+1) or zero. An already-complete job short-circuits with
// no work performed.
func (r *Runner) Run(ctx context.Context, jobID string, units int, step Step) error {
	start := 0
	if ck, ok, err := r.store.Load(jobID); err != nil {
		return err
	} else if ok {
		start = ck.Unit + 1
		r.logger.Info().
			Str("job", jobID).
			Int("unit", ck.Unit).
			Float64("metric", ck.Metric).
			Str("saved_at", ck.Timestamp.Format(time.RFC3339)).
			Msg("Resuming from checkpoint")
	}

	if start >= units {
		r.logger.Info().Str("job", jobID).Int("units", units).Msg("Job already complete, nothing to do")
		return nil
	}

	r.logger.Info().
		Str("job", jobID).
		Int("start_unit", start).
		Int("units", units).
		Msg("Job starting")

	for u := start; u < units; u++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("job %s cancelled at unit %d: %w", jobID, u, err)
		}

		unitStart := time.Now()
		state, metric, err := step(ctx, u)
		if err != nil {
			return fmt.Errorf("job %s unit %d: %w", jobID, u, err)
		}

		r.logger.Info().
			Str("job", jobID).
			Int("unit", u).
			Float64("metric", metric).
			Dur("duration", time.Since(unitStart)).
			Msgf("Unit complete (%d/%d)", u+1, units)

		if (u+1)%r.saveInterval == 0 {
			ck := &models.Checkpoint{
				Version:   models.CheckpointVersion,
				Unit:      u,
				State:     state,
				Metric:    metric,
				Timestamp: time.Now(),
			}
			if err := r.store.SaveLatest(jobID, ck); err != nil {
				return err
			}
			if r.coarseInterval > 0 && (u+1)%r.coarseInterval == 0 {
				// Historical copies are best-effort: a failure here must not
				// abort the job, resume never depends on them.
				if err := r.store.SaveNumbered(jobID, ck); err != nil {
					r.logger.Warn().Err(err).Str("job", jobID).Msg("Failed to save historical checkpoint")
				}
			}
		}
	}

	r.logger.Info().Str("job", jobID).Int("units", units).Msg("Job complete")
	return nil
}
