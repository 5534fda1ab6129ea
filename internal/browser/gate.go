package browser

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

// Predicate reports whether the session is currently blocked by a challenge
// page that needs a human to resolve it.
type Predicate func(s *Session) bool

const defaultPollInterval = 2 * time.Second

// Gate pauses the pipeline while a human clears an interstitial challenge in
// the visible browser window.
type Gate struct {
	pollInterval time.Duration
	logger       arbor.ILogger
}

// NewGate creates a gate polling at the given interval; zero means the
// default of two seconds.
func NewGate(pollInterval time.Duration, logger arbor.ILogger) *Gate {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Gate{pollInterval: pollInterval, logger: logger}
}

// AwaitClear blocks until blocked reports false, the timeout elapses, or ctx
// is cancelled. Returns true when the page is clear, false on timeout or
// cancellation. When the page is already clear it returns immediately
// without waiting a poll interval.
func (g *Gate) AwaitClear(ctx context.Context, session *Session, blocked Predicate, timeout time.Duration) bool {
	if !blocked(session) {
		return true
	}

	start := time.Now()
	deadline := start.Add(timeout)
	g.logger.Warn().
		Dur("timeout", timeout).
		Msg("Challenge detected, waiting for human to resolve it in the browser window")

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Warn().Msg("Challenge wait cancelled")
			return false
		case <-ticker.C:
			if !blocked(session) {
				g.logger.Info().
					Dur("elapsed", time.Since(start)).
					Msg("Challenge cleared, resuming")
				return true
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				g.logger.Error().
					Dur("elapsed", time.Since(start)).
					Msg("Challenge not cleared before timeout")
				return false
			}
			g.logger.Info().
				Dur("elapsed", time.Since(start)).
				Dur("remaining", remaining).
				Msg("Still waiting on challenge")
		}
	}
}
