package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
)

// ErrExecutableNotFound marks a configuration failure: the command to launch
// does not exist. Retrying cannot help, so the attempt loop aborts at once.
var ErrExecutableNotFound = errors.New("executable not found")

// Command is the invocation contract for one task attempt: an executable,
// positional arguments, a hard wall-clock timeout, the exit code that means
// success, and a required minimum-size output artifact.
type Command struct {
	Path            string
	Args            []string
	Timeout         time.Duration
	SuccessExit     int
	Artifact        string // Path the process must produce; empty disables the check
	MinArtifactSize int64  // Bytes; an artifact below this is a failed attempt
}

// Supervisor launches one external worker process per attempt with a hard
// deadline, forcibly terminating the process tree on timeout and retrying
// up to a bounded count with a fixed inter-attempt delay.
type Supervisor struct {
	retry  common.RetryPolicy
	logger arbor.ILogger
}

// New creates a supervisor with the given retry budget.
func New(maxRetries int, retryDelay time.Duration, logger arbor.ILogger) *Supervisor {
	return &Supervisor{
		retry:  common.RetryPolicy{MaxAttempts: maxRetries, Delay: retryDelay},
		logger: logger,
	}
}

// Run executes the command until one attempt succeeds or the retry budget is
// exhausted. It reports the number of attempts actually made; err is nil iff
// some attempt succeeded.
func (s *Supervisor) Run(ctx context.Context, cmd Command) (attempts int, err error) {
	err = s.retry.Execute(ctx, func() error {
		attempts++
		return s.runOnce(cmd, attempts)
	})
	return attempts, err
}

func (s *Supervisor) runOnce(cmd Command, attempt int) error {
	s.logger.Debug().
		Str("path", cmd.Path).
		Int("attempt", attempt).
		Int("max_attempts", s.retry.MaxAttempts).
		Msg("Launching worker process")

	proc := newManagedProcess(cmd.Path, cmd.Args)
	if err := proc.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			s.logger.Error().Str("path", cmd.Path).Msg("Executable not found, aborting without retry")
			return common.Permanent(fmt.Errorf("%w: %s", ErrExecutableNotFound, cmd.Path))
		}
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	exitCode, timedOut := proc.Wait(cmd.Timeout)
	if timedOut {
		s.logger.Warn().
			Str("path", cmd.Path).
			Int("pid", proc.Pid()).
			Dur("timeout", cmd.Timeout).
			Msg("Deadline exceeded, killing process tree")
		proc.KillTree()
		return fmt.Errorf("timed out after %s", cmd.Timeout)
	}

	if exitCode != cmd.SuccessExit {
		return fmt.Errorf("exit code %d, want %d", exitCode, cmd.SuccessExit)
	}

	if cmd.Artifact != "" {
		info, err := os.Stat(cmd.Artifact)
		if err != nil {
			return fmt.Errorf("output artifact missing at %s: %w", cmd.Artifact, err)
		}
		if info.Size() < cmd.MinArtifactSize {
			return fmt.Errorf("output artifact too small: %d bytes, want at least %d", info.Size(), cmd.MinArtifactSize)
		}
	}

	return nil
}
