//go:build !windows

package supervisor

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func shell(script string) Command {
	return Command{
		Path:    "sh",
		Args:    []string{"-c", script},
		Timeout: 10 * time.Second,
	}
}

func TestRunSucceedsOnCleanExit(t *testing.T) {
	sup := New(3, time.Millisecond, arbor.NewLogger())

	attempts, err := sup.Run(context.Background(), shell("exit 0"))

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRunRetriesExactlyMaxRetriesOnPersistentFailure(t *testing.T) {
	sup := New(2, time.Millisecond, arbor.NewLogger())

	attempts, err := sup.Run(context.Background(), shell("exit 1"))

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRunAbortsImmediatelyWhenExecutableMissing(t *testing.T) {
	sup := New(5, time.Millisecond, arbor.NewLogger())

	cmd := Command{
		Path:    "definitely-not-a-real-binary-401b",
		Timeout: time.Second,
	}
	attempts, err := sup.Run(context.Background(), cmd)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecutableNotFound)
	assert.Equal(t, 1, attempts)
}

func TestRunKillsRunawayProcessAtDeadline(t *testing.T) {
	sup := New(1, time.Millisecond, arbor.NewLogger())

	cmd := shell("sleep 60")
	cmd.Timeout = 200 * time.Millisecond

	start := time.Now()
	attempts, err := sup.Run(context.Background(), cmd)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	// Terminated within a small grace period after the deadline, not after
	// the sleep finished.
	assert.Less(t, elapsed, 5*time.Second)
}

func TestRunKillsDescendantsNotJustTheChild(t *testing.T) {
	sup := New(1, time.Millisecond, arbor.NewLogger())

	marker := filepath.Join(t.TempDir(), "grandchild-survived")
	// The child spawns a grandchild that would write a marker file well after
	// the deadline. If only the direct child were killed, the marker appears.
	script := fmt.Sprintf("sh -c 'sleep 2; touch %s' & sleep 60", marker)
	cmd := shell(script)
	cmd.Timeout = 200 * time.Millisecond

	_, err := sup.Run(context.Background(), cmd)
	require.Error(t, err)

	time.Sleep(3 * time.Second)
	assert.NoFileExists(t, marker)
}

func TestRunRequiresSuccessExitCode(t *testing.T) {
	sup := New(1, time.Millisecond, arbor.NewLogger())

	cmd := shell("exit 0")
	cmd.SuccessExit = 7
	_, err := sup.Run(context.Background(), cmd)
	require.Error(t, err)

	cmd = shell("exit 7")
	cmd.SuccessExit = 7
	_, err = sup.Run(context.Background(), cmd)
	require.NoError(t, err)
}

func TestRunValidatesOutputArtifact(t *testing.T) {
	sup := New(1, time.Millisecond, arbor.NewLogger())
	dir := t.TempDir()

	t.Run("missing artifact fails", func(t *testing.T) {
		cmd := shell("exit 0")
		cmd.Artifact = filepath.Join(dir, "never-written")
		cmd.MinArtifactSize = 1

		_, err := sup.Run(context.Background(), cmd)
		assert.Error(t, err)
	})

	t.Run("undersized artifact fails", func(t *testing.T) {
		out := filepath.Join(dir, "tiny")
		cmd := shell(fmt.Sprintf("printf x > %s", out))
		cmd.Artifact = out
		cmd.MinArtifactSize = 100

		_, err := sup.Run(context.Background(), cmd)
		assert.Error(t, err)
	})

	t.Run("valid artifact succeeds", func(t *testing.T) {
		out := filepath.Join(dir, "page.html")
		cmd := shell(fmt.Sprintf("printf '%%200s' x > %s", out))
		cmd.Artifact = out
		cmd.MinArtifactSize = 100

		attempts, err := sup.Run(context.Background(), cmd)
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})
}

func TestRunRecoversAfterTransientFailure(t *testing.T) {
	sup := New(3, time.Millisecond, arbor.NewLogger())
	dir := t.TempDir()

	// Fails until the flag file exists, created on the second attempt.
	flag := filepath.Join(dir, "flag")
	script := fmt.Sprintf("if [ -f %s ]; then exit 0; else touch %s; exit 1; fi", flag, flag)

	attempts, err := sup.Run(context.Background(), shell(script))

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}
