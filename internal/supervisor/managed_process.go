package supervisor

import (
	"errors"
	"os/exec"
	"time"
)

// ManagedProcess wraps one OS-level process launched for a task attempt. It
// exposes only Start, Wait and KillTree; the platform-specific descendant
// handling lives in proctree_unix.go / proctree_windows.go.
type ManagedProcess struct {
	cmd  *exec.Cmd
	done chan error
}

func newManagedProcess(path string, args []string) *ManagedProcess {
	cmd := exec.Command(path, args...)
	// Output pipes are deliberately not captured: the launched program may
	// spawn children that inherit them and block the pipe after a kill.
	configureProcAttr(cmd)
	return &ManagedProcess{cmd: cmd}
}

// Start launches the process in its own kill-able group.
func (p *ManagedProcess) Start() error {
	if err := p.cmd.Start(); err != nil {
		return err
	}
	p.done = make(chan error, 1)
	go func() {
		p.done <- p.cmd.Wait()
	}()
	return nil
}

// Pid returns the OS process id of the running process.
func (p *ManagedProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Wait blocks until the process exits or the deadline elapses. It returns
// the exit code and whether the deadline expired; on timeout the process is
// still running and the caller must KillTree it.
func (p *ManagedProcess) Wait(deadline time.Duration) (exitCode int, timedOut bool) {
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case err := <-p.done:
		if err == nil {
			return 0, false
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), false
		}
		return -1, false
	case <-timer.C:
		return -1, true
	}
}

// KillTree forcibly terminates the process and all of its descendants, then
// reaps the direct child. A plain process kill is not enough: the launched
// program may itself spawn children that outlive it.
func (p *ManagedProcess) KillTree() {
	if p.cmd.Process == nil {
		return
	}
	if err := killTree(p.cmd.Process.Pid); err != nil {
		// Group kill failed, fall back to killing the immediate child.
		_ = p.cmd.Process.Kill()
	}
	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
	}
}
