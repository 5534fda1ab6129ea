//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureProcAttr places the child in its own process group so the whole
// descendant tree can be addressed with one signal.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree sends SIGKILL to the child's entire process group.
func killTree(pid int) error {
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		return err
	}
	return syscall.Kill(-pgid, syscall.SIGKILL)
}
