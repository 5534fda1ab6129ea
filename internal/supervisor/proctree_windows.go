//go:build windows

package supervisor

import (
	"os/exec"
	"strconv"
	"syscall"
)

func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// killTree terminates the whole descendant tree; taskkill /T walks children.
func killTree(pid int) error {
	kill := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid))
	return kill.Run()
}
