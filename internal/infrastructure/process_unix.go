//go:build !windows

package infrastructure

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the downloader in its own process group so that
// helpers it spawns (ffmpeg) can be signalled together with it
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
}

// killProcessGroup sends SIGKILL to the downloader and everything in its group
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return cmd.Process.Kill()
	}
	return nil
}
