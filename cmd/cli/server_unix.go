//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// detach runs the server in its own session so it outlives the terminal
// and never receives the CLI's Ctrl+C
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
