//go:build unix

package main

import (
	"os/exec"
	"syscall"
	"time"
)

func daemonBinaryName() string {
	return "geomnodesd"
}

// detachProcess puts the spawned daemon in its own session so closing
// the CLI's terminal does not take it down.
func detachProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// terminateProcess asks the daemon to shut down with SIGTERM and
// escalates to SIGKILL if it lingers.
func terminateProcess(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return err
	}

	for i := 0; i < 50; i++ {
		if err := syscall.Kill(pid, 0); err != nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return syscall.Kill(pid, syscall.SIGKILL)
}
