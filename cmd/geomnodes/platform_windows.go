//go:build windows

package main

import (
	"os"
	"os/exec"
)

func daemonBinaryName() string {
	return "geomnodesd.exe"
}

func detachProcess(cmd *exec.Cmd) {
	// Windows child processes are already detached from the console
	// lifecycle for our purposes.
}

// terminateProcess kills the daemon process. Windows has no graceful
// signal to offer here.
func terminateProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Kill()
}
