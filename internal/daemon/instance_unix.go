//go:build unix

package daemon

import (
	"fmt"
	"os"
	"syscall"
)

func flockExclusive(f *os.File) error {
	err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == syscall.EWOULDBLOCK {
		return ErrLockHeld
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

func flockRelease(f *os.File) {
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}

// pidAlive probes with signal 0, which checks liveness without
// delivering anything.
func pidAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
