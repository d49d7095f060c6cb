package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrLockHeld means another daemon process owns the instance lock.
var ErrLockHeld = errors.New("daemon already running (lock held)")

// InstanceGuard enforces one daemon per state directory. The guard is
// an advisory file lock held for the lifetime of the owning process, so
// a crashed daemon never leaves a stale lock behind, plus a pid file
// the CLI reads to find and stop a running instance.
type InstanceGuard struct {
	lockPath   string
	pidPath    string
	socketPath string
	lock       *os.File
}

func NewInstanceGuard(stateDir, socketPath string) *InstanceGuard {
	return &InstanceGuard{
		lockPath:   filepath.Join(stateDir, "daemon.lock"),
		pidPath:    filepath.Join(stateDir, "daemon.pid"),
		socketPath: socketPath,
	}
}

func (g *InstanceGuard) Acquire() error {
	f, err := os.OpenFile(g.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := flockExclusive(f); err != nil {
		f.Close()
		return err
	}
	g.lock = f
	return nil
}

// SocketAlive dials the daemon socket with a short timeout, telling a
// live daemon from a stale socket file.
func (g *InstanceGuard) SocketAlive() bool {
	conn, err := net.DialTimeout("unix", g.socketPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// WritePID records this process's pid. A leftover pid file from a dead
// daemon is replaced; a symlink in its place is refused.
func (g *InstanceGuard) WritePID() error {
	if err := refuseSymlink(g.pidPath); err != nil {
		return err
	}
	os.Remove(g.pidPath)
	f, err := os.OpenFile(g.pidPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%d", os.Getpid())
	return err
}

func (g *InstanceGuard) Release() {
	if err := refuseSymlink(g.pidPath); err == nil {
		os.Remove(g.pidPath)
	}
	if g.lock != nil {
		flockRelease(g.lock)
		g.lock.Close()
		g.lock = nil
		os.Remove(g.lockPath)
	}
}

func refuseSymlink(path string) error {
	info, err := os.Lstat(path)
	if err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("refusing to touch %s: is a symlink", path)
	}
	return nil
}

// ReadPIDFile returns the recorded daemon pid, or 0 when no daemon has
// registered.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID file %s: %q", path, text)
	}
	return pid, nil
}

// ProcessAlive reports whether a pid names a live process.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return pidAlive(pid)
}
