// Package extproc runs the external geometry engines the pack
// delegates to: Blender for UV unwrapping and remeshing, meshlabserver
// for repair and wrapping filters. Engines are batch processes fed
// through temp files; a circuit breaker keeps a broken install from
// being re-probed on every call.
package extproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/geomnodes/geomnodes/internal/logger"
)

var log = logger.ForComponent("extproc")

var (
	ErrEngineNotInstalled = errors.New("engine not installed")
	ErrCircuitOpen        = errors.New("engine circuit breaker open")
)

// Engine locates and runs one external binary.
type Engine struct {
	name       string
	candidates []string
	timeout    time.Duration
	circuit    *CircuitBreaker

	mu       sync.Mutex
	resolved string
}

// NewEngine builds an engine that tries candidates in order: explicit
// configured paths, then bare names looked up on PATH, then known
// install locations.
func NewEngine(name string, candidates []string, timeout time.Duration) *Engine {
	return &Engine{
		name:       name,
		candidates: candidates,
		timeout:    timeout,
		circuit:    NewCircuitBreaker(DefaultCircuitConfig()),
	}
}

func (e *Engine) Name() string { return e.name }

// Resolve returns the binary path, caching the first hit.
func (e *Engine) Resolve() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.resolved != "" {
		return e.resolved, nil
	}

	for _, candidate := range e.candidates {
		if candidate == "" {
			continue
		}
		if strings.ContainsRune(candidate, os.PathSeparator) {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				e.resolved = candidate
				return candidate, nil
			}
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			e.resolved = path
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s (tried %s)", ErrEngineNotInstalled, e.name, strings.Join(e.candidates, ", "))
}

// IsInstalled probes for the binary without running it.
func (e *Engine) IsInstalled() bool {
	_, err := e.Resolve()
	return err == nil
}

func (e *Engine) CircuitState() CircuitState {
	return e.circuit.State()
}

// RunResult captures one finished engine invocation.
type RunResult struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Run executes the engine with the given arguments and waits for it to
// exit, killing it when the timeout or the caller's context expires.
func (e *Engine) Run(ctx context.Context, args ...string) (*RunResult, error) {
	if !e.circuit.Allow() {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, e.name)
	}

	path, err := e.Resolve()
	if err != nil {
		e.circuit.RecordFailure()
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("running engine", "engine", e.name, "path", path, "args", len(args))
	start := time.Now()
	runErr := cmd.Run()
	result := &RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		e.circuit.RecordFailure()
		return result, fmt.Errorf("%s timed out after %s", e.name, e.timeout)
	}
	if runErr != nil {
		e.circuit.RecordFailure()
		return result, fmt.Errorf("%s failed: %w: %s", e.name, runErr, tail(result.Stderr, 500))
	}

	e.circuit.RecordSuccess()
	log.Debug("engine finished", "engine", e.name, "duration", result.Duration)
	return result, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// Session is a scratch directory for one engine exchange. Cleanup is
// best effort; keep leaves the files behind for debugging.
type Session struct {
	Dir  string
	keep bool
}

func NewSession(keep bool) (*Session, error) {
	dir, err := os.MkdirTemp("", "geomnodes-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &Session{Dir: dir, keep: keep}, nil
}

// Path returns the absolute path for a file inside the session.
func (s *Session) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

func (s *Session) Close() {
	if s.keep {
		log.Info("keeping temp files", "dir", s.Dir)
		return
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		log.Warn("failed to clean temp dir", "dir", s.Dir, "error", err)
	}
}
