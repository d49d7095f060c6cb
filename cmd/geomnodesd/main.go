package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geomnodes/geomnodes/internal/config"
	"github.com/geomnodes/geomnodes/internal/daemon"
	"github.com/geomnodes/geomnodes/internal/logger"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: logger.OpenOutput(cfg.LogFile),
	})

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "geomnodesd: failed to create directories: %v\n", err)
		os.Exit(1)
	}

	guard := daemon.NewInstanceGuard(filepath.Dir(cfg.SocketPath), cfg.SocketPath)
	if err := guard.Acquire(); err != nil {
		if guard.SocketAlive() {
			fmt.Println("daemon already running")
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "geomnodesd: %v\n", err)
		os.Exit(1)
	}
	defer guard.Release()

	if err := guard.WritePID(); err != nil {
		fmt.Fprintf(os.Stderr, "geomnodesd: failed to write PID file: %v\n", err)
		os.Exit(1)
	}

	d, err := daemon.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "geomnodesd: failed to start: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		waitForShutdownSignal()
		d.Shutdown()
		cancel()
	}()

	if err := d.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "geomnodesd: %v\n", err)
		os.Exit(1)
	}
}
