// The geomnodes CLI drives a running daemon over its unix socket:
// listing nodes, executing them with JSON arguments, searching the
// asset catalog and probing daemon health. Commands that need a daemon
// start one when none is reachable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/geomnodes/geomnodes/internal/config"
	"github.com/geomnodes/geomnodes/internal/daemon"
)

const daemonStartTimeout = 10 * time.Second

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var err error
	switch args[0] {
	case "list":
		err = runList(ctx, cfg)
	case "exec":
		err = runExec(ctx, cfg, args[1:])
	case "status":
		err = runStatus(ctx, cfg)
	case "search":
		err = runSearch(ctx, cfg, args[1:])
	case "stop":
		err = runStop(cfg)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "geomnodes: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: geomnodes <command> [arguments]

commands:
  list                    list registered nodes
  exec <node> [json]      execute a node with JSON arguments
  search <query>          search the asset catalog
  status                  show daemon status
  stop                    stop a running daemon
`)
}

// connect dials the daemon, starting one first when the socket is not
// responsive.
func connect(ctx context.Context, cfg *config.Config) (*daemon.Client, error) {
	client, err := daemon.Dial(ctx, cfg.SocketPath)
	if err == nil {
		return client, nil
	}

	if serr := startDaemon(cfg); serr != nil {
		return nil, fmt.Errorf("daemon not running and could not be started: %w", serr)
	}

	deadline := time.Now().Add(daemonStartTimeout)
	for time.Now().Before(deadline) {
		client, err = daemon.Dial(ctx, cfg.SocketPath)
		if err == nil {
			return client, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, fmt.Errorf("daemon did not come up within %v: %w", daemonStartTimeout, err)
}

// startDaemon launches geomnodesd from the CLI's own directory, falling
// back to PATH lookup.
func startDaemon(cfg *config.Config) error {
	daemonPath := "geomnodesd"
	if execPath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(execPath), daemonBinaryName())
		if _, err := os.Stat(sibling); err == nil {
			daemonPath = sibling
		}
	}

	cmd := exec.Command(daemonPath)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	detachProcess(cmd)

	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

func runList(ctx context.Context, cfg *config.Config) error {
	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	defs, err := client.ListNodes(ctx)
	if err != nil {
		return err
	}

	for _, def := range defs {
		fmt.Printf("%-28s %s\n", def.Name, def.Description)
	}
	return nil
}

func runExec(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("exec requires a node name")
	}

	arguments := json.RawMessage(`{}`)
	if len(args) > 1 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("arguments must be valid JSON")
		}
		arguments = json.RawMessage(args[1])
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.ExecuteNode(ctx, args[0], arguments)
	if err != nil {
		return err
	}

	return printJSON(result)
}

func runStatus(ctx context.Context, cfg *config.Config) error {
	client, err := daemon.Dial(ctx, cfg.SocketPath)
	if err != nil {
		fmt.Println("daemon: not running")
		return nil
	}
	defer client.Close()

	status, err := client.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("daemon: %s\n", status.Status)
	fmt.Printf("uptime: %s\n", (time.Duration(status.UptimeSeconds) * time.Second).String())
	fmt.Printf("nodes: %d\n", status.Nodes)
	fmt.Printf("cached meshes: %d\n", status.CachedMeshes)
	return nil
}

func runSearch(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search requires a query")
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	assets, err := client.Search(ctx, args[0], 50)
	if err != nil {
		return err
	}
	return printJSON(assets)
}

func runStop(cfg *config.Config) error {
	pid, err := daemon.ReadPIDFile(filepath.Join(filepath.Dir(cfg.SocketPath), "daemon.pid"))
	if err != nil {
		return err
	}
	if !daemon.ProcessAlive(pid) {
		fmt.Println("daemon: not running")
		return nil
	}

	if err := terminateProcess(pid); err != nil {
		return fmt.Errorf("failed to stop daemon (pid %d): %w", pid, err)
	}
	fmt.Printf("stopped daemon (pid %d)\n", pid)
	return nil
}

func printJSON(raw json.RawMessage) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
