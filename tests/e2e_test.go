// End-to-end test: boots the daemon with a throwaway config, drives it
// over the unix socket the way the host does, and exercises the HTTP
// preview API against the same process.
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/geomnodes/geomnodes/internal/config"
	"github.com/geomnodes/geomnodes/internal/daemon"
)

func startTestDaemon(t *testing.T) (*daemon.Daemon, *config.Config) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("unix sockets unavailable on windows")
	}

	base := t.TempDir()
	cfg := &config.Config{
		SocketPath:    filepath.Join(base, "daemon.sock"),
		HTTPAddr:      "127.0.0.1:0",
		LogLevel:      "error",
		InputFolder:   filepath.Join(base, "input"),
		OutputFolder:  filepath.Join(base, "output"),
		PreviewFolder: filepath.Join(base, "preview"),
		ExecTimeout:   time.Minute,
		Catalog: config.CatalogConfig{
			Enabled:      true,
			DBPath:       filepath.Join(base, "catalog.db"),
			MaxFileSize:  64 * 1024 * 1024,
			MaxQueueSize: 100,
			WorkerCount:  1,
		},
		Engines: config.EngineConfig{
			Timeout: time.Minute,
		},
		Watcher: config.WatcherConfig{Enabled: false},
	}

	for _, dir := range []string{cfg.InputFolder, cfg.OutputFolder, cfg.PreviewFolder} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("create %s: %v", dir, err)
		}
	}

	d, err := daemon.New(cfg)
	if err != nil {
		t.Fatalf("create daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)
	t.Cleanup(func() {
		d.Shutdown()
		cancel()
	})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(cfg.SocketPath); err == nil {
			return d, cfg
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("daemon socket never appeared")
	return nil, nil
}

func executeNode(t *testing.T, client *daemon.Client, name string, args string) map[string]interface{} {
	t.Helper()
	raw, err := client.ExecuteNode(context.Background(), name, json.RawMessage(args))
	if err != nil {
		t.Fatalf("execute %s: %v", name, err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode %s result: %v", name, err)
	}
	return result
}

func TestDaemonEndToEnd(t *testing.T) {
	d, cfg := startTestDaemon(t)

	ctx := context.Background()
	client, err := daemon.Dial(ctx, cfg.SocketPath)
	if err != nil {
		t.Fatalf("dial daemon: %v", err)
	}
	defer client.Close()

	// Discovery: the pack registers its full node inventory.
	defs, err := client.ListNodes(ctx)
	if err != nil {
		t.Fatalf("list nodes: %v", err)
	}
	if len(defs) < 20 {
		t.Errorf("expected at least 20 registered nodes, got %d", len(defs))
	}
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		seen[def.Name] = true
	}
	for _, want := range []string{"create_primitive", "load_mesh", "save_mesh", "mesh_info",
		"center_mesh", "preview_mesh_analysis", "pack_status"} {
		if !seen[want] {
			t.Errorf("node %s not registered", want)
		}
	}

	// Execute a pipeline: create, inspect, save, reload.
	created := executeNode(t, client, "create_primitive", `{"shape": "cube", "size": 2.0}`)
	meshID, _ := created["mesh"].(string)
	if meshID == "" {
		t.Fatalf("create_primitive returned no mesh id: %v", created)
	}

	info := executeNode(t, client, "mesh_info", fmt.Sprintf(`{"mesh": %q}`, meshID))
	if vc, _ := info["vertex_count"].(float64); vc != 8 {
		t.Errorf("expected 8 vertices, got %v", info["vertex_count"])
	}

	executeNode(t, client, "save_mesh", fmt.Sprintf(`{"mesh": %q, "filename": "cube.obj"}`, meshID))
	if _, err := os.Stat(filepath.Join(cfg.OutputFolder, "cube.obj")); err != nil {
		t.Fatalf("saved mesh missing: %v", err)
	}

	loaded := executeNode(t, client, "load_mesh",
		fmt.Sprintf(`{"filename": %q}`, filepath.Join(cfg.OutputFolder, "cube.obj")))
	if vc, _ := loaded["vertex_count"].(float64); vc != 8 {
		t.Errorf("round trip changed vertex count: %v", loaded["vertex_count"])
	}

	// Unknown node fails with an error, not a hang.
	if _, err := client.ExecuteNode(ctx, "no_such_node", json.RawMessage(`{}`)); err == nil {
		t.Error("expected unknown node to error")
	}

	// Status over the same connection.
	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("expected status ok, got %s", status.Status)
	}
	if status.CachedMeshes < 2 {
		t.Errorf("expected at least 2 cached meshes, got %d", status.CachedMeshes)
	}

	runPreviewAPI(t, d, client, meshID)
}

// runPreviewAPI drives the HTTP endpoints against a mesh cached by the
// analysis preview node.
func runPreviewAPI(t *testing.T, d *daemon.Daemon, client *daemon.Client, meshID string) {
	analysis := executeNode(t, client, "preview_mesh_analysis", fmt.Sprintf(`{"mesh": %q}`, meshID))
	cachedID, _ := analysis["mesh_id"].(string)
	if cachedID == "" {
		t.Fatalf("preview_mesh_analysis returned no mesh_id: %v", analysis)
	}

	base := "http://" + d.HTTPAddr()

	resp := postJSON(t, base+"/geomnodes/analyze",
		fmt.Sprintf(`{"mesh_id": %q, "analysis": "components"}`, cachedID))
	if resp["error"] != nil {
		t.Fatalf("analyze failed: %v", resp["error"])
	}
	if count, _ := resp["count"].(float64); count != 1 {
		t.Errorf("expected 1 component in a cube, got %v", resp["count"])
	}

	resp = postJSON(t, base+"/geomnodes/find-location",
		fmt.Sprintf(`{"mesh_id": %q, "query": "face 0"}`, cachedID))
	if resp["error"] != nil {
		t.Fatalf("find-location failed: %v", resp["error"])
	}
	if kind, _ := resp["kind"].(string); kind != "face" {
		t.Errorf("expected kind face, got %v", resp["kind"])
	}

	httpResp, err := http.Get(base + "/geomnodes/nodes")
	if err != nil {
		t.Fatalf("nodes endpoint: %v", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from nodes endpoint, got %d", httpResp.StatusCode)
	}

	httpResp2, err := http.Get(base + "/geomnodes/assets")
	if err != nil {
		t.Fatalf("assets endpoint: %v", err)
	}
	defer httpResp2.Body.Close()
	if httpResp2.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from assets endpoint, got %d", httpResp2.StatusCode)
	}
}

func postJSON(t *testing.T, url, body string) map[string]interface{} {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response from %s: %v", url, err)
	}
	return decoded
}

func TestDaemonConcurrentConnections(t *testing.T) {
	_, cfg := startTestDaemon(t)

	ctx := context.Background()
	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			client, err := daemon.Dial(ctx, cfg.SocketPath)
			if err != nil {
				done <- err
				return
			}
			defer client.Close()
			_, err = client.ListNodes(ctx)
			done <- err
		}()
	}

	for i := 0; i < 4; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent connection %d failed: %v", i, err)
		}
	}
}
