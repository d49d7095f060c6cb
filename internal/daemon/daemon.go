// Package daemon wires the node pack into a long-running process: the
// unix-socket JSON-RPC server the host talks to, the HTTP preview API,
// the asset catalog with its watcher, and the external engine runners.
package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/geomnodes/geomnodes/internal/catalog"
	"github.com/geomnodes/geomnodes/internal/config"
	"github.com/geomnodes/geomnodes/internal/extproc"
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/nodes/analysis"
	"github.com/geomnodes/geomnodes/internal/nodes/engine"
	"github.com/geomnodes/geomnodes/internal/nodes/fileio"
	"github.com/geomnodes/geomnodes/internal/nodes/primitives"
	"github.com/geomnodes/geomnodes/internal/nodes/repair"
	"github.com/geomnodes/geomnodes/internal/nodes/transform"
	"github.com/geomnodes/geomnodes/internal/nodes/visualization"
	"github.com/geomnodes/geomnodes/internal/preview"
	"github.com/geomnodes/geomnodes/internal/server"
	"github.com/geomnodes/geomnodes/internal/watcher"
)

var log = logger.ForComponent("daemon")

type Daemon struct {
	cfg      *config.Config
	registry *nodes.Registry
	store    *preview.Cache
	blender  *extproc.Blender
	meshlab  *extproc.MeshLab

	catStore   *catalog.Store
	catScanner *catalog.Scanner
	watcher    *watcher.Watcher
	httpServer *server.Server

	listener net.Listener
	handler  *Handler

	conns        map[*jsonrpc2.Conn]bool
	connMu       sync.Mutex
	shutdown     chan struct{}
	shutdownOnce sync.Once
	startTime    time.Time
}

func New(cfg *config.Config) (*Daemon, error) {
	d := &Daemon{
		cfg:       cfg,
		registry:  nodes.NewRegistry(),
		store:     preview.NewCache(),
		blender:   extproc.NewBlender(cfg.Engines.BlenderPath, cfg.Engines.Timeout, cfg.Engines.KeepTempFiles),
		meshlab:   extproc.NewMeshLab(cfg.Engines.MeshLabPath, cfg.Engines.Timeout, cfg.Engines.KeepTempFiles),
		conns:     make(map[*jsonrpc2.Conn]bool),
		shutdown:  make(chan struct{}),
		startTime: time.Now(),
	}

	if cfg.Catalog.Enabled {
		store, err := catalog.NewStore(cfg.Catalog.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		d.catStore = store
		d.catScanner = catalog.NewScanner(store, catalog.ScannerConfig{
			WorkerCount:     cfg.Catalog.WorkerCount,
			MaxQueueSize:    cfg.Catalog.MaxQueueSize,
			RateLimit:       cfg.Catalog.RateLimit,
			MaxFileSize:     cfg.Catalog.MaxFileSize,
			ExcludePatterns: cfg.Catalog.ExcludePatterns,
		})
	}

	if err := d.registerAllNodes(); err != nil {
		return nil, fmt.Errorf("failed to register nodes: %w", err)
	}

	d.handler = NewHandler(d.registry, d.store, d.catStore, cfg.ExecTimeout, d.startTime)
	d.httpServer = server.New(cfg.HTTPAddr, d.registry, d.store, d.catStore, cfg.PreviewFolder)

	if cfg.Catalog.Enabled && cfg.Watcher.Enabled {
		w, err := watcher.New(watcher.WatcherConfig{
			Enabled:        cfg.Watcher.Enabled,
			DebounceWindow: cfg.Watcher.DebounceWindow,
			MaxBatchSize:   cfg.Watcher.MaxBatchSize,
			IgnorePatterns: cfg.Watcher.IgnorePatterns,
			WatchHidden:    cfg.Watcher.WatchHidden,
		}, d.catScanner, d.catStore)
		if err != nil {
			log.Warn("asset watcher unavailable", "error", err)
		} else {
			d.watcher = w
		}
	}

	return d, nil
}

func (d *Daemon) registerAllNodes() error {
	batches := []struct {
		name  string
		nodes []nodes.Node
	}{
		{"primitives", primitives.GetNodes(d.store)},
		{"fileio", fileio.GetNodes(d.store, d.cfg.InputFolder, d.cfg.OutputFolder, d.catStore)},
		{"transform", transform.GetNodes(d.store)},
		{"analysis", analysis.GetNodes(d.store)},
		{"repair", repair.GetNodes(d.store, d.meshlab)},
		{"engine", engine.GetNodes(d.store, d.blender, d.meshlab)},
		{"visualization", visualization.GetNodes(d.store, d.cfg.PreviewFolder, d.blender, d.meshlab, d.catStore, d.registry.Len)},
	}

	for _, batch := range batches {
		if err := d.registry.RegisterAll(batch.nodes); err != nil {
			return fmt.Errorf("%s: %w", batch.name, err)
		}
	}
	return nil
}

// Start brings up the socket, the HTTP preview API and the background
// catalog machinery, then blocks accepting host connections until
// Shutdown is called.
func (d *Daemon) Start(ctx context.Context) error {
	ln, err := listenUnix(d.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.cfg.SocketPath, err)
	}
	d.listener = ln

	if d.catScanner != nil {
		d.catScanner.Start()
		go d.catScanner.ScanFolder(d.cfg.InputFolder)

		if d.catStore != nil {
			if pruned, err := d.catStore.Prune(); err == nil && pruned > 0 {
				log.Info("pruned vanished assets", "count", pruned)
			}
		}
	}

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			log.Warn("asset watcher failed to start", "error", err)
		} else if err := d.watcher.AddRoot(d.cfg.InputFolder); err != nil {
			log.Warn("failed to watch input folder", "path", d.cfg.InputFolder, "error", err)
		}
	}

	if err := d.httpServer.Start(); err != nil {
		d.listener.Close()
		return fmt.Errorf("failed to start preview server: %w", err)
	}

	log.Info("daemon ready",
		"socket", d.cfg.SocketPath,
		"http", d.cfg.HTTPAddr,
		"nodes", d.registry.Len())

	d.acceptConnections(ctx)
	return nil
}

func (d *Daemon) acceptConnections(ctx context.Context) {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
				continue
			}
		}

		go d.serveConn(ctx, conn)
	}
}

func (d *Daemon) serveConn(ctx context.Context, conn net.Conn) {
	stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.PlainObjectCodec{})
	rpcConn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(d.handler))

	d.connMu.Lock()
	d.conns[rpcConn] = true
	d.connMu.Unlock()

	<-rpcConn.DisconnectNotify()

	d.connMu.Lock()
	delete(d.conns, rpcConn)
	d.connMu.Unlock()
}

func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)

		if d.listener != nil {
			d.listener.Close()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.httpServer.Shutdown(shutdownCtx)

		if d.watcher != nil {
			d.watcher.Stop()
		}
		if d.catScanner != nil {
			d.catScanner.Stop()
		}
		if d.catStore != nil {
			d.catStore.Close()
		}

		d.connMu.Lock()
		for conn := range d.conns {
			conn.Close()
		}
		d.connMu.Unlock()

		log.Info("daemon stopped", "uptime", time.Since(d.startTime).Round(time.Second))
	})
}

func (d *Daemon) SocketPath() string {
	return d.cfg.SocketPath
}

// HTTPAddr reports where the preview server is listening. Useful when
// the config asked for an ephemeral port.
func (d *Daemon) HTTPAddr() string {
	return d.httpServer.Addr()
}

func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.startTime)
}

func (d *Daemon) NodeCount() int {
	return d.registry.Len()
}

// listenUnix recreates the daemon socket, restricted to the owning
// user. A stale socket file from a dead daemon is removed first.
func listenUnix(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0700); err != nil {
		ln.Close()
		return nil, err
	}
	return ln, nil
}
