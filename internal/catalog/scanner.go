package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/meshio"
)

var log = logger.ForComponent("catalog")

type ScannerConfig struct {
	WorkerCount     int
	MaxQueueSize    int
	RateLimit       int
	MaxFileSize     int64
	ExcludePatterns []string
}

func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		WorkerCount:  2,
		MaxQueueSize: 1000,
		RateLimit:    100,
		MaxFileSize:  512 * 1024 * 1024,
		ExcludePatterns: []string{
			"**/.git/**",
			"**/.cache/**",
			"**/*.tmp",
			"**/*.blend1",
		},
	}
}

type ScannerStats struct {
	Indexed   int64
	Failed    int64
	Skipped   int64
	InQueue   int64
	IsRunning bool
	StartedAt time.Time
}

// Scanner probes mesh files into the catalog on a small worker pool.
// Watcher events land in the high queue, bulk rescans in the low queue,
// so interactive changes surface quickly without blocking node work.
type Scanner struct {
	store  *Store
	config ScannerConfig

	highQueue   chan ScanJob
	normalQueue chan ScanJob
	lowQueue    chan ScanJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rateLimiter *time.Ticker

	stats   ScannerStats
	statsMu sync.RWMutex
}

func NewScanner(store *Store, config ScannerConfig) *Scanner {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scanner{
		store:       store,
		config:      config,
		highQueue:   make(chan ScanJob, 100),
		normalQueue: make(chan ScanJob, config.MaxQueueSize),
		lowQueue:    make(chan ScanJob, config.MaxQueueSize*2),
		ctx:         ctx,
		cancel:      cancel,
	}

	if config.RateLimit > 0 {
		interval := time.Second / time.Duration(config.RateLimit)
		s.rateLimiter = time.NewTicker(interval)
	}

	return s
}

func (s *Scanner) Start() {
	s.statsMu.Lock()
	s.stats.IsRunning = true
	s.stats.StartedAt = time.Now()
	s.statsMu.Unlock()

	log.Info("catalog scanner started", "workers", s.config.WorkerCount)

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *Scanner) Stop() {
	log.Info("catalog scanner stopping")

	s.cancel()
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.wg.Wait()

	s.statsMu.Lock()
	s.stats.IsRunning = false
	s.statsMu.Unlock()

	log.Info("catalog scanner stopped")
}

func (s *Scanner) Enqueue(job ScanJob) bool {
	var queue chan ScanJob
	switch job.Priority {
	case PriorityHigh:
		queue = s.highQueue
	case PriorityNormal:
		queue = s.normalQueue
	default:
		queue = s.lowQueue
	}

	select {
	case queue <- job:
		atomic.AddInt64(&s.stats.InQueue, 1)
		return true
	default:
		log.Warn("scan enqueue failed, queue full", "path", job.Path, "priority", job.Priority)
		return false
	}
}

func (s *Scanner) EnqueueBatch(paths []string, priority JobPriority) int {
	count := 0
	for _, path := range paths {
		if s.Enqueue(ScanJob{Path: path, Priority: priority}) {
			count++
		}
	}
	return count
}

// ScanFolder walks root and enqueues every loadable mesh file at low
// priority. Returns how many files were enqueued.
func (s *Scanner) ScanFolder(root string) int {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !meshio.CanLoad(path) || s.shouldExclude(path) {
			return nil
		}
		if s.Enqueue(ScanJob{Path: path, Priority: PriorityLow}) {
			count++
		}
		return nil
	})
	if err != nil {
		log.Warn("folder scan failed", "root", root, "error", err)
	}
	log.Info("folder scan enqueued", "root", root, "files", count)
	return count
}

func (s *Scanner) GetStats() ScannerStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	stats := s.stats
	stats.InQueue = atomic.LoadInt64(&s.stats.InQueue)
	stats.Indexed = atomic.LoadInt64(&s.stats.Indexed)
	stats.Failed = atomic.LoadInt64(&s.stats.Failed)
	stats.Skipped = atomic.LoadInt64(&s.stats.Skipped)
	return stats
}

func (s *Scanner) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if s.rateLimiter != nil {
			select {
			case <-s.rateLimiter.C:
			case <-s.ctx.Done():
				return
			}
		}

		var job ScanJob
		var ok bool

		select {
		case job, ok = <-s.highQueue:
		default:
			select {
			case job, ok = <-s.normalQueue:
			default:
				select {
				case job, ok = <-s.lowQueue:
				default:
					time.Sleep(10 * time.Millisecond)
					continue
				}
			}
		}

		if !ok {
			continue
		}

		atomic.AddInt64(&s.stats.InQueue, -1)
		log.Debug("scanning asset", "worker", id, "path", job.Path)
		s.processJob(job)
	}
}

func (s *Scanner) processJob(job ScanJob) {
	path := job.Path

	if s.shouldExclude(path) || !meshio.CanLoad(path) {
		atomic.AddInt64(&s.stats.Skipped, 1)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// The file vanished between event and scan.
			_ = s.store.DeleteAsset(path)
			return
		}
		s.recordFailed(path, err.Error())
		return
	}
	if info.IsDir() {
		return
	}

	if info.Size() > s.config.MaxFileSize {
		atomic.AddInt64(&s.stats.Skipped, 1)
		_ = s.store.UpdateAssetStatus(path, StatusSkipped, "file too large")
		log.Debug("skipped asset", "path", path, "reason", "file too large")
		return
	}

	existing, _ := s.store.GetAsset(path)
	if existing != nil && existing.Status == StatusIndexed {
		hash, err := HashFile(path)
		if err == nil && hash == existing.ContentHash {
			log.Debug("skipped asset", "path", path, "reason", "content unchanged")
			return
		}
	}

	asset, err := Probe(path)
	if err != nil {
		s.recordFailed(path, err.Error())
		log.Warn("failed to probe asset", "path", path, "error", err)
		return
	}

	if err := s.store.UpsertAsset(asset); err != nil {
		s.recordFailed(path, err.Error())
		log.Warn("failed to store asset", "path", path, "error", err)
		return
	}

	atomic.AddInt64(&s.stats.Indexed, 1)
	log.Info("asset catalogued", "path", path, "vertices", asset.VertexCount, "faces", asset.FaceCount)
}

func (s *Scanner) shouldExclude(path string) bool {
	for _, pattern := range s.config.ExcludePatterns {
		if match, _ := doublestar.Match(pattern, filepath.ToSlash(path)); match {
			return true
		}
	}
	return false
}

func (s *Scanner) recordFailed(path, errMsg string) {
	atomic.AddInt64(&s.stats.Failed, 1)
	_ = s.store.UpdateAssetStatus(path, StatusFailed, errMsg)
}
