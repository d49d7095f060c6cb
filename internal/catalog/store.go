// Package catalog maintains the sqlite index of mesh assets under the
// input folder: probe results (counts, bounds, watertight) keyed by
// path and content hash. It backs load_mesh name resolution and the
// host UI's asset dropdown, and is rebuildable from disk at any time.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := GetSchema()

	lines := strings.Split(schema, "\n")
	var cleanLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	cleanSchema := strings.Join(cleanLines, "\n")

	if _, err := s.db.Exec(cleanSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	_, _ = s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, GetSchemaVersion())
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UpsertAsset(asset *Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO assets (path, content_hash, format, file_size, vertex_count, face_count,
			min_x, min_y, min_z, max_x, max_y, max_z, watertight, status, error_message, indexed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			format = excluded.format,
			file_size = excluded.file_size,
			vertex_count = excluded.vertex_count,
			face_count = excluded.face_count,
			min_x = excluded.min_x, min_y = excluded.min_y, min_z = excluded.min_z,
			max_x = excluded.max_x, max_y = excluded.max_y, max_z = excluded.max_z,
			watertight = excluded.watertight,
			status = excluded.status,
			error_message = excluded.error_message,
			indexed_at = excluded.indexed_at,
			updated_at = CURRENT_TIMESTAMP
	`, asset.Path, asset.ContentHash, asset.Format, asset.FileSize, asset.VertexCount, asset.FaceCount,
		asset.BoundsMin[0], asset.BoundsMin[1], asset.BoundsMin[2],
		asset.BoundsMax[0], asset.BoundsMax[1], asset.BoundsMax[2],
		asset.Watertight, asset.Status, asset.ErrorMessage, now)

	if err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}
	return nil
}

func (s *Store) UpdateAssetStatus(path string, status AssetStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO assets (path, status, error_message, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, path, status, errMsg)

	if err != nil {
		return fmt.Errorf("update asset status: %w", err)
	}
	return nil
}

const assetColumns = `id, path, content_hash, format, file_size, vertex_count, face_count,
	min_x, min_y, min_z, max_x, max_y, max_z, watertight, status, error_message, indexed_at, updated_at`

func scanAsset(row interface{ Scan(...interface{}) error }) (*Asset, error) {
	asset := &Asset{}
	var indexedAt, updatedAt sql.NullTime
	var errorMsg, contentHash, format sql.NullString

	err := row.Scan(
		&asset.ID, &asset.Path, &contentHash, &format, &asset.FileSize,
		&asset.VertexCount, &asset.FaceCount,
		&asset.BoundsMin[0], &asset.BoundsMin[1], &asset.BoundsMin[2],
		&asset.BoundsMax[0], &asset.BoundsMax[1], &asset.BoundsMax[2],
		&asset.Watertight, &asset.Status, &errorMsg, &indexedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if contentHash.Valid {
		asset.ContentHash = contentHash.String
	}
	if format.Valid {
		asset.Format = format.String
	}
	if errorMsg.Valid {
		asset.ErrorMessage = errorMsg.String
	}
	if indexedAt.Valid {
		asset.IndexedAt = indexedAt.Time
	}
	if updatedAt.Valid {
		asset.UpdatedAt = updatedAt.Time
	}
	return asset, nil
}

// GetAsset returns the row for a path, or nil when not catalogued.
func (s *Store) GetAsset(path string) (*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, err := scanAsset(s.db.QueryRow(`SELECT `+assetColumns+` FROM assets WHERE path = ?`, path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

func (s *Store) ListAssets(limit int) ([]*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.Query(`SELECT `+assetColumns+` FROM assets WHERE status = ? ORDER BY path ASC LIMIT ?`,
		StatusIndexed, limit)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	return collectAssets(rows)
}

// Search matches catalogued paths by case-insensitive substring.
func (s *Store) Search(query string, limit int) ([]*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.Query(`SELECT `+assetColumns+` FROM assets
		WHERE LOWER(path) LIKE ? AND status = ? ORDER BY path ASC LIMIT ?`,
		pattern, StatusIndexed, limit)
	if err != nil {
		return nil, fmt.Errorf("search assets: %w", err)
	}
	defer rows.Close()

	return collectAssets(rows)
}

func collectAssets(rows *sql.Rows) ([]*Asset, error) {
	var assets []*Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (s *Store) DeleteAsset(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM assets WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}

// Prune drops rows whose file no longer exists on disk.
func (s *Store) Prune() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path FROM assets`)
	if err != nil {
		return 0, fmt.Errorf("prune query: %w", err)
	}

	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("prune scan: %w", err)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			stale = append(stale, path)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, path := range stale {
		if _, err := s.db.Exec(`DELETE FROM assets WHERE path = ?`, path); err != nil {
			return 0, fmt.Errorf("prune delete: %w", err)
		}
	}
	return len(stale), nil
}

func (s *Store) Stats() (*CatalogStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &CatalogStats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'indexed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'indexed' THEN face_count ELSE 0 END), 0)
		FROM assets
	`).Scan(&stats.TotalAssets, &stats.IndexedAssets, &stats.FailedAssets, &stats.SkippedAssets, &stats.TotalFaces)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}

	var lastIndexed sql.NullTime
	err = s.db.QueryRow(`SELECT MAX(indexed_at) FROM assets WHERE status = 'indexed'`).Scan(&lastIndexed)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	if lastIndexed.Valid {
		stats.LastIndexedAt = lastIndexed.Time
	}

	return stats, nil
}
