package catalog

import "time"

type AssetStatus string

const (
	StatusPending AssetStatus = "pending"
	StatusIndexed AssetStatus = "indexed"
	StatusFailed  AssetStatus = "failed"
	StatusSkipped AssetStatus = "skipped"
)

// Asset is one catalogued mesh file. The row is a cache of probe
// results; the file on disk stays the source of truth.
type Asset struct {
	ID           int64       `json:"id"`
	Path         string      `json:"path"`
	ContentHash  string      `json:"content_hash"`
	Format       string      `json:"format"`
	FileSize     int64       `json:"file_size"`
	VertexCount  int         `json:"vertex_count"`
	FaceCount    int         `json:"face_count"`
	BoundsMin    [3]float64  `json:"bounds_min"`
	BoundsMax    [3]float64  `json:"bounds_max"`
	Watertight   bool        `json:"watertight"`
	Status       AssetStatus `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	IndexedAt    time.Time   `json:"indexed_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type CatalogStats struct {
	TotalAssets   int       `json:"total_assets"`
	IndexedAssets int       `json:"indexed_assets"`
	FailedAssets  int       `json:"failed_assets"`
	SkippedAssets int       `json:"skipped_assets"`
	TotalFaces    int64     `json:"total_faces"`
	LastIndexedAt time.Time `json:"last_indexed_at"`
}

type ScanJob struct {
	Path     string
	Priority JobPriority
}

type JobPriority int

const (
	PriorityLow JobPriority = iota
	PriorityNormal
	PriorityHigh
)
