package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geomnodes/geomnodes/internal/meshio"
)

// HashFile returns the sha256 of the file's raw bytes.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Probe loads a mesh file and measures it into an Asset row.
func Probe(path string) (*Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	hash, err := HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}

	m, err := meshio.Load(path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	min, max := m.Bounds()
	return &Asset{
		Path:        path,
		ContentHash: hash,
		Format:      strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		FileSize:    info.Size(),
		VertexCount: m.VertexCount(),
		FaceCount:   m.FaceCount(),
		BoundsMin:   [3]float64{min.X(), min.Y(), min.Z()},
		BoundsMax:   [3]float64{max.X(), max.Y(), max.Z()},
		Watertight:  m.IsWatertight(),
		Status:      StatusIndexed,
		IndexedAt:   time.Now(),
	}, nil
}
