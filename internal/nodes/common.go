package nodes

import (
	"fmt"

	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/preview"
)

// MeshRef resolves a mesh reference against the store.
func MeshRef(store *preview.Cache, id string) (*geom.Mesh, error) {
	if id == "" {
		return nil, fmt.Errorf("mesh is required")
	}
	m, ok := store.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown mesh id: %s", id)
	}
	return m, nil
}

// FloatInRange checks a scalar parameter against its declared range.
func FloatInRange(name string, value, min, max float64) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %g and %g, got %g", name, min, max, value)
	}
	return nil
}

func IntInRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}
	return nil
}

// MeshSummary is the common payload for nodes that return one mesh.
type MeshSummary struct {
	Mesh        string `json:"mesh"`
	VertexCount int    `json:"vertex_count"`
	FaceCount   int    `json:"face_count"`
}

// Summarize validates a result mesh, stores it, and builds the common
// payload. Every node output passes through here so bad engine output
// (NaN coordinates, dangling indices) fails the node instead of
// poisoning the store.
func Summarize(store *preview.Cache, m *geom.Mesh) (MeshSummary, error) {
	if err := m.Validate(); err != nil {
		return MeshSummary{}, fmt.Errorf("result mesh failed validation: %w", err)
	}
	return MeshSummary{
		Mesh:        store.Put(m),
		VertexCount: m.VertexCount(),
		FaceCount:   m.FaceCount(),
	}, nil
}
