package fileio

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

type MeshInfoRequest struct {
	Mesh string `json:"mesh"`
}

type MeshInfoResponse struct {
	Mesh        string                 `json:"mesh"`
	VertexCount int                    `json:"vertex_count"`
	FaceCount   int                    `json:"face_count"`
	BoundsMin   [3]float64             `json:"bounds_min"`
	BoundsMax   [3]float64             `json:"bounds_max"`
	Extents     [3]float64             `json:"extents"`
	MaxExtent   float64                `json:"max_extent"`
	Watertight  bool                   `json:"watertight"`
	FieldNames  []string               `json:"field_names"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type MeshInfoNode struct {
	store *preview.Cache
}

func NewMeshInfoNode(store *preview.Cache) *MeshInfoNode {
	return &MeshInfoNode{store: store}
}

func (n *MeshInfoNode) Name() string {
	return "mesh_info"
}

func (n *MeshInfoNode) Description() string {
	return "Report counts, bounds, watertightness, and attached fields of a mesh"
}

func (n *MeshInfoNode) Category() string {
	return "geomnodes/io"
}

func (n *MeshInfoNode) Annotations() map[string]bool {
	return nodes.ReadOnlyAnnotations()
}

func (n *MeshInfoNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mesh": {
				"type": "string",
				"description": "Mesh id to inspect"
			}
		},
		"required": ["mesh"]
	}`)
}

func (n *MeshInfoNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req MeshInfoRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	m, err := nodes.MeshRef(n.store, req.Mesh)
	if err != nil {
		return nil, err
	}

	min, max := m.Bounds()
	extents := m.Extents()

	return MeshInfoResponse{
		Mesh:        req.Mesh,
		VertexCount: m.VertexCount(),
		FaceCount:   m.FaceCount(),
		BoundsMin:   [3]float64{min.X(), min.Y(), min.Z()},
		BoundsMax:   [3]float64{max.X(), max.Y(), max.Z()},
		Extents:     [3]float64{extents.X(), extents.Y(), extents.Z()},
		MaxExtent:   m.MaxExtent(),
		Watertight:  m.IsWatertight(),
		FieldNames:  m.FieldNames(),
		Metadata:    m.Metadata,
	}, nil
}
