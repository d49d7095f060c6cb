// Package primitives provides the mesh creation nodes.
package primitives

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

var log = logger.ForComponent("nodes.primitives")

type CreatePrimitiveRequest struct {
	Shape        string  `json:"shape"`
	Size         float64 `json:"size,omitempty"`
	Subdivisions *int    `json:"subdivisions,omitempty"`
}

type CreatePrimitiveResponse struct {
	nodes.MeshSummary
	Shape string `json:"shape"`
}

type CreatePrimitiveNode struct {
	store *preview.Cache
}

func NewCreatePrimitiveNode(store *preview.Cache) *CreatePrimitiveNode {
	return &CreatePrimitiveNode{store: store}
}

func (n *CreatePrimitiveNode) Name() string {
	return "create_primitive"
}

func (n *CreatePrimitiveNode) Description() string {
	return "Create a primitive mesh: cube, icosphere, or subdivided plane"
}

func (n *CreatePrimitiveNode) Category() string {
	return "geomnodes/primitives"
}

func (n *CreatePrimitiveNode) Annotations() map[string]bool {
	return nodes.TransformAnnotations()
}

func (n *CreatePrimitiveNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"shape": {
				"type": "string",
				"description": "Primitive to create",
				"enum": ["cube", "sphere", "plane"]
			},
			"size": {
				"type": "number",
				"description": "Edge length (cube/plane) or diameter (sphere)",
				"default": 1.0,
				"minimum": 0.01,
				"maximum": 100
			},
			"subdivisions": {
				"type": "integer",
				"description": "Refinement level for sphere and plane, ignored for cube",
				"default": 2,
				"minimum": 0,
				"maximum": 5
			}
		},
		"required": ["shape"]
	}`)
}

func (n *CreatePrimitiveNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req CreatePrimitiveRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if req.Shape == "" {
		return nil, fmt.Errorf("shape is required")
	}
	if req.Size == 0 {
		req.Size = 1.0
	}
	if err := nodes.FloatInRange("size", req.Size, 0.01, 100); err != nil {
		return nil, err
	}
	subdivisions := 2
	if req.Subdivisions != nil {
		subdivisions = *req.Subdivisions
	}
	if err := nodes.IntInRange("subdivisions", subdivisions, 0, 5); err != nil {
		return nil, err
	}

	var m *geom.Mesh
	switch req.Shape {
	case "cube":
		m = geom.Cube(req.Size)
	case "sphere":
		m = geom.Icosphere(req.Size, subdivisions)
	case "plane":
		m = geom.Plane(req.Size, subdivisions)
	default:
		return nil, fmt.Errorf("unknown shape: %s", req.Shape)
	}

	summary, err := nodes.Summarize(n.store, m)
	if err != nil {
		return nil, err
	}
	log.Info("created primitive", "shape", req.Shape, "vertices", summary.VertexCount, "faces", summary.FaceCount)
	return CreatePrimitiveResponse{MeshSummary: summary, Shape: req.Shape}, nil
}

// GetNodes returns every node in this package.
func GetNodes(store *preview.Cache) []nodes.Node {
	return []nodes.Node{
		NewCreatePrimitiveNode(store),
	}
}
