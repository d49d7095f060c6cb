package transform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

type CenterMeshRequest struct {
	Mesh string `json:"mesh"`
}

type CenterMeshResponse struct {
	nodes.MeshSummary
	OriginalCenter [3]float64 `json:"original_center"`
}

type CenterMeshNode struct {
	store *preview.Cache
}

func NewCenterMeshNode(store *preview.Cache) *CenterMeshNode {
	return &CenterMeshNode{store: store}
}

func (n *CenterMeshNode) Name() string {
	return "center_mesh"
}

func (n *CenterMeshNode) Description() string {
	return "Translate a mesh so its bounding box center sits at the origin"
}

func (n *CenterMeshNode) Category() string {
	return "geomnodes/transform"
}

func (n *CenterMeshNode) Annotations() map[string]bool {
	return nodes.TransformAnnotations()
}

func (n *CenterMeshNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mesh": {
				"type": "string",
				"description": "Mesh id to center"
			}
		},
		"required": ["mesh"]
	}`)
}

func (n *CenterMeshNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req CenterMeshRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	src, err := nodes.MeshRef(n.store, req.Mesh)
	if err != nil {
		return nil, err
	}

	center := src.BoundsCenter()
	out := src.Clone()
	out.Translate(center.Scale(-1))
	out.SetMetadata("centered", true)
	out.SetMetadata("original_center", [3]float64{center.X(), center.Y(), center.Z()})

	summary, err := nodes.Summarize(n.store, out)
	if err != nil {
		return nil, err
	}
	log.Info("centered mesh", "mesh", summary.Mesh, "offset_x", center.X(), "offset_y", center.Y(), "offset_z", center.Z())
	return CenterMeshResponse{
		MeshSummary:    summary,
		OriginalCenter: [3]float64{center.X(), center.Y(), center.Z()},
	}, nil
}
