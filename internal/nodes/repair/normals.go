package repair

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

type FixNormalsRequest struct {
	Mesh   string `json:"mesh"`
	Method string `json:"method,omitempty"`
}

type FixNormalsResponse struct {
	nodes.MeshSummary
	Method       string `json:"method"`
	FlippedCount int    `json:"flipped_count"`
}

type FixNormalsNode struct {
	store *preview.Cache
}

func NewFixNormalsNode(store *preview.Cache) *FixNormalsNode {
	return &FixNormalsNode{store: store}
}

func (n *FixNormalsNode) Name() string {
	return "fix_normals"
}

func (n *FixNormalsNode) Description() string {
	return "Make face windings consistent, optionally oriented outward by winding number or raycast"
}

func (n *FixNormalsNode) Category() string {
	return "geomnodes/repair"
}

func (n *FixNormalsNode) Annotations() map[string]bool {
	return nodes.TransformAnnotations()
}

func (n *FixNormalsNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mesh": {
				"type": "string",
				"description": "Mesh id to reorient"
			},
			"method": {
				"type": "string",
				"description": "adjacency propagates winding between neighbors, winding and raycast also point normals outward",
				"enum": ["adjacency", "winding", "raycast"],
				"default": "adjacency"
			}
		},
		"required": ["mesh"]
	}`)
}

func (n *FixNormalsNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req FixNormalsRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	src, err := nodes.MeshRef(n.store, req.Mesh)
	if err != nil {
		return nil, err
	}

	out := src.Clone()
	method := req.Method
	if method == "" {
		method = "adjacency"
	}

	var flipped int
	switch method {
	case "adjacency":
		flipped = out.OrientConsistently()
	case "winding":
		flipped = out.FixNormalsWinding()
	case "raycast":
		flipped = out.FixNormalsRaycast()
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}

	out.SetMetadata("normals_method", method)
	out.SetMetadata("normals_flipped", flipped)

	summary, err := nodes.Summarize(n.store, out)
	if err != nil {
		return nil, err
	}
	log.Info("fixed normals", "method", method, "flipped", flipped, "faces", summary.FaceCount)
	return FixNormalsResponse{MeshSummary: summary, Method: method, FlippedCount: flipped}, nil
}
