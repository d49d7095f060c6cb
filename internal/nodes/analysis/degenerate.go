package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

// smallestFaceCount is how many of the smallest healthy faces the node
// reports for inspection.
const smallestFaceCount = 30

type DegenerateFacesRequest struct {
	Mesh string `json:"mesh"`
}

// SmallestFace is one of the smallest healthy faces by area.
type SmallestFace struct {
	ID   int     `json:"id"`
	Area float64 `json:"area"`
}

type DegenerateFacesResponse struct {
	nodes.MeshSummary
	DegenerateCount int            `json:"degenerate_count"`
	DegenerateIDs   []int          `json:"degenerate_ids,omitempty"`
	SmallestFaces   []SmallestFace `json:"smallest_faces"`
}

type DegenerateFacesNode struct {
	store *preview.Cache
}

func NewDegenerateFacesNode(store *preview.Cache) *DegenerateFacesNode {
	return &DegenerateFacesNode{store: store}
}

func (n *DegenerateFacesNode) Name() string {
	return "degenerate_faces"
}

func (n *DegenerateFacesNode) Description() string {
	return "Flag faces with repeated vertices or zero area and list the smallest faces"
}

func (n *DegenerateFacesNode) Category() string {
	return "geomnodes/analysis"
}

func (n *DegenerateFacesNode) Annotations() map[string]bool {
	return nodes.ReadOnlyAnnotations()
}

func (n *DegenerateFacesNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mesh": {
				"type": "string",
				"description": "Mesh id to analyze"
			}
		},
		"required": ["mesh"]
	}`)
}

func (n *DegenerateFacesNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req DegenerateFacesRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	src, err := nodes.MeshRef(n.store, req.Mesh)
	if err != nil {
		return nil, err
	}

	out := src.Clone()
	report := out.DegenerateFaces(0, smallestFaceCount)
	if err := out.SetFaceField("degenerate", report.Flags); err != nil {
		return nil, err
	}

	smallest := make([]SmallestFace, 0, len(report.Smallest))
	for _, fi := range report.Smallest {
		smallest = append(smallest, SmallestFace{ID: fi, Area: out.FaceArea(fi)})
	}

	out.SetMetadata("num_degenerate", len(report.Degenerate))
	out.SetMetadata("smallest_faces", smallest)

	summary, err := nodes.Summarize(n.store, out)
	if err != nil {
		return nil, err
	}
	log.Info("scanned for degenerate faces", "degenerate", len(report.Degenerate), "faces", summary.FaceCount)
	return DegenerateFacesResponse{
		MeshSummary:     summary,
		DegenerateCount: len(report.Degenerate),
		DegenerateIDs:   report.Degenerate,
		SmallestFaces:   smallest,
	}, nil
}
