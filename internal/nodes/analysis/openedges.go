package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

// maxListedVertices caps the boundary vertex ids echoed to the UI;
// above this only counts are reported.
const maxListedVertices = 100

type OpenEdgesRequest struct {
	Mesh string `json:"mesh"`
}

type OpenEdgesResponse struct {
	nodes.MeshSummary
	OpenEdgeCount       int   `json:"open_edge_count"`
	BoundaryFaceCount   int   `json:"boundary_face_count"`
	BoundaryVertexCount int   `json:"boundary_vertex_count"`
	BoundaryVertexIDs   []int `json:"boundary_vertex_ids,omitempty"`
}

type OpenEdgesNode struct {
	store *preview.Cache
}

func NewOpenEdgesNode(store *preview.Cache) *OpenEdgesNode {
	return &OpenEdgesNode{store: store}
}

func (n *OpenEdgesNode) Name() string {
	return "open_edges"
}

func (n *OpenEdgesNode) Description() string {
	return "Flag faces along open boundary edges and report boundary vertices"
}

func (n *OpenEdgesNode) Category() string {
	return "geomnodes/analysis"
}

func (n *OpenEdgesNode) Annotations() map[string]bool {
	return nodes.ReadOnlyAnnotations()
}

func (n *OpenEdgesNode) Schema() json.RawMessage {
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

func (n *OpenEdgesNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req OpenEdgesRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	src, err := nodes.MeshRef(n.store, req.Mesh)
	if err != nil {
		return nil, err
	}

	out := src.Clone()
	info := out.Boundary()
	if err := out.SetFaceField("open_edge_count", info.FaceCounts); err != nil {
		return nil, err
	}

	boundaryFaces := 0
	for _, flag := range info.FaceFlags {
		if flag != 0 {
			boundaryFaces++
		}
	}

	out.SetMetadata("num_open_edges", info.EdgeCount)
	out.SetMetadata("num_boundary_faces", boundaryFaces)
	out.SetMetadata("num_boundary_vertices", info.VertexCount)
	var listed []int
	if len(info.VertexIDs) <= maxListedVertices {
		listed = info.VertexIDs
		out.SetMetadata("boundary_vertex_ids", info.VertexIDs)
	}

	summary, err := nodes.Summarize(n.store, out)
	if err != nil {
		return nil, err
	}
	log.Info("found open edges", "edges", info.EdgeCount, "faces", boundaryFaces, "vertices", info.VertexCount)
	return OpenEdgesResponse{
		MeshSummary:         summary,
		OpenEdgeCount:       info.EdgeCount,
		BoundaryFaceCount:   boundaryFaces,
		BoundaryVertexCount: info.VertexCount,
		BoundaryVertexIDs:   listed,
	}, nil
}
