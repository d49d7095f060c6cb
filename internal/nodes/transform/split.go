package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/EliCDavis/vector/vector3"

	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

// maxSplitValues caps how many submeshes a single split may produce.
const maxSplitValues = 100

type SplitByFieldRequest struct {
	Mesh  string `json:"mesh"`
	Field string `json:"field"`
}

// SplitPart is one submesh extracted for a single field value.
type SplitPart struct {
	Value int `json:"value"`
	nodes.MeshSummary
}

type SplitByFieldResponse struct {
	Field string      `json:"field"`
	Parts []SplitPart `json:"parts"`
	Count int         `json:"count"`
}

type SplitByFieldNode struct {
	store *preview.Cache
}

func NewSplitByFieldNode(store *preview.Cache) *SplitByFieldNode {
	return &SplitByFieldNode{store: store}
}

func (n *SplitByFieldNode) Name() string {
	return "split_by_field"
}

func (n *SplitByFieldNode) Description() string {
	return "Split a mesh into submeshes by an integer-valued vertex field"
}

func (n *SplitByFieldNode) Category() string {
	return "geomnodes/transform"
}

func (n *SplitByFieldNode) Annotations() map[string]bool {
	return nodes.TransformAnnotations()
}

func (n *SplitByFieldNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mesh": {
				"type": "string",
				"description": "Mesh id to split"
			},
			"field": {
				"type": "string",
				"description": "Integer-valued vertex field to split by (e.g. label, part_id)"
			}
		},
		"required": ["mesh", "field"]
	}`)
}

func (n *SplitByFieldNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req SplitByFieldRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	src, err := nodes.MeshRef(n.store, req.Mesh)
	if err != nil {
		return nil, err
	}
	if req.Field == "" {
		return nil, fmt.Errorf("field is required")
	}

	field, ok := src.VertexFields[req.Field]
	if !ok {
		available := make([]string, 0, len(src.VertexFields))
		for name := range src.VertexFields {
			available = append(available, name)
		}
		sort.Strings(available)
		return nil, fmt.Errorf("field %s not found, available: %v", req.Field, available)
	}

	values, err := uniqueIntValues(req.Field, field)
	if err != nil {
		return nil, err
	}
	if len(values) > maxSplitValues {
		return nil, fmt.Errorf("too many unique values (%d), maximum is %d", len(values), maxSplitValues)
	}

	parts := make([]SplitPart, 0, len(values))
	for _, value := range values {
		sub := n.extract(src, field, value)
		sub.SetMetadata("split_field", req.Field)
		sub.SetMetadata("split_value", value)

		summary, err := nodes.Summarize(n.store, sub)
		if err != nil {
			return nil, err
		}
		parts = append(parts, SplitPart{Value: value, MeshSummary: summary})
	}

	log.Info("split mesh by field", "field", req.Field, "parts", len(parts))
	return SplitByFieldResponse{Field: req.Field, Parts: parts, Count: len(parts)}, nil
}

// extract builds the submesh for one field value: faces whose three
// vertices all carry the value, or the bare vertices when no face
// qualifies.
func (n *SplitByFieldNode) extract(src *geom.Mesh, field []float64, value int) *geom.Mesh {
	var faceIndices []int
	for fi, f := range src.Faces {
		if int(field[f[0]]) == value && int(field[f[1]]) == value && int(field[f[2]]) == value {
			faceIndices = append(faceIndices, fi)
		}
	}
	if len(faceIndices) > 0 {
		return src.Submesh(faceIndices)
	}

	var vertices []vector3.Float64
	var picked []int
	for vi, v := range field {
		if int(v) == value {
			vertices = append(vertices, src.Vertices[vi])
			picked = append(picked, vi)
		}
	}
	out := geom.NewMesh(vertices, nil)
	for name, vals := range src.VertexFields {
		masked := make([]float64, len(picked))
		for i, vi := range picked {
			masked[i] = vals[vi]
		}
		out.VertexFields[name] = masked
	}
	return out
}

// uniqueIntValues validates the field holds whole numbers and returns
// its distinct values ascending.
func uniqueIntValues(name string, field []float64) ([]int, error) {
	seen := make(map[int]struct{})
	for _, v := range field {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, fmt.Errorf("field %s is not integer-valued", name)
		}
		seen[int(v)] = struct{}{}
	}
	values := make([]int, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Ints(values)
	return values, nil
}
