package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/geomnodes/geomnodes/internal/meshio"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

type PreviewMeshAnalysisRequest struct {
	Mesh string `json:"mesh"`
}

type PreviewMeshAnalysisResponse struct {
	MeshFile    string     `json:"mesh_file"`
	MeshID      string     `json:"mesh_id"`
	VertexCount int        `json:"vertex_count"`
	FaceCount   int        `json:"face_count"`
	BoundsMin   [3]float64 `json:"bounds_min"`
	BoundsMax   [3]float64 `json:"bounds_max"`
	Extents     [3]float64 `json:"extents"`
	MaxExtent   float64    `json:"max_extent"`
	Watertight  bool       `json:"is_watertight"`
	FieldNames  []string   `json:"field_names"`
}

// PreviewMeshAnalysisNode exports a mesh for the analysis viewer and
// caches a private copy under a fresh id. The viewer's analyze and
// find-location endpoints address that copy, so later node executions
// cannot mutate what the widget is inspecting.
type PreviewMeshAnalysisNode struct {
	store         *preview.Cache
	previewFolder string
}

func NewPreviewMeshAnalysisNode(store *preview.Cache, previewFolder string) *PreviewMeshAnalysisNode {
	return &PreviewMeshAnalysisNode{store: store, previewFolder: previewFolder}
}

func (n *PreviewMeshAnalysisNode) Name() string {
	return "preview_mesh_analysis"
}

func (n *PreviewMeshAnalysisNode) Description() string {
	return "Export a mesh for the analysis viewer with on-demand quality fields"
}

func (n *PreviewMeshAnalysisNode) Category() string {
	return "geomnodes/visualization"
}

func (n *PreviewMeshAnalysisNode) Annotations() map[string]bool {
	return nodes.ReadOnlyAnnotations()
}

func (n *PreviewMeshAnalysisNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mesh": {
				"type": "string",
				"description": "Mesh id to preview"
			}
		},
		"required": ["mesh"]
	}`)
}

func (n *PreviewMeshAnalysisNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req PreviewMeshAnalysisRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	src, err := nodes.MeshRef(n.store, req.Mesh)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(n.previewFolder, 0755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}

	snapshot := src.Clone()
	id := n.store.Put(snapshot)

	filename := fmt.Sprintf("analysis_%s.vtp", id)
	path := filepath.Join(n.previewFolder, filename)
	if err := meshio.Save(path, snapshot); err != nil {
		log.Warn("vtp analysis export failed, falling back to stl", "error", err)
		filename = strings.TrimSuffix(filename, ".vtp") + ".stl"
		path = filepath.Join(n.previewFolder, filename)
		if err := meshio.Save(path, snapshot); err != nil {
			return nil, fmt.Errorf("export analysis preview: %w", err)
		}
	}
	if err := n.store.SetFilename(id, filename); err != nil {
		return nil, err
	}

	min, max := snapshot.Bounds()
	extents := snapshot.Extents()
	log.Info("exported analysis preview", "file", filename, "mesh_id", id,
		"vertices", snapshot.VertexCount(), "faces", snapshot.FaceCount())
	return PreviewMeshAnalysisResponse{
		MeshFile:    filename,
		MeshID:      id,
		VertexCount: snapshot.VertexCount(),
		FaceCount:   snapshot.FaceCount(),
		BoundsMin:   arr3(min),
		BoundsMax:   arr3(max),
		Extents:     arr3(extents),
		MaxExtent:   snapshot.MaxExtent(),
		Watertight:  snapshot.FaceCount() > 0 && snapshot.IsWatertight(),
		FieldNames:  snapshot.FieldNames(),
	}, nil
}
