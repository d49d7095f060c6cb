package fileio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geomnodes/geomnodes/internal/catalog"
	"github.com/geomnodes/geomnodes/internal/meshio"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

type LoadMeshRequest struct {
	Filename string `json:"filename"`
}

type LoadMeshResponse struct {
	nodes.MeshSummary
	Path        string `json:"path"`
	ContentHash string `json:"content_hash,omitempty"`
	Watertight  *bool  `json:"watertight,omitempty"`
}

type LoadMeshNode struct {
	store       *preview.Cache
	inputFolder string
	catalog     *catalog.Store
}

func NewLoadMeshNode(store *preview.Cache, inputFolder string, cat *catalog.Store) *LoadMeshNode {
	return &LoadMeshNode{store: store, inputFolder: inputFolder, catalog: cat}
}

func (n *LoadMeshNode) Name() string {
	return "load_mesh"
}

func (n *LoadMeshNode) Description() string {
	return "Load a mesh file from the input folder or an explicit path"
}

func (n *LoadMeshNode) Category() string {
	return "geomnodes/io"
}

func (n *LoadMeshNode) Annotations() map[string]bool {
	return nodes.ReadOnlyAnnotations()
}

func (n *LoadMeshNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"filename": {
				"type": "string",
				"description": "Mesh file, relative to the input folder or an absolute path"
			}
		},
		"required": ["filename"]
	}`)
}

func (n *LoadMeshNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req LoadMeshRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if req.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}

	path, err := n.resolve(req.Filename)
	if err != nil {
		return nil, err
	}

	m, err := meshio.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	summary, err := nodes.Summarize(n.store, m)
	if err != nil {
		return nil, err
	}

	resp := LoadMeshResponse{MeshSummary: summary, Path: path}
	// A catalog row only supplies probe metadata. The mesh itself is
	// always the bytes on disk, never a cached copy.
	if n.catalog != nil {
		if abs, err := filepath.Abs(path); err == nil {
			if asset, err := n.catalog.GetAsset(abs); err == nil && asset != nil && asset.Status == catalog.StatusIndexed {
				resp.ContentHash = asset.ContentHash
				watertight := asset.Watertight
				resp.Watertight = &watertight
			}
		}
	}

	log.Info("loaded mesh", "path", path, "vertices", summary.VertexCount, "faces", summary.FaceCount)
	return resp, nil
}

// resolve tries the input folder first, then the filename as given.
func (n *LoadMeshNode) resolve(filename string) (string, error) {
	if n.inputFolder != "" {
		inputPath := filepath.Join(n.inputFolder, filename)
		if _, err := os.Stat(inputPath); err == nil {
			return inputPath, nil
		}
	}

	if _, err := os.Stat(filename); err == nil {
		return filename, nil
	}

	if n.inputFolder != "" {
		return "", fmt.Errorf("file not found: %s (searched %s and %s)",
			filename, filepath.Join(n.inputFolder, filename), filename)
	}
	return "", fmt.Errorf("file not found: %s", filename)
}
