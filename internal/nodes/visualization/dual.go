package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/EliCDavis/vector/vector3"

	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/meshio"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

// dualColors maps the color names the host UI offers to sRGB bytes.
var dualColors = map[string][3]uint8{
	"red":     {255, 100, 100},
	"blue":    {100, 150, 255},
	"green":   {100, 255, 100},
	"yellow":  {255, 255, 100},
	"cyan":    {100, 255, 255},
	"magenta": {255, 100, 255},
	"orange":  {255, 180, 100},
	"purple":  {200, 100, 255},
	"default": {255, 255, 255},
}

type PreviewMeshDualRequest struct {
	Mesh1 string `json:"mesh_1"`
	Mesh2 string `json:"mesh_2"`
	// Layout is side_by_side (two files, independent cameras) or
	// overlay (one file with both meshes in shared coordinates).
	Layout     string `json:"layout,omitempty"`
	Mesh1Color string `json:"mesh_1_color,omitempty"`
	Mesh2Color string `json:"mesh_2_color,omitempty"`
	// Opacity is a pointer so an explicit zero survives decoding; the
	// default is fully opaque.
	Opacity *float64 `json:"opacity,omitempty"`
}

type DualSideBySideResponse struct {
	Layout       string     `json:"layout"`
	Mesh1File    string     `json:"mesh_1_file"`
	Mesh2File    string     `json:"mesh_2_file"`
	VertexCount1 int        `json:"vertex_count_1"`
	VertexCount2 int        `json:"vertex_count_2"`
	FaceCount1   int        `json:"face_count_1"`
	FaceCount2   int        `json:"face_count_2"`
	BoundsMin1   [3]float64 `json:"bounds_min_1"`
	BoundsMax1   [3]float64 `json:"bounds_max_1"`
	BoundsMin2   [3]float64 `json:"bounds_min_2"`
	BoundsMax2   [3]float64 `json:"bounds_max_2"`
	Extents1     [3]float64 `json:"extents_1"`
	Extents2     [3]float64 `json:"extents_2"`
	Watertight1  bool       `json:"is_watertight_1"`
	Watertight2  bool       `json:"is_watertight_2"`
	FieldNames1  []string   `json:"field_names_1"`
	FieldNames2  []string   `json:"field_names_2"`
	CommonFields []string   `json:"common_fields"`
}

type DualOverlayResponse struct {
	Layout       string     `json:"layout"`
	MeshFile     string     `json:"mesh_file"`
	VertexCount1 int        `json:"vertex_count_1"`
	VertexCount2 int        `json:"vertex_count_2"`
	FaceCount1   int        `json:"face_count_1"`
	FaceCount2   int        `json:"face_count_2"`
	BoundsMin    [3]float64 `json:"bounds_min"`
	BoundsMax    [3]float64 `json:"bounds_max"`
	Extents      [3]float64 `json:"extents"`
	Mesh1Color   string     `json:"mesh_1_color"`
	Mesh2Color   string     `json:"mesh_2_color"`
	Opacity      float64    `json:"opacity"`
	Watertight1  bool       `json:"is_watertight_1"`
	Watertight2  bool       `json:"is_watertight_2"`
	FieldNames1  []string   `json:"field_names_1"`
	FieldNames2  []string   `json:"field_names_2"`
	CommonFields []string   `json:"common_fields"`
}

// PreviewMeshDualNode exports two meshes for side-by-side or overlay
// comparison. Side-by-side writes one file per mesh so the viewers can
// frame each independently; overlay merges both into a single scene.
type PreviewMeshDualNode struct {
	store         *preview.Cache
	previewFolder string
}

func NewPreviewMeshDualNode(store *preview.Cache, previewFolder string) *PreviewMeshDualNode {
	return &PreviewMeshDualNode{store: store, previewFolder: previewFolder}
}

func (n *PreviewMeshDualNode) Name() string {
	return "preview_mesh_dual"
}

func (n *PreviewMeshDualNode) Description() string {
	return "Export two meshes for side-by-side or overlay comparison"
}

func (n *PreviewMeshDualNode) Category() string {
	return "geomnodes/visualization"
}

func (n *PreviewMeshDualNode) Annotations() map[string]bool {
	return nodes.ReadOnlyAnnotations()
}

func (n *PreviewMeshDualNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mesh_1": {
				"type": "string",
				"description": "First mesh id"
			},
			"mesh_2": {
				"type": "string",
				"description": "Second mesh id"
			},
			"layout": {
				"type": "string",
				"enum": ["side_by_side", "overlay"],
				"default": "side_by_side",
				"description": "side_by_side exports two files, overlay merges both into one"
			},
			"mesh_1_color": {
				"type": "string",
				"enum": ["default", "red", "blue", "green", "yellow", "cyan", "magenta", "orange", "purple"],
				"default": "default",
				"description": "Overlay color for the first mesh"
			},
			"mesh_2_color": {
				"type": "string",
				"enum": ["default", "red", "blue", "green", "yellow", "cyan", "magenta", "orange", "purple"],
				"default": "default",
				"description": "Overlay color for the second mesh"
			},
			"opacity": {
				"type": "number",
				"minimum": 0,
				"maximum": 1,
				"default": 1.0,
				"description": "Overlay opacity for both meshes"
			}
		},
		"required": ["mesh_1", "mesh_2"]
	}`)
}

func (n *PreviewMeshDualNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req PreviewMeshDualRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if req.Mesh1 == "" {
		return nil, fmt.Errorf("mesh_1 is required")
	}
	if req.Mesh2 == "" {
		return nil, fmt.Errorf("mesh_2 is required")
	}
	m1, err := nodes.MeshRef(n.store, req.Mesh1)
	if err != nil {
		return nil, err
	}
	m2, err := nodes.MeshRef(n.store, req.Mesh2)
	if err != nil {
		return nil, err
	}

	layout := req.Layout
	if layout == "" {
		layout = "side_by_side"
	}
	if layout != "side_by_side" && layout != "overlay" {
		return nil, fmt.Errorf("unknown layout: %s", layout)
	}

	color1, err := dualColor(req.Mesh1Color)
	if err != nil {
		return nil, err
	}
	color2, err := dualColor(req.Mesh2Color)
	if err != nil {
		return nil, err
	}

	opacity := 1.0
	if req.Opacity != nil {
		opacity = *req.Opacity
	}
	if err := nodes.FloatInRange("opacity", opacity, 0, 1); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(n.previewFolder, 0755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}

	if layout == "overlay" {
		return n.exportOverlay(m1, m2, color1, color2, opacity)
	}
	return n.exportSideBySide(m1, m2)
}

// exportSideBySide writes each mesh to its own file. Meshes carrying
// scalar fields go out as VTP so the viewer can color by them, bare
// geometry goes out as STL.
func (n *PreviewMeshDualNode) exportSideBySide(m1, m2 *geom.Mesh) (interface{}, error) {
	tag := preview.NewID()[:8]
	file1, err := exportFielded(n.previewFolder, m1, fmt.Sprintf("preview_dual_1_%s", tag))
	if err != nil {
		return nil, err
	}
	file2, err := exportFielded(n.previewFolder, m2, fmt.Sprintf("preview_dual_2_%s", tag))
	if err != nil {
		return nil, err
	}

	min1, max1 := m1.Bounds()
	min2, max2 := m2.Bounds()
	log.Info("exported dual preview", "layout", "side_by_side", "file_1", file1, "file_2", file2)
	return DualSideBySideResponse{
		Layout:       "side_by_side",
		Mesh1File:    file1,
		Mesh2File:    file2,
		VertexCount1: m1.VertexCount(),
		VertexCount2: m2.VertexCount(),
		FaceCount1:   m1.FaceCount(),
		FaceCount2:   m2.FaceCount(),
		BoundsMin1:   arr3(min1),
		BoundsMax1:   arr3(max1),
		BoundsMin2:   arr3(min2),
		BoundsMax2:   arr3(max2),
		Extents1:     arr3(m1.Extents()),
		Extents2:     arr3(m2.Extents()),
		Watertight1:  m1.FaceCount() > 0 && m1.IsWatertight(),
		Watertight2:  m2.FaceCount() > 0 && m2.IsWatertight(),
		FieldNames1:  m1.FieldNames(),
		FieldNames2:  m2.FieldNames(),
		CommonFields: commonFields(m1, m2),
	}, nil
}

// exportFielded writes one comparison mesh: VTP when it carries scalar
// fields so the viewer can color by them, STL for bare geometry, OBJ
// when either export fails.
func exportFielded(folder string, m *geom.Mesh, stem string) (string, error) {
	ext := ".stl"
	if len(m.FieldNames()) > 0 {
		ext = ".vtp"
	}
	filename := stem + ext
	path := filepath.Join(folder, filename)
	if err := meshio.Save(path, m); err != nil {
		log.Warn("comparison preview export failed, falling back to obj", "file", filename, "error", err)
		filename = stem + ".obj"
		path = filepath.Join(folder, filename)
		if err := meshio.Save(path, m); err != nil {
			return "", fmt.Errorf("export comparison preview: %w", err)
		}
	}
	return filename, nil
}

// exportOverlay merges both meshes into one scene. When either mesh
// carries scalar fields the merge goes out as VTP with the fields
// zero-padded across the other half; otherwise it goes out as a GLB
// with one colored material per mesh.
func (n *PreviewMeshDualNode) exportOverlay(m1, m2 *geom.Mesh, color1, color2 string, opacity float64) (interface{}, error) {
	tag := preview.NewID()[:8]
	stem := fmt.Sprintf("preview_dual_overlay_%s", tag)

	var filename string
	if len(m1.FieldNames()) > 0 || len(m2.FieldNames()) > 0 {
		merged := m1.Clone()
		merged.Concat(m2)
		filename = stem + ".vtp"
		if err := meshio.Save(filepath.Join(n.previewFolder, filename), merged); err != nil {
			return nil, fmt.Errorf("export overlay preview: %w", err)
		}
	} else {
		filename = stem + ".glb"
		parts := []meshio.GLBPart{
			{Name: "mesh_1", Mesh: m1, RGBA: glbColor(color1, opacity)},
			{Name: "mesh_2", Mesh: m2, RGBA: glbColor(color2, opacity)},
		}
		if err := meshio.WriteGLBParts(filepath.Join(n.previewFolder, filename), parts); err != nil {
			log.Warn("glb overlay export failed, falling back to obj", "error", err)
			merged := m1.Clone()
			merged.Concat(m2)
			filename = stem + ".obj"
			if err := meshio.Save(filepath.Join(n.previewFolder, filename), merged); err != nil {
				return nil, fmt.Errorf("export overlay preview: %w", err)
			}
		}
	}

	min1, max1 := m1.Bounds()
	min2, max2 := m2.Bounds()
	min := vecMin(min1, min2)
	max := vecMax(max1, max2)
	log.Info("exported dual preview", "layout", "overlay", "file", filename)
	return DualOverlayResponse{
		Layout:       "overlay",
		MeshFile:     filename,
		VertexCount1: m1.VertexCount(),
		VertexCount2: m2.VertexCount(),
		FaceCount1:   m1.FaceCount(),
		FaceCount2:   m2.FaceCount(),
		BoundsMin:    arr3(min),
		BoundsMax:    arr3(max),
		Extents:      [3]float64{max.X() - min.X(), max.Y() - min.Y(), max.Z() - min.Z()},
		Mesh1Color:   color1,
		Mesh2Color:   color2,
		Opacity:      opacity,
		Watertight1:  m1.FaceCount() > 0 && m1.IsWatertight(),
		Watertight2:  m2.FaceCount() > 0 && m2.IsWatertight(),
		FieldNames1:  m1.FieldNames(),
		FieldNames2:  m2.FieldNames(),
		CommonFields: commonFields(m1, m2),
	}, nil
}

func dualColor(name string) (string, error) {
	if name == "" {
		return "default", nil
	}
	if _, ok := dualColors[name]; !ok {
		return "", fmt.Errorf("unknown color: %s", name)
	}
	return name, nil
}

func glbColor(name string, opacity float64) [4]float32 {
	rgb := dualColors[name]
	return [4]float32{
		float32(rgb[0]) / 255,
		float32(rgb[1]) / 255,
		float32(rgb[2]) / 255,
		float32(opacity),
	}
}

func commonFields(m1, m2 *geom.Mesh) []string {
	names2 := make(map[string]bool, len(m2.FieldNames()))
	for _, name := range m2.FieldNames() {
		names2[name] = true
	}
	common := []string{}
	for _, name := range m1.FieldNames() {
		if names2[name] {
			common = append(common, name)
		}
	}
	sort.Strings(common)
	return common
}

func vecMin(a, b vector3.Float64) vector3.Float64 {
	return vector3.New(math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y()), math.Min(a.Z(), b.Z()))
}

func vecMax(a, b vector3.Float64) vector3.Float64 {
	return vector3.New(math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y()), math.Max(a.Z(), b.Z()))
}
