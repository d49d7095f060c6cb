package repair

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geomnodes/geomnodes/internal/extproc"
	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

func execute(t *testing.T, n nodes.Node, req interface{}) (interface{}, error) {
	t.Helper()
	input, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return n.Execute(context.Background(), input)
}

// flippedCube is a cube with three faces wound inward, one each on the
// +Z, -X and +X sides.
func flippedCube() *geom.Mesh {
	m := geom.Cube(2)
	m.FlipFaces([]int{2, 9, 10})
	return m
}

func TestFixNormalsWinding(t *testing.T) {
	store := preview.NewCache()
	m := flippedCube()
	m.SetVertexField("label", make([]float64, m.VertexCount()))
	id := store.Put(m)

	node := NewFixNormalsNode(store)
	result, err := execute(t, node, FixNormalsRequest{Mesh: id, Method: "winding"})
	if err != nil {
		t.Fatalf("failed to fix normals: %v", err)
	}
	resp := result.(FixNormalsResponse)

	if resp.FlippedCount != 3 {
		t.Errorf("expected 3 faces flipped, got %d", resp.FlippedCount)
	}
	if resp.Method != "winding" {
		t.Errorf("expected method winding, got %s", resp.Method)
	}

	out, ok := store.Get(resp.Mesh)
	if !ok {
		t.Fatal("expected repaired mesh in the store")
	}
	if math.Abs(out.Volume()-8.0) > 1e-9 {
		t.Errorf("expected volume 8 after repair, got %f", out.Volume())
	}
	if _, ok := out.VertexFields["label"]; !ok {
		t.Error("expected vertex fields to survive the repair")
	}
	if out.Metadata["normals_method"] != "winding" {
		t.Error("expected normals_method metadata")
	}

	src, _ := store.Get(id)
	if math.Abs(src.Volume()-8.0) < 1e-9 {
		t.Error("expected input mesh to stay flipped")
	}
}

func TestFixNormalsRaycast(t *testing.T) {
	store := preview.NewCache()
	id := store.Put(flippedCube())

	node := NewFixNormalsNode(store)
	result, err := execute(t, node, FixNormalsRequest{Mesh: id, Method: "raycast"})
	if err != nil {
		t.Fatalf("failed to fix normals: %v", err)
	}
	resp := result.(FixNormalsResponse)

	if resp.FlippedCount != 3 {
		t.Errorf("expected 3 faces flipped, got %d", resp.FlippedCount)
	}
	out, _ := store.Get(resp.Mesh)
	if math.Abs(out.Volume()-8.0) > 1e-9 {
		t.Errorf("expected volume 8 after repair, got %f", out.Volume())
	}
}

func TestFixNormalsAdjacencyIsDefault(t *testing.T) {
	store := preview.NewCache()
	id := store.Put(flippedCube())

	node := NewFixNormalsNode(store)
	result, err := execute(t, node, FixNormalsRequest{Mesh: id})
	if err != nil {
		t.Fatalf("failed to fix normals: %v", err)
	}
	resp := result.(FixNormalsResponse)

	if resp.Method != "adjacency" {
		t.Errorf("expected default method adjacency, got %s", resp.Method)
	}
	if resp.FlippedCount != 3 {
		t.Errorf("expected 3 faces flipped, got %d", resp.FlippedCount)
	}
	out, _ := store.Get(resp.Mesh)
	if math.Abs(out.Volume()-8.0) > 1e-9 {
		t.Errorf("expected volume 8 after repair, got %f", out.Volume())
	}

	again, err := execute(t, node, FixNormalsRequest{Mesh: resp.Mesh})
	if err != nil {
		t.Fatalf("failed to fix normals twice: %v", err)
	}
	if n := again.(FixNormalsResponse).FlippedCount; n != 0 {
		t.Errorf("expected no flips on a consistent mesh, got %d", n)
	}
}

func TestFixNormalsUnknownMethod(t *testing.T) {
	store := preview.NewCache()
	id := store.Put(geom.Cube(1))

	node := NewFixNormalsNode(store)
	_, err := execute(t, node, FixNormalsRequest{Mesh: id, Method: "voodoo"})
	if err == nil || !strings.Contains(err.Error(), "unknown method") {
		t.Errorf("expected unknown method error, got %v", err)
	}
}

func TestMeshFixReport(t *testing.T) {
	opts := extproc.MeshFixOptions{
		RemoveSmallComponents: true,
		FillHoles:             true,
		MaxHoleEdges:          50,
		CleanMesh:             true,
	}
	before := fixState{vertices: 100, faces: 200, boundaries: 6, watertight: false}
	after := fixState{vertices: 98, faces: 204, boundaries: 0, watertight: true}

	report := meshFixReport(opts, before, after)
	for _, want := range []string{
		"removed small components",
		"filled holes (up to 50 edges)",
		"cleaned duplicates and zero-area faces",
		"Before: 100 vertices, 200 faces, 6 boundary edges, watertight: false",
		"After:  98 vertices, 204 faces, 0 boundary edges, watertight: true",
		"Status: mesh is now watertight",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("expected report to contain %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "joined nearby components") {
		t.Errorf("expected no join operation in report:\n%s", report)
	}
}

func TestMeshFixReportStatusLines(t *testing.T) {
	opts := extproc.DefaultMeshFixOptions()
	opts.JoinComponents = true

	sealed := fixState{vertices: 8, faces: 12, boundaries: 0, watertight: true}
	open := fixState{vertices: 8, faces: 10, boundaries: 6, watertight: false}

	report := meshFixReport(opts, sealed, sealed)
	if !strings.Contains(report, "mesh was already watertight") {
		t.Errorf("expected already-watertight status:\n%s", report)
	}
	if !strings.Contains(report, "filled holes (all)") {
		t.Errorf("expected unlimited hole filling in report:\n%s", report)
	}
	if !strings.Contains(report, "joined nearby components") {
		t.Errorf("expected join operation in report:\n%s", report)
	}

	report = meshFixReport(opts, open, open)
	if !strings.Contains(report, "mesh still has open boundaries") {
		t.Errorf("expected open-boundaries status:\n%s", report)
	}
}

func TestMeshFixRejectsNegativeHoleLimit(t *testing.T) {
	store := preview.NewCache()
	id := store.Put(geom.Cube(1))
	ml := extproc.NewMeshLab("", time.Second, false)

	node := NewMeshFixNode(store, ml)
	_, err := execute(t, node, MeshFixRequest{Mesh: id, MaxHoleEdges: -1})
	if err == nil || !strings.Contains(err.Error(), "max_hole_edges") {
		t.Errorf("expected max_hole_edges error, got %v", err)
	}
}

func TestMeshFixUnknownMesh(t *testing.T) {
	store := preview.NewCache()
	ml := extproc.NewMeshLab("", time.Second, false)

	node := NewMeshFixNode(store, ml)
	_, err := execute(t, node, MeshFixRequest{Mesh: "000000000000"})
	if err == nil || !strings.Contains(err.Error(), "unknown mesh id") {
		t.Errorf("expected unknown mesh error, got %v", err)
	}
}

func TestMeshFixWithoutEngine(t *testing.T) {
	ml := extproc.NewMeshLab(filepath.Join(t.TempDir(), "nonexistent"), time.Second, false)
	if ml.IsInstalled() {
		t.Skip("meshlabserver is installed on this machine")
	}

	store := preview.NewCache()
	id := store.Put(geom.Cube(1))

	node := NewMeshFixNode(store, ml)
	_, err := execute(t, node, MeshFixRequest{Mesh: id})
	if !errors.Is(err, extproc.ErrEngineNotInstalled) {
		t.Errorf("expected engine-not-installed error, got %v", err)
	}
}
