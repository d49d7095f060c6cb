package meshio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geomnodes/geomnodes/internal/geom"
)

func TestSTLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.stl")
	m := geom.Cube(2.0)

	if err := WriteSTL(path, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := ReadSTL(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// welding restores the shared vertices
	if loaded.VertexCount() != 8 {
		t.Errorf("expected 8 vertices after welding, got %d", loaded.VertexCount())
	}
	if loaded.FaceCount() != 12 {
		t.Errorf("expected 12 faces, got %d", loaded.FaceCount())
	}
	if !loaded.IsWatertight() {
		t.Error("expected welded cube to be watertight")
	}
}

func TestWriteSTLRejectsPointCloud(t *testing.T) {
	m := geom.NewMesh(geom.Cube(1.0).Vertices, nil)
	if err := WriteSTL(filepath.Join(t.TempDir(), "points.stl"), m); err == nil {
		t.Error("expected error for mesh without faces")
	}
}

func TestPLYRoundTrip(t *testing.T) {
	m := geom.Cube(2.0)

	var buf bytes.Buffer
	if err := WritePLY(&buf, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := ReadPLY(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loaded.VertexCount() != m.VertexCount() {
		t.Errorf("expected %d vertices, got %d", m.VertexCount(), loaded.VertexCount())
	}
	if loaded.FaceCount() != m.FaceCount() {
		t.Errorf("expected %d faces, got %d", m.FaceCount(), loaded.FaceCount())
	}
}

func TestPLYPointCloudRoundTrip(t *testing.T) {
	m := geom.NewMesh(geom.Icosphere(1.0, 1).Vertices, nil)

	var buf bytes.Buffer
	if err := WritePLY(&buf, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := ReadPLY(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loaded.VertexCount() != m.VertexCount() {
		t.Errorf("expected %d vertices, got %d", m.VertexCount(), loaded.VertexCount())
	}
	if loaded.FaceCount() != 0 {
		t.Errorf("expected no faces, got %d", loaded.FaceCount())
	}
}

func TestGLBRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.glb")
	m := geom.Icosphere(2.0, 1)

	if err := WriteGLB(path, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := ReadGLB(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loaded.VertexCount() != m.VertexCount() {
		t.Errorf("expected %d vertices, got %d", m.VertexCount(), loaded.VertexCount())
	}
	if loaded.FaceCount() != m.FaceCount() {
		t.Errorf("expected %d faces, got %d", m.FaceCount(), loaded.FaceCount())
	}
}

func TestWriteGLBRejectsPointCloud(t *testing.T) {
	m := geom.NewMesh(geom.Cube(1.0).Vertices, nil)
	if err := WriteGLB(filepath.Join(t.TempDir(), "points.glb"), m); err == nil {
		t.Error("expected error for mesh without faces")
	}
}

func TestWriteGLBParts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dual.glb")
	a := geom.Cube(1.0)
	b := geom.Icosphere(1.0, 1)

	err := WriteGLBParts(path, []GLBPart{
		{Name: "reference", Mesh: a, RGBA: [4]float32{0, 0, 1, 1}},
		{Name: "overlay", Mesh: b, RGBA: [4]float32{1, 0, 0, 0.5}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := ReadGLB(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.VertexCount() != a.VertexCount()+b.VertexCount() {
		t.Errorf("expected %d vertices, got %d", a.VertexCount()+b.VertexCount(), loaded.VertexCount())
	}
}

func TestWriteVTP(t *testing.T) {
	m := geom.Cube(1.0)
	m.SetFaceField("part_id", make([]float64, 12))
	m.SetVertexField("distance", make([]float64, 8))

	var buf bytes.Buffer
	if err := WriteVTP(&buf, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`NumberOfPoints="8"`,
		`NumberOfPolys="12"`,
		`Name="part_id"`,
		`Name="distance"`,
		`Name="connectivity"`,
		`Name="offsets"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %s", want)
		}
	}
}

func TestLoadSaveDispatch(t *testing.T) {
	dir := t.TempDir()
	m := geom.Cube(1.0)

	for _, ext := range []string{".obj", ".stl", ".ply", ".glb"} {
		path := filepath.Join(dir, "mesh"+ext)
		if err := Save(path, m); err != nil {
			t.Fatalf("%s: unexpected save error: %v", ext, err)
		}
		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("%s: unexpected load error: %v", ext, err)
		}
		if loaded.FaceCount() != 12 {
			t.Errorf("%s: expected 12 faces, got %d", ext, loaded.FaceCount())
		}
	}

	if err := Save(filepath.Join(dir, "mesh.xyz"), m); err == nil {
		t.Error("expected error for unsupported save format")
	}
	if _, err := Load(filepath.Join(dir, "mesh.xyz")); err == nil {
		t.Error("expected error for unsupported load format")
	}
	if _, err := Load(filepath.Join(dir, "missing.obj")); err == nil {
		t.Error("expected error for missing file")
	}

	if !CanLoad("model.OBJ") {
		t.Error("expected extension match to be case-insensitive")
	}
	if CanLoad("model.vtp") {
		t.Error("vtp is export-only")
	}
}
