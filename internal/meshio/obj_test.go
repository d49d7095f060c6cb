package meshio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/geomnodes/geomnodes/internal/geom"
)

func TestReadOBJ(t *testing.T) {
	content := `# comment
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
f 1/1/1 2/1/1 3/1/1
f 1 3 4
`
	m, err := ReadOBJ(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.VertexCount() != 4 {
		t.Errorf("expected 4 vertices, got %d", m.VertexCount())
	}
	if m.FaceCount() != 2 {
		t.Errorf("expected 2 faces, got %d", m.FaceCount())
	}
	if m.Faces[0] != [3]int{0, 1, 2} {
		t.Errorf("expected face {0,1,2}, got %v", m.Faces[0])
	}
}

func TestReadOBJQuadsAndNegativeIndices(t *testing.T) {
	content := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f -4 -3 -2 -1
`
	m, err := ReadOBJ(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.FaceCount() != 2 {
		t.Fatalf("expected quad fan-triangulated into 2 faces, got %d", m.FaceCount())
	}
	if m.Faces[0] != [3]int{0, 1, 2} {
		t.Errorf("expected face {0,1,2}, got %v", m.Faces[0])
	}
	if m.Faces[1] != [3]int{0, 2, 3} {
		t.Errorf("expected face {0,2,3}, got %v", m.Faces[1])
	}
}

func TestReadOBJErrors(t *testing.T) {
	cases := map[string]string{
		"zero index":       "v 0 0 0\nf 0 1 2\n",
		"out of range":     "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
		"bad coordinate":   "v 0 zero 0\n",
		"short vertex":     "v 1 2\n",
		"short face":       "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"non-numeric face": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf a b c\n",
	}

	for name, content := range cases {
		if _, err := ReadOBJ(content); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestOBJRoundTrip(t *testing.T) {
	m := geom.Cube(2.0)

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := ReadOBJ(buf.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loaded.VertexCount() != m.VertexCount() {
		t.Errorf("expected %d vertices, got %d", m.VertexCount(), loaded.VertexCount())
	}
	if loaded.FaceCount() != m.FaceCount() {
		t.Errorf("expected %d faces, got %d", m.FaceCount(), loaded.FaceCount())
	}

	for i := range m.Vertices {
		if m.Vertices[i] != loaded.Vertices[i] {
			t.Fatalf("vertex %d changed in round trip", i)
		}
	}
}

func TestWriteOBJPointCloud(t *testing.T) {
	m := geom.NewMesh(geom.Cube(1.0).Vertices, nil)

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(buf.String(), "\nf ") {
		t.Error("point cloud export should not contain faces")
	}

	loaded, err := ReadOBJ(buf.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.VertexCount() != 8 {
		t.Errorf("expected 8 vertices, got %d", loaded.VertexCount())
	}
}
