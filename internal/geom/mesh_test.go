package geom

import (
	"math"
	"testing"

	"github.com/EliCDavis/vector/vector3"
)

func TestMeshBounds(t *testing.T) {
	m := Cube(2.0)
	m.Translate(vector3.New(1.0, 2.0, 3.0))

	center := m.BoundsCenter()
	if math.Abs(center.X()-1.0) > 1e-9 || math.Abs(center.Y()-2.0) > 1e-9 || math.Abs(center.Z()-3.0) > 1e-9 {
		t.Errorf("expected center (1,2,3), got (%f,%f,%f)", center.X(), center.Y(), center.Z())
	}

	extents := m.Extents()
	if math.Abs(extents.X()-2.0) > 1e-9 {
		t.Errorf("expected extent 2.0, got %f", extents.X())
	}

	if math.Abs(m.MaxExtent()-2.0) > 1e-9 {
		t.Errorf("expected max extent 2.0, got %f", m.MaxExtent())
	}

	diagonal := m.BoundsDiagonal()
	if math.Abs(diagonal-2.0*math.Sqrt(3)) > 1e-9 {
		t.Errorf("expected diagonal %f, got %f", 2.0*math.Sqrt(3), diagonal)
	}
}

func TestMeshFields(t *testing.T) {
	m := Cube(1.0)

	if err := m.SetVertexField("quality", make([]float64, 8)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.SetFaceField("part_id", make([]float64, 12)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.SetVertexField("bad", make([]float64, 3)); err == nil {
		t.Error("expected error for wrong vertex field length")
	}

	if err := m.SetFaceField("bad", make([]float64, 3)); err == nil {
		t.Error("expected error for wrong face field length")
	}

	names := m.FieldNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 field names, got %d", len(names))
	}
	if names[0] != "face.part_id" {
		t.Errorf("expected 'face.part_id', got '%s'", names[0])
	}
	if names[1] != "quality" {
		t.Errorf("expected 'quality', got '%s'", names[1])
	}
}

func TestMeshClone(t *testing.T) {
	m := Cube(1.0)
	m.SetVertexField("quality", make([]float64, 8))
	m.SetMetadata("source", "test")

	c := m.Clone()
	c.Vertices[0] = vector3.New(99.0, 99.0, 99.0)
	c.VertexFields["quality"][0] = 5.0
	c.SetMetadata("source", "clone")

	if m.Vertices[0].X() == 99.0 {
		t.Error("clone should not share vertex storage")
	}
	if m.VertexFields["quality"][0] == 5.0 {
		t.Error("clone should not share field storage")
	}
	if m.Metadata["source"] != "test" {
		t.Error("clone should not share metadata")
	}
}

func TestMeshConcat(t *testing.T) {
	a := Cube(1.0)
	a.SetVertexField("quality", onesField(8))

	b := Cube(1.0)
	b.Translate(vector3.New(5.0, 0.0, 0.0))

	a.Concat(b)

	if a.VertexCount() != 16 {
		t.Errorf("expected 16 vertices, got %d", a.VertexCount())
	}
	if a.FaceCount() != 24 {
		t.Errorf("expected 24 faces, got %d", a.FaceCount())
	}

	for _, f := range a.Faces[12:] {
		for _, vi := range f {
			if vi < 8 {
				t.Fatalf("appended faces should reference remapped vertices, got index %d", vi)
			}
		}
	}

	quality := a.VertexFields["quality"]
	if len(quality) != 16 {
		t.Fatalf("expected field padded to 16, got %d", len(quality))
	}
	if quality[0] != 1.0 || quality[8] != 0.0 {
		t.Errorf("expected left side kept and right side zero padded, got %f and %f", quality[0], quality[8])
	}

	if err := a.Validate(); err != nil {
		t.Errorf("concat result failed validation: %v", err)
	}
}

func TestMeshSubmesh(t *testing.T) {
	m := Cube(1.0)
	field := make([]float64, 12)
	field[0] = 7.0
	m.SetFaceField("marker", field)

	sub := m.Submesh([]int{0, 1})

	if sub.FaceCount() != 2 {
		t.Errorf("expected 2 faces, got %d", sub.FaceCount())
	}
	if sub.VertexCount() != 4 {
		t.Errorf("expected 4 vertices after dropping unused, got %d", sub.VertexCount())
	}
	if sub.FaceFields["marker"][0] != 7.0 {
		t.Errorf("expected face field carried over, got %f", sub.FaceFields["marker"][0])
	}
	if err := sub.Validate(); err != nil {
		t.Errorf("submesh failed validation: %v", err)
	}
}

func TestMeshValidate(t *testing.T) {
	m := Cube(1.0)
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := Cube(1.0)
	bad.Vertices[0] = vector3.New(math.NaN(), 0.0, 0.0)
	if err := bad.Validate(); err == nil {
		t.Error("expected error for NaN vertex")
	}

	bad = Cube(1.0)
	bad.Faces[0][0] = 99
	if err := bad.Validate(); err == nil {
		t.Error("expected error for out-of-range face index")
	}

	bad = Cube(1.0)
	bad.VertexFields["short"] = make([]float64, 2)
	if err := bad.Validate(); err == nil {
		t.Error("expected error for wrong field length")
	}
}

func TestMeshVolumeAndArea(t *testing.T) {
	m := Cube(3.0)

	if math.Abs(m.Volume()-27.0) > 1e-9 {
		t.Errorf("expected volume 27.0, got %f", m.Volume())
	}

	if math.Abs(m.TotalArea()-54.0) > 1e-9 {
		t.Errorf("expected area 54.0, got %f", m.TotalArea())
	}
}

func onesField(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 1.0
	}
	return values
}
