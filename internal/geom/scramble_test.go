package geom

import (
	"math"
	"testing"
)

// quadrantField labels each face of a plane grid by coarse quadrant so
// neighboring faces often belong to different segments.
func quadrantField(m *Mesh) []float64 {
	field := make([]float64, len(m.Faces))
	for fi := range m.Faces {
		c := m.FaceCentroid(fi)
		seg := 0.0
		if c.X() > 0 {
			seg += 1.0
		}
		if c.Y() > 0 {
			seg += 2.0
		}
		field[fi] = seg
	}
	return field
}

func TestScrambleField(t *testing.T) {
	m := Plane(2.0, 3)
	field := quadrantField(m)

	out, err := m.ScrambleField(field, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != m.FaceCount() {
		t.Fatalf("expected %d values, got %d", m.FaceCount(), len(out))
	}

	// faces in the same segment share a value
	bySegment := make(map[int]float64)
	for fi, seg := range field {
		key := int(seg)
		if prev, ok := bySegment[key]; ok {
			if prev != out[fi] {
				t.Fatalf("segment %d mapped to both %f and %f", key, prev, out[fi])
			}
		} else {
			bySegment[key] = out[fi]
		}
	}

	// adjacent faces in different segments get different values
	for e, faces := range m.EdgeFaces() {
		if len(faces) != 2 {
			continue
		}
		a, b := faces[0], faces[1]
		if field[a] != field[b] && out[a] == out[b] {
			t.Errorf("edge %v: segments %f and %f share scrambled value %f", e, field[a], field[b], out[a])
		}
	}
}

func TestScrambleFieldDeterministic(t *testing.T) {
	m := Plane(2.0, 3)
	field := quadrantField(m)

	a, err := m.ScrambleField(field, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := m.ScrambleField(field, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("expected identical output for identical seeds")
		}
	}
}

func TestScrambleFieldErrors(t *testing.T) {
	m := Cube(1.0)

	if _, err := m.ScrambleField(make([]float64, 3), 0); err == nil {
		t.Error("expected error for wrong field length")
	}

	bad := make([]float64, 12)
	bad[4] = math.NaN()
	if _, err := m.ScrambleField(bad, 0); err == nil {
		t.Error("expected error for NaN in field")
	}
}
