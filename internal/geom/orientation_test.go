package geom

import (
	"math"
	"math/rand"
	"testing"

	"github.com/EliCDavis/vector/vector3"
)

func TestRayTriangle(t *testing.T) {
	a := vector3.New(0.0, 0.0, 0.0)
	b := vector3.New(1.0, 0.0, 0.0)
	c := vector3.New(0.0, 1.0, 0.0)

	origin := vector3.New(0.25, 0.25, -1.0)
	dir := vector3.New(0.0, 0.0, 1.0)

	dist, hit := RayTriangle(origin, dir, a, b, c)
	if !hit {
		t.Fatal("expected hit")
	}
	if math.Abs(dist-1.0) > 1e-9 {
		t.Errorf("expected distance 1.0, got %f", dist)
	}

	miss := vector3.New(2.0, 2.0, -1.0)
	if _, hit := RayTriangle(miss, dir, a, b, c); hit {
		t.Error("expected miss outside the triangle")
	}

	away := vector3.New(0.0, 0.0, -1.0)
	if _, hit := RayTriangle(origin, away, a, b, c); hit {
		t.Error("expected miss when pointing away")
	}
}

func TestFlipFaces(t *testing.T) {
	m := Cube(1.0)
	original := m.Volume()

	m.FlipFaces(nil)
	if math.Abs(m.Volume()+original) > 1e-9 {
		t.Errorf("expected volume %f after full flip, got %f", -original, m.Volume())
	}

	m.FlipFaces(nil)
	if math.Abs(m.Volume()-original) > 1e-9 {
		t.Errorf("expected volume restored to %f, got %f", original, m.Volume())
	}
}

// orientationConsistent reports whether every interior edge is
// traversed in opposite directions by its two faces.
func orientationConsistent(m *Mesh) bool {
	for e, faces := range m.EdgeFaces() {
		if len(faces) != 2 {
			continue
		}
		a := faceTraverses(m.Faces[faces[0]], e[0], e[1])
		b := faceTraverses(m.Faces[faces[1]], e[0], e[1])
		if a == b {
			return false
		}
	}
	return true
}

func TestOrientConsistently(t *testing.T) {
	m := Icosphere(2.0, 2)
	expected := m.Volume()

	rng := rand.New(rand.NewSource(7))
	var flipped []int
	for fi := range m.Faces {
		if rng.Float64() < 0.4 {
			flipped = append(flipped, fi)
		}
	}
	m.FlipFaces(flipped)

	if orientationConsistent(m) {
		t.Fatal("random flips should break consistency")
	}

	flips := m.OrientConsistently()
	if flips == 0 {
		t.Error("expected some faces to be flipped back")
	}
	if !orientationConsistent(m) {
		t.Error("expected consistent orientation after repair")
	}
	if math.Abs(math.Abs(m.Volume())-math.Abs(expected)) > 1e-9 {
		t.Errorf("expected |volume| %f after repair, got %f", math.Abs(expected), math.Abs(m.Volume()))
	}
}

func TestWindingNumber(t *testing.T) {
	m := Cube(2.0)

	inside := m.WindingNumber(vector3.New(0.0, 0.0, 0.0))
	if math.Abs(inside-1.0) > 1e-6 {
		t.Errorf("expected winding 1.0 inside, got %f", inside)
	}

	outside := m.WindingNumber(vector3.New(5.0, 0.0, 0.0))
	if math.Abs(outside) > 1e-6 {
		t.Errorf("expected winding 0.0 outside, got %f", outside)
	}
}

func TestFixNormalsWinding(t *testing.T) {
	m := Cube(2.0)
	m.FlipFaces(nil)

	flips := m.FixNormalsWinding()
	if flips != 12 {
		t.Errorf("expected 12 flips on an inverted cube, got %d", flips)
	}
	if m.Volume() <= 0 {
		t.Errorf("expected positive volume after repair, got %f", m.Volume())
	}

	if flips := m.FixNormalsWinding(); flips != 0 {
		t.Errorf("expected no flips on a healthy cube, got %d", flips)
	}
}

func TestFixNormalsWindingPartialFlips(t *testing.T) {
	m := Cube(2.0)
	m.FlipFaces([]int{2, 5, 9})

	flips := m.FixNormalsWinding()
	if flips != 3 {
		t.Errorf("expected the 3 inverted faces flipped, got %d", flips)
	}
	if math.Abs(m.Volume()-8.0) > 1e-9 {
		t.Errorf("expected volume 8 after repair, got %f", m.Volume())
	}
}

func TestFixNormalsRaycast(t *testing.T) {
	m := Icosphere(2.0, 1)
	m.FlipFaces([]int{0, 5, 9})

	flips := m.FixNormalsRaycast()
	if flips != 3 {
		t.Errorf("expected the 3 inverted faces flipped, got %d", flips)
	}
	if !orientationConsistent(m) {
		t.Error("expected consistent orientation after repair")
	}
}
