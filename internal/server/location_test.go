package server

import (
	"math"
	"testing"

	"github.com/EliCDavis/vector/vector3"

	"github.com/geomnodes/geomnodes/internal/geom"
)

func TestParseElementQuery(t *testing.T) {
	cases := []struct {
		query string
		kind  string
		index int
		ok    bool
	}{
		{"face 12", "face", 12, true},
		{"f12", "face", 12, true},
		{"f 12", "face", 12, true},
		{"F12", "face", 12, true},
		{"vertex 7", "vertex", 7, true},
		{"v7", "vertex", 7, true},
		{"v 7", "vertex", 7, true},
		{"Vertex 0", "vertex", 0, true},
		{"face", "", 0, false},
		{"f", "", 0, false},
		{"fx", "", 0, false},
		{"edge 3", "", 0, false},
		{"face 1 2", "", 0, false},
		{"", "", 0, false},
	}

	for _, c := range cases {
		kind, index, ok := parseElementQuery(c.query)
		if ok != c.ok {
			t.Errorf("parseElementQuery(%q): expected ok=%v, got %v", c.query, c.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if kind != c.kind || index != c.index {
			t.Errorf("parseElementQuery(%q): expected %s %d, got %s %d", c.query, c.kind, c.index, kind, index)
		}
	}
}

func TestParseCoordinateQuery(t *testing.T) {
	p, ok := parseCoordinateQuery("1.5, -2, 3")
	if !ok {
		t.Fatal("expected coordinate query to parse")
	}
	if p.X() != 1.5 || p.Y() != -2 || p.Z() != 3 {
		t.Errorf("expected (1.5, -2, 3), got (%f, %f, %f)", p.X(), p.Y(), p.Z())
	}

	for _, bad := range []string{"1,2", "1,2,3,4", "a,b,c", "face 1"} {
		if _, ok := parseCoordinateQuery(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestResolveLocationFace(t *testing.T) {
	m := geom.Cube(2.0)

	loc, err := ResolveLocation(m, "face 0")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if loc.Kind != "face" || loc.Index != 0 {
		t.Errorf("expected face 0, got %s %d", loc.Kind, loc.Index)
	}

	want := m.FaceCentroid(0)
	if loc.Position.Sub(want).Length() > 1e-12 {
		t.Errorf("expected centroid %v, got %v", want, loc.Position)
	}
}

func TestResolveLocationVertex(t *testing.T) {
	m := geom.Cube(2.0)

	loc, err := ResolveLocation(m, "v3")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if loc.Kind != "vertex" || loc.Index != 3 {
		t.Errorf("expected vertex 3, got %s %d", loc.Kind, loc.Index)
	}
	if loc.Position.Sub(m.Vertices[3]).Length() > 1e-12 {
		t.Errorf("expected vertex position %v, got %v", m.Vertices[3], loc.Position)
	}
}

func TestResolveLocationCoordinateSnapsToSurface(t *testing.T) {
	m := geom.Cube(2.0)

	// A point 3 units above the cube should snap onto the top face.
	loc, err := ResolveLocation(m, "0, 0, 4")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if loc.Kind != "point" {
		t.Errorf("expected kind point, got %s", loc.Kind)
	}
	want := vector3.New(0.0, 0.0, 1.0)
	if loc.Position.Sub(want).Length() > 1e-9 {
		t.Errorf("expected snap to %v, got %v", want, loc.Position)
	}
}

func TestResolveLocationOutOfRange(t *testing.T) {
	m := geom.Cube(1.0)

	if _, err := ResolveLocation(m, "face 100"); err == nil {
		t.Error("expected out-of-range face to error")
	}
	if _, err := ResolveLocation(m, "vertex 8"); err == nil {
		t.Error("expected out-of-range vertex to error")
	}
	if _, err := ResolveLocation(m, "nonsense"); err == nil {
		t.Error("expected unparseable query to error")
	}
	if _, err := ResolveLocation(m, ""); err == nil {
		t.Error("expected empty query to error")
	}
}

func TestCameraDistanceFloor(t *testing.T) {
	tiny := geom.Cube(0.001)
	if d := cameraDistance(tiny); math.Abs(d-0.1) > 1e-12 {
		t.Errorf("expected floor distance 0.1 for tiny mesh, got %f", d)
	}

	big := geom.Cube(100.0)
	if d := cameraDistance(big); d <= 0.1 {
		t.Errorf("expected scaled distance for big mesh, got %f", d)
	}
}
