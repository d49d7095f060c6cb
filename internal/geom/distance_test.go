package geom

import (
	"math"
	"testing"

	"github.com/EliCDavis/vector/vector3"
)

func TestClosestPointOnTriangle(t *testing.T) {
	a := vector3.New(0.0, 0.0, 0.0)
	b := vector3.New(2.0, 0.0, 0.0)
	c := vector3.New(0.0, 2.0, 0.0)

	// interior projection
	p := ClosestPointOnTriangle(vector3.New(0.5, 0.5, 3.0), a, b, c)
	if p.Sub(vector3.New(0.5, 0.5, 0.0)).Length() > 1e-9 {
		t.Errorf("expected projection (0.5,0.5,0), got (%f,%f,%f)", p.X(), p.Y(), p.Z())
	}

	// clamped to corner
	p = ClosestPointOnTriangle(vector3.New(-1.0, -1.0, 0.0), a, b, c)
	if p.Sub(a).Length() > 1e-9 {
		t.Errorf("expected corner a, got (%f,%f,%f)", p.X(), p.Y(), p.Z())
	}

	// clamped to edge ab
	p = ClosestPointOnTriangle(vector3.New(1.0, -1.0, 0.0), a, b, c)
	if p.Sub(vector3.New(1.0, 0.0, 0.0)).Length() > 1e-9 {
		t.Errorf("expected edge point (1,0,0), got (%f,%f,%f)", p.X(), p.Y(), p.Z())
	}
}

func TestNearestOnSurface(t *testing.T) {
	m := Plane(2.0, 1)

	points := []vector3.Float64{
		vector3.New(0.0, 0.0, 5.0),
		vector3.New(0.25, 0.25, -0.5),
		vector3.New(3.0, 0.0, 0.0),
	}

	_, distances := m.NearestOnSurface(points)

	if math.Abs(distances[0]-5.0) > 1e-9 {
		t.Errorf("expected distance 5.0 above the plane, got %f", distances[0])
	}
	if math.Abs(distances[1]-0.5) > 1e-9 {
		t.Errorf("expected distance 0.5 below the plane, got %f", distances[1])
	}
	if math.Abs(distances[2]-2.0) > 1e-9 {
		t.Errorf("expected distance 2.0 beyond the edge, got %f", distances[2])
	}
}

func TestNearestOnSurfaceIdenticalMesh(t *testing.T) {
	m := Icosphere(2.0, 1)

	_, distances := m.NearestOnSurface(m.Vertices)
	for i, d := range distances {
		if d > 1e-9 {
			t.Errorf("vertex %d of an identical mesh should have distance 0, got %f", i, d)
		}
	}
}

func TestComputeDistanceStats(t *testing.T) {
	stats := ComputeDistanceStats([]float64{0.0, 1.0, 2.0, 3.0, 4.0})

	if stats.Min != 0.0 {
		t.Errorf("expected min 0.0, got %f", stats.Min)
	}
	if stats.Max != 4.0 {
		t.Errorf("expected max 4.0, got %f", stats.Max)
	}
	if stats.Mean != 2.0 {
		t.Errorf("expected mean 2.0, got %f", stats.Mean)
	}
	if stats.Median != 2.0 {
		t.Errorf("expected median 2.0, got %f", stats.Median)
	}
	if math.Abs(stats.Std-math.Sqrt(2.0)) > 1e-9 {
		t.Errorf("expected std %f, got %f", math.Sqrt(2.0), stats.Std)
	}
	if stats.P25 != 1.0 {
		t.Errorf("expected p25 1.0, got %f", stats.P25)
	}
	if math.Abs(stats.P95-3.8) > 1e-9 {
		t.Errorf("expected p95 3.8, got %f", stats.P95)
	}
	if stats.Under01 != 1 || stats.Under05 != 1 || stats.Under10 != 1 {
		t.Errorf("expected threshold counts 1/1/1, got %d/%d/%d", stats.Under01, stats.Under05, stats.Under10)
	}
}

func TestComputeDistanceStatsEmpty(t *testing.T) {
	stats := ComputeDistanceStats(nil)
	if stats.Min != 0 || stats.Max != 0 || stats.Mean != 0 {
		t.Error("expected zero stats for empty input")
	}
}
