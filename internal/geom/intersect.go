package geom

import (
	"sort"

	"github.com/EliCDavis/vector/vector3"
)

const intersectEps = 1e-12

// RayTriangle reports whether a ray from origin along dir crosses the
// triangle a,b,c, and at what parameter t. Möller-Trumbore.
func RayTriangle(origin, dir, a, b, c vector3.Float64) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if det > -intersectEps && det < intersectEps {
		return 0, false
	}
	inv := 1.0 / det
	s := origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= intersectEps {
		return 0, false
	}
	return t, true
}

// segmentTriangle reports whether the segment p0-p1 crosses the
// triangle strictly between its endpoints.
func segmentTriangle(p0, p1, a, b, c vector3.Float64) bool {
	dir := p1.Sub(p0)
	length := dir.Length()
	if length < intersectEps {
		return false
	}
	t, hit := RayTriangle(p0, dir.Scale(1.0/length), a, b, c)
	return hit && t < length*(1-1e-9)
}

// trianglesIntersect tests two triangles edge-against-face both ways.
// Coplanar overlap without edge crossing is not detected.
func trianglesIntersect(a0, a1, a2, b0, b1, b2 vector3.Float64) bool {
	edges := [3][2]vector3.Float64{{a0, a1}, {a1, a2}, {a2, a0}}
	for _, e := range edges {
		if segmentTriangle(e[0], e[1], b0, b1, b2) {
			return true
		}
	}
	edges = [3][2]vector3.Float64{{b0, b1}, {b1, b2}, {b2, b0}}
	for _, e := range edges {
		if segmentTriangle(e[0], e[1], a0, a1, a2) {
			return true
		}
	}
	return false
}

type faceBox struct {
	index    int
	min, max vector3.Float64
}

func (m *Mesh) faceBoxes() []faceBox {
	boxes := make([]faceBox, len(m.Faces))
	for fi, f := range m.Faces {
		a := m.Vertices[f[0]]
		b := m.Vertices[f[1]]
		c := m.Vertices[f[2]]
		boxes[fi] = faceBox{
			index: fi,
			min:   vector3.New(min3(a.X(), b.X(), c.X()), min3(a.Y(), b.Y(), c.Y()), min3(a.Z(), b.Z(), c.Z())),
			max:   vector3.New(max3(a.X(), b.X(), c.X()), max3(a.Y(), b.Y(), c.Y()), max3(a.Z(), b.Z(), c.Z())),
		}
	}
	return boxes
}

func min3(a, b, c float64) float64 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func max3(a, b, c float64) float64 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func boxesOverlap(a, b faceBox) bool {
	return a.min.X() <= b.max.X() && a.max.X() >= b.min.X() &&
		a.min.Y() <= b.max.Y() && a.max.Y() >= b.min.Y() &&
		a.min.Z() <= b.max.Z() && a.max.Z() >= b.min.Z()
}

func facesShareVertex(a, b [3]int) bool {
	for _, va := range a {
		for _, vb := range b {
			if va == vb {
				return true
			}
		}
	}
	return false
}

// SelfIntersections returns 1.0 for every face that crosses another
// face it does not share a vertex with. Candidate pairs come from a
// sweep over face bounding boxes sorted on X.
func (m *Mesh) SelfIntersections() ([]float64, int) {
	flags := make([]float64, len(m.Faces))
	boxes := m.faceBoxes()
	sort.Slice(boxes, func(i, j int) bool { return boxes[i].min.X() < boxes[j].min.X() })

	count := 0
	for i := 0; i < len(boxes); i++ {
		bi := boxes[i]
		fi := m.Faces[bi.index]
		for j := i + 1; j < len(boxes); j++ {
			bj := boxes[j]
			if bj.min.X() > bi.max.X() {
				break
			}
			if !boxesOverlap(bi, bj) {
				continue
			}
			fj := m.Faces[bj.index]
			if facesShareVertex(fi, fj) {
				continue
			}
			if trianglesIntersect(
				m.Vertices[fi[0]], m.Vertices[fi[1]], m.Vertices[fi[2]],
				m.Vertices[fj[0]], m.Vertices[fj[1]], m.Vertices[fj[2]],
			) {
				if flags[bi.index] == 0 {
					flags[bi.index] = 1.0
					count++
				}
				if flags[bj.index] == 0 {
					flags[bj.index] = 1.0
					count++
				}
			}
		}
	}
	return flags, count
}
