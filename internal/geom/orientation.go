package geom

import (
	"math"

	"github.com/EliCDavis/vector/vector3"
)

// FlipFaces reverses the winding of the listed faces, or of every face
// when faces is nil.
func (m *Mesh) FlipFaces(faces []int) {
	if faces == nil {
		for fi := range m.Faces {
			m.Faces[fi][1], m.Faces[fi][2] = m.Faces[fi][2], m.Faces[fi][1]
		}
		return
	}
	for _, fi := range faces {
		m.Faces[fi][1], m.Faces[fi][2] = m.Faces[fi][2], m.Faces[fi][1]
	}
}

func faceTraverses(f [3]int, a, b int) bool {
	return (f[0] == a && f[1] == b) || (f[1] == a && f[2] == b) || (f[2] == a && f[0] == b)
}

// OrientConsistently propagates winding across each connected
// component by BFS from the component's largest face, flipping faces
// whose shared edges run in the same direction as their neighbor's.
// Returns the number of faces flipped.
func (m *Mesh) OrientConsistently() int {
	if len(m.Faces) == 0 {
		return 0
	}

	labels, count := m.ConnectedComponents()
	seedFace := make([]int, count)
	seedArea := make([]float64, count)
	for i := range seedFace {
		seedFace[i] = -1
	}
	for fi := range m.Faces {
		l := labels[fi]
		area := m.FaceArea(fi)
		if seedFace[l] == -1 || area > seedArea[l] {
			seedFace[l] = fi
			seedArea[l] = area
		}
	}

	edgeFaces := m.EdgeFaces()
	flipped := make([]bool, len(m.Faces))
	visited := make([]bool, len(m.Faces))

	var queue []int
	for _, seed := range seedFace {
		queue = append(queue[:0], seed)
		visited[seed] = true
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			for _, e := range m.faceEdges(fi) {
				curAB := faceTraverses(m.Faces[fi], e[0], e[1]) != flipped[fi]
				for _, nb := range edgeFaces[e] {
					if nb == fi || visited[nb] {
						continue
					}
					// consistent neighbors traverse a shared edge in
					// opposite directions
					flipped[nb] = faceTraverses(m.Faces[nb], e[0], e[1]) == curAB
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
	}

	flips := 0
	for fi, f := range flipped {
		if f {
			m.Faces[fi][1], m.Faces[fi][2] = m.Faces[fi][2], m.Faces[fi][1]
			flips++
		}
	}
	return flips
}

// WindingNumber computes the generalized winding number of the surface
// around p: the summed solid angle of every face over 4π. Points well
// inside a closed outward-oriented surface approach 1, points outside
// approach 0.
func (m *Mesh) WindingNumber(p vector3.Float64) float64 {
	return m.windingAround(p, -1)
}

// windingAround is WindingNumber with one face excluded from the sum.
func (m *Mesh) windingAround(p vector3.Float64, skip int) float64 {
	sum := 0.0
	for fi, f := range m.Faces {
		if fi == skip {
			continue
		}
		a := m.Vertices[f[0]].Sub(p)
		b := m.Vertices[f[1]].Sub(p)
		c := m.Vertices[f[2]].Sub(p)
		la := a.Length()
		lb := b.Length()
		lc := c.Length()
		num := a.Dot(b.Cross(c))
		den := la*lb*lc + a.Dot(b)*lc + b.Dot(c)*la + c.Dot(a)*lb
		sum += 2 * math.Atan2(num, den)
	}
	return sum / (4 * math.Pi)
}

// FixNormalsWinding flips each face whose solid side sits in front of
// it: the winding number of the rest of the surface is sampled just
// behind and just in front of the face centroid, and a larger value in
// front means the normal points into the body. The face's own solid
// angle is left out of both samples; it tends to ±2π at the centroid
// and carries no information about which side the body is on. Returns
// the number of faces flipped.
func (m *Mesh) FixNormalsWinding() int {
	eps := m.BoundsDiagonal() * 1e-4
	if eps == 0 {
		return 0
	}

	var toFlip []int
	for fi := range m.Faces {
		n := m.FaceNormal(fi)
		if n.Length() < intersectEps {
			continue
		}
		step := n.Normalized().Scale(eps)
		centroid := m.FaceCentroid(fi)
		behind := m.windingAround(centroid.Sub(step), fi)
		front := m.windingAround(centroid.Add(step), fi)
		if front > behind {
			toFlip = append(toFlip, fi)
		}
	}
	m.FlipFaces(toFlip)
	return len(toFlip)
}

// FixNormalsRaycast flips each face whose normal ray re-enters the
// surface an odd number of times, meaning the front side faces the
// interior. Returns the number of faces flipped.
func (m *Mesh) FixNormalsRaycast() int {
	eps := m.BoundsDiagonal() * 1e-4
	if eps == 0 {
		return 0
	}
	boxes := m.faceBoxes()

	var toFlip []int
	for fi := range m.Faces {
		n := m.FaceNormal(fi)
		if n.Length() < intersectEps {
			continue
		}
		dir := n.Normalized()
		origin := m.FaceCentroid(fi).Add(dir.Scale(eps))
		if m.countRayHits(origin, dir, fi, boxes)%2 == 1 {
			toFlip = append(toFlip, fi)
		}
	}
	m.FlipFaces(toFlip)
	return len(toFlip)
}

func (m *Mesh) countRayHits(origin, dir vector3.Float64, skip int, boxes []faceBox) int {
	invDir := vector3.New(1.0/dir.X(), 1.0/dir.Y(), 1.0/dir.Z())
	hits := 0
	for _, box := range boxes {
		if box.index == skip || !rayHitsBox(origin, invDir, box) {
			continue
		}
		f := m.Faces[box.index]
		if _, ok := RayTriangle(origin, dir, m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]); ok {
			hits++
		}
	}
	return hits
}

// rayHitsBox is the slab test. Divisions by zero direction components
// produce infinities that compare correctly.
func rayHitsBox(origin, invDir vector3.Float64, box faceBox) bool {
	t1 := (box.min.X() - origin.X()) * invDir.X()
	t2 := (box.max.X() - origin.X()) * invDir.X()
	tmin := math.Min(t1, t2)
	tmax := math.Max(t1, t2)

	t1 = (box.min.Y() - origin.Y()) * invDir.Y()
	t2 = (box.max.Y() - origin.Y()) * invDir.Y()
	tmin = math.Max(tmin, math.Min(t1, t2))
	tmax = math.Min(tmax, math.Max(t1, t2))

	t1 = (box.min.Z() - origin.Z()) * invDir.Z()
	t2 = (box.max.Z() - origin.Z()) * invDir.Z()
	tmin = math.Max(tmin, math.Min(t1, t2))
	tmax = math.Min(tmax, math.Max(t1, t2))

	return tmax >= tmin && tmax >= 0
}
