package geom

import (
	"math"
	"sort"
)

// BoundaryInfo summarizes the open edges of a mesh.
type BoundaryInfo struct {
	EdgeCount   int
	VertexCount int
	// FaceFlags is 1.0 for faces touching at least one open edge.
	FaceFlags []float64
	// FaceCounts holds the number of open edges per face (0 to 3).
	FaceCounts []float64
	// VertexFlags is 1.0 for vertices on an open edge.
	VertexFlags []float64
	// VertexIDs lists the vertices on open edges, ascending.
	VertexIDs []int
}

// Boundary scans every edge and flags the faces and vertices adjacent
// to edges used by exactly one face.
func (m *Mesh) Boundary() BoundaryInfo {
	info := BoundaryInfo{
		FaceFlags:   make([]float64, len(m.Faces)),
		FaceCounts:  make([]float64, len(m.Faces)),
		VertexFlags: make([]float64, len(m.Vertices)),
	}
	for e, faces := range m.EdgeFaces() {
		if len(faces) != 1 {
			continue
		}
		info.EdgeCount++
		info.FaceFlags[faces[0]] = 1.0
		info.FaceCounts[faces[0]]++
		for _, v := range []int{e[0], e[1]} {
			if info.VertexFlags[v] == 0 {
				info.VertexFlags[v] = 1.0
				info.VertexCount++
				info.VertexIDs = append(info.VertexIDs, v)
			}
		}
	}
	sort.Ints(info.VertexIDs)
	return info
}

// DegenerateReport lists faces that contribute no usable surface.
type DegenerateReport struct {
	// Flags is 1.0 for degenerate faces.
	Flags []float64
	// Degenerate holds the indices of faces with a repeated vertex or
	// zero area.
	Degenerate []int
	// Smallest holds the indices of the n smallest non-degenerate
	// faces by area, ascending.
	Smallest []int
}

// DegenerateFaces flags faces with repeated vertex indices or area
// below eps, and reports the n smallest healthy faces for inspection.
func (m *Mesh) DegenerateFaces(eps float64, n int) DegenerateReport {
	report := DegenerateReport{
		Flags: make([]float64, len(m.Faces)),
	}

	type faceArea struct {
		index int
		area  float64
	}
	healthy := make([]faceArea, 0, len(m.Faces))

	for fi, f := range m.Faces {
		if f[0] == f[1] || f[1] == f[2] || f[2] == f[0] {
			report.Flags[fi] = 1.0
			report.Degenerate = append(report.Degenerate, fi)
			continue
		}
		area := m.FaceArea(fi)
		if area <= eps || math.IsNaN(area) {
			report.Flags[fi] = 1.0
			report.Degenerate = append(report.Degenerate, fi)
			continue
		}
		healthy = append(healthy, faceArea{fi, area})
	}

	sort.Slice(healthy, func(i, j int) bool { return healthy[i].area < healthy[j].area })
	if n > len(healthy) {
		n = len(healthy)
	}
	for _, fa := range healthy[:n] {
		report.Smallest = append(report.Smallest, fa.index)
	}
	return report
}

// ComponentField returns the per-face component labels as a float
// field alongside the component count.
func (m *Mesh) ComponentField() ([]float64, int) {
	labels, count := m.ConnectedComponents()
	field := make([]float64, len(labels))
	for i, l := range labels {
		field[i] = float64(l)
	}
	return field, count
}

// SplitByComponent returns one submesh per connected component,
// ordered largest first.
func (m *Mesh) SplitByComponent() []*Mesh {
	labels, count := m.ConnectedComponents()
	if count == 0 {
		return nil
	}
	buckets := make([][]int, count)
	for fi, l := range labels {
		buckets[l] = append(buckets[l], fi)
	}
	parts := make([]*Mesh, count)
	for i, faces := range buckets {
		parts[i] = m.Submesh(faces)
	}
	return parts
}

// SplitByFaceField groups faces by the rounded value of a face field
// and returns one submesh per distinct value, ascending.
func (m *Mesh) SplitByFaceField(field []float64) []*Mesh {
	if len(field) != len(m.Faces) {
		return nil
	}
	buckets := make(map[int][]int)
	for fi, v := range field {
		key := int(math.Round(v))
		buckets[key] = append(buckets[key], fi)
	}
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	parts := make([]*Mesh, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, m.Submesh(buckets[k]))
	}
	return parts
}

// VertexFieldFromFaces spreads a face field onto vertices. Each vertex
// takes the maximum value over its incident faces, which keeps binary
// flags binary.
func (m *Mesh) VertexFieldFromFaces(faceField []float64) []float64 {
	out := make([]float64, len(m.Vertices))
	for fi, f := range m.Faces {
		v := faceField[fi]
		for _, vi := range f {
			if v > out[vi] {
				out[vi] = v
			}
		}
	}
	return out
}
