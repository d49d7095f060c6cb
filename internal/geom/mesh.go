package geom

import (
	"fmt"
	"math"
	"sort"

	"github.com/EliCDavis/vector/vector3"
)

// Mesh is the value type nodes pass around: flat vertex/face arrays plus
// named per-vertex and per-face float fields. It is deliberately not a
// mesh data structure; adjacency is recomputed on demand.
type Mesh struct {
	Vertices     []vector3.Float64
	Faces        [][3]int
	VertexFields map[string][]float64
	FaceFields   map[string][]float64
	Metadata     map[string]interface{}
}

func NewMesh(vertices []vector3.Float64, faces [][3]int) *Mesh {
	return &Mesh{
		Vertices:     vertices,
		Faces:        faces,
		VertexFields: make(map[string][]float64),
		FaceFields:   make(map[string][]float64),
		Metadata:     make(map[string]interface{}),
	}
}

func (m *Mesh) VertexCount() int { return len(m.Vertices) }
func (m *Mesh) FaceCount() int   { return len(m.Faces) }

func (m *Mesh) Clone() *Mesh {
	out := NewMesh(
		append([]vector3.Float64(nil), m.Vertices...),
		append([][3]int(nil), m.Faces...),
	)
	for name, vals := range m.VertexFields {
		out.VertexFields[name] = append([]float64(nil), vals...)
	}
	for name, vals := range m.FaceFields {
		out.FaceFields[name] = append([]float64(nil), vals...)
	}
	for k, v := range m.Metadata {
		out.Metadata[k] = v
	}
	return out
}

func (m *Mesh) SetVertexField(name string, values []float64) error {
	if len(values) != len(m.Vertices) {
		return fmt.Errorf("vertex field %s: %d values for %d vertices", name, len(values), len(m.Vertices))
	}
	if m.VertexFields == nil {
		m.VertexFields = make(map[string][]float64)
	}
	m.VertexFields[name] = values
	return nil
}

func (m *Mesh) SetFaceField(name string, values []float64) error {
	if len(values) != len(m.Faces) {
		return fmt.Errorf("face field %s: %d values for %d faces", name, len(values), len(m.Faces))
	}
	if m.FaceFields == nil {
		m.FaceFields = make(map[string][]float64)
	}
	m.FaceFields[name] = values
	return nil
}

func (m *Mesh) SetMetadata(key string, value interface{}) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
}

// FieldNames lists vertex fields by name and face fields with a "face."
// prefix, sorted, matching what the preview widget expects.
func (m *Mesh) FieldNames() []string {
	names := make([]string, 0, len(m.VertexFields)+len(m.FaceFields))
	for name := range m.VertexFields {
		names = append(names, name)
	}
	for name := range m.FaceFields {
		names = append(names, "face."+name)
	}
	sort.Strings(names)
	return names
}

// Bounds returns the axis-aligned min and max corners. Zero vectors for
// an empty mesh.
func (m *Mesh) Bounds() (vector3.Float64, vector3.Float64) {
	if len(m.Vertices) == 0 {
		return vector3.Zero[float64](), vector3.Zero[float64]()
	}

	minX, minY, minZ := math.Inf(1), math.Inf(1), math.Inf(1)
	maxX, maxY, maxZ := math.Inf(-1), math.Inf(-1), math.Inf(-1)

	for _, v := range m.Vertices {
		minX = math.Min(minX, v.X())
		minY = math.Min(minY, v.Y())
		minZ = math.Min(minZ, v.Z())
		maxX = math.Max(maxX, v.X())
		maxY = math.Max(maxY, v.Y())
		maxZ = math.Max(maxZ, v.Z())
	}

	return vector3.New(minX, minY, minZ), vector3.New(maxX, maxY, maxZ)
}

func (m *Mesh) Extents() vector3.Float64 {
	min, max := m.Bounds()
	return max.Sub(min)
}

func (m *Mesh) MaxExtent() float64 {
	e := m.Extents()
	return math.Max(e.X(), math.Max(e.Y(), e.Z()))
}

func (m *Mesh) BoundsCenter() vector3.Float64 {
	min, max := m.Bounds()
	return min.Add(max).Scale(0.5)
}

func (m *Mesh) BoundsDiagonal() float64 {
	return m.Extents().Length()
}

func (m *Mesh) Translate(offset vector3.Float64) {
	for i, v := range m.Vertices {
		m.Vertices[i] = v.Add(offset)
	}
}

func (m *Mesh) FaceCentroid(fi int) vector3.Float64 {
	f := m.Faces[fi]
	return m.Vertices[f[0]].Add(m.Vertices[f[1]]).Add(m.Vertices[f[2]]).Scale(1.0 / 3.0)
}

// FaceNormal returns the unnormalized face normal (cross product); its
// length is twice the face area.
func (m *Mesh) FaceNormal(fi int) vector3.Float64 {
	f := m.Faces[fi]
	a := m.Vertices[f[0]]
	b := m.Vertices[f[1]]
	c := m.Vertices[f[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

func (m *Mesh) FaceArea(fi int) float64 {
	return m.FaceNormal(fi).Length() * 0.5
}

func (m *Mesh) TotalArea() float64 {
	total := 0.0
	for fi := range m.Faces {
		total += m.FaceArea(fi)
	}
	return total
}

// Volume computes the signed volume via the divergence theorem. Only
// meaningful for closed, consistently oriented meshes.
func (m *Mesh) Volume() float64 {
	volume := 0.0
	for _, f := range m.Faces {
		a := m.Vertices[f[0]]
		b := m.Vertices[f[1]]
		c := m.Vertices[f[2]]
		volume += a.Dot(b.Cross(c)) / 6.0
	}
	return volume
}

// Validate rejects meshes with NaN/Inf coordinates, out-of-range face
// indices, or field arrays of the wrong length.
func (m *Mesh) Validate() error {
	for i, v := range m.Vertices {
		for _, c := range []float64{v.X(), v.Y(), v.Z()} {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("vertex %d has non-finite coordinate", i)
			}
		}
	}
	for i, f := range m.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("face %d references vertex %d of %d", i, vi, len(m.Vertices))
			}
		}
	}
	for name, vals := range m.VertexFields {
		if len(vals) != len(m.Vertices) {
			return fmt.Errorf("vertex field %s has %d values for %d vertices", name, len(vals), len(m.Vertices))
		}
	}
	for name, vals := range m.FaceFields {
		if len(vals) != len(m.Faces) {
			return fmt.Errorf("face field %s has %d values for %d faces", name, len(vals), len(m.Faces))
		}
	}
	return nil
}

// Concat appends the other mesh, remapping its face indices. Fields
// present on only one side are padded with zeros so lengths stay valid.
func (m *Mesh) Concat(other *Mesh) {
	offset := len(m.Vertices)
	prevFaces := len(m.Faces)

	m.Vertices = append(m.Vertices, other.Vertices...)
	for _, f := range other.Faces {
		m.Faces = append(m.Faces, [3]int{f[0] + offset, f[1] + offset, f[2] + offset})
	}

	m.VertexFields = concatFields(m.VertexFields, other.VertexFields, offset, len(other.Vertices), len(m.Vertices))
	m.FaceFields = concatFields(m.FaceFields, other.FaceFields, prevFaces, len(other.Faces), len(m.Faces))
}

func concatFields(left, right map[string][]float64, leftLen, rightLen, totalLen int) map[string][]float64 {
	out := make(map[string][]float64)
	for name, vals := range left {
		merged := make([]float64, totalLen)
		copy(merged, vals)
		if rvals, ok := right[name]; ok {
			copy(merged[leftLen:], rvals)
		}
		out[name] = merged
	}
	for name, rvals := range right {
		if _, ok := out[name]; ok {
			continue
		}
		merged := make([]float64, totalLen)
		copy(merged[leftLen:], rvals[:rightLen])
		out[name] = merged
	}
	return out
}

// Submesh extracts the given faces into a new mesh, dropping unused
// vertices and remapping fields.
func (m *Mesh) Submesh(faceIndices []int) *Mesh {
	vertMap := make(map[int]int)
	var vertices []vector3.Float64
	faces := make([][3]int, 0, len(faceIndices))

	for _, fi := range faceIndices {
		f := m.Faces[fi]
		var nf [3]int
		for k, vi := range f {
			ni, ok := vertMap[vi]
			if !ok {
				ni = len(vertices)
				vertMap[vi] = ni
				vertices = append(vertices, m.Vertices[vi])
			}
			nf[k] = ni
		}
		faces = append(faces, nf)
	}

	out := NewMesh(vertices, faces)

	for name, vals := range m.VertexFields {
		mapped := make([]float64, len(vertices))
		for old, ni := range vertMap {
			mapped[ni] = vals[old]
		}
		out.VertexFields[name] = mapped
	}
	for name, vals := range m.FaceFields {
		mapped := make([]float64, 0, len(faceIndices))
		for _, fi := range faceIndices {
			mapped = append(mapped, vals[fi])
		}
		out.FaceFields[name] = mapped
	}

	return out
}
