package meshio

import (
	"fmt"

	"github.com/EliCDavis/vector/vector3"
	stl "github.com/flywave/go-stl"
	"github.com/flywave/go3d/vec3"

	"github.com/geomnodes/geomnodes/internal/geom"
)

// ReadSTL loads an STL solid and welds the per-triangle vertices back
// into shared indices so adjacency queries work.
func ReadSTL(path string) (*geom.Mesh, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stl: %w", err)
	}

	seen := make(map[vec3.T]int, len(solid.Triangles))
	var vertices []vector3.Float64
	faces := make([][3]int, 0, len(solid.Triangles))

	for _, triangle := range solid.Triangles {
		var face [3]int
		for i, vertex := range triangle.Vertices {
			idx, ok := seen[vertex]
			if !ok {
				idx = len(vertices)
				seen[vertex] = idx
				vertices = append(vertices, vector3.New(
					float64(vertex[0]), float64(vertex[1]), float64(vertex[2]),
				))
			}
			face[i] = idx
		}
		faces = append(faces, face)
	}

	return geom.NewMesh(vertices, faces), nil
}

// WriteSTL writes a binary STL. STL carries no shared topology or
// fields, only loose triangles with normals.
func WriteSTL(path string, m *geom.Mesh) error {
	if m.FaceCount() == 0 {
		return fmt.Errorf("stl cannot represent a mesh with no faces")
	}

	solid := &stl.Solid{
		Name:      "mesh",
		Triangles: make([]stl.Triangle, len(m.Faces)),
	}
	for fi, f := range m.Faces {
		n := m.FaceNormal(fi)
		if l := n.Length(); l > 0 {
			n = n.Scale(1.0 / l)
		}
		solid.Triangles[fi] = stl.Triangle{
			Normal: vec3.T{float32(n.X()), float32(n.Y()), float32(n.Z())},
			Vertices: [3]vec3.T{
				toSTLVec(m.Vertices[f[0]]),
				toSTLVec(m.Vertices[f[1]]),
				toSTLVec(m.Vertices[f[2]]),
			},
		}
	}

	if err := solid.WriteFile(path); err != nil {
		return fmt.Errorf("failed to write stl: %w", err)
	}
	return nil
}

func toSTLVec(v vector3.Float64) vec3.T {
	return vec3.T{float32(v.X()), float32(v.Y()), float32(v.Z())}
}
