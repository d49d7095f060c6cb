package meshio

import (
	"fmt"

	"github.com/EliCDavis/vector/vector3"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/geomnodes/geomnodes/internal/geom"
)

// GLBPart is one mesh in a GLB export with its display material.
type GLBPart struct {
	Name string
	Mesh *geom.Mesh
	RGBA [4]float32
}

var defaultGLBColor = [4]float32{0.8, 0.8, 0.8, 1.0}

// WriteGLB exports a single mesh with a neutral material.
func WriteGLB(path string, m *geom.Mesh) error {
	return WriteGLBParts(path, []GLBPart{{Name: "mesh", Mesh: m, RGBA: defaultGLBColor}})
}

// WriteGLBParts exports one node per part, each with its own material.
// Parts with alpha below one get alpha blending.
func WriteGLBParts(path string, parts []GLBPart) error {
	if len(parts) == 0 {
		return fmt.Errorf("nothing to export")
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "geomnodes"

	for pi, part := range parts {
		m := part.Mesh
		if m.FaceCount() == 0 {
			return fmt.Errorf("glb export needs faces, part %d has none", pi)
		}

		positions := make([][3]float32, m.VertexCount())
		for i, v := range m.Vertices {
			positions[i] = [3]float32{float32(v.X()), float32(v.Y()), float32(v.Z())}
		}
		normals := vertexNormals32(m)

		indices := make([]uint32, 0, m.FaceCount()*3)
		for _, f := range m.Faces {
			indices = append(indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
		}

		posAccessor := modeler.WritePosition(doc, positions)
		normalAccessor := modeler.WriteNormal(doc, normals)
		indicesAccessor := modeler.WriteIndices(doc, indices)

		pbr := &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{part.RGBA[0], part.RGBA[1], part.RGBA[2], part.RGBA[3]},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		}
		material := &gltf.Material{Name: part.Name, PBRMetallicRoughness: pbr}
		if part.RGBA[3] < 1.0 {
			material.AlphaMode = gltf.AlphaBlend
		} else {
			material.AlphaMode = gltf.AlphaOpaque
		}
		doc.Materials = append(doc.Materials, material)

		prim := &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION: uint32(posAccessor),
				gltf.NORMAL:   uint32(normalAccessor),
			},
			Indices:  gltf.Index(uint32(indicesAccessor)),
			Material: gltf.Index(uint32(len(doc.Materials) - 1)),
		}

		name := part.Name
		if name == "" {
			name = fmt.Sprintf("mesh%d", pi)
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: name, Mesh: gltf.Index(uint32(len(doc.Meshes) - 1))})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}

	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("failed to write glb: %w", err)
	}
	return nil
}

// vertexNormals32 accumulates unnormalized face normals per vertex,
// which weights the average by face area.
func vertexNormals32(m *geom.Mesh) [][3]float32 {
	accum := make([]vector3.Float64, m.VertexCount())
	for fi, f := range m.Faces {
		n := m.FaceNormal(fi)
		for _, vi := range f {
			accum[vi] = accum[vi].Add(n)
		}
	}

	normals := make([][3]float32, len(accum))
	for i, n := range accum {
		if l := n.Length(); l > 0 {
			n = n.Scale(1.0 / l)
		}
		normals[i] = [3]float32{float32(n.X()), float32(n.Y()), float32(n.Z())}
	}
	return normals
}

// ReadGLB loads every triangle primitive of a glTF binary into one
// mesh.
func ReadGLB(path string) (*geom.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glb: %w", err)
	}

	var vertices []vector3.Float64
	var faces [][3]int

	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("failed to read glb positions: %w", err)
			}

			var indices []uint32
			if prim.Indices != nil {
				indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return nil, fmt.Errorf("failed to read glb indices: %w", err)
				}
			} else {
				indices = make([]uint32, len(positions))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}

			offset := len(vertices)
			for _, p := range positions {
				vertices = append(vertices, vector3.New(float64(p[0]), float64(p[1]), float64(p[2])))
			}
			for i := 0; i+2 < len(indices); i += 3 {
				faces = append(faces, [3]int{
					offset + int(indices[i]),
					offset + int(indices[i+1]),
					offset + int(indices[i+2]),
				})
			}
		}
	}

	if len(vertices) == 0 {
		return nil, fmt.Errorf("glb contains no triangle geometry")
	}
	return geom.NewMesh(vertices, faces), nil
}
