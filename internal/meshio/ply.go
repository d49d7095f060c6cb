package meshio

import (
	"fmt"
	"io"
	"os"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/EliCDavis/vector/vector3"

	"github.com/geomnodes/geomnodes/internal/geom"
)

// ReadPLY loads a PLY mesh or point cloud.
func ReadPLY(r io.Reader) (*geom.Mesh, error) {
	plyMesh, err := ply.ReadMesh(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read ply: %w", err)
	}

	view := plyMesh.View()
	positions := view.Float3Data[modeling.PositionAttribute]
	vertices := make([]vector3.Float64, len(positions))
	copy(vertices, positions)

	switch plyMesh.Topology() {
	case modeling.PointTopology:
		return geom.NewMesh(vertices, nil), nil

	case modeling.TriangleTopology:
		indices := view.Indices
		faces := make([][3]int, 0, len(indices)/3)
		for i := 0; i+2 < len(indices); i += 3 {
			faces = append(faces, [3]int{indices[i], indices[i+1], indices[i+2]})
		}
		return geom.NewMesh(vertices, faces), nil

	default:
		return nil, fmt.Errorf("unsupported ply topology: %d", plyMesh.Topology())
	}
}

// WritePLY writes a binary PLY. Zero faces produces a point cloud
// element instead of an empty face list.
func WritePLY(w io.Writer, m *geom.Mesh) error {
	positions := make([]vector3.Float64, len(m.Vertices))
	copy(positions, m.Vertices)

	var plyMesh modeling.Mesh
	if m.FaceCount() == 0 {
		plyMesh = modeling.NewPointCloud(map[string][]vector3.Vector[float64]{
			modeling.PositionAttribute: positions,
		}, nil, nil, nil)
	} else {
		indices := make([]int, 0, len(m.Faces)*3)
		for _, f := range m.Faces {
			indices = append(indices, f[0], f[1], f[2])
		}
		plyMesh = modeling.NewMesh(indices).
			SetFloat3Attribute(modeling.PositionAttribute, positions)
	}

	if err := ply.WriteBinary(w, plyMesh); err != nil {
		return fmt.Errorf("failed to write ply: %w", err)
	}
	return nil
}

func readPLYFile(path string) (*geom.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPLY(f)
}

func writePLYFile(path string, m *geom.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WritePLY(f, m)
}
