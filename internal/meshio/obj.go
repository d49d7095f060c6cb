package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/EliCDavis/vector/vector3"

	"github.com/geomnodes/geomnodes/internal/geom"
)

// ReadOBJ parses Wavefront OBJ text. Texture and normal references are
// dropped, polygons are fan-triangulated, negative indices resolve
// against the vertices seen so far.
func ReadOBJ(content string) (*geom.Mesh, error) {
	var vertices []vector3.Float64
	var faces [][3]int

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNum)
			}
			coords := [3]float64{}
			for i := 0; i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid coordinate %q", lineNum, fields[i+1])
				}
				coords[i] = v
			}
			vertices = append(vertices, vector3.New(coords[0], coords[1], coords[2]))

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}
			indices := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := parseOBJIndex(ref, len(vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				indices = append(indices, idx)
			}
			for i := 1; i < len(indices)-1; i++ {
				faces = append(faces, [3]int{indices[0], indices[i], indices[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan obj: %w", err)
	}

	return geom.NewMesh(vertices, faces), nil
}

// parseOBJIndex resolves a face vertex reference like "3", "3/1/2" or
// "-1" to a zero-based vertex index.
func parseOBJIndex(ref string, vertexCount int) (int, error) {
	if slash := strings.IndexByte(ref, '/'); slash >= 0 {
		ref = ref[:slash]
	}
	v, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("invalid face index %q", ref)
	}
	switch {
	case v > 0:
		v--
	case v < 0:
		v += vertexCount
	default:
		return 0, fmt.Errorf("face index must not be zero")
	}
	if v < 0 || v >= vertexCount {
		return 0, fmt.Errorf("face index %d out of range", v+1)
	}
	return v, nil
}

// WriteOBJ writes vertices and faces in ASCII with one-based indices.
func WriteOBJ(w io.Writer, m *geom.Mesh) error {
	bw := bufio.NewWriter(w)
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(bw, "v %g %g %g\n", v.X(), v.Y(), v.Z()); err != nil {
			return err
		}
	}
	for _, f := range m.Faces {
		if _, err := fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1); err != nil {
			return err
		}
	}
	return bw.Flush()
}
