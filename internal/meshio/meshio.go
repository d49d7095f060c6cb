// Package meshio reads and writes the mesh formats the pack exchanges
// with disk: OBJ and STL for interchange, PLY for point-heavy data,
// GLB for previews, VTP for field-colored analysis previews.
package meshio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/geomnodes/geomnodes/internal/geom"
)

// LoadExtensions are the formats Load accepts, lowercase with dot.
func LoadExtensions() []string {
	return []string{".glb", ".obj", ".ply", ".stl"}
}

// SaveExtensions are the formats Save accepts, lowercase with dot.
func SaveExtensions() []string {
	return []string{".glb", ".obj", ".ply", ".stl", ".vtp"}
}

// CanLoad reports whether the path's extension has a reader.
func CanLoad(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range LoadExtensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// Load reads a mesh, choosing the codec by file extension.
func Load(path string) (*geom.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		content, _, err := ReadTextFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read obj: %w", err)
		}
		return ReadOBJ(content)
	case ".stl":
		return ReadSTL(path)
	case ".ply":
		return readPLYFile(path)
	case ".glb", ".gltf":
		return ReadGLB(path)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", filepath.Ext(path))
	}
}

// Save writes a mesh, choosing the codec by file extension. Parent
// directories must already exist.
func Save(path string, m *geom.Mesh) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return WriteOBJ(f, m)
	case ".stl":
		return WriteSTL(path, m)
	case ".ply":
		return writePLYFile(path, m)
	case ".glb":
		return WriteGLB(path, m)
	case ".vtp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return WriteVTP(f, m)
	default:
		return fmt.Errorf("unsupported mesh format: %s", filepath.Ext(path))
	}
}
