// Package engine provides the nodes that delegate to the external
// geometry engines: Blender for UV unwrapping and remeshing,
// meshlabserver for isotropic remeshing and alpha wrapping.
package engine

import (
	"github.com/geomnodes/geomnodes/internal/extproc"
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

var log = logger.ForComponent("nodes.engine")

// GetNodes returns every node in this package.
func GetNodes(store *preview.Cache, blender *extproc.Blender, meshlab *extproc.MeshLab) []nodes.Node {
	return []nodes.Node{
		NewBlenderUVUnwrapNode(store, blender),
		NewBlenderVoxelRemeshNode(store, blender),
		NewBlenderQuadriflowRemeshNode(store, blender),
		NewIsotropicRemeshNode(store, meshlab),
		NewAlphaWrapNode(store, meshlab),
	}
}
