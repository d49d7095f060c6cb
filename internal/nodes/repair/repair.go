// Package repair provides the nodes that fix mesh defects, in-process
// for orientation and through meshlabserver for hole filling.
package repair

import (
	"github.com/geomnodes/geomnodes/internal/extproc"
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

var log = logger.ForComponent("nodes.repair")

// GetNodes returns every node in this package.
func GetNodes(store *preview.Cache, meshlab *extproc.MeshLab) []nodes.Node {
	return []nodes.Node{
		NewFixNormalsNode(store),
		NewMeshFixNode(store, meshlab),
	}
}
