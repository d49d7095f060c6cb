// Package transform provides the nodes that reshape meshes without
// leaving the process: centering, concatenation, field splits, point
// cloud conversion, and distance fields.
package transform

import (
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

var log = logger.ForComponent("nodes.transform")

// GetNodes returns every node in this package.
func GetNodes(store *preview.Cache) []nodes.Node {
	return []nodes.Node{
		NewCenterMeshNode(store),
		NewCombineMeshesNode(store),
		NewSplitByFieldNode(store),
		NewMeshToPointCloudNode(store),
		NewPointToMeshDistanceNode(store),
	}
}
