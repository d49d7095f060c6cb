// Package analysis provides the nodes that inspect meshes and attach
// diagnostic fields without changing geometry.
package analysis

import (
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

var log = logger.ForComponent("nodes.analysis")

// GetNodes returns every node in this package.
func GetNodes(store *preview.Cache) []nodes.Node {
	return []nodes.Node{
		NewOpenEdgesNode(store),
		NewConnectedComponentsNode(store),
		NewDegenerateFacesNode(store),
		NewScrambleFieldNode(store),
	}
}
