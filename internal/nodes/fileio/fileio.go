// Package fileio provides the nodes that move meshes between disk and
// the in-process mesh store.
package fileio

import (
	"github.com/geomnodes/geomnodes/internal/catalog"
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

var log = logger.ForComponent("nodes.fileio")

// GetNodes returns every node in this package. The catalog store may
// be nil when the catalog is disabled.
func GetNodes(store *preview.Cache, inputFolder, outputFolder string, cat *catalog.Store) []nodes.Node {
	return []nodes.Node{
		NewLoadMeshNode(store, inputFolder, cat),
		NewLoadMeshGlobNode(store, inputFolder),
		NewSaveMeshNode(store, outputFolder),
		NewMeshInfoNode(store),
	}
}
