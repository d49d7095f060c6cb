// Package visualization provides the nodes that export meshes for the
// host's 3D viewers and the pack status probe. Preview files land in
// the preview folder under collision-free names; the host serves them
// to its widgets.
package visualization

import (
	"github.com/EliCDavis/vector/vector3"

	"github.com/geomnodes/geomnodes/internal/catalog"
	"github.com/geomnodes/geomnodes/internal/extproc"
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

var log = logger.ForComponent("nodes.visualization")

// GetNodes returns every node in this package. cat may be nil when no
// catalog is configured; nodeCount is read lazily because the registry
// is still filling while nodes are constructed.
func GetNodes(store *preview.Cache, previewFolder string, blender *extproc.Blender, meshlab *extproc.MeshLab, cat *catalog.Store, nodeCount func() int) []nodes.Node {
	return []nodes.Node{
		NewPreviewMeshNode(store, previewFolder),
		NewPreviewMeshAnalysisNode(store, previewFolder),
		NewPreviewMeshDualNode(store, previewFolder),
		NewPreviewMeshMultiNode(store, previewFolder),
		NewPackStatusNode(store, blender, meshlab, cat, nodeCount),
	}
}

func arr3(v vector3.Float64) [3]float64 {
	return [3]float64{v.X(), v.Y(), v.Z()}
}
