package visualization

import (
	"context"
	"encoding/json"
	"time"

	"github.com/geomnodes/geomnodes/internal/catalog"
	"github.com/geomnodes/geomnodes/internal/extproc"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

type EngineStatus struct {
	Installed bool                 `json:"installed"`
	Circuit   extproc.CircuitState `json:"circuit"`
}

type PackStatusResponse struct {
	Uptime       string                  `json:"uptime"`
	NodeCount    int                     `json:"node_count"`
	CachedMeshes int                     `json:"cached_meshes"`
	Catalog      *catalog.CatalogStats   `json:"catalog,omitempty"`
	Engines      map[string]EngineStatus `json:"engines"`
}

// PackStatusNode reports daemon uptime, cache size, catalog counters
// and the health of the external engines.
type PackStatusNode struct {
	store     *preview.Cache
	blender   *extproc.Blender
	meshlab   *extproc.MeshLab
	cat       *catalog.Store
	nodeCount func() int
	startedAt time.Time
}

func NewPackStatusNode(store *preview.Cache, blender *extproc.Blender, meshlab *extproc.MeshLab, cat *catalog.Store, nodeCount func() int) *PackStatusNode {
	return &PackStatusNode{
		store:     store,
		blender:   blender,
		meshlab:   meshlab,
		cat:       cat,
		nodeCount: nodeCount,
		startedAt: time.Now(),
	}
}

func (n *PackStatusNode) Name() string {
	return "pack_status"
}

func (n *PackStatusNode) Description() string {
	return "Report pack health: uptime, cached meshes, catalog counters and engine availability"
}

func (n *PackStatusNode) Category() string {
	return "geomnodes/visualization"
}

func (n *PackStatusNode) Annotations() map[string]bool {
	return nodes.ReadOnlyAnnotations()
}

func (n *PackStatusNode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {}
	}`)
}

func (n *PackStatusNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	resp := PackStatusResponse{
		Uptime:       time.Since(n.startedAt).Round(time.Second).String(),
		CachedMeshes: n.store.Len(),
		Engines: map[string]EngineStatus{
			"blender": {
				Installed: n.blender.IsInstalled(),
				Circuit:   n.blender.CircuitState(),
			},
			"meshlabserver": {
				Installed: n.meshlab.IsInstalled(),
				Circuit:   n.meshlab.CircuitState(),
			},
		},
	}
	if n.nodeCount != nil {
		resp.NodeCount = n.nodeCount()
	}
	if n.cat != nil {
		stats, err := n.cat.Stats()
		if err != nil {
			log.Warn("catalog stats unavailable", "error", err)
		} else {
			resp.Catalog = stats
		}
	}
	return resp, nil
}
