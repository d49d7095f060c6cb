package extproc

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"time"

	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/meshio"
)

// Blender drives a headless Blender process for operations that need a full
// modeling kernel. Every call follows the same round trip: write the mesh to
// a temp OBJ, run a short python expression against it in background mode,
// read back the OBJ the expression exported.
type Blender struct {
	engine *Engine
	keep   bool
}

// NewBlender builds a Blender runner. An explicit path takes priority over
// the platform's usual install locations; an empty path means search.
func NewBlender(path string, timeout time.Duration, keepTempFiles bool) *Blender {
	var candidates []string
	if path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, blenderCandidates()...)
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Blender{
		engine: NewEngine("blender", candidates, timeout),
		keep:   keepTempFiles,
	}
}

func blenderCandidates() []string {
	paths := []string{"blender"}
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths, "/Applications/Blender.app/Contents/MacOS/Blender")
	case "windows":
		paths = append(paths, `C:\Program Files\Blender Foundation\Blender\blender.exe`)
	default:
		paths = append(paths, "/usr/bin/blender", "/usr/local/bin/blender")
	}
	return paths
}

func (b *Blender) IsInstalled() bool { return b.engine.IsInstalled() }

func (b *Blender) CircuitState() CircuitState { return b.engine.CircuitState() }

const uvUnwrapScript = `
import bpy
bpy.ops.object.select_all(action='SELECT')
bpy.ops.object.delete()
bpy.ops.wm.obj_import(filepath='%s')
obj = bpy.context.selected_objects[0]
bpy.context.view_layer.objects.active = obj
bpy.ops.object.mode_set(mode='EDIT')
bpy.ops.mesh.select_all(action='SELECT')
bpy.ops.uv.smart_project(angle_limit=%g, island_margin=%g, area_weight=0.0, correct_aspect=True, scale_to_bounds=False)
bpy.ops.object.mode_set(mode='OBJECT')
bpy.ops.wm.obj_export(filepath='%s', export_selected_objects=True, export_uv=True, export_materials=False)
`

const voxelRemeshScript = `
import bpy
bpy.ops.object.select_all(action='SELECT')
bpy.ops.object.delete()
bpy.ops.wm.obj_import(filepath='%s')
obj = bpy.context.selected_objects[0]
bpy.context.view_layer.objects.active = obj
obj.data.remesh_voxel_size = %g
bpy.ops.object.voxel_remesh()
bpy.ops.wm.obj_export(filepath='%s', export_selected_objects=True, export_uv=False, export_materials=False)
`

// quadriflow_remesh keeps to the parameter subset that is stable across
// Blender releases.
const quadriflowScript = `
import bpy
bpy.ops.object.select_all(action='SELECT')
bpy.ops.object.delete()
bpy.ops.wm.obj_import(filepath='%s')
obj = bpy.context.selected_objects[0]
bpy.context.view_layer.objects.active = obj
bpy.ops.object.quadriflow_remesh(use_mesh_symmetry=False, use_preserve_sharp=False, use_preserve_boundary=False, smooth_normals=False, mode='FACES', target_faces=%d, seed=0)
bpy.ops.wm.obj_export(filepath='%s', export_selected_objects=True, export_uv=False, export_materials=False)
`

// UVUnwrap runs Smart UV Project. angleLimitDeg is the seam angle threshold
// in degrees, islandMargin the spacing between UV islands.
func (b *Blender) UVUnwrap(ctx context.Context, m *geom.Mesh, angleLimitDeg, islandMargin float64) (*geom.Mesh, error) {
	return b.roundTrip(ctx, m, func(in, out string) string {
		return fmt.Sprintf(uvUnwrapScript, in, angleLimitDeg*math.Pi/180, islandMargin, out)
	})
}

// VoxelRemesh rebuilds the mesh on a voxel grid. Smaller voxels give higher
// resolution output.
func (b *Blender) VoxelRemesh(ctx context.Context, m *geom.Mesh, voxelSize float64) (*geom.Mesh, error) {
	return b.roundTrip(ctx, m, func(in, out string) string {
		return fmt.Sprintf(voxelRemeshScript, in, voxelSize, out)
	})
}

// QuadriflowRemesh retopologizes toward targetFaces quads. The export path
// triangulates, so the returned mesh has roughly twice that many triangles.
func (b *Blender) QuadriflowRemesh(ctx context.Context, m *geom.Mesh, targetFaces int) (*geom.Mesh, error) {
	return b.roundTrip(ctx, m, func(in, out string) string {
		return fmt.Sprintf(quadriflowScript, in, targetFaces, out)
	})
}

func (b *Blender) roundTrip(ctx context.Context, m *geom.Mesh, script func(in, out string) string) (*geom.Mesh, error) {
	sess, err := NewSession(b.keep)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	in := sess.Path("input.obj")
	out := sess.Path("output.obj")
	if err := meshio.Save(in, m); err != nil {
		return nil, fmt.Errorf("write blender input: %w", err)
	}

	// Forward slashes keep the embedded python string literals valid on
	// every platform.
	expr := script(filepath.ToSlash(in), filepath.ToSlash(out))
	if _, err := b.engine.Run(ctx, "--background", "--python-expr", expr); err != nil {
		return nil, err
	}

	result, err := meshio.Load(out)
	if err != nil {
		return nil, fmt.Errorf("read blender output: %w", err)
	}
	return result, nil
}
