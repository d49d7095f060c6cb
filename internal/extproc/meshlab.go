package extproc

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/meshio"
)

// MeshLab drives meshlabserver for the CGAL-class operations: isotropic
// remeshing, alpha wrapping, and repair. Meshes travel as PLY and the filter
// chain as an MLX script on disk.
type MeshLab struct {
	engine *Engine
	keep   bool
}

// NewMeshLab builds a meshlabserver runner. An explicit path takes priority
// over the platform's usual install locations; an empty path means search.
func NewMeshLab(path string, timeout time.Duration, keepTempFiles bool) *MeshLab {
	var candidates []string
	if path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, meshlabCandidates()...)
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &MeshLab{
		engine: NewEngine("meshlabserver", candidates, timeout),
		keep:   keepTempFiles,
	}
}

func meshlabCandidates() []string {
	paths := []string{"meshlabserver"}
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths, "/Applications/meshlab.app/Contents/MacOS/meshlabserver")
	case "windows":
		paths = append(paths, `C:\Program Files\VCG\MeshLab\meshlabserver.exe`)
	default:
		paths = append(paths, "/usr/bin/meshlabserver", "/usr/local/bin/meshlabserver")
	}
	return paths
}

func (ml *MeshLab) IsInstalled() bool { return ml.engine.IsInstalled() }

func (ml *MeshLab) CircuitState() CircuitState { return ml.engine.CircuitState() }

// MeshFixOptions selects which repair filters run and in what strength.
// MaxHoleEdges of zero means no size limit on holes to fill.
type MeshFixOptions struct {
	RemoveSmallComponents bool
	JoinComponents        bool
	FillHoles             bool
	MaxHoleEdges          int
	CleanMesh             bool
}

func DefaultMeshFixOptions() MeshFixOptions {
	return MeshFixOptions{
		RemoveSmallComponents: true,
		JoinComponents:        false,
		FillHoles:             true,
		MaxHoleEdges:          0,
		CleanMesh:             true,
	}
}

// IsotropicRemesh rebuilds the surface with triangles near targetEdgeLength,
// given in mesh units.
func (ml *MeshLab) IsotropicRemesh(ctx context.Context, m *geom.Mesh, targetEdgeLength float64, iterations int) (*geom.Mesh, error) {
	return ml.applyFilters(ctx, m, isotropicRemeshScript(targetEdgeLength, iterations))
}

// AlphaWrap shrink-wraps the input into a watertight surface. alpha and
// offset are absolute distances in mesh units.
func (ml *MeshLab) AlphaWrap(ctx context.Context, m *geom.Mesh, alpha, offset float64) (*geom.Mesh, error) {
	return ml.applyFilters(ctx, m, alphaWrapScript(alpha, offset))
}

// MeshFix runs the repair chain selected by opts, always finishing with a
// coherent re-orientation pass.
func (ml *MeshLab) MeshFix(ctx context.Context, m *geom.Mesh, opts MeshFixOptions) (*geom.Mesh, error) {
	mergeThreshold := m.BoundsDiagonal() * 0.01
	return ml.applyFilters(ctx, m, meshFixScript(opts, mergeThreshold))
}

func (ml *MeshLab) applyFilters(ctx context.Context, m *geom.Mesh, script string) (*geom.Mesh, error) {
	sess, err := NewSession(ml.keep)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	in := sess.Path("input.ply")
	out := sess.Path("output.ply")
	mlx := sess.Path("filters.mlx")
	if err := meshio.Save(in, m); err != nil {
		return nil, fmt.Errorf("write meshlab input: %w", err)
	}
	if err := os.WriteFile(mlx, []byte(script), 0644); err != nil {
		return nil, fmt.Errorf("write meshlab filter script: %w", err)
	}

	if _, err := ml.engine.Run(ctx, "-i", in, "-o", out, "-s", mlx); err != nil {
		return nil, err
	}

	result, err := meshio.Load(out)
	if err != nil {
		return nil, fmt.Errorf("read meshlab output: %w", err)
	}
	return result, nil
}

// MLX helpers. meshlabserver reads RichAbsPerc values as absolute distances
// in mesh units.

func mlxHeader(b *strings.Builder) {
	b.WriteString("<!DOCTYPE FilterScript>\n<FilterScript>\n")
}

func mlxFooter(b *strings.Builder) {
	b.WriteString("</FilterScript>\n")
}

func mlxOpen(b *strings.Builder, name string) {
	fmt.Fprintf(b, " <filter name=%q>\n", name)
}

func mlxClose(b *strings.Builder) {
	b.WriteString(" </filter>\n")
}

func mlxNoParams(b *strings.Builder, name string) {
	fmt.Fprintf(b, " <filter name=%q/>\n", name)
}

func mlxInt(b *strings.Builder, name string, v int) {
	fmt.Fprintf(b, "  <Param type=\"RichInt\" name=%q value=\"%d\"/>\n", name, v)
}

func mlxBool(b *strings.Builder, name string, v bool) {
	fmt.Fprintf(b, "  <Param type=\"RichBool\" name=%q value=\"%t\"/>\n", name, v)
}

func mlxFloat(b *strings.Builder, name string, v float64) {
	fmt.Fprintf(b, "  <Param type=\"RichFloat\" name=%q value=\"%g\"/>\n", name, v)
}

func mlxAbsPerc(b *strings.Builder, name string, v float64) {
	fmt.Fprintf(b, "  <Param type=\"RichAbsPerc\" name=%q value=\"%g\" min=\"0\" max=\"100000\"/>\n", name, v)
}

func isotropicRemeshScript(targetLen float64, iterations int) string {
	var b strings.Builder
	mlxHeader(&b)
	mlxOpen(&b, "Remeshing: Isotropic Explicit Remeshing")
	mlxInt(&b, "Iterations", iterations)
	mlxBool(&b, "Adaptive", false)
	mlxBool(&b, "SelectedOnly", false)
	mlxAbsPerc(&b, "TargetLen", targetLen)
	mlxFloat(&b, "FeatureDeg", 30)
	mlxBool(&b, "CheckSurfDist", true)
	mlxAbsPerc(&b, "MaxSurfDist", targetLen)
	mlxBool(&b, "SplitFlag", true)
	mlxBool(&b, "CollapseFlag", true)
	mlxBool(&b, "SwapFlag", true)
	mlxBool(&b, "SmoothFlag", true)
	mlxBool(&b, "ProjectFlag", true)
	mlxClose(&b)
	mlxFooter(&b)
	return b.String()
}

func alphaWrapScript(alpha, offset float64) string {
	var b strings.Builder
	mlxHeader(&b)
	mlxOpen(&b, "Alpha Wrap")
	mlxAbsPerc(&b, "alpha", alpha)
	mlxAbsPerc(&b, "offset", offset)
	mlxClose(&b)
	mlxFooter(&b)
	return b.String()
}

func meshFixScript(opts MeshFixOptions, mergeThreshold float64) string {
	var b strings.Builder
	mlxHeader(&b)
	if opts.RemoveSmallComponents {
		mlxOpen(&b, "Remove Isolated pieces (wrt Face Num.)")
		mlxInt(&b, "MinComponentSize", 25)
		mlxClose(&b)
	}
	if opts.JoinComponents {
		mlxOpen(&b, "Merge Close Vertices")
		mlxAbsPerc(&b, "Threshold", mergeThreshold)
		mlxClose(&b)
	}
	if opts.FillHoles {
		maxEdges := opts.MaxHoleEdges
		if maxEdges <= 0 {
			maxEdges = 100000
		}
		mlxOpen(&b, "Close Holes")
		mlxInt(&b, "MaxHoleSize", maxEdges)
		mlxBool(&b, "Selected", false)
		mlxBool(&b, "NewFaceSelected", true)
		mlxBool(&b, "SelfIntersection", true)
		mlxClose(&b)
	}
	if opts.CleanMesh {
		mlxNoParams(&b, "Remove Duplicate Vertices")
		mlxNoParams(&b, "Remove Duplicate Faces")
		mlxNoParams(&b, "Remove Zero Area Faces")
		mlxNoParams(&b, "Remove Unreferenced Vertices")
	}
	// The filter name carries MeshLab's own spelling.
	mlxNoParams(&b, "Re-Orient all faces coherentely")
	mlxFooter(&b)
	return b.String()
}
