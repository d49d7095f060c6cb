package extproc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestEngineMissingBinary(t *testing.T) {
	e := NewEngine("blender", []string{"definitely-not-a-real-binary-zz"}, time.Second)

	if e.IsInstalled() {
		t.Fatal("expected missing binary to report not installed")
	}

	_, err := e.Resolve()
	if !errors.Is(err, ErrEngineNotInstalled) {
		t.Errorf("expected ErrEngineNotInstalled, got %v", err)
	}
	if !strings.Contains(err.Error(), "blender") {
		t.Errorf("expected error to name the engine, got %q", err.Error())
	}

	_, err = e.Run(context.Background())
	if !errors.Is(err, ErrEngineNotInstalled) {
		t.Errorf("expected run to fail with ErrEngineNotInstalled, got %v", err)
	}
}

func TestEngineResolveExplicitPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "fake-engine")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho engine ran\n"), 0755); err != nil {
		t.Fatalf("failed to write fake engine: %v", err)
	}

	e := NewEngine("fake", []string{path}, 5*time.Second)
	resolved, err := e.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved != path {
		t.Errorf("expected %s, got %s", path, resolved)
	}

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(result.Stdout, "engine ran") {
		t.Errorf("expected stdout from fake engine, got %q", result.Stdout)
	}
	if e.CircuitState() != CircuitClosed {
		t.Errorf("expected circuit closed after success, got %s", e.CircuitState())
	}
}

func TestEngineTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	e := NewEngine("sleeper", []string{"sh"}, 100*time.Millisecond)
	start := time.Now()
	_, err := e.Run(context.Background(), "-c", "sleep 5")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout in error, got %q", err.Error())
	}
	if elapsed > 3*time.Second {
		t.Errorf("expected the child to be killed promptly, took %s", elapsed)
	}
}

func TestEngineContextCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	e := NewEngine("sleeper", []string{"sh"}, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := e.Run(ctx, "-c", "sleep 5")
	if err == nil {
		t.Fatal("expected error after context cancel")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("expected cancellation to kill the child promptly, took %s", elapsed)
	}
}

func TestEngineCircuitOpens(t *testing.T) {
	e := NewEngine("ghost", []string{"definitely-not-a-real-binary-zz"}, time.Second)

	for i := 0; i < 5; i++ {
		if _, err := e.Run(context.Background()); err == nil {
			t.Fatalf("run %d unexpectedly succeeded", i)
		}
	}
	if e.CircuitState() != CircuitOpen {
		t.Fatalf("expected circuit open after repeated failures, got %s", e.CircuitState())
	}

	_, err := e.Run(context.Background())
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestSessionCleanup(t *testing.T) {
	sess, err := NewSession(false)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	path := sess.Path("input.obj")
	if err := os.WriteFile(path, []byte("v 0 0 0\n"), 0644); err != nil {
		t.Fatalf("failed to write session file: %v", err)
	}

	sess.Close()
	if _, err := os.Stat(sess.Dir); !os.IsNotExist(err) {
		t.Errorf("expected session dir removed, stat returned %v", err)
	}
}

func TestSessionKeep(t *testing.T) {
	sess, err := NewSession(true)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	defer os.RemoveAll(sess.Dir)

	sess.Close()
	if _, err := os.Stat(sess.Dir); err != nil {
		t.Errorf("expected session dir kept, stat returned %v", err)
	}
}

func TestUVUnwrapScript(t *testing.T) {
	script := fmt.Sprintf(uvUnwrapScript, "/tmp/in.obj", 66.0*math.Pi/180, 0.02, "/tmp/out.obj")

	for _, want := range []string{
		"bpy.ops.wm.obj_import(filepath='/tmp/in.obj')",
		"bpy.ops.uv.smart_project(angle_limit=1.1519",
		"island_margin=0.02",
		"area_weight=0.0",
		"correct_aspect=True",
		"scale_to_bounds=False",
		"export_uv=True",
		"filepath='/tmp/out.obj'",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %q", want)
		}
	}
}

func TestVoxelRemeshScript(t *testing.T) {
	script := fmt.Sprintf(voxelRemeshScript, "/tmp/in.obj", 0.05, "/tmp/out.obj")

	for _, want := range []string{
		"obj.data.remesh_voxel_size = 0.05",
		"bpy.ops.object.voxel_remesh()",
		"export_uv=False",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %q", want)
		}
	}
}

func TestQuadriflowScript(t *testing.T) {
	script := fmt.Sprintf(quadriflowScript, "/tmp/in.obj", 5000, "/tmp/out.obj")

	for _, want := range []string{
		"bpy.ops.object.quadriflow_remesh(",
		"target_faces=5000",
		"mode='FACES'",
		"seed=0",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %q", want)
		}
	}
}

func TestIsotropicRemeshScript(t *testing.T) {
	script := isotropicRemeshScript(0.1, 3)

	for _, want := range []string{
		`<filter name="Remeshing: Isotropic Explicit Remeshing">`,
		`name="Iterations" value="3"`,
		`name="TargetLen" value="0.1"`,
		"</FilterScript>",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %q", want)
		}
	}
}

func TestAlphaWrapScript(t *testing.T) {
	script := alphaWrapScript(0.004, 0.11)

	for _, want := range []string{
		`<filter name="Alpha Wrap">`,
		`name="alpha" value="0.004"`,
		`name="offset" value="0.11"`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %q", want)
		}
	}
}

func TestMeshFixScriptDefaults(t *testing.T) {
	script := meshFixScript(DefaultMeshFixOptions(), 0.01)

	for _, want := range []string{
		`<filter name="Remove Isolated pieces (wrt Face Num.)">`,
		`name="MaxHoleSize" value="100000"`,
		`<filter name="Remove Duplicate Vertices"/>`,
		`<filter name="Re-Orient all faces coherentely"/>`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %q", want)
		}
	}
	if strings.Contains(script, "Merge Close Vertices") {
		t.Error("expected join filter to be skipped by default")
	}
}

func TestMeshFixScriptOptions(t *testing.T) {
	opts := MeshFixOptions{
		JoinComponents: true,
		FillHoles:      true,
		MaxHoleEdges:   500,
	}
	script := meshFixScript(opts, 0.02)

	if !strings.Contains(script, `<filter name="Merge Close Vertices">`) {
		t.Error("expected join filter when JoinComponents is set")
	}
	if !strings.Contains(script, `name="MaxHoleSize" value="500"`) {
		t.Errorf("expected hole size 500, script:\n%s", script)
	}
	if strings.Contains(script, "Remove Isolated pieces") {
		t.Error("expected small-component filter to be skipped")
	}
	if strings.Contains(script, "Remove Duplicate Vertices") {
		t.Error("expected clean filters to be skipped")
	}
}
