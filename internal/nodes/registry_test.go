package nodes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/preview"
)

type stubNode struct {
	name string
	fn   func(ctx context.Context, input json.RawMessage) (interface{}, error)
}

func (n *stubNode) Name() string            { return n.name }
func (n *stubNode) Description() string     { return "stub" }
func (n *stubNode) Category() string        { return "test" }
func (n *stubNode) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (n *stubNode) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if n.fn != nil {
		return n.fn(ctx, input)
	}
	return "ok", nil
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&stubNode{name: "alpha"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register(&stubNode{name: "alpha"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if err := r.Register(&stubNode{name: ""}); err == nil {
		t.Error("expected empty name to fail")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 node, got %d", r.Len())
	}
}

func TestRegistryExecuteUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Execute(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error for unknown node")
	}
	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("expected NodeError, got %T", err)
	}
	if nodeErr.Code != -32601 {
		t.Errorf("expected code -32601, got %d", nodeErr.Code)
	}
}

func TestRegistryExecuteWrapsErrors(t *testing.T) {
	r := NewRegistry()
	failing := &stubNode{
		name: "failing",
		fn: func(ctx context.Context, input json.RawMessage) (interface{}, error) {
			return nil, fmt.Errorf("bad parameter")
		},
	}
	if err := r.Register(failing); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := r.Execute(context.Background(), "failing", nil)
	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("expected NodeError, got %T", err)
	}
	if nodeErr.Code != -32603 {
		t.Errorf("expected code -32603, got %d", nodeErr.Code)
	}
}

func TestRegistryRecoversPanic(t *testing.T) {
	r := NewRegistry()
	panicking := &stubNode{
		name: "panicking",
		fn: func(ctx context.Context, input json.RawMessage) (interface{}, error) {
			panic("index out of range")
		},
	}
	if err := r.Register(panicking); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := r.Execute(context.Background(), "panicking", nil)
	if err == nil {
		t.Fatal("expected panic to surface as error")
	}
	if result != nil {
		t.Errorf("expected nil result after panic, got %v", result)
	}
	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) || nodeErr.Code != -32603 {
		t.Errorf("expected execution error code, got %v", err)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&stubNode{name: name}); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}

	want := []string{"alpha", "mid", "zeta"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("definition %d: expected %s, got %s", i, want[i], def.Name)
		}
	}
}

func TestMeshRef(t *testing.T) {
	store := preview.NewCache()

	if _, err := MeshRef(store, ""); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := MeshRef(store, "ffffffffffff"); err == nil {
		t.Error("expected error for unknown id")
	}

	id := store.Put(geom.Cube(1))
	m, err := MeshRef(store, id)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if m.VertexCount() != 8 {
		t.Errorf("expected 8 vertices, got %d", m.VertexCount())
	}
}

func TestSummarizeRejectsInvalidMesh(t *testing.T) {
	store := preview.NewCache()
	m := geom.Cube(1)
	m.Faces = append(m.Faces, [3]int{0, 1, 99})

	if _, err := Summarize(store, m); err == nil {
		t.Error("expected validation failure for dangling face index")
	}
	if store.Len() != 0 {
		t.Errorf("expected invalid mesh not to be stored, store has %d", store.Len())
	}
}

func TestRangeChecks(t *testing.T) {
	if err := FloatInRange("size", 0.5, 0.01, 100); err != nil {
		t.Errorf("expected in-range value to pass, got %v", err)
	}
	if err := FloatInRange("size", 0.001, 0.01, 100); err == nil {
		t.Error("expected below-range value to fail")
	}
	if err := IntInRange("subdivisions", 6, 0, 5); err == nil {
		t.Error("expected above-range value to fail")
	}
}
