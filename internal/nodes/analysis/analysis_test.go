package analysis

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/EliCDavis/vector/vector3"

	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

func execute(t *testing.T, n nodes.Node, req interface{}) (interface{}, error) {
	t.Helper()
	input, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return n.Execute(context.Background(), input)
}

func twoCubes(t *testing.T) *geom.Mesh {
	t.Helper()
	m := geom.Cube(1)
	other := geom.Cube(1)
	other.Translate(vector3.New(10.0, 0.0, 0.0))
	m.Concat(other)
	return m
}

func TestOpenEdgesOnPlane(t *testing.T) {
	store := preview.NewCache()
	id := store.Put(geom.Plane(1, 1))

	node := NewOpenEdgesNode(store)
	result, err := execute(t, node, OpenEdgesRequest{Mesh: id})
	if err != nil {
		t.Fatalf("failed to find open edges: %v", err)
	}

	resp, ok := result.(OpenEdgesResponse)
	if !ok {
		t.Fatalf("expected OpenEdgesResponse, got %T", result)
	}
	if resp.OpenEdgeCount != 4 {
		t.Errorf("expected 4 open edges, got %d", resp.OpenEdgeCount)
	}
	if resp.BoundaryFaceCount != 2 {
		t.Errorf("expected 2 boundary faces, got %d", resp.BoundaryFaceCount)
	}
	if resp.BoundaryVertexCount != 4 {
		t.Errorf("expected 4 boundary vertices, got %d", resp.BoundaryVertexCount)
	}
	if len(resp.BoundaryVertexIDs) != 4 {
		t.Errorf("expected 4 listed vertex ids, got %v", resp.BoundaryVertexIDs)
	}

	out, _ := store.Get(resp.Mesh)
	counts := out.FaceFields["open_edge_count"]
	if len(counts) != 2 {
		t.Fatalf("expected open_edge_count on both faces, got %d values", len(counts))
	}
	for fi, c := range counts {
		if c != 2 {
			t.Errorf("expected 2 open edges on face %d, got %g", fi, c)
		}
	}
}

func TestOpenEdgesOnWatertightCube(t *testing.T) {
	store := preview.NewCache()
	id := store.Put(geom.Cube(1))

	node := NewOpenEdgesNode(store)
	result, err := execute(t, node, OpenEdgesRequest{Mesh: id})
	if err != nil {
		t.Fatalf("failed to find open edges: %v", err)
	}

	resp := result.(OpenEdgesResponse)
	if resp.OpenEdgeCount != 0 || resp.BoundaryFaceCount != 0 || resp.BoundaryVertexCount != 0 {
		t.Errorf("expected no boundary on a cube, got %d edges / %d faces / %d vertices",
			resp.OpenEdgeCount, resp.BoundaryFaceCount, resp.BoundaryVertexCount)
	}
}

func TestConnectedComponents(t *testing.T) {
	store := preview.NewCache()
	id := store.Put(twoCubes(t))

	node := NewConnectedComponentsNode(store)
	result, err := execute(t, node, ConnectedComponentsRequest{Mesh: id})
	if err != nil {
		t.Fatalf("failed to label components: %v", err)
	}

	resp, ok := result.(ConnectedComponentsResponse)
	if !ok {
		t.Fatalf("expected ConnectedComponentsResponse, got %T", result)
	}
	if resp.NumComponents != 2 {
		t.Fatalf("expected 2 components, got %d", resp.NumComponents)
	}
	for _, comp := range resp.Components {
		if comp.FaceCount != 12 || comp.VertexCount != 8 {
			t.Errorf("expected 12 faces / 8 vertices for component %d, got %d / %d",
				comp.ID, comp.FaceCount, comp.VertexCount)
		}
	}

	out, _ := store.Get(resp.Mesh)
	field := out.FaceFields["part_id"]
	if len(field) != 24 {
		t.Fatalf("expected part_id on all 24 faces, got %d values", len(field))
	}
	if field[0] == field[12] {
		t.Error("expected the two cubes to get different part ids")
	}
}

func TestDegenerateFaces(t *testing.T) {
	store := preview.NewCache()
	m := geom.NewMesh([]vector3.Float64{
		vector3.New(0.0, 0.0, 0.0),
		vector3.New(1.0, 0.0, 0.0),
		vector3.New(0.0, 1.0, 0.0),
		vector3.New(2.0, 0.0, 0.0),
	}, [][3]int{
		{0, 1, 2},
		{0, 1, 1},
		{0, 1, 3},
	})
	id := store.Put(m)

	node := NewDegenerateFacesNode(store)
	result, err := execute(t, node, DegenerateFacesRequest{Mesh: id})
	if err != nil {
		t.Fatalf("failed to scan faces: %v", err)
	}

	resp, ok := result.(DegenerateFacesResponse)
	if !ok {
		t.Fatalf("expected DegenerateFacesResponse, got %T", result)
	}
	if resp.DegenerateCount != 2 {
		t.Errorf("expected 2 degenerate faces, got %d", resp.DegenerateCount)
	}
	if len(resp.DegenerateIDs) != 2 || resp.DegenerateIDs[0] != 1 || resp.DegenerateIDs[1] != 2 {
		t.Errorf("expected degenerate ids [1 2], got %v", resp.DegenerateIDs)
	}
	if len(resp.SmallestFaces) != 1 || resp.SmallestFaces[0].ID != 0 {
		t.Errorf("expected only the healthy face listed, got %v", resp.SmallestFaces)
	}
	if resp.SmallestFaces[0].Area <= 0 {
		t.Errorf("expected positive area, got %g", resp.SmallestFaces[0].Area)
	}

	out, _ := store.Get(resp.Mesh)
	flags := out.FaceFields["degenerate"]
	if flags[0] != 0 || flags[1] != 1 || flags[2] != 1 {
		t.Errorf("expected degenerate flags [0 1 1], got %v", flags)
	}
}

func TestScrambleField(t *testing.T) {
	store := preview.NewCache()
	m := geom.Cube(1)
	// Two segments sharing edges across the cube surface.
	field := make([]float64, 12)
	for i := 6; i < 12; i++ {
		field[i] = 1
	}
	if err := m.SetFaceField("part_id", field); err != nil {
		t.Fatalf("failed to set field: %v", err)
	}
	id := store.Put(m)

	node := NewScrambleFieldNode(store)
	result, err := execute(t, node, ScrambleFieldRequest{Mesh: id, Field: "part_id", Seed: 3})
	if err != nil {
		t.Fatalf("failed to scramble field: %v", err)
	}

	resp, ok := result.(ScrambleFieldResponse)
	if !ok {
		t.Fatalf("expected ScrambleFieldResponse, got %T", result)
	}
	if resp.OutputField != "face_part_id" {
		t.Errorf("expected output field face_part_id, got %s", resp.OutputField)
	}

	out, _ := store.Get(resp.Mesh)
	scrambled := out.FaceFields["face_part_id"]
	if len(scrambled) != 12 {
		t.Fatalf("expected scrambled field on all 12 faces, got %d values", len(scrambled))
	}
	for i := 1; i < 6; i++ {
		if scrambled[i] != scrambled[0] {
			t.Fatalf("expected one value per segment, face %d got %g vs %g", i, scrambled[i], scrambled[0])
		}
	}
	if scrambled[0] == scrambled[6] {
		t.Error("expected adjacent segments to get different values")
	}
	if len(out.FaceFields["part_id"]) != 12 {
		t.Error("expected the input field to survive on the output mesh")
	}
}

func TestScrambleFieldUnknownField(t *testing.T) {
	store := preview.NewCache()
	id := store.Put(geom.Cube(1))

	node := NewScrambleFieldNode(store)
	_, err := execute(t, node, ScrambleFieldRequest{Mesh: id, Field: "part_id"})
	if err == nil {
		t.Fatal("expected error for missing field")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}
