package geom

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// goldenConjugate spreads sequential indices across [0,1) with maximal
// separation between neighbors.
const goldenConjugate = 0.6180339887498949

// ScrambleField remaps an integer-valued face field so that faces in
// adjacent segments end up with clearly different values. Segments are
// greedily colored over their adjacency graph, colors are spread
// across [0,1) by the golden ratio, and the color-to-value assignment
// is shuffled with the given seed.
func (m *Mesh) ScrambleField(field []float64, seed int64) ([]float64, error) {
	if len(field) != len(m.Faces) {
		return nil, fmt.Errorf("field length %d does not match face count %d", len(field), len(m.Faces))
	}

	segments := make([]int, len(field))
	for i, v := range field {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("field contains non-finite value at face %d", i)
		}
		segments[i] = int(math.Round(v))
	}

	adjacency := m.segmentAdjacency(segments)
	colors := greedyColor(adjacency)

	colorCount := 0
	for _, c := range colors {
		if c+1 > colorCount {
			colorCount = c + 1
		}
	}

	values := make([]float64, colorCount)
	for i := range values {
		values[i] = math.Mod(float64(i)*goldenConjugate, 1.0)
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	out := make([]float64, len(field))
	for fi, seg := range segments {
		out[fi] = values[colors[seg]]
	}
	return out, nil
}

// segmentAdjacency links segments whose faces share an edge. Keys are
// the raw segment values from the field.
func (m *Mesh) segmentAdjacency(segments []int) map[int]map[int]bool {
	adjacency := make(map[int]map[int]bool)
	link := func(a, b int) {
		if adjacency[a] == nil {
			adjacency[a] = make(map[int]bool)
		}
		adjacency[a][b] = true
	}
	for seg := range uniqueInts(segments) {
		if adjacency[seg] == nil {
			adjacency[seg] = make(map[int]bool)
		}
	}
	for _, faces := range m.EdgeFaces() {
		for i, a := range faces {
			for _, b := range faces[i+1:] {
				if segments[a] != segments[b] {
					link(segments[a], segments[b])
					link(segments[b], segments[a])
				}
			}
		}
	}
	return adjacency
}

func uniqueInts(values []int) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// greedyColor assigns each segment the lowest color unused by its
// neighbors, visiting segments in ascending order for determinism.
func greedyColor(adjacency map[int]map[int]bool) map[int]int {
	order := make([]int, 0, len(adjacency))
	for seg := range adjacency {
		order = append(order, seg)
	}
	sort.Ints(order)

	colors := make(map[int]int, len(order))
	for _, seg := range order {
		used := make(map[int]bool)
		for nb := range adjacency[seg] {
			if c, ok := colors[nb]; ok {
				used[c] = true
			}
		}
		c := 0
		for used[c] {
			c++
		}
		colors[seg] = c
	}
	return colors
}
