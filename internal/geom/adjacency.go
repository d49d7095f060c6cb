package geom

// edgeKey is an undirected edge, vertex indices ordered low-high.
type edgeKey [2]int

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		return edgeKey{b, a}
	}
	return edgeKey{a, b}
}

func (m *Mesh) faceEdges(fi int) [3]edgeKey {
	f := m.Faces[fi]
	return [3]edgeKey{
		newEdgeKey(f[0], f[1]),
		newEdgeKey(f[1], f[2]),
		newEdgeKey(f[2], f[0]),
	}
}

// EdgeFaces maps every undirected edge to the faces that use it.
func (m *Mesh) EdgeFaces() map[edgeKey][]int {
	edges := make(map[edgeKey][]int, len(m.Faces)*3/2)
	for fi := range m.Faces {
		for _, e := range m.faceEdges(fi) {
			edges[e] = append(edges[e], fi)
		}
	}
	return edges
}

// BoundaryEdges returns the edges used by exactly one face.
func (m *Mesh) BoundaryEdges() []edgeKey {
	var boundary []edgeKey
	for e, faces := range m.EdgeFaces() {
		if len(faces) == 1 {
			boundary = append(boundary, e)
		}
	}
	return boundary
}

// IsWatertight reports whether every edge is shared by exactly two faces.
func (m *Mesh) IsWatertight() bool {
	if len(m.Faces) == 0 {
		return false
	}
	for _, faces := range m.EdgeFaces() {
		if len(faces) != 2 {
			return false
		}
	}
	return true
}

// FaceAdjacency lists, per face, the faces sharing an edge with it.
func (m *Mesh) FaceAdjacency() [][]int {
	adjacency := make([][]int, len(m.Faces))
	for _, faces := range m.EdgeFaces() {
		for i, a := range faces {
			for j, b := range faces {
				if i == j {
					continue
				}
				adjacency[a] = append(adjacency[a], b)
			}
		}
	}
	return adjacency
}

// ConnectedComponents labels each face with a component id via flood
// fill over shared edges. Returns the per-face labels and the component
// count. Components are numbered by descending face count, so part 0 is
// always the largest.
func (m *Mesh) ConnectedComponents() ([]int, int) {
	if len(m.Faces) == 0 {
		return nil, 0
	}

	adjacency := m.FaceAdjacency()
	labels := make([]int, len(m.Faces))
	for i := range labels {
		labels[i] = -1
	}

	count := 0
	var queue []int
	for start := range m.Faces {
		if labels[start] != -1 {
			continue
		}
		queue = append(queue[:0], start)
		labels[start] = count
		for len(queue) > 0 {
			fi := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			for _, nb := range adjacency[fi] {
				if labels[nb] == -1 {
					labels[nb] = count
					queue = append(queue, nb)
				}
			}
		}
		count++
	}

	relabelBySize(labels, count)
	return labels, count
}

func relabelBySize(labels []int, count int) {
	sizes := make([]int, count)
	for _, l := range labels {
		sizes[l]++
	}

	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	// selection by size, stable for equal sizes
	for i := 0; i < count; i++ {
		best := i
		for j := i + 1; j < count; j++ {
			if sizes[order[j]] > sizes[order[best]] {
				best = j
			}
		}
		order[i], order[best] = order[best], order[i]
	}

	remap := make([]int, count)
	for newLabel, oldLabel := range order {
		remap[oldLabel] = newLabel
	}
	for i, l := range labels {
		labels[i] = remap[l]
	}
}
