package geom

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/EliCDavis/vector/vector3"
)

// Surface sampling modes.
const (
	SampleUniform      = "uniform"
	SampleEven         = "even"
	SampleFaceWeighted = "face_weighted"
)

// SampleSurface draws count points from the mesh surface. uniform
// weights faces by area, face_weighted picks faces uniformly so small
// faces are overrepresented, and even thins an oversampled uniform set
// to roughly equal spacing. The seed makes runs reproducible.
func (m *Mesh) SampleSurface(count int, mode string, seed int64) ([]vector3.Float64, error) {
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("mesh has no faces to sample")
	}
	rng := rand.New(rand.NewSource(seed))

	switch mode {
	case SampleUniform:
		return m.sampleAreaWeighted(count, rng), nil
	case SampleFaceWeighted:
		points := make([]vector3.Float64, count)
		for i := range points {
			points[i] = m.randomPointOnFace(rng.Intn(len(m.Faces)), rng)
		}
		return points, nil
	case SampleEven:
		return m.sampleEven(count, rng), nil
	default:
		return nil, fmt.Errorf("unknown sampling mode: %s", mode)
	}
}

func (m *Mesh) sampleAreaWeighted(count int, rng *rand.Rand) []vector3.Float64 {
	cumulative := make([]float64, len(m.Faces))
	total := 0.0
	for fi := range m.Faces {
		total += m.FaceArea(fi)
		cumulative[fi] = total
	}
	points := make([]vector3.Float64, count)
	for i := range points {
		fi := searchCumulative(cumulative, rng.Float64()*total)
		points[i] = m.randomPointOnFace(fi, rng)
	}
	return points
}

func searchCumulative(cumulative []float64, target float64) int {
	lo, hi := 0, len(cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cumulative[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (m *Mesh) randomPointOnFace(fi int, rng *rand.Rand) vector3.Float64 {
	f := m.Faces[fi]
	a := m.Vertices[f[0]]
	b := m.Vertices[f[1]]
	c := m.Vertices[f[2]]
	r1 := rng.Float64()
	r2 := rng.Float64()
	if r1+r2 > 1 {
		r1 = 1 - r1
		r2 = 1 - r2
	}
	return a.Add(b.Sub(a).Scale(r1)).Add(c.Sub(a).Scale(r2))
}

// sampleEven oversamples by 4x and greedily keeps points no closer
// than a radius derived from the average area per requested sample.
func (m *Mesh) sampleEven(count int, rng *rand.Rand) []vector3.Float64 {
	radius := math.Sqrt(m.TotalArea() / (float64(count) * math.Pi))
	raw := m.sampleAreaWeighted(count*4, rng)

	cell := radius
	if cell <= 0 {
		return raw[:count]
	}
	type cellKey [3]int
	keyOf := func(p vector3.Float64) cellKey {
		return cellKey{
			int(math.Floor(p.X() / cell)),
			int(math.Floor(p.Y() / cell)),
			int(math.Floor(p.Z() / cell)),
		}
	}

	grid := make(map[cellKey][]vector3.Float64)
	kept := make([]vector3.Float64, 0, count)
	radiusSq := radius * radius
	for _, p := range raw {
		key := keyOf(p)
		tooClose := false
	neighbors:
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					for _, q := range grid[cellKey{key[0] + dx, key[1] + dy, key[2] + dz}] {
						if p.Sub(q).LengthSquared() < radiusSq {
							tooClose = true
							break neighbors
						}
					}
				}
			}
		}
		if tooClose {
			continue
		}
		grid[key] = append(grid[key], p)
		kept = append(kept, p)
		if len(kept) == count {
			break
		}
	}
	return kept
}
