package geom

import (
	"math"
	"sort"

	"github.com/EliCDavis/vector/vector3"
)

// ClosestPointOnTriangle projects p onto the triangle a,b,c, clamping
// to edges and corners when the projection falls outside.
func ClosestPointOnTriangle(p, a, b, c vector3.Float64) vector3.Float64 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Scale(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Scale(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Scale((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	denom := 1.0 / (va + vb + vc)
	return a.Add(ab.Scale(vb * denom)).Add(ac.Scale(vc * denom))
}

func boxDistanceSq(p vector3.Float64, box faceBox) float64 {
	dx := math.Max(math.Max(box.min.X()-p.X(), 0), p.X()-box.max.X())
	dy := math.Max(math.Max(box.min.Y()-p.Y(), 0), p.Y()-box.max.Y())
	dz := math.Max(math.Max(box.min.Z()-p.Z(), 0), p.Z()-box.max.Z())
	return dx*dx + dy*dy + dz*dz
}

// NearestOnSurface finds, for each query point, the closest point on
// the mesh surface and its distance. Face bounding boxes prune faces
// that cannot beat the best distance found so far.
func (m *Mesh) NearestOnSurface(points []vector3.Float64) ([]vector3.Float64, []float64) {
	boxes := m.faceBoxes()
	closest := make([]vector3.Float64, len(points))
	distances := make([]float64, len(points))

	for i, p := range points {
		bestSq := math.Inf(1)
		var best vector3.Float64
		for _, box := range boxes {
			if boxDistanceSq(p, box) >= bestSq {
				continue
			}
			f := m.Faces[box.index]
			q := ClosestPointOnTriangle(p, m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]])
			if dSq := p.Sub(q).LengthSquared(); dSq < bestSq {
				bestSq = dSq
				best = q
			}
		}
		closest[i] = best
		distances[i] = math.Sqrt(bestSq)
	}
	return closest, distances
}

// DistanceStats summarizes a distance field the way inspection reports
// expect: order statistics plus counts under fixed thresholds.
type DistanceStats struct {
	Min     float64
	Max     float64
	Mean    float64
	Median  float64
	Std     float64
	P25     float64
	P75     float64
	P95     float64
	Under01 int
	Under05 int
	Under10 int
}

// ComputeDistanceStats returns summary statistics over values. The
// thresholds 0.1, 0.5 and 1.0 match the tolerances used when judging
// alignment between scanned and reference meshes.
func ComputeDistanceStats(values []float64) DistanceStats {
	if len(values) == 0 {
		return DistanceStats{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	variance := 0.0
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(sorted))

	stats := DistanceStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		Median: percentile(sorted, 50),
		Std:    math.Sqrt(variance),
		P25:    percentile(sorted, 25),
		P75:    percentile(sorted, 75),
		P95:    percentile(sorted, 95),
	}
	for _, v := range sorted {
		if v < 0.1 {
			stats.Under01++
		}
		if v < 0.5 {
			stats.Under05++
		}
		if v < 1.0 {
			stats.Under10++
		}
	}
	return stats
}

// percentile interpolates linearly between the two nearest ranks.
// Input must be sorted.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
