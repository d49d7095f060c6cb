package geom

import (
	"math"

	"github.com/EliCDavis/vector/vector3"
)

// Cube returns an axis-aligned cube with the given edge length, centered
// at the origin. Always 8 vertices and 12 outward-facing triangles.
func Cube(size float64) *Mesh {
	h := size / 2

	vertices := []vector3.Float64{
		vector3.New(-h, -h, -h),
		vector3.New(h, -h, -h),
		vector3.New(h, h, -h),
		vector3.New(-h, h, -h),
		vector3.New(-h, -h, h),
		vector3.New(h, -h, h),
		vector3.New(h, h, h),
		vector3.New(-h, h, h),
	}

	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2},
		{4, 5, 6}, {4, 6, 7},
		{0, 1, 5}, {0, 5, 4},
		{2, 3, 7}, {2, 7, 6},
		{0, 4, 7}, {0, 7, 3},
		{1, 2, 6}, {1, 6, 5},
	}

	return NewMesh(vertices, faces)
}

// Icosphere returns a subdivided icosahedron with radius size/2. Each
// subdivision level splits every triangle into four.
func Icosphere(size float64, subdivisions int) *Mesh {
	radius := size / 2
	t := (1 + math.Sqrt(5)) / 2

	raw := [][3]float64{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}

	vertices := make([]vector3.Float64, 0, len(raw))
	for _, p := range raw {
		vertices = append(vertices, vector3.New(p[0], p[1], p[2]).Normalized().Scale(radius))
	}

	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for level := 0; level < subdivisions; level++ {
		midpoints := make(map[[2]int]int)

		midpoint := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if idx, ok := midpoints[key]; ok {
				return idx
			}
			mid := vertices[a].Add(vertices[b]).Scale(0.5).Normalized().Scale(radius)
			vertices = append(vertices, mid)
			idx := len(vertices) - 1
			midpoints[key] = idx
			return idx
		}

		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				[3]int{f[0], ab, ca},
				[3]int{f[1], bc, ab},
				[3]int{f[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		faces = next
	}

	return NewMesh(vertices, faces)
}

// Plane returns a size×size grid in the Z=0 plane, centered at the
// origin. subdivisions is the segment count per side (minimum 1), so n
// subdivisions yields (n+1)² vertices and 2n² triangles.
func Plane(size float64, subdivisions int) *Mesh {
	segments := subdivisions
	if segments < 1 {
		segments = 1
	}

	side := segments + 1
	step := size / float64(segments)
	half := size / 2

	vertices := make([]vector3.Float64, 0, side*side)
	for j := 0; j < side; j++ {
		for i := 0; i < side; i++ {
			vertices = append(vertices, vector3.New(
				-half+float64(i)*step,
				-half+float64(j)*step,
				0.0,
			))
		}
	}

	faces := make([][3]int, 0, 2*segments*segments)
	for j := 0; j < segments; j++ {
		for i := 0; i < segments; i++ {
			v0 := j*side + i
			v1 := v0 + 1
			v2 := v0 + side
			v3 := v2 + 1
			faces = append(faces, [3]int{v0, v1, v3}, [3]int{v0, v3, v2})
		}
	}

	return NewMesh(vertices, faces)
}
