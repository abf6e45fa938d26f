// Package morton computes Z-curve (Morton) orderings of n-dimensional
// grid coordinates, used by the sharding codec to choose the build order
// of sub-chunk payloads within a shard (spec §4.5, §8 property 6).
package morton

// Code computes the Morton code of coords by interleaving their bits
// LSB-first: axis 0 contributes the lowest bit, axis 1 the next, and so
// on, round-robining through axes for each successive bit position. This
// is the generalization of the classic 2D/3D Z-order interleave to
// arbitrary rank and non-uniform per-axis extents.
func Code(coords []int) uint64 {
	var code uint64
	n := len(coords)
	if n == 0 {
		return 0
	}
	bit := uint(0)
	remaining := make([]int, n)
	copy(remaining, coords)
	for {
		anyNonZero := false
		for _, c := range remaining {
			if c != 0 {
				anyNonZero = true
				break
			}
		}
		if !anyNonZero {
			break
		}
		for axis := 0; axis < n; axis++ {
			if remaining[axis]&1 != 0 {
				code |= 1 << (bit*uint(n) + uint(axis))
			}
			remaining[axis] >>= 1
		}
		bit++
	}
	return code
}

// Order enumerates every coordinate vector within gridShape (a Cartesian
// product [0,gridShape[0]) x [0,gridShape[1]) x ...) sorted by ascending
// Morton code. For gridShape=(2,2) this yields
// [(0,0),(1,0),(0,1),(1,1)]; for (2,2,2) it extends the same pattern, per
// spec §8 property 6.
func Order(gridShape []int) [][]int {
	total := 1
	for _, d := range gridShape {
		total *= d
	}
	coords := make([][]int, 0, total)

	n := len(gridShape)
	cur := make([]int, n)
	var rec func(dim int)
	rec = func(dim int) {
		if dim == n {
			cp := make([]int, n)
			copy(cp, cur)
			coords = append(coords, cp)
			return
		}
		for i := 0; i < gridShape[dim]; i++ {
			cur[dim] = i
			rec(dim + 1)
		}
	}
	rec(0)

	codes := make([]uint64, len(coords))
	for i, c := range coords {
		codes[i] = Code(c)
	}

	// Insertion sort: grids are small (sub-chunk counts per shard), and a
	// stable, allocation-free sort keeps this easy to reason about next to
	// the spec's worked examples.
	for i := 1; i < len(coords); i++ {
		j := i
		for j > 0 && codes[j-1] > codes[j] {
			codes[j-1], codes[j] = codes[j], codes[j-1]
			coords[j-1], coords[j] = coords[j], coords[j-1]
			j--
		}
	}
	return coords
}
