// Package indexing maps an n-dimensional slice selection onto the set of
// chunks it touches, per spec §4.2. BasicIndexer is reused unmodified by
// the sharding codec to enumerate sub-chunks within one shard (spec §4.5
// step 1), with shape=outer chunk shape and chunkShape=sub-chunk shape.
package indexing

import (
	"github.com/zarrgo/zarrv3/zarrerr"
)

// AxisSlice is a half-open, unit-step range [Start, Stop) along one axis.
type AxisSlice struct {
	Start, Stop int
}

// DimSelector is one axis of a user selection before normalization: Start
// and Stop are pointers so "missing" (full axis) can be told apart from
// an explicit 0. Step must be 1 if present; any other step is rejected
// (spec §4.2, §9 Open Question (c)).
type DimSelector struct {
	Start *int
	Stop  *int
	Step  *int
}

// Full returns a DimSelector selecting the entire axis.
func Full() DimSelector { return DimSelector{} }

// Index returns a DimSelector selecting a single index i (collapses the
// axis to length 1 in the result, mirroring a point index).
func Index(i int) DimSelector {
	stop := i + 1
	return DimSelector{Start: &i, Stop: &stop}
}

// Range returns a DimSelector selecting [start, stop).
func Range(start, stop int) DimSelector {
	return DimSelector{Start: &start, Stop: &stop}
}

// Selection is a per-axis list of DimSelectors. A shorter Selection is
// broadcast to the array's rank by treating missing trailing axes as Full.
type Selection []DimSelector

// ChunkEntry is one (chunk, chunk-local selection, output-local selection)
// tuple produced by enumeration (spec §4.2).
type ChunkEntry struct {
	ChunkCoords []int
	ChunkSel    []AxisSlice
	OutSel      []AxisSlice
}

// BasicIndexer normalizes a Selection against shape/chunkShape and
// enumerates the chunks it intersects.
type BasicIndexer struct {
	shape      []int
	chunkShape []int
	starts     []int // normalized, concrete global start per axis
	stops      []int // normalized, concrete global stop per axis
}

// New normalizes sel against shape and chunkShape (spec §4.2). Non-unit
// step, out-of-range bounds, or a rank mismatch are InvalidSelection
// errors.
func New(sel Selection, shape, chunkShape []int) (*BasicIndexer, error) {
	rank := len(shape)
	if len(chunkShape) != rank {
		return nil, zarrerr.Newf(zarrerr.InvalidSelection, "indexing.New", "chunk_shape rank %d != shape rank %d", len(chunkShape), rank)
	}
	if len(sel) > rank {
		return nil, zarrerr.Newf(zarrerr.InvalidSelection, "indexing.New", "selection rank %d exceeds array rank %d", len(sel), rank)
	}

	starts := make([]int, rank)
	stops := make([]int, rank)

	for i := 0; i < rank; i++ {
		var d DimSelector
		if i < len(sel) {
			d = sel[i]
		} else {
			d = Full()
		}
		if d.Step != nil && *d.Step != 1 {
			return nil, zarrerr.Newf(zarrerr.InvalidSelection, "indexing.New", "axis %d: step %d unsupported, only 1 is", i, *d.Step)
		}

		start := 0
		if d.Start != nil {
			start = *d.Start
		}
		stop := shape[i]
		if d.Stop != nil {
			stop = *d.Stop
		}
		if start < 0 || stop > shape[i] || start > stop {
			return nil, zarrerr.Newf(zarrerr.InvalidSelection, "indexing.New",
				"axis %d: selection [%d:%d) out of bounds for shape %d", i, start, stop, shape[i])
		}
		starts[i] = start
		stops[i] = stop
	}

	return &BasicIndexer{shape: shape, chunkShape: chunkShape, starts: starts, stops: stops}, nil
}

// Shape returns the output shape: stop-start along every axis.
func (ix *BasicIndexer) Shape() []int {
	out := make([]int, len(ix.starts))
	for i := range out {
		out[i] = ix.stops[i] - ix.starts[i]
	}
	return out
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// Enumerate returns every (chunk, chunk-selection, out-selection) tuple
// the selection touches (spec §4.2). Order is unspecified.
func (ix *BasicIndexer) Enumerate() []ChunkEntry {
	rank := len(ix.starts)
	if rank == 0 {
		return []ChunkEntry{{ChunkCoords: []int{}, ChunkSel: []AxisSlice{}, OutSel: []AxisSlice{}}}
	}

	chunkRangeStart := make([]int, rank)
	chunkRangeStop := make([]int, rank)
	for i := 0; i < rank; i++ {
		chunkRangeStart[i] = ix.starts[i] / ix.chunkShape[i]
		if ix.stops[i] == ix.starts[i] {
			chunkRangeStop[i] = chunkRangeStart[i]
		} else {
			chunkRangeStop[i] = ceilDiv(ix.stops[i], ix.chunkShape[i])
		}
	}

	var out []ChunkEntry
	coords := make([]int, rank)

	var rec func(dim int)
	rec = func(dim int) {
		if dim == rank {
			chunkCoords := make([]int, rank)
			copy(chunkCoords, coords)
			chunkSel := make([]AxisSlice, rank)
			outSel := make([]AxisSlice, rank)
			for i := 0; i < rank; i++ {
				origin := chunkCoords[i] * ix.chunkShape[i]
				ovStart := max(ix.starts[i], origin)
				ovStop := min(ix.stops[i], origin+ix.chunkShape[i])
				chunkSel[i] = AxisSlice{Start: ovStart - origin, Stop: ovStop - origin}
				outSel[i] = AxisSlice{Start: ovStart - ix.starts[i], Stop: ovStop - ix.starts[i]}
			}
			out = append(out, ChunkEntry{ChunkCoords: chunkCoords, ChunkSel: chunkSel, OutSel: outSel})
			return
		}
		for k := chunkRangeStart[dim]; k < chunkRangeStop[dim]; k++ {
			coords[dim] = k
			rec(dim + 1)
		}
	}
	rec(0)
	return out
}

// IsTotalSlice reports whether sel covers an entire chunk of chunkShape
// along every axis (spec §4.2).
func IsTotalSlice(sel []AxisSlice, chunkShape []int) bool {
	if len(sel) != len(chunkShape) {
		return false
	}
	for i, s := range sel {
		if s.Start != 0 || s.Stop != chunkShape[i] {
			return false
		}
	}
	return true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
