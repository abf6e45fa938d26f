package sharding

import (
	"encoding/binary"
	"math"
)

// IndexEntry is one (offset, length) slot in a shard's tail index (spec
// §3 "Shard internal model", §4.5).
type IndexEntry struct {
	Offset uint64
	Length uint64
}

// Sentinel marks an empty sub-chunk: offset = length = 2^64-1.
var Sentinel = IndexEntry{Offset: math.MaxUint64, Length: math.MaxUint64}

func (e IndexEntry) IsSentinel() bool {
	return e.Offset == math.MaxUint64 && e.Length == math.MaxUint64
}

const entryWidth = 16 // 2 * uint64, little-endian

// EncodeIndex serializes N row-major index entries to their tail byte
// layout.
func EncodeIndex(entries []IndexEntry) []byte {
	buf := make([]byte, len(entries)*entryWidth)
	for i, e := range entries {
		binary.LittleEndian.PutUint64(buf[i*entryWidth:], e.Offset)
		binary.LittleEndian.PutUint64(buf[i*entryWidth+8:], e.Length)
	}
	return buf
}

// DecodeIndex parses a tail-index byte slice (exactly n*16 bytes) into its
// row-major entries.
func DecodeIndex(buf []byte, n int) []IndexEntry {
	entries := make([]IndexEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = IndexEntry{
			Offset: binary.LittleEndian.Uint64(buf[i*entryWidth:]),
			Length: binary.LittleEndian.Uint64(buf[i*entryWidth+8:]),
		}
	}
	return entries
}

// AllSentinel returns n sentinel entries -- the empty-shard starting
// point for a full or partial encode.
func AllSentinel(n int) []IndexEntry {
	entries := make([]IndexEntry, n)
	for i := range entries {
		entries[i] = Sentinel
	}
	return entries
}

// RowMajorIndex linearizes coords over gridShape, last axis varying
// fastest (spec §3: "Index order is row-major over sub-chunk grid
// coordinates").
func RowMajorIndex(coords, gridShape []int) int {
	idx := 0
	for i, c := range coords {
		idx = idx*gridShape[i] + c
	}
	return idx
}

// RowMajorCoords is the inverse of RowMajorIndex.
func RowMajorCoords(idx int, gridShape []int) []int {
	n := len(gridShape)
	coords := make([]int, n)
	for i := n - 1; i >= 0; i-- {
		coords[i] = idx % gridShape[i]
		idx /= gridShape[i]
	}
	return coords
}
