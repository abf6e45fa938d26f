package indexing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnumerateBoundary(t *testing.T) {
	// shape=(10,), chunk_shape=(4,), sel=2:9
	ix, err := New(Selection{Range(2, 9)}, []int{10}, []int{4})
	require.NoError(t, err)
	require.Equal(t, []int{7}, ix.Shape())

	entries := ix.Enumerate()
	require.Len(t, entries, 3)

	byChunk := make(map[int]ChunkEntry)
	for _, e := range entries {
		byChunk[e.ChunkCoords[0]] = e
	}
	require.Contains(t, byChunk, 0)
	require.Contains(t, byChunk, 1)
	require.Contains(t, byChunk, 2)

	require.Equal(t, AxisSlice{Start: 2, Stop: 4}, byChunk[0].ChunkSel[0])
	require.Equal(t, AxisSlice{Start: 0, Stop: 2}, byChunk[0].OutSel[0])

	require.Equal(t, AxisSlice{Start: 0, Stop: 4}, byChunk[1].ChunkSel[0])
	require.Equal(t, AxisSlice{Start: 2, Stop: 6}, byChunk[1].OutSel[0])

	require.Equal(t, AxisSlice{Start: 0, Stop: 1}, byChunk[2].ChunkSel[0])
	require.Equal(t, AxisSlice{Start: 6, Stop: 7}, byChunk[2].OutSel[0])
}

func TestNewRejectsNonUnitStep(t *testing.T) {
	step := 2
	_, err := New(Selection{{Start: nil, Stop: nil, Step: &step}}, []int{10}, []int{4})
	require.Error(t, err)
}

func TestNewRejectsOutOfBounds(t *testing.T) {
	_, err := New(Selection{Range(5, 20)}, []int{10}, []int{4})
	require.Error(t, err)
}

func TestNewBroadcastsMissingAxes(t *testing.T) {
	ix, err := New(Selection{Range(0, 2)}, []int{4, 4}, []int{2, 2})
	require.NoError(t, err)
	require.Equal(t, []int{2, 4}, ix.Shape())
}

func TestIsTotalSlice(t *testing.T) {
	require.True(t, IsTotalSlice([]AxisSlice{{Start: 0, Stop: 4}}, []int{4}))
	require.False(t, IsTotalSlice([]AxisSlice{{Start: 1, Stop: 4}}, []int{4}))
	require.False(t, IsTotalSlice([]AxisSlice{{Start: 0, Stop: 3}}, []int{4}))
}

func TestEnumerateZeroRank(t *testing.T) {
	ix, err := New(Selection{}, []int{}, []int{})
	require.NoError(t, err)
	entries := ix.Enumerate()
	require.Len(t, entries, 1)
	require.Empty(t, entries[0].ChunkCoords)
}
