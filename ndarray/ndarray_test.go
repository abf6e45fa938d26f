package ndarray

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrides(t *testing.T) {
	require.Equal(t, []int{3, 1}, Strides([]int{2, 3}, C))
	require.Equal(t, []int{1, 2}, Strides([]int{2, 3}, F))
	require.Equal(t, []int{}, Strides(nil, C))
}

func TestFillAndIsAllFill(t *testing.T) {
	a := New([]int{2, 2}, 4, C)
	fill := []byte{1, 2, 3, 4}
	a.Fill(fill)
	require.True(t, a.IsAllFill(fill))

	a.Data[0] = 0
	require.False(t, a.IsAllFill(fill))
}

func TestCopyRegionSubBlock(t *testing.T) {
	src := New([]int{4, 4}, 1, C)
	for i := range src.Data {
		src.Data[i] = byte(i)
	}
	dst := New([]int{2, 2}, 1, C)
	CopyRegion(dst, Region{Start: []int{0, 0}, Shape: []int{2, 2}}, src, Region{Start: []int{1, 1}, Shape: []int{2, 2}})

	// src row-major: element (r,c) = r*4+c
	require.Equal(t, byte(1*4+1), dst.Data[0])
	require.Equal(t, byte(1*4+2), dst.Data[1])
	require.Equal(t, byte(2*4+1), dst.Data[2])
	require.Equal(t, byte(2*4+2), dst.Data[3])
}

func TestCopyRegionZeroRank(t *testing.T) {
	src := &Array{Shape: []int{}, ItemSize: 4, Order: C, Data: []byte{9, 9, 9, 9}}
	dst := New([]int{}, 4, C)
	CopyRegion(dst, Region{Start: []int{}, Shape: []int{}}, src, Region{Start: []int{}, Shape: []int{}})
	require.Equal(t, src.Data, dst.Data)
}

func TestCloneIsIndependent(t *testing.T) {
	a := New([]int{2}, 1, C)
	a.Data[0] = 5
	b := a.Clone()
	b.Data[0] = 9
	require.Equal(t, byte(5), a.Data[0])
	require.Equal(t, byte(9), b.Data[0])
}

func TestTransposeRoundTrip(t *testing.T) {
	a := New([]int{2, 3}, 1, C)
	for i := range a.Data {
		a.Data[i] = byte(i)
	}
	transposed := a.Transpose([]int{1, 0})
	require.Equal(t, []int{3, 2}, transposed.Shape)

	back := transposed.Transpose([]int{1, 0})
	require.Equal(t, a.Data, back.Data)
	require.Equal(t, a.Shape, back.Shape)
}

func TestCount(t *testing.T) {
	require.Equal(t, 1, Count(nil))
	require.Equal(t, 12, Count([]int{3, 4}))
}
