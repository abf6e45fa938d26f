package morton

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrder2D(t *testing.T) {
	got := Order([]int{2, 2})
	want := [][]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	require.Equal(t, want, got)
}

func TestOrder3D(t *testing.T) {
	got := Order([]int{2, 2, 2})
	want := [][]int{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
	}
	require.Equal(t, want, got)
}

func TestOrder4D(t *testing.T) {
	got := Order([]int{2, 2, 2, 2})
	want := [][]int{
		{0, 0, 0, 0}, {1, 0, 0, 0}, {0, 1, 0, 0}, {1, 1, 0, 0},
		{0, 0, 1, 0}, {1, 0, 1, 0}, {0, 1, 1, 0}, {1, 1, 1, 0},
		{0, 0, 0, 1}, {1, 0, 0, 1}, {0, 1, 0, 1}, {1, 1, 0, 1},
		{0, 0, 1, 1}, {1, 0, 1, 1}, {0, 1, 1, 1}, {1, 1, 1, 1},
	}
	require.Equal(t, want, got)
}

func TestOrderIsPermutation(t *testing.T) {
	got := Order([]int{3, 4})
	require.Len(t, got, 12)
	seen := make(map[[2]int]bool)
	for _, c := range got {
		seen[[2]int{c[0], c[1]}] = true
	}
	require.Len(t, seen, 12)
}

func TestCodeZeroRank(t *testing.T) {
	require.Equal(t, uint64(0), Code(nil))
}
