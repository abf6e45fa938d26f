package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultChunkKeyEncoding(t *testing.T) {
	e := DefaultChunkKeyEncoding{Sep: "/"}
	require.Equal(t, "c/0/1/2", e.EncodeChunkKey([]int{0, 1, 2}))
	require.Equal(t, "c", e.EncodeChunkKey([]int{}))

	coords, err := e.DecodeChunkKey("c/0/1/2")
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, coords)

	coords, err = e.DecodeChunkKey("c")
	require.NoError(t, err)
	require.Empty(t, coords)
}

func TestV2ChunkKeyEncoding(t *testing.T) {
	e := V2ChunkKeyEncoding{Sep: "."}
	require.Equal(t, "0.1.2", e.EncodeChunkKey([]int{0, 1, 2}))
	require.Equal(t, "0", e.EncodeChunkKey([]int{}))

	coords, err := e.DecodeChunkKey("0.1.2")
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, coords)

	coords, err = e.DecodeChunkKey("0")
	require.NoError(t, err)
	require.Empty(t, coords)
}

func TestDecodeChunkKeyEncodingDefaultsSeparator(t *testing.T) {
	e, err := DecodeChunkKeyEncoding([]byte(`{"name":"default","configuration":{}}`))
	require.NoError(t, err)
	require.Equal(t, "/", e.Separator())

	e, err = DecodeChunkKeyEncoding([]byte(`{"name":"v2","configuration":{}}`))
	require.NoError(t, err)
	require.Equal(t, ".", e.Separator())
}

func TestDecodeChunkKeyEncodingUnknown(t *testing.T) {
	_, err := DecodeChunkKeyEncoding([]byte(`{"name":"bogus","configuration":{}}`))
	require.Error(t, err)
}
