package codec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/valuehandle"
)

// Shuffle=0 (no shuffle) avoids the upstream go-blosc un-shuffling bug the
// teacher's reader_test.go documents and skips around for "_shuffle"
// testdata variations; a round trip without shuffling still exercises the
// real compress/decompress path.
func TestBloscRoundTrip(t *testing.T) {
	ctx := context.Background()
	core := coreFor([]int{8})
	arr := arrayOf([]byte{1, 2, 3, 4, 5, 6, 7, 8}, []int{8})

	b := NewBlosc(metadata.BloscCodec{Cname: "lz4", Clevel: 5, Shuffle: 0, Typesize: 1})
	encoded, err := b.Encode(ctx, valuehandle.ArrayHandle{Array: arr}, core)
	require.NoError(t, err)
	encodedBytes, err := encoded.ToBytes(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, encodedBytes)

	decoded, err := b.Decode(ctx, valuehandle.BufferHandle{Bytes: encodedBytes}, core)
	require.NoError(t, err)
	out, err := decoded.ToBytes(ctx)
	require.NoError(t, err)
	require.Equal(t, arr.Data, out)
}

func TestBloscDefaultsTypesizeFromDataType(t *testing.T) {
	ctx := context.Background()
	core := metadata.CoreArrayMetadata{Shape: []int{2}, ChunkShape: []int{2}, DataType: metadata.Uint16, FillValue: []byte{0, 0}, Order: 0}
	arr := arrayOf([]byte{1, 0, 2, 0}, []int{2})
	arr.ItemSize = 2

	b := NewBlosc(metadata.BloscCodec{Cname: "lz4", Clevel: 5, Shuffle: 0})
	encoded, err := b.Encode(ctx, valuehandle.ArrayHandle{Array: arr}, core)
	require.NoError(t, err)
	encodedBytes, err := encoded.ToBytes(ctx)
	require.NoError(t, err)

	decoded, err := b.Decode(ctx, valuehandle.BufferHandle{Bytes: encodedBytes}, core)
	require.NoError(t, err)
	out, err := decoded.ToBytes(ctx)
	require.NoError(t, err)
	require.Equal(t, arr.Data, out)
}

func TestBloscAbsentValueIsNone(t *testing.T) {
	ctx := context.Background()
	core := coreFor([]int{4})

	b := NewBlosc(metadata.BloscCodec{Cname: "lz4", Clevel: 1})
	encoded, err := b.Encode(ctx, valuehandle.NoneHandle{}, core)
	require.NoError(t, err)
	out, err := encoded.ToBytes(ctx)
	require.NoError(t, err)
	require.Nil(t, out)
}
