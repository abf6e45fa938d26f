package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrgo/zarrv3/ndarray"
)

func TestDataTypeJSONRoundTrip(t *testing.T) {
	for dt, name := range dataTypeNames {
		b, err := dt.MarshalJSON()
		require.NoError(t, err)
		require.Equal(t, `"`+name+`"`, string(b))

		var got DataType
		require.NoError(t, got.UnmarshalJSON(b))
		require.Equal(t, dt, got)
	}
}

func TestItemSize(t *testing.T) {
	require.Equal(t, 1, Bool.ItemSize())
	require.Equal(t, 4, Float32.ItemSize())
	require.Equal(t, 8, Float64.ItemSize())
	require.Equal(t, 8, Uint64.ItemSize())
}

func TestFillValueBytesRoundTrip(t *testing.T) {
	b, err := FillValueBytes(Float32, float64(3.5))
	require.NoError(t, err)
	require.Len(t, b, 4)

	v, err := FillValueToJSON(Float32, b)
	require.NoError(t, err)
	require.Equal(t, float32(3.5), v)
}

func TestFillValueBytesInt(t *testing.T) {
	b, err := FillValueBytes(Int32, float64(-7))
	require.NoError(t, err)
	v, err := FillValueToJSON(Int32, b)
	require.NoError(t, err)
	require.Equal(t, int32(-7), v)
}

func TestDecodeEncodeArrayMetadataRoundTrip(t *testing.T) {
	doc := []byte(`{
		"zarr_format": 3, "node_type": "array",
		"shape": [4, 4], "data_type": "uint16",
		"chunk_grid": {"name":"regular","configuration":{"chunk_shape":[2,2]}},
		"chunk_key_encoding": {"name":"default","configuration":{"separator":"/"}},
		"fill_value": 0,
		"codecs": [{"name":"gzip","configuration":{"level":5}}],
		"attributes": {"foo": "bar"},
		"dimension_names": null
	}`)

	meta, err := DecodeArrayMetadata(doc)
	require.NoError(t, err)
	require.Equal(t, []int{4, 4}, meta.Shape)
	require.Equal(t, Uint16, meta.DataType)
	require.Equal(t, []int{2, 2}, meta.ChunkGrid.ChunkShape)
	require.Equal(t, DefaultChunkKeyEncoding{Sep: "/"}, meta.ChunkKeyEncoding)
	require.Len(t, meta.Codecs, 1)
	require.Equal(t, "gzip", meta.Codecs[0].CodecName())

	reencoded, err := meta.Encode()
	require.NoError(t, err)

	roundTripped, err := DecodeArrayMetadata(reencoded)
	require.NoError(t, err)
	require.Equal(t, meta.Shape, roundTripped.Shape)
	require.Equal(t, meta.DataType, roundTripped.DataType)
	require.Equal(t, meta.Codecs, roundTripped.Codecs)
}

func TestDecodeArrayMetadataRejectsUnknownCodec(t *testing.T) {
	doc := []byte(`{
		"zarr_format": 3, "node_type": "array",
		"shape": [4], "data_type": "uint8",
		"chunk_grid": {"name":"regular","configuration":{"chunk_shape":[4]}},
		"chunk_key_encoding": {"name":"default","configuration":{"separator":"/"}},
		"fill_value": 0,
		"codecs": [{"name":"mystery","configuration":{}}],
		"attributes": {}
	}`)
	_, err := DecodeArrayMetadata(doc)
	require.Error(t, err)
}

func TestDecodeArrayMetadataRejectsWrongFormat(t *testing.T) {
	doc := []byte(`{"zarr_format": 2, "node_type": "array", "shape": [], "data_type": "uint8",
		"chunk_grid": {"name":"regular","configuration":{"chunk_shape":[]}},
		"chunk_key_encoding": {"name":"default","configuration":{}},
		"fill_value": 0, "codecs": [], "attributes": {}}`)
	_, err := DecodeArrayMetadata(doc)
	require.Error(t, err)
}

func TestValidateCodecsRejectsShardingNotSole(t *testing.T) {
	err := ValidateCodecs([]Codec{
		GzipCodec{Level: 1},
		ShardingIndexedCodec{ChunkShape: []int{2}},
	})
	require.Error(t, err)
}

func TestHasSharding(t *testing.T) {
	sc, ok := HasSharding([]Codec{ShardingIndexedCodec{ChunkShape: []int{2}}})
	require.True(t, ok)
	require.Equal(t, []int{2}, sc.ChunkShape)

	_, ok = HasSharding([]Codec{GzipCodec{Level: 1}})
	require.False(t, ok)
}

func TestCoreDerivesFillValue(t *testing.T) {
	m := &ArrayMetadata{
		Shape:     []int{4},
		DataType:  Float32,
		ChunkGrid: RegularChunkGrid{ChunkShape: []int{4}},
		FillValue: float64(1.5),
	}
	core, err := m.Core(ndarray.C)
	require.NoError(t, err)
	v, err := FillValueToJSON(Float32, core.FillValue)
	require.NoError(t, err)
	require.Equal(t, float32(1.5), v)
}
