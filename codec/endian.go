package codec

import (
	"context"

	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/valuehandle"
)

// Endian implements the "endian" codec (spec §4.4): swaps element byte
// order when the declared storage endian differs from the host; the host
// is assumed little-endian throughout this module, matching every other
// on-wire format here (zarr.json, the shard index).
type Endian struct {
	meta metadata.EndianCodec
}

func NewEndian(m metadata.EndianCodec) *Endian { return &Endian{meta: m} }

func (e *Endian) swap(data []byte, itemSize int) []byte {
	if e.meta.Endian != "big" || itemSize <= 1 {
		return data
	}
	out := make([]byte, len(data))
	for off := 0; off < len(data); off += itemSize {
		for i := 0; i < itemSize; i++ {
			out[off+i] = data[off+itemSize-1-i]
		}
	}
	return out
}

func (e *Endian) Encode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	b, err := vh.ToBytes(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return valuehandle.NoneHandle{}, nil
	}
	return valuehandle.BufferHandle{Bytes: e.swap(b, core.DataType.ItemSize())}, nil
}

func (e *Endian) Decode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	b, err := vh.ToBytes(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return valuehandle.NoneHandle{}, nil
	}
	return valuehandle.BufferHandle{Bytes: e.swap(b, core.DataType.ItemSize())}, nil
}
