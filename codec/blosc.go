package codec

import (
	"context"

	"github.com/mrjoshuak/go-blosc"

	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/valuehandle"
	"github.com/zarrgo/zarrv3/zarrerr"
)

// Blosc implements the "blosc" codec using github.com/mrjoshuak/go-blosc,
// the same library the teacher's reader.go already imports for
// decompression. Decode must read the 16-byte Blosc header embedded in
// the compressed stream to recover the uncompressed length (spec §4.4);
// go-blosc's Decompress does this internally.
type Blosc struct {
	meta metadata.BloscCodec
}

func NewBlosc(m metadata.BloscCodec) *Blosc { return &Blosc{meta: m} }

func (b *Blosc) Encode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	data, err := vh.ToBytes(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return valuehandle.NoneHandle{}, nil
	}

	typesize := b.meta.Typesize
	if typesize == 0 {
		typesize = core.DataType.ItemSize()
	}
	clevel := b.meta.Clevel
	if clevel == 0 {
		clevel = 5
	}

	out, err := blosc.Compress(clevel, b.meta.Shuffle, typesize, data)
	if err != nil {
		return nil, zarrerr.New(zarrerr.CodecError, "Blosc.Encode", err)
	}
	return valuehandle.BufferHandle{Bytes: out}, nil
}

func (b *Blosc) Decode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	data, err := vh.ToBytes(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return valuehandle.NoneHandle{}, nil
	}
	out, err := blosc.Decompress(data)
	if err != nil {
		return nil, zarrerr.New(zarrerr.CodecError, "Blosc.Decode", err)
	}
	return valuehandle.BufferHandle{Bytes: out}, nil
}
