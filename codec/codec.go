// Package codec implements the non-sharding codec pipeline (spec §4.4):
// pure encode/decode pairs over value handles, applied in declared order
// on write and reverse order on read. The sharding codec (package
// codec/sharding) implements the same Codec interface but additionally
// supports partial I/O.
package codec

import (
	"context"

	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/valuehandle"
)

// Codec is one stage of the pipeline.
type Codec interface {
	Encode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error)
	Decode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error)
}

// Pipeline is an ordered codec list. Encode applies stages in order
// (first sees the ndarray, last produces the bytes that reach the store);
// Decode applies them in reverse.
type Pipeline []Codec

func (p Pipeline) Encode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	var err error
	for _, c := range p {
		vh, err = c.Encode(ctx, vh, core)
		if err != nil {
			return nil, err
		}
	}
	return vh, nil
}

func (p Pipeline) Decode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	var err error
	for i := len(p) - 1; i >= 0; i-- {
		vh, err = p[i].Decode(ctx, vh, core)
		if err != nil {
			return nil, err
		}
	}
	return vh, nil
}

// FromMetadata builds a Pipeline from a decoded codecs list, dispatching
// each metadata.Codec to its concrete Codec implementation.
func FromMetadata(codecs []metadata.Codec, shardFactory func(metadata.ShardingIndexedCodec) (Codec, error)) (Pipeline, error) {
	out := make(Pipeline, 0, len(codecs))
	for _, c := range codecs {
		switch m := c.(type) {
		case metadata.TransposeCodec:
			out = append(out, NewTranspose(m))
		case metadata.EndianCodec:
			out = append(out, NewEndian(m))
		case metadata.GzipCodec:
			out = append(out, NewGzip(m))
		case metadata.ZstdCodec:
			out = append(out, NewZstd(m))
		case metadata.BloscCodec:
			out = append(out, NewBlosc(m))
		case metadata.ShardingIndexedCodec:
			sc, err := shardFactory(m)
			if err != nil {
				return nil, err
			}
			out = append(out, sc)
		}
	}
	return out, nil
}
