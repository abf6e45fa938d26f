package codec

import (
	"bytes"
	"context"
	"io"

	kgzip "github.com/klauspost/compress/gzip"

	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/valuehandle"
	"github.com/zarrgo/zarrv3/zarrerr"
)

// Gzip implements the "gzip" codec (spec §4.4): a pure byte->byte
// transform. Uses klauspost/compress/gzip -- a drop-in, faster
// implementation of the standard library's gzip -- the same package the
// teacher already depends on for zstd decompression in zarr/dataset.go.
type Gzip struct {
	meta metadata.GzipCodec
}

func NewGzip(m metadata.GzipCodec) *Gzip { return &Gzip{meta: m} }

func (g *Gzip) Encode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	b, err := vh.ToBytes(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return valuehandle.NoneHandle{}, nil
	}

	// Zero is the Go zero value for an unset Level, not a request for
	// NoCompression, so it maps to DefaultCompression rather than 0.
	level := g.meta.Level
	if level == 0 {
		level = kgzip.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := kgzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, zarrerr.New(zarrerr.CodecError, "Gzip.Encode", err)
	}
	if _, err := w.Write(b); err != nil {
		return nil, zarrerr.New(zarrerr.CodecError, "Gzip.Encode", err)
	}
	if err := w.Close(); err != nil {
		return nil, zarrerr.New(zarrerr.CodecError, "Gzip.Encode", err)
	}
	return valuehandle.BufferHandle{Bytes: buf.Bytes()}, nil
}

func (g *Gzip) Decode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	b, err := vh.ToBytes(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return valuehandle.NoneHandle{}, nil
	}
	r, err := kgzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, zarrerr.New(zarrerr.CodecError, "Gzip.Decode", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, zarrerr.New(zarrerr.CodecError, "Gzip.Decode", err)
	}
	return valuehandle.BufferHandle{Bytes: out}, nil
}
