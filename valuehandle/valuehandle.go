// Package valuehandle implements the value-handle sum type (spec §4.3,
// §9 "value handles as sum type"): an opaque carrier for "the bytes (or
// array) at some point in the codec pipeline" that keeps File handles
// byte-range-capable so the sharding codec can issue partial I/O instead
// of reading a whole shard.
package valuehandle

import (
	"context"

	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/ndarray"
	"github.com/zarrgo/zarrv3/store"
	"github.com/zarrgo/zarrv3/zarrerr"
)

// ValueHandle is implemented by NoneHandle, BufferHandle, ArrayHandle, and
// FileHandle.
type ValueHandle interface {
	ToBytes(ctx context.Context) ([]byte, error)
	ToArray(ctx context.Context, dt metadata.DataType, shape []int, order ndarray.Order) (*ndarray.Array, error)
	GetPartial(ctx context.Context, ranges []store.ByteRange) ([][]byte, error)
	// Set replaces this handle's backing value. Only FileHandle (a real
	// sink) supports it; other variants are produced, read-only pipeline
	// stages.
	Set(ctx context.Context, v ValueHandle) error
	SetPartial(ctx context.Context, writes []store.PartialWrite) error
}

var errNotASink = zarrerr.Newf(zarrerr.CodecError, "ValueHandle.Set", "this value handle variant is not a writable sink")

// NoneHandle represents an absent value -- a missing chunk key, read as
// fill (spec §3 invariant: "missing key on read = fill").
type NoneHandle struct{}

func (NoneHandle) ToBytes(context.Context) ([]byte, error) { return nil, nil }

func (NoneHandle) ToArray(context.Context, metadata.DataType, []int, ndarray.Order) (*ndarray.Array, error) {
	return nil, nil
}

func (NoneHandle) GetPartial(_ context.Context, ranges []store.ByteRange) ([][]byte, error) {
	return make([][]byte, len(ranges)), nil
}

func (NoneHandle) Set(context.Context, ValueHandle) error                 { return errNotASink }
func (NoneHandle) SetPartial(context.Context, []store.PartialWrite) error { return errNotASink }

// BufferHandle carries an already-materialized byte slice (e.g. after
// compression, before it's written out).
type BufferHandle struct {
	Bytes []byte
}

func (h BufferHandle) ToBytes(context.Context) ([]byte, error) { return h.Bytes, nil }

func (h BufferHandle) ToArray(_ context.Context, dt metadata.DataType, shape []int, order ndarray.Order) (*ndarray.Array, error) {
	return bytesToArray(h.Bytes, dt, shape, order)
}

func (h BufferHandle) GetPartial(_ context.Context, ranges []store.ByteRange) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, length := resolveRange(r, int64(len(h.Bytes)))
		out[i] = h.Bytes[start : start+length]
	}
	return out, nil
}

func (h BufferHandle) Set(context.Context, ValueHandle) error                 { return errNotASink }
func (h BufferHandle) SetPartial(context.Context, []store.PartialWrite) error { return errNotASink }

// ArrayHandle carries a decoded ndarray.Array -- the form the first codec
// in the pipeline receives on encode, and the last produces on decode.
type ArrayHandle struct {
	Array *ndarray.Array
}

func (h ArrayHandle) ToBytes(context.Context) ([]byte, error) {
	return h.Array.Data, nil
}

func (h ArrayHandle) ToArray(_ context.Context, _ metadata.DataType, _ []int, _ ndarray.Order) (*ndarray.Array, error) {
	return h.Array, nil
}

func (h ArrayHandle) GetPartial(_ context.Context, ranges []store.ByteRange) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, length := resolveRange(r, int64(len(h.Array.Data)))
		out[i] = h.Array.Data[start : start+length]
	}
	return out, nil
}

func (h ArrayHandle) Set(context.Context, ValueHandle) error                 { return errNotASink }
func (h ArrayHandle) SetPartial(context.Context, []store.PartialWrite) error { return errNotASink }

// FileHandle is a lazy, opaque reference to a store key: bytes are only
// fetched when ToBytes/ToArray/GetPartial are actually called. This is
// what lets the sharding codec's partial decode issue a couple of
// byte-range store.GetPartial calls instead of reading the whole shard.
type FileHandle struct {
	Store store.Store
	Key   string
}

func (h FileHandle) ToBytes(ctx context.Context) ([]byte, error) {
	b, err := h.Store.Get(ctx, h.Key)
	if err != nil {
		return nil, zarrerr.New(zarrerr.StoreIOError, "FileHandle.ToBytes", err)
	}
	return b, nil
}

func (h FileHandle) ToArray(ctx context.Context, dt metadata.DataType, shape []int, order ndarray.Order) (*ndarray.Array, error) {
	b, err := h.ToBytes(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	return bytesToArray(b, dt, shape, order)
}

func (h FileHandle) GetPartial(ctx context.Context, ranges []store.ByteRange) ([][]byte, error) {
	out, err := h.Store.GetPartial(ctx, h.Key, ranges)
	if err != nil {
		return nil, zarrerr.New(zarrerr.StoreIOError, "FileHandle.GetPartial", err)
	}
	return out, nil
}

// Set writes v's bytes to the store (nil bytes -- a NoneHandle -- deletes
// the key), the chunk-key state machine of spec §4.6: Absent <->
// Present(encoded).
func (h FileHandle) Set(ctx context.Context, v ValueHandle) error {
	b, err := v.ToBytes(ctx)
	if err != nil {
		return err
	}
	if b == nil {
		if err := h.Store.Delete(ctx, h.Key); err != nil {
			return zarrerr.New(zarrerr.StoreIOError, "FileHandle.Set", err)
		}
		return nil
	}
	if err := h.Store.Set(ctx, h.Key, b); err != nil {
		return zarrerr.New(zarrerr.StoreIOError, "FileHandle.Set", err)
	}
	return nil
}

func (h FileHandle) SetPartial(ctx context.Context, writes []store.PartialWrite) error {
	if err := h.Store.SetPartial(ctx, h.Key, writes); err != nil {
		return zarrerr.New(zarrerr.StoreIOError, "FileHandle.SetPartial", err)
	}
	return nil
}

func resolveRange(r store.ByteRange, size int64) (int64, int64) {
	start := r.Offset
	if start < 0 {
		start = size + start
	}
	length := r.Length
	if length < 0 {
		length = size - start
	}
	return start, length
}

func bytesToArray(b []byte, dt metadata.DataType, shape []int, order ndarray.Order) (*ndarray.Array, error) {
	itemSize := dt.ItemSize()
	want := ndarray.Count(shape) * itemSize
	if len(b) != want {
		return nil, zarrerr.Newf(zarrerr.CodecError, "bytesToArray", "decoded byte length %d != expected %d for shape %v dtype %v", len(b), want, shape, dt)
	}
	return &ndarray.Array{Shape: append([]int(nil), shape...), ItemSize: itemSize, Order: order, Data: b}, nil
}
