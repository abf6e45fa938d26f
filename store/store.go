// Package store defines the byte-range key/value contract that the array
// orchestrator and the sharding codec are built against. Concrete backends
// (filesystem, object storage, HTTP) are external collaborators; this
// package ships only a reference in-memory store and a filesystem/cloud
// adapter built on gocloud.dev/blob.
package store

import (
	"context"
	"fmt"
)

// ByteRange is a half-open [Offset, Offset+Length) range within a key's
// value. A negative Offset means "relative to the end of the object":
// the range starts at length-|Offset| bytes from the start. Stores that
// cannot resolve negative offsets without a separate stat call should
// document it; FileStore resolves them via Attributes.
type ByteRange struct {
	Offset int64
	Length int64
}

// PartialWrite places Bytes at Offset within a key's value, extending the
// value if necessary. Two PartialWrites to the same key in the same
// SetPartial call must not overlap.
type PartialWrite struct {
	Offset int64
	Bytes  []byte
}

// Store is the minimal async key/value contract described in spec §4.1.
// A nil, nil return from Get/GetPartial's per-range elements means the key
// (or, for GetPartial, the key as a whole) is absent -- never an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetPartial(ctx context.Context, key string, ranges []ByteRange) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetPartial(ctx context.Context, key string, writes []PartialWrite) error
	Delete(ctx context.Context, key string) error
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
}

// ErrNotSupported is returned by ListPrefix (or any other optional
// capability) by stores that don't implement it.
var ErrNotSupported = fmt.Errorf("store: operation not supported")
