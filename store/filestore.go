package store

import (
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// FileStore adapts a gocloud.dev/blob.Bucket -- filesystem via fileblob,
// or any of gocloud's cloud backends -- to the Store contract. This is the
// same library the teacher package used for its bucket-backed Reader and
// Dataset; gcerrors.NotFound is the "absent key" signal exactly as in the
// teacher's reader.go.
type FileStore struct {
	bucket *blob.Bucket
}

// OpenFileStore opens the bucket at urlstr (e.g. "file:///data/myarray").
func OpenFileStore(ctx context.Context, urlstr string) (*FileStore, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open bucket: %w", err)
	}
	return &FileStore{bucket: bucket}, nil
}

// NewFileStore wraps an already-open bucket.
func NewFileStore(bucket *blob.Bucket) *FileStore {
	return &FileStore{bucket: bucket}
}

func (s *FileStore) Close() error {
	return s.bucket.Close()
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("store: failed to open %q: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("store: failed to read %q: %w", key, err)
	}
	return data, nil
}

// GetPartial resolves negative offsets via a size probe (blob.Attributes),
// the stat primitive this store uses to answer spec §9 Open Question (a):
// how to learn a shard's total length without reading it whole.
func (s *FileStore) GetPartial(ctx context.Context, key string, ranges []ByteRange) ([][]byte, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return make([][]byte, len(ranges)), nil
		}
		return nil, fmt.Errorf("store: failed to stat %q: %w", key, err)
	}
	size := attrs.Size

	out := make([][]byte, len(ranges))
	for i, rg := range ranges {
		start := rg.Offset
		if start < 0 {
			start = size + start
		}
		length := rg.Length
		if length < 0 {
			length = size - start
		}
		if start < 0 || start+length > size {
			return nil, fmt.Errorf("store: range [%d:%d) out of bounds for key %q (size %d)", start, start+length, key, size)
		}

		r, err := s.bucket.NewRangeReader(ctx, key, start, length, nil)
		if err != nil {
			return nil, fmt.Errorf("store: failed to open range of %q: %w", key, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("store: failed to read range of %q: %w", key, err)
		}
		out[i] = data
	}
	return out, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("store: failed to open writer for %q: %w", key, err)
	}
	if _, err := w.Write(value); err != nil {
		w.Close()
		return fmt.Errorf("store: failed to write %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("store: failed to finalize %q: %w", key, err)
	}
	return nil
}

// SetPartial has no primitive support in gocloud.dev/blob (objects are
// written whole), so it falls back to read-modify-write: the documented
// resolution to spec §9 Open Question (b) -- a FileStore-backed shard
// never reclaims dead bytes from repeated partial writes; only a full
// rewrite (a total-slice write) does.
func (s *FileStore) SetPartial(ctx context.Context, key string, writes []PartialWrite) error {
	existing, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	need := int64(len(existing))
	for _, w := range writes {
		if end := w.Offset + int64(len(w.Bytes)); end > need {
			need = end
		}
	}
	if need > int64(len(existing)) {
		grown := make([]byte, need)
		copy(grown, existing)
		existing = grown
	}
	for _, w := range writes {
		copy(existing[w.Offset:], w.Bytes)
	}
	return s.Set(ctx, key, existing)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (s *FileStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: list %q: %w", prefix, err)
		}
		out = append(out, obj.Key)
	}
	return out, nil
}
