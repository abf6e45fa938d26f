package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-process Store backed by a mutex-guarded map. It is the
// reference store used throughout this repo's tests: unlike FileStore it
// supports true partial writes (slice extension in place) without a
// read-modify-write round trip, which keeps the partial-write-locality
// property (spec §8 property 4) cheap to assert.
type MemStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemStore) GetPartial(_ context.Context, key string, ranges []ByteRange) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return make([][]byte, len(ranges)), nil
	}

	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start := r.Offset
		if start < 0 {
			start = int64(len(v)) + start
		}
		length := r.Length
		if length < 0 {
			length = int64(len(v)) - start
		}
		end := start + length
		if start < 0 || end > int64(len(v)) || start > end {
			return nil, fmt.Errorf("store: range [%d:%d) out of bounds for key %q (len %d)", start, end, key, len(v))
		}
		buf := make([]byte, length)
		copy(buf, v[start:end])
		out[i] = buf
	}
	return out, nil
}

func (m *MemStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemStore) SetPartial(_ context.Context, key string, writes []PartialWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.data[key]
	need := int64(len(v))
	for _, w := range writes {
		if end := w.Offset + int64(len(w.Bytes)); end > need {
			need = end
		}
	}
	if need > int64(len(v)) {
		grown := make([]byte, need)
		copy(grown, v)
		v = grown
	}
	for _, w := range writes {
		copy(v[w.Offset:], w.Bytes)
	}
	m.data[key] = v
	return nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemStore) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Len reports the size in bytes of key's current value, or -1 if absent.
// Test-only convenience mirroring the "stat" capability a real store would
// expose for shard length discovery (spec §9 Open Question (a)).
func (m *MemStore) Len(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return -1
	}
	return len(v)
}
