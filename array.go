// Package zarrv3 implements the Array orchestrator (spec §4.6): create,
// open, get, and set compose the indexer, the codec pipeline (including
// the sharding codec's partial paths), and a key/value store into the
// full n-dimensional array contract.
package zarrv3

import (
	"context"
	"sync"

	"github.com/zarrgo/zarrv3/codec"
	"github.com/zarrgo/zarrv3/codec/sharding"
	"github.com/zarrgo/zarrv3/indexing"
	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/ndarray"
	"github.com/zarrgo/zarrv3/store"
	"github.com/zarrgo/zarrv3/valuehandle"
	"github.com/zarrgo/zarrv3/zarrerr"
)

// Array is an open handle on one zarr.json-described array within a
// store, ready for Get/Set.
type Array struct {
	store store.Store
	path  string
	meta  *metadata.ArrayMetadata
	core  metadata.CoreArrayMetadata

	pipeline codec.Pipeline
	shard    *sharding.Sharding // non-nil iff codecs == [sharding_indexed]
}

// maxConcurrentChunks bounds per-chunk fan-out (spec §9 "suggested default
// min(32, chunks)").
const maxConcurrentChunks = 32

func newArray(st store.Store, path string, meta *metadata.ArrayMetadata, order ndarray.Order) (*Array, error) {
	core, err := meta.Core(order)
	if err != nil {
		return nil, err
	}

	var shard *sharding.Sharding
	pipeline, err := codec.FromMetadata(meta.Codecs, func(m metadata.ShardingIndexedCodec) (codec.Codec, error) {
		sc, err := sharding.New(m)
		if err != nil {
			return nil, err
		}
		shard = sc
		return sc, nil
	})
	if err != nil {
		return nil, err
	}

	return &Array{store: st, path: path, meta: meta, core: core, pipeline: pipeline, shard: shard}, nil
}

// Create builds a new array's metadata, persists zarr.json, and returns a
// handle open for Get/Set (spec §4.6 "create").
func Create(
	ctx context.Context,
	st store.Store,
	path string,
	shape []int,
	dataType metadata.DataType,
	chunkShape []int,
	fillValue any,
	codecs []metadata.Codec,
	chunkKeyEncoding metadata.ChunkKeyEncoding,
	attributes map[string]any,
	dimensionNames []string,
	order ndarray.Order,
) (*Array, error) {
	if chunkKeyEncoding == nil {
		chunkKeyEncoding = metadata.DefaultChunkKeyEncoding{Sep: "/"}
	}
	if attributes == nil {
		attributes = map[string]any{}
	}
	if len(chunkShape) != len(shape) {
		return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "Create", "chunk_shape rank %d != shape rank %d", len(chunkShape), len(shape))
	}
	if err := metadata.ValidateCodecs(codecs); err != nil {
		return nil, err
	}

	meta := &metadata.ArrayMetadata{
		ZarrFormat:       3,
		NodeType:         "array",
		Shape:            shape,
		DataType:         dataType,
		ChunkGrid:        metadata.RegularChunkGrid{ChunkShape: chunkShape},
		ChunkKeyEncoding: chunkKeyEncoding,
		FillValue:        fillValue,
		Codecs:           codecs,
		Attributes:       attributes,
		DimensionNames:   dimensionNames,
	}

	a, err := newArray(st, path, meta, order)
	if err != nil {
		return nil, err
	}
	if err := a.saveMetadata(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Open reads and structurally decodes an existing zarr.json (spec §4.6
// "open"). The runtime order preference defaults to C; use OpenWithOrder
// for F-ordered consumption.
func Open(ctx context.Context, st store.Store, path string) (*Array, error) {
	return OpenWithOrder(ctx, st, path, ndarray.C)
}

// OpenWithOrder is Open with an explicit runtime order preference. Order
// is never persisted in zarr.json (spec §3: it is a "core runtime view"
// field, not part of the on-wire metadata document).
func OpenWithOrder(ctx context.Context, st store.Store, path string, order ndarray.Order) (*Array, error) {
	key := path + "/" + metadata.ZarrJSON
	data, err := st.Get(ctx, key)
	if err != nil {
		return nil, zarrerr.New(zarrerr.StoreIOError, "Open", err)
	}
	if data == nil {
		return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "Open", "no zarr.json at %q", key)
	}
	meta, err := metadata.DecodeArrayMetadata(data)
	if err != nil {
		return nil, err
	}
	return newArray(st, path, meta, order)
}

func (a *Array) saveMetadata(ctx context.Context) error {
	data, err := a.meta.Encode()
	if err != nil {
		return zarrerr.New(zarrerr.InvalidMetadata, "saveMetadata", err)
	}
	if err := a.store.Set(ctx, a.path+"/"+metadata.ZarrJSON, data); err != nil {
		return zarrerr.New(zarrerr.StoreIOError, "saveMetadata", err)
	}
	return nil
}

// Metadata returns the array's decoded zarr.json document.
func (a *Array) Metadata() *metadata.ArrayMetadata { return a.meta }

// Shape returns the array's overall shape.
func (a *Array) Shape() []int { return a.core.Shape }

// DataType returns the array's element type.
func (a *Array) DataType() metadata.DataType { return a.core.DataType }

func (a *Array) chunkKey(coords []int) string {
	return a.path + "/" + a.meta.ChunkKeyEncoding.EncodeChunkKey(coords)
}

// Get reads sel, returning an array of indexer.Shape() filled with
// fill_value wherever no chunk data was present (spec §4.6 "get").
func (a *Array) Get(ctx context.Context, sel indexing.Selection) (*ndarray.Array, error) {
	ix, err := indexing.New(sel, a.core.Shape, a.core.ChunkShape)
	if err != nil {
		return nil, err
	}
	out := ndarray.New(ix.Shape(), a.core.DataType.ItemSize(), a.core.Order)
	out.Fill(a.core.FillValue)

	entries := ix.Enumerate()
	if err := a.runConcurrent(ctx, len(entries), func(i int) error {
		return a.getChunk(ctx, entries[i], out)
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Array) getChunk(ctx context.Context, e indexing.ChunkEntry, out *ndarray.Array) error {
	fh := valuehandle.FileHandle{Store: a.store, Key: a.chunkKey(e.ChunkCoords)}

	if a.shard != nil {
		decoded, err := a.shard.DecodePartial(ctx, fh, e.ChunkSel, a.core)
		if err != nil {
			return err
		}
		arr, err := decoded.ToArray(ctx, a.core.DataType, axisSlicesShape(e.ChunkSel), a.core.Order)
		if err != nil {
			return err
		}
		if arr == nil {
			return nil // absent shard: out already holds fill
		}
		ndarray.CopyRegion(out, axisSlicesToRegion(e.OutSel), arr, fullRegion(arr.Shape))
		return nil
	}

	decoded, err := a.pipeline.Decode(ctx, fh, a.core)
	if err != nil {
		return err
	}
	arr, err := decoded.ToArray(ctx, a.core.DataType, a.core.ChunkShape, a.core.Order)
	if err != nil {
		return err
	}
	if arr == nil {
		return nil // absent chunk: out already holds fill
	}
	ndarray.CopyRegion(out, axisSlicesToRegion(e.OutSel), arr, axisSlicesToRegion(e.ChunkSel))
	return nil
}

// Set writes value into sel (spec §4.6 "set"). value's shape must equal
// the selection's indexer shape.
func (a *Array) Set(ctx context.Context, sel indexing.Selection, value *ndarray.Array) error {
	ix, err := indexing.New(sel, a.core.Shape, a.core.ChunkShape)
	if err != nil {
		return err
	}
	want := ix.Shape()
	if !shapeEqual(value.Shape, want) {
		return zarrerr.Newf(zarrerr.InvalidSelection, "Array.Set", "value shape %v does not match selection shape %v", value.Shape, want)
	}

	entries := ix.Enumerate()
	return a.runConcurrent(ctx, len(entries), func(i int) error {
		return a.setChunk(ctx, entries[i], value)
	})
}

func (a *Array) setChunk(ctx context.Context, e indexing.ChunkEntry, value *ndarray.Array) error {
	fh := valuehandle.FileHandle{Store: a.store, Key: a.chunkKey(e.ChunkCoords)}

	if indexing.IsTotalSlice(e.ChunkSel, a.core.ChunkShape) {
		full := ndarray.New(a.core.ChunkShape, a.core.DataType.ItemSize(), a.core.Order)
		ndarray.CopyRegion(full, fullRegion(a.core.ChunkShape), value, axisSlicesToRegion(e.OutSel))
		return a.writeFullChunk(ctx, fh, full)
	}

	if a.shard != nil {
		slabShape := axisSlicesShape(e.ChunkSel)
		slab := ndarray.New(slabShape, value.ItemSize, a.core.Order)
		ndarray.CopyRegion(slab, fullRegion(slabShape), value, axisSlicesToRegion(e.OutSel))
		return a.shard.EncodePartial(ctx, fh, slab, e.ChunkSel, a.core)
	}

	decoded, err := a.pipeline.Decode(ctx, fh, a.core)
	if err != nil {
		return err
	}
	existing, err := decoded.ToArray(ctx, a.core.DataType, a.core.ChunkShape, a.core.Order)
	if err != nil {
		return err
	}
	var arr *ndarray.Array
	if existing == nil {
		arr = ndarray.New(a.core.ChunkShape, a.core.DataType.ItemSize(), a.core.Order)
		arr.Fill(a.core.FillValue)
	} else {
		arr = existing.Clone()
	}
	ndarray.CopyRegion(arr, axisSlicesToRegion(e.ChunkSel), value, axisSlicesToRegion(e.OutSel))
	return a.writeFullChunk(ctx, fh, arr)
}

// writeFullChunk is the write path of spec §4.6.1: an all-fill chunk is
// deleted instead of written.
func (a *Array) writeFullChunk(ctx context.Context, fh valuehandle.FileHandle, arr *ndarray.Array) error {
	if arr.IsAllFill(a.core.FillValue) {
		return fh.Set(ctx, valuehandle.NoneHandle{})
	}
	encoded, err := a.pipeline.Encode(ctx, valuehandle.ArrayHandle{Array: arr}, a.core)
	if err != nil {
		return err
	}
	return fh.Set(ctx, encoded)
}

// runConcurrent fans work(0..n) out over a bounded worker semaphore,
// joins on a WaitGroup, and returns the first error encountered (spec §7
// "first error wins; others cancelled" -- once an error is recorded no
// further work items are started; in-flight goroutines still run to
// completion since individual K/V writes are not cancellable, but no
// error after the first is surfaced).
func (a *Array) runConcurrent(ctx context.Context, n int, work func(i int) error) error {
	if n == 0 {
		return nil
	}
	limit := n
	if limit > maxConcurrentChunks {
		limit = maxConcurrentChunks
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < n; i++ {
		i := i
		sem <- struct{}{}
		mu.Lock()
		failed := firstErr != nil
		mu.Unlock()
		if failed {
			<-sem
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := work(i); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return firstErr
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func axisSlicesShape(sel []indexing.AxisSlice) []int {
	shape := make([]int, len(sel))
	for i, s := range sel {
		shape[i] = s.Stop - s.Start
	}
	return shape
}

func axisSlicesToRegion(sel []indexing.AxisSlice) ndarray.Region {
	start := make([]int, len(sel))
	shape := make([]int, len(sel))
	for i, s := range sel {
		start[i] = s.Start
		shape[i] = s.Stop - s.Start
	}
	return ndarray.Region{Start: start, Shape: shape}
}

func fullRegion(shape []int) ndarray.Region {
	return ndarray.Region{Start: make([]int, len(shape)), Shape: shape}
}
