// Package sharding implements the sharding_indexed codec (spec §4.5): a
// two-level binary layout that packs many inner sub-chunks, plus a
// Morton-built / row-major-indexed offset+length table, into one outer
// chunk object, with full and partial encode/decode paths.
package sharding

import (
	"context"

	"github.com/zarrgo/zarrv3/codec"
	"github.com/zarrgo/zarrv3/indexing"
	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/morton"
	"github.com/zarrgo/zarrv3/ndarray"
	"github.com/zarrgo/zarrv3/store"
	"github.com/zarrgo/zarrv3/valuehandle"
	"github.com/zarrgo/zarrv3/zarrerr"
)

// Sharding is the sharding_indexed codec. It implements codec.Codec (the
// full, whole-shard Encode/Decode, used on the total-slice write / full
// read paths) and additionally exposes DecodePartial/EncodePartial for
// the partial-chunk paths that only the sharding codec supports.
type Sharding struct {
	subChunkShape []int
	inner         codec.Pipeline
}

// New builds a Sharding codec from its metadata. A nested sharding_indexed
// codec is rejected (spec §3 invariant: at most one, and it must be the
// outer one).
func New(meta metadata.ShardingIndexedCodec) (*Sharding, error) {
	inner, err := codec.FromMetadata(meta.Codecs, func(metadata.ShardingIndexedCodec) (codec.Codec, error) {
		return nil, zarrerr.Newf(zarrerr.UnsupportedFeature, "sharding.New", "sharding_indexed cannot itself contain a sharding_indexed codec")
	})
	if err != nil {
		return nil, err
	}
	return &Sharding{subChunkShape: meta.ChunkShape, inner: inner}, nil
}

// gridShape computes the sub-chunk grid n[i] = C[i]/c[i], validating that
// the outer chunk shape divides evenly (spec §3).
func (s *Sharding) gridShape(outerShape []int) ([]int, error) {
	if len(outerShape) != len(s.subChunkShape) {
		return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "sharding.gridShape", "sub-chunk rank %d != outer chunk rank %d", len(s.subChunkShape), len(outerShape))
	}
	grid := make([]int, len(outerShape))
	for i, c := range outerShape {
		if s.subChunkShape[i] <= 0 || c%s.subChunkShape[i] != 0 {
			return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "sharding.gridShape",
				"outer chunk_shape[%d]=%d not divisible by sub-chunk shape[%d]=%d", i, c, i, s.subChunkShape[i])
		}
		grid[i] = c / s.subChunkShape[i]
	}
	return grid, nil
}

func (s *Sharding) innerCore(core metadata.CoreArrayMetadata) metadata.CoreArrayMetadata {
	return metadata.CoreArrayMetadata{
		Shape:      s.subChunkShape,
		ChunkShape: s.subChunkShape,
		DataType:   core.DataType,
		FillValue:  core.FillValue,
		Order:      core.Order,
	}
}

func fullRegion(shape []int) ndarray.Region {
	return ndarray.Region{Start: make([]int, len(shape)), Shape: shape}
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

func selectionFromAxisSlices(sel []indexing.AxisSlice) indexing.Selection {
	out := make(indexing.Selection, len(sel))
	for i, s := range sel {
		out[i] = indexing.Range(s.Start, s.Stop)
	}
	return out
}

// Encode performs a full shard encode (spec §4.5 "Full encode"): splits
// the outer chunk array into sub-chunks, runs the inner pipeline on each,
// concatenates the non-empty payloads in Morton build order, and appends
// the row-major tail index.
func (s *Sharding) Encode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	arr, err := vh.ToArray(ctx, core.DataType, core.ChunkShape, core.Order)
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return valuehandle.NoneHandle{}, nil
	}

	grid, err := s.gridShape(core.ChunkShape)
	if err != nil {
		return nil, err
	}
	n := ndarray.Count(grid)
	inner := s.innerCore(core)

	entries := AllSentinel(n)
	var payload []byte
	var offset uint64

	for _, coords := range morton.Order(grid) {
		linIdx := RowMajorIndex(coords, grid)

		subStart := make([]int, len(coords))
		for i, c := range coords {
			subStart[i] = c * s.subChunkShape[i]
		}
		subArr := ndarray.New(s.subChunkShape, arr.ItemSize, core.Order)
		ndarray.CopyRegion(subArr, fullRegion(s.subChunkShape), arr, ndarray.Region{Start: subStart, Shape: s.subChunkShape})

		if subArr.IsAllFill(core.FillValue) {
			continue // leave sentinel
		}

		encoded, err := s.inner.Encode(ctx, valuehandle.ArrayHandle{Array: subArr}, inner)
		if err != nil {
			return nil, err
		}
		b, err := encoded.ToBytes(ctx)
		if err != nil {
			return nil, err
		}
		entries[linIdx] = IndexEntry{Offset: offset, Length: uint64(len(b))}
		payload = append(payload, b...)
		offset += uint64(len(b))
	}

	shard := append(payload, EncodeIndex(entries)...)
	return valuehandle.BufferHandle{Bytes: shard}, nil
}

// Decode performs a full shard decode (spec §4.5 "Full decode").
func (s *Sharding) Decode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	b, err := vh.ToBytes(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return valuehandle.NoneHandle{}, nil
	}

	grid, err := s.gridShape(core.ChunkShape)
	if err != nil {
		return nil, err
	}
	n := ndarray.Count(grid)
	inner := s.innerCore(core)

	tailStart := len(b) - n*entryWidth
	if tailStart < 0 {
		return nil, zarrerr.Newf(zarrerr.CodecError, "sharding.Decode", "shard too short (%d bytes) for %d index entries", len(b), n)
	}
	entries := DecodeIndex(b[tailStart:], n)

	out := ndarray.New(core.ChunkShape, core.DataType.ItemSize(), core.Order)
	out.Fill(core.FillValue)

	for linIdx, e := range entries {
		if e.IsSentinel() {
			continue
		}
		if e.Offset+e.Length > uint64(tailStart) {
			return nil, zarrerr.Newf(zarrerr.CodecError, "sharding.Decode", "index entry %d out of range", linIdx)
		}
		subBytes := b[e.Offset : e.Offset+e.Length]
		decoded, err := s.inner.Decode(ctx, valuehandle.BufferHandle{Bytes: subBytes}, inner)
		if err != nil {
			return nil, err
		}
		subArr, err := decoded.ToArray(ctx, core.DataType, s.subChunkShape, core.Order)
		if err != nil {
			return nil, err
		}
		coords := RowMajorCoords(linIdx, grid)
		subStart := make([]int, len(coords))
		for i, c := range coords {
			subStart[i] = c * s.subChunkShape[i]
		}
		ndarray.CopyRegion(out, ndarray.Region{Start: subStart, Shape: s.subChunkShape}, subArr, fullRegion(s.subChunkShape))
	}

	return valuehandle.ArrayHandle{Array: out}, nil
}

// fetchIndex fetches the tail index of an existing shard via a single
// negative-offset byte-range request (spec §4.5 partial decode step 2 /
// partial encode step 2), resolving spec §9 Open Question (a) without a
// prior stat call. Returns (nil, false, nil) if the shard is absent.
func (s *Sharding) fetchIndex(ctx context.Context, vh valuehandle.ValueHandle, n int) ([]IndexEntry, bool, error) {
	res, err := vh.GetPartial(ctx, []store.ByteRange{{Offset: -int64(n * entryWidth), Length: int64(n * entryWidth)}})
	if err != nil {
		return nil, false, err
	}
	if res[0] == nil {
		return nil, false, nil
	}
	return DecodeIndex(res[0], n), true, nil
}

func appendPoint(entries []IndexEntry) uint64 {
	var max uint64
	for _, e := range entries {
		if e.IsSentinel() {
			continue
		}
		if end := e.Offset + e.Length; end > max {
			max = end
		}
	}
	return max
}

// DecodePartial performs the partial shard read of spec §4.5: only the
// sub-chunks chunkSel intersects are fetched and decoded; the result array
// has chunkSel's shape (its elements are placed directly into the
// caller's out[out_selection], with no further cropping needed).
func (s *Sharding) DecodePartial(ctx context.Context, vh valuehandle.ValueHandle, chunkSel []indexing.AxisSlice, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	grid, err := s.gridShape(core.ChunkShape)
	if err != nil {
		return nil, err
	}
	n := ndarray.Count(grid)
	inner := s.innerCore(core)

	ix, err := indexing.New(selectionFromAxisSlices(chunkSel), core.ChunkShape, s.subChunkShape)
	if err != nil {
		return nil, err
	}
	subEntries := ix.Enumerate()

	entries, present, err := s.fetchIndex(ctx, vh, n)
	if err != nil {
		return nil, err
	}
	if !present {
		return valuehandle.NoneHandle{}, nil
	}

	// Batch all non-sentinel byte ranges the selection touches into a
	// single GetPartial call (spec step 3).
	type touched struct {
		linIdx   int
		rangeIdx int
	}
	var ranges []store.ByteRange
	var touchedList []touched
	for _, se := range subEntries {
		linIdx := RowMajorIndex(se.ChunkCoords, grid)
		e := entries[linIdx]
		if e.IsSentinel() {
			continue
		}
		touchedList = append(touchedList, touched{linIdx: linIdx, rangeIdx: len(ranges)})
		ranges = append(ranges, store.ByteRange{Offset: int64(e.Offset), Length: int64(e.Length)})
	}

	var fetched [][]byte
	if len(ranges) > 0 {
		fetched, err = vh.GetPartial(ctx, ranges)
		if err != nil {
			return nil, err
		}
	}
	byLinIdx := make(map[int][]byte, len(touchedList))
	for _, t := range touchedList {
		byLinIdx[t.linIdx] = fetched[t.rangeIdx]
	}

	outShape := ix.Shape()
	out := ndarray.New(outShape, core.DataType.ItemSize(), core.Order)
	out.Fill(core.FillValue)

	for _, se := range subEntries {
		linIdx := RowMajorIndex(se.ChunkCoords, grid)
		subBytes, ok := byLinIdx[linIdx]
		if !ok {
			continue // sentinel: leave fill
		}
		decoded, err := s.inner.Decode(ctx, valuehandle.BufferHandle{Bytes: subBytes}, inner)
		if err != nil {
			return nil, err
		}
		subArr, err := decoded.ToArray(ctx, core.DataType, s.subChunkShape, core.Order)
		if err != nil {
			return nil, err
		}
		ndarray.CopyRegion(out, axisSlicesToRegion(se.OutSel), subArr, axisSlicesToRegion(se.ChunkSel))
	}

	return valuehandle.ArrayHandle{Array: out}, nil
}

// EncodePartial performs the partial shard write of spec §4.5: sub-chunks
// fully covered by chunkSel are re-encoded whole; partially covered
// sub-chunks are read-modify-written; untouched sub-chunks' (offset,
// length) entries -- and bytes -- are left exactly as they were. The new
// payload is written where the old tail index began (past the last live
// payload and any dead bytes), followed by the new index, via a single
// SetPartial, so the new index always ends the object: live bytes are never
// rewritten, which is what makes the "partial write locality" property
// (spec §8 property 4) hold by construction rather than by a separate
// compaction pass.
func (s *Sharding) EncodePartial(ctx context.Context, vh valuehandle.ValueHandle, value *ndarray.Array, chunkSel []indexing.AxisSlice, core metadata.CoreArrayMetadata) error {
	grid, err := s.gridShape(core.ChunkShape)
	if err != nil {
		return err
	}
	n := ndarray.Count(grid)
	inner := s.innerCore(core)

	ix, err := indexing.New(selectionFromAxisSlices(chunkSel), core.ChunkShape, s.subChunkShape)
	if err != nil {
		return err
	}
	subEntries := ix.Enumerate()

	entries, present, err := s.fetchIndex(ctx, vh, n)
	if err != nil {
		return err
	}
	if !present {
		entries = AllSentinel(n)
	}

	offset := appendPoint(entries)
	if present {
		// Dead bytes from earlier partial writes may sit between the last
		// live payload and the old tail index; skip past them.
		tail, err := vh.GetPartial(ctx, []store.ByteRange{{Offset: int64(offset), Length: -1}})
		if err != nil {
			return err
		}
		if extra := len(tail[0]) - n*entryWidth; extra > 0 {
			offset += uint64(extra)
		}
	}
	var writes []store.PartialWrite

	for _, se := range subEntries {
		linIdx := RowMajorIndex(se.ChunkCoords, grid)

		var subArr *ndarray.Array
		if indexing.IsTotalSlice(se.ChunkSel, s.subChunkShape) {
			subArr = ndarray.New(s.subChunkShape, value.ItemSize, core.Order)
			ndarray.CopyRegion(subArr, fullRegion(s.subChunkShape), value, axisSlicesToRegion(se.OutSel))
		} else {
			old := entries[linIdx]
			if old.IsSentinel() {
				subArr = ndarray.New(s.subChunkShape, value.ItemSize, core.Order)
				subArr.Fill(core.FillValue)
			} else {
				res, err := vh.GetPartial(ctx, []store.ByteRange{{Offset: int64(old.Offset), Length: int64(old.Length)}})
				if err != nil {
					return err
				}
				decoded, err := s.inner.Decode(ctx, valuehandle.BufferHandle{Bytes: res[0]}, inner)
				if err != nil {
					return err
				}
				baseArr, err := decoded.ToArray(ctx, core.DataType, s.subChunkShape, core.Order)
				if err != nil {
					return err
				}
				subArr = baseArr.Clone()
			}
			ndarray.CopyRegion(subArr, axisSlicesToRegion(se.ChunkSel), value, axisSlicesToRegion(se.OutSel))
		}

		if subArr.IsAllFill(core.FillValue) {
			entries[linIdx] = Sentinel
			continue
		}

		encoded, err := s.inner.Encode(ctx, valuehandle.ArrayHandle{Array: subArr}, inner)
		if err != nil {
			return err
		}
		b, err := encoded.ToBytes(ctx)
		if err != nil {
			return err
		}
		entries[linIdx] = IndexEntry{Offset: offset, Length: uint64(len(b))}
		writes = append(writes, store.PartialWrite{Offset: int64(offset), Bytes: b})
		offset += uint64(len(b))
	}

	writes = append(writes, store.PartialWrite{Offset: int64(offset), Bytes: EncodeIndex(entries)})
	return vh.SetPartial(ctx, writes)
}

// Compact rewrites a shard's live sub-chunks contiguously, reclaiming the
// dead bytes partial writes leave behind (spec §9 Open Question (b)). It
// is an explicitly-invoked maintenance pass, never called automatically
// by Encode/Decode/EncodePartial/DecodePartial.
func (s *Sharding) Compact(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) error {
	decoded, err := s.Decode(ctx, vh, core)
	if err != nil {
		return err
	}
	arr, err := decoded.ToArray(ctx, core.DataType, core.ChunkShape, core.Order)
	if err != nil {
		return err
	}
	if arr == nil {
		return nil
	}
	reEncoded, err := s.Encode(ctx, valuehandle.ArrayHandle{Array: arr}, core)
	if err != nil {
		return err
	}
	return vh.Set(ctx, reEncoded)
}
