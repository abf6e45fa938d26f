// Package dataset is a batch-oriented convenience reader over an Array's
// leading axis, grounded on the teacher's zarr/dataset.go (Dataset,
// NextBatch, iterateSubGrid) and re-expressed on top of the Array/
// indexer/codec stack instead of hand-rolled chunk math (see
// SPEC_FULL.md §4.8).
package dataset

import (
	"context"
	"encoding/binary"
	"io"
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/zarrgo/zarrv3"
	"github.com/zarrgo/zarrv3/indexing"
	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/ndarray"
	"github.com/zarrgo/zarrv3/store"
	"github.com/zarrgo/zarrv3/zarrerr"
)

// Dataset reads an array sequentially, batch by batch, along axis 0.
type Dataset struct {
	arr          *zarrv3.Array
	currentIndex int
}

// Open opens the array at path for sequential batch reads.
func Open(ctx context.Context, st store.Store, path string) (*Dataset, error) {
	arr, err := zarrv3.OpenWithOrder(ctx, st, path, ndarray.C)
	if err != nil {
		return nil, err
	}
	if len(arr.Shape()) == 0 {
		return nil, zarrerr.Newf(zarrerr.InvalidSelection, "dataset.Open", "cannot batch a zero-rank array")
	}
	return &Dataset{arr: arr}, nil
}

// NextBatch reads the next batchSize elements along axis 0, returning
// io.EOF once the array is exhausted (matching the teacher's NextBatch
// contract exactly).
func (d *Dataset) NextBatch(ctx context.Context, batchSize int) (*tensors.Tensor, error) {
	shape := d.arr.Shape()
	if d.currentIndex >= shape[0] {
		return nil, io.EOF
	}

	start := d.currentIndex
	end := start + batchSize
	if end > shape[0] {
		end = shape[0]
	}

	sel := make(indexing.Selection, len(shape))
	sel[0] = indexing.Range(start, end)
	for i := 1; i < len(shape); i++ {
		sel[i] = indexing.Full()
	}

	batch, err := d.arr.Get(ctx, sel)
	if err != nil {
		return nil, err
	}
	d.currentIndex = end

	return toTensor(d.arr.DataType(), batch.Data, batch.Shape)
}

// toTensor decodes little-endian element bytes into the typed slice
// gomlx's tensors package wraps, covering the same native subset the
// teacher's NextBatch switch supports (float32/int32/int64), plus
// float64/uint8.
func toTensor(dt metadata.DataType, data []byte, shape []int) (*tensors.Tensor, error) {
	n := ndarray.Count(shape)
	switch dt {
	case metadata.Float32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil
	case metadata.Float64:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil
	case metadata.Int32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil
	case metadata.Int64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil
	case metadata.Uint8:
		out := make([]uint8, n)
		copy(out, data)
		return tensors.FromFlatDataAndDimensions(out, shape...), nil
	default:
		return nil, zarrerr.Newf(zarrerr.UnsupportedFeature, "toTensor", "unsupported dtype %v for tensor conversion", dt)
	}
}
