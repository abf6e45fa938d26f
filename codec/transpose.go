package codec

import (
	"context"

	"github.com/zarrgo/zarrv3/metadata"
	"github.com/zarrgo/zarrv3/valuehandle"
)

// Transpose implements the "transpose" codec (spec §4.4): order="C" is
// identity, order="F" permutes to reversed axis order before storage (and
// back on read), and an explicit permutation tuple applies that
// permutation on encode and its inverse on decode.
type Transpose struct {
	meta metadata.TransposeCodec
}

func NewTranspose(m metadata.TransposeCodec) *Transpose { return &Transpose{meta: m} }

// forwardPerm returns the encode-time axis permutation for a value of the
// given rank: result[i] = source axis feeding output axis i.
func (t *Transpose) forwardPerm(rank int) []int {
	perm := make([]int, rank)
	switch {
	case t.meta.Order.Permutation != nil:
		copy(perm, t.meta.Order.Permutation)
	case t.meta.Order.Named == "F":
		for i := 0; i < rank; i++ {
			perm[i] = rank - 1 - i
		}
	default: // "C" or unset: identity
		for i := 0; i < rank; i++ {
			perm[i] = i
		}
	}
	return perm
}

func inversePerm(perm []int) []int {
	inv := make([]int, len(perm))
	for i, p := range perm {
		inv[p] = i
	}
	return inv
}

func applyPerm(shape, perm []int) []int {
	out := make([]int, len(shape))
	for i, p := range perm {
		out[i] = shape[p]
	}
	return out
}

func (t *Transpose) Encode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	arr, err := vh.ToArray(ctx, core.DataType, core.ChunkShape, core.Order)
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return valuehandle.NoneHandle{}, nil
	}
	perm := t.forwardPerm(len(core.ChunkShape))
	if isIdentity(perm) {
		return valuehandle.ArrayHandle{Array: arr}, nil
	}
	return valuehandle.ArrayHandle{Array: arr.Transpose(perm)}, nil
}

func (t *Transpose) Decode(ctx context.Context, vh valuehandle.ValueHandle, core metadata.CoreArrayMetadata) (valuehandle.ValueHandle, error) {
	perm := t.forwardPerm(len(core.ChunkShape))
	transposedShape := applyPerm(core.ChunkShape, perm)

	arr, err := vh.ToArray(ctx, core.DataType, transposedShape, core.Order)
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return valuehandle.NoneHandle{}, nil
	}
	if isIdentity(perm) {
		return valuehandle.ArrayHandle{Array: arr}, nil
	}
	return valuehandle.ArrayHandle{Array: arr.Transpose(inversePerm(perm))}, nil
}

func isIdentity(perm []int) bool {
	for i, p := range perm {
		if i != p {
			return false
		}
	}
	return true
}
