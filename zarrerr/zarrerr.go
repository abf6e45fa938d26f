// Package zarrerr defines the error taxonomy shared by every package in
// this module (spec §7). Each constructor wraps the underlying cause with
// %w, in the same style the teacher package wraps store/codec failures.
package zarrerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch on it with this
// package's Is, or inspect the *Error via errors.As.
type Kind int

const (
	// InvalidMetadata: open() saw a malformed or unknown-tagged zarr.json.
	InvalidMetadata Kind = iota
	// InvalidSelection: non-unit step, out-of-bounds, rank/shape mismatch.
	InvalidSelection
	// CodecError: decode failure, or a partial shard index out of range.
	CodecError
	// StoreIOError: underlying K/V failure, wrapped unchanged.
	StoreIOError
	// UnsupportedFeature: multi-outer-codec sharding, unsupported dtype, ...
	UnsupportedFeature
)

func (k Kind) String() string {
	switch k {
	case InvalidMetadata:
		return "InvalidMetadata"
	case InvalidSelection:
		return "InvalidSelection"
	case CodecError:
		return "CodecError"
	case StoreIOError:
		return "StoreIOError"
	case UnsupportedFeature:
		return "UnsupportedFeature"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type produced by every package here except
// store, whose backends return plain wrapped errors (callers such as
// valuehandle.FileHandle wrap those as StoreIOError).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error, wrapping err (which may be nil).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf is New with a formatted message as the wrapped error.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
