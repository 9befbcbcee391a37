// Package field defines the Field contract every schema node — primitive
// or composite — implements, plus the typed errors the rest of the engine
// raises.
package field

import (
	"errors"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/lazyeval"
)

// Sentinel error kinds, each wrapped with field-path context via %w at the
// call site so errors.Is keeps working through the wrap chain.
var (
	ErrUnregisteredType  = errors.New("field: unregistered type")
	ErrNameCollision     = errors.New("field: name collision")
	ErrMutuallyExclusive = errors.New("field: mutually exclusive parameters")
	ErrValidity          = errors.New("field: check_value failed")
	ErrShortRead         = bitio.ErrShortRead
	ErrShortWrite        = bitio.ErrShortWrite
	ErrUnresolvedName    = lazyeval.ErrUnresolvedName
	ErrInvalidAssignment = errors.New("field: invalid assignment")
)

// Field is the uniform contract shared by every schema node. A Field is
// also a lazyeval.Node: its own parameters and methods participate in name
// resolution for any expression evaluated against it or one of its
// descendants.
type Field interface {
	lazyeval.Node

	// Read consumes this field's bytes/bits from s and materializes its
	// value (recursively, for composites).
	Read(s *bitio.Stream) error

	// Write emits this field's current value to s.
	Write(s *bitio.Stream) error

	// NumBits reports the exact bit width of the field's current value.
	// Byte-aligned fields always report a multiple of 8.
	NumBits() (int, error)

	// Clear reports whether the field still holds its prototype default.
	// A primitive is clear until it is assigned or read (applying its
	// initial_value does not count); assigning a value equal to the
	// default still makes it non-clear. An Array is clear when it has no
	// elements, a Record when every child is clear, and a Choice when no
	// alternative has been built yet or the live one is clear.
	Clear() bool

	// Snapshot returns the field's value as a plain value tree: a scalar
	// for a Primitive, an ordered map for a Record/Struct, a slice for an
	// Array, the selected alternative's snapshot for a Choice.
	Snapshot() (any, error)

	// Assign replaces the field's value from a snapshot-shaped argument:
	// a scalar for a Primitive, a map or Record for a Record/Struct, a
	// slice for an Array.
	Assign(v any) error

	// SetParent installs the back-pointer. Called once, from the field's
	// own NewInstance, with the parent it is created under.
	SetParent(p Field)
}

// ParentField returns f's parent as a Field, or nil at the root. Node.
// Parent returns the narrower lazyeval.Node view; every concrete Field in
// this module also satisfies Field, so the assertion always succeeds for
// well-formed trees.
func ParentField(f Field) Field {
	n := f.Parent()
	if n == nil {
		return nil
	}
	pf, _ := n.(Field)
	return pf
}

// ByteAligned reports whether a field's Read/Write resynchronizes the
// BitStream to a byte boundary before consuming anything. Int implements it
// (false for an explicit bit-field or a non-multiple-of-8 width), as do
// Record, Array and Choice; a field that does not implement it (Float,
// Bytes, String) is treated as byte-aligned. Record.NumBits and
// Array.NumBits use it to reproduce the same fractional-bit rounding the
// BitStream itself performs when accumulating a composite's total size.
type ByteAligned interface {
	ByteAligned() bool
}

// NumBytes reports a field's size in whole bytes, rounding a fractional
// bit width up to the enclosing byte boundary — the rounding rule §4.4
// specifies for Record/Array accumulation.
func NumBytes(f Field) (int, error) {
	bits, err := f.NumBits()
	if err != nil {
		return 0, err
	}
	return (bits + 7) / 8, nil
}
