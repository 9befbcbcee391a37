// Package scalar defines the value kinds a Primitive field materializes:
// plain integers, floats, byte runs and strings, plus two supplemental
// projections carried from the kaitai-struct lineage this engine's domain
// draws from — symbolic enum values and binary-coded-decimal values — that
// a schema may opt into without any change to the core read/write path.
package scalar

import "fmt"

// Kind names the shape of a Primitive's materialized value, used by
// Snapshot callers that need to tell an enum or BCD projection apart from
// a bare integer.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBitField
	KindString
	KindBytes
	KindEnum
	KindBCD
)

// EnumValue is the Snapshot shape of an integer Primitive that carries an
// Enum parameter: the raw integer plus its symbolic name, when the integer
// is a recognized member of the enum.
type EnumValue struct {
	Int   int64
	Name  string
	Valid bool
}

func (e EnumValue) String() string {
	if e.Valid {
		return e.Name
	}
	return fmt.Sprintf("%d", e.Int)
}

// NewEnumValue looks up v in members (int -> symbolic name) and reports
// whether the lookup succeeded.
func NewEnumValue(v int64, members map[int64]string) EnumValue {
	name, ok := members[v]
	return EnumValue{Int: v, Name: name, Valid: ok}
}

// BCDValue is the Snapshot shape of a byte-run Primitive decoded as packed
// binary-coded decimal: each nibble of the underlying bytes is a decimal
// digit, most significant nibble first.
type BCDValue struct {
	Raw   []byte
	Value int64
}

// DecodeBCD reads the packed-BCD integer represented by raw, most
// significant nibble first. A nibble outside 0..9 is an invalid digit.
func DecodeBCD(raw []byte) (BCDValue, error) {
	var v int64
	for _, b := range raw {
		hi, lo := b>>4, b&0x0F
		if hi > 9 || lo > 9 {
			return BCDValue{}, fmt.Errorf("scalar: invalid BCD byte %#02x", b)
		}
		v = v*100 + int64(hi)*10 + int64(lo)
	}
	return BCDValue{Raw: append([]byte(nil), raw...), Value: v}, nil
}

// EncodeBCD packs v into width bytes of binary-coded decimal, most
// significant nibble first. v must fit in 2*width decimal digits.
func EncodeBCD(v int64, width int) ([]byte, error) {
	if v < 0 {
		return nil, fmt.Errorf("scalar: BCD value must be non-negative, got %d", v)
	}
	digits := make([]byte, width*2)
	for i := len(digits) - 1; i >= 0; i-- {
		digits[i] = byte(v % 10)
		v /= 10
	}
	if v != 0 {
		return nil, fmt.Errorf("scalar: value does not fit in %d BCD bytes", width)
	}
	out := make([]byte, width)
	for i := 0; i < width; i++ {
		out[i] = digits[2*i]<<4 | digits[2*i+1]
	}
	return out, nil
}
