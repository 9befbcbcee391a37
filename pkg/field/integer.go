package field

import (
	"fmt"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/lazyeval"
	"github.com/binschema/binschema/pkg/scalar"
)

// Endian selects byte order for a byte-aligned multi-byte Integer. It is
// distinct from bitio.Endian, which selects bit order within a byte — a
// bit-aligned Integer (width not a multiple of 8) derives its bit order
// from this same Endian, per the table in §4.3.
type Endian int

const (
	BigEndian Endian = iota
	LittleEndian
)

func (e Endian) bitOrder() bitio.Endian {
	if e == LittleEndian {
		return bitio.LittleEndianBits
	}
	return bitio.BigEndianBits
}

// Int is the Integer primitive: intN/uintN, N bits wide, byte-aligned when
// N%8==0 (discarding any pending bit buffer first) and bit-aligned
// otherwise (continuing from the current bit cursor).
type Int struct {
	Base

	Bits   int
	Signed bool
	Endian Endian

	// BitField marks an explicit bN/bNle bit-field type: always
	// bit-aligned even when Bits%8==0, and bit order is spelled directly
	// in the type name (big by default, little via the "le" suffix)
	// rather than derived from Endian.
	BitField bool

	// Enum, when non-nil, projects Snapshot's raw integer through a
	// symbolic member table: Snapshot then returns a scalar.EnumValue
	// instead of a bare uint64/int64. Assign and Read/Write still work
	// against the raw integer; only the snapshot shape changes.
	Enum map[int64]string

	InitialValue lazyeval.Expr // defaults to Literal{0} if nil
	Value        lazyeval.Expr // computed; nil means assignable
	CheckValue   lazyeval.Expr

	raw      uint64
	assigned bool
}

// NewInt builds an Int prototype/instance. Use NewInstance to produce a
// fresh, independently-stateful copy bound to a parent.
func NewInt(bits int, signed bool, endian Endian) *Int {
	return &Int{Base: NewBase(nil), Bits: bits, Signed: signed, Endian: endian}
}

// NewBitField builds an explicit bN/bNle bit-field prototype: unsigned,
// always bit-aligned, bit order little when le is true, big otherwise.
func NewBitField(bits int, le bool) *Int {
	endian := BigEndian
	if le {
		endian = LittleEndian
	}
	return &Int{Base: NewBase(nil), Bits: bits, Endian: endian, BitField: true}
}

func (p *Int) ClassTag() string {
	if p.BitField {
		if p.Endian == LittleEndian {
			return fmt.Sprintf("b%dle", p.Bits)
		}
		return fmt.Sprintf("b%d", p.Bits)
	}
	kind := "u"
	if p.Signed {
		kind = "i"
	}
	return fmt.Sprintf("%sint%d", kind, p.Bits)
}

func (p *Int) Params() map[string]lazyeval.Expr {
	return map[string]lazyeval.Expr{
		"initial_value": p.InitialValue,
		"value":         p.Value,
		"check_value":   p.CheckValue,
	}
}

// NewInstance manufactures a fresh Int sharing this prototype's
// configuration but with its own mutable state and parent back-pointer.
func (p *Int) NewInstance(initial any, parent Field) (Field, error) {
	inst := &Int{
		Base:         NewBase(nil),
		Bits:         p.Bits,
		Signed:       p.Signed,
		Endian:       p.Endian,
		BitField:     p.BitField,
		Enum:         p.Enum,
		InitialValue: p.InitialValue,
		Value:        p.Value,
		CheckValue:   p.CheckValue,
	}
	inst.SetParent(parent)
	if initial != nil {
		if err := inst.Assign(initial); err != nil {
			return nil, err
		}
	} else if p.InitialValue != nil {
		v, err := lazyeval.Resolve(p.InitialValue, lazyeval.Context{Node: inst})
		if err != nil {
			return nil, fmt.Errorf("field: resolving initial_value: %w", err)
		}
		if err := inst.Assign(v); err != nil {
			return nil, err
		}
		inst.assigned = false
	}
	return inst, nil
}

func (p *Int) NumBits() (int, error) { return p.Bits, nil }

func (p *Int) ByteAligned() bool { return p.Bits%8 == 0 && !p.BitField }

func (p *Int) Clear() bool { return !p.assigned }

func (p *Int) Snapshot() (any, error) {
	v, err := p.computedOrRaw()
	if err != nil {
		return nil, err
	}
	var key int64
	if p.Signed {
		key = signExtend(v, p.Bits)
	} else {
		key = int64(v)
	}
	if p.Enum != nil {
		return scalar.NewEnumValue(key, p.Enum), nil
	}
	if p.Signed {
		return key, nil
	}
	return v, nil
}

func (p *Int) computedOrRaw() (uint64, error) {
	if p.Value != nil {
		v, err := lazyeval.Resolve(p.Value, lazyeval.Context{Node: p})
		if err != nil {
			return 0, fmt.Errorf("field: resolving value: %w", err)
		}
		return toUint64(v), nil
	}
	return p.raw, nil
}

func signExtend(v uint64, bits int) int64 {
	if bits >= 64 {
		return int64(v)
	}
	signBit := uint64(1) << uint(bits-1)
	if v&signBit != 0 {
		return int64(v | (^uint64(0) << uint(bits)))
	}
	return int64(v)
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case int:
		return uint64(n)
	case int64:
		return uint64(n)
	case uint64:
		return n
	case uint:
		return uint64(n)
	case float64:
		return uint64(n)
	default:
		return 0
	}
}

func (p *Int) Assign(v any) error {
	if p.Value != nil {
		return fmt.Errorf("%w: field has a computed value expression", ErrInvalidAssignment)
	}
	p.raw = toUint64(v) & maskFor(p.Bits)
	p.assigned = true
	return nil
}

func maskFor(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}

func (p *Int) Read(s *bitio.Stream) error {
	var v uint64
	var err error
	if p.Bits%8 == 0 && !p.BitField {
		if err := s.ResumeByteAlignment(); err != nil {
			return err
		}
		buf, rerr := s.ReadBytes(p.Bits / 8)
		if rerr != nil {
			return rerr
		}
		v = assembleBytes(buf, p.Endian)
	} else {
		v, err = s.ReadBits(p.Bits, p.Endian.bitOrder())
		if err != nil {
			return err
		}
	}
	p.raw = v
	p.assigned = true

	if p.CheckValue != nil {
		want, cerr := lazyeval.Resolve(p.CheckValue, lazyeval.Context{Node: p})
		if cerr != nil {
			return fmt.Errorf("field: resolving check_value: %w", cerr)
		}
		if toUint64(want)&maskFor(p.Bits) != v {
			return fmt.Errorf("%w: got %d, want %v", ErrValidity, v, want)
		}
	}
	return nil
}

func assembleBytes(buf []byte, endian Endian) uint64 {
	var v uint64
	if endian == BigEndian {
		for _, b := range buf {
			v = (v << 8) | uint64(b)
		}
	} else {
		for i := len(buf) - 1; i >= 0; i-- {
			v = (v << 8) | uint64(buf[i])
		}
	}
	return v
}

func splitBytes(v uint64, n int, endian Endian) []byte {
	buf := make([]byte, n)
	if endian == BigEndian {
		for i := n - 1; i >= 0; i-- {
			buf[i] = byte(v)
			v >>= 8
		}
	} else {
		for i := 0; i < n; i++ {
			buf[i] = byte(v)
			v >>= 8
		}
	}
	return buf
}

func (p *Int) Write(s *bitio.Stream) error {
	v, err := p.computedOrRaw()
	if err != nil {
		return err
	}
	if p.Bits%8 == 0 && !p.BitField {
		if err := s.ResumeByteAlignment(); err != nil {
			return err
		}
		return s.WriteBytes(splitBytes(v, p.Bits/8, p.Endian))
	}
	return s.WriteBits(v, p.Bits, p.Endian.bitOrder())
}
