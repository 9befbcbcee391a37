package field

import (
	"fmt"
	"math"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/lazyeval"
)

// Float is the IEEE-754 Float primitive: 32 or 64 bits, byte-aligned,
// either byte order.
type Float struct {
	Base

	Bits   int // 32 or 64
	Endian Endian

	InitialValue lazyeval.Expr
	Value        lazyeval.Expr
	CheckValue   lazyeval.Expr

	raw      float64
	assigned bool
}

func NewFloat(bits int, endian Endian) *Float {
	return &Float{Base: NewBase(nil), Bits: bits, Endian: endian}
}

func (p *Float) ClassTag() string { return fmt.Sprintf("f%d", p.Bits) }

func (p *Float) Params() map[string]lazyeval.Expr {
	return map[string]lazyeval.Expr{
		"initial_value": p.InitialValue,
		"value":         p.Value,
		"check_value":   p.CheckValue,
	}
}

func (p *Float) NewInstance(initial any, parent Field) (Field, error) {
	inst := &Float{
		Base: NewBase(nil), Bits: p.Bits, Endian: p.Endian,
		InitialValue: p.InitialValue, Value: p.Value, CheckValue: p.CheckValue,
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

func (p *Float) NumBits() (int, error) { return p.Bits, nil }
func (p *Float) Clear() bool           { return !p.assigned }

func (p *Float) Snapshot() (any, error) { return p.computedOrRaw() }

func (p *Float) computedOrRaw() (float64, error) {
	if p.Value != nil {
		v, err := lazyeval.Resolve(p.Value, lazyeval.Context{Node: p})
		if err != nil {
			return 0, fmt.Errorf("field: resolving value: %w", err)
		}
		return toFloat64(v), nil
	}
	return p.raw, nil
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func (p *Float) Assign(v any) error {
	if p.Value != nil {
		return fmt.Errorf("%w: field has a computed value expression", ErrInvalidAssignment)
	}
	p.raw = toFloat64(v)
	p.assigned = true
	return nil
}

func (p *Float) Read(s *bitio.Stream) error {
	if err := s.ResumeByteAlignment(); err != nil {
		return err
	}
	buf, err := s.ReadBytes(p.Bits / 8)
	if err != nil {
		return err
	}
	bits := assembleBytes(buf, p.Endian)
	if p.Bits == 32 {
		p.raw = float64(math.Float32frombits(uint32(bits)))
	} else {
		p.raw = math.Float64frombits(bits)
	}
	p.assigned = true

	if p.CheckValue != nil {
		want, cerr := lazyeval.Resolve(p.CheckValue, lazyeval.Context{Node: p})
		if cerr != nil {
			return fmt.Errorf("field: resolving check_value: %w", cerr)
		}
		if toFloat64(want) != p.raw {
			return fmt.Errorf("%w: got %v, want %v", ErrValidity, p.raw, want)
		}
	}
	return nil
}

func (p *Float) Write(s *bitio.Stream) error {
	v, err := p.computedOrRaw()
	if err != nil {
		return err
	}
	if err := s.ResumeByteAlignment(); err != nil {
		return err
	}
	var bits uint64
	if p.Bits == 32 {
		bits = uint64(math.Float32bits(float32(v)))
	} else {
		bits = math.Float64bits(v)
	}
	return s.WriteBytes(splitBytes(bits, p.Bits/8, p.Endian))
}
