package field

import (
	"bytes"
	"fmt"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/lazyeval"
	"github.com/binschema/binschema/pkg/scalar"
)

// BytesMode selects how a Bytes primitive's extent is determined.
type BytesMode int

const (
	// BytesFixed reads exactly Length bytes.
	BytesFixed BytesMode = iota
	// BytesNullTerm reads until Terminator or MaxLength, whichever comes
	// first; the terminator itself is consumed but not included.
	BytesNullTerm
	// BytesRest reads every remaining byte in the stream.
	BytesRest
)

// Bytes is the byte-run primitive underlying both a "rest of stream" field
// and (via String) fixed/null-terminated string fields.
type Bytes struct {
	Base

	Mode        BytesMode
	Length      lazyeval.Expr // BytesFixed
	Terminator  byte          // BytesNullTerm, default 0
	MaxLength   lazyeval.Expr // BytesNullTerm, optional cap
	TrimPadding bool          // BytesFixed: trim PadByte from the tail on read
	PadByte     byte

	// Kind, when scalar.KindBCD, projects the raw bytes as packed
	// binary-coded decimal: Snapshot returns a scalar.BCDValue and Assign
	// accepts an integer (encoded to the primitive's resolved byte width)
	// in addition to a raw []byte. Any other Kind (including the zero
	// value, scalar.KindInt) leaves the raw bytes untouched.
	Kind scalar.Kind

	InitialValue lazyeval.Expr
	Value        lazyeval.Expr
	CheckValue   lazyeval.Expr

	raw      []byte
	assigned bool
}

func NewFixedBytes(length lazyeval.Expr) *Bytes {
	return &Bytes{Base: NewBase(nil), Mode: BytesFixed, Length: length}
}

func NewRestBytes() *Bytes {
	return &Bytes{Base: NewBase(nil), Mode: BytesRest}
}

func (p *Bytes) ClassTag() string {
	switch p.Mode {
	case BytesFixed:
		return "bytes"
	case BytesNullTerm:
		return "bytesz"
	default:
		return "bytes_rest"
	}
}

func (p *Bytes) Params() map[string]lazyeval.Expr {
	return map[string]lazyeval.Expr{
		"initial_value": p.InitialValue,
		"value":         p.Value,
		"check_value":   p.CheckValue,
		"length":        p.Length,
		"max_length":    p.MaxLength,
	}
}

func (p *Bytes) NewInstance(initial any, parent Field) (Field, error) {
	inst := &Bytes{
		Base: NewBase(nil), Mode: p.Mode, Length: p.Length, Terminator: p.Terminator,
		MaxLength: p.MaxLength, TrimPadding: p.TrimPadding, PadByte: p.PadByte,
		Kind:         p.Kind,
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

func (p *Bytes) NumBits() (int, error) {
	v, err := p.computedOrRaw()
	if err != nil {
		return 0, err
	}
	return len(v) * 8, nil
}

func (p *Bytes) Clear() bool { return !p.assigned }

func (p *Bytes) Snapshot() (any, error) {
	v, err := p.computedOrRaw()
	if err != nil {
		return nil, err
	}
	if p.Kind == scalar.KindBCD {
		bcd, err := scalar.DecodeBCD(v)
		if err != nil {
			return nil, fmt.Errorf("field: decoding BCD: %w", err)
		}
		return bcd, nil
	}
	return v, nil
}

func (p *Bytes) computedOrRaw() ([]byte, error) {
	if p.Value != nil {
		v, err := lazyeval.Resolve(p.Value, lazyeval.Context{Node: p})
		if err != nil {
			return nil, fmt.Errorf("field: resolving value: %w", err)
		}
		return toBytes(v), nil
	}
	return p.raw, nil
}

func toBytes(v any) []byte {
	switch b := v.(type) {
	case []byte:
		return b
	case string:
		return []byte(b)
	default:
		return nil
	}
}

func (p *Bytes) Assign(v any) error {
	if p.Value != nil {
		return fmt.Errorf("%w: field has a computed value expression", ErrInvalidAssignment)
	}
	if p.Kind == scalar.KindBCD {
		raw, err := p.encodeBCD(v)
		if err != nil {
			return err
		}
		p.raw = raw
		p.assigned = true
		return nil
	}
	p.raw = toBytes(v)
	p.assigned = true
	return nil
}

// encodeBCD accepts either an already-decoded scalar.BCDValue (a Snapshot
// round trip), a plain integer, or raw bytes, and returns the packed-BCD
// byte run to store.
func (p *Bytes) encodeBCD(v any) ([]byte, error) {
	var iv int64
	switch t := v.(type) {
	case scalar.BCDValue:
		return append([]byte(nil), t.Raw...), nil
	case []byte:
		return t, nil
	case int:
		iv = int64(t)
	case int64:
		iv = t
	case uint64:
		iv = int64(t)
	default:
		return nil, fmt.Errorf("%w: BCD field requires an integer, []byte, or scalar.BCDValue, got %T", ErrInvalidAssignment, v)
	}
	width, err := p.resolveLength()
	if err != nil {
		return nil, err
	}
	raw, err := scalar.EncodeBCD(iv, width)
	if err != nil {
		return nil, fmt.Errorf("field: encoding BCD: %w", err)
	}
	return raw, nil
}

func (p *Bytes) Read(s *bitio.Stream) error {
	if err := s.ResumeByteAlignment(); err != nil {
		return err
	}
	var out []byte
	var err error
	switch p.Mode {
	case BytesFixed:
		n, lerr := p.resolveLength()
		if lerr != nil {
			return lerr
		}
		out, err = s.ReadBytes(n)
		if err == nil && p.TrimPadding {
			out = trimRight(out, p.PadByte)
		}
	case BytesNullTerm:
		maxLen := -1
		if p.MaxLength != nil {
			v, merr := lazyeval.Resolve(p.MaxLength, lazyeval.Context{Node: p})
			if merr != nil {
				return fmt.Errorf("field: resolving max_length: %w", merr)
			}
			maxLen = int(toUint64(v))
		}
		out, err = readUntilTerm(s, p.Terminator, maxLen)
	case BytesRest:
		out, err = s.ReadBytesFull()
	}
	if err != nil {
		return err
	}
	p.raw = out
	p.assigned = true

	if p.CheckValue != nil {
		want, cerr := lazyeval.Resolve(p.CheckValue, lazyeval.Context{Node: p})
		if cerr != nil {
			return fmt.Errorf("field: resolving check_value: %w", cerr)
		}
		if !bytes.Equal(toBytes(want), out) {
			return fmt.Errorf("%w: got %x, want %x", ErrValidity, out, want)
		}
	}
	return nil
}

func (p *Bytes) resolveLength() (int, error) {
	if p.Length == nil {
		return 0, nil
	}
	v, err := lazyeval.Resolve(p.Length, lazyeval.Context{Node: p})
	if err != nil {
		return 0, fmt.Errorf("field: resolving length: %w", err)
	}
	return int(toUint64(v)), nil
}

func trimRight(b []byte, pad byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == pad {
		end--
	}
	return b[:end]
}

func readUntilTerm(s *bitio.Stream, term byte, maxLen int) ([]byte, error) {
	var out []byte
	for maxLen < 0 || len(out) < maxLen {
		b, err := s.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == term {
			return out, nil
		}
		out = append(out, b)
	}
	return out, nil
}

func (p *Bytes) Write(s *bitio.Stream) error {
	v, err := p.computedOrRaw()
	if err != nil {
		return err
	}
	if err := s.ResumeByteAlignment(); err != nil {
		return err
	}
	switch p.Mode {
	case BytesFixed:
		n, lerr := p.resolveLength()
		if lerr != nil {
			return lerr
		}
		padded := make([]byte, n)
		copy(padded, v)
		for i := len(v); i < n; i++ {
			padded[i] = p.PadByte
		}
		return s.WriteBytes(padded)
	case BytesNullTerm:
		if err := s.WriteBytes(v); err != nil {
			return err
		}
		return s.WriteByte(p.Terminator)
	default: // BytesRest
		return s.WriteBytes(v)
	}
}
