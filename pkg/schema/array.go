package schema

import (
	"errors"
	"fmt"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/field"
	"github.com/binschema/binschema/pkg/lazyeval"
)

// ArrayProto is the Prototype for a homogeneous, ordered Array of a single
// element type, governed by exactly one length discipline (§4.5).
type ArrayProto struct {
	Tag           string
	ElementType   TypeSpec
	InitialLength lazyeval.Expr
	ReadUntil     lazyeval.Expr
	ReadUntilEOF  bool
}

// NewArrayProto validates that InitialLength and ReadUntil/ReadUntilEOF
// are not both supplied, and defaults InitialLength to 0 when neither is.
func NewArrayProto(tag string, elem TypeSpec, initialLength, readUntil lazyeval.Expr, readUntilEOF bool) (*ArrayProto, error) {
	hasReadUntil := readUntil != nil || readUntilEOF
	if initialLength != nil && hasReadUntil {
		return nil, fmt.Errorf("%w: initial_length and read_until are mutually exclusive", field.ErrMutuallyExclusive)
	}
	if initialLength == nil && !hasReadUntil {
		initialLength = lazyeval.Literal{Value: 0}
	}
	return &ArrayProto{
		Tag: tag, ElementType: elem, InitialLength: initialLength,
		ReadUntil: readUntil, ReadUntilEOF: readUntilEOF,
	}, nil
}

func (p *ArrayProto) ClassTag() string { return p.Tag }

func (p *ArrayProto) Params() map[string]lazyeval.Expr {
	return map[string]lazyeval.Expr{
		"initial_length": p.InitialLength,
		"read_until":     p.ReadUntil,
	}
}

func (p *ArrayProto) NewInstance(initial any, parent field.Field) (field.Field, error) {
	a := &Array{
		Base: field.NewBase(p.Params()),
		tag:  p.Tag, elemType: p.ElementType,
		initialLength: p.InitialLength, readUntil: p.ReadUntil, readUntilEOF: p.ReadUntilEOF,
	}
	a.SetParent(parent)
	if initial != nil {
		if err := a.Assign(initial); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Array is the live instance.
type Array struct {
	field.Base

	tag           string
	elemType      TypeSpec
	initialLength lazyeval.Expr
	readUntil     lazyeval.Expr
	readUntilEOF  bool

	elements []field.Field
}

func (a *Array) newElement() (field.Field, error) {
	proto := a.elemType(resolveEndian(a))
	return proto.NewInstance(nil, a)
}

func (a *Array) Len() int { return len(a.elements) }

func (a *Array) ByteAligned() bool { return true }

func (a *Array) Read(s *bitio.Stream) error {
	a.elements = nil
	switch {
	case a.readUntilEOF:
		for {
			el, err := a.newElement()
			if err != nil {
				return err
			}
			if err := el.Read(s); err != nil {
				return nil // swallow per §9 open question: :eof treats any read failure as end of stream
			}
			a.elements = append(a.elements, el)
		}
	case a.readUntil != nil:
		for {
			el, err := a.newElement()
			if err != nil {
				return err
			}
			if err := el.Read(s); err != nil {
				return fmt.Errorf("array element %d: %w", len(a.elements), err)
			}
			a.elements = append(a.elements, el)
			ctx := lazyeval.Context{Node: a, Overrides: map[string]any{
				"index": len(a.elements) - 1, "element": el, "array": a,
			}}
			done, err := lazyeval.Resolve(a.readUntil, ctx)
			if err != nil {
				return fmt.Errorf("array read_until: %w", err)
			}
			if truthy(done) {
				return nil
			}
		}
	default:
		n, err := a.resolveInitialLength()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			el, err := a.newElement()
			if err != nil {
				return err
			}
			if err := el.Read(s); err != nil {
				return fmt.Errorf("array element %d: %w", i, err)
			}
			a.elements = append(a.elements, el)
		}
		return nil
	}
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func (a *Array) resolveInitialLength() (int, error) {
	v, err := lazyeval.Resolve(a.initialLength, lazyeval.Context{Node: a})
	if err != nil {
		return 0, fmt.Errorf("array initial_length: %w", err)
	}
	n, ok := v.(int)
	if ok {
		return n, nil
	}
	switch t := v.(type) {
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	}
	return 0, fmt.Errorf("array initial_length: expected integer, got %T", v)
}

func (a *Array) Write(s *bitio.Stream) error {
	for i, el := range a.elements {
		if err := el.Write(s); err != nil {
			return fmt.Errorf("array element %d: %w", i, err)
		}
	}
	return nil
}

func (a *Array) NumBits() (int, error) {
	var total int
	for _, el := range a.elements {
		if aligned, isAligned := el.(field.ByteAligned); !isAligned || aligned.ByteAligned() {
			total = (total + 7) / 8 * 8
		}
		bits, err := el.NumBits()
		if err != nil {
			return 0, err
		}
		total += bits
	}
	return total, nil
}

func (a *Array) Clear() bool { return len(a.elements) == 0 }

func (a *Array) Snapshot() (any, error) {
	out := make([]any, len(a.elements))
	for i, el := range a.elements {
		v, err := el.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (a *Array) Assign(v any) error {
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%w: Array.Assign requires a slice", field.ErrInvalidAssignment)
	}
	a.elements = make([]field.Field, len(items))
	for i, item := range items {
		el, err := a.newElement()
		if err != nil {
			return err
		}
		if err := el.Assign(item); err != nil {
			return fmt.Errorf("array element %d: %w", i, err)
		}
		a.elements[i] = el
	}
	return nil
}

var errArrayIndexOutOfRange = errors.New("schema: array index out of range")

// At returns the element at i without extending the array.
func (a *Array) At(i int) (field.Field, error) {
	if i < 0 || i >= len(a.elements) {
		return nil, fmt.Errorf("%w: index %d, length %d", errArrayIndexOutOfRange, i, len(a.elements))
	}
	return a.elements[i], nil
}

// Get returns the element at i, growing the array with default-constructed
// elements if i is at or beyond the current length.
func (a *Array) Get(i int) (field.Field, error) {
	if err := a.growTo(i); err != nil {
		return nil, err
	}
	return a.elements[i], nil
}

func (a *Array) growTo(i int) error {
	for len(a.elements) <= i {
		el, err := a.newElement()
		if err != nil {
			return err
		}
		a.elements = append(a.elements, el)
	}
	return nil
}

// Insert extends the array to i-1 with defaults, then splices xs starting
// at i.
func (a *Array) Insert(i int, xs []any) error {
	if i > 0 {
		if err := a.growTo(i - 1); err != nil {
			return err
		}
	}
	inserted := make([]field.Field, 0, len(xs))
	for offset, x := range xs {
		el, err := a.newElement()
		if err != nil {
			return err
		}
		if err := el.Assign(x); err != nil {
			return fmt.Errorf("array element %d: %w", i+offset, err)
		}
		inserted = append(inserted, el)
	}
	rest := append([]field.Field(nil), a.elements[i:]...)
	a.elements = append(append(a.elements[:i], inserted...), rest...)
	return nil
}
