package field

import (
	"fmt"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/lazyeval"
	"github.com/binschema/binschema/pkg/scalar"
)

// String is the String primitive (fixed/:length, null-terminated, or rest)
// layered over Bytes: the wire bytes are decoded/encoded through Encoding
// on the way in and out of Snapshot/Assign.
type String struct {
	inner    *Bytes
	Encoding scalar.StringEncoding
}

func NewFixedString(length lazyeval.Expr, enc scalar.StringEncoding) *String {
	return &String{inner: NewFixedBytes(length), Encoding: enc}
}

func NewNullTermString(enc scalar.StringEncoding) *String {
	return &String{inner: &Bytes{Base: NewBase(nil), Mode: BytesNullTerm}, Encoding: enc}
}

func NewRestString(enc scalar.StringEncoding) *String {
	return &String{inner: NewRestBytes(), Encoding: enc}
}

func (p *String) Param(name string) (lazyeval.Expr, bool)  { return p.inner.Param(name) }
func (p *String) Method(name string) (lazyeval.Expr, bool) { return p.inner.Method(name) }
func (p *String) Parent() lazyeval.Node                    { return p.inner.Parent() }
func (p *String) SetParent(parent Field)                   { p.inner.SetParent(parent) }
func (p *String) NumBits() (int, error)                    { return p.inner.NumBits() }
func (p *String) Clear() bool                               { return p.inner.Clear() }

func (p *String) ClassTag() string { return "str" }

func (p *String) Params() map[string]lazyeval.Expr { return p.inner.Params() }

func (p *String) NewInstance(initial any, parent Field) (Field, error) {
	var initBytes any
	if s, ok := initial.(string); ok {
		raw, err := p.Encoding.Encode(s)
		if err != nil {
			return nil, fmt.Errorf("field: encoding initial string value: %w", err)
		}
		initBytes = raw
	} else {
		initBytes = initial
	}
	innerField, err := p.inner.NewInstance(initBytes, parent)
	if err != nil {
		return nil, err
	}
	return &String{inner: innerField.(*Bytes), Encoding: p.Encoding}, nil
}

func (p *String) Snapshot() (any, error) {
	raw, err := p.inner.Snapshot()
	if err != nil {
		return nil, err
	}
	return p.Encoding.Decode(raw.([]byte))
}

func (p *String) Assign(v any) error {
	s, ok := v.(string)
	if !ok {
		return p.inner.Assign(v)
	}
	raw, err := p.Encoding.Encode(s)
	if err != nil {
		return fmt.Errorf("field: encoding assigned string: %w", err)
	}
	return p.inner.Assign(raw)
}

func (p *String) Read(s *bitio.Stream) error  { return p.inner.Read(s) }
func (p *String) Write(s *bitio.Stream) error { return p.inner.Write(s) }
