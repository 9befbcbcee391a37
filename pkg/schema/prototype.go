// Package schema implements the composite Field kinds — Record, Struct,
// Array, Choice — plus the Prototype contract every schema node (primitive
// or composite) satisfies and a minimal type registry external callers can
// use to look prototypes up by name.
package schema

import (
	"fmt"

	"github.com/binschema/binschema/pkg/field"
	"github.com/binschema/binschema/pkg/lazyeval"
)

// Prototype is an immutable schema node: a class tag, its declared
// parameter expressions, and a factory for live instances. Every primitive
// constructor in pkg/field already satisfies this interface structurally;
// Record/Struct/Array/Choice in this package implement it directly.
type Prototype interface {
	ClassTag() string
	Params() map[string]lazyeval.Expr
	NewInstance(initial any, parent field.Field) (field.Field, error)
}

// TypeSpec resolves to a concrete Prototype given an inherited byte order —
// the vehicle for §4.4's endian-polymorphic field types (a bare "int16"
// becomes int16be or int16le depending on the enclosing Record's :endian).
// A TypeSpec that ignores its argument (Fixed) models a type that already
// names its own endian, or has none (strings, bytes, nested records).
type TypeSpec func(endian field.Endian) Prototype

// Fixed wraps an already-concrete Prototype as a TypeSpec that ignores the
// inherited endian entirely.
func Fixed(p Prototype) TypeSpec {
	return func(field.Endian) Prototype { return p }
}

// Int is an endian-polymorphic integer TypeSpec.
func Int(bits int, signed bool) TypeSpec {
	return func(endian field.Endian) Prototype { return field.NewInt(bits, signed, endian) }
}

// Float is an endian-polymorphic float TypeSpec.
func Float(bits int) TypeSpec {
	return func(endian field.Endian) Prototype { return field.NewFloat(bits, endian) }
}

// Instantiate is the top-level entry point: it resolves p against the
// given initial snapshot value with no parent, producing a root instance.
func Instantiate(p Prototype, initial any) (field.Field, error) {
	return p.NewInstance(initial, nil)
}

// resolveEndian walks n's own :endian parameter, then its ancestors',
// defaulting to big-endian if none is declared anywhere — shared by Record
// and Array, both of which need an inherited byte order to hand to
// endian-polymorphic child TypeSpecs.
func resolveEndian(n lazyeval.Node) field.Endian {
	v, err := lazyeval.Resolve(lazyeval.Symbol{Name: "endian"}, lazyeval.Context{Node: n})
	if err != nil {
		return field.BigEndian
	}
	if e, ok := v.(field.Endian); ok {
		return e
	}
	return field.BigEndian
}

// reservedNames are the Record/Struct contract's own operation names — a
// declared field may not collide with one of these (§3).
var reservedNames = map[string]bool{
	"snapshot": true, "assign": true, "clear": true, "read": true,
	"write": true, "num_bytes": true, "field_names": true, "has_key": true,
	"parent": true, "root": true, "index": true, "io": true,
}

// sanitizeFieldNames validates a Record/Struct's declared field list
// against the reserved-name and duplicate-name policies, once, at
// prototype construction. Anonymous fields (empty name) are exempt from
// both checks — they are never addressable by name.
func sanitizeFieldNames(names []string) error {
	seen := map[string]bool{}
	for _, n := range names {
		if n == "" {
			continue
		}
		if reservedNames[n] {
			return fmt.Errorf("%w: field name %q collides with a Record operation", field.ErrNameCollision, n)
		}
		if seen[n] {
			return fmt.Errorf("%w: duplicate field name %q", field.ErrNameCollision, n)
		}
		seen[n] = true
	}
	return nil
}
