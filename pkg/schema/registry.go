package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/binschema/binschema/pkg/field"
)

// Registry is the minimal type registry §6 requires of an external
// schema-building collaborator: lookup(name, endian?) -> TypeSpec. Both
// lower-snake and CamelCase spellings resolve; endian-polymorphic builtins
// compose name+endian; bit-field names (bN/bNle) ignore the endian hint
// since their bit order is spelled into the name itself.
type Registry struct {
	builtins map[string]TypeSpec
	named    map[string]Prototype
}

// NewRegistry builds a Registry pre-populated with the builtin integer and
// float names: int8/16/32/64, uint8/16/32/64, f32 and f64. String and
// byte-run primitives are not registered; bN/bNle bit-field names resolve
// in Lookup without a registration.
func NewRegistry() *Registry {
	r := &Registry{builtins: map[string]TypeSpec{}, named: map[string]Prototype{}}
	for _, bits := range []int{8, 16, 32, 64} {
		bits := bits
		r.builtins[fmt.Sprintf("int%d", bits)] = Int(bits, true)
		r.builtins[fmt.Sprintf("uint%d", bits)] = Int(bits, false)
	}
	r.builtins["f32"] = Float(32)
	r.builtins["f64"] = Float(64)
	return r
}

// Register makes a fully concrete, named Prototype (a nested Record/
// Struct/Array/Choice, or an endian-fixed primitive) available under name.
func (r *Registry) Register(name string, p Prototype) {
	r.named[canonical(name)] = p
}

var bitFieldName = regexp.MustCompile(`^b(\d+)(le)?$`)

// Lookup resolves name (optionally with an inherited endian hint) to a
// TypeSpec. Bit-field names (bN, bNle) ignore endian entirely — their bit
// order is fixed by the name.
func (r *Registry) Lookup(name string, endian field.Endian) (TypeSpec, error) {
	key := canonical(name)

	if m := bitFieldName.FindStringSubmatch(key); m != nil {
		bits, _ := strconv.Atoi(m[1])
		le := m[2] == "le"
		return Fixed(field.NewBitField(bits, le)), nil
	}

	if p, ok := r.named[key]; ok {
		return Fixed(p), nil
	}

	if ts, ok := r.builtins[key]; ok {
		return ts, nil
	}
	// endian-suffixed spelling, e.g. "int16le" / "uint32be"
	for _, suffix := range []string{"le", "be"} {
		if strings.HasSuffix(key, suffix) {
			base := strings.TrimSuffix(key, suffix)
			if ts, ok := r.builtins[base]; ok {
				fixedEndian := field.BigEndian
				if suffix == "le" {
					fixedEndian = field.LittleEndian
				}
				return Fixed(ts(fixedEndian)), nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %q", field.ErrUnregisteredType, name)
}

// canonical normalizes a CamelCase or lower-snake spelling to a single
// lookup key. The builtins registered here are single-word names
// (uint16, f32, b3le, ...), so a plain case fold is enough to make
// "UInt16" and "uint16" collide without guessing word boundaries in a
// multi-word CamelCase name.
func canonical(name string) string {
	return strings.ToLower(name)
}
