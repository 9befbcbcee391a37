package schema

import (
	"fmt"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/field"
	"github.com/binschema/binschema/pkg/lazyeval"
	"gopkg.in/yaml.v3"
)

// OrderedFields is a Record's Snapshot shape: a name -> value mapping that
// preserves declared field order. A plain Go map has no iteration order, so
// a bare map[string]any would make a Record's YAML/log rendering disagree
// with its schema's declared field order on every run.
type OrderedFields struct {
	Keys   []string
	Values map[string]any
}

// Get returns the value bound to name and whether it was present.
func (o OrderedFields) Get(name string) (any, bool) {
	v, ok := o.Values[name]
	return v, ok
}

// MarshalYAML implements yaml.Marshaler so encoding an OrderedFields value
// writes its fields in declaration order instead of yaml.v3's default
// sorted-map-key order for a plain map.
func (o OrderedFields) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range o.Keys {
		var keyNode, valNode yaml.Node
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		if err := valNode.Encode(o.Values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &keyNode, &valNode)
	}
	return node, nil
}

// FieldDef declares one member of a Record/Struct: its name (empty for an
// anonymous Struct field), its type, and an optional presence condition.
type FieldDef struct {
	Name string
	Type TypeSpec
	If   lazyeval.Expr // nil means always present
}

// RecordProto is the Prototype for a Record (and, embedded, for Struct).
type RecordProto struct {
	Tag        string
	FieldsDef  []FieldDef
	Hide       map[string]bool
	EndianExpr lazyeval.Expr // nil: no explicit :endian on this Record
}

// NewRecordProto validates fields against the reserved-name/duplicate
// policy and returns a ready-to-instantiate prototype.
func NewRecordProto(tag string, fields []FieldDef, hide []string) (*RecordProto, error) {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	if err := sanitizeFieldNames(names); err != nil {
		return nil, err
	}
	hideSet := map[string]bool{}
	for _, h := range hide {
		hideSet[h] = true
	}
	return &RecordProto{Tag: tag, FieldsDef: fields, Hide: hideSet}, nil
}

func (p *RecordProto) ClassTag() string { return p.Tag }

func (p *RecordProto) Params() map[string]lazyeval.Expr {
	m := map[string]lazyeval.Expr{}
	if p.EndianExpr != nil {
		m["endian"] = p.EndianExpr
	}
	return m
}

// NewInstance builds a live Record, instantiating children in declared
// order and assigning from initial (a map[string]any or *Record snapshot)
// if given.
func (p *RecordProto) NewInstance(initial any, parent field.Field) (field.Field, error) {
	r := &Record{
		Base:      field.NewBase(p.Params()),
		tag:       p.Tag,
		hide:      p.Hide,
		childDefs: p.FieldsDef,
	}
	r.SetParent(parent)

	initMap := asMap(initial)
	for _, def := range p.FieldsDef {
		proto := def.Type(r.resolveEndian())
		var childInit any
		if initMap != nil {
			childInit = initMap[def.Name]
		}
		child, err := proto.NewInstance(childInit, r)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", def.Name, err)
		}
		r.children = append(r.children, namedChild{name: def.Name, field: child, ifExpr: def.If})
		if def.Name != "" {
			childRef := child
			r.AddMethod(def.Name, lazyeval.Closure{Fn: func(lazyeval.Context) (any, error) {
				return childRef.Snapshot()
			}})
		}
	}
	return r, nil
}

// resolveEndian walks this Record's own :endian parameter, then its
// ancestors', per §4.4's inheritance rule; a schema that never declares
// :endian anywhere falls back to big-endian rather than failing, since
// most fields never reference it at all (only endian-polymorphic Int/
// Float TypeSpecs consult the result).
func (r *Record) resolveEndian() field.Endian { return resolveEndian(r) }

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case OrderedFields:
		return m.Values
	case *Record:
		snap, err := m.Snapshot()
		if err != nil {
			return nil
		}
		if of, ok := snap.(OrderedFields); ok {
			return of.Values
		}
	}
	return nil
}

type namedChild struct {
	name   string
	field  field.Field
	ifExpr lazyeval.Expr
}

// Record is the live instance: ordered named fields, each individually
// addressable, iterated/snapshotted in declared order minus hidden ones
// (Snapshot also leaves out a field whose If condition is false).
type Record struct {
	field.Base

	tag       string
	hide      map[string]bool
	childDefs []FieldDef
	children  []namedChild
}

func (r *Record) present(nc namedChild) (bool, error) {
	if nc.ifExpr == nil {
		return true, nil
	}
	v, err := lazyeval.Resolve(nc.ifExpr, lazyeval.Context{Node: r})
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

func (r *Record) Read(s *bitio.Stream) error {
	for _, nc := range r.children {
		ok, err := r.present(nc)
		if err != nil {
			return fmt.Errorf("field %q: %w", nc.name, err)
		}
		if !ok {
			continue
		}
		if err := nc.field.Read(s); err != nil {
			return fmt.Errorf("field %q: %w", nc.name, err)
		}
	}
	return nil
}

func (r *Record) Write(s *bitio.Stream) error {
	for _, nc := range r.children {
		ok, err := r.present(nc)
		if err != nil {
			return fmt.Errorf("field %q: %w", nc.name, err)
		}
		if !ok {
			continue
		}
		if err := nc.field.Write(s); err != nil {
			return fmt.Errorf("field %q: %w", nc.name, err)
		}
	}
	return nil
}

func (r *Record) NumBits() (int, error) {
	var total int
	for _, nc := range r.children {
		ok, err := r.present(nc)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		if aligned, isAligned := nc.field.(field.ByteAligned); !isAligned || aligned.ByteAligned() {
			total = (total + 7) / 8 * 8
		}
		bits, err := nc.field.NumBits()
		if err != nil {
			return 0, err
		}
		total += bits
	}
	return total, nil
}

func (r *Record) Clear() bool {
	for _, nc := range r.children {
		if !nc.field.Clear() {
			return false
		}
	}
	return true
}

func (r *Record) Snapshot() (any, error) {
	out := OrderedFields{Values: map[string]any{}}
	for _, nc := range r.children {
		if nc.name == "" || r.hide[nc.name] {
			continue
		}
		ok, err := r.present(nc)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", nc.name, err)
		}
		if !ok {
			continue
		}
		v, err := nc.field.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", nc.name, err)
		}
		out.Keys = append(out.Keys, nc.name)
		out.Values[nc.name] = v
	}
	return out, nil
}

func (r *Record) Assign(v any) error {
	m := asMap(v)
	if m == nil {
		return fmt.Errorf("%w: Record.Assign requires a map or Record snapshot", field.ErrInvalidAssignment)
	}
	for _, nc := range r.children {
		if nc.name == "" {
			continue
		}
		if val, ok := m[nc.name]; ok {
			if err := nc.field.Assign(val); err != nil {
				return fmt.Errorf("field %q: %w", nc.name, err)
			}
		}
	}
	return nil
}

// Get returns the named child Field, or nil if no such visible or hidden
// field exists.
func (r *Record) Get(name string) field.Field {
	for _, nc := range r.children {
		if nc.name == name {
			return nc.field
		}
	}
	return nil
}

// FieldNames lists declared names in order, excluding hidden and anonymous
// fields.
func (r *Record) FieldNames() []string {
	var names []string
	for _, nc := range r.children {
		if nc.name == "" || r.hide[nc.name] {
			continue
		}
		names = append(names, nc.name)
	}
	return names
}

// HasKey reports whether name addresses a field, including hidden ones.
func (r *Record) HasKey(name string) bool {
	return r.Get(name) != nil
}

func (r *Record) ByteAligned() bool { return true }
