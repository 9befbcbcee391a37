package field

import "github.com/binschema/binschema/pkg/lazyeval"

// Base supplies the lazyeval.Node machinery (parameter map, parent
// back-pointer, built-in methods) common to every concrete Field. Concrete
// primitives and composites embed Base and add their own Read/Write/
// Snapshot/Assign logic.
type Base struct {
	parent  Field
	params  map[string]lazyeval.Expr
	methods map[string]lazyeval.Expr
}

// NewBase constructs a Base with the given declared parameters. methods is
// typically populated afterward via AddMethod, once the owning Field value
// exists (built-ins like "parent" close over the Field itself).
func NewBase(params map[string]lazyeval.Expr) Base {
	if params == nil {
		params = map[string]lazyeval.Expr{}
	}
	return Base{params: params, methods: map[string]lazyeval.Expr{}}
}

func (b *Base) Param(name string) (lazyeval.Expr, bool) {
	e, ok := b.params[name]
	return e, ok
}

func (b *Base) Method(name string) (lazyeval.Expr, bool) {
	e, ok := b.methods[name]
	return e, ok
}

// AddMethod registers a built-in or child accessor under name, overwriting
// any previous binding.
func (b *Base) AddMethod(name string, expr lazyeval.Expr) {
	if b.methods == nil {
		b.methods = map[string]lazyeval.Expr{}
	}
	b.methods[name] = expr
}

func (b *Base) Parent() lazyeval.Node {
	if b.parent == nil {
		return nil
	}
	return b.parent
}

func (b *Base) SetParent(p Field) {
	b.parent = p

	b.AddMethod("parent", lazyeval.Literal{Value: p})
	if p == nil {
		return
	}
	if root := findRoot(p); root != nil {
		b.AddMethod("root", lazyeval.Literal{Value: root})
	}
}

func findRoot(f Field) Field {
	cur := f
	for {
		p := ParentField(cur)
		if p == nil {
			return cur
		}
		cur = p
	}
}

// Names lists every parameter and method name this Base exposes, for
// lazyeval.NamedNode / CEL activation building.
func (b *Base) Names() []string {
	names := make([]string, 0, len(b.params)+len(b.methods))
	for n := range b.params {
		names = append(names, n)
	}
	for n := range b.methods {
		names = append(names, n)
	}
	return names
}
