// Package lazyeval implements the name-resolution chain that every schema
// node's parameter expressions run through: a value is either a constant, a
// closure evaluated against a live field context, or a symbolic name that is
// looked up first among call-site overrides, then the current node's own
// parameters and methods, then repeated up the parent chain.
package lazyeval

import (
	"errors"
	"fmt"
)

// ErrUnresolvedName is returned when a Symbol cannot be resolved anywhere
// along the override/parameter/method/ancestor chain.
var ErrUnresolvedName = errors.New("lazyeval: unresolved name")

// Node is the narrow view of a live schema field that the evaluator needs.
// It deliberately does not mention field.Field — pkg/field depends on this
// package, not the reverse, so Field implements Node rather than this
// package importing it.
type Node interface {
	// Param returns the expression bound to name as a declared parameter of
	// this node, if any.
	Param(name string) (Expr, bool)

	// Method returns a built-in or child accessor bound to name: sibling
	// field lookups and the "parent"/"root" built-ins. Array's per-element
	// "index"/"element"/"array" bindings arrive as Context overrides, not
	// as methods.
	Method(name string) (Expr, bool)

	// Parent returns the enclosing Node, or nil at the root.
	Parent() Node
}

// Expr is a closed three-case sum: a literal value, a closure evaluated
// against a Context, or a symbolic name resolved through the chain in
// Resolve.
type Expr interface {
	isExpr()
}

// Literal is a constant value — passes through Resolve unchanged.
type Literal struct {
	Value any
}

func (Literal) isExpr() {}

// Closure captures no lexical state; it is evaluated against the Context
// active at the point Resolve was called.
type Closure struct {
	Fn func(Context) (any, error)
}

func (Closure) isExpr() {}

// Symbol is a reference by name to another field or parameter. Symbol{"foo"}
// evaluates identically to Closure{func(c Context) (any, error) { return
// c.Get("foo") }}.
type Symbol struct {
	Name string
}

func (Symbol) isExpr() {}

// Context is the live evaluation environment for an Expr: the field the
// expression is attached to, plus any call-site overrides (e.g. Array's
// per-element index/element/array bindings).
type Context struct {
	Node      Node
	Overrides map[string]any
}

// WithOverrides returns a copy of c whose overrides are c's own merged
// with overrides (an entry in overrides wins on a shared name), leaving c
// itself unmodified.
func (c Context) WithOverrides(overrides map[string]any) Context {
	merged := make(map[string]any, len(c.Overrides)+len(overrides))
	for k, v := range c.Overrides {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return Context{Node: c.Node, Overrides: merged}
}

// Get resolves name through the same chain Resolve uses for a Symbol,
// starting from c. It is the primitive Symbol and the built-in "method"
// closures are built on.
func (c Context) Get(name string) (any, error) {
	if c.Overrides != nil {
		if v, ok := c.Overrides[name]; ok {
			return v, nil
		}
	}
	for n := c.Node; n != nil; n = n.Parent() {
		if expr, ok := n.Param(name); ok {
			return Resolve(expr, Context{Node: n, Overrides: c.Overrides})
		}
		if expr, ok := n.Method(name); ok {
			return Resolve(expr, Context{Node: n, Overrides: c.Overrides})
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnresolvedName, name)
}

// Resolve evaluates expr against ctx following §4.2's chain: overrides,
// then the current node's parameters, then its methods, then repeated on
// each ancestor in turn. A resolution that itself yields another Expr is
// recursively resolved in the context where it was defined — this is the
// "cascading" requirement: an expression-valued lookup is not handed back
// raw, it is evaluated again.
func Resolve(expr Expr, ctx Context) (any, error) {
	switch e := expr.(type) {
	case Literal:
		return unwrapCascade(e.Value, ctx)
	case Closure:
		v, err := e.Fn(ctx)
		if err != nil {
			return nil, err
		}
		return unwrapCascade(v, ctx)
	case Symbol:
		v, err := ctx.Get(e.Name)
		if err != nil {
			return nil, err
		}
		return unwrapCascade(v, ctx)
	default:
		return nil, fmt.Errorf("lazyeval: unknown expression type %T", expr)
	}
}

// unwrapCascade re-resolves a value that is itself an Expr, in the context
// it was produced in. Plain values pass through unchanged.
func unwrapCascade(v any, ctx Context) (any, error) {
	if inner, ok := v.(Expr); ok {
		return Resolve(inner, ctx)
	}
	return v, nil
}
