package lazyeval

import (
	"fmt"
	"sync"

	"github.com/binschema/binschema/internal/celenv"
)

// pool is the process-wide CEL compilation cache backing CEL(). Schemas are
// typically instantiated many times over a process's lifetime, and the set
// of distinct expression strings in a schema is fixed at schema-definition
// time, so a single shared pool amortizes compilation across every
// instance.
var (
	poolOnce sync.Once
	pool     *celenv.Pool
	poolErr  error
)

func sharedPool() (*celenv.Pool, error) {
	poolOnce.Do(func() {
		pool, poolErr = celenv.NewPool()
	})
	return pool, poolErr
}

// CEL compiles src once (cached by source text) and returns an Expr that,
// on each Resolve, flattens ctx's ancestor chain into a CEL activation map
// and evaluates the compiled program against it. It is the textual
// alternative to a Go Closure: a schema author who wants to write
// `len - 1` rather than a Go function gets the same resolution semantics,
// since the activation is built by walking the same Parent() chain Resolve
// itself walks.
func CEL(src string) Expr {
	return Closure{Fn: func(ctx Context) (any, error) {
		p, err := sharedPool()
		if err != nil {
			return nil, fmt.Errorf("lazyeval: CEL(%q): %w", src, err)
		}
		prog, err := p.Get(src)
		if err != nil {
			return nil, fmt.Errorf("lazyeval: CEL(%q): %w", src, err)
		}
		vars := activationVars(ctx)
		out, err := p.Eval(prog, vars)
		if err != nil {
			return nil, fmt.Errorf("lazyeval: CEL(%q): %w", src, err)
		}
		return out, nil
	}}
}

// activationVars flattens the chain of ancestor nodes' parameters and
// methods into a single map, root-most first so that a nearer scope's name
// shadows a farther one's — mirroring the override order Resolve itself
// uses for a Symbol lookup, but eagerly, since CEL evaluates against one
// flat activation rather than walking the chain itself.
func activationVars(ctx Context) map[string]any {
	var chain []Node
	for n := ctx.Node; n != nil; n = n.Parent() {
		chain = append(chain, n)
	}
	vars := map[string]any{}
	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]
		for _, name := range namesOf(n) {
			if v, err := (Context{Node: n, Overrides: ctx.Overrides}).Get(name); err == nil {
				vars[name] = v
			}
		}
	}
	for k, v := range ctx.Overrides {
		vars[k] = v
	}
	return vars
}

// namesOf lists the names a node wants exposed to CEL activations. Nodes
// that want to participate implement NamedNode; others contribute nothing
// beyond what their ancestors already expose.
func namesOf(n Node) []string {
	if named, ok := n.(NamedNode); ok {
		return named.Names()
	}
	return nil
}

// NamedNode is an optional extension of Node: a node that can enumerate its
// own parameter/method names so CEL activations can be built without a
// schema author having to list free variables by hand.
type NamedNode interface {
	Node
	Names() []string
}
