package celenv

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Pool compiles and caches CEL programs by source text. Every distinct
// expression string in a schema is compiled once and reused across every
// instance that carries it — schemas are typically instantiated many times
// over the lifetime of a process, and recompiling on every read/write would
// dominate runtime cost.
type Pool struct {
	mu    sync.RWMutex
	cache map[string]cel.Program
	env   *cel.Env
}

// NewPool builds a Pool over the shared Base environment.
func NewPool() (*Pool, error) {
	env, err := Base()
	if err != nil {
		return nil, err
	}
	return &Pool{cache: make(map[string]cel.Program), env: env}, nil
}

// Get compiles src, if not already cached, declaring every identifier-shaped
// token freeIdentifiers finds in it (CEL keywords excepted; function names
// are not filtered out) as a dynamically typed variable so the expression
// can be evaluated against an
// arbitrary activation map built from a field's ancestor chain.
func (p *Pool) Get(src string) (cel.Program, error) {
	p.mu.RLock()
	if prog, ok := p.cache[src]; ok {
		p.mu.RUnlock()
		return prog, nil
	}
	p.mu.RUnlock()

	var opts []cel.EnvOption
	for _, name := range freeIdentifiers(src) {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	extended, err := p.env.Extend(opts...)
	if err != nil {
		return nil, fmt.Errorf("celenv: extending environment for %q: %w", src, err)
	}

	ast, issues := extended.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("celenv: compiling %q: %w", src, issues.Err())
	}
	prog, err := extended.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("celenv: building program for %q: %w", src, err)
	}

	p.mu.Lock()
	p.cache[src] = prog
	p.mu.Unlock()
	return prog, nil
}

// Eval runs a previously compiled program against vars.
func (p *Pool) Eval(prog cel.Program, vars map[string]any) (any, error) {
	if vars == nil {
		vars = map[string]any{}
	}
	out, _, err := prog.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("celenv: evaluating expression: %w", err)
	}
	return out.Value(), nil
}

var celKeywords = map[string]bool{
	"true": true, "false": true, "null": true,
	"in": true, "as": true,
}

// freeIdentifiers does a minimal word-boundary scan for identifier-shaped
// tokens in a CEL source string, skipping keywords and numeric literals.
// It is not a real tokenizer — string literals and numbers that happen to
// contain letters can confuse it — but it only needs to produce a superset
// of the names actually referenced so each can be declared as a dynamic
// variable; declaring an unused name is harmless.
func freeIdentifiers(src string) []string {
	var names []string
	seen := map[string]bool{}
	inWord := false
	start := 0
	emit := func(word string) {
		if word == "" || celKeywords[word] || seen[word] {
			return
		}
		if word[0] >= '0' && word[0] <= '9' {
			return
		}
		seen[word] = true
		names = append(names, word)
	}
	for i, c := range src {
		isWordChar := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
		if isWordChar && !inWord {
			inWord = true
			start = i
		} else if !isWordChar && inWord {
			inWord = false
			emit(src[start:i])
		}
	}
	if inWord {
		emit(src[start:])
	}
	return names
}
