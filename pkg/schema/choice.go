package schema

import (
	"fmt"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/field"
	"github.com/binschema/binschema/pkg/lazyeval"
)

// ChoiceProto is the Prototype for a tagged union: exactly one alternative
// is live at a time, selected by evaluating Selection against the live
// tree. Selector keys are integers, matching every selection example in
// the domain this engine targets (a small ordinal or discriminant field).
type ChoiceProto struct {
	Tag       string
	Choices   map[int64]TypeSpec
	Selection lazyeval.Expr
}

func NewChoiceProto(tag string, choices map[int64]TypeSpec, selection lazyeval.Expr) *ChoiceProto {
	return &ChoiceProto{Tag: tag, Choices: choices, Selection: selection}
}

func (p *ChoiceProto) ClassTag() string { return p.Tag }

func (p *ChoiceProto) Params() map[string]lazyeval.Expr {
	return map[string]lazyeval.Expr{"selection": p.Selection}
}

func (p *ChoiceProto) NewInstance(initial any, parent field.Field) (field.Field, error) {
	c := &Choice{
		Base: field.NewBase(p.Params()),
		tag:  p.Tag, choices: p.Choices, selection: p.Selection,
	}
	c.SetParent(parent)
	if initial != nil {
		if err := c.Assign(initial); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Choice is the live instance. current is rebuilt from scratch whenever
// Selection's evaluated key changes, dropping any prior state — per §4.6,
// switching alternatives is "drop and reconstruct", never a conversion.
type Choice struct {
	field.Base

	tag       string
	choices   map[int64]TypeSpec
	selection lazyeval.Expr

	currentKey int64
	hasCurrent bool
	current    field.Field
}

func (c *Choice) refresh() error {
	v, err := lazyeval.Resolve(c.selection, lazyeval.Context{Node: c})
	if err != nil {
		return fmt.Errorf("choice selection: %w", err)
	}
	key := toInt64Key(v)
	if c.hasCurrent && key == c.currentKey {
		return nil
	}
	ts, ok := c.choices[key]
	if !ok {
		return fmt.Errorf("%w: no choice alternative for selection %v", field.ErrUnregisteredType, v)
	}
	child, err := ts(resolveEndian(c)).NewInstance(nil, c)
	if err != nil {
		return err
	}
	c.current = child
	c.currentKey = key
	c.hasCurrent = true
	return nil
}

func toInt64Key(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	default:
		return 0
	}
}

func (c *Choice) ByteAligned() bool { return true }

func (c *Choice) Read(s *bitio.Stream) error {
	if err := c.refresh(); err != nil {
		return err
	}
	return c.current.Read(s)
}

func (c *Choice) Write(s *bitio.Stream) error {
	if err := c.refresh(); err != nil {
		return err
	}
	return c.current.Write(s)
}

func (c *Choice) NumBits() (int, error) {
	if err := c.refresh(); err != nil {
		return 0, err
	}
	return c.current.NumBits()
}

func (c *Choice) Clear() bool {
	return c.current == nil || c.current.Clear()
}

func (c *Choice) Snapshot() (any, error) {
	if err := c.refresh(); err != nil {
		return nil, err
	}
	return c.current.Snapshot()
}

func (c *Choice) Assign(v any) error {
	if err := c.refresh(); err != nil {
		return err
	}
	return c.current.Assign(v)
}

// Current returns the currently-selected child Field, refreshing the
// selection first.
func (c *Choice) Current() (field.Field, error) {
	if err := c.refresh(); err != nil {
		return nil, err
	}
	return c.current, nil
}
