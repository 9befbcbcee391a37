// Package binstruct is the thin facade §6 calls for: wiring pkg/bitio and
// pkg/schema together so a caller can parse/serialize a prototype against
// an io.Reader/io.Writer or byte slice without hand-assembling a Stream,
// plus a YAML round trip for a field's Snapshot. It is not the schema
// builder itself — it takes an already-constructed schema.Prototype.
package binstruct

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/field"
	"github.com/binschema/binschema/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Option configures a Codec.
type Option func(*Codec)

// WithLogger installs a *slog.Logger a Codec uses to trace parse/serialize
// steps at debug level. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) { c.log = l }
}

// Codec parses and serializes against one schema.Prototype.
type Codec struct {
	proto schema.Prototype
	log   *slog.Logger
}

// New builds a Codec bound to proto.
func New(proto schema.Prototype, opts ...Option) *Codec {
	c := &Codec{proto: proto, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse reads a fresh instance of the Codec's prototype from r.
func (c *Codec) Parse(r io.Reader) (field.Field, error) {
	inst, err := schema.Instantiate(c.proto, nil)
	if err != nil {
		return nil, fmt.Errorf("binstruct: instantiating %s: %w", c.proto.ClassTag(), err)
	}
	s := bitio.NewReader(r)
	c.log.Debug("parsing", "type", c.proto.ClassTag())
	if err := inst.Read(s); err != nil {
		return nil, fmt.Errorf("binstruct: parsing %s: %w", c.proto.ClassTag(), err)
	}
	return inst, nil
}

// ParseBytes is Parse over an in-memory buffer.
func (c *Codec) ParseBytes(b []byte) (field.Field, error) {
	return c.Parse(bytes.NewReader(b))
}

// Serialize instantiates the Codec's prototype from a snapshot-shaped
// value and writes it to w.
func (c *Codec) Serialize(w io.Writer, value any) error {
	inst, err := schema.Instantiate(c.proto, value)
	if err != nil {
		return fmt.Errorf("binstruct: instantiating %s: %w", c.proto.ClassTag(), err)
	}
	s := bitio.NewWriter(w)
	c.log.Debug("serializing", "type", c.proto.ClassTag())
	if err := inst.Write(s); err != nil {
		return fmt.Errorf("binstruct: serializing %s: %w", c.proto.ClassTag(), err)
	}
	return s.Flush()
}

// SerializeField writes an already-instantiated Field's current value,
// useful when the caller built/mutated the tree directly rather than
// through Serialize's snapshot shortcut.
func (c *Codec) SerializeField(w io.Writer, inst field.Field) error {
	s := bitio.NewWriter(w)
	if err := inst.Write(s); err != nil {
		return fmt.Errorf("binstruct: serializing %s: %w", c.proto.ClassTag(), err)
	}
	return s.Flush()
}

// SnapshotToYAML renders inst's Snapshot as YAML.
func SnapshotToYAML(w io.Writer, inst field.Field) error {
	snap, err := inst.Snapshot()
	if err != nil {
		return fmt.Errorf("binstruct: snapshotting: %w", err)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("binstruct: encoding snapshot YAML: %w", err)
	}
	return nil
}

// SnapshotFromYAML decodes a YAML document into a snapshot value and
// assigns it onto inst.
func SnapshotFromYAML(r io.Reader, inst field.Field) error {
	var v any
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		return fmt.Errorf("binstruct: decoding snapshot YAML: %w", err)
	}
	if err := inst.Assign(normalizeYAML(v)); err != nil {
		return fmt.Errorf("binstruct: assigning decoded snapshot: %w", err)
	}
	return nil
}

// normalizeYAML converts yaml.v3's map[string]any (already native for
// mapping nodes) recursively so nested mappings/sequences match the
// map[string]any / []any shapes Record.Assign and Array.Assign expect.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

