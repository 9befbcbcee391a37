package schema_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/field"
	"github.com/binschema/binschema/pkg/schema"
)

func TestRegistryLookupBuiltinEndianSuffix(t *testing.T) {
	r := schema.NewRegistry()
	ts, err := r.Lookup("uint16le", field.BigEndian)
	require.NoError(t, err)
	proto := ts(field.BigEndian)
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)

	rd := bitio.NewReader(bytes.NewReader([]byte{0x01, 0x00}))
	require.NoError(t, inst.Read(rd))
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap)
}

func TestRegistryLookupBitField(t *testing.T) {
	r := schema.NewRegistry()
	ts, err := r.Lookup("b3le", field.BigEndian)
	require.NoError(t, err)
	proto := ts(field.BigEndian)
	assert.Equal(t, "b3le", proto.ClassTag())
}

func TestRegistryLookupCamelCase(t *testing.T) {
	r := schema.NewRegistry()
	_, err := r.Lookup("UInt32", field.BigEndian)
	require.NoError(t, err)
}

func TestRegistryUnregisteredType(t *testing.T) {
	r := schema.NewRegistry()
	_, err := r.Lookup("nonexistent_type", field.BigEndian)
	assert.ErrorIs(t, err, field.ErrUnregisteredType)
}
