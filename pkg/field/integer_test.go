package field_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/field"
	"github.com/binschema/binschema/pkg/scalar"
)

func TestIntReadWriteBigEndian(t *testing.T) {
	proto := field.NewInt(16, false, field.BigEndian)
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)

	r := bitio.NewReader(bytes.NewReader([]byte{0x01, 0x02}))
	require.NoError(t, inst.Read(r))
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102), snap)

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, inst.Write(w))
	require.NoError(t, w.Flush())
	assert.Equal(t, []byte{0x01, 0x02}, buf.Bytes())
}

func TestIntSignedNegative(t *testing.T) {
	proto := field.NewInt(8, true, field.BigEndian)
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)

	r := bitio.NewReader(bytes.NewReader([]byte{0xFF}))
	require.NoError(t, inst.Read(r))
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), snap)
}

func TestBitFieldLittleEndianPacking(t *testing.T) {
	// Mirrors spec scenario 3: bit1le a=1, bit2le b=2 pack into 0b0000_0101.
	a := field.NewBitField(1, true)
	ai, err := a.NewInstance(1, nil)
	require.NoError(t, err)
	b := field.NewBitField(2, true)
	bi, err := b.NewInstance(2, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, ai.Write(w))
	require.NoError(t, bi.Write(w))
	require.NoError(t, w.Flush())
	assert.Equal(t, []byte{0x05}, buf.Bytes())
}

func TestIntCheckValueFailure(t *testing.T) {
	proto := field.NewInt(8, false, field.BigEndian)
	proto.CheckValue = lazyEvalLiteral(5)
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)

	r := bitio.NewReader(bytes.NewReader([]byte{0x09}))
	err = inst.Read(r)
	assert.ErrorIs(t, err, field.ErrValidity)
}

func TestIntComputedValueRejectsAssign(t *testing.T) {
	proto := field.NewInt(8, false, field.BigEndian)
	proto.Value = lazyEvalLiteral(42)
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)
	err = inst.Assign(1)
	assert.ErrorIs(t, err, field.ErrInvalidAssignment)
}

func TestIntEnumProjectsKnownAndUnknownMembers(t *testing.T) {
	proto := field.NewInt(8, false, field.BigEndian)
	proto.Enum = map[int64]string{1: "red", 2: "green"}

	known, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)
	r := bitio.NewReader(bytes.NewReader([]byte{0x01}))
	require.NoError(t, known.Read(r))
	snap, err := known.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, scalar.EnumValue{Int: 1, Name: "red", Valid: true}, snap)

	unknown, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)
	r2 := bitio.NewReader(bytes.NewReader([]byte{0x09}))
	require.NoError(t, unknown.Read(r2))
	snap2, err := unknown.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, scalar.EnumValue{Int: 9, Name: "", Valid: false}, snap2)
}
