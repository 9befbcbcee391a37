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

func TestFixedStringRoundTrip(t *testing.T) {
	proto := field.NewFixedString(lazyEvalLiteral(3), scalar.UTF8)
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)

	r := bitio.NewReader(bytes.NewReader([]byte("abc")))
	require.NoError(t, inst.Read(r))
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "abc", snap)
}

func TestNullTerminatedBytes(t *testing.T) {
	proto := &field.Bytes{Mode: field.BytesNullTerm}
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)

	r := bitio.NewReader(bytes.NewReader([]byte{'h', 'i', 0x00, 'x'}))
	require.NoError(t, inst.Read(r))
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), snap)
}

func TestRestBytesReadsToEOF(t *testing.T) {
	proto := field.NewRestBytes()
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)

	r := bitio.NewReader(bytes.NewReader([]byte{1, 2, 3}))
	require.NoError(t, inst.Read(r))
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, snap)
}

func TestFixedBytesWriteWithPadding(t *testing.T) {
	proto := field.NewFixedBytes(lazyEvalLiteral(4))
	proto.PadByte = 0xFF
	inst, err := proto.NewInstance([]byte{1, 2}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, inst.Write(w))
	assert.Equal(t, []byte{1, 2, 0xFF, 0xFF}, buf.Bytes())
}

func TestBCDFieldReadSnapshotAndAssignWrite(t *testing.T) {
	proto := field.NewFixedBytes(lazyEvalLiteral(2))
	proto.Kind = scalar.KindBCD
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)

	r := bitio.NewReader(bytes.NewReader([]byte{0x12, 0x34}))
	require.NoError(t, inst.Read(r))
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, scalar.BCDValue{Raw: []byte{0x12, 0x34}, Value: 1234}, snap)

	inst2, err := proto.NewInstance(5678, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, inst2.Write(w))
	require.NoError(t, w.Flush())
	assert.Equal(t, []byte{0x56, 0x78}, buf.Bytes())
}
