package field_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binschema/binschema/pkg/bitio"
	"github.com/binschema/binschema/pkg/field"
)

func TestFloat32ReadWriteBigEndian(t *testing.T) {
	proto := field.NewFloat(32, field.BigEndian)
	inst, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)

	src := []byte{0x40, 0x00, 0x00, 0x00} // 2.0
	r := bitio.NewReader(bytes.NewReader(src))
	require.NoError(t, inst.Read(r))
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2.0, snap)

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, inst.Write(w))
	require.NoError(t, w.Flush())
	assert.Equal(t, src, buf.Bytes())
}

func TestFloat64LittleEndianRoundTrip(t *testing.T) {
	proto := field.NewFloat(64, field.LittleEndian)
	inst, err := proto.NewInstance(3.5, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, inst.Write(w))
	require.NoError(t, w.Flush())

	inst2, err := proto.NewInstance(nil, nil)
	require.NoError(t, err)
	r := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, inst2.Read(r))
	snap, err := inst2.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3.5, snap)
}

func TestFloatCheckValueFailure(t *testing.T) {
	inst := field.NewFloat(32, field.BigEndian)
	inst.CheckValue = lazyEvalLiteral(9.0)
	r := bitio.NewReader(bytes.NewReader([]byte{0x40, 0x00, 0x00, 0x00})) // 2.0
	err := inst.Read(r)
	assert.ErrorIs(t, err, field.ErrValidity)
}
