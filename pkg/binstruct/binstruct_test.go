package binstruct_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binschema/binschema/pkg/binstruct"
	"github.com/binschema/binschema/pkg/field"
	"github.com/binschema/binschema/pkg/schema"
)

func testProto(t *testing.T) schema.Prototype {
	t.Helper()
	proto, err := schema.NewRecordProto("point", []schema.FieldDef{
		{Name: "x", Type: schema.Fixed(field.NewInt(16, false, field.BigEndian))},
		{Name: "y", Type: schema.Fixed(field.NewInt(16, false, field.BigEndian))},
	}, nil)
	require.NoError(t, err)
	return proto
}

func TestCodecSerializeThenParse(t *testing.T) {
	codec := binstruct.New(testProto(t))

	var buf bytes.Buffer
	require.NoError(t, codec.Serialize(&buf, map[string]any{"x": 1, "y": 2}))
	assert.Equal(t, []byte{0x00, 0x01, 0x00, 0x02}, buf.Bytes())

	inst, err := codec.ParseBytes(buf.Bytes())
	require.NoError(t, err)
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	m := snap.(schema.OrderedFields)
	assert.Equal(t, []string{"x", "y"}, m.Keys)
	x, _ := m.Get("x")
	y, _ := m.Get("y")
	assert.Equal(t, uint64(1), x)
	assert.Equal(t, uint64(2), y)
}

func TestSnapshotYAMLRoundTrip(t *testing.T) {
	codec := binstruct.New(testProto(t))
	inst, err := codec.ParseBytes([]byte{0x00, 0x05, 0x00, 0x06})
	require.NoError(t, err)

	var yamlBuf bytes.Buffer
	require.NoError(t, binstruct.SnapshotToYAML(&yamlBuf, inst))
	assert.Less(t, strings.Index(yamlBuf.String(), "x:"), strings.Index(yamlBuf.String(), "y:"),
		"declared field order x, y must survive into the YAML rendering")

	inst2, err := schema.Instantiate(testProto(t), nil)
	require.NoError(t, err)
	require.NoError(t, binstruct.SnapshotFromYAML(&yamlBuf, inst2))

	var out bytes.Buffer
	require.NoError(t, codec.SerializeField(&out, inst2))
	assert.Equal(t, []byte{0x00, 0x05, 0x00, 0x06}, out.Bytes())
}
