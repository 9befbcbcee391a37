package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binschema/binschema/pkg/schema"
)

func TestArrayAtDoesNotExtend(t *testing.T) {
	proto, err := schema.NewArrayProto("arr", schema.Int(8, false), nil, nil, false)
	require.NoError(t, err)
	inst, err := schema.Instantiate(proto, []any{1, 2})
	require.NoError(t, err)
	arr := inst.(*schema.Array)

	_, err = arr.At(0)
	require.NoError(t, err)
	_, err = arr.At(5)
	assert.Error(t, err)
	assert.Equal(t, 2, arr.Len())
}

func TestArrayGetAutoExtends(t *testing.T) {
	proto, err := schema.NewArrayProto("arr", schema.Int(8, false), nil, nil, false)
	require.NoError(t, err)
	inst, err := schema.Instantiate(proto, []any{1})
	require.NoError(t, err)
	arr := inst.(*schema.Array)

	el, err := arr.Get(4)
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, 5, arr.Len())

	snap, err := el.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), snap)
}

func TestArrayInsertSplicesAtIndex(t *testing.T) {
	proto, err := schema.NewArrayProto("arr", schema.Int(8, false), nil, nil, false)
	require.NoError(t, err)
	inst, err := schema.Instantiate(proto, []any{1, 2})
	require.NoError(t, err)
	arr := inst.(*schema.Array)

	require.NoError(t, arr.Insert(3, []any{9, 10}))
	assert.Equal(t, 5, arr.Len())

	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []any{uint64(1), uint64(2), uint64(0), uint64(9), uint64(10)}, snap)
}
