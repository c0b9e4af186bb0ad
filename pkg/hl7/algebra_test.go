package hl7

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "OBX2", SegmentKey("OBX", 2))
	assert.Equal(t, "OBX2.1", ChildKey(SegmentKey("OBX", 2), 1))
	assert.Equal(t, "$.3", ChildKey(RootKey, 3))
}

func TestMoveValue(t *testing.T) {
	in := []string{"A", "B", "C", "D"}

	tests := []struct {
		from, to int
		want     []string
	}{
		{2, 3, []string{"A", "C", "B", "D"}},
		{3, 2, []string{"A", "C", "B", "D"}},
		{1, 4, []string{"B", "C", "D", "A"}},
		{4, 1, []string{"D", "A", "B", "C"}},
		{2, 6, []string{"A", "C", "D", "", "", "B"}},
	}

	for _, tt := range tests {
		got, err := MoveValue(in, tt.from, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "move %d to %d", tt.from, tt.to)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, in, "input is not modified")

	_, err := MoveValue(in, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestInsertValue(t *testing.T) {
	in := []string{"A", "B"}

	got, err := InsertValue(in, 1, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "A", "B"}, got)

	got, err = InsertValue(in, 3, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "x"}, got)

	got, err = InsertValue(nil, 3, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "x"}, got)

	assert.Equal(t, []string{"A", "B"}, in)

	_, err = InsertValue(in, 0, "x")
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestDeleteValue(t *testing.T) {
	in := []string{"A", "B", "C"}

	got, err := DeleteValue(in, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, got)

	got, err = DeleteValue(in, 9)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	assert.Equal(t, []string{"A", "B", "C"}, in)

	_, err = DeleteValue(in, 0)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestPadValues(t *testing.T) {
	assert.Equal(t, []string{"A", "", ""}, PadValues([]string{"A"}, 3))
	assert.Equal(t, []string{"A", "B"}, PadValues([]string{"A", "B"}, 1))
	assert.Empty(t, PadValues(nil, 0))
}
