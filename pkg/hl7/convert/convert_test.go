package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savegress/hl7kit/pkg/hl7"
	"github.com/savegress/hl7kit/pkg/hl7/builder"
	"github.com/savegress/hl7kit/pkg/hl7/parser"
)

const sample = "MSH|^~\\&|APP|FAC|||20240101120000||ADT^A01|42|P|2.5\rPID|1||123^^^MR~456||DOE^JOHN\rPV1|1|I"

func TestRoundTrip(t *testing.T) {
	msg, err := parser.Parse(sample)
	require.NoError(t, err)

	b, err := ToBuilder(msg)
	require.NoError(t, err)
	assert.Equal(t, sample, b.String())

	back, err := ToParser(b)
	require.NoError(t, err)
	assert.Equal(t, sample, back.Value())
}

func TestToBuilder_Independent(t *testing.T) {
	msg, err := parser.Parse(sample)
	require.NoError(t, err)

	b, err := ToBuilder(msg)
	require.NoError(t, err)
	b.SetComponent(2, 5, 1, 2, "JANE")
	require.NoError(t, b.Err())

	name, err := msg.Get(2, 5, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "JOHN", name.Value())
}

func TestToParser_AfterEdits(t *testing.T) {
	b := builder.New(nil).
		SetField(1, 9, "ORU^R01").
		AddSegment("OBX|1|ST|||ok")
	require.NoError(t, b.Err())

	msg, err := ToParser(b)
	require.NoError(t, err)
	el, err := msg.Get(2, 5)
	require.NoError(t, err)
	assert.Equal(t, "ok", el.Value())
}

func TestConvert_Rejects(t *testing.T) {
	msg, err := parser.Parse(sample)
	require.NoError(t, err)

	seg, err := msg.Get(2)
	require.NoError(t, err)
	_, err = ToBuilder(seg)
	assert.ErrorIs(t, err, hl7.ErrMalformedMessage)
	_, err = ToBuilder(seg.Clone())
	assert.ErrorIs(t, err, hl7.ErrMalformedMessage)

	failed := builder.New(nil).SetField(1, 1, "")
	require.Error(t, failed.Err())
	_, err = ToParser(failed)
	assert.ErrorIs(t, err, hl7.ErrInvalidMutation)
}
