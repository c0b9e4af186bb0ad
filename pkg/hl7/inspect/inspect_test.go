package inspect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savegress/hl7kit/pkg/hl7/parser"
)

const admit = "MSH|^~\\&|EPIC|HOSP|LAB|LABFAC|20240315083000||ADT^A01^ADT_A01|MSG0001|P|2.5.1\r" +
	"EVN|A01|20240315083000\r" +
	"PID|1||12345^^^MR||DOE^JOHN||19800101|M|||1 MAIN ST\\F\\APT 2\r" +
	"NK1|1|DOE^JANE\r" +
	"OBX|1|ST|CODE1||first\r" +
	"NTE|1||note a\r" +
	"OBX|2|ST|CODE2||\"\"\r" +
	"NTE|1||note b"

func parse(t *testing.T, text string) *parser.Element {
	t.Helper()
	msg, err := parser.Parse(text)
	require.NoError(t, err)
	return msg
}

func TestHeaderAccessors(t *testing.T) {
	msg := parse(t, admit)

	assert.Equal(t, MessageTypeADT, MessageType(msg))
	assert.Equal(t, TriggerA01, TriggerEvent(msg))
	assert.Equal(t, "MSG0001", ControlID(msg))
	assert.Equal(t, "2.5.1", Version(msg))
	assert.Equal(t, Endpoint{Application: "EPIC", Facility: "HOSP"}, Sender(msg))
	assert.Equal(t, Endpoint{Application: "LAB", Facility: "LABFAC"}, Receiver(msg))

	ts, err := Timestamp(msg)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC), ts)
}

func TestHeaderAccessors_Sparse(t *testing.T) {
	msg := parse(t, `MSH|^~\&|`)

	assert.Equal(t, MessageCode(""), MessageType(msg))
	assert.Equal(t, "", ControlID(msg))
	ts, err := Timestamp(msg)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"20240315083015", time.Date(2024, 3, 15, 8, 30, 15, 0, time.UTC)},
		{"202403150830", time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)},
		{"2024031508", time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)},
		{"20240315", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"202403", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"20240315083015.123", time.Date(2024, 3, 15, 8, 30, 15, 123000000, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %v", tt.in, got)
	}

	got, err := ParseTimestamp("20240315083015-0500")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 13, 30, 15, 0, time.UTC), got.UTC())

	_, err = ParseTimestamp("yesterday")
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "20240315083015", FormatTimestamp(time.Date(2024, 3, 15, 8, 30, 15, 0, time.UTC)))
	assert.Equal(t, "", FormatTimestamp(time.Time{}))
}

func TestSegmentsOf(t *testing.T) {
	msg := parse(t, admit)

	obx := SegmentsOf(msg, "OBX")
	require.Len(t, obx, 2)
	assert.Equal(t, 5, obx[0].Index())
	assert.Equal(t, 7, obx[1].Index())
	assert.Empty(t, SegmentsOf(msg, "ZZZ"))
}

func TestGroupBy(t *testing.T) {
	msg := parse(t, admit)

	groups := GroupBy(msg, "OBX")
	require.Len(t, groups, 2)
	require.Len(t, groups[0], 2)
	assert.Equal(t, "NTE", groups[0][1].SegmentType())
	assert.Equal(t, "note b", FormattedValue(mustGet(t, groups[1][1], 3)))

	assert.Empty(t, GroupBy(msg, "ZZZ"))
}

func TestFormattedValue(t *testing.T) {
	msg := parse(t, admit)

	assert.Equal(t, "1 MAIN ST|APT 2", FormattedValue(mustGet(t, msg, 3, 11)))
	assert.Equal(t, "", FormattedValue(mustGet(t, msg, 7, 5)))
	assert.Equal(t, "first", FormattedValue(mustGet(t, msg, 5, 5)))
}

func mustGet(t *testing.T, e *parser.Element, path ...int) *parser.Element {
	t.Helper()
	el, err := e.Get(path...)
	require.NoError(t, err)
	return el
}
