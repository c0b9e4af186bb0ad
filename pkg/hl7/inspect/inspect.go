// Package inspect reads common header values and segment groups from a
// parsed message.
package inspect

import (
	"errors"
	"fmt"
	"time"

	"github.com/savegress/hl7kit/pkg/hl7"
	"github.com/savegress/hl7kit/pkg/hl7/parser"
)

// TimestampLayout is the layout FormatTimestamp writes.
const TimestampLayout = "20060102150405"

// HL7 date/time formats, most specific first. Fractional seconds after the
// seconds field are accepted by time.Parse without a layout element.
var timestampLayouts = []string{
	"20060102150405-0700",
	TimestampLayout,
	"200601021504-0700",
	"200601021504",
	"2006010215",
	"20060102",
	"200601",
	"2006",
}

// ErrInvalidTimestamp is returned for values no HL7 date/time layout accepts.
var ErrInvalidTimestamp = errors.New("invalid HL7 timestamp")

// MessageType returns MSH-9.1.
func MessageType(msg *parser.Element) MessageCode {
	return MessageCode(headerValue(msg, FieldMessageType, 1, 1))
}

// TriggerEvent returns MSH-9.2.
func TriggerEvent(msg *parser.Element) EventCode {
	return EventCode(headerValue(msg, FieldMessageType, 1, 2))
}

// ControlID returns MSH-10.
func ControlID(msg *parser.Element) string {
	return headerValue(msg, FieldControlID)
}

// Version returns MSH-12.1.
func Version(msg *parser.Element) string {
	return headerValue(msg, FieldVersion, 1, 1)
}

// Sender returns MSH-3 and MSH-4.
func Sender(msg *parser.Element) Endpoint {
	return Endpoint{
		Application: headerValue(msg, FieldSendingApplication, 1, 1),
		Facility:    headerValue(msg, FieldSendingFacility, 1, 1),
	}
}

// Receiver returns MSH-5 and MSH-6.
func Receiver(msg *parser.Element) Endpoint {
	return Endpoint{
		Application: headerValue(msg, FieldReceivingApplication, 1, 1),
		Facility:    headerValue(msg, FieldReceivingFacility, 1, 1),
	}
}

// Timestamp parses MSH-7. An empty MSH-7 yields the zero time.
func Timestamp(msg *parser.Element) (time.Time, error) {
	return ParseTimestamp(headerValue(msg, FieldDateTime, 1, 1))
}

// ParseTimestamp parses an HL7 DTM value.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// FormatTimestamp renders t in the second-precision DTM layout.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// SegmentsOf returns every segment of the given type, in message order.
func SegmentsOf(msg *parser.Element, segmentType string) []*parser.Element {
	var out []*parser.Element
	for _, s := range msg.Segments() {
		if s.SegmentType() == segmentType {
			out = append(out, s)
		}
	}
	return out
}

// GroupBy splits the segments of msg into groups that each start with a
// segment of the given type and run up to the next one. Segments before the
// first match belong to no group.
func GroupBy(msg *parser.Element, segmentType string) [][]*parser.Element {
	var groups [][]*parser.Element
	for _, s := range msg.Segments() {
		if s.SegmentType() == segmentType {
			groups = append(groups, []*parser.Element{s})
			continue
		}
		if len(groups) > 0 {
			last := len(groups) - 1
			groups[last] = append(groups[last], s)
		}
	}
	return groups
}

// FormattedValue returns the unescaped value of e. The HL7 null reads as "".
func FormattedValue(e *parser.Element) string {
	if e.IsNull() {
		return ""
	}
	return hl7.UnEscape(e.Value(), e.Encoding())
}

// headerValue reads MSH-field, descending into the given repetition and
// component indices. Missing positions read as "".
func headerValue(msg *parser.Element, field int, path ...int) string {
	if msg == nil {
		return ""
	}
	root := msg.Root()
	el, err := root.Get(append([]int{1, field}, path...)...)
	if err != nil {
		return ""
	}
	return el.Value()
}
