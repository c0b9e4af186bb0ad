package hl7

import "strings"

// Wire format constants.
const (
	SegmentTerminator byte = '\r'
	HeaderSegment          = "MSH"
	// NullValue is the explicit HL7 null, distinct from an absent value.
	NullValue = `""`
	// MinMessageLength is the shortest accepted message ("MSH|^~\&|").
	MinMessageLength = 9
	// encodingOffset is where MSH-2 starts in the header line.
	encodingOffset = 4
)

// Encoding holds the five active delimiter characters of a message. An
// unresolved delimiter is 0.
type Encoding struct {
	Field        byte
	Component    byte
	Repetition   byte
	Escape       byte
	Subcomponent byte
}

// DefaultEncoding is the conventional "|^~\&" configuration.
var DefaultEncoding = Encoding{
	Field:        '|',
	Component:    '^',
	Repetition:   '~',
	Escape:       '\\',
	Subcomponent: '&',
}

// ResolveEncoding reads the delimiters from the header line at the start of
// text. MSH-1 is text[3]; the remaining four come positionally from MSH-2,
// which ends at the field delimiter or the segment terminator. Characters
// MSH-2 does not supply stay 0.
func ResolveEncoding(text string) Encoding {
	var enc Encoding
	if len(text) <= 3 {
		return enc
	}
	enc.Field = text[3]
	if enc.Field == SegmentTerminator {
		enc.Field = 0
		return enc
	}

	var chars [4]byte
	for i := range chars {
		p := encodingOffset + i
		if p >= len(text) {
			break
		}
		c := text[p]
		if c == enc.Field || c == SegmentTerminator {
			break
		}
		chars[i] = c
	}
	enc.Component = chars[0]
	enc.Repetition = chars[1]
	enc.Escape = chars[2]
	enc.Subcomponent = chars[3]
	return enc
}

// Characters renders the MSH-2 value implied by the encoding, stopping at the
// first unresolved delimiter.
func (e Encoding) Characters() string {
	var sb strings.Builder
	for _, c := range [...]byte{e.Component, e.Repetition, e.Escape, e.Subcomponent} {
		if c == 0 {
			break
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Header renders "MSH" followed by MSH-1 and MSH-2.
func (e Encoding) Header() string {
	if e.Field == 0 {
		return HeaderSegment
	}
	return HeaderSegment + string(e.Field) + e.Characters()
}

// IsDelimiter reports whether c is one of the resolved structural delimiters,
// including the segment terminator.
func (e Encoding) IsDelimiter(c byte) bool {
	if c == 0 {
		return false
	}
	return c == SegmentTerminator || c == e.Field || c == e.Component ||
		c == e.Repetition || c == e.Subcomponent
}

// encodingEnd returns the offset one past MSH-2 in a header line.
func encodingEnd(text string) int {
	if len(text) <= 3 {
		return len(text)
	}
	field := text[3]
	end := encodingOffset
	for end < len(text) && text[end] != field && text[end] != SegmentTerminator {
		end++
	}
	return end
}

// EncodingCharactersSpan returns the [start, end) offsets of MSH-2 within a
// header line.
func EncodingCharactersSpan(text string) (int, int) {
	if len(text) < encodingOffset {
		return len(text), len(text)
	}
	return encodingOffset, encodingEnd(text)
}
