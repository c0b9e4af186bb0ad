package hl7

import "strings"

// Span is a half-open [Start, End) byte range.
type Span struct {
	Start int
	End   int
}

// Len returns the span width.
func (s Span) Len() int {
	return s.End - s.Start
}

// Spans splits text on sep and returns the child ranges. An unresolved
// separator (0) never splits, so text is a single child.
func Spans(text string, sep byte) []Span {
	if sep == 0 {
		return []Span{{0, len(text)}}
	}
	spans := make([]Span, 0, strings.Count(text, string(sep))+1)
	start := 0
	for {
		i := strings.IndexByte(text[start:], sep)
		if i < 0 {
			break
		}
		spans = append(spans, Span{start, start + i})
		start += i + 1
	}
	return append(spans, Span{start, len(text)})
}

// IsHeader reports whether segment is an MSH segment under enc.
func IsHeader(segment string, enc Encoding) bool {
	if !strings.HasPrefix(segment, HeaderSegment) {
		return false
	}
	return len(segment) == len(HeaderSegment) || segment[3] == enc.Field
}

// SegmentType returns field 0 of segment, or the whole segment when it holds
// no field delimiter.
func SegmentType(segment string, enc Encoding) string {
	if enc.Field == 0 {
		return segment
	}
	if i := strings.IndexByte(segment, enc.Field); i >= 0 {
		return segment[:i]
	}
	return segment
}

// FieldSpans splits a segment into field ranges indexed from 0 (the segment
// type). In a header segment MSH-1 is the field delimiter itself, so an extra
// one-byte range is inserted at index 1 and MSH-2 follows it.
func FieldSpans(segment string, enc Encoding) []Span {
	spans := Spans(segment, enc.Field)
	if !IsHeader(segment, enc) || len(segment) <= len(HeaderSegment) {
		return spans
	}
	out := make([]Span, 0, len(spans)+1)
	out = append(out, spans[0], Span{3, 4})
	return append(out, spans[1:]...)
}

// SplitFields returns the field values of a segment, header-aware.
func SplitFields(segment string, enc Encoding) []string {
	spans := FieldSpans(segment, enc)
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = segment[s.Start:s.End]
	}
	return out
}

// JoinFields is the inverse of SplitFields.
func JoinFields(fields []string, enc Encoding) string {
	if len(fields) == 0 {
		return ""
	}
	sep := string(enc.Field)
	if enc.Field == 0 {
		sep = ""
	}
	if fields[0] == HeaderSegment && len(fields) > 1 {
		// fields[1] is the delimiter itself and replaces one separator.
		return fields[0] + fields[1] + strings.Join(fields[2:], sep)
	}
	return strings.Join(fields, sep)
}

// Split returns the values of text split on sep.
func Split(text string, sep byte) []string {
	if sep == 0 {
		return []string{text}
	}
	return strings.Split(text, string(sep))
}

// Join is the inverse of Split.
func Join(values []string, sep byte) string {
	if sep == 0 {
		return strings.Join(values, "")
	}
	return strings.Join(values, string(sep))
}

// ContainsAny reports whether text contains any of the given bytes; 0 entries
// are ignored.
func ContainsAny(text string, chars ...byte) bool {
	for _, c := range chars {
		if c != 0 && strings.IndexByte(text, c) >= 0 {
			return true
		}
	}
	return false
}
