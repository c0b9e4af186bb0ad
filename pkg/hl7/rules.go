package hl7

import (
	"fmt"
	"strings"
)

// CheckPosition rejects structural edits (move, insert, delete) at index
// under a parent of the given level. Segment 1, field 0 of any segment and
// MSH-1/MSH-2 of a header segment cannot be displaced.
func CheckPosition(parent Level, header bool, index int) error {
	switch {
	case parent == LevelMessage && index <= 1:
		return fmt.Errorf("%w: segment 1 is reserved for %s", ErrInvalidMutation, HeaderSegment)
	case parent == LevelSegment && index <= 0:
		return fmt.Errorf("%w: field 0 is the segment type", ErrInvalidMutation)
	case parent == LevelSegment && header && index <= 2:
		return fmt.Errorf("%w: MSH-%d is reserved", ErrInvalidMutation, index)
	case index < parent.FirstChildIndex():
		return fmt.Errorf("%w: index %d", ErrInvalidIndex, index)
	}
	return nil
}

// CheckHeaderField applies the value rules of MSH-1 and MSH-2. Other indices
// are accepted.
func CheckHeaderField(index int, value string, enc Encoding) error {
	switch index {
	case 1:
		if len(value) != 1 || value[0] == SegmentTerminator || value[0] == '\n' {
			return fmt.Errorf("%w: MSH-1 must be a single character, got %q", ErrInvalidMutation, value)
		}
	case 2:
		if strings.ContainsAny(value, "\r\n") || (enc.Field != 0 && strings.IndexByte(value, enc.Field) >= 0) {
			return fmt.Errorf("%w: MSH-2 %q contains a field or segment delimiter", ErrInvalidMutation, value)
		}
	}
	return nil
}

// CheckHeaders rejects an edit that turns before into after when it creates
// an MSH segment anywhere but first.
func CheckHeaders(before, after string) error {
	if LateHeaders(after, ResolveEncoding(after)) > LateHeaders(before, ResolveEncoding(before)) {
		return fmt.Errorf("%w: %s may only be the first segment", ErrInvalidMutation, HeaderSegment)
	}
	return nil
}

// LateHeaders counts the segments after the first one whose type is MSH.
// A bare "MSH" counts.
func LateHeaders(text string, enc Encoding) int {
	n := 0
	segments := strings.Split(text, string(SegmentTerminator))
	for _, seg := range segments[1:] {
		if SegmentType(seg, enc) == HeaderSegment {
			n++
		}
	}
	return n
}
