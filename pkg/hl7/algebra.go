package hl7

import (
	"fmt"
	"strconv"
)

// RootKey is the key of a message root or a detached element.
const RootKey = "$"

// SegmentKey returns the key of the ordinal-th segment of the given type,
// e.g. SegmentKey("OBX", 2) == "OBX2".
func SegmentKey(segmentType string, ordinal int) string {
	return segmentType + strconv.Itoa(ordinal)
}

// ChildKey appends a child index to its ancestor's key.
func ChildKey(parent string, index int) string {
	return parent + "." + strconv.Itoa(index)
}

// The list operations below work on 1-based positions and never modify the
// slice they are given. Padding entries are empty strings.

// PadValues returns values extended with empty entries to at least n items.
func PadValues(values []string, n int) []string {
	out := make([]string, len(values), max(len(values), n))
	copy(out, values)
	for len(out) < n {
		out = append(out, "")
	}
	return out
}

// MoveValue moves the value at position from to position to. The target is
// interpreted after the removal, so moving 2 to 3 in [A B C D] gives
// [A C B D].
func MoveValue(values []string, from, to int) ([]string, error) {
	if from < 1 || to < 1 {
		return nil, fmt.Errorf("%w: move %d to %d", ErrInvalidIndex, from, to)
	}
	out := PadValues(values, from)
	v := out[from-1]
	out = append(out[:from-1], out[from:]...)
	return insertAt(out, to, v), nil
}

// InsertValue inserts value so that it ends up at position at.
func InsertValue(values []string, at int, value string) ([]string, error) {
	if at < 1 {
		return nil, fmt.Errorf("%w: insert at %d", ErrInvalidIndex, at)
	}
	return insertAt(PadValues(values, 0), at, value), nil
}

// DeleteValue removes the value at position at. Deleting past the end is a
// no-op.
func DeleteValue(values []string, at int) ([]string, error) {
	if at < 1 {
		return nil, fmt.Errorf("%w: delete at %d", ErrInvalidIndex, at)
	}
	out := PadValues(values, 0)
	if at > len(out) {
		return out, nil
	}
	return append(out[:at-1], out[at:]...), nil
}

func insertAt(values []string, at int, value string) []string {
	values = PadValues(values, at-1)
	values = append(values, "")
	copy(values[at:], values[at-1:])
	values[at-1] = value
	return values
}
