// Package parser provides the lazily split view of an HL7v2 message.
//
// A message is kept as one string. Elements are handles that resolve their
// text on demand: each element caches the boundaries of its direct children
// and computes them only the first time a child is read. Writes splice the
// backing string and shift the cached boundaries of ancestors in place, so
// siblings that were already resolved are not split again.
//
// Reading an index far past the end (msg.Get(1000000, 3)) allocates only the
// handles on the path; writing there appends one delimiter per missing
// sibling and nothing else.
//
// Trees are not safe for concurrent use.
package parser

import (
	"github.com/savegress/hl7kit/pkg/hl7"
)

// Parse builds a message from text. Line endings are normalized to the
// segment terminator, and malformed input is rejected immediately.
func Parse(text string) (*Element, error) {
	text, err := hl7.Prepare(text)
	if err != nil {
		return nil, err
	}
	return newRoot(text), nil
}

// New returns a message holding only the header skeleton for cfg.
func New(cfg *hl7.HeaderConfig) *Element {
	return newRoot(cfg.Skeleton())
}

func newRoot(text string) *Element {
	d := &document{text: text}
	d.root = &Element{doc: d, level: hl7.LevelMessage}
	return d.root
}
