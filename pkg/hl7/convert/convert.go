// Package convert moves messages between the lazy parser and the builder.
// Both directions serialize the source and re-ingest the text, so the result
// shares nothing with the original tree.
package convert

import (
	"github.com/savegress/hl7kit/pkg/hl7"
	"github.com/savegress/hl7kit/pkg/hl7/builder"
	"github.com/savegress/hl7kit/pkg/hl7/parser"
)

// ToBuilder converts a parsed message into a builder message.
func ToBuilder(e *parser.Element) (*builder.Message, error) {
	if err := checkRoot(e.Level(), e.Parent() == nil, e.Key()); err != nil {
		return nil, err
	}
	return builder.Parse(e.Value())
}

// ToParser converts a builder message into a parsed message.
func ToParser(m *builder.Message) (*parser.Element, error) {
	if err := m.Err(); err != nil {
		return nil, &hl7.PathError{Op: "convert", Key: hl7.RootKey, Err: err}
	}
	root := m.Root()
	if err := checkRoot(root.Level(), root.Parent() == nil, root.Key()); err != nil {
		return nil, err
	}
	return parser.Parse(root.Value())
}

func checkRoot(level hl7.Level, root bool, key string) error {
	if level != hl7.LevelMessage || !root {
		return hl7.Errorf("convert", key, hl7.ErrMalformedMessage, "%s is not a message", level)
	}
	return nil
}
