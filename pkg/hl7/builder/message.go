// Package builder provides the eagerly split view of an HL7v2 message, tuned
// for constructing messages field by field.
//
// Every node is a text buffer until one of its children is accessed; from
// then on it holds one child node per slot and its value is the join of the
// children. Handles stay valid across reassignment: writing a composite node
// re-splits the new text into the children it already has.
//
//	msg := builder.New(nil).
//		SetField(1, 9, "ADT^A01").
//		SetField(2, 0, "PID").
//		SetComponent(2, 5, 1, 1, "DOE")
//	if err := msg.Err(); err != nil {
//		return err
//	}
//
// Trees are not safe for concurrent use.
package builder

import (
	"github.com/savegress/hl7kit/pkg/hl7"
)

// Message wraps the root node of a builder tree and offers coordinate
// setters that create or overwrite in one call. The setters chain; after the
// first failure the rest are skipped and Err reports the cause.
type Message struct {
	root *Node
	err  error
}

// Parse builds a message from text. Line endings are normalized and
// malformed input is rejected.
func Parse(text string) (*Message, error) {
	text, err := hl7.Prepare(text)
	if err != nil {
		return nil, err
	}
	return newMessage(text), nil
}

// New returns a message holding only the header skeleton for cfg.
func New(cfg *hl7.HeaderConfig) *Message {
	return newMessage(cfg.Skeleton())
}

// Wrap returns a Message around the root node of a message tree.
func Wrap(root *Node) *Message {
	return &Message{root: root.Root()}
}

func newMessage(text string) *Message {
	d := &document{}
	d.root = &Node{doc: d, level: hl7.LevelMessage, buf: []byte(text)}
	return &Message{root: d.root}
}

// Root returns the message node.
func (m *Message) Root() *Node { return m.root }

// Err returns the first error raised by a chained setter.
func (m *Message) Err() error { return m.err }

// String serializes the message.
func (m *Message) String() string { return m.root.Value() }

// Encoding returns the delimiters currently in force.
func (m *Message) Encoding() hl7.Encoding { return m.root.Encoding() }

// Get walks a path of child indices from the root.
func (m *Message) Get(path ...int) (*Node, error) {
	return m.root.Get(path...)
}

// Set assigns value to the node at path.
func (m *Message) Set(value string, path ...int) *Message {
	if m.err != nil {
		return m
	}
	n, err := m.root.Get(path...)
	if err != nil {
		m.err = err
		return m
	}
	m.err = n.SetValue(value)
	return m
}

// SetSegment assigns a whole segment.
func (m *Message) SetSegment(seg int, value string) *Message {
	return m.Set(value, seg)
}

// SetField assigns a field; field 0 is the segment type.
func (m *Message) SetField(seg, field int, value string) *Message {
	return m.Set(value, seg, field)
}

// SetRepetition assigns one repetition of a field.
func (m *Message) SetRepetition(seg, field, rep int, value string) *Message {
	return m.Set(value, seg, field, rep)
}

// SetComponent assigns one component.
func (m *Message) SetComponent(seg, field, rep, comp int, value string) *Message {
	return m.Set(value, seg, field, rep, comp)
}

// SetSubcomponent assigns one subcomponent.
func (m *Message) SetSubcomponent(seg, field, rep, comp, sub int, value string) *Message {
	return m.Set(value, seg, field, rep, comp, sub)
}

// AddSegment appends a segment after the last one.
func (m *Message) AddSegment(value string) *Message {
	if m.err != nil {
		return m
	}
	return m.Set(value, m.root.Count()+1)
}

// Clone returns an independent copy of the message. The chained error is not
// carried over.
func (m *Message) Clone() *Message {
	return &Message{root: m.root.Clone()}
}
