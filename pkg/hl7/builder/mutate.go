package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/savegress/hl7kit/pkg/hl7"
)

// SetValue replaces the node's text. A composite node re-splits the value
// across the children it already has, so existing handles keep addressing
// the same indices. Missing ancestors and siblings are padded with empty
// slots. A rejected write leaves the tree untouched.
func (n *Node) SetValue(value string) error {
	return n.commit("set", hl7.OpSet, value)
}

// SetValues joins values with the node's delimiter and assigns the result.
func (n *Node) SetValues(values []string) error {
	if !n.divisible() {
		return hl7.Errorf("set", n.Key(), hl7.ErrInvalidIndex, "%s %d is not divisible", n.level, n.index)
	}
	return n.commit("set", hl7.OpSet, n.join(values, n.doc.encoding()))
}

// Move moves the node to index to among its siblings.
func (n *Node) Move(to int) error {
	if err := n.checkStructural("move", n.index); err != nil {
		return err
	}
	if err := n.checkStructural("move", to); err != nil {
		return err
	}
	p := n.parent
	enc := n.doc.encoding()
	values, err := hl7.MoveValue(p.childValues(enc), p.slot(n.index)+1, p.slot(to)+1)
	if err != nil {
		return &hl7.PathError{Op: "move", Key: n.Key(), Err: err}
	}
	return p.commit("move", hl7.OpMove, p.join(values, enc))
}

// InsertBefore inserts a new sibling holding value at the node's index and
// returns it.
func (n *Node) InsertBefore(value string) (*Node, error) {
	return n.insert(n.index, value)
}

// InsertAfter inserts a new sibling holding value right after the node and
// returns it.
func (n *Node) InsertAfter(value string) (*Node, error) {
	return n.insert(n.index+1, value)
}

func (n *Node) insert(at int, value string) (*Node, error) {
	if err := n.checkStructural("insert", at); err != nil {
		return nil, err
	}
	p := n.parent
	enc := n.doc.encoding()
	values, err := hl7.InsertValue(p.childValues(enc), p.slot(at)+1, value)
	if err != nil {
		return nil, &hl7.PathError{Op: "insert", Key: n.Key(), Err: err}
	}
	if err := p.commit("insert", hl7.OpInsert, p.join(values, enc)); err != nil {
		return nil, err
	}
	return p.Child(at)
}

// Delete removes the node; following siblings shift down by one.
func (n *Node) Delete() error {
	return DeleteAll(n)
}

// DeleteAll removes several siblings in one mutation, highest index first.
func DeleteAll(nodes ...*Node) error {
	if len(nodes) == 0 {
		return nil
	}
	p := nodes[0].parent
	indices := make([]int, 0, len(nodes))
	seen := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		if n.parent == nil {
			return hl7.Errorf("delete", n.Key(), hl7.ErrInvalidMutation, "cannot delete a root")
		}
		if n.parent != p {
			return hl7.Errorf("delete", n.Key(), hl7.ErrCrossTree, "%s is not a sibling of %s", n.Key(), nodes[0].Key())
		}
		if err := n.checkStructural("delete", n.index); err != nil {
			return err
		}
		if !seen[n.index] {
			seen[n.index] = true
			indices = append(indices, n.index)
		}
	}

	enc := p.doc.encoding()
	values := p.Values()
	live := indices[:0]
	for _, i := range indices {
		if p.slot(i) < len(values) {
			live = append(live, i)
		}
	}
	if len(live) == 0 {
		return nil
	}
	indices = live
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))

	for _, i := range indices {
		var err error
		if values, err = hl7.DeleteValue(values, p.slot(i)+1); err != nil {
			return &hl7.PathError{Op: "delete", Key: p.Key(), Err: err}
		}
	}
	return p.commit("delete", hl7.OpDelete, p.join(values, enc))
}

func (n *Node) checkStructural(op string, index int) error {
	p := n.parent
	if p == nil {
		return hl7.Errorf(op, n.Key(), hl7.ErrInvalidMutation, "node has no ancestor")
	}
	if err := hl7.CheckPosition(p.level, p.isHeader(), index); err != nil {
		return &hl7.PathError{Op: op, Key: n.Key(), Err: err}
	}
	return nil
}

func (n *Node) commit(op string, kind hl7.Op, value string) error {
	if err := n.checkValue(op, value); err != nil {
		return err
	}
	if n.parent == nil && n.level == hl7.LevelMessage {
		value = hl7.Normalize(value)
	}

	var err error
	if n.inHeader() {
		err = n.rewrite(op, value)
	} else {
		err = n.write(op, value)
	}
	if err != nil {
		return err
	}

	for _, c := range n.children {
		c.clearAssigned()
	}
	for a := n; a != nil; a = a.parent {
		a.assigned = true
	}
	n.doc.observers.Notify(hl7.Change{Op: kind, Key: n.Key(), Level: n.level})
	return nil
}

func (n *Node) checkValue(op, value string) error {
	if n.level != hl7.LevelField || n.parent == nil || n.parent.level != hl7.LevelSegment || !n.parent.isHeader() {
		return nil
	}
	if err := hl7.CheckHeaderField(n.index, value, n.doc.encoding()); err != nil {
		return &hl7.PathError{Op: op, Key: n.Key(), Err: err}
	}
	return nil
}

// inHeader reports whether a write to n can change the message encoding:
// the root itself, segment 1, or MSH-0 to MSH-2.
func (n *Node) inHeader() bool {
	if n.doc.frozen != nil {
		return false
	}
	switch n.level {
	case hl7.LevelMessage:
		return n.parent == nil
	case hl7.LevelSegment:
		return n.parent != nil && n.parent.parent == nil && n.index == 1
	case hl7.LevelField:
		return n.index <= 2 && n.parent != nil && n.parent.inHeader()
	}
	return false
}

// rewrite applies a header write at the text level and reloads the whole
// tree, so a changed delimiter re-splits everything already built.
func (n *Node) rewrite(op, value string) error {
	d := n.doc
	enc := d.encoding()
	before := d.root.value(enc)
	after := n.preview(value, d.root, enc)
	if err := hl7.Validate(after); err != nil {
		return hl7.Errorf(op, n.Key(), hl7.ErrInvalidMutation, "%v", err)
	}
	if err := hl7.CheckHeaders(before, after); err != nil {
		return &hl7.PathError{Op: op, Key: n.Key(), Err: err}
	}
	d.root.load(after, hl7.ResolveEncoding(after))
	return nil
}

// write attaches n to the tree and loads value into it. A value holding the
// delimiter of an ancestor is loaded into the highest such ancestor instead,
// so the tree splits the same way as its text.
func (n *Node) write(op, value string) error {
	enc := n.doc.encoding()
	if seg := n.topSegment(); seg != nil {
		before := seg.value(enc)
		after := n.preview(value, seg, enc)
		if lateHeaders(after, enc) > lateHeaders(before, enc) {
			return hl7.Errorf(op, n.Key(), hl7.ErrInvalidMutation, "%s may only be the first segment", hl7.HeaderSegment)
		}
	}
	if err := n.attach(enc); err != nil {
		return &hl7.PathError{Op: op, Key: n.Key(), Err: err}
	}
	target := n
	for a := n.parent; a != nil; a = a.parent {
		if sep := a.level.JoinDelimiter(enc); sep != 0 && strings.IndexByte(value, sep) >= 0 {
			target = a
		}
	}
	target.load(n.preview(value, target, enc), enc)
	return nil
}

// preview returns the value upto would hold if n held v. Nothing is modified.
func (n *Node) preview(v string, upto *Node, enc hl7.Encoding) string {
	for cur := n; cur != upto && cur.parent != nil; cur = cur.parent {
		p := cur.parent
		slot := p.slot(cur.index)
		values := hl7.PadValues(p.childValues(enc), slot+1)
		values[slot] = v
		v = p.join(values, enc)
	}
	return v
}

// attach extends the slot count of every ancestor so n becomes reachable.
// Nothing changes unless the whole chain can be extended.
func (n *Node) attach(enc hl7.Encoding) error {
	p := n.parent
	if p == nil {
		return nil
	}
	slot := p.slot(n.index)
	if slot >= p.slots && slot > 0 && p.level.JoinDelimiter(enc) == 0 {
		return fmt.Errorf("%w: %s delimiter is not defined", hl7.ErrInvalidIndex, n.level)
	}
	if err := p.attach(enc); err != nil {
		return err
	}
	if slot >= p.slots {
		p.slots = slot + 1
	}
	return nil
}

// topSegment returns the segment of a message tree that contains n.
func (n *Node) topSegment() *Node {
	if n.doc.frozen != nil {
		return nil
	}
	for cur := n; cur.parent != nil; cur = cur.parent {
		if cur.level == hl7.LevelSegment && cur.parent.parent == nil {
			return cur
		}
	}
	return nil
}

func (n *Node) clearAssigned() {
	n.assigned = false
	for _, c := range n.children {
		c.clearAssigned()
	}
}

// lateHeaders counts MSH segments in segment text, including one at its very
// start.
func lateHeaders(segment string, enc hl7.Encoding) int {
	return hl7.LateHeaders(string(hl7.SegmentTerminator)+segment, enc)
}
