package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/savegress/hl7kit/pkg/hl7"
)

// SetValue replaces the raw text of the element, padding missing ancestors
// and siblings with empty placeholders. The tree is left untouched when the
// write is rejected.
func (e *Element) SetValue(value string) error {
	return e.commit("set", hl7.OpSet, value)
}

// SetValues joins values with the element's delimiter and assigns the result
// in a single mutation.
func (e *Element) SetValues(values []string) error {
	if !e.divisible() {
		return hl7.Errorf("set", e.Key(), hl7.ErrInvalidIndex, "%s %d is not divisible", e.level, e.index)
	}
	return e.commit("set", hl7.OpSet, e.join(values))
}

// Move moves the element to index to among its siblings. Other siblings keep
// their relative order.
func (e *Element) Move(to int) error {
	if err := e.checkStructural("move", e.index); err != nil {
		return err
	}
	if err := e.checkStructural("move", to); err != nil {
		return err
	}
	p := e.parent
	values, err := hl7.MoveValue(p.Values(), p.slot(e.index)+1, p.slot(to)+1)
	if err != nil {
		return &hl7.PathError{Op: "move", Key: e.Key(), Err: err}
	}
	return p.commit("move", hl7.OpMove, p.join(values))
}

// InsertBefore inserts a new sibling holding value at the element's index
// and returns it. The element and its following siblings shift up by one.
func (e *Element) InsertBefore(value string) (*Element, error) {
	return e.insert(e.index, value)
}

// InsertAfter inserts a new sibling holding value right after the element
// and returns it.
func (e *Element) InsertAfter(value string) (*Element, error) {
	return e.insert(e.index+1, value)
}

func (e *Element) insert(at int, value string) (*Element, error) {
	if err := e.checkStructural("insert", at); err != nil {
		return nil, err
	}
	p := e.parent
	values, err := hl7.InsertValue(p.Values(), p.slot(at)+1, value)
	if err != nil {
		return nil, &hl7.PathError{Op: "insert", Key: e.Key(), Err: err}
	}
	if err := p.commit("insert", hl7.OpInsert, p.join(values)); err != nil {
		return nil, err
	}
	return p.Child(at)
}

// Delete removes the element; following siblings shift down by one.
func (e *Element) Delete() error {
	return DeleteAll(e)
}

// DeleteAll removes several siblings in one mutation. Indices are removed
// in descending order so earlier removals do not renumber later ones.
func DeleteAll(elements ...*Element) error {
	if len(elements) == 0 {
		return nil
	}
	p := elements[0].parent
	indices := make([]int, 0, len(elements))
	seen := make(map[int]bool, len(elements))
	for _, el := range elements {
		if el.parent == nil {
			return hl7.Errorf("delete", el.Key(), hl7.ErrInvalidMutation, "cannot delete a root")
		}
		if el.parent != p {
			return hl7.Errorf("delete", el.Key(), hl7.ErrCrossTree, "%s is not a sibling of %s", el.Key(), elements[0].Key())
		}
		if err := el.checkStructural("delete", el.index); err != nil {
			return err
		}
		if !seen[el.index] {
			seen[el.index] = true
			indices = append(indices, el.index)
		}
	}

	values := p.Values()
	indices = present(indices, len(values), p.slot)
	if len(indices) == 0 {
		return nil
	}
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))

	for _, i := range indices {
		var err error
		if values, err = hl7.DeleteValue(values, p.slot(i)+1); err != nil {
			return &hl7.PathError{Op: "delete", Key: p.Key(), Err: err}
		}
	}
	return p.commit("delete", hl7.OpDelete, p.join(values))
}

// present keeps the indices whose slot is below slots. Absent elements are
// already deleted.
func present(indices []int, slots int, slot func(int) int) []int {
	out := indices[:0]
	for _, i := range indices {
		if slot(i) < slots {
			out = append(out, i)
		}
	}
	return out
}

func (e *Element) checkStructural(op string, index int) error {
	p := e.parent
	if p == nil {
		return hl7.Errorf(op, e.Key(), hl7.ErrInvalidMutation, "element has no ancestor")
	}
	if err := hl7.CheckPosition(p.level, p.isHeader(), index); err != nil {
		return &hl7.PathError{Op: op, Key: e.Key(), Err: err}
	}
	return nil
}

func (e *Element) join(values []string) string {
	enc := e.doc.encoding()
	if e.level == hl7.LevelSegment {
		return hl7.JoinFields(values, enc)
	}
	return hl7.Join(values, e.level.JoinDelimiter(enc))
}

// commit validates and applies a value write, then notifies observers once.
func (e *Element) commit(op string, kind hl7.Op, value string) error {
	if err := e.checkValue(op, value); err != nil {
		return err
	}
	if e.parent == nil && e.level == hl7.LevelMessage {
		value = hl7.Normalize(value)
	}

	d := e.doc
	saved := d.text
	if err := e.write(value); err != nil {
		e.rollback(saved)
		return &hl7.PathError{Op: op, Key: e.Key(), Err: err}
	}
	if d.frozen == nil {
		if err := hl7.Validate(d.text); err != nil {
			e.rollback(saved)
			return hl7.Errorf(op, e.Key(), hl7.ErrInvalidMutation, "%v", err)
		}
		if err := hl7.CheckHeaders(saved, d.text); err != nil {
			e.rollback(saved)
			return &hl7.PathError{Op: op, Key: e.Key(), Err: err}
		}
	}

	for _, c := range e.children {
		c.clearAssigned()
	}
	for a := e; a != nil; a = a.parent {
		a.assigned = true
	}
	d.observers.Notify(hl7.Change{Op: kind, Key: e.Key(), Level: e.level})
	return nil
}

// checkValue applies the per-position rules that do not need the new text.
func (e *Element) checkValue(op, value string) error {
	if e.level != hl7.LevelField || e.parent == nil || e.parent.level != hl7.LevelSegment || !e.parent.isHeader() {
		return nil
	}
	if err := hl7.CheckHeaderField(e.index, value, e.doc.encoding()); err != nil {
		return &hl7.PathError{Op: op, Key: e.Key(), Err: err}
	}
	return nil
}

func (e *Element) rollback(saved string) {
	e.doc.text = saved
	e.doc.root.invalidate()
}

func (e *Element) clearAssigned() {
	e.assigned = false
	for _, c := range e.children {
		c.clearAssigned()
	}
}

// write materializes e and replaces its text.
func (e *Element) write(value string) error {
	s, end, err := e.materialize()
	if err != nil {
		return err
	}
	e.splice(s, end, value)
	e.invalidate()
	return nil
}

// materialize pads the parent chain until e has a slot, and returns its span.
func (e *Element) materialize() (int, int, error) {
	if s, end, ok := e.locate(); ok {
		return s, end, nil
	}
	p := e.parent
	ps, pe, err := p.materialize()
	if err != nil {
		return 0, 0, err
	}
	sep := p.level.JoinDelimiter(e.doc.encoding())
	if sep == 0 {
		return 0, 0, fmt.Errorf("%w: %s delimiter is not defined", hl7.ErrInvalidIndex, e.level)
	}
	c := p.splits(ps, pe)
	missing := p.slot(e.index) + 1 - c.slots()

	// Append placeholders to the parent without re-splitting it. A bare
	// "MSH" gains its header layout with the first delimiter, so it is
	// re-split instead.
	bare := p.level == hl7.LevelSegment && pe-ps <= len(hl7.HeaderSegment)
	p.splice(pe, pe, strings.Repeat(string(sep), missing))
	if bare || !c.valid {
		p.invalidate()
	} else {
		for i := 0; i < missing; i++ {
			c.seps = append(c.seps, c.length)
			c.length++
		}
	}

	s, end, ok := e.locate()
	if !ok {
		return 0, 0, fmt.Errorf("%w: cannot address %s %d", hl7.ErrInvalidIndex, e.level, e.index)
	}
	return s, end, nil
}

// splice replaces text[s:end] with value on behalf of e. Ancestor boundary
// caches are shifted in place when the new text keeps their structure and
// invalidated when it does not. The caller owns e's own cache.
func (e *Element) splice(s, end int, value string) {
	d := e.doc
	before := d.encoding()

	starts := make([]int, 0, int(e.level))
	for a := e.parent; a != nil; a = a.parent {
		as, _, _ := a.locate()
		starts = append(starts, as)
	}

	d.text = d.text[:s] + value + d.text[end:]
	delta := len(value) - (end - s)

	child := e
	i := 0
	for a := e.parent; a != nil; a = a.parent {
		sep := a.level.JoinDelimiter(before)
		switch {
		case !a.cache.valid:
		case sep != 0 && strings.IndexByte(value, sep) >= 0:
			a.invalidate()
		case a.level == hl7.LevelSegment && s < starts[i]+len(hl7.HeaderSegment)+1:
			// The segment type or MSH-1 changed; the header rule may flip.
			a.invalidate()
		default:
			a.cache.shift(a.slot(child.index), delta)
		}
		child = a
		i++
	}

	if d.frozen == nil && d.encoding() != before {
		d.root.invalidate()
	}
}
