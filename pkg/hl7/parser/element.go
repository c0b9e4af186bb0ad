package parser

import (
	"strings"

	"github.com/savegress/hl7kit/pkg/hl7"
)

// document is the storage shared by every element of one tree.
type document struct {
	text string
	// frozen is the encoding of a detached tree; message trees read theirs
	// from the live header instead.
	frozen    *hl7.Encoding
	root      *Element
	observers hl7.Observers
	stats     Stats
}

// Stats counts the work the lazy engine has done for one tree.
type Stats struct {
	Splits       int // child boundary computations
	Materialized int // element handles created
}

func (d *document) encoding() hl7.Encoding {
	if d.frozen != nil {
		return *d.frozen
	}
	return hl7.ResolveEncoding(d.text)
}

// splitCache holds the child boundaries of an element relative to its start.
type splitCache struct {
	valid  bool
	seps   []int32 // separator offsets
	length int32   // element length, kept in step with shifts
	header bool    // header segment: slot 1 is MSH-1 at [3,4)
}

func (c *splitCache) slots() int {
	n := len(c.seps) + 1
	if c.header {
		n++
	}
	return n
}

func (c *splitCache) regular(i int) hl7.Span {
	start := 0
	if i > 0 {
		start = int(c.seps[i-1]) + 1
	}
	end := int(c.length)
	if i < len(c.seps) {
		end = int(c.seps[i])
	}
	return hl7.Span{Start: start, End: end}
}

func (c *splitCache) span(slot int) (hl7.Span, bool) {
	if slot < 0 || slot >= c.slots() {
		return hl7.Span{}, false
	}
	if !c.header {
		return c.regular(slot), true
	}
	switch slot {
	case 0:
		return c.regular(0), true
	case 1:
		return hl7.Span{Start: 3, End: 4}, true
	}
	return c.regular(slot - 1), true
}

// shift moves every boundary at or after slot by delta.
func (c *splitCache) shift(slot int, delta int) {
	r := slot
	if c.header && slot > 0 {
		r = slot - 1
		if slot == 1 {
			// MSH-1 is a single byte; its width never changes.
			r = 1
		}
	}
	for i := r; i < len(c.seps); i++ {
		c.seps[i] += int32(delta)
	}
	c.length += int32(delta)
}

// Element is one node of the lazily split tree. A message root, a segment,
// a field and so on all share this type and differ by Level.
type Element struct {
	doc    *document
	parent *Element // not owned; nil for a root
	level  hl7.Level
	index  int
	// leaf marks a detached copy of a non-divisible field.
	leaf     bool
	cache    splitCache
	children map[int]*Element
	assigned bool
}

// Level returns the grammar level of the element.
func (e *Element) Level() hl7.Level { return e.level }

// Index returns the position among siblings. Roots report 0.
func (e *Element) Index() int { return e.index }

// Parent returns the ancestor, or nil for a root.
func (e *Element) Parent() *Element { return e.parent }

// Root returns the root of the tree the element belongs to.
func (e *Element) Root() *Element { return e.doc.root }

// Encoding returns the delimiters currently in force for the tree.
func (e *Element) Encoding() hl7.Encoding { return e.doc.encoding() }

// Stats returns the lazy-evaluation counters of the tree.
func (e *Element) Stats() Stats { return e.doc.stats }

// Delimiter returns the character joining this element's children, or 0.
func (e *Element) Delimiter() byte {
	if !e.divisible() {
		return 0
	}
	return e.level.JoinDelimiter(e.doc.encoding())
}

// Subscribe registers fn to be called once after every mutation of the tree.
func (e *Element) Subscribe(fn func(hl7.Change)) (cancel func()) {
	return e.doc.observers.Subscribe(fn)
}

// Value returns the raw text of the element. Absent elements are "".
func (e *Element) Value() string {
	s, end, ok := e.locate()
	if !ok {
		return ""
	}
	return e.doc.text[s:end]
}

// String implements fmt.Stringer.
func (e *Element) String() string { return e.Value() }

// IsNull reports whether the element holds the explicit HL7 null.
func (e *Element) IsNull() bool { return e.Value() == hl7.NullValue }

// Exists reports whether the element carries a value or has been assigned,
// directly or through a descendant. Padding placeholders do not exist.
func (e *Element) Exists() bool {
	if e.parent == nil {
		return true
	}
	s, end, ok := e.locate()
	if !ok {
		return false
	}
	return e.assigned || end > s
}

// Count returns the number of children present. For segments the segment
// type (field 0) is not counted.
func (e *Element) Count() int {
	if !e.divisible() {
		return 0
	}
	s, end, ok := e.locate()
	if !ok || end == s {
		return 0
	}
	n := e.splits(s, end).slots()
	if e.level == hl7.LevelSegment {
		n--
	}
	return n
}

// Values returns the child values in index order. For segments the list
// starts with the segment type. Empty or absent elements have no values.
func (e *Element) Values() []string {
	if !e.divisible() {
		return nil
	}
	s, end, ok := e.locate()
	if !ok || end == s {
		return nil
	}
	c := e.splits(s, end)
	out := make([]string, c.slots())
	for i := range out {
		sp, _ := c.span(i)
		out[i] = e.doc.text[s+sp.Start : s+sp.End]
	}
	return out
}

// SegmentType returns field 0 of a segment, or "" for other levels.
func (e *Element) SegmentType() string {
	if e.level != hl7.LevelSegment {
		return ""
	}
	return hl7.SegmentType(e.Value(), e.doc.encoding())
}

// Child returns the child at index, creating the handle on first access.
// Nothing is split or allocated for siblings that are never touched.
func (e *Element) Child(index int) (*Element, error) {
	if !e.divisible() {
		return nil, hl7.Errorf("get", e.Key(), hl7.ErrInvalidIndex, "%s %d is not divisible", e.level, e.index)
	}
	if index < e.level.FirstChildIndex() {
		return nil, hl7.Errorf("get", e.Key(), hl7.ErrInvalidIndex, "%s index %d", e.level.Child(), index)
	}
	if c, ok := e.children[index]; ok {
		return c, nil
	}
	if e.children == nil {
		e.children = make(map[int]*Element)
	}
	c := &Element{doc: e.doc, parent: e, level: e.level.Child(), index: index}
	e.children[index] = c
	e.doc.stats.Materialized++
	return c, nil
}

// Get walks a path of child indices, e.g. msg.Get(1, 3, 2) for segment 1,
// field 3, repetition 2.
func (e *Element) Get(path ...int) (*Element, error) {
	cur := e
	for _, i := range path {
		next, err := cur.Child(i)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Segments returns handles for every segment of a message root.
func (e *Element) Segments() []*Element {
	if e.level != hl7.LevelMessage {
		return nil
	}
	n := e.Count()
	out := make([]*Element, 0, n)
	for i := 1; i <= n; i++ {
		c, _ := e.Child(i)
		out = append(out, c)
	}
	return out
}

// Key returns the structural key: "$" for a root, type plus ordinal for a
// segment ("OBX2"), otherwise the ancestor key with the index appended.
func (e *Element) Key() string {
	if e.parent == nil {
		return hl7.RootKey
	}
	if e.level == hl7.LevelSegment && e.parent.level == hl7.LevelMessage {
		return hl7.SegmentKey(e.SegmentType(), e.ordinal())
	}
	return hl7.ChildKey(e.parent.Key(), e.index)
}

// ordinal counts the segments of the same type up to and including e.
func (e *Element) ordinal() int {
	p := e.parent
	ps, pe, _ := p.locate()
	c := p.splits(ps, pe)
	enc := e.doc.encoding()
	slot := p.slot(e.index)
	own := e.SegmentType()

	n := 1
	limit := min(slot, c.slots())
	for i := 0; i < limit; i++ {
		sp, _ := c.span(i)
		if hl7.SegmentType(e.doc.text[ps+sp.Start:ps+sp.End], enc) == own {
			n++
		}
	}
	if slot > c.slots() && own == "" {
		// Untouched indices past the end are empty segments too.
		n += slot - c.slots()
	}
	return n
}

// Clone returns a detached copy. The copy owns its text and, unless it is a
// whole message, a frozen copy of the current encoding.
func (e *Element) Clone() *Element {
	enc := e.doc.encoding()
	d := &document{text: e.Value()}
	if e.level != hl7.LevelMessage || e.doc.frozen != nil {
		d.frozen = &enc
	}
	root := &Element{doc: d, level: e.level, leaf: !e.divisible()}
	d.root = root
	return root
}

func (e *Element) slot(index int) int {
	return index - e.level.FirstChildIndex()
}

func (e *Element) divisible() bool {
	if e.leaf || !e.level.Divisible() {
		return false
	}
	if e.level == hl7.LevelField && e.parent != nil && e.parent.level == hl7.LevelSegment {
		if e.index == 0 {
			return false
		}
		if (e.index == 1 || e.index == 2) && e.parent.isHeader() {
			return false
		}
	}
	return true
}

func (e *Element) isHeader() bool {
	return e.level == hl7.LevelSegment && hl7.IsHeader(e.Value(), e.doc.encoding())
}

// locate returns the absolute span of e, or ok=false when e lies past the
// end of its parent.
func (e *Element) locate() (start, end int, ok bool) {
	if e.parent == nil {
		return 0, len(e.doc.text), true
	}
	ps, pe, ok := e.parent.locate()
	if !ok {
		return pe, pe, false
	}
	sp, ok := e.parent.splits(ps, pe).span(e.parent.slot(e.index))
	if !ok {
		return pe, pe, false
	}
	return ps + sp.Start, ps + sp.End, true
}

// splits returns the child boundaries of e, computing them from the current
// text when the cache is dirty.
func (e *Element) splits(start, end int) *splitCache {
	if e.cache.valid {
		return &e.cache
	}
	value := e.doc.text[start:end]
	enc := e.doc.encoding()
	sep := e.level.JoinDelimiter(enc)

	c := splitCache{valid: true, length: int32(len(value))}
	if sep != 0 {
		c.seps = make([]int32, 0, strings.Count(value, string(sep)))
		for i := 0; i < len(value); i++ {
			if value[i] == sep {
				c.seps = append(c.seps, int32(i))
			}
		}
	}
	if e.level == hl7.LevelSegment {
		c.header = len(value) > len(hl7.HeaderSegment) && hl7.IsHeader(value, enc)
	}
	e.cache = c
	e.doc.stats.Splits++
	return &e.cache
}

// invalidate drops the cached boundaries of e and every materialized
// descendant. Handles stay valid and re-resolve on the next read.
func (e *Element) invalidate() {
	e.cache = splitCache{}
	for _, c := range e.children {
		c.invalidate()
	}
}

