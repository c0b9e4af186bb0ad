package builder

import (
	"strings"

	"github.com/savegress/hl7kit/pkg/hl7"
)

// document is the storage shared by every node of one tree.
type document struct {
	// frozen is the encoding of a detached tree; message trees read theirs
	// from MSH-1/MSH-2 on every access.
	frozen    *hl7.Encoding
	root      *Node
	observers hl7.Observers
}

func (d *document) encoding() hl7.Encoding {
	if d.frozen != nil {
		return *d.frozen
	}
	return hl7.ResolveEncoding(d.root.headerText())
}

// Node is one element of the builder tree. Until a child is touched the node
// is a single text buffer; afterwards it is composite and its value is the
// join of its children.
type Node struct {
	doc    *document
	parent *Node // not owned; nil for a root
	level  hl7.Level
	index  int
	leaf   bool // detached copy of a non-divisible field

	buf       []byte
	composite bool
	header    bool // composite segment laid out as MSH (slot 1 is MSH-1)
	children  map[int]*Node
	slots     int // child slots in use, gaps included
	assigned  bool
}

// Level returns the grammar level of the node.
func (n *Node) Level() hl7.Level { return n.level }

// Index returns the position among siblings. Roots report 0.
func (n *Node) Index() int { return n.index }

// Parent returns the ancestor, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Encoding returns the delimiters in force for the tree.
func (n *Node) Encoding() hl7.Encoding { return n.doc.encoding() }

// Delimiter returns the character joining this node's children, or 0.
func (n *Node) Delimiter() byte {
	if !n.divisible() {
		return 0
	}
	return n.level.JoinDelimiter(n.doc.encoding())
}

// Subscribe registers fn to be called once after every mutation of the tree.
func (n *Node) Subscribe(fn func(hl7.Change)) (cancel func()) {
	return n.doc.observers.Subscribe(fn)
}

// Value assembles the node's text from its buffers.
func (n *Node) Value() string {
	return n.value(n.doc.encoding())
}

// String implements fmt.Stringer.
func (n *Node) String() string { return n.Value() }

// IsNull reports whether the node holds the explicit HL7 null.
func (n *Node) IsNull() bool { return n.Value() == hl7.NullValue }

// Exists reports whether the node or a descendant carries a value or has
// been assigned. Padding gaps do not exist.
func (n *Node) Exists() bool {
	if n.parent == nil {
		return true
	}
	if n.parent.slot(n.index) >= n.parent.slots {
		return false
	}
	return n.assigned || n.Value() != ""
}

// Count returns the number of children. For segments the segment type is not
// counted.
func (n *Node) Count() int {
	if !n.divisible() {
		return 0
	}
	enc := n.doc.encoding()
	v := n.value(enc)
	if v == "" {
		return 0
	}
	c := n.slots
	if !n.composite {
		c = len(n.split(v, enc))
	}
	if n.level == hl7.LevelSegment {
		c--
	}
	return c
}

// Values returns the child values in index order; segments start with the
// segment type. Empty nodes have no values.
func (n *Node) Values() []string {
	if !n.divisible() {
		return nil
	}
	enc := n.doc.encoding()
	if n.value(enc) == "" {
		return nil
	}
	return n.childValues(enc)
}

// SegmentType returns field 0 of a segment, or "" for other levels.
func (n *Node) SegmentType() string {
	if n.level != hl7.LevelSegment {
		return ""
	}
	if n.composite {
		if c := n.children[0]; c != nil {
			return c.Value()
		}
		return ""
	}
	return hl7.SegmentType(string(n.buf), n.doc.encoding())
}

// Child returns the child at index. The first access splits the buffer into
// child buffers; indices past the end get an empty node that only joins the
// tree once written.
func (n *Node) Child(index int) (*Node, error) {
	if !n.divisible() {
		return nil, hl7.Errorf("get", n.Key(), hl7.ErrInvalidIndex, "%s %d is not divisible", n.level, n.index)
	}
	if index < n.level.FirstChildIndex() {
		return nil, hl7.Errorf("get", n.Key(), hl7.ErrInvalidIndex, "%s index %d", n.level.Child(), index)
	}
	if !n.composite {
		n.expand(n.doc.encoding())
	}
	if c, ok := n.children[index]; ok {
		return c, nil
	}
	c := n.newChild(index, "")
	return c, nil
}

// Segments returns handles for every segment of a message root.
func (n *Node) Segments() []*Node {
	if n.level != hl7.LevelMessage {
		return nil
	}
	c := n.Count()
	out := make([]*Node, 0, c)
	for i := 1; i <= c; i++ {
		s, _ := n.Child(i)
		out = append(out, s)
	}
	return out
}

// Root returns the root of the tree the node belongs to.
func (n *Node) Root() *Node { return n.doc.root }

// Get walks a path of child indices.
func (n *Node) Get(path ...int) (*Node, error) {
	cur := n
	for _, i := range path {
		next, err := cur.Child(i)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Key returns the structural key, computed the same way as the parser's.
func (n *Node) Key() string {
	if n.parent == nil {
		return hl7.RootKey
	}
	if n.level == hl7.LevelSegment && n.parent.level == hl7.LevelMessage {
		own := n.SegmentType()
		ord := 1
		for i := 1; i < n.index; i++ {
			s := n.parent.children[i]
			t := ""
			if s != nil {
				t = s.SegmentType()
			}
			if t == own {
				ord++
			}
		}
		return hl7.SegmentKey(own, ord)
	}
	return hl7.ChildKey(n.parent.Key(), n.index)
}

// Clone returns a detached copy with its own buffers and, unless it is a
// whole message, a frozen copy of the current encoding.
func (n *Node) Clone() *Node {
	enc := n.doc.encoding()
	d := &document{}
	if n.level != hl7.LevelMessage || n.doc.frozen != nil {
		d.frozen = &enc
	}
	root := &Node{doc: d, level: n.level, leaf: !n.divisible(), buf: []byte(n.value(enc))}
	d.root = root
	return root
}

func (n *Node) value(enc hl7.Encoding) string {
	if !n.composite {
		return string(n.buf)
	}
	return n.join(n.childValues(enc), enc)
}

// childValues returns one value per child slot without expanding n.
func (n *Node) childValues(enc hl7.Encoding) []string {
	if !n.composite {
		return n.split(string(n.buf), enc)
	}
	first := n.level.FirstChildIndex()
	out := make([]string, n.slots)
	for i := range out {
		if c := n.children[i+first]; c != nil {
			out[i] = c.value(enc)
		}
	}
	return out
}

func (n *Node) join(values []string, enc hl7.Encoding) string {
	if n.isHeader() {
		return hl7.JoinFields(values, enc)
	}
	return hl7.Join(values, n.level.JoinDelimiter(enc))
}

// headerText returns enough of a message root to resolve its encoding.
func (n *Node) headerText() string {
	if !n.composite {
		return string(n.buf)
	}
	seg := n.children[1]
	if seg == nil {
		return ""
	}
	if !seg.composite {
		return string(seg.buf)
	}
	var sb strings.Builder
	for i := 0; i <= 2 && i < seg.slots; i++ {
		if c := seg.children[i]; c != nil {
			sb.WriteString(c.value(hl7.Encoding{}))
		}
	}
	return sb.String()
}

func (n *Node) split(v string, enc hl7.Encoding) []string {
	if n.level == hl7.LevelSegment {
		return hl7.SplitFields(v, enc)
	}
	return hl7.Split(v, n.level.JoinDelimiter(enc))
}

// expand turns a buffer node into a composite with one child per part.
func (n *Node) expand(enc hl7.Encoding) {
	v := string(n.buf)
	parts := n.split(v, enc)
	n.buf = nil
	n.composite = true
	n.header = n.level == hl7.LevelSegment && len(v) > len(hl7.HeaderSegment) && hl7.IsHeader(v, enc)
	n.children = make(map[int]*Node, len(parts))
	n.slots = len(parts)
	first := n.level.FirstChildIndex()
	for i, p := range parts {
		n.newChild(i+first, p)
	}
}

func (n *Node) newChild(index int, value string) *Node {
	c := &Node{doc: n.doc, parent: n, level: n.level.Child(), index: index, buf: []byte(value)}
	if n.children == nil {
		n.children = make(map[int]*Node)
	}
	n.children[index] = c
	return c
}

// load assigns v to n, re-splitting it across existing children so that
// handles keep addressing the same index.
func (n *Node) load(v string, enc hl7.Encoding) {
	if !n.composite {
		n.buf = append(n.buf[:0], v...)
		return
	}
	parts := n.split(v, enc)
	n.header = n.level == hl7.LevelSegment && len(v) > len(hl7.HeaderSegment) && hl7.IsHeader(v, enc)
	n.slots = len(parts)
	first := n.level.FirstChildIndex()
	for idx, c := range n.children {
		slot := idx - first
		if slot < len(parts) {
			c.load(parts[slot], enc)
		} else {
			c.load("", enc)
		}
	}
	for i, p := range parts {
		if _, ok := n.children[i+first]; !ok && p != "" {
			n.newChild(i+first, p)
		}
	}
}

func (n *Node) slot(index int) int {
	return index - n.level.FirstChildIndex()
}

func (n *Node) divisible() bool {
	if n.leaf || !n.level.Divisible() {
		return false
	}
	if n.level == hl7.LevelField && n.parent != nil && n.parent.level == hl7.LevelSegment {
		if n.index == 0 {
			return false
		}
		if (n.index == 1 || n.index == 2) && n.parent.isHeader() {
			return false
		}
	}
	return true
}

func (n *Node) isHeader() bool {
	if n.level != hl7.LevelSegment {
		return false
	}
	if n.composite {
		return n.header
	}
	v := string(n.buf)
	return len(v) > len(hl7.HeaderSegment) && hl7.IsHeader(v, n.doc.encoding())
}
