package hl7

// Level identifies a position in the HL7v2 grammar, ordered by nesting depth.
type Level int

const (
	LevelMessage Level = iota
	LevelSegment
	LevelField
	LevelRepetition
	LevelComponent
	LevelSubcomponent
)

// levelRule is the per-level capability table shared by both engines.
type levelRule struct {
	name string
	// firstChild is the lowest valid child index. Segments expose the
	// segment type as field 0.
	firstChild int
	divisible  bool
}

var levelRules = [...]levelRule{
	LevelMessage:      {name: "message", firstChild: 1, divisible: true},
	LevelSegment:      {name: "segment", firstChild: 0, divisible: true},
	LevelField:        {name: "field", firstChild: 1, divisible: true},
	LevelRepetition:   {name: "repetition", firstChild: 1, divisible: true},
	LevelComponent:    {name: "component", firstChild: 1, divisible: true},
	LevelSubcomponent: {name: "subcomponent", firstChild: 1, divisible: false},
}

// Valid reports whether l is one of the six grammar levels.
func (l Level) Valid() bool {
	return l >= LevelMessage && l <= LevelSubcomponent
}

// String returns the level name.
func (l Level) String() string {
	if !l.Valid() {
		return "unknown"
	}
	return levelRules[l].name
}

// Child returns the level of l's children. Subcomponents have none and
// return themselves.
func (l Level) Child() Level {
	if l >= LevelSubcomponent {
		return LevelSubcomponent
	}
	return l + 1
}

// Divisible reports whether elements at this level have children.
func (l Level) Divisible() bool {
	return l.Valid() && levelRules[l].divisible
}

// FirstChildIndex returns the lowest index accepted when addressing a child.
func (l Level) FirstChildIndex() int {
	if !l.Valid() {
		return 1
	}
	return levelRules[l].firstChild
}

// Delimiter returns the character separating siblings at level l.
// The message root has no siblings and reports 0.
func (l Level) Delimiter(enc Encoding) byte {
	switch l {
	case LevelSegment:
		return SegmentTerminator
	case LevelField:
		return enc.Field
	case LevelRepetition:
		return enc.Repetition
	case LevelComponent:
		return enc.Component
	case LevelSubcomponent:
		return enc.Subcomponent
	}
	return 0
}

// JoinDelimiter returns the character joining the children of an element at
// level l, or 0 when the level is a leaf.
func (l Level) JoinDelimiter(enc Encoding) byte {
	if !l.Divisible() {
		return 0
	}
	return l.Child().Delimiter(enc)
}
