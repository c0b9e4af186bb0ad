package hl7

// Op identifies the kind of mutation that produced a Change.
type Op int

const (
	OpSet Op = iota
	OpMove
	OpInsert
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpMove:
		return "move"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Change describes one logical mutation. Key and Level identify the element
// whose value list was reassigned.
type Change struct {
	Op    Op
	Key   string
	Level Level
}

// Observers is a synchronous listener list. The zero value is ready to use.
// It is not safe for concurrent use, like the element trees that own it.
type Observers struct {
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Change)
}

// Subscribe registers fn and returns a function that removes it.
func (o *Observers) Subscribe(fn func(Change)) (cancel func()) {
	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscription{id: id, fn: fn})
	return func() {
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every listener once, in subscription order.
func (o *Observers) Notify(c Change) {
	for _, s := range o.subs {
		s.fn(c)
	}
}

// Len returns the number of registered listeners.
func (o *Observers) Len() int {
	return len(o.subs)
}
