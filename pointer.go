package photokit

import (
	"math"
	"time"
)

// PointerAction is the kind of change a PointerEvent reports.
type PointerAction uint8

const (
	// ActionDown: the first pointer touched the surface.
	ActionDown PointerAction = iota
	// ActionPointerDown: an additional pointer touched the surface.
	ActionPointerDown
	// ActionMove: one or more pointers moved.
	ActionMove
	// ActionPointerUp: a pointer left while others remain.
	ActionPointerUp
	// ActionUp: the last pointer left the surface.
	ActionUp
	// ActionCancel: the platform aborted the touch session.
	ActionCancel
)

var actionNames = [...]string{"down", "pointer-down", "move", "pointer-up", "up", "cancel"}

func (a PointerAction) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Pointer is one contact point in screen pixels, y growing downward.
type Pointer struct {
	ID int
	X  float64
	Y  float64
}

// PointerEvent is a snapshot of all contacts at the moment of a change.
//
// Pointers lists every contact that is down, including the one that is
// changing. Index selects that contact for ActionPointerDown and
// ActionPointerUp. Time is a monotonic timestamp.
type PointerEvent struct {
	Action   PointerAction
	Pointers []Pointer
	Index    int
	Time     time.Duration
}

// Count returns the number of contacts in the snapshot.
func (e PointerEvent) Count() int { return len(e.Pointers) }

// Changed returns the contact selected by Index, or the first contact
// when Index is out of range. ok is false when there are no contacts.
func (e PointerEvent) Changed() (p Pointer, ok bool) {
	if len(e.Pointers) == 0 {
		return Pointer{}, false
	}
	if e.Index >= 0 && e.Index < len(e.Pointers) {
		return e.Pointers[e.Index], true
	}
	return e.Pointers[0], true
}

// Remaining returns the contacts that stay down after a pointer-up event.
// For other actions it returns Pointers unchanged.
func (e PointerEvent) Remaining() []Pointer {
	if e.Action != ActionPointerUp || e.Index < 0 || e.Index >= len(e.Pointers) {
		return e.Pointers
	}
	out := make([]Pointer, 0, len(e.Pointers)-1)
	out = append(out, e.Pointers[:e.Index]...)
	return append(out, e.Pointers[e.Index+1:]...)
}

// Find returns the contact with the given id.
func (e PointerEvent) Find(id int) (Pointer, bool) {
	for _, p := range e.Pointers {
		if p.ID == id {
			return p, true
		}
	}
	return Pointer{}, false
}

// span returns the distance between two contacts.
func span(a, b Pointer) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// pointerAngle returns the angle in degrees of the vector from b to a.
func pointerAngle(a, b Pointer) float64 {
	return math.Atan2(a.Y-b.Y, a.X-b.X) * 180 / math.Pi
}
