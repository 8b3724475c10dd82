package photokit

import (
	"math"
	"time"
)

// Tap classification defaults.
const (
	DefaultTapSlop          = 8.0
	DefaultDoubleTapSlop    = 100.0
	DefaultDoubleTapTimeout = 300 * time.Millisecond
)

// TapKind is the result of classifying a completed touch session.
type TapKind uint8

const (
	// TapNone: the session was a drag, a pinch, or was cancelled.
	TapNone TapKind = iota
	// TapSingle: a single pointer went down and up without moving.
	TapSingle
	// TapDouble: the second of two taps close in time and space.
	TapDouble
)

func (k TapKind) String() string {
	switch k {
	case TapSingle:
		return "single"
	case TapDouble:
		return "double"
	default:
		return "none"
	}
}

// TapClassifier tells taps apart from drags and pinches.
//
// A tap is one pointer going down and up with no second pointer in between
// and total movement below Slop. Two taps within DoubleTapTimeout whose
// positions are within DoubleTapSlop form a double tap.
//
// The zero value uses the package defaults. Not safe for concurrent use.
type TapClassifier struct {
	Slop             float64
	DoubleTapSlop    float64
	DoubleTapTimeout time.Duration

	tracking     bool
	disqualified bool
	downX, downY float64

	haveLast bool
	lastTime time.Duration
	lastX    float64
	lastY    float64
}

// Classify feeds one event to the classifier. It returns TapSingle or
// TapDouble on the ActionUp that completes a tap and TapNone otherwise.
func (c *TapClassifier) Classify(ev PointerEvent) TapKind {
	switch ev.Action {
	case ActionDown:
		p, ok := ev.Changed()
		if !ok {
			return TapNone
		}
		c.tracking = true
		c.disqualified = len(ev.Pointers) > 1
		c.downX, c.downY = p.X, p.Y

	case ActionPointerDown:
		c.disqualified = true

	case ActionMove:
		if !c.tracking || c.disqualified {
			return TapNone
		}
		if len(ev.Pointers) == 0 {
			return TapNone
		}
		if len(ev.Pointers) > 1 {
			c.disqualified = true
			return TapNone
		}
		p := ev.Pointers[0]
		if math.Hypot(p.X-c.downX, p.Y-c.downY) > c.slop() {
			c.disqualified = true
		}

	case ActionPointerUp:
		c.disqualified = true

	case ActionUp:
		return c.finish(ev)

	case ActionCancel:
		c.Reset()
	}
	return TapNone
}

// Reset forgets the current session and any pending first tap.
func (c *TapClassifier) Reset() {
	c.tracking = false
	c.disqualified = false
	c.haveLast = false
}

func (c *TapClassifier) finish(ev PointerEvent) TapKind {
	wasTap := c.tracking && !c.disqualified
	c.tracking = false
	c.disqualified = false
	p, ok := ev.Changed()
	if !wasTap || !ok || math.Hypot(p.X-c.downX, p.Y-c.downY) > c.slop() {
		c.haveLast = false
		return TapNone
	}

	if c.haveLast &&
		ev.Time-c.lastTime <= c.doubleTimeout() &&
		math.Hypot(p.X-c.lastX, p.Y-c.lastY) <= c.doubleSlop() {
		c.haveLast = false
		return TapDouble
	}

	c.haveLast = true
	c.lastTime = ev.Time
	c.lastX, c.lastY = p.X, p.Y
	return TapSingle
}

func (c *TapClassifier) slop() float64 {
	if c.Slop > 0 {
		return c.Slop
	}
	return DefaultTapSlop
}

func (c *TapClassifier) doubleSlop() float64 {
	if c.DoubleTapSlop > 0 {
		return c.DoubleTapSlop
	}
	return DefaultDoubleTapSlop
}

func (c *TapClassifier) doubleTimeout() time.Duration {
	if c.DoubleTapTimeout > 0 {
		return c.DoubleTapTimeout
	}
	return DefaultDoubleTapTimeout
}
