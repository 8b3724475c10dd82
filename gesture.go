package photokit

import "time"

// DefaultDragDivisor converts finger movement in screen pixels into
// normalized texture offsets.
const DefaultDragDivisor = 500.0

// GestureOption configures a GestureTracker or an OverlayTracker.
type GestureOption func(*gestureOptions)

type gestureOptions struct {
	dragDivisor      float64
	tapSlop          float64
	doubleTapSlop    float64
	doubleTapTimeout time.Duration
}

func defaultGestureOptions() gestureOptions {
	return gestureOptions{
		dragDivisor:      DefaultDragDivisor,
		tapSlop:          DefaultTapSlop,
		doubleTapSlop:    DefaultDoubleTapSlop,
		doubleTapTimeout: DefaultDoubleTapTimeout,
	}
}

// WithDragDivisor sets the pixels-per-unit divisor applied to drags.
// Non-positive values are ignored.
func WithDragDivisor(k float64) GestureOption {
	return func(o *gestureOptions) {
		if k > 0 {
			o.dragDivisor = k
		}
	}
}

// WithTapSlop sets the maximum movement in pixels for a touch to count as a tap.
func WithTapSlop(px float64) GestureOption {
	return func(o *gestureOptions) {
		o.tapSlop = px
	}
}

// WithDoubleTap sets the time window and distance for two taps to form a
// double tap.
func WithDoubleTap(timeout time.Duration, slop float64) GestureOption {
	return func(o *gestureOptions) {
		o.doubleTapTimeout = timeout
		o.doubleTapSlop = slop
	}
}

func (o gestureOptions) classifier() TapClassifier {
	return TapClassifier{
		Slop:             o.tapSlop,
		DoubleTapSlop:    o.doubleTapSlop,
		DoubleTapTimeout: o.doubleTapTimeout,
	}
}

// trackState is the touch session state shared by both trackers.
type trackState uint8

const (
	stateIdle trackState = iota
	stateTracking1
	stateTracking2
)

func (s trackState) String() string {
	switch s {
	case stateTracking1:
		return "tracking1"
	case stateTracking2:
		return "tracking2"
	default:
		return "idle"
	}
}

// GestureTracker turns pointer events into a CanvasTransform.
//
// One pointer pans, two pointers pinch-zoom, and a double tap resets.
// GestureTracker is meant to be driven from a single input goroutine and is
// not safe for concurrent use; hand results to the renderer through the
// listener.
type GestureTracker struct {
	opts      gestureOptions
	transform CanvasTransform
	listener  func(CanvasTransform)

	state    trackState
	activeID int
	lastX    float64
	lastY    float64
	pinchIDs [2]int
	prevSpan float64
	tap      TapClassifier
}

// NewGestureTracker creates a tracker at the identity transform.
func NewGestureTracker(opts ...GestureOption) *GestureTracker {
	o := defaultGestureOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &GestureTracker{
		opts:      o,
		transform: IdentityCanvasTransform(),
		tap:       o.classifier(),
	}
}

// SetListener registers fn to receive every transform change. Pass nil to
// remove it.
func (g *GestureTracker) SetListener(fn func(CanvasTransform)) {
	g.listener = fn
}

// Transform returns the current canvas transform.
func (g *GestureTracker) Transform() CanvasTransform {
	return g.transform
}

// OnScaleGesture multiplies the scale by factor and clamps the result to
// [MinCanvasScale, MaxCanvasScale]. Non-positive factors are ignored.
func (g *GestureTracker) OnScaleGesture(factor float64) {
	if !(factor > 0) {
		return
	}
	g.transform.Scale = clampScale(g.transform.Scale*factor, MinCanvasScale, MaxCanvasScale)
	g.notify()
}

// OnDrag moves the canvas by a finger movement given in screen pixels.
// Both components are divided by the drag divisor; a downward screen
// movement moves the picture down.
func (g *GestureTracker) OnDrag(dx, dy float64) {
	g.transform.TranslateX += dx / g.opts.dragDivisor
	g.transform.TranslateY += dy / g.opts.dragDivisor
	g.notify()
}

// OnDoubleTap resets the transform to {1, 0, 0}.
func (g *GestureTracker) OnDoubleTap() {
	g.Reset()
}

// Reset restores the identity transform. Used on double tap and when a new
// image is loaded.
func (g *GestureTracker) Reset() {
	g.transform = IdentityCanvasTransform()
	g.notify()
}

// HandleEvent advances the touch state machine with ev.
//
//	Idle -> Tracking1 -> Tracking2 -> Tracking1 -> Idle
//
// Tracking1 pans, Tracking2 pinches and suppresses panning. Leaving
// Tracking2 re-anchors the drag on the remaining pointer so the picture
// does not jump.
func (g *GestureTracker) HandleEvent(ev PointerEvent) {
	kind := g.tap.Classify(ev)

	switch ev.Action {
	case ActionDown:
		p, ok := ev.Changed()
		if !ok {
			return
		}
		g.anchor(p)
		g.state = stateTracking1
		if len(ev.Pointers) >= 2 {
			g.beginPinch(ev.Pointers)
		}

	case ActionPointerDown:
		if len(ev.Pointers) >= 2 {
			g.beginPinch(ev.Pointers)
		}

	case ActionMove:
		switch g.state {
		case stateTracking1:
			p, ok := ev.Find(g.activeID)
			if !ok {
				return
			}
			dx, dy := p.X-g.lastX, p.Y-g.lastY
			g.anchor(p)
			if dx != 0 || dy != 0 {
				g.OnDrag(dx, dy)
			}
		case stateTracking2:
			p0, ok0 := ev.Find(g.pinchIDs[0])
			p1, ok1 := ev.Find(g.pinchIDs[1])
			if !ok0 || !ok1 {
				return
			}
			s := span(p0, p1)
			if g.prevSpan > 0 && s > 0 && s != g.prevSpan {
				g.OnScaleGesture(s / g.prevSpan)
			}
			if s > 0 {
				g.prevSpan = s
			}
		}

	case ActionPointerUp:
		rest := ev.Remaining()
		switch {
		case len(rest) >= 2:
			g.beginPinch(rest)
		case len(rest) == 1:
			g.state = stateTracking1
			g.anchor(rest[0])
		default:
			g.state = stateIdle
		}

	case ActionUp:
		g.state = stateIdle
		if kind == TapDouble {
			g.OnDoubleTap()
		}

	case ActionCancel:
		g.state = stateIdle
	}
}

func (g *GestureTracker) anchor(p Pointer) {
	g.activeID = p.ID
	g.lastX, g.lastY = p.X, p.Y
}

func (g *GestureTracker) beginPinch(ps []Pointer) {
	g.state = stateTracking2
	g.pinchIDs = [2]int{ps[0].ID, ps[1].ID}
	g.prevSpan = span(ps[0], ps[1])
}

func (g *GestureTracker) notify() {
	if g.listener != nil {
		g.listener(g.transform)
	}
}
