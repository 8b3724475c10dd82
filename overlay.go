package photokit

import "math"

// OverlayTracker turns pointer events into an OverlayTransform for one
// sticker. One pointer moves it, two pointers scale and rotate it, and a tap
// invokes the tap handler instead of changing the transform.
//
// Like GestureTracker it is driven from a single input goroutine.
type OverlayTracker struct {
	opts      gestureOptions
	transform OverlayTransform
	listener  func(OverlayTransform)
	onTap     func()

	state           trackState
	activeID        int
	lastX           float64
	lastY           float64
	pinchIDs        [2]int
	prevSpan        float64
	initialAngle    float64
	initialRotation float64
	tap             TapClassifier
}

// NewOverlayTracker creates a tracker starting at initial.
func NewOverlayTracker(initial OverlayTransform, opts ...GestureOption) *OverlayTracker {
	o := defaultGestureOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &OverlayTracker{
		opts:      o,
		transform: initial.Clamped(),
		tap:       o.classifier(),
	}
}

// SetListener registers fn to receive every transform change.
func (t *OverlayTracker) SetListener(fn func(OverlayTransform)) {
	t.listener = fn
}

// SetTapHandler registers fn to run when the sticker is tapped. A text
// sticker uses it to open its style picker.
func (t *OverlayTracker) SetTapHandler(fn func()) {
	t.onTap = fn
}

// Transform returns the current overlay transform.
func (t *OverlayTracker) Transform() OverlayTransform {
	return t.transform
}

// OnScaleGesture multiplies the scale by factor, clamped to
// [MinOverlayScale, MaxOverlayScale].
func (t *OverlayTracker) OnScaleGesture(factor float64) {
	if !(factor > 0) {
		return
	}
	t.transform.Scale = clampScale(t.transform.Scale*factor, MinOverlayScale, MaxOverlayScale)
	t.notify()
}

// BeginRotation records the rotation that OnRotationUpdate deltas are
// measured from.
func (t *OverlayTracker) BeginRotation() {
	t.initialRotation = t.transform.RotationDegrees
}

// OnRotationUpdate sets the rotation to the value at gesture start plus
// delta degrees.
func (t *OverlayTracker) OnRotationUpdate(delta float64) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	t.transform.RotationDegrees = t.initialRotation + delta
	t.notify()
}

// OnDrag moves the sticker by a screen-pixel delta.
func (t *OverlayTracker) OnDrag(dx, dy float64) {
	t.transform.PositionX += dx
	t.transform.PositionY += dy
	t.notify()
}

// HandleEvent advances the touch state machine with ev.
func (t *OverlayTracker) HandleEvent(ev PointerEvent) {
	kind := t.tap.Classify(ev)

	switch ev.Action {
	case ActionDown:
		p, ok := ev.Changed()
		if !ok {
			return
		}
		t.anchor(p)
		t.state = stateTracking1
		if len(ev.Pointers) >= 2 {
			t.beginTwoFinger(ev.Pointers)
		}

	case ActionPointerDown:
		if len(ev.Pointers) >= 2 {
			t.beginTwoFinger(ev.Pointers)
		}

	case ActionMove:
		switch t.state {
		case stateTracking1:
			p, ok := ev.Find(t.activeID)
			if !ok {
				return
			}
			dx, dy := p.X-t.lastX, p.Y-t.lastY
			t.anchor(p)
			if dx != 0 || dy != 0 {
				t.OnDrag(dx, dy)
			}
		case stateTracking2:
			a, okA := ev.Find(t.pinchIDs[0])
			b, okB := ev.Find(t.pinchIDs[1])
			if !okA || !okB {
				return
			}
			if s := span(a, b); s > 0 {
				if t.prevSpan > 0 && s != t.prevSpan {
					t.OnScaleGesture(s / t.prevSpan)
				}
				t.prevSpan = s
			}
			t.OnRotationUpdate(normalizeDegrees(pointerAngle(a, b) - t.initialAngle))
		}

	case ActionPointerUp:
		rest := ev.Remaining()
		switch {
		case len(rest) >= 2:
			t.beginTwoFinger(rest)
		case len(rest) == 1:
			t.state = stateTracking1
			t.anchor(rest[0])
		default:
			t.state = stateIdle
		}

	case ActionUp:
		t.state = stateIdle
		if kind != TapNone && t.onTap != nil {
			t.onTap()
		}

	case ActionCancel:
		t.state = stateIdle
	}
}

// Matrix returns the affine transform that places a w×h sticker, whose
// local origin is its top-left corner, centred on its position with the
// current rotation and scale applied.
func (t *OverlayTracker) Matrix(w, h float64) Matrix {
	return t.transform.Matrix(w, h)
}

// Matrix returns the placement matrix for a w×h sticker.
func (o OverlayTransform) Matrix(w, h float64) Matrix {
	s := o.Scale
	if s == 0 {
		s = 1
	}
	return Translate(o.PositionX, o.PositionY).
		Multiply(Rotate(o.RotationDegrees * math.Pi / 180)).
		Multiply(Scale(s, s)).
		Multiply(Translate(-w/2, -h/2))
}

func (t *OverlayTracker) anchor(p Pointer) {
	t.activeID = p.ID
	t.lastX, t.lastY = p.X, p.Y
}

func (t *OverlayTracker) beginTwoFinger(ps []Pointer) {
	t.state = stateTracking2
	t.pinchIDs = [2]int{ps[0].ID, ps[1].ID}
	t.prevSpan = span(ps[0], ps[1])
	t.initialAngle = pointerAngle(ps[0], ps[1])
	t.BeginRotation()
}

func (t *OverlayTracker) notify() {
	if t.listener != nil {
		t.listener(t.transform)
	}
}

// normalizeDegrees maps an angle into (-180, 180].
func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
