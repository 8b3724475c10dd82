package photokit

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestGestureTrackerScaleClamp(t *testing.T) {
	tests := []struct {
		name    string
		factors []float64
		want    float64
	}{
		{"zoom in", []float64{2}, 2},
		{"clamped high", []float64{10}, MaxCanvasScale},
		{"clamped low", []float64{0.1}, MinCanvasScale},
		{"ignores zero", []float64{0}, 1},
		{"ignores negative", []float64{-2}, 1},
		{"ignores NaN", []float64{math.NaN()}, 1},
		{"recovers from ceiling", []float64{10, 0.5}, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGestureTracker()
			for _, f := range tt.factors {
				g.OnScaleGesture(f)
			}
			if got := g.Transform().Scale; !near(got, tt.want) {
				t.Errorf("Scale = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGestureTrackerScaleComposes(t *testing.T) {
	// Splitting a zoom into steps gives the same result as applying it at
	// once, as long as the range is not hit.
	tests := []struct {
		name    string
		factors []float64
	}{
		{"two zoom in", []float64{1.5, 1.2}},
		{"in then out", []float64{2, 0.8, 1.1}},
		{"zoom out", []float64{0.9, 0.8, 0.95}},
		{"many small", []float64{1.1, 1.1, 1.1, 1.1, 0.9, 1.05, 1.2}},
		{"round trip", []float64{4, 0.25}},
		{"single", []float64{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := 1.0
			many := NewGestureTracker()
			for _, f := range tt.factors {
				many.OnScaleGesture(f)
				product *= f
			}
			one := NewGestureTracker()
			one.OnScaleGesture(product)

			if diff := cmp.Diff(one.Transform(), many.Transform(), approx); diff != "" {
				t.Errorf("stepwise zoom differs (-one +many):\n%s", diff)
			}
		})
	}
}

func TestGestureTrackerScaleStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	g := NewGestureTracker()
	for i := range 10000 {
		g.OnScaleGesture(0.1 + rng.Float64()*4)
		if s := g.Transform().Scale; s < MinCanvasScale || s > MaxCanvasScale {
			t.Fatalf("step %d: scale %v outside [%v, %v]", i, s, MinCanvasScale, MaxCanvasScale)
		}
	}
}

func TestGestureTrackerDrag(t *testing.T) {
	g := NewGestureTracker()
	g.OnDrag(100, -50)
	want := CanvasTransform{Scale: 1, TranslateX: 0.2, TranslateY: -0.1}
	if diff := cmp.Diff(want, g.Transform(), approx); diff != "" {
		t.Errorf("after drag (-want +got):\n%s", diff)
	}

	custom := NewGestureTracker(WithDragDivisor(100), WithDragDivisor(-1))
	custom.OnDrag(10, 10)
	if got := custom.Transform().TranslateX; !near(got, 0.1) {
		t.Errorf("custom divisor TranslateX = %v, want 0.1", got)
	}
}

func TestGestureTrackerDoubleTapResets(t *testing.T) {
	g := NewGestureTracker()
	g.OnScaleGesture(3)
	g.OnDrag(40, 40)

	var got []CanvasTransform
	g.SetListener(func(ct CanvasTransform) { got = append(got, ct) })

	ms := time.Millisecond
	for _, ev := range []PointerEvent{
		down(0, 100, 100, 0), up(0, 100, 100, 40*ms),
		down(0, 102, 101, 120*ms), up(0, 102, 101, 160*ms),
	} {
		g.HandleEvent(ev)
	}

	if diff := cmp.Diff(IdentityCanvasTransform(), g.Transform()); diff != "" {
		t.Errorf("double tap did not reset (-want +got):\n%s", diff)
	}
	if len(got) != 1 {
		t.Errorf("listener called %d times, want 1", len(got))
	}
}

func TestGestureTrackerPanSequence(t *testing.T) {
	g := NewGestureTracker()
	ms := time.Millisecond
	g.HandleEvent(down(7, 100, 100, 0))
	g.HandleEvent(move(10*ms, Pointer{ID: 7, X: 150, Y: 100}))
	g.HandleEvent(move(20*ms, Pointer{ID: 7, X: 150, Y: 200}))
	g.HandleEvent(up(7, 150, 200, 30*ms))

	want := CanvasTransform{Scale: 1, TranslateX: 0.1, TranslateY: 0.2}
	if diff := cmp.Diff(want, g.Transform(), approx); diff != "" {
		t.Errorf("pan (-want +got):\n%s", diff)
	}
	if g.state != stateIdle {
		t.Errorf("state = %v, want idle", g.state)
	}
}

func TestGestureTrackerPinch(t *testing.T) {
	g := NewGestureTracker()
	a := Pointer{ID: 0, X: 100, Y: 100}
	b := Pointer{ID: 1, X: 200, Y: 100}

	g.HandleEvent(down(0, a.X, a.Y, 0))
	g.HandleEvent(pointerDown(0, 1, a, b))
	if g.state != stateTracking2 {
		t.Fatalf("state = %v, want tracking2", g.state)
	}

	// Doubling the span doubles the scale; panning is suppressed.
	g.HandleEvent(move(0, Pointer{ID: 0, X: 50, Y: 100}, Pointer{ID: 1, X: 250, Y: 100}))
	got := g.Transform()
	if !near(got.Scale, 2) || got.TranslateX != 0 || got.TranslateY != 0 {
		t.Errorf("after pinch = %+v, want scale 2 and no translation", got)
	}

	// Lifting one finger re-anchors on the other without a jump.
	g.HandleEvent(pointerUp(0, 0, Pointer{ID: 0, X: 50, Y: 100}, Pointer{ID: 1, X: 250, Y: 100}))
	if g.state != stateTracking1 {
		t.Fatalf("state = %v, want tracking1", g.state)
	}
	g.HandleEvent(move(0, Pointer{ID: 1, X: 250, Y: 100}))
	if tr := g.Transform(); tr.TranslateX != 0 {
		t.Errorf("remaining pointer jumped: %+v", tr)
	}
	g.HandleEvent(move(0, Pointer{ID: 1, X: 300, Y: 100}))
	if tr := g.Transform(); !near(tr.TranslateX, 0.1) {
		t.Errorf("TranslateX = %v, want 0.1", tr.TranslateX)
	}
}

func TestGestureTrackerEmptyMove(t *testing.T) {
	g := NewGestureTracker()
	g.HandleEvent(down(1, 10, 10, 0))
	g.HandleEvent(move(10 * time.Millisecond))
	if got := g.Transform(); got != IdentityCanvasTransform() {
		t.Errorf("transform after empty move = %+v, want identity", got)
	}
	g.HandleEvent(move(20*time.Millisecond, Pointer{ID: 1, X: 60, Y: 10}))
	if got := g.Transform().TranslateX; !near(got, 0.1) {
		t.Errorf("TranslateX = %v, want 0.1", got)
	}
}

func TestGestureTrackerPinchFollowsIDs(t *testing.T) {
	ms := time.Millisecond
	a := Pointer{ID: 1, X: 0, Y: 0}
	b := Pointer{ID: 2, X: 100, Y: 0}
	far := Pointer{ID: 3, X: 500, Y: 500}

	g := NewGestureTracker()
	g.HandleEvent(down(a.ID, a.X, a.Y, 0))
	g.HandleEvent(pointerDown(ms, 1, a, b))
	g.HandleEvent(pointerDown(2*ms, 2, a, b, far))
	// Same pinch pair, listed in a different order.
	g.HandleEvent(move(3*ms, far, b, a))
	if got := g.Transform().Scale; !near(got, 1) {
		t.Errorf("scale = %v, want 1 for an unchanged pinch pair", got)
	}

	g.HandleEvent(move(4*ms, far, Pointer{ID: 2, X: 200, Y: 0}, a))
	if got := g.Transform().Scale; !near(got, 2) {
		t.Errorf("scale = %v, want 2", got)
	}
}

func TestGestureTrackerCancel(t *testing.T) {
	g := NewGestureTracker()
	g.HandleEvent(down(0, 0, 0, 0))
	g.HandleEvent(PointerEvent{Action: ActionCancel})
	if g.state != stateIdle {
		t.Errorf("state = %v, want idle", g.state)
	}
	// Moves after a cancel do nothing.
	g.HandleEvent(move(0, Pointer{ID: 0, X: 100, Y: 0}))
	if g.Transform() != IdentityCanvasTransform() {
		t.Errorf("transform changed after cancel: %+v", g.Transform())
	}
}

func TestTrackStateString(t *testing.T) {
	for s, want := range map[trackState]string{stateIdle: "idle", stateTracking1: "tracking1", stateTracking2: "tracking2"} {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
