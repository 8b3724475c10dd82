// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package giotouch feeds Gio pointer input into photokit gesture trackers.
//
// Gio reports one pointer.Event per pointer change. Tracker keeps the set of
// pointers that are down and turns each change into a photokit.PointerEvent
// snapshot, which is what GestureTracker and OverlayTracker consume:
//
//	var touch giotouch.Tracker
//	for {
//	    ev, ok := gtx.Event(touch.Filter(tag))
//	    if !ok {
//	        break
//	    }
//	    touch.Feed(ev, editor.Gesture())
//	}
//
// Mouse wheel scrolling is mapped to scale gestures when the sink accepts
// them.
package giotouch

import (
	"slices"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"github.com/gogpu/photokit"
)

// ScrollZoomStep is the scale change per scroll unit.
const ScrollZoomStep = 0.1

// Sink receives pointer snapshots.
type Sink interface {
	HandleEvent(ev photokit.PointerEvent)
}

// ScaleSink is implemented by sinks that accept scale gestures.
type ScaleSink interface {
	OnScaleGesture(factor float64)
}

// Tracker converts Gio pointer events into photokit snapshots.
// The zero value is ready to use. Tracker is not safe for concurrent use.
type Tracker struct {
	active []photokit.Pointer
}

// Filter returns the pointer filter for the events Tracker understands.
func (t *Tracker) Filter(target event.Tag) pointer.Filter {
	return pointer.Filter{
		Target:  target,
		Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel | pointer.Scroll,
		ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
	}
}

// Active returns the number of pointers currently down.
func (t *Tracker) Active() int { return len(t.active) }

// Convert translates ev into a snapshot. It reports false for events that
// carry no touch transition, such as hover moves or a drag of an unknown
// pointer.
func (t *Tracker) Convert(ev pointer.Event) (photokit.PointerEvent, bool) {
	p := photokit.Pointer{
		ID: int(ev.PointerID),
		X:  float64(ev.Position.X),
		Y:  float64(ev.Position.Y),
	}
	idx := t.index(p.ID)

	switch ev.Kind {
	case pointer.Press:
		action := photokit.ActionPointerDown
		if len(t.active) == 0 {
			action = photokit.ActionDown
		}
		if idx >= 0 {
			t.active[idx] = p
		} else {
			t.active = append(t.active, p)
			idx = len(t.active) - 1
		}
		return t.snapshot(action, idx, ev), true

	case pointer.Drag:
		if idx < 0 {
			return photokit.PointerEvent{}, false
		}
		t.active[idx] = p
		return t.snapshot(photokit.ActionMove, idx, ev), true

	case pointer.Release:
		if idx < 0 {
			return photokit.PointerEvent{}, false
		}
		t.active[idx] = p
		action := photokit.ActionPointerUp
		if len(t.active) == 1 {
			action = photokit.ActionUp
		}
		out := t.snapshot(action, idx, ev)
		t.active = slices.Delete(t.active, idx, idx+1)
		return out, true

	case pointer.Cancel:
		if len(t.active) == 0 {
			return photokit.PointerEvent{}, false
		}
		out := t.snapshot(photokit.ActionCancel, 0, ev)
		t.active = t.active[:0]
		return out, true
	}
	return photokit.PointerEvent{}, false
}

// Feed converts ev and delivers it to sink. Scroll events become scale
// gestures when sink implements ScaleSink. It reports whether sink was
// called.
func (t *Tracker) Feed(ev event.Event, sink Sink) bool {
	pe, ok := ev.(pointer.Event)
	if !ok {
		return false
	}
	if pe.Kind == pointer.Scroll {
		ss, ok := sink.(ScaleSink)
		if !ok || pe.Scroll.Y == 0 {
			return false
		}
		ss.OnScaleGesture(ScrollFactor(pe))
		return true
	}
	snap, ok := t.Convert(pe)
	if !ok {
		return false
	}
	sink.HandleEvent(snap)
	return true
}

// Reset forgets every active pointer.
func (t *Tracker) Reset() { t.active = t.active[:0] }

// ScrollFactor maps a scroll event to a scale factor. Scrolling up zooms in.
func ScrollFactor(ev pointer.Event) float64 {
	f := 1 - float64(ev.Scroll.Y)*ScrollZoomStep
	if f <= 0 {
		return ScrollZoomStep
	}
	return f
}

func (t *Tracker) index(id int) int {
	return slices.IndexFunc(t.active, func(p photokit.Pointer) bool { return p.ID == id })
}

func (t *Tracker) snapshot(action photokit.PointerAction, idx int, ev pointer.Event) photokit.PointerEvent {
	return photokit.PointerEvent{
		Action:   action,
		Pointers: slices.Clone(t.active),
		Index:    idx,
		Time:     ev.Time,
	}
}
