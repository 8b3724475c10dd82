package photokit

import (
	"math"
	"testing"
)

func TestViewport(t *testing.T) {
	tests := []struct {
		vp         Viewport
		wantAspect float64
		wantEmpty  bool
		wantString string
	}{
		{Viewport{1920, 1080}, 1920.0 / 1080, false, "1920x1080"},
		{Viewport{100, 100}, 1, false, "100x100"},
		{Viewport{0, 100}, 1, true, "0x100"},
		{Viewport{100, -1}, 1, true, "100x-1"},
	}
	for _, tt := range tests {
		t.Run(tt.wantString, func(t *testing.T) {
			if got := tt.vp.AspectRatio(); !near(got, tt.wantAspect) {
				t.Errorf("AspectRatio() = %v, want %v", got, tt.wantAspect)
			}
			if got := tt.vp.IsEmpty(); got != tt.wantEmpty {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.wantEmpty)
			}
			if got := tt.vp.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
		})
	}
}

func TestCanvasTransformClamped(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1, 1},
		{0.1, MinCanvasScale},
		{7, MaxCanvasScale},
		{0, 1},
		{math.NaN(), 1},
		{math.Inf(1), MaxCanvasScale},
	}
	for _, tt := range tests {
		ct := CanvasTransform{Scale: tt.in, TranslateX: 0.3, TranslateY: -0.2}.Clamped()
		if ct.Scale != tt.want {
			t.Errorf("Clamped(%v).Scale = %v, want %v", tt.in, ct.Scale, tt.want)
		}
		if ct.TranslateX != 0.3 || ct.TranslateY != -0.2 {
			t.Errorf("Clamped changed the translation: %+v", ct)
		}
	}
}

func TestOverlayTransformClamped(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2, 2},
		{0.2, MinOverlayScale},
		{4, MaxOverlayScale},
		{0, 1},
	}
	for _, tt := range tests {
		ot := OverlayTransform{Scale: tt.in, RotationDegrees: 12}.Clamped()
		if ot.Scale != tt.want || ot.RotationDegrees != 12 {
			t.Errorf("Clamped(%v) = %+v, want scale %v", tt.in, ot, tt.want)
		}
	}
}

func TestIdentityTransforms(t *testing.T) {
	if got := IdentityCanvasTransform(); got != (CanvasTransform{Scale: 1}) {
		t.Errorf("IdentityCanvasTransform() = %+v", got)
	}
	if got := IdentityOverlayTransform(); got != (OverlayTransform{Scale: 1}) {
		t.Errorf("IdentityOverlayTransform() = %+v", got)
	}
}
