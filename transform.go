package photokit

import "fmt"

// Canvas and overlay scale limits.
const (
	MinCanvasScale = 0.5
	MaxCanvasScale = 5.0

	MinOverlayScale = 0.5
	MaxOverlayScale = 3.0
)

// Viewport is the drawable surface size in pixels.
type Viewport struct {
	Width  int
	Height int
}

// AspectRatio returns Width / Height, or 1 when either side is not positive.
func (v Viewport) AspectRatio() float64 {
	if v.Width <= 0 || v.Height <= 0 {
		return 1
	}
	return float64(v.Width) / float64(v.Height)
}

// IsEmpty reports whether the viewport has no drawable pixels.
func (v Viewport) IsEmpty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// String returns "WxH".
func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// CanvasTransform is the pan/zoom state of the canvas. Translation is in
// normalized texture units; Scale is kept within [MinCanvasScale, MaxCanvasScale].
type CanvasTransform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// IdentityCanvasTransform returns the reset state {1, 0, 0}.
func IdentityCanvasTransform() CanvasTransform {
	return CanvasTransform{Scale: 1}
}

// Clamped returns t with Scale clamped into the canvas range.
// A zero or NaN scale resets to 1.
func (t CanvasTransform) Clamped() CanvasTransform {
	t.Scale = clampScale(t.Scale, MinCanvasScale, MaxCanvasScale)
	return t
}

// OverlayTransform is the placement of a sticker on the canvas.
// Position is the sticker centre in canvas pixels.
type OverlayTransform struct {
	Scale           float64
	RotationDegrees float64
	PositionX       float64
	PositionY       float64
}

// IdentityOverlayTransform returns an unscaled, unrotated transform at the origin.
func IdentityOverlayTransform() OverlayTransform {
	return OverlayTransform{Scale: 1}
}

// Clamped returns t with Scale clamped into the overlay range.
func (t OverlayTransform) Clamped() OverlayTransform {
	t.Scale = clampScale(t.Scale, MinOverlayScale, MaxOverlayScale)
	return t
}

func clampScale(s, lo, hi float64) float64 {
	if s != s || s == 0 {
		return 1
	}
	return min(max(s, lo), hi)
}
