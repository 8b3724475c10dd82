package photokit

import "math"

// MaskAxis selects which screen axis receives the mask aspect correction.
type MaskAxis uint8

const (
	// MaskAxisX multiplies the X offset by the view aspect (landscape views).
	MaskAxisX MaskAxis = iota
	// MaskAxisY divides the Y offset by the view aspect (portrait and square views).
	MaskAxisY
)

// String returns the axis name.
func (a MaskAxis) String() string {
	if a == MaskAxisX {
		return "x"
	}
	return "y"
}

// sanitizeAspect maps non-positive or non-finite ratios to 1.
func sanitizeAspect(a float64) float64 {
	if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return 1
	}
	return a
}

// FitCenterScales returns the texture coordinate scale factors that keep an
// image of imageAspect undistorted inside a view of viewAspect.
//
// A relatively wider image is stretched along Y by imageAspect/viewAspect;
// otherwise X is stretched by viewAspect/imageAspect. Equal aspects yield (1, 1).
func FitCenterScales(imageAspect, viewAspect float64) (scaleX, scaleY float64) {
	imageAspect = sanitizeAspect(imageAspect)
	viewAspect = sanitizeAspect(viewAspect)
	if imageAspect > viewAspect {
		return 1, imageAspect / viewAspect
	}
	return viewAspect / imageAspect, 1
}

// MaskAspectCorrection returns the axis and factor that keep a mask
// geometrically round (or square) on a non-square view.
func MaskAspectCorrection(viewAspect float64) (MaskAxis, float64) {
	viewAspect = sanitizeAspect(viewAspect)
	if viewAspect > 1 {
		return MaskAxisX, viewAspect
	}
	return MaskAxisY, viewAspect
}

// CorrectMaskOffset applies MaskAspectCorrection to a screen offset from the
// view centre, in normalized screen units.
func CorrectMaskOffset(dx, dy, viewAspect float64) (float64, float64) {
	axis, f := MaskAspectCorrection(viewAspect)
	if axis == MaskAxisX {
		return dx * f, dy
	}
	return dx, dy / f
}

// SampleCoord maps a normalized screen coordinate (s, t), with t growing
// downward, to the texture coordinate sampled at that point:
//
//	(st - 0.5) * fit / canvas.Scale - translate + 0.5
//
// The result may fall outside [0,1]; such samples render transparent.
func SampleCoord(s, t, fitX, fitY float64, canvas CanvasTransform) (u, v float64) {
	scale := canvas.Scale
	if scale == 0 {
		scale = 1
	}
	u = (s-0.5)*fitX/scale - canvas.TranslateX + 0.5
	v = (t-0.5)*fitY/scale - canvas.TranslateY + 0.5
	return u, v
}

// InTexture reports whether (u, v) lies inside the unit square.
func InTexture(u, v float64) bool {
	return u >= 0 && u <= 1 && v >= 0 && v <= 1
}
