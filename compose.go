package photokit

import (
	"golang.org/x/image/draw"
)

// Overlay is a sticker bitmap and its placement on the canvas.
type Overlay struct {
	Image     *Pixmap
	Transform OverlayTransform
}

// Compose draws each overlay onto dst in order, source-over, with bilinear
// resampling. Overlays with empty images are skipped.
func Compose(dst *Pixmap, overlays ...Overlay) {
	if dst.IsEmpty() {
		return
	}
	out := dst.ToImage()
	for _, o := range overlays {
		if o.Image.IsEmpty() {
			continue
		}
		src := o.Image.ToImage()
		m := o.Transform.Matrix(float64(o.Image.Width()), float64(o.Image.Height()))
		draw.BiLinear.Transform(out, m.Aff3(), src, src.Bounds(), draw.Over, nil)
	}
}

// ComposeFrame returns a copy of frame with the overlays drawn on top.
func ComposeFrame(frame *Pixmap, overlays ...Overlay) *Pixmap {
	out := frame.Clone()
	Compose(out, overlays...)
	return out
}
