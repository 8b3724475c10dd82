package photokit

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Pixmap is a rectangular RGBA pixel buffer with row 0 at the top.
// Colors are stored non-premultiplied, 4 bytes per pixel.
//
// A Pixmap handed to Renderer.SetImage is owned by the renderer until the
// frame that uploads it; callers must not mutate it in the meantime.
type Pixmap struct {
	width  int
	height int
	data   []uint8
}

// NewPixmap creates a new transparent pixmap with the given dimensions.
// Negative dimensions are treated as zero.
func NewPixmap(width, height int) *Pixmap {
	width = max(width, 0)
	height = max(height, 0)
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// NewPixmapFromRGBA wraps an existing RGBA buffer without copying.
// Returns ErrInvalidImage when the buffer length does not match the size.
func NewPixmapFromRGBA(width, height int, data []uint8) (*Pixmap, error) {
	if width < 0 || height < 0 || len(data) != width*height*4 {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrInvalidImage, width, height, len(data))
	}
	return &Pixmap{width: width, height: height, data: data}, nil
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA, top-down).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// IsEmpty reports whether the pixmap has no pixels.
func (p *Pixmap) IsEmpty() bool {
	return p == nil || p.width == 0 || p.height == 0
}

// AspectRatio returns width / height, or 1 for an empty pixmap.
func (p *Pixmap) AspectRatio() float64 {
	if p.IsEmpty() {
		return 1
	}
	return float64(p.width) / float64(p.height)
}

// SetPixel sets the color of a single pixel.
func (p *Pixmap) SetPixel(x, y int, c color.NRGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = c.R
	p.data[i+1] = c.G
	p.data[i+2] = c.B
	p.data[i+3] = c.A
}

// Pixel returns the color of a single pixel.
func (p *Pixmap) Pixel(x, y int) color.NRGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.NRGBA{}
	}
	i := (y*p.width + x) * 4
	return color.NRGBA{R: p.data[i+0], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// Fill fills the entire pixmap with a color.
func (p *Pixmap) Fill(c color.NRGBA) {
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = c.R
		p.data[i+1] = c.G
		p.data[i+2] = c.B
		p.data[i+3] = c.A
	}
}

// Clone returns a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	clone := NewPixmap(p.width, p.height)
	copy(clone.data, p.data)
	return clone
}

// ToImage returns an image.NRGBA sharing the pixmap's pixel memory.
func (p *Pixmap) ToImage() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.data,
		Stride: p.width * 4,
		Rect:   image.Rect(0, 0, p.width, p.height),
	}
}

// FromImage creates a pixmap from any image, converting to non-premultiplied
// RGBA. Images that are already *image.NRGBA with a tight stride are copied
// row by row without per-pixel conversion.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	pm := NewPixmap(bounds.Dx(), bounds.Dy())
	if pm.IsEmpty() {
		return pm
	}

	if src, ok := img.(*image.NRGBA); ok {
		rowBytes := pm.width * 4
		for y := 0; y < pm.height; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(pm.data[y*rowBytes:(y+1)*rowBytes], src.Pix[off:off+rowBytes])
		}
		return pm
	}

	draw.Draw(pm.ToImage(), pm.ToImage().Rect, img, bounds.Min, draw.Src)
	return pm
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	return p.Pixel(x, y)
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}
