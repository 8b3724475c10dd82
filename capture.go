package photokit

import (
	"encoding/binary"
	"fmt"
)

// CaptureFunc receives the result of a frame capture. Exactly one of img and
// err is non-nil. img is top-down RGBA.
type CaptureFunc func(img *Pixmap, err error)

// SwapRedBlue swaps the red and blue byte lanes of a packed 32-bit pixel,
// leaving green and alpha in place.
func SwapRedBlue(px uint32) uint32 {
	blue := (px >> 16) & 0xff
	red := (px << 16) & 0x00ff0000
	return (px & 0xff00ff00) | red | blue
}

// ConvertFrame converts a raw framebuffer read into a top-down RGBA Pixmap.
//
// raw holds height rows of width pixels, bottom row first, with red and blue
// exchanged relative to RGBA. Output row i is source row height-i-1, and each
// pixel has bytes 0 and 2 swapped. A buffer shorter than width*height*4
// returns ErrCaptureFailure and no image.
func ConvertFrame(raw []byte, width, height int) (*Pixmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", ErrCaptureFailure, width, height)
	}
	stride := width * 4
	if len(raw) < stride*height {
		return nil, fmt.Errorf("%w: read %d bytes, want %d", ErrCaptureFailure, len(raw), stride*height)
	}

	pm := NewPixmap(width, height)
	out := pm.Data()
	for i := 0; i < height; i++ {
		src := raw[(height-i-1)*stride : (height-i)*stride]
		dst := out[i*stride : (i+1)*stride]
		for x := 0; x < stride; x += 4 {
			px := binary.LittleEndian.Uint32(src[x:])
			binary.LittleEndian.PutUint32(dst[x:], SwapRedBlue(px))
		}
	}
	return pm, nil
}

// captureSlot holds at most one pending capture callback. A new request
// replaces an unfinished one; the replaced callback is never called.
// Owned by the render goroutine.
type captureSlot struct {
	fn CaptureFunc
}

// request stores fn and reports whether an earlier callback was replaced.
func (c *captureSlot) request(fn CaptureFunc) (replaced bool) {
	replaced = c.fn != nil
	c.fn = fn
	return replaced
}

// take returns the pending callback and clears the slot.
func (c *captureSlot) take() CaptureFunc {
	fn := c.fn
	c.fn = nil
	return fn
}

func (c *captureSlot) pending() bool { return c.fn != nil }
