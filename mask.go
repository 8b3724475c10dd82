package photokit

import (
	"fmt"
	"math"
	"strings"
)

// DefaultMaskRadius is the half-size of the circle and square masks in
// normalized screen units, measured from the view centre.
const DefaultMaskRadius = 0.4

// MaskShape selects the screen-space visibility test applied after sampling.
type MaskShape uint8

const (
	// MaskNone keeps every pixel.
	MaskNone MaskShape = iota
	// MaskCircle keeps pixels within the radius of the view centre.
	MaskCircle
	// MaskSquare keeps pixels whose offset on both axes is within the radius.
	MaskSquare
)

// maskTest reports whether a corrected offset from the view centre is kept.
type maskTest func(dx, dy, radius float64) bool

// maskPolicies is the per-shape visibility table. Adding a shape means adding
// an entry here; sampling code does not change.
var maskPolicies = map[MaskShape]maskTest{
	MaskNone: func(_, _, _ float64) bool { return true },
	MaskCircle: func(dx, dy, r float64) bool {
		return math.Hypot(dx, dy) <= r
	},
	MaskSquare: func(dx, dy, r float64) bool {
		return math.Abs(dx) <= r && math.Abs(dy) <= r
	},
}

var maskNames = map[MaskShape]string{
	MaskNone:   "none",
	MaskCircle: "circle",
	MaskSquare: "square",
}

// String returns the lower-case shape name.
func (s MaskShape) String() string {
	if n, ok := maskNames[s]; ok {
		return n
	}
	return fmt.Sprintf("MaskShape(%d)", uint8(s))
}

// ParseMaskShape parses a shape name as produced by String.
func ParseMaskShape(name string) (MaskShape, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range maskNames {
		if n == name {
			return s, nil
		}
	}
	return MaskNone, fmt.Errorf("photokit: unknown mask shape %q", name)
}

// Keeps reports whether the pixel at offset (dx, dy) from the view centre,
// in normalized screen units, survives the mask. The offset is aspect
// corrected for viewAspect before the test. Unknown shapes keep every pixel.
func (s MaskShape) Keeps(dx, dy, viewAspect, radius float64) bool {
	test, ok := maskPolicies[s]
	if !ok || s == MaskNone {
		return true
	}
	dx, dy = CorrectMaskOffset(dx, dy, viewAspect)
	return test(dx, dy, radius)
}

// Discards is the negation of Keeps.
func (s MaskShape) Discards(dx, dy, viewAspect, radius float64) bool {
	return !s.Keeps(dx, dy, viewAspect, radius)
}

// Mask represents a per-pixel visibility mask.
// Values range from 0 (discarded) to 255 (kept).
type Mask struct {
	width  int
	height int
	data   []uint8
}

// NewMask creates a new mask with every pixel discarded.
func NewMask(width, height int) *Mask {
	width = max(width, 0)
	height = max(height, 0)
	return &Mask{
		width:  width,
		height: height,
		data:   make([]uint8, width*height),
	}
}

// RasterizeMask evaluates shape at the centre of every pixel of a
// width×height view and returns the result as a Mask.
func RasterizeMask(shape MaskShape, width, height int, radius float64) *Mask {
	m := NewMask(width, height)
	aspect := Viewport{Width: width, Height: height}.AspectRatio()
	for y := 0; y < m.height; y++ {
		dy := (float64(y)+0.5)/float64(m.height) - 0.5
		row := m.data[y*m.width : (y+1)*m.width]
		for x := range row {
			dx := (float64(x)+0.5)/float64(m.width) - 0.5
			if shape.Keeps(dx, dy, aspect, radius) {
				row[x] = 255
			}
		}
	}
	return m
}

// Width returns the mask width.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height.
func (m *Mask) Height() int { return m.height }

// At returns the mask value at (x, y).
// Returns 0 for coordinates outside the mask bounds.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.data[y*m.width+x]
}

// Set sets the mask value at (x, y).
// Coordinates outside the mask bounds are ignored.
func (m *Mask) Set(x, y int, value uint8) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.data[y*m.width+x] = value
}

// Kept reports whether the pixel at (x, y) survives the mask.
func (m *Mask) Kept(x, y int) bool {
	return m.At(x, y) != 0
}

// Coverage returns the fraction of kept pixels.
func (m *Mask) Coverage() float64 {
	if len(m.data) == 0 {
		return 0
	}
	n := 0
	for _, v := range m.data {
		if v != 0 {
			n++
		}
	}
	return float64(n) / float64(len(m.data))
}

// Data returns the underlying mask data slice.
func (m *Mask) Data() []uint8 {
	return m.data
}
