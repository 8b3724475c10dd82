package photokit

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/photokit/internal/parallel"
)

// SoftwareBackend is the CPU rendition of the quad program. It evaluates the
// same per-pixel sampling and mask rules as the GPU backend and keeps its
// target in the same bottom-up BGRA layout, so captures go through the same
// conversion.
type SoftwareBackend struct {
	vp      Viewport
	target  []byte
	texture *Pixmap
	pool    *parallel.WorkerPool
	logger  atomic.Pointer[slog.Logger]

	maskKey maskCacheKey
	mask    *Mask
}

type maskCacheKey struct {
	shape  MaskShape
	w, h   int
	radius float64
}

// NewSoftwareBackend creates an uninitialized software backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Name returns "software".
func (b *SoftwareBackend) Name() string { return DefaultBackend }

// SetLogger sets the backend logger.
func (b *SoftwareBackend) SetLogger(l *slog.Logger) {
	b.logger.Store(l)
}

func (b *SoftwareBackend) log() *slog.Logger {
	if l := b.logger.Load(); l != nil {
		return l
	}
	return Logger()
}

// Init starts the band worker pool. The software program cannot fail to build.
func (b *SoftwareBackend) Init() error {
	if b.pool == nil {
		b.pool = parallel.NewWorkerPool(0)
	}
	return nil
}

// Resize reallocates the target. The previous contents are discarded.
func (b *SoftwareBackend) Resize(vp Viewport) error {
	if vp.Width < 0 || vp.Height < 0 {
		return fmt.Errorf("photokit: invalid viewport %s", vp)
	}
	b.vp = vp
	b.target = make([]byte, max(vp.Width, 0)*max(vp.Height, 0)*4)
	return nil
}

// Upload copies img into the backend texture.
func (b *SoftwareBackend) Upload(img *Pixmap) error {
	if img.IsEmpty() || len(img.Data()) != img.Width()*img.Height()*4 {
		return ErrInvalidImage
	}
	b.texture = img.Clone()
	return nil
}

// Draw renders one frame into the target.
func (b *SoftwareBackend) Draw(p DrawParams) error {
	clear(b.target)
	if b.vp.IsEmpty() || !p.HasTexture || b.texture == nil {
		return nil
	}

	mask := b.maskFor(p.Mask, p.MaskRadius)
	w, h := b.vp.Width, b.vp.Height
	tasks := make([]func(), 0, 8)
	workers := 1
	if b.pool != nil {
		workers = b.pool.Workers()
	}
	for _, band := range parallel.Bands(h, workers) {
		tasks = append(tasks, func() {
			for y := band.Start; y < band.End; y++ {
				b.drawRow(y, w, h, p, mask)
			}
		})
	}
	if b.pool != nil {
		b.pool.Run(tasks)
	} else {
		for _, t := range tasks {
			t()
		}
	}
	return nil
}

// drawRow shades screen row y (0 at the top) into target row h-1-y.
func (b *SoftwareBackend) drawRow(y, w, h int, p DrawParams, mask *Mask) {
	t := (float64(y) + 0.5) / float64(h)
	row := b.target[(h-1-y)*w*4 : (h-y)*w*4]
	for x := range w {
		if mask != nil && !mask.Kept(x, y) {
			continue
		}
		s := (float64(x) + 0.5) / float64(w)
		u, v := SampleCoord(s, t, p.FitScaleX, p.FitScaleY, p.Canvas)
		if !InTexture(u, v) {
			continue
		}
		r, g, bl, a := sampleBilinear(b.texture, u, v)
		i := x * 4
		row[i+0] = bl
		row[i+1] = g
		row[i+2] = r
		row[i+3] = a
	}
}

// maskFor returns the cached raster of shape at the current size, or nil
// for MaskNone.
func (b *SoftwareBackend) maskFor(shape MaskShape, radius float64) *Mask {
	if shape == MaskNone {
		return nil
	}
	key := maskCacheKey{shape: shape, w: b.vp.Width, h: b.vp.Height, radius: radius}
	if b.mask == nil || b.maskKey != key {
		b.mask = RasterizeMask(shape, b.vp.Width, b.vp.Height, radius)
		b.maskKey = key
		b.log().Debug("photokit: mask rasterized", "shape", shape, "size", b.vp, "coverage", b.mask.Coverage())
	}
	return b.mask
}

// ReadPixels returns a copy of the target.
func (b *SoftwareBackend) ReadPixels() ([]byte, error) {
	out := make([]byte, len(b.target))
	copy(out, b.target)
	return out, nil
}

// Close releases the texture and stops the worker pool.
func (b *SoftwareBackend) Close() error {
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
	b.texture = nil
	b.target = nil
	b.mask = nil
	return nil
}
