// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/photokit"
)

// Common errors returned by View operations.
var (
	// ErrViewClosed is returned when operations are attempted on a closed view.
	ErrViewClosed = errors.New("gogpuview: view is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("gogpuview: invalid dimensions")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("gogpuview: nil DeviceProvider")

	// ErrNilRenderer is returned when a nil Renderer is passed.
	ErrNilRenderer = errors.New("gogpuview: nil Renderer")
)

// textureDestroyer matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// View presents captured renderer frames in a gogpu window.
type View struct {
	mu sync.Mutex

	renderer *photokit.Renderer
	provider gpucontext.DeviceProvider

	frame      *photokit.Pixmap // latest captured frame
	frameErr   error            // error of the latest capture
	texture    any              // *pendingTexture or a gpucontext.Texture
	oldTexture any              // previous texture awaiting deferred destruction

	dirty       bool // frame needs GPU upload
	sizeChanged bool // texture must be recreated
	width       int
	height      int
	closed      bool
}

// New creates a View of the given size and resizes r to match.
// The caller keeps ownership of r.
func New(provider gpucontext.DeviceProvider, r *photokit.Renderer, width, height int) (*View, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if r == nil {
		return nil, ErrNilRenderer
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if err := r.Resize(width, height); err != nil {
		return nil, fmt.Errorf("gogpuview: resize renderer: %w", err)
	}
	photokit.Logger().Debug("gogpuview: view created",
		"width", width, "height", height, "surface_format", provider.SurfaceFormat())
	return &View{
		renderer: r,
		provider: provider,
		width:    width,
		height:   height,
	}, nil
}

// Size returns the view dimensions.
func (v *View) Size() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// Resize changes the view and renderer dimensions. The next captured frame
// recreates the texture.
func (v *View) Resize(width, height int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if v.width == width && v.height == height {
		return nil
	}
	if err := v.renderer.Resize(width, height); err != nil {
		return fmt.Errorf("gogpuview: resize renderer: %w", err)
	}
	v.width = width
	v.height = height
	return nil
}

// Refresh requests a new frame from the renderer.
func (v *View) Refresh() error {
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return ErrViewClosed
	}
	return v.renderer.SaveFrame(v.onFrame)
}

// onFrame receives a capture result.
func (v *View) onFrame(img *photokit.Pixmap, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.frameErr = err
	if err != nil {
		photokit.Logger().Warn("gogpuview: frame capture failed", "err", err)
		return
	}
	if v.frame == nil || v.frame.Width() != img.Width() || v.frame.Height() != img.Height() {
		v.sizeChanged = v.texture != nil
	}
	v.frame = img
	v.dirty = true
}

// Frame returns the latest captured frame, or nil.
func (v *View) Frame() *photokit.Pixmap {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame
}

// Err returns the error of the latest capture, or nil.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frameErr
}

// IsDirty reports whether a frame is waiting for GPU upload.
func (v *View) IsDirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirty
}

// Flush uploads the latest frame to the GPU texture if it changed and
// returns the texture. It returns nil before the first frame arrives.
func (v *View) Flush() (any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.flushLocked()
}

func (v *View) flushLocked() (any, error) {
	if v.closed {
		return nil, ErrViewClosed
	}

	// The old texture may still be referenced by in-flight command buffers;
	// it is destroyed in renderTo after the new one is written.
	if v.sizeChanged {
		if v.texture != nil {
			if v.oldTexture != nil {
				destroyTexture(v.oldTexture)
			}
			v.oldTexture = v.texture
			v.texture = nil
		}
		v.sizeChanged = false
	}

	if v.frame == nil {
		return nil, nil
	}
	if !v.dirty && v.texture != nil {
		return v.texture, nil
	}

	data := v.frame.Data()
	if v.texture == nil {
		v.texture = &pendingTexture{width: v.frame.Width(), height: v.frame.Height(), data: data}
		v.dirty = false
		return v.texture, nil
	}

	switch t := v.texture.(type) {
	case *pendingTexture:
		t.data = data
	case gpucontext.TextureUpdater:
		if err := t.UpdateData(data); err != nil {
			return nil, fmt.Errorf("gogpuview: texture update failed: %w", err)
		}
	}
	v.dirty = false
	return v.texture, nil
}

// Texture returns the current texture without flushing.
func (v *View) Texture() any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.texture
}

// Provider returns the DeviceProvider, or nil once the view is closed.
func (v *View) Provider() gpucontext.DeviceProvider {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	return v.provider
}

// Close releases the textures. The renderer is left running.
// Close is idempotent.
func (v *View) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	if v.oldTexture != nil {
		destroyTexture(v.oldTexture)
		v.oldTexture = nil
	}
	if v.texture != nil {
		destroyTexture(v.texture)
		v.texture = nil
	}
	v.frame = nil
	v.provider = nil
	return nil
}

func destroyTexture(t any) {
	if d, ok := t.(textureDestroyer); ok {
		d.Destroy()
	}
}

// pendingTexture holds frame data until RenderTo has a TextureCreator.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}
