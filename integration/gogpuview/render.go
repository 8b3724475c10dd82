// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuview

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Rendering errors.
var (
	// ErrInvalidDrawContext is returned when the texture cannot be drawn by
	// the draw context.
	ErrInvalidDrawContext = errors.New("gogpuview: texture is not a gpucontext.Texture")

	// ErrInvalidRenderer is returned when the draw context has no
	// TextureCreator.
	ErrInvalidRenderer = errors.New("gogpuview: draw context has no TextureCreator")
)

// RenderTo draws the latest frame at (0, 0). Nothing is drawn before the
// first frame arrives.
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    view.RenderTo(dc.AsTextureDrawer())
//	})
func (v *View) RenderTo(dc gpucontext.TextureDrawer) error {
	return v.RenderToPosition(dc, 0, 0)
}

// RenderToPosition draws the latest frame with its top-left corner at
// (x, y).
func (v *View) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	tex, err := v.flushLocked()
	if err != nil {
		return err
	}
	if tex == nil {
		return nil
	}

	if pending, isPending := tex.(*pendingTexture); isPending {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		// NewTextureFromRGBA waits for the GPU, so the old texture is no
		// longer in use once it returns.
		realTex, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("gogpuview: NewTextureFromRGBA failed: %w", err)
		}
		// Frames are straight (non-premultiplied) alpha.
		if pt, ok := realTex.(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(false)
		}
		v.texture = realTex
		tex = realTex

		if v.oldTexture != nil {
			destroyTexture(v.oldTexture)
			v.oldTexture = nil
		}
	}

	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidDrawContext
	}
	return dc.DrawTexture(gpuTex, x, y)
}
