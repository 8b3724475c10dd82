// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gogpuview shows photokit frames in gogpu GPU-accelerated windows.
//
// A View captures frames from a photokit.Renderer and uploads them to a
// window texture. The data flow is:
//
//	Renderer (draw) -> SaveFrame -> Pixmap (CPU) -> GPU Texture -> Window
//
// # Usage
//
//	r, _ := photokit.NewRenderer(photokit.WithBackend("gpu"),
//	    photokit.WithDeviceProvider(app.GPUContextProvider()))
//	_ = r.Start()
//
//	view, _ := gogpuview.New(app.GPUContextProvider(), r, 800, 600)
//	defer view.Close()
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    _ = view.Refresh()
//	    _ = view.RenderTo(dc.AsTextureDrawer())
//	})
//
// The texture always shows the most recent completed frame; a Refresh
// issued while an earlier one is still pending replaces it.
//
// # Thread Safety
//
// Frame delivery may happen on the renderer's goroutine. All View methods
// are safe for concurrent use, but RenderTo must be called from the
// window's draw callback.
package gogpuview
