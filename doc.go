// Package photokit renders a photo through a gesture-driven transform and
// shape mask, and captures the result for export.
//
// # Overview
//
// A source image is mapped onto a full-viewport quad with a fit-center
// projection that keeps its aspect ratio. Pan and pinch gestures produce a
// CanvasTransform that shifts and zooms the sampled region; a MaskShape
// hides everything outside a circle or square around the view centre. On
// request the frame is read back and handed over as a top-down RGBA Pixmap.
//
// # Quick Start
//
//	r, err := photokit.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	_ = r.Start()
//
//	_ = r.Resize(800, 600)
//	_ = r.SetImage(img)
//	_ = r.SetShape(photokit.MaskCircle)
//	frame, err := r.Capture(ctx)
//
// Editor wraps a Renderer with a GestureTracker and a background worker pool
// for decoding and encoding.
//
// # Backends
//
// The "software" backend is always available. The GPU backend renders with
// gogpu/wgpu and registers itself as "gpu" when its package is imported:
//
//	import _ "github.com/gogpu/photokit/gpu"
//
// # Coordinate System
//
//   - Screen pixels: origin top-left, y down
//   - Normalized screen (s, t): [0,1], t down
//   - Texture (u, v): [0,1], (0,0) is the image's top-left corner
//   - Overlay rotation in degrees, positive is clockwise on screen
//
// # Threading
//
// Renderer methods may be called from any goroutine; all backend work runs
// on the renderer's own goroutine. GestureTracker, OverlayTracker and the
// Editor's input methods belong to the UI goroutine.
package photokit

// Version is the current version of the library.
const Version = "0.1.0"
