package photokit

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/gogpu/photokit/internal/parallel"
)

// Tool ids of the shape tool strip.
const (
	ToolShapeReset = 100
	ToolCircle     = 101
	ToolSquare     = 102
)

var toolShapes = map[int]MaskShape{
	ToolShapeReset: MaskNone,
	ToolCircle:     MaskCircle,
	ToolSquare:     MaskSquare,
}

// errPoolClosed is reported when background work is requested after Close.
var errPoolClosed = errors.New("photokit: editor is closed")

// EditorOption configures an Editor during creation.
type EditorOption func(*editorOptions)

type editorOptions struct {
	renderer       []RendererOption
	gesture        []GestureOption
	workers        int
	maxTextureSize int
	jpegQuality    int
	dispatcher     Dispatcher
}

func defaultEditorOptions() editorOptions {
	return editorOptions{
		workers:        2,
		maxTextureSize: DefaultMaxTextureSize,
		jpegQuality:    DefaultJPEGQuality,
		dispatcher:     inlineDispatcher,
	}
}

// WithRendererOptions forwards options to the editor's Renderer.
func WithRendererOptions(opts ...RendererOption) EditorOption {
	return func(o *editorOptions) {
		o.renderer = append(o.renderer, opts...)
	}
}

// WithGestureOptions forwards options to the editor's GestureTracker.
func WithGestureOptions(opts ...GestureOption) EditorOption {
	return func(o *editorOptions) {
		o.gesture = append(o.gesture, opts...)
	}
}

// WithWorkers sets the number of background I/O workers.
func WithWorkers(n int) EditorOption {
	return func(o *editorOptions) {
		o.workers = n
	}
}

// WithMaxTextureSize bounds the longer side of loaded images. Zero or
// negative disables downscaling.
func WithMaxTextureSize(px int) EditorOption {
	return func(o *editorOptions) {
		o.maxTextureSize = px
	}
}

// WithJPEGQuality sets the JPEG export quality (1-100).
func WithJPEGQuality(q int) EditorOption {
	return func(o *editorOptions) {
		o.jpegQuality = q
	}
}

// WithUIDispatcher sets the function that runs completions on the UI
// goroutine. Load and export callbacks, tool echoes and gesture resets
// triggered by background work all go through it.
func WithUIDispatcher(d Dispatcher) EditorOption {
	return func(o *editorOptions) {
		if d != nil {
			o.dispatcher = d
		}
	}
}

// Editor ties together the gesture tracker, the renderer and a background
// worker pool for image I/O.
//
// HandlePointer, SelectTool and the listener setters belong to the UI
// goroutine. LoadImage and Export return immediately and report through
// their callbacks, which run via the UI dispatcher.
type Editor struct {
	opts     editorOptions
	renderer *Renderer
	gesture  *GestureTracker
	pool     *parallel.WorkerPool

	shape   MaskShape
	onShape func(MaskShape)

	mu       sync.Mutex
	overlays []Overlay
}

// NewEditor creates and starts an editor.
func NewEditor(opts ...EditorOption) (*Editor, error) {
	o := defaultEditorOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r, err := NewRenderer(o.renderer...)
	if err != nil {
		return nil, err
	}
	if err := r.Start(); err != nil {
		_ = r.Close()
		return nil, err
	}

	e := &Editor{
		opts:     o,
		renderer: r,
		gesture:  NewGestureTracker(o.gesture...),
		pool:     parallel.NewWorkerPool(o.workers),
	}
	e.gesture.SetListener(func(t CanvasTransform) {
		_ = e.renderer.UpdateTransform(t)
	})
	return e, nil
}

// Renderer returns the editor's renderer.
func (e *Editor) Renderer() *Renderer { return e.renderer }

// Gesture returns the editor's canvas gesture tracker.
func (e *Editor) Gesture() *GestureTracker { return e.gesture }

// Resize forwards a surface size change to the renderer.
func (e *Editor) Resize(width, height int) error {
	return e.renderer.Resize(width, height)
}

// LoadImage decodes r on the worker pool, downscaling large images, then
// resets the canvas transform and hands the image to the renderer. done,
// if non-nil, receives nil or an error wrapping ErrInvalidImage.
func (e *Editor) LoadImage(r io.Reader, done func(error)) {
	finish := func(err error) {
		if done != nil {
			e.opts.dispatcher(func() { done(err) })
		}
	}
	ok := e.pool.Go(func() {
		img, err := DecodeImage(r, e.opts.maxTextureSize)
		if err != nil {
			Logger().Warn("photokit: load failed", "err", err)
			finish(err)
			return
		}
		e.opts.dispatcher(func() {
			err := e.SetImage(img)
			if done != nil {
				done(err)
			}
		})
	})
	if !ok {
		finish(errPoolClosed)
	}
}

// SetImage resets the canvas transform and shows img. It must be called
// on the UI goroutine.
func (e *Editor) SetImage(img *Pixmap) error {
	if img.IsEmpty() {
		return ErrInvalidImage
	}
	if err := e.renderer.SetImage(img); err != nil {
		return err
	}
	e.gesture.Reset()
	return nil
}

// HandlePointer feeds a pointer event to the gesture tracker.
func (e *Editor) HandlePointer(ev PointerEvent) {
	e.gesture.HandleEvent(ev)
}

// OnShapeSelected registers fn to receive the shape chosen by SelectTool.
func (e *Editor) OnShapeSelected(fn func(MaskShape)) {
	e.onShape = fn
}

// Shape returns the last selected mask shape.
func (e *Editor) Shape() MaskShape {
	return e.shape
}

// SelectTool maps a tool id to a mask shape, applies it and echoes it to
// the OnShapeSelected listener.
func (e *Editor) SelectTool(id int) (MaskShape, error) {
	shape, ok := toolShapes[id]
	if !ok {
		return e.shape, fmt.Errorf("photokit: unknown tool id %d", id)
	}
	if err := e.renderer.SetShape(shape); err != nil {
		return e.shape, err
	}
	e.shape = shape
	if e.onShape != nil {
		e.onShape(shape)
	}
	return shape, nil
}

// SetOverlays replaces the stickers laid over exported frames.
func (e *Editor) SetOverlays(overlays ...Overlay) {
	e.mu.Lock()
	e.overlays = slices.Clone(overlays)
	e.mu.Unlock()
}

// Export captures the next frame, composes the overlays onto it and
// encodes it to w on the worker pool. done receives the outcome on the UI
// goroutine. w must not be used until done has been called.
func (e *Editor) Export(w io.Writer, format ExportFormat, done func(error)) {
	finish := func(err error) {
		if err != nil {
			Logger().Warn("photokit: export failed", "format", format, "err", err)
		}
		if done != nil {
			e.opts.dispatcher(func() { done(err) })
		}
	}

	e.mu.Lock()
	overlays := slices.Clone(e.overlays)
	e.mu.Unlock()

	err := e.renderer.SaveFrame(func(img *Pixmap, err error) {
		if err != nil {
			finish(err)
			return
		}
		ok := e.pool.Go(func() {
			if len(overlays) > 0 {
				img = ComposeFrame(img, overlays...)
			}
			finish(EncodeImage(w, img, format, e.opts.jpegQuality))
		})
		if !ok {
			finish(errPoolClosed)
		}
	})
	if err != nil {
		finish(err)
	}
}

// Close stops the renderer and then the worker pool.
func (e *Editor) Close() error {
	err := e.renderer.Close()
	e.pool.Close()
	return err
}
