package photokit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Dispatcher runs fn on the goroutine that owns UI state. The default
// dispatcher calls fn inline.
type Dispatcher func(fn func())

func inlineDispatcher(fn func()) { fn() }

// RendererOption configures a Renderer during creation.
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	backendName    string
	backend        Backend
	maskRadius     float64
	dispatcher     Dispatcher
	deviceProvider any
}

func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		backendName: DefaultBackend,
		maskRadius:  DefaultMaskRadius,
		dispatcher:  inlineDispatcher,
	}
}

// WithBackend selects a registered backend by name.
func WithBackend(name string) RendererOption {
	return func(o *rendererOptions) {
		o.backendName = name
	}
}

// WithBackendInstance supplies an uninitialized backend directly, bypassing
// the registry.
func WithBackendInstance(b Backend) RendererOption {
	return func(o *rendererOptions) {
		o.backend = b
	}
}

// WithMaskRadius sets the circle/square mask radius in normalized screen
// units. Non-positive values are ignored.
func WithMaskRadius(r float64) RendererOption {
	return func(o *rendererOptions) {
		if r > 0 {
			o.maskRadius = r
		}
	}
}

// WithDispatcher sets the function used to deliver capture callbacks.
func WithDispatcher(d Dispatcher) RendererOption {
	return func(o *rendererOptions) {
		if d != nil {
			o.dispatcher = d
		}
	}
}

// WithDeviceProvider passes a shared GPU device provider to the backend
// before Init. The backend must implement DeviceProviderAware.
func WithDeviceProvider(provider any) RendererOption {
	return func(o *rendererOptions) {
		o.deviceProvider = provider
	}
}

// rendererState is everything the render goroutine owns. Nothing outside
// the goroutine touches it once Start has been called.
type rendererState struct {
	viewport    Viewport
	pending     *Pixmap
	hasTexture  bool
	imageAspect float64
	mask        MaskShape
	capture     captureSlot
}

// renderOp is a queued one-shot operation executed on the render goroutine.
type renderOp func(st *rendererState)

// Renderer draws the source image through a Backend on a dedicated
// goroutine.
//
// Every mutating call enqueues an operation and requests a frame. Queued
// operations run in order; the frame is drawn once after all operations
// queued so far have run, so bursts of updates coalesce. The canvas
// transform is stored in atomics and read when the frame is drawn.
//
// All methods are safe for concurrent use.
type Renderer struct {
	backend Backend
	opts    rendererOptions

	scale atomic.Uint64
	tx    atomic.Uint64
	ty    atomic.Uint64

	mu      sync.Mutex
	ops     []renderOp
	dirty   bool
	started bool
	closing bool
	closed  bool

	wake chan struct{}
	done chan struct{}

	state rendererState
}

// NewRenderer creates the backend, builds its program and returns a
// renderer that is not yet running. A program that fails to build is
// returned as an error wrapping ErrShaderCompile.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b := o.backend
	if b == nil {
		var err error
		if b, err = NewBackend(o.backendName); err != nil {
			return nil, err
		}
	}

	if o.deviceProvider != nil {
		aware, ok := b.(DeviceProviderAware)
		if !ok {
			_ = b.Close()
			return nil, fmt.Errorf("%w: %s", errNotDeviceAware, b.Name())
		}
		if err := aware.SetDeviceProvider(o.deviceProvider); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("photokit: device provider: %w", err)
		}
	}

	trackBackend(b)
	if err := b.Init(); err != nil {
		untrackBackend(b)
		_ = b.Close()
		return nil, fmt.Errorf("photokit: init %s backend: %w", b.Name(), err)
	}

	r := &Renderer{
		backend: b,
		opts:    o,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	r.storeTransform(IdentityCanvasTransform())
	Logger().Info("photokit: renderer created", "backend", b.Name())
	return r, nil
}

// BackendName returns the name of the backend in use.
func (r *Renderer) BackendName() string {
	return r.backend.Name()
}

// Start launches the render goroutine. Operations queued before Start run
// first. Calling Start more than once has no effect.
func (r *Renderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.closing {
		return ErrRendererClosed
	}
	if r.started {
		return nil
	}
	r.started = true
	go r.loop()
	if len(r.ops) > 0 || r.dirty {
		r.signal()
	}
	return nil
}

// Close stops the render goroutine after the queued operations have run and
// releases the backend. Close is safe to call multiple times.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closing || r.closed {
		r.mu.Unlock()
		<-r.done
		return nil
	}
	r.closing = true
	started := r.started
	if started {
		r.signal()
	}
	r.mu.Unlock()

	if !started {
		r.release()
		close(r.done)
	}
	<-r.done
	return nil
}

// SetImage queues img for upload and resets the canvas transform. The
// renderer takes ownership of img until the frame that uploads it. An empty
// image is logged and leaves the current texture and transform in place.
func (r *Renderer) SetImage(img *Pixmap) error {
	if img.IsEmpty() {
		return r.enqueue(func(*rendererState) {
			Logger().Warn("photokit: ignoring empty image", "err", ErrInvalidImage)
		})
	}
	r.storeTransform(IdentityCanvasTransform())
	return r.enqueue(func(st *rendererState) {
		st.pending = img
	})
}

// SetShape queues a mask shape change.
func (r *Renderer) SetShape(shape MaskShape) error {
	return r.enqueue(func(st *rendererState) {
		st.mask = shape
	})
}

// UpdateTransform publishes a new canvas transform and requests a frame.
// The scale is clamped into the canvas range.
func (r *Renderer) UpdateTransform(t CanvasTransform) error {
	r.storeTransform(t.Clamped())
	return r.enqueue(nil)
}

// Resize queues a viewport change.
func (r *Renderer) Resize(width, height int) error {
	vp := Viewport{Width: width, Height: height}
	return r.enqueue(func(st *rendererState) {
		if err := r.backend.Resize(vp); err != nil {
			Logger().Error("photokit: resize failed", "size", vp, "err", err)
			return
		}
		st.viewport = vp
	})
}

// SaveFrame requests a capture of the next frame. fn receives the frame as
// a top-down RGBA pixmap, or an error wrapping ErrCaptureFailure. If an
// earlier request has not completed yet it is replaced and its callback is
// never called.
func (r *Renderer) SaveFrame(fn CaptureFunc) error {
	if fn == nil {
		return errors.New("photokit: nil capture callback")
	}
	return r.enqueue(func(st *rendererState) {
		if st.capture.request(fn) {
			Logger().Warn("photokit: pending capture replaced by newer request")
		}
	})
}

// Capture requests a frame and waits for it or for ctx to end.
func (r *Renderer) Capture(ctx context.Context) (*Pixmap, error) {
	type result struct {
		img *Pixmap
		err error
	}
	ch := make(chan result, 1)
	if err := r.SaveFrame(func(img *Pixmap, err error) {
		ch <- result{img, err}
	}); err != nil {
		return nil, err
	}
	select {
	case res := <-ch:
		return res.img, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RequestRender asks for a frame without changing any state.
func (r *Renderer) RequestRender() error {
	return r.enqueue(nil)
}

// Transform returns the canvas transform the next frame will use.
func (r *Renderer) Transform() CanvasTransform {
	return CanvasTransform{
		Scale:      math.Float64frombits(r.scale.Load()),
		TranslateX: math.Float64frombits(r.tx.Load()),
		TranslateY: math.Float64frombits(r.ty.Load()),
	}
}

func (r *Renderer) storeTransform(t CanvasTransform) {
	r.scale.Store(math.Float64bits(t.Scale))
	r.tx.Store(math.Float64bits(t.TranslateX))
	r.ty.Store(math.Float64bits(t.TranslateY))
}

// enqueue appends op (which may be nil) and marks the renderer dirty.
func (r *Renderer) enqueue(op renderOp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing || r.closed {
		return ErrRendererClosed
	}
	if op != nil {
		r.ops = append(r.ops, op)
	}
	r.dirty = true
	if r.started {
		r.signal()
	}
	return nil
}

// signal wakes the render goroutine. Callers hold r.mu.
func (r *Renderer) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Renderer) loop() {
	defer close(r.done)
	for range r.wake {
		r.mu.Lock()
		ops := r.ops
		r.ops = nil
		dirty := r.dirty
		r.dirty = false
		closing := r.closing
		r.mu.Unlock()

		for _, op := range ops {
			op(&r.state)
		}
		if dirty {
			r.frame()
		}
		if closing {
			r.release()
			return
		}
	}
}

// frame uploads a pending image, draws, and serves a pending capture.
func (r *Renderer) frame() {
	st := &r.state
	log := Logger()

	if st.pending != nil {
		img := st.pending
		st.pending = nil
		if err := r.backend.Upload(img); err != nil {
			log.Warn("photokit: texture upload skipped", "size", img.Bounds().Size(), "err", err)
		} else {
			st.hasTexture = true
			st.imageAspect = img.AspectRatio()
			log.Debug("photokit: texture uploaded", "width", img.Width(), "height", img.Height())
		}
	}

	if st.viewport.IsEmpty() {
		if fn := st.capture.take(); fn != nil {
			r.deliver(fn, nil, fmt.Errorf("%w: %w", ErrCaptureFailure, ErrNoViewport))
		}
		return
	}

	p := DrawParams{
		HasTexture: st.hasTexture,
		Canvas:     r.Transform(),
		Mask:       st.mask,
		MaskRadius: r.opts.maskRadius,
		ViewAspect: st.viewport.AspectRatio(),
	}
	p.FitScaleX, p.FitScaleY = FitCenterScales(st.imageAspect, p.ViewAspect)
	log.Debug("photokit: draw", "canvas", p.Canvas, "mask", p.Mask, "fit", [2]float64{p.FitScaleX, p.FitScaleY})

	if err := r.backend.Draw(p); err != nil {
		log.Error("photokit: draw failed", "err", err)
		if fn := st.capture.take(); fn != nil {
			r.deliver(fn, nil, fmt.Errorf("%w: %w", ErrCaptureFailure, err))
		}
		return
	}

	fn := st.capture.take()
	if fn == nil {
		return
	}
	raw, err := r.backend.ReadPixels()
	if err != nil {
		r.deliver(fn, nil, fmt.Errorf("%w: %w", ErrCaptureFailure, err))
		return
	}
	img, err := ConvertFrame(raw, st.viewport.Width, st.viewport.Height)
	if err != nil {
		r.deliver(fn, nil, err)
		return
	}
	log.Debug("photokit: frame captured", "size", st.viewport)
	r.deliver(fn, img, nil)
}

func (r *Renderer) deliver(fn CaptureFunc, img *Pixmap, err error) {
	if err != nil {
		Logger().Warn("photokit: capture failed", "err", err)
	}
	r.opts.dispatcher(func() { fn(img, err) })
}

// release tears down the backend. Called once, from the render goroutine
// or from Close when the goroutine never started.
func (r *Renderer) release() {
	untrackBackend(r.backend)
	if err := r.backend.Close(); err != nil {
		Logger().Warn("photokit: backend close", "err", err)
	}
	r.state = rendererState{}

	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	Logger().Info("photokit: renderer closed", "backend", r.backend.Name())
}
