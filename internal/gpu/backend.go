//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/photokit"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// BackendGPU is the registry name of the GPU backend.
const BackendGPU = "gpu"

// ErrNoGPU is returned by Init when no usable adapter could be opened.
var ErrNoGPU = errors.New("gpu: no GPU available")

// Backend renders the photo quad with wgpu/hal. It implements
// photokit.Backend and photokit.DeviceProviderAware.
//
// Backend either owns its Vulkan instance and device (opened by Init) or
// borrows them from an external provider; borrowed objects are never
// destroyed.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	pipeline *QuadPipeline

	surfaceFormat  gputypes.TextureFormat
	externalDevice bool // true when using shared device (don't destroy on Close)
	closed         bool
}

var (
	_ photokit.Backend             = (*Backend)(nil)
	_ photokit.DeviceProviderAware = (*Backend)(nil)
)

// NewBackend creates an uninitialized GPU backend that opens its own device
// in Init.
func NewBackend() *Backend {
	return &Backend{}
}

// NewBackendWithDevice creates a backend that renders on an existing device
// and queue. The caller keeps ownership of both.
func NewBackendWithDevice(device hal.Device, queue hal.Queue) *Backend {
	return &Backend{device: device, queue: queue, externalDevice: true}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return BackendGPU }

// SetLogger receives the logger propagated by photokit.SetLogger.
func (b *Backend) SetLogger(l *slog.Logger) { setLogger(l) }

// Init opens a device if none was provided and builds the quad pipeline.
// Shader failures wrap photokit.ErrShaderCompile.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return photokit.ErrRendererClosed
	}
	if b.pipeline != nil && b.pipeline.Ready() {
		return nil
	}
	if b.device == nil {
		if err := b.initDevice(); err != nil {
			return err
		}
	}
	return b.buildPipeline()
}

func (b *Backend) buildPipeline() error {
	p := NewQuadPipeline(b.device, b.queue)
	if err := p.Build(); err != nil {
		return fmt.Errorf("gpu: build quad pipeline: %w", err)
	}
	b.pipeline = p
	slogger().Debug("gpu: quad pipeline ready", "external", b.externalDevice)
	return nil
}

func (b *Backend) initDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("%w: no adapters found", ErrNoGPU)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("%w: open device: %w", ErrNoGPU, err)
	}
	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	slogger().Info("gpu: device opened", "adapter", selected.Info.Name)
	return nil
}

// SetDeviceProvider switches the backend to a shared GPU device from an
// external provider (e.g., a gogpu window). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
// If it is also a gpucontext.DeviceProvider its surface format is recorded.
func (b *Backend) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rebuild := b.pipeline != nil
	b.releaseLocked()

	b.device = device
	b.queue = queue
	b.externalDevice = true
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		b.surfaceFormat = dp.SurfaceFormat()
		slogger().Debug("gpu: shared device", "surface_format", b.surfaceFormat)
	}

	if rebuild {
		return b.buildPipeline()
	}
	return nil
}

// SurfaceFormat returns the surface format reported by the device provider,
// or the zero format when the backend owns its device.
func (b *Backend) SurfaceFormat() gputypes.TextureFormat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceFormat
}

// Resize recreates the render target.
func (b *Backend) Resize(vp photokit.Viewport) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.readyLocked(); err != nil {
		return err
	}
	return b.pipeline.EnsureTarget(uint32(max(vp.Width, 0)), uint32(max(vp.Height, 0))) //nolint:gosec // clamped non-negative
}

// Upload replaces the source image.
func (b *Backend) Upload(img *photokit.Pixmap) error {
	if img.IsEmpty() {
		return photokit.ErrInvalidImage
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.readyLocked(); err != nil {
		return err
	}
	return b.pipeline.UploadImage(img)
}

// Draw renders one frame into the target.
func (b *Backend) Draw(p photokit.DrawParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.readyLocked(); err != nil {
		return err
	}
	return b.pipeline.Draw(p)
}

// ReadPixels returns the target as bottom-up BGRA bytes.
func (b *Backend) ReadPixels() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.readyLocked(); err != nil {
		return nil, err
	}
	return b.pipeline.ReadPixels()
}

// Close releases the pipeline and, unless the device is shared, the device
// and instance. Safe to call more than once.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
	b.closed = true
	return nil
}

func (b *Backend) readyLocked() error {
	if b.closed {
		return photokit.ErrRendererClosed
	}
	if b.pipeline == nil {
		return fmt.Errorf("gpu: backend not initialized")
	}
	return nil
}

func (b *Backend) releaseLocked() {
	if b.pipeline != nil {
		b.pipeline.Destroy()
		b.pipeline = nil
	}
	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
		}
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	// Don't destroy shared resources; we don't own them.
	b.device = nil
	b.queue = nil
	b.instance = nil
	b.externalDevice = false
}
