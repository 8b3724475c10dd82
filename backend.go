package photokit

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// DrawParams carries the per-frame uniforms of the quad program.
type DrawParams struct {
	// HasTexture is false when no image was ever uploaded. The backend then
	// clears the target and draws nothing.
	HasTexture bool

	// Fit-center texture scale factors from FitCenterScales.
	FitScaleX float64
	FitScaleY float64

	Canvas CanvasTransform

	Mask       MaskShape
	MaskRadius float64
	ViewAspect float64
}

// Backend renders the image quad into an offscreen target.
//
// All methods are called from the renderer's goroutine, never concurrently.
// Implementations are provided by this package ("software") and by backend
// packages such as photokit/gpu:
//
//	import _ "github.com/gogpu/photokit/gpu" // registers "gpu"
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// Init builds the program. A failure here is fatal and must wrap
	// ErrShaderCompile when the program could not be built.
	Init() error

	// Resize (re)creates the render target. Called before the first Draw and
	// on every surface change.
	Resize(vp Viewport) error

	// Upload replaces the source texture with img (top-down RGBA).
	Upload(img *Pixmap) error

	// Draw renders one frame.
	Draw(p DrawParams) error

	// ReadPixels returns the target contents, bottom row first, with red and
	// blue exchanged relative to RGBA. See ConvertFrame.
	ReadPixels() ([]byte, error)

	// Close releases every resource. Safe to call more than once.
	Close() error
}

// BackendFactory creates a new, uninitialized backend instance.
type BackendFactory func() (Backend, error)

// DefaultBackend is the backend used when none is configured.
const DefaultBackend = "software"

var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
)

func init() {
	RegisterBackend(DefaultBackend, func() (Backend, error) {
		return NewSoftwareBackend(), nil
	})
}

// RegisterBackend registers a backend factory under name.
// This is typically called from init() functions in backend packages.
// A later registration with the same name replaces the earlier one.
func RegisterBackend(name string, factory BackendFactory) {
	if name == "" || factory == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// UnregisterBackend removes a backend from the registry.
// This is useful for testing.
func UnregisterBackend(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Backends returns the sorted names of all registered backends.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewBackend creates an uninitialized backend by name.
func NewBackend(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, Backends())
	}
	b, err := factory()
	if err != nil {
		return nil, fmt.Errorf("photokit: create backend %q: %w", name, err)
	}
	if b == nil {
		return nil, fmt.Errorf("photokit: backend %q factory returned nil", name)
	}
	return b, nil
}

// DeviceProviderAware is an optional interface for backends that can share
// a GPU device with an external provider (e.g. a gogpu window).
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

// errNotDeviceAware is returned by WithDeviceProvider for backends that
// render without a GPU device.
var errNotDeviceAware = errors.New("photokit: backend does not accept a device provider")
