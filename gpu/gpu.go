//go:build !nogpu

// Package gpu registers the wgpu-based rendering backend.
//
// Import this package to make the "gpu" backend available to
// photokit.NewRenderer:
//
//	import _ "github.com/gogpu/photokit/gpu"
//
//	r, err := photokit.NewRenderer(photokit.WithBackend(gpu.Name))
//
// The backend opens its own Vulkan device when the renderer initializes it.
// To render on a device owned by a window toolkit, pass the toolkit's
// provider with photokit.WithDeviceProvider, or build a backend directly
// with NewBackend.
//
// Building with the nogpu tag removes this package and its dependencies.
package gpu

import (
	"github.com/gogpu/photokit"
	gpuimpl "github.com/gogpu/photokit/internal/gpu"
)

// Name is the registry name of the GPU backend.
const Name = gpuimpl.BackendGPU

func init() {
	photokit.RegisterBackend(Name, func() (photokit.Backend, error) {
		return gpuimpl.NewBackend(), nil
	})
}

// NewBackend returns an uninitialized GPU backend. If provider is non-nil
// the backend renders on the provider's device; see
// photokit.DeviceProviderAware.
//
// Pass the result to photokit.WithBackendInstance.
func NewBackend(provider any) (photokit.Backend, error) {
	b := gpuimpl.NewBackend()
	if provider != nil {
		if err := b.SetDeviceProvider(provider); err != nil {
			return nil, err
		}
	}
	return b, nil
}
