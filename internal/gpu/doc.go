//go:build !nogpu

// Package gpu provides the wgpu/hal rendering backend for photokit.
//
// This is an internal package; applications enable it with a blank import
// of github.com/gogpu/photokit/gpu, which registers it as the "gpu" backend.
//
// # Pipeline
//
// A single render pipeline draws a viewport-sized quad of two triangles
// generated from the vertex index. The fragment shader maps each screen
// coordinate through the fit-center and canvas transforms, tests it against
// the mask shape, and samples the source image with bilinear filtering.
//
//	Upload:   RGBA pixels -> storage buffer (binding 1)
//	Draw:     uniforms (binding 0) -> render pass -> BGRA8 target texture
//	Readback: target -> staging buffer -> bottom-up BGRA bytes
//
// The WGSL program is compiled to SPIR-V with naga when the backend is
// initialized; a compile failure is reported as photokit.ErrShaderCompile.
//
// # Device
//
// By default the backend opens its own Vulkan device. A shared device can
// be supplied through a gpucontext.DeviceProvider that also exposes HAL
// objects (HalDevice() any, HalQueue() any).
package gpu
