//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/photokit"
	"github.com/gogpu/wgpu/hal"
)

// quadUniformSize is the byte size of the Params struct in photo_quad.wgsl.
// Layout (std140-compatible, 48 bytes):
//
//	0  fit          vec2<f32>
//	8  translate    vec2<f32>
//	16 canvas_scale f32
//	20 view_aspect  f32
//	24 mask_radius  f32
//	28 mask_shape   u32
//	32 image_size   vec2<u32>
//	40 padding      2 x u32
const quadUniformSize = 48

// fenceTimeout bounds every wait on a submitted command buffer.
const fenceTimeout = 5 * time.Second

// QuadPipeline owns the GPU objects of the photo quad program: the shader,
// its bind group layout and render pipeline, the offscreen BGRA8 target and
// the storage buffer holding the source image.
type QuadPipeline struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	targetTex  hal.Texture
	targetView hal.TextureView
	width      uint32
	height     uint32

	imageBuf  hal.Buffer
	imageSize uint64
	imageW    uint32
	imageH    uint32
}

// NewQuadPipeline creates a pipeline bound to device and queue. GPU objects
// are created by Build.
func NewQuadPipeline(device hal.Device, queue hal.Queue) *QuadPipeline {
	return &QuadPipeline{device: device, queue: queue}
}

// Build compiles the shader and creates the render pipeline.
func (p *QuadPipeline) Build() error {
	code, err := compileSPIRV(photoQuadShaderSource)
	if err != nil {
		return err
	}

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "photo_quad_shader",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return fmt.Errorf("%w: create module: %w", photokit.ErrShaderCompile, err)
	}
	p.shader = shader

	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "photo_quad_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		p.Destroy()
		return fmt.Errorf("create bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "photo_quad_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.Destroy()
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	// No blending: masked fragments are discarded and the target is cleared
	// to transparent, so the output matches the software backend exactly.
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "photo_quad_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.Destroy()
		return fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

// Ready reports whether Build has completed.
func (p *QuadPipeline) Ready() bool { return p.pipeline != nil }

// Size returns the current target dimensions.
func (p *QuadPipeline) Size() (uint32, uint32) { return p.width, p.height }

// EnsureTarget creates or recreates the render target when the requested
// dimensions differ from the current size.
func (p *QuadPipeline) EnsureTarget(w, h uint32) error {
	if p.width == w && p.height == h && p.targetTex != nil {
		return nil
	}
	p.destroyTarget()
	if w == 0 || h == 0 {
		return nil
	}

	tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "photo_quad_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create target texture: %w", err)
	}
	p.targetTex = tex

	view, err := p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "photo_quad_target_view",
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.destroyTarget()
		return fmt.Errorf("create target view: %w", err)
	}
	p.targetView = view

	p.width = w
	p.height = h
	return nil
}

// UploadImage copies img into the image storage buffer, growing it when
// needed.
func (p *QuadPipeline) UploadImage(img *photokit.Pixmap) error {
	data := img.Data()
	size := uint64(len(data))
	if p.imageBuf == nil || p.imageSize < size {
		p.destroyImage()
		buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "photo_quad_image",
			Size:  size,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create image buffer: %w", err)
		}
		p.imageBuf = buf
		p.imageSize = size
	}
	p.queue.WriteBuffer(p.imageBuf, 0, data)
	p.imageW = uint32(img.Width())  //nolint:gosec // pixmap dimensions are positive
	p.imageH = uint32(img.Height()) //nolint:gosec // pixmap dimensions are positive
	return nil
}

// HasImage reports whether an image has been uploaded.
func (p *QuadPipeline) HasImage() bool { return p.imageBuf != nil }

// Draw renders one frame into the target and waits for completion.
func (p *QuadPipeline) Draw(params photokit.DrawParams) error {
	if p.targetView == nil {
		return fmt.Errorf("draw: no render target")
	}

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "photo_quad_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("photo_quad"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	var bindGroup hal.BindGroup
	drawQuad := params.HasTexture && p.imageBuf != nil
	if drawQuad {
		uniformBuf, err := p.createAndUploadBuffer("photo_quad_uniform",
			makeQuadUniform(params, p.imageW, p.imageH),
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			encoder.DiscardEncoding()
			return err
		}
		defer p.device.DestroyBuffer(uniformBuf)

		bindGroup, err = p.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "photo_quad_bind",
			Layout: p.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: quadUniformSize,
				}},
				{Binding: 1, Resource: gputypes.BufferBinding{
					Buffer: p.imageBuf.NativeHandle(), Offset: 0, Size: uint64(p.imageW) * uint64(p.imageH) * 4,
				}},
			},
		})
		if err != nil {
			encoder.DiscardEncoding()
			return fmt.Errorf("create bind group: %w", err)
		}
		defer p.device.DestroyBindGroup(bindGroup)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "photo_quad_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       p.targetView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})
	if drawQuad {
		rp.SetPipeline(p.pipeline)
		rp.SetBindGroup(0, bindGroup, nil)
		rp.Draw(6, 1, 0, 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	return p.submitAndWait(cmdBuf)
}

// ReadPixels copies the target into a staging buffer and returns its bytes:
// BGRA, bottom row of the picture first.
func (p *QuadPipeline) ReadPixels() ([]byte, error) {
	if p.targetTex == nil {
		return nil, fmt.Errorf("readback: no render target")
	}
	w, h := p.width, p.height

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "photo_quad_readback",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("photo_quad_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// The target is left in attachment layout by the render pass.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: p.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(w) * uint64(h) * 4
	stagingBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "photo_quad_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer p.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(p.targetTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: p.targetTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	if err := p.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}

	out := make([]byte, pixelBufSize)
	if err := p.queue.ReadBuffer(stagingBuf, 0, out); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return out, nil
}

func (p *QuadPipeline) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := p.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer p.device.DestroyFence(fence)

	if err := p.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := p.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

func (p *QuadPipeline) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	p.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// Destroy releases all GPU objects in reverse creation order. The device
// and queue are not touched.
func (p *QuadPipeline) Destroy() {
	if p.device == nil {
		return
	}
	p.destroyImage()
	p.destroyTarget()
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

func (p *QuadPipeline) destroyTarget() {
	if p.targetView != nil {
		p.device.DestroyTextureView(p.targetView)
		p.targetView = nil
	}
	if p.targetTex != nil {
		p.device.DestroyTexture(p.targetTex)
		p.targetTex = nil
	}
	p.width = 0
	p.height = 0
}

func (p *QuadPipeline) destroyImage() {
	if p.imageBuf != nil {
		p.device.DestroyBuffer(p.imageBuf)
		p.imageBuf = nil
	}
	p.imageSize = 0
	p.imageW = 0
	p.imageH = 0
}

// makeQuadUniform packs params into the Params layout of photo_quad.wgsl.
func makeQuadUniform(params photokit.DrawParams, imgW, imgH uint32) []byte {
	scale := params.Canvas.Scale
	if scale == 0 {
		scale = 1
	}
	aspect := params.ViewAspect
	if aspect <= 0 {
		aspect = 1
	}
	shape := uint32(0)
	switch params.Mask {
	case photokit.MaskCircle:
		shape = 1
	case photokit.MaskSquare:
		shape = 2
	}

	buf := make([]byte, quadUniformSize)
	putF32 := func(off int, v float64) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(float32(v)))
	}
	putF32(0, params.FitScaleX)
	putF32(4, params.FitScaleY)
	putF32(8, params.Canvas.TranslateX)
	putF32(12, params.Canvas.TranslateY)
	putF32(16, scale)
	putF32(20, aspect)
	putF32(24, params.MaskRadius)
	binary.LittleEndian.PutUint32(buf[28:32], shape)
	binary.LittleEndian.PutUint32(buf[32:36], imgW)
	binary.LittleEndian.PutUint32(buf[36:40], imgH)
	// Padding bytes 40..47 remain zero.
	return buf
}
