//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/photokit"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop HAL device for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// skipIfNagaUnsupported skips the test when the shader compiler lacks a
// feature the quad program needs.
func skipIfNagaUnsupported(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := err.Error()
	if errors.Is(err, photokit.ErrShaderCompile) &&
		(strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") ||
			strings.Contains(msg, "unsupported")) {
		t.Skipf("naga limitation: %v", err)
	}
}

func buildPipeline(t *testing.T, device hal.Device, queue hal.Queue) *QuadPipeline {
	t.Helper()
	p := NewQuadPipeline(device, queue)
	err := p.Build()
	skipIfNagaUnsupported(t, err)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func TestCompileQuadShader(t *testing.T) {
	words, err := compileSPIRV(photoQuadShaderSource)
	skipIfNagaUnsupported(t, err)
	if err != nil {
		t.Fatalf("compileSPIRV: %v", err)
	}
	if len(words) < 5 {
		t.Fatalf("SPIR-V too short: %d words", len(words))
	}
	if words[0] != spirvMagic {
		t.Errorf("magic = %#x, want %#x", words[0], spirvMagic)
	}
}

func TestCompileShaderErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"syntax", "fn main( {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileSPIRV(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, photokit.ErrShaderCompile) {
				t.Errorf("error %v does not wrap ErrShaderCompile", err)
			}
		})
	}
}

func TestShaderSourceEmbedded(t *testing.T) {
	for _, want := range []string{"fn vs_main", "fn fs_main", "var<storage, read> texels", "struct Params"} {
		if !strings.Contains(photoQuadShaderSource, want) {
			t.Errorf("shader source missing %q", want)
		}
	}
}

func TestMakeQuadUniform(t *testing.T) {
	params := photokit.DrawParams{
		HasTexture: true,
		FitScaleX:  1,
		FitScaleY:  2,
		Canvas:     photokit.CanvasTransform{Scale: 1.5, TranslateX: 0.25, TranslateY: -0.125},
		Mask:       photokit.MaskSquare,
		MaskRadius: 0.4,
		ViewAspect: 0.5,
	}
	buf := makeQuadUniform(params, 640, 480)
	if len(buf) != quadUniformSize {
		t.Fatalf("len = %d, want %d", len(buf), quadUniformSize)
	}

	f32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }

	floats := []struct {
		off  int
		want float32
	}{
		{0, 1}, {4, 2}, {8, 0.25}, {12, -0.125}, {16, 1.5}, {20, 0.5}, {24, 0.4},
	}
	for _, tt := range floats {
		if got := f32(tt.off); got != tt.want {
			t.Errorf("float at %d = %v, want %v", tt.off, got, tt.want)
		}
	}
	if got := u32(28); got != 2 {
		t.Errorf("mask_shape = %d, want 2", got)
	}
	if u32(32) != 640 || u32(36) != 480 {
		t.Errorf("image_size = (%d, %d), want (640, 480)", u32(32), u32(36))
	}
	if u32(40) != 0 || u32(44) != 0 {
		t.Error("padding must be zero")
	}
}

func TestMakeQuadUniformDefaults(t *testing.T) {
	buf := makeQuadUniform(photokit.DrawParams{}, 1, 1)
	scale := math.Float32frombits(binary.LittleEndian.Uint32(buf[16:]))
	aspect := math.Float32frombits(binary.LittleEndian.Uint32(buf[20:]))
	if scale != 1 || aspect != 1 {
		t.Errorf("zero params: scale=%v aspect=%v, want 1 and 1", scale, aspect)
	}
	if shape := binary.LittleEndian.Uint32(buf[28:]); shape != 0 {
		t.Errorf("mask_shape = %d, want 0", shape)
	}
}

func TestQuadPipelineDestroyIdempotent(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := buildPipeline(t, device, queue)
	if !p.Ready() {
		t.Fatal("pipeline not ready after Build")
	}
	p.Destroy()
	p.Destroy()
	if p.Ready() {
		t.Error("pipeline still ready after Destroy")
	}
}

func TestQuadPipelineEnsureTarget(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := buildPipeline(t, device, queue)
	defer p.Destroy()

	if err := p.EnsureTarget(64, 32); err != nil {
		t.Fatalf("EnsureTarget: %v", err)
	}
	if w, h := p.Size(); w != 64 || h != 32 {
		t.Errorf("Size = (%d, %d), want (64, 32)", w, h)
	}
	tex := p.targetTex
	if err := p.EnsureTarget(64, 32); err != nil {
		t.Fatalf("EnsureTarget (same size): %v", err)
	}
	if p.targetTex != tex {
		t.Error("same size must reuse the target")
	}
	if err := p.EnsureTarget(0, 0); err != nil {
		t.Fatalf("EnsureTarget(0, 0): %v", err)
	}
	if p.targetTex != nil {
		t.Error("zero size must release the target")
	}
}

func TestQuadPipelineDrawAndRead(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := buildPipeline(t, device, queue)
	defer p.Destroy()

	if err := p.EnsureTarget(16, 8); err != nil {
		t.Fatalf("EnsureTarget: %v", err)
	}

	img := photokit.NewPixmap(4, 4)
	img.Fill(color.NRGBA{R: 255, A: 255})
	if err := p.UploadImage(img); err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !p.HasImage() {
		t.Fatal("HasImage = false after upload")
	}

	params := photokit.DrawParams{
		HasTexture: true,
		FitScaleX:  2,
		FitScaleY:  1,
		Canvas:     photokit.IdentityCanvasTransform(),
		Mask:       photokit.MaskCircle,
		MaskRadius: photokit.DefaultMaskRadius,
		ViewAspect: 2,
	}
	if err := p.Draw(params); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	raw, err := p.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if len(raw) != 16*8*4 {
		t.Errorf("len(raw) = %d, want %d", len(raw), 16*8*4)
	}
}

func TestQuadPipelineDrawWithoutTarget(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := buildPipeline(t, device, queue)
	defer p.Destroy()

	if err := p.Draw(photokit.DrawParams{}); err == nil {
		t.Error("Draw without target should fail")
	}
	if _, err := p.ReadPixels(); err == nil {
		t.Error("ReadPixels without target should fail")
	}
}
