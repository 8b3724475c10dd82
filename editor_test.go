package photokit

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"
)

func newTestEditor(t *testing.T, opts ...EditorOption) *Editor {
	t.Helper()
	e, err := NewEditor(opts...)
	if err != nil {
		t.Fatalf("NewEditor: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("callback never ran")
		return nil
	}
}

func encodePNG(t *testing.T, p *Pixmap) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.ToImage()); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestEditorSelectTool(t *testing.T) {
	e := newTestEditor(t)
	var echoed []MaskShape
	e.OnShapeSelected(func(s MaskShape) { echoed = append(echoed, s) })

	tests := []struct {
		id      int
		want    MaskShape
		wantErr bool
	}{
		{ToolCircle, MaskCircle, false},
		{ToolSquare, MaskSquare, false},
		{999, MaskSquare, true},
		{ToolShapeReset, MaskNone, false},
	}
	for _, tt := range tests {
		got, err := e.SelectTool(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("SelectTool(%d) err = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
		if got != tt.want || e.Shape() != tt.want {
			t.Errorf("SelectTool(%d) = %v (Shape %v), want %v", tt.id, got, e.Shape(), tt.want)
		}
	}
	want := []MaskShape{MaskCircle, MaskSquare, MaskNone}
	if len(echoed) != len(want) {
		t.Fatalf("echoed %v, want %v", echoed, want)
	}
	for i := range want {
		if echoed[i] != want[i] {
			t.Errorf("echo %d = %v, want %v", i, echoed[i], want[i])
		}
	}
}

func TestEditorLoadAndExport(t *testing.T) {
	e := newTestEditor(t, WithJPEGQuality(80))
	_ = e.Resize(10, 10)

	loaded := make(chan error, 1)
	e.LoadImage(bytes.NewReader(encodePNG(t, solidPixmap(6, 6, green))), func(err error) { loaded <- err })
	if err := waitErr(t, loaded); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if _, err := e.SelectTool(ToolCircle); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	exported := make(chan error, 1)
	e.Export(&out, FormatPNG, func(err error) { exported <- err })
	if err := waitErr(t, exported); err != nil {
		t.Fatalf("Export: %v", err)
	}

	img, err := png.Decode(&out)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 10, 10) {
		t.Fatalf("export bounds = %v", img.Bounds())
	}
	p := FromImage(img)
	if got := p.Pixel(5, 5); got != green {
		t.Errorf("centre = %v, want green", got)
	}
	if got := p.Pixel(0, 0); got.A != 0 {
		t.Errorf("corner = %v, want transparent outside the circle", got)
	}
}

func TestEditorExportWithOverlay(t *testing.T) {
	e := newTestEditor(t)
	_ = e.Resize(20, 20)
	if err := e.SetImage(solidPixmap(4, 4, green)); err != nil {
		t.Fatal(err)
	}
	e.SetOverlays(Overlay{
		Image:     solidPixmap(4, 4, red),
		Transform: OverlayTransform{Scale: 1, PositionX: 10, PositionY: 10},
	})

	var out bytes.Buffer
	done := make(chan error, 1)
	e.Export(&out, FormatPNG, func(err error) { done <- err })
	if err := waitErr(t, done); err != nil {
		t.Fatalf("Export: %v", err)
	}
	p, err := DecodeImage(&out, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Pixel(10, 10); !isRed(got) {
		t.Errorf("sticker pixel = %v, want red", got)
	}
	if got := p.Pixel(2, 2); got != green {
		t.Errorf("photo pixel = %v, want green", got)
	}
}

func TestEditorLoadInvalid(t *testing.T) {
	e := newTestEditor(t)
	done := make(chan error, 1)
	e.LoadImage(bytes.NewReader([]byte("nope")), func(err error) { done <- err })
	if err := waitErr(t, done); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("err = %v, want ErrInvalidImage", err)
	}
	if err := e.SetImage(NewPixmap(0, 0)); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("SetImage(empty) = %v, want ErrInvalidImage", err)
	}
}

func TestEditorGestureDrivesRenderer(t *testing.T) {
	e := newTestEditor(t)
	ms := time.Millisecond
	e.HandlePointer(down(0, 100, 100, 0))
	e.HandlePointer(move(10*ms, Pointer{ID: 0, X: 200, Y: 100}))
	e.HandlePointer(up(0, 200, 100, 20*ms))

	if got := e.Renderer().Transform().TranslateX; !near(got, 0.2) {
		t.Errorf("renderer TranslateX = %v, want 0.2", got)
	}
	if got := e.Gesture().Transform().TranslateX; !near(got, 0.2) {
		t.Errorf("gesture TranslateX = %v, want 0.2", got)
	}

	if err := e.SetImage(solidPixmap(2, 2, red)); err != nil {
		t.Fatal(err)
	}
	if got := e.Gesture().Transform(); got != IdentityCanvasTransform() {
		t.Errorf("gesture transform after SetImage = %+v, want identity", got)
	}
}

func TestEditorAfterClose(t *testing.T) {
	e, err := NewEditor(WithWorkers(1), WithUIDispatcher(nil), WithMaxTextureSize(0))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	loaded := make(chan error, 1)
	e.LoadImage(bytes.NewReader(nil), func(err error) { loaded <- err })
	if err := waitErr(t, loaded); !errors.Is(err, errPoolClosed) {
		t.Errorf("LoadImage after Close err = %v, want errPoolClosed", err)
	}

	exported := make(chan error, 1)
	e.Export(&bytes.Buffer{}, FormatPNG, func(err error) { exported <- err })
	if err := waitErr(t, exported); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("Export after Close err = %v, want ErrRendererClosed", err)
	}
}

func TestNewEditorPropagatesRendererError(t *testing.T) {
	_, err := NewEditor(WithRendererOptions(WithBackend("no-such-backend")))
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestEditorGestureOptions(t *testing.T) {
	e := newTestEditor(t, WithGestureOptions(WithDragDivisor(100)))
	e.Gesture().OnDrag(10, 0)
	if got := e.Renderer().Transform().TranslateX; !near(got, 0.1) {
		t.Errorf("TranslateX = %v, want 0.1", got)
	}
}
