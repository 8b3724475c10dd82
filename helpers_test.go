package photokit

import (
	"errors"
	"image/color"
	"log/slog"
	"sync"
)

// fakeBackend records what the renderer asks of it. Frames are produced by
// an embedded SoftwareBackend so captures carry real pixels.
type fakeBackend struct {
	*SoftwareBackend

	mu       sync.Mutex
	logger   *slog.Logger
	draws    []DrawParams
	uploads  int
	closed   int
	drawErr  error
	readErr  error
	initErr  error
	provider any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{SoftwareBackend: NewSoftwareBackend()}
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) SetLogger(l *slog.Logger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logger = l
}

func (f *fakeBackend) loggerSet() *slog.Logger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logger
}

func (f *fakeBackend) Init() error {
	if f.initErr != nil {
		return f.initErr
	}
	return f.SoftwareBackend.Init()
}

func (f *fakeBackend) Upload(img *Pixmap) error {
	f.mu.Lock()
	f.uploads++
	f.mu.Unlock()
	return f.SoftwareBackend.Upload(img)
}

func (f *fakeBackend) Draw(p DrawParams) error {
	f.mu.Lock()
	f.draws = append(f.draws, p)
	err := f.drawErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.SoftwareBackend.Draw(p)
}

func (f *fakeBackend) ReadPixels() ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.SoftwareBackend.ReadPixels()
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return f.SoftwareBackend.Close()
}

func (f *fakeBackend) lastDraw() DrawParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.draws) == 0 {
		return DrawParams{}
	}
	return f.draws[len(f.draws)-1]
}

// deviceAwareBackend accepts a device provider.
type deviceAwareBackend struct {
	*fakeBackend
	rejectProvider bool
}

func (d *deviceAwareBackend) SetDeviceProvider(p any) error {
	if d.rejectProvider {
		return errors.New("provider rejected")
	}
	d.provider = p
	return nil
}

func solidPixmap(w, h int, c color.NRGBA) *Pixmap {
	p := NewPixmap(w, h)
	p.Fill(c)
	return p
}
