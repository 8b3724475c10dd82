package photokit

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // decode only
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// DefaultMaxTextureSize bounds the longer side of a loaded image.
const DefaultMaxTextureSize = 4096

// DefaultJPEGQuality is the quality used for JPEG export.
const DefaultJPEGQuality = 90

// ExportFormat is the encoding used when exporting a frame.
type ExportFormat uint8

const (
	// FormatPNG keeps transparency, so masked-out pixels stay transparent.
	FormatPNG ExportFormat = iota
	// FormatJPEG flattens the frame onto white.
	FormatJPEG
)

func (f ExportFormat) String() string {
	if f == FormatJPEG {
		return "jpeg"
	}
	return "png"
}

// Ext returns the conventional file extension, including the dot.
func (f ExportFormat) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// ParseExportFormat accepts a format name or a file name with a known
// extension.
func ParseExportFormat(s string) (ExportFormat, error) {
	name := strings.ToLower(s)
	if ext := filepath.Ext(name); ext != "" {
		name = ext[1:]
	}
	switch name {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	default:
		return FormatPNG, fmt.Errorf("photokit: unsupported export format %q", s)
	}
}

// DecodeImage decodes a PNG, JPEG or GIF stream into a Pixmap. Images whose
// longer side exceeds maxSize are downscaled with Lanczos resampling,
// preserving the aspect ratio. maxSize <= 0 disables downscaling.
func DecodeImage(r io.Reader, maxSize int) (*Pixmap, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %s image has no pixels", ErrInvalidImage, format)
	}

	if maxSize > 0 && (b.Dx() > maxSize || b.Dy() > maxSize) {
		img = resize.Thumbnail(uint(maxSize), uint(maxSize), img, resize.Lanczos3)
		Logger().Debug("photokit: image downscaled",
			"from", b.Size(), "to", img.Bounds().Size(), "format", format)
	}
	return FromImage(img), nil
}

// DecodeImageBytes decodes an in-memory PNG, JPEG or GIF.
func DecodeImageBytes(data []byte, maxSize int) (*Pixmap, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidImage)
	}
	return DecodeImage(bytes.NewReader(data), maxSize)
}

// EncodeImage writes img in the given format. quality applies to JPEG and
// is clamped to [1, 100]; 0 selects DefaultJPEGQuality.
func EncodeImage(w io.Writer, img *Pixmap, format ExportFormat, quality int) error {
	if img.IsEmpty() {
		return ErrInvalidImage
	}
	switch format {
	case FormatJPEG:
		if quality == 0 {
			quality = DefaultJPEGQuality
		}
		quality = clampInt(quality, 1, 100)
		if err := jpeg.Encode(w, flatten(img, color.White), &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("photokit: encode jpeg: %w", err)
		}
	default:
		if err := png.Encode(w, img.ToImage()); err != nil {
			return fmt.Errorf("photokit: encode png: %w", err)
		}
	}
	return nil
}

// flatten composites img over an opaque background.
func flatten(img *Pixmap, bg color.Color) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Rect, img.ToImage(), image.Point{}, draw.Over)
	return out
}
