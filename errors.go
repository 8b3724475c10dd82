package photokit

import "errors"

// Errors returned by the photokit pipeline.
var (
	// ErrInvalidImage is returned for images with zero dimensions, pixel
	// buffers that do not match their dimensions, or undecodable input.
	// The renderer recovers locally by keeping the previous texture.
	ErrInvalidImage = errors.New("photokit: invalid image")

	// ErrCaptureFailure is delivered to a capture callback when the
	// framebuffer read returned fewer bytes than the viewport requires.
	// No partial image is delivered.
	ErrCaptureFailure = errors.New("photokit: capture failed")

	// ErrShaderCompile is returned from NewRenderer when the backend cannot
	// build its program. There is no fallback rendering path.
	ErrShaderCompile = errors.New("photokit: shader compilation failed")

	// ErrRendererClosed is returned when operating on a closed renderer.
	ErrRendererClosed = errors.New("photokit: renderer is closed")

	// ErrUnknownBackend is returned when a backend name is not registered.
	ErrUnknownBackend = errors.New("photokit: unknown backend")

	// ErrNoViewport is returned when capturing before the surface was sized.
	ErrNoViewport = errors.New("photokit: viewport has no size")

	// ErrEmptyText is returned when rendering a text sticker with no glyphs.
	ErrEmptyText = errors.New("photokit: empty text")
)
