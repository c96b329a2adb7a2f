// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
)

// Sentinel errors returned by the render pipeline.
var (
	// ErrNotInitialized is returned when a pipeline operation runs
	// before the program is bound or after it has been disposed.
	ErrNotInitialized = errors.New("render: program not initialized")

	// ErrInvalidFrameData is returned when pixel data does not match
	// the declared frame dimensions.
	ErrInvalidFrameData = errors.New("render: pixel data does not match frame dimensions")

	// ErrCaptureInProgress is returned by RequestStillCapture while a
	// previous capture has not yet delivered its result.
	ErrCaptureInProgress = errors.New("render: still capture already in progress")
)

// TextureHandle identifies a texture owned by a Context.
type TextureHandle int32

// NoTexture is the zero value for texture slots that hold no texture.
const NoTexture TextureHandle = -1

// ChromaKey configures the compositing filter: which color keys out of
// the foreground and what replaces it.
type ChromaKey struct {
	// KeyColor is the RGB color removed from the foreground, each
	// channel in [0, 1].
	KeyColor [3]float32

	// Sensitivity is the chroma distance below which a pixel is fully
	// replaced by the background.
	Sensitivity float32

	// Smoothing widens the band over which foreground and background
	// are blended. Sensitivity+Smoothing is full foreground.
	Smoothing float32

	// Background is composited where the key color is removed. It is
	// sampled at output resolution; nil composites against black.
	Background *image.RGBA
}

// DefaultChromaKey returns the filter configuration used when the
// caller supplies none: pure green keyed out with the stock thresholds.
func DefaultChromaKey() ChromaKey {
	return ChromaKey{
		KeyColor:    [3]float32{0, 1, 0},
		Sensitivity: 0.4,
		Smoothing:   0.1,
	}
}

// Program is the compositing filter. Implementations own the pipeline
// state needed to draw one textured quad through the chroma-key blend.
//
// Programs are not safe for concurrent use; the Scheduler calls them
// from the render goroutine only.
type Program interface {
	// Init prepares pipeline state. It must be called once before the
	// first Draw; calling it again is a no-op.
	Init() error

	// SetOutputSize sets the viewport the program composites into.
	SetOutputSize(width, height int)

	// SetChromaKey replaces the filter configuration.
	SetChromaKey(ChromaKey)

	// Draw composites the texture mapped by quad and uv (triangle
	// strips of 4 vertices, x/y and u/v pairs) onto the output.
	Draw(tex TextureHandle, quad, uv [8]float32) error

	// Release frees pipeline state. The program may be re-initialized
	// with Init afterwards.
	Release()
}

// Context manages textures and the output target that persist across
// program rebinds.
type Context interface {
	// Clear resets the output target to opaque black.
	Clear()

	// LoadTexture uploads width*height packed RGBA pixels. When reuse
	// names an existing texture its storage is reused; pass NoTexture
	// to allocate. Returns the handle holding the pixels.
	LoadTexture(pix []byte, width, height int, reuse TextureHandle) (TextureHandle, error)

	// DeleteTexture frees a texture. Unknown handles are ignored.
	DeleteTexture(TextureHandle)

	// ReadPixels returns the current output target contents.
	ReadPixels() (*image.RGBA, error)
}

// Renderer combines the compositing program with the texture context it
// draws against. Both provided implementations satisfy it.
type Renderer interface {
	Program
	Context
}
