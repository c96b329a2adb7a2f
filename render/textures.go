// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/greenscreen/geometry"
)

// Orientation describes how incoming frames are mapped onto the output
// viewport.
type Orientation struct {
	Rotation       geometry.Rotation
	FlipHorizontal bool
	FlipVertical   bool
	Scale          geometry.ScaleType
}

// slot holds one texture together with the geometry that maps it onto
// the viewport. Geometry is recomputed lazily when the slot is marked
// dirty by an upload, a viewport resize, or an orientation change.
type slot struct {
	handle TextureHandle

	// Allocated texture dimensions. May differ from the image
	// dimensions when the upload was padded.
	texWidth, texHeight int

	// Source image dimensions used for aspect-ratio geometry.
	imageWidth, imageHeight int

	quad, uv [8]float32
	dirty    bool
}

// Textures owns the preview and capture texture slots. It reuses
// texture storage across uploads of the same size and reallocates when
// dimensions change. Confined to the render goroutine.
type Textures struct {
	ctx Context

	outputWidth, outputHeight int
	orientation               Orientation

	preview slot
	capture slot
}

// NewTextures returns texture slots backed by ctx.
func NewTextures(ctx Context) *Textures {
	t := &Textures{ctx: ctx}
	t.preview.handle = NoTexture
	t.capture.handle = NoTexture
	t.preview.dirty = true
	t.capture.dirty = true
	return t
}

// SetOutputSize sets the viewport both slots compute geometry against.
func (t *Textures) SetOutputSize(width, height int) {
	if t.outputWidth == width && t.outputHeight == height {
		return
	}
	t.outputWidth, t.outputHeight = width, height
	t.preview.dirty = true
	t.capture.dirty = true
}

// SetOrientation sets the rotation, flips, and scale type applied to
// both slots.
func (t *Textures) SetOrientation(o Orientation) {
	if t.orientation == o {
		return
	}
	t.orientation = o
	t.preview.dirty = true
	t.capture.dirty = true
}

// Orientation returns the current frame orientation.
func (t *Textures) Orientation() Orientation { return t.orientation }

// UploadPreview uploads a packed RGBA camera frame into the preview
// slot. pix must hold exactly width*height*4 bytes.
func (t *Textures) UploadPreview(pix []byte, width, height int) error {
	return t.upload(&t.preview, pix, width, height)
}

// UploadCapture uploads a packed RGBA still image into the capture
// slot. Odd-width images are padded with one transparent column so the
// texture width is even; geometry is still computed from the unpadded
// width, matching the capture path's established output.
func (t *Textures) UploadCapture(pix []byte, width, height int) error {
	if width > 0 && width%2 != 0 {
		if len(pix) != width*height*4 {
			return ErrInvalidFrameData
		}
		padded := make([]byte, (width+1)*height*4)
		for row := 0; row < height; row++ {
			copy(padded[row*(width+1)*4:], pix[row*width*4:(row+1)*width*4])
		}
		if err := t.upload(&t.capture, padded, width+1, height); err != nil {
			return err
		}
		t.capture.imageWidth = width
		t.capture.dirty = true
		return nil
	}
	return t.upload(&t.capture, pix, width, height)
}

func (t *Textures) upload(s *slot, pix []byte, width, height int) error {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return ErrInvalidFrameData
	}

	reuse := s.handle
	if reuse != NoTexture && (s.texWidth != width || s.texHeight != height) {
		t.ctx.DeleteTexture(reuse)
		reuse = NoTexture
	}

	handle, err := t.ctx.LoadTexture(pix, width, height, reuse)
	if err != nil {
		return err
	}
	if s.imageWidth != width || s.imageHeight != height {
		s.dirty = true
	}
	s.handle = handle
	s.texWidth, s.texHeight = width, height
	s.imageWidth, s.imageHeight = width, height
	return nil
}

// Preview returns the preview texture and its geometry, recomputing the
// geometry if it is stale. The handle is NoTexture until the first
// successful upload.
func (t *Textures) Preview() (TextureHandle, [8]float32, [8]float32) {
	t.refresh(&t.preview)
	return t.preview.handle, t.preview.quad, t.preview.uv
}

// Capture returns the capture texture and its geometry, recomputing the
// geometry if it is stale.
func (t *Textures) Capture() (TextureHandle, [8]float32, [8]float32) {
	t.refresh(&t.capture)
	return t.capture.handle, t.capture.quad, t.capture.uv
}

func (t *Textures) refresh(s *slot) {
	if !s.dirty {
		return
	}
	o := t.orientation
	s.quad, s.uv = geometry.Compute(
		t.outputWidth, t.outputHeight,
		s.imageWidth, s.imageHeight,
		o.Rotation, o.FlipHorizontal, o.FlipVertical, o.Scale,
	)
	s.dirty = false
}

// ReleaseAll frees both textures. Safe to call more than once.
func (t *Textures) ReleaseAll() {
	for _, s := range []*slot{&t.preview, &t.capture} {
		if s.handle != NoTexture {
			t.ctx.DeleteTexture(s.handle)
			s.handle = NoTexture
		}
		s.texWidth, s.texHeight = 0, 0
		s.imageWidth, s.imageHeight = 0, 0
		s.dirty = true
	}
}
