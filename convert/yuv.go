// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package convert turns planar camera pixel formats into the packed RGBA
// the compositing programs consume.
//
// Camera preview frames arrive as NV21 (the Android camera default) or
// I420. Both carry a full-resolution luma plane followed by chroma
// subsampled 2x2; the conversion uses integer BT.601 coefficients so a
// frame converts without allocations beyond the destination buffer.
package convert

import (
	"errors"
	"fmt"
)

// ErrFrameSize is returned when the source buffer does not match the
// byte length implied by the frame dimensions and format.
var ErrFrameSize = errors.New("convert: pixel data does not match frame dimensions")

// Converter converts one camera pixel format to packed RGBA.
//
// Convert writes width*height*4 bytes into dst. dst must be sized by the
// caller; a short dst or a src that does not match the format's expected
// length fails with ErrFrameSize and leaves dst untouched.
type Converter interface {
	// Convert converts src into dst as packed RGBA.
	Convert(src []byte, width, height int, dst []byte) error

	// FrameSize returns the expected source length for the dimensions.
	FrameSize(width, height int) int
}

// NV21 converts NV21 frames: a width*height Y plane followed by an
// interleaved VU plane at quarter resolution.
type NV21 struct{}

// FrameSize returns the expected NV21 byte length for the dimensions.
func (NV21) FrameSize(width, height int) int {
	return width*height + 2*((width+1)/2)*((height+1)/2)
}

// Convert converts an NV21 frame to packed RGBA.
func (c NV21) Convert(src []byte, width, height int, dst []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, width, height)
	}
	if len(src) < c.FrameSize(width, height) || len(dst) < width*height*4 {
		return fmt.Errorf("%w: src %d bytes, dst %d bytes for %dx%d",
			ErrFrameSize, len(src), len(dst), width, height)
	}

	chromaW := (width + 1) / 2
	yPlane := src[:width*height]
	vuPlane := src[width*height:]

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			y := int(yPlane[row*width+col])
			vu := (row/2)*chromaW*2 + (col/2)*2
			v := int(vuPlane[vu])
			u := int(vuPlane[vu+1])
			writeRGBA(dst, (row*width+col)*4, y, u, v)
		}
	}
	return nil
}

// I420 converts I420 frames: a width*height Y plane followed by separate
// U and V planes at quarter resolution.
type I420 struct{}

// FrameSize returns the expected I420 byte length for the dimensions.
func (I420) FrameSize(width, height int) int {
	return width*height + 2*((width+1)/2)*((height+1)/2)
}

// Convert converts an I420 frame to packed RGBA.
func (c I420) Convert(src []byte, width, height int, dst []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, width, height)
	}
	if len(src) < c.FrameSize(width, height) || len(dst) < width*height*4 {
		return fmt.Errorf("%w: src %d bytes, dst %d bytes for %dx%d",
			ErrFrameSize, len(src), len(dst), width, height)
	}

	chromaW := (width + 1) / 2
	chromaH := (height + 1) / 2
	yPlane := src[:width*height]
	uPlane := src[width*height : width*height+chromaW*chromaH]
	vPlane := src[width*height+chromaW*chromaH:]

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			y := int(yPlane[row*width+col])
			ci := (row/2)*chromaW + col/2
			u := int(uPlane[ci])
			v := int(vPlane[ci])
			writeRGBA(dst, (row*width+col)*4, y, u, v)
		}
	}
	return nil
}

// writeRGBA converts one BT.601 limited-range YUV sample and stores it
// as opaque RGBA at dst[off:off+4].
func writeRGBA(dst []byte, off, y, u, v int) {
	c := y - 16
	if c < 0 {
		c = 0
	}
	d := u - 128
	e := v - 128

	r := (298*c + 409*e + 128) >> 8
	g := (298*c - 100*d - 208*e + 128) >> 8
	b := (298*c + 516*d + 128) >> 8

	dst[off+0] = clamp8(r)
	dst[off+1] = clamp8(g)
	dst[off+2] = clamp8(b)
	dst[off+3] = 255
}

func clamp8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Compile-time interface checks.
var (
	_ Converter = NV21{}
	_ Converter = I420{}
)
