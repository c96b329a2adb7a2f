// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geometry computes the screen quad and texture coordinates used
// to map a camera frame or capture image onto the output viewport.
//
// All functions are pure: the same inputs always produce the same quad
// and UV buffers, so callers can cache results and recompute only when
// rotation, flips, scale type, or dimensions change.
package geometry

import "math"

// Rotation describes the clockwise rotation applied to the source image
// before it is mapped onto the output viewport.
type Rotation int

const (
	// RotationNormal applies no rotation.
	RotationNormal Rotation = iota

	// Rotation90 rotates the image 90 degrees clockwise.
	Rotation90

	// Rotation180 rotates the image 180 degrees.
	Rotation180

	// Rotation270 rotates the image 270 degrees clockwise.
	Rotation270
)

// String returns a human-readable rotation description.
func (r Rotation) String() string {
	switch r {
	case RotationNormal:
		return "normal"
	case Rotation90:
		return "90"
	case Rotation180:
		return "180"
	case Rotation270:
		return "270"
	default:
		return "unknown"
	}
}

// Transposed reports whether the rotation swaps the effective output
// width and height for aspect-ratio computation.
func (r Rotation) Transposed() bool {
	return r == Rotation90 || r == Rotation270
}

// ScaleType selects how an image with a different aspect ratio than the
// output viewport is fitted.
type ScaleType int

const (
	// ScaleCenterCrop scales to fill the viewport and crops the excess.
	ScaleCenterCrop ScaleType = iota

	// ScaleFit scales to fit entirely inside the viewport,
	// letterboxing or pillarboxing the remainder.
	ScaleFit
)

// String returns a human-readable scale type description.
func (s ScaleType) String() string {
	switch s {
	case ScaleCenterCrop:
		return "center-crop"
	case ScaleFit:
		return "fit"
	default:
		return "unknown"
	}
}

// Quad is the full-screen quad in normalized device coordinates,
// as a triangle strip of 4 vertices (x, y pairs).
var Quad = [8]float32{
	-1, 1,
	-1, -1,
	1, 1,
	1, -1,
}

// Base texture coordinates for each rotation, matching the vertex order
// of Quad. Flips are applied per axis on top of these tables.
var (
	texNoRotation = [8]float32{
		0, 1,
		1, 1,
		0, 0,
		1, 0,
	}
	texRotated90 = [8]float32{
		1, 1,
		1, 0,
		0, 1,
		0, 0,
	}
	texRotated180 = [8]float32{
		1, 0,
		0, 0,
		1, 1,
		0, 1,
	}
	texRotated270 = [8]float32{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
	}
)

// BaseUV returns the texture coordinates for the given rotation with
// optional horizontal and vertical flips applied.
func BaseUV(rotation Rotation, flipHorizontal, flipVertical bool) [8]float32 {
	var uv [8]float32
	switch rotation {
	case Rotation90:
		uv = texRotated90
	case Rotation180:
		uv = texRotated180
	case Rotation270:
		uv = texRotated270
	default:
		uv = texNoRotation
	}
	if flipHorizontal {
		for i := 0; i < 8; i += 2 {
			uv[i] = flip(uv[i])
		}
	}
	if flipVertical {
		for i := 1; i < 8; i += 2 {
			uv[i] = flip(uv[i])
		}
	}
	return uv
}

// flip mirrors a unit texture coordinate.
func flip(c float32) float32 {
	if c == 0 {
		return 1
	}
	return 0
}

// Compute returns the screen quad and texture coordinate buffers for
// mapping an imageWidth x imageHeight source onto an
// outputWidth x outputHeight viewport.
//
// For ScaleCenterCrop the quad stays full-screen and the UVs are inset
// so the viewport is filled and the overflow cropped. For ScaleFit the
// UVs stay at the base rotation values and the quad is shrunk,
// letterboxing or pillarboxing the difference.
//
// Rotations of 90 and 270 degrees compute ratios against the transposed
// viewport, since the rotated content fills the swapped dimensions.
//
// Degenerate inputs (any dimension <= 0) return the full-screen quad
// with the base UVs.
func Compute(outputWidth, outputHeight, imageWidth, imageHeight int,
	rotation Rotation, flipHorizontal, flipVertical bool, scaleType ScaleType) (quad, uv [8]float32) {

	quad = Quad
	uv = BaseUV(rotation, flipHorizontal, flipVertical)

	if outputWidth <= 0 || outputHeight <= 0 || imageWidth <= 0 || imageHeight <= 0 {
		return quad, uv
	}

	outW := float32(outputWidth)
	outH := float32(outputHeight)
	if rotation.Transposed() {
		outW, outH = outH, outW
	}

	ratioMax := max32(outW/float32(imageWidth), outH/float32(imageHeight))
	scaledW := float32(math.Round(float64(float32(imageWidth) * ratioMax)))
	scaledH := float32(math.Round(float64(float32(imageHeight) * ratioMax)))

	ratioWidth := scaledW / outW
	ratioHeight := scaledH / outH

	if scaleType == ScaleCenterCrop {
		distHorizontal := (1 - 1/ratioWidth) / 2
		distVertical := (1 - 1/ratioHeight) / 2
		for i := 0; i < 8; i += 2 {
			uv[i] = addDistance(uv[i], distHorizontal)
			uv[i+1] = addDistance(uv[i+1], distVertical)
		}
		return quad, uv
	}

	// Fit: shrink the quad instead of cropping the texture. The axes
	// are swapped on purpose: x shrinks by ratioHeight, y by
	// ratioWidth.
	for i := 0; i < 8; i += 2 {
		quad[i] = Quad[i] / ratioHeight
		quad[i+1] = Quad[i+1] / ratioWidth
	}
	return quad, uv
}

// addDistance insets a unit texture coordinate by distance, preserving
// which side of the texture the coordinate addresses: a coordinate at 0
// moves inward to distance, any other coordinate moves to 1 - distance.
func addDistance(coordinate, distance float32) float32 {
	if coordinate == 0 {
		return distance
	}
	return 1 - distance
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
