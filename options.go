// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package greenscreen

import (
	"image"

	"github.com/gogpu/greenscreen/convert"
	"github.com/gogpu/greenscreen/geometry"
	"github.com/gogpu/greenscreen/render"
)

// PipelineOption configures a Pipeline during creation.
// Use functional options to customize Pipeline behavior.
//
// Example:
//
//	// Default software compositing
//	p, err := greenscreen.New(1280, 720)
//
//	// Custom GPU program (dependency injection)
//	p, err := greenscreen.New(1280, 720, greenscreen.WithProgram(gpuProg))
type PipelineOption func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	program        render.Renderer
	converter      convert.Converter
	chroma         render.ChromaKey
	orientation    render.Orientation
	backgroundPath string
	background     image.Image
}

// defaultPipelineOptions returns the default pipeline options.
func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{
		program: nil, // Will be set to SoftwareProgram if nil
		chroma:  render.DefaultChromaKey(),
	}
}

// WithProgram sets a custom compositing program for the Pipeline.
// Use this for dependency injection of GPU or custom programs.
//
// Example:
//
//	prog, err := wgpu.NewProgram(wgpu.Config{Device: dev, Queue: queue})
//	if err == nil {
//	    p, err = greenscreen.New(1280, 720, greenscreen.WithProgram(prog))
//	}
func WithProgram(r render.Renderer) PipelineOption {
	return func(o *pipelineOptions) {
		o.program = r
	}
}

// WithConverter sets the camera pixel-format converter. The pipeline
// defaults to NV21, the common Android camera preview format; pass
// convert.I420{} for planar sources.
func WithConverter(c convert.Converter) PipelineOption {
	return func(o *pipelineOptions) {
		o.converter = c
	}
}

// WithChromaKey replaces the whole filter configuration.
func WithChromaKey(k render.ChromaKey) PipelineOption {
	return func(o *pipelineOptions) {
		o.chroma = k
	}
}

// WithKeyColor sets the keyed color as normalized RGB. The default key
// is pure green.
func WithKeyColor(r, g, b float32) PipelineOption {
	return func(o *pipelineOptions) {
		o.chroma.KeyColor = [3]float32{r, g, b}
	}
}

// WithTolerance sets the chroma distance at which foreground pixels
// start to show (sensitivity) and the width of the transition band
// (smoothing).
func WithTolerance(sensitivity, smoothing float32) PipelineOption {
	return func(o *pipelineOptions) {
		o.chroma.Sensitivity = sensitivity
		o.chroma.Smoothing = smoothing
	}
}

// WithBackground loads the background image from path, scaled and
// cropped to the output size. A failed load substitutes a solid
// error-color image and logs a warning, matching SetBackground.
func WithBackground(path string) PipelineOption {
	return func(o *pipelineOptions) {
		o.backgroundPath = path
		o.background = nil
	}
}

// WithBackgroundImage uses an already-decoded background image, scaled
// and cropped to the output size.
func WithBackgroundImage(img image.Image) PipelineOption {
	return func(o *pipelineOptions) {
		o.background = img
		o.backgroundPath = ""
	}
}

// WithRotation sets the initial frame rotation.
func WithRotation(r geometry.Rotation) PipelineOption {
	return func(o *pipelineOptions) {
		o.orientation.Rotation = r
	}
}

// WithFlip sets the initial horizontal/vertical frame mirroring.
func WithFlip(horizontal, vertical bool) PipelineOption {
	return func(o *pipelineOptions) {
		o.orientation.FlipHorizontal = horizontal
		o.orientation.FlipVertical = vertical
	}
}

// WithScaleType sets how frames fill the viewport: center-crop
// (default) or fit.
func WithScaleType(s geometry.ScaleType) PipelineOption {
	return func(o *pipelineOptions) {
		o.orientation.Scale = s
	}
}
