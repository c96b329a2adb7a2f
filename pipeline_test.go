// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package greenscreen

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/greenscreen/geometry"
	"github.com/gogpu/greenscreen/render"
)

func solidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func newTestPipeline(t *testing.T, opts ...PipelineOption) *Pipeline {
	t.Helper()
	p, err := New(4, 4, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(p.Dispose)
	return p
}

// captureThrough requests a capture and runs the two ticks needed to
// deliver it, returning the composited image.
func captureThrough(t *testing.T, p *Pipeline, img *image.RGBA) *image.RGBA {
	t.Helper()
	var got CaptureResult
	fired := false
	_, err := p.RequestStillCapture(img, func(res CaptureResult) {
		got = res
		fired = true
	})
	if err != nil {
		t.Fatalf("RequestStillCapture() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := p.OnDrawTick(); err != nil {
			t.Fatalf("OnDrawTick() #%d error = %v", i+1, err)
		}
	}
	if !fired {
		t.Fatal("capture callback did not fire after two ticks")
	}
	if got.Err != nil {
		t.Fatalf("capture result error = %v", got.Err)
	}
	if got.Image == nil {
		t.Fatal("capture result image is nil")
	}
	return got.Image
}

func TestPipelinePreviewTick(t *testing.T) {
	p := newTestPipeline(t)

	// Default converter is NV21: w*h luma + w*h/2 chroma.
	frame := make([]byte, 4*4*3/2)
	if err := p.OnFrame(frame, 4, 4); err != nil {
		t.Fatalf("OnFrame() error = %v", err)
	}
	if err := p.OnDrawTick(); err != nil {
		t.Fatalf("OnDrawTick() error = %v", err)
	}
	if got := p.Mode(); got != render.ModePreview {
		t.Errorf("Mode() = %v, want ModePreview", got)
	}
}

func TestPipelineOnFrameValidation(t *testing.T) {
	p := newTestPipeline(t)

	if err := p.OnFrame(make([]byte, 3), 4, 4); !errors.Is(err, render.ErrInvalidFrameData) {
		t.Errorf("OnFrame(short) error = %v, want ErrInvalidFrameData", err)
	}
	if err := p.OnFrame(nil, 0, 0); !errors.Is(err, render.ErrInvalidFrameData) {
		t.Errorf("OnFrame(empty) error = %v, want ErrInvalidFrameData", err)
	}
}

func TestPipelineCaptureCompositesBackground(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	p := newTestPipeline(t, WithBackgroundImage(solidImage(8, 8, blue)))

	out := captureThrough(t, p, solidImage(4, 4, color.RGBA{G: 255, A: 255}))
	if got := out.RGBAAt(2, 2); got != blue {
		t.Errorf("keyed pixel = %v, want background %v", got, blue)
	}
}

func TestPipelineKeyColorChange(t *testing.T) {
	p := newTestPipeline(t)
	p.SetKeyColor(1, 0, 0)

	// Red is now the key; with no background the keyed area is black.
	out := captureThrough(t, p, solidImage(4, 4, color.RGBA{R: 255, A: 255}))
	want := color.RGBA{A: 255}
	if got := out.RGBAAt(2, 2); got != want {
		t.Errorf("keyed pixel = %v, want %v", got, want)
	}

	// Green no longer matches the key and passes through.
	out = captureThrough(t, p, solidImage(4, 4, color.RGBA{G: 255, A: 255}))
	want = color.RGBA{G: 255, A: 255}
	if got := out.RGBAAt(2, 2); got != want {
		t.Errorf("non-key pixel = %v, want %v", got, want)
	}
}

func TestPipelineBackgroundLoadFailure(t *testing.T) {
	p := newTestPipeline(t)
	p.SetBackground("testdata/does-not-exist.png")

	out := captureThrough(t, p, solidImage(4, 4, color.RGBA{G: 255, A: 255}))
	want := color.RGBA{R: 255, B: 255, A: 255}
	if got := out.RGBAAt(2, 2); got != want {
		t.Errorf("keyed pixel = %v, want error color %v", got, want)
	}
}

func TestPipelineSettersApply(t *testing.T) {
	p := newTestPipeline(t)

	p.SetRotation(geometry.Rotation90)
	p.SetFlip(true, false)
	p.SetScaleType(geometry.ScaleFit)
	p.SetTolerance(0.2, 0.05)
	p.SetOutputSize(8, 8)

	if err := p.OnDrawTick(); err != nil {
		t.Fatalf("OnDrawTick() after setters error = %v", err)
	}

	out := captureThrough(t, p, solidImage(4, 4, color.RGBA{G: 255, A: 255}))
	if got := out.Rect.Dx(); got != 8 {
		t.Errorf("capture width = %d, want 8 after resize", got)
	}
}

func TestPipelineDispose(t *testing.T) {
	p, err := New(4, 4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p.Dispose()
	p.Dispose() // idempotent

	if err := p.OnFrame(make([]byte, 4*4*3/2), 4, 4); !errors.Is(err, render.ErrNotInitialized) {
		t.Errorf("OnFrame after Dispose error = %v, want ErrNotInitialized", err)
	}
	if err := p.OnDrawTick(); !errors.Is(err, render.ErrNotInitialized) {
		t.Errorf("OnDrawTick after Dispose error = %v, want ErrNotInitialized", err)
	}
}

func TestSetLoggerSafe(t *testing.T) {
	p := newTestPipeline(t)
	_ = p

	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() = nil, want nop logger")
	}
}
