// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command greenscreen-demo composites a synthetic green-screen frame
// over a gradient background and saves the result as PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"

	"github.com/gogpu/greenscreen"
)

func main() {
	var (
		width  = flag.Int("width", 800, "output width")
		height = flag.Int("height", 600, "output height")
		output = flag.String("output", "composite.png", "output file")
		ticks  = flag.Int("ticks", 5, "preview ticks to run before capture")
	)
	flag.Parse()

	pipeline, err := greenscreen.New(*width, *height,
		greenscreen.WithBackgroundImage(gradientBackground(*width, *height)),
	)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}
	defer pipeline.Dispose()

	// Feed the preview path with NV21 frames, the format a camera
	// source would deliver.
	subject := subjectFrame(*width, *height)
	nv21 := rgbaToNV21(subject)
	for i := 0; i < *ticks; i++ {
		if err := pipeline.OnFrame(nv21, *width, *height); err != nil {
			log.Fatalf("Frame rejected: %v", err)
		}
		if err := pipeline.OnDrawTick(); err != nil {
			log.Fatalf("Draw tick failed: %v", err)
		}
	}

	// Still capture: composited result arrives via callback on the
	// tick after the upload tick.
	var composite *image.RGBA
	id, err := pipeline.RequestStillCapture(subject, func(res greenscreen.CaptureResult) {
		if res.Err != nil {
			log.Fatalf("Capture %s failed: %v", res.ID, res.Err)
		}
		composite = res.Image
	})
	if err != nil {
		log.Fatalf("Capture request failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := pipeline.OnDrawTick(); err != nil {
			log.Fatalf("Draw tick failed: %v", err)
		}
	}

	if err := savePNG(*output, composite); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Capture %s saved to %s (%dx%d)\n", id, *output, *width, *height)
}

// gradientBackground builds a vertical dusk gradient.
func gradientBackground(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h)
		c := color.RGBA{
			R: uint8(25 + t*100),
			G: uint8(50 + t*75),
			B: uint8(100 + t*50),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// subjectFrame paints an orange disc with a white ring on a pure green
// field, standing in for a camera subject in front of a green screen.
func subjectFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	green := color.RGBA{G: 255, A: 255}
	orange := color.RGBA{R: 255, G: 140, A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	cx, cy := float64(w)/2, float64(h)/2
	radius := math.Min(cx, cy) * 0.6
	ring := radius * 1.15

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			switch {
			case d <= radius:
				img.SetRGBA(x, y, orange)
			case d <= ring:
				img.SetRGBA(x, y, white)
			default:
				img.SetRGBA(x, y, green)
			}
		}
	}
	return img
}

// rgbaToNV21 converts an RGBA image to NV21: full-resolution luma
// followed by interleaved VU chroma at quarter resolution.
func rgbaToNV21(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, w*h+w*h/2)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.RGBAAt(x, y)
			out[y*w+x] = clamp8((299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000)
		}
	}

	vu := out[w*h:]
	for y := 0; y < h/2; y++ {
		for x := 0; x < w/2; x++ {
			c := img.RGBAAt(x*2, y*2)
			v := (500*int(c.R)-419*int(c.G)-81*int(c.B))/1000 + 128
			u := (-169*int(c.R)-331*int(c.G)+500*int(c.B))/1000 + 128
			vu[y*w+x*2] = clamp8(v)
			vu[y*w+x*2+1] = clamp8(u)
		}
	}
	return out
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

func savePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
