// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package background prepares background images for the chroma-key
// compositing filter.
//
// Backgrounds are assumed to be widescreen landscape sources. They are
// scaled so their height matches the composited image, centered
// horizontally, and cropped to the target size; portrait targets are
// additionally rotated so the prepared image matches the portrait
// orientation. A source that fails to decode is replaced by a solid
// magenta image so the error is visible in the output instead of
// failing the pipeline.
package background

import (
	"image"
	"image/color"
	"image/draw"
	"os"

	// Register the decoders backgrounds are commonly stored as.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// ErrorColor is the solid fill substituted when a background fails to
// load. Magenta is deliberate: it is visible immediately in any
// composited output.
var ErrorColor = color.RGBA{R: 255, G: 0, B: 255, A: 255}

// Load reads and prepares the background image at path for compositing
// at the target size. A missing or undecodable file yields a solid
// ErrorColor image of the target size; the returned bool reports whether
// the source loaded successfully.
func Load(path string, targetWidth, targetHeight int, landscape bool) (*image.RGBA, bool) {
	src, err := decodeFile(path)
	if err != nil {
		return Solid(targetWidth, targetHeight, ErrorColor), false
	}
	return Prepare(src, targetWidth, targetHeight, landscape), true
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Prepare scales, centers, and crops src to targetWidth x targetHeight.
// Portrait targets are prepared against the transposed size and rotated
// 90 degrees counter-clockwise afterwards, matching how a landscape
// source fills a portrait viewport.
func Prepare(src image.Image, targetWidth, targetHeight int, landscape bool) *image.RGBA {
	if targetWidth <= 0 || targetHeight <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	if landscape {
		return scaleAndCenterCrop(src, targetWidth, targetHeight)
	}

	// Portrait: fill the transposed target, then rotate into place.
	cropped := scaleAndCenterCrop(src, targetHeight, targetWidth)
	return rotateCCW(cropped)
}

// scaleAndCenterCrop scales src so its height matches outHeight, then
// crops a horizontally centered outWidth x outHeight window.
func scaleAndCenterCrop(src image.Image, outWidth, outHeight int) *image.RGBA {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return Solid(outWidth, outHeight, ErrorColor)
	}

	// Scale factor is determined by height: the source always fills the
	// target vertically and overflows (or underfills) horizontally.
	scaledW := srcW * outHeight / srcH
	if scaledW < 1 {
		scaledW = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, outHeight))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), src, bounds, xdraw.Over, nil)

	out := image.NewRGBA(image.Rect(0, 0, outWidth, outHeight))
	offsetX := (scaledW - outWidth) / 2
	draw.Draw(out, out.Bounds(), scaled, image.Pt(offsetX, 0), draw.Src)
	return out
}

// rotateCCW rotates src 90 degrees counter-clockwise.
func rotateCCW(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(y, w-1-x, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// Solid returns a width x height image filled with c.
func Solid(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}
