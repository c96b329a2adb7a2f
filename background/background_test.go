// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package background

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSolid(t *testing.T) {
	img := Solid(4, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("bounds = %v, want 4x3", img.Bounds())
	}
	got := img.RGBAAt(3, 2)
	if got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel = %v, want solid fill", got)
	}
}

func TestPrepareLandscapeSize(t *testing.T) {
	// 1920x1080 widescreen source into a 1280x720 landscape target.
	src := Solid(1920, 1080, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	out := Prepare(src, 1280, 720, true)

	if out.Bounds().Dx() != 1280 || out.Bounds().Dy() != 720 {
		t.Errorf("bounds = %v, want 1280x720", out.Bounds())
	}
}

func TestPreparePortraitSizeAndRotation(t *testing.T) {
	// A portrait target receives the transposed crop rotated into place:
	// the output has the requested portrait dimensions.
	src := Solid(1920, 1080, color.RGBA{R: 9, G: 9, B: 9, A: 255})

	out := Prepare(src, 720, 1280, false)

	if out.Bounds().Dx() != 720 || out.Bounds().Dy() != 1280 {
		t.Errorf("bounds = %v, want 720x1280", out.Bounds())
	}
}

func TestPrepareCropIsCentered(t *testing.T) {
	// Source twice as wide as the target after scaling: left half red,
	// right half blue. A centered crop must contain both halves meeting
	// in the middle.
	src := image.NewRGBA(image.Rect(0, 0, 400, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 400; x++ {
			if x < 200 {
				src.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				src.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}

	out := Prepare(src, 200, 100, true)

	left := out.RGBAAt(10, 50)
	right := out.RGBAAt(190, 50)
	if left.R < 200 || left.B > 50 {
		t.Errorf("left edge = %v, want red (crop not centered)", left)
	}
	if right.B < 200 || right.R > 50 {
		t.Errorf("right edge = %v, want blue (crop not centered)", right)
	}
}

func TestRotateCCW(t *testing.T) {
	// 2x1 image [A B] rotated counter-clockwise becomes 1x2 with B on
	// top: the right edge of the source becomes the top of the result.
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 255, A: 255}) // A
	src.SetRGBA(1, 0, color.RGBA{B: 255, A: 255}) // B

	dst := rotateCCW(src)

	if dst.Bounds().Dx() != 1 || dst.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v, want 1x2", dst.Bounds())
	}
	if top := dst.RGBAAt(0, 0); top.B != 255 {
		t.Errorf("top pixel = %v, want blue", top)
	}
	if bottom := dst.RGBAAt(0, 1); bottom.R != 255 {
		t.Errorf("bottom pixel = %v, want red", bottom)
	}
}

func TestLoadMissingFileSubstitutesErrorColor(t *testing.T) {
	img, ok := Load(filepath.Join(t.TempDir(), "missing.png"), 64, 32, true)

	if ok {
		t.Error("ok = true for missing file, want false")
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("bounds = %v, want 64x32", img.Bounds())
	}
	if got := img.RGBAAt(5, 5); got != ErrorColor {
		t.Errorf("pixel = %v, want ErrorColor %v", got, ErrorColor)
	}
}

func TestLoadDecodesAndPrepares(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, Solid(320, 180, color.RGBA{G: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	img, ok := Load(path, 160, 90, true)

	if !ok {
		t.Fatal("ok = false for valid file")
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 90 {
		t.Errorf("bounds = %v, want 160x90", img.Bounds())
	}
	if got := img.RGBAAt(80, 45); got.G < 200 {
		t.Errorf("pixel = %v, want green source content", got)
	}
}
