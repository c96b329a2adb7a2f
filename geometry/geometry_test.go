// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geometry

import "testing"

func TestComputeDeterministic(t *testing.T) {
	q1, uv1 := Compute(1280, 720, 640, 480, Rotation90, true, false, ScaleCenterCrop)
	q2, uv2 := Compute(1280, 720, 640, 480, Rotation90, true, false, ScaleCenterCrop)

	if q1 != q2 {
		t.Errorf("quad not deterministic: %v vs %v", q1, q2)
	}
	if uv1 != uv2 {
		t.Errorf("uv not deterministic: %v vs %v", uv1, uv2)
	}
}

func TestComputeCropIdentity(t *testing.T) {
	// Matching aspect ratios (ratioMax == 1) must leave the base UV
	// table untouched: the inset distance is zero.
	quad, uv := Compute(512, 512, 512, 512, RotationNormal, false, false, ScaleCenterCrop)

	if quad != Quad {
		t.Errorf("quad = %v, want full-screen %v", quad, Quad)
	}
	want := BaseUV(RotationNormal, false, false)
	if uv != want {
		t.Errorf("uv = %v, want base table %v", uv, want)
	}
}

func TestComputeCropInsets(t *testing.T) {
	// 1280x720 output, 640x480 image: width ratio 2.0, height ratio 1.5,
	// ratioMax = 2.0. Scaled image 1280x960, ratioHeight = 960/720 = 4/3.
	// Horizontal inset 0, vertical inset (1 - 3/4)/2 = 0.125.
	_, uv := Compute(1280, 720, 640, 480, RotationNormal, false, false, ScaleCenterCrop)

	base := BaseUV(RotationNormal, false, false)
	for i := 0; i < 8; i += 2 {
		if uv[i] != base[i] {
			t.Errorf("uv[%d] = %v, want unchanged %v", i, uv[i], base[i])
		}
	}
	const dist = 0.125
	for i := 1; i < 8; i += 2 {
		want := addDistance(base[i], dist)
		if !approx(uv[i], want) {
			t.Errorf("uv[%d] = %v, want %v", i, uv[i], want)
		}
	}
}

func TestComputeFitShrinksQuad(t *testing.T) {
	// Same dimensions as the crop test: fit divides quad x by
	// ratioHeight (4/3) and quad y by ratioWidth (1.0).
	quad, uv := Compute(1280, 720, 640, 480, RotationNormal, false, false, ScaleFit)

	if uv != BaseUV(RotationNormal, false, false) {
		t.Errorf("fit must not modify uv, got %v", uv)
	}
	for i := 0; i < 8; i += 2 {
		if !approx(quad[i], Quad[i]/(4.0/3.0)) {
			t.Errorf("quad[%d] = %v, want %v", i, quad[i], Quad[i]/(4.0/3.0))
		}
		if quad[i+1] != Quad[i+1] {
			t.Errorf("quad[%d] = %v, want %v", i+1, quad[i+1], Quad[i+1])
		}
	}
}

func TestComputeRotationTransposesRatios(t *testing.T) {
	// A 90 degree rotation swaps the effective output dimensions, so a
	// square image against a 1280x720 viewport insets the other axis
	// compared to the unrotated case.
	_, uvNormal := Compute(1280, 720, 480, 480, RotationNormal, false, false, ScaleCenterCrop)
	_, uvRotated := Compute(1280, 720, 480, 480, Rotation90, false, false, ScaleCenterCrop)

	if uvNormal == uvRotated {
		t.Error("rotation should change crop insets for a non-square viewport")
	}
}

func TestBaseUVFlips(t *testing.T) {
	tests := []struct {
		name     string
		rotation Rotation
		flipH    bool
		flipV    bool
		want     [8]float32
	}{
		{"normal", RotationNormal, false, false, [8]float32{0, 1, 1, 1, 0, 0, 1, 0}},
		{"normal flipH", RotationNormal, true, false, [8]float32{1, 1, 0, 1, 1, 0, 0, 0}},
		{"normal flipV", RotationNormal, false, true, [8]float32{0, 0, 1, 0, 0, 1, 1, 1}},
		{"normal both", RotationNormal, true, true, [8]float32{1, 0, 0, 0, 1, 1, 0, 1}},
		{"rotated 180", Rotation180, false, false, [8]float32{1, 0, 0, 0, 1, 1, 0, 1}},
		{"rotated 90", Rotation90, false, false, [8]float32{1, 1, 1, 0, 0, 1, 0, 0}},
		{"rotated 270", Rotation270, false, false, [8]float32{0, 0, 0, 1, 1, 0, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BaseUV(tt.rotation, tt.flipH, tt.flipV)
			if got != tt.want {
				t.Errorf("BaseUV(%v, %v, %v) = %v, want %v",
					tt.rotation, tt.flipH, tt.flipV, got, tt.want)
			}
		})
	}
}

func TestComputeDegenerateInputs(t *testing.T) {
	tests := []struct {
		name       string
		outW, outH int
		imgW, imgH int
	}{
		{"zero output", 0, 0, 640, 480},
		{"zero image", 1280, 720, 0, 0},
		{"negative image", 1280, 720, -1, 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quad, uv := Compute(tt.outW, tt.outH, tt.imgW, tt.imgH,
				RotationNormal, false, false, ScaleCenterCrop)
			if quad != Quad {
				t.Errorf("quad = %v, want full-screen fallback", quad)
			}
			if uv != BaseUV(RotationNormal, false, false) {
				t.Errorf("uv = %v, want base fallback", uv)
			}
		})
	}
}

func TestAddDistance(t *testing.T) {
	if got := addDistance(0, 0.2); !approx(got, 0.2) {
		t.Errorf("addDistance(0, 0.2) = %v, want 0.2", got)
	}
	if got := addDistance(1, 0.2); !approx(got, 0.8) {
		t.Errorf("addDistance(1, 0.2) = %v, want 0.8", got)
	}
}

func approx(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-5
}
