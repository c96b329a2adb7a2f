// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"math"
)

// SoftwareProgram composites frames on the CPU. It implements both
// Program and Context, so it can drive the Scheduler without a GPU
// device, and serves as the reference for what the GPU backend must
// produce.
//
// Not safe for concurrent use.
type SoftwareProgram struct {
	initialized bool

	width, height int
	frame         *image.RGBA

	chroma ChromaKey

	textures map[TextureHandle]*swTexture
	nextID   TextureHandle
}

type swTexture struct {
	pix           []byte
	width, height int
}

// NewSoftwareProgram returns an uninitialized software compositor with
// the default chroma-key configuration.
func NewSoftwareProgram() *SoftwareProgram {
	return &SoftwareProgram{chroma: DefaultChromaKey()}
}

// Init allocates texture bookkeeping. Calling Init on an initialized
// program is a no-op.
func (p *SoftwareProgram) Init() error {
	if p.initialized {
		return nil
	}
	if p.textures == nil {
		p.textures = make(map[TextureHandle]*swTexture)
	}
	p.initialized = true
	p.allocFrame()
	return nil
}

// SetOutputSize sets the viewport and reallocates the output target.
func (p *SoftwareProgram) SetOutputSize(width, height int) {
	if width == p.width && height == p.height {
		return
	}
	p.width, p.height = width, height
	p.allocFrame()
}

func (p *SoftwareProgram) allocFrame() {
	if !p.initialized || p.width <= 0 || p.height <= 0 {
		p.frame = nil
		return
	}
	p.frame = image.NewRGBA(image.Rect(0, 0, p.width, p.height))
}

// SetChromaKey replaces the filter configuration.
func (p *SoftwareProgram) SetChromaKey(k ChromaKey) { p.chroma = k }

// Clear resets the output target to opaque black.
func (p *SoftwareProgram) Clear() {
	if p.frame == nil {
		return
	}
	pix := p.frame.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = 0
		pix[i+1] = 0
		pix[i+2] = 0
		pix[i+3] = 255
	}
}

// LoadTexture stores width*height packed RGBA pixels, reusing the
// storage behind reuse when it names a live texture.
func (p *SoftwareProgram) LoadTexture(pix []byte, width, height int, reuse TextureHandle) (TextureHandle, error) {
	if p.textures == nil {
		return NoTexture, ErrNotInitialized
	}
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return NoTexture, ErrInvalidFrameData
	}

	tex, ok := p.textures[reuse]
	handle := reuse
	if !ok {
		handle = p.nextID
		p.nextID++
		tex = &swTexture{}
		p.textures[handle] = tex
	}
	if cap(tex.pix) < len(pix) {
		tex.pix = make([]byte, len(pix))
	}
	tex.pix = tex.pix[:len(pix)]
	copy(tex.pix, pix)
	tex.width, tex.height = width, height
	return handle, nil
}

// DeleteTexture frees a texture. Unknown handles are ignored.
func (p *SoftwareProgram) DeleteTexture(h TextureHandle) {
	delete(p.textures, h)
}

// ReadPixels returns a copy of the output target.
func (p *SoftwareProgram) ReadPixels() (*image.RGBA, error) {
	if p.frame == nil {
		return nil, ErrNotInitialized
	}
	out := image.NewRGBA(p.frame.Rect)
	copy(out.Pix, p.frame.Pix)
	return out, nil
}

// Draw composites tex through the chroma-key blend onto the region of
// the output covered by quad, sampling texture coordinates interpolated
// from uv. Pixels outside the quad are left untouched.
func (p *SoftwareProgram) Draw(tex TextureHandle, quad, uv [8]float32) error {
	if !p.initialized || p.frame == nil {
		return ErrNotInitialized
	}
	t, ok := p.textures[tex]
	if !ok {
		return ErrInvalidFrameData
	}

	// The quad is an axis-aligned triangle strip: v0 top-left,
	// v1 bottom-left, v2 top-right, v3 bottom-right in NDC.
	minX, maxX := quad[0], quad[4]
	topY, bottomY := quad[1], quad[3]
	if maxX == minX || topY == bottomY {
		return nil
	}

	key := p.chroma
	maskY := 0.2989*key.KeyColor[0] + 0.5866*key.KeyColor[1] + 0.1145*key.KeyColor[2]
	maskCr := 0.7132 * (key.KeyColor[0] - maskY)
	maskCb := 0.5647 * (key.KeyColor[2] - maskY)

	for py := 0; py < p.height; py++ {
		ny := 1 - (float32(py)+0.5)/float32(p.height)*2
		b := (topY - ny) / (topY - bottomY)
		if b < 0 || b > 1 {
			continue
		}
		for px := 0; px < p.width; px++ {
			nx := (float32(px)+0.5)/float32(p.width)*2 - 1
			a := (nx - minX) / (maxX - minX)
			if a < 0 || a > 1 {
				continue
			}

			// Bilinear UV over the strip corners.
			u := lerp(lerp(uv[0], uv[4], a), lerp(uv[2], uv[6], a), b)
			v := lerp(lerp(uv[1], uv[5], a), lerp(uv[3], uv[7], a), b)

			fr, fg, fb, fa := sampleTexture(t, u, v)
			br, bg, bb := p.backgroundAt(px, py)

			crY := 0.2989*fr + 0.5866*fg + 0.1145*fb
			cr := 0.7132 * (fr - crY)
			cb := 0.5647 * (fb - crY)

			dist := hypot32(cr-maskCr, cb-maskCb)
			blend := smoothstep(key.Sensitivity, key.Sensitivity+key.Smoothing, dist)

			off := p.frame.PixOffset(px, py)
			p.frame.Pix[off+0] = unit8(fr*blend + br*(1-blend))
			p.frame.Pix[off+1] = unit8(fg*blend + bg*(1-blend))
			p.frame.Pix[off+2] = unit8(fb*blend + bb*(1-blend))
			p.frame.Pix[off+3] = unit8(fa*blend + (1 - blend))
		}
	}
	return nil
}

// Release frees the program's output target. Textures belong to the
// Context side and survive a release, so rebinding a program does not
// invalidate texture handles. The program can be re-initialized with
// Init.
func (p *SoftwareProgram) Release() {
	p.frame = nil
	p.initialized = false
}

// sampleTexture nearest-samples t at unit coordinates (u, v), clamped
// to the texture edges. Returns channels in [0, 1].
func sampleTexture(t *swTexture, u, v float32) (r, g, b, a float32) {
	x := int(u * float32(t.width))
	y := int(v * float32(t.height))
	x = clampInt(x, 0, t.width-1)
	y = clampInt(y, 0, t.height-1)
	off := (y*t.width + x) * 4
	return float32(t.pix[off]) / 255,
		float32(t.pix[off+1]) / 255,
		float32(t.pix[off+2]) / 255,
		float32(t.pix[off+3]) / 255
}

// backgroundAt samples the configured background at the output pixel,
// scaled to cover the viewport. Returns black when none is configured.
func (p *SoftwareProgram) backgroundAt(px, py int) (r, g, b float32) {
	bg := p.chroma.Background
	if bg == nil {
		return 0, 0, 0
	}
	bw := bg.Rect.Dx()
	bh := bg.Rect.Dy()
	if bw == 0 || bh == 0 {
		return 0, 0, 0
	}
	bx := clampInt(px*bw/p.width, 0, bw-1)
	by := clampInt(py*bh/p.height, 0, bh-1)
	off := bg.PixOffset(bg.Rect.Min.X+bx, bg.Rect.Min.Y+by)
	return float32(bg.Pix[off]) / 255,
		float32(bg.Pix[off+1]) / 255,
		float32(bg.Pix[off+2]) / 255
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func smoothstep(edge0, edge1, x float32) float32 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

func hypot32(a, b float32) float32 {
	return float32(math.Sqrt(float64(a*a + b*b)))
}

func unit8(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Compile-time interface checks.
var (
	_ Program  = (*SoftwareProgram)(nil)
	_ Context  = (*SoftwareProgram)(nil)
	_ Renderer = (*SoftwareProgram)(nil)
)
