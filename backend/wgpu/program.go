// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/greenscreen/render"
)

//go:embed shaders/chroma_key.wgsl
var chromaKeyShaderSource string

// paramsUniformSize is the byte size of the Params uniform buffer.
// Layout: 9 x vec2<f32> (72 bytes) + 8 bytes padding + 2 x vec4<f32>.
const paramsUniformSize = 112

// fenceTimeout bounds how long a composite submission may take.
const fenceTimeout = 5 * time.Second

// Errors returned by the wgpu compositing program.
var (
	// ErrNoDevice is returned when Config lacks a device or queue.
	ErrNoDevice = errors.New("wgpu: device and queue are required")
)

// Config configures a Program.
type Config struct {
	// Device and Queue for GPU operations. Both are required; they
	// are owned by the host and are not destroyed by the program.
	Device hal.Device
	Queue  hal.Queue
}

// Program composites frames on the GPU through a chroma-key compute
// shader. It implements render.Program and render.Context.
//
// Confined to the render goroutine, like every render.Program.
type Program struct {
	device hal.Device
	queue  hal.Queue

	initialized   bool
	width, height int

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
	spirvCode  []uint32

	paramsBuf hal.Buffer
	outBuf    hal.Buffer
	outSize   uint64
	clearPix  []byte

	// Background pixels, re-uploaded when the filter configuration
	// changes. fallbackBG is a 1-pixel buffer bound when no
	// background is configured (the shader ignores its contents).
	bgBuf      hal.Buffer
	bgSize     uint64
	bgW, bgH   int
	fallbackBG hal.Buffer
	bgDirty    bool

	chroma render.ChromaKey

	textures map[render.TextureHandle]*texture
	nextID   render.TextureHandle
}

// texture is one foreground frame stored as a packed RGBA buffer.
type texture struct {
	buf           hal.Buffer
	width, height int
	size          uint64
}

// NewProgram returns an uninitialized GPU compositor. GPU resources
// are allocated by Init.
func NewProgram(cfg Config) (*Program, error) {
	if cfg.Device == nil || cfg.Queue == nil {
		return nil, ErrNoDevice
	}
	return &Program{
		device: cfg.Device,
		queue:  cfg.Queue,
		chroma: render.DefaultChromaKey(),
	}, nil
}

// Init compiles the shader and creates the compute pipeline. Calling
// Init on an initialized program is a no-op.
func (p *Program) Init() error {
	if p.initialized {
		return nil
	}

	spirvCode, err := compileShaderToSPIRV(chromaKeyShaderSource)
	if err != nil {
		return fmt.Errorf("wgpu: compile chroma key shader: %w", err)
	}
	p.spirvCode = spirvCode

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "chroma_key_shader",
		Source: hal.ShaderSource{SPIRV: p.spirvCode},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create shader module: %w", err)
	}
	p.shader = shader

	// Bindings match @group(0) @binding(N) in chroma_key.wgsl:
	//   0: Params uniform
	//   1: foreground pixels (read)
	//   2: background pixels (read)
	//   3: output pixels (read_write)
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "chroma_key_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		p.releaseGPU()
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "chroma_key_pl",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.releaseGPU()
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := p.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "chroma_key_pipeline",
		Layout: p.pipeLayout,
		Compute: hal.ComputeState{
			Module:     p.shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		p.releaseGPU()
		return fmt.Errorf("wgpu: create compute pipeline: %w", err)
	}
	p.pipeline = pipeline

	paramsBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chroma_key_params",
		Size:  paramsUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		p.releaseGPU()
		return fmt.Errorf("wgpu: create params buffer: %w", err)
	}
	p.paramsBuf = paramsBuf

	fallbackBG, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chroma_key_bg_fallback",
		Size:  4,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		p.releaseGPU()
		return fmt.Errorf("wgpu: create fallback background buffer: %w", err)
	}
	p.fallbackBG = fallbackBG
	p.queue.WriteBuffer(p.fallbackBG, 0, []byte{0, 0, 0, 255})

	if p.textures == nil {
		p.textures = make(map[render.TextureHandle]*texture)
	}
	p.initialized = true
	p.bgDirty = true

	if p.width > 0 && p.height > 0 {
		if err := p.ensureOutput(); err != nil {
			p.releaseGPU()
			p.initialized = false
			return err
		}
	}
	return nil
}

// SetOutputSize sets the viewport and reallocates the output buffer.
func (p *Program) SetOutputSize(width, height int) {
	if width == p.width && height == p.height {
		return
	}
	p.width, p.height = width, height
	if p.initialized {
		// An allocation failure surfaces on the next Draw/ReadPixels
		// as ErrNotInitialized via the nil output buffer.
		_ = p.ensureOutput()
	}
}

func (p *Program) ensureOutput() error {
	if p.outBuf != nil {
		p.device.DestroyBuffer(p.outBuf)
		p.outBuf = nil
	}
	if p.width <= 0 || p.height <= 0 {
		return nil
	}
	size := uint64(p.width) * uint64(p.height) * 4
	outBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chroma_key_output",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create output buffer: %w", err)
	}
	p.outBuf = outBuf
	p.outSize = size

	p.clearPix = make([]byte, size)
	for i := 3; i < len(p.clearPix); i += 4 {
		p.clearPix[i] = 255
	}
	return nil
}

// SetChromaKey replaces the filter configuration. The background is
// re-uploaded on the next draw.
func (p *Program) SetChromaKey(k render.ChromaKey) {
	p.chroma = k
	p.bgDirty = true
}

// Clear resets the output target to opaque black.
func (p *Program) Clear() {
	if p.outBuf == nil {
		return
	}
	p.queue.WriteBuffer(p.outBuf, 0, p.clearPix)
}

// LoadTexture uploads width*height packed RGBA pixels into a storage
// buffer, reusing the buffer behind reuse when its size matches.
func (p *Program) LoadTexture(pix []byte, width, height int, reuse render.TextureHandle) (render.TextureHandle, error) {
	if p.textures == nil {
		return render.NoTexture, render.ErrNotInitialized
	}
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return render.NoTexture, render.ErrInvalidFrameData
	}

	size := uint64(len(pix))
	tex, ok := p.textures[reuse]
	handle := reuse
	if ok && tex.size != size {
		p.device.DestroyBuffer(tex.buf)
		tex.buf = nil
		ok = false
	}
	if !ok {
		buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "chroma_key_frame",
			Size:  size,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			if tex != nil {
				delete(p.textures, handle)
			}
			return render.NoTexture, fmt.Errorf("wgpu: create frame buffer: %w", err)
		}
		if tex == nil {
			handle = p.nextID
			p.nextID++
			tex = &texture{}
			p.textures[handle] = tex
		}
		tex.buf = buf
		tex.size = size
	}
	tex.width, tex.height = width, height
	p.queue.WriteBuffer(tex.buf, 0, pix)
	return handle, nil
}

// DeleteTexture frees a texture buffer. Unknown handles are ignored.
func (p *Program) DeleteTexture(h render.TextureHandle) {
	tex, ok := p.textures[h]
	if !ok {
		return
	}
	if tex.buf != nil {
		p.device.DestroyBuffer(tex.buf)
	}
	delete(p.textures, h)
}

// Draw composites tex through the chroma-key shader onto the output
// buffer. The submission is synchronous: the method returns after the
// GPU signals the fence.
func (p *Program) Draw(tex render.TextureHandle, quad, uv [8]float32) error {
	if !p.initialized || p.outBuf == nil {
		return render.ErrNotInitialized
	}
	t, ok := p.textures[tex]
	if !ok {
		return render.ErrInvalidFrameData
	}

	if err := p.ensureBackground(); err != nil {
		return err
	}
	bgBuf := p.fallbackBG
	bgSize := uint64(4)
	if p.bgBuf != nil {
		bgBuf = p.bgBuf
		bgSize = p.bgSize
	}

	p.queue.WriteBuffer(p.paramsBuf, 0, p.packParams(t, quad, uv))

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "chroma_key_bind",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.paramsBuf.NativeHandle(), Offset: 0, Size: paramsUniformSize,
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: t.buf.NativeHandle(), Offset: 0, Size: t.size,
			}},
			{Binding: 2, Resource: gputypes.BufferBinding{
				Buffer: bgBuf.NativeHandle(), Offset: 0, Size: bgSize,
			}},
			{Binding: 3, Resource: gputypes.BufferBinding{
				Buffer: p.outBuf.NativeHandle(), Offset: 0, Size: p.outSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group: %w", err)
	}
	defer p.device.DestroyBindGroup(bindGroup)

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "chroma_key_encoder",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("chroma_key_draw"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{
		Label: "chroma_key_pass",
	})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(groups(p.width), groups(p.height), 1)
	pass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	fence, err := p.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer p.device.DestroyFence(fence)

	if err := p.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	fenceOK, err := p.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	if !fenceOK {
		return errors.New("wgpu: GPU fence timed out")
	}
	return nil
}

// ReadPixels downloads the output buffer into an image.
func (p *Program) ReadPixels() (*image.RGBA, error) {
	if !p.initialized || p.outBuf == nil {
		return nil, render.ErrNotInitialized
	}
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	if err := p.queue.ReadBuffer(p.outBuf, 0, img.Pix); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return img, nil
}

// Release frees pipeline state and the output buffer. Texture buffers
// belong to the Context side and survive a release, so rebinding a
// program does not invalidate texture handles.
func (p *Program) Release() {
	p.releaseGPU()
	p.initialized = false
}

// Close releases everything including textures. Call when the program
// will not be used again.
func (p *Program) Close() {
	for h := range p.textures {
		p.DeleteTexture(h)
	}
	p.textures = nil
	p.Release()
}

// releaseGPU destroys pipeline resources in reverse creation order.
// Safe to call with partially created resources.
func (p *Program) releaseGPU() {
	if p.bgBuf != nil {
		p.device.DestroyBuffer(p.bgBuf)
		p.bgBuf = nil
	}
	if p.fallbackBG != nil {
		p.device.DestroyBuffer(p.fallbackBG)
		p.fallbackBG = nil
	}
	if p.outBuf != nil {
		p.device.DestroyBuffer(p.outBuf)
		p.outBuf = nil
	}
	if p.paramsBuf != nil {
		p.device.DestroyBuffer(p.paramsBuf)
		p.paramsBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// ensureBackground uploads the configured background image when the
// filter configuration changed since the last draw.
func (p *Program) ensureBackground() error {
	if !p.bgDirty {
		return nil
	}
	bg := p.chroma.Background
	if bg == nil || bg.Rect.Dx() == 0 || bg.Rect.Dy() == 0 {
		if p.bgBuf != nil {
			p.device.DestroyBuffer(p.bgBuf)
			p.bgBuf = nil
		}
		p.bgW, p.bgH = 0, 0
		p.bgDirty = false
		return nil
	}

	pix, w, h := packedPixels(bg)
	size := uint64(len(pix))
	if p.bgBuf != nil && p.bgSize != size {
		p.device.DestroyBuffer(p.bgBuf)
		p.bgBuf = nil
	}
	if p.bgBuf == nil {
		buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "chroma_key_background",
			Size:  size,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create background buffer: %w", err)
		}
		p.bgBuf = buf
		p.bgSize = size
	}
	p.queue.WriteBuffer(p.bgBuf, 0, pix)
	p.bgW, p.bgH = w, h
	p.bgDirty = false
	return nil
}

// packParams serializes the Params uniform, matching the WGSL struct
// layout: 9 vec2<f32> fields, 8 bytes of padding, then 2 vec4<f32>.
func (p *Program) packParams(t *texture, quad, uv [8]float32) []byte {
	buf := make([]byte, paramsUniformSize)
	off := 0
	putF32 := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}

	hasBG := float32(0)
	bgW, bgH := float32(1), float32(1)
	if p.bgBuf != nil {
		hasBG = 1
		bgW, bgH = float32(p.bgW), float32(p.bgH)
	}

	// out_size, tex_size, bg_size.
	putF32(float32(p.width))
	putF32(float32(p.height))
	putF32(float32(t.width))
	putF32(float32(t.height))
	putF32(bgW)
	putF32(bgH)

	// quad_min (left, bottom), quad_max (right, top). The quad is an
	// axis-aligned strip: v0 TL, v1 BL, v2 TR, v3 BR.
	putF32(quad[0])
	putF32(quad[3])
	putF32(quad[4])
	putF32(quad[1])

	// uv0..uv3.
	for _, v := range uv {
		putF32(v)
	}

	// Padding before the vec4 block.
	off += 8

	// key_color rgb + has_bg flag.
	putF32(p.chroma.KeyColor[0])
	putF32(p.chroma.KeyColor[1])
	putF32(p.chroma.KeyColor[2])
	putF32(hasBG)

	// thresholds: sensitivity, smoothing, reserved x2.
	putF32(p.chroma.Sensitivity)
	putF32(p.chroma.Smoothing)
	putF32(0)
	putF32(0)

	return buf
}

// packedPixels returns img's pixels as a tightly packed RGBA buffer.
func packedPixels(img *image.RGBA) ([]byte, int, int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == w*4 && img.Rect.Min == (image.Point{}) {
		return img.Pix[:w*h*4], w, h
	}
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(pix[y*w*4:(y+1)*w*4], img.Pix[off:off+w*4])
	}
	return pix, w, h
}

// groups returns the workgroup count covering n pixels at a workgroup
// size of 8.
func groups(n int) uint32 {
	return uint32((n + 7) / 8) //nolint:gosec // dimensions always fit uint32
}

// Compile-time interface checks.
var (
	_ render.Program  = (*Program)(nil)
	_ render.Context  = (*Program)(nil)
	_ render.Renderer = (*Program)(nil)
)
