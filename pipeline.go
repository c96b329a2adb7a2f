// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package greenscreen

import (
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/gogpu/greenscreen/background"
	"github.com/gogpu/greenscreen/geometry"
	"github.com/gogpu/greenscreen/render"
)

// Re-exported result types so hosts only import the root package for
// the common path.
type (
	// CaptureResult is the outcome of a still capture request.
	CaptureResult = render.CaptureResult

	// CaptureCallback receives a finished capture on the render
	// goroutine.
	CaptureCallback = render.CaptureCallback
)

// Pipeline is the public compositing surface. It wraps a render
// scheduler with configuration state so the host can adjust rotation,
// scaling, and filter parameters independently.
//
// Configuration setters and OnFrame are safe from any goroutine;
// changes take effect on the next draw tick. OnDrawTick must run on
// the goroutine owning the GPU context.
type Pipeline struct {
	sched *render.Scheduler

	mu            sync.Mutex
	width, height int
	orientation   render.Orientation
	chroma        render.ChromaKey
	disposed      bool
}

// New creates a compositing pipeline for a width x height viewport.
// Without WithProgram the pure-Go software compositor is used.
func New(width, height int, opts ...PipelineOption) (*Pipeline, error) {
	o := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var prog render.Renderer = o.program
	if prog == nil {
		prog = render.NewSoftwareProgram()
	}

	chroma := o.chroma
	switch {
	case o.backgroundPath != "":
		img, ok := background.Load(o.backgroundPath, width, height, width >= height)
		if !ok {
			Logger().Warn("background load failed, using error color",
				"path", o.backgroundPath)
		}
		chroma.Background = img
	case o.background != nil:
		chroma.Background = background.Prepare(o.background, width, height, width >= height)
	}

	schedOpts := []render.SchedulerOption{
		render.WithChromaKey(chroma),
		render.WithOrientation(o.orientation),
	}
	if o.converter != nil {
		schedOpts = append(schedOpts, render.WithConverter(o.converter))
	}
	sched, err := render.NewScheduler(prog, width, height, schedOpts...)
	if err != nil {
		return nil, err
	}
	sched.SetLogger(Logger())

	p := &Pipeline{
		sched:       sched,
		width:       width,
		height:      height,
		orientation: o.orientation,
		chroma:      chroma,
	}
	registerPipeline(p)
	Logger().Info("pipeline initialized", "width", width, "height", height)
	return p, nil
}

// SetOutputSize resizes the viewport. Applied on the next tick.
func (p *Pipeline) SetOutputSize(width, height int) {
	p.mu.Lock()
	p.width, p.height = width, height
	p.mu.Unlock()
	p.sched.SetOutputSize(width, height)
}

// SetRotation changes the frame rotation. Applied on the next tick.
func (p *Pipeline) SetRotation(r geometry.Rotation) {
	p.mu.Lock()
	p.orientation.Rotation = r
	o := p.orientation
	p.mu.Unlock()
	p.sched.SetOrientation(o)
}

// SetFlip changes frame mirroring. Applied on the next tick.
func (p *Pipeline) SetFlip(horizontal, vertical bool) {
	p.mu.Lock()
	p.orientation.FlipHorizontal = horizontal
	p.orientation.FlipVertical = vertical
	o := p.orientation
	p.mu.Unlock()
	p.sched.SetOrientation(o)
}

// SetScaleType switches between center-crop and fit scaling. Applied
// on the next tick.
func (p *Pipeline) SetScaleType(s geometry.ScaleType) {
	p.mu.Lock()
	p.orientation.Scale = s
	o := p.orientation
	p.mu.Unlock()
	p.sched.SetOrientation(o)
}

// SetKeyColor changes the keyed color. Applied on the next tick.
func (p *Pipeline) SetKeyColor(r, g, b float32) {
	p.mu.Lock()
	p.chroma.KeyColor = [3]float32{r, g, b}
	k := p.chroma
	p.mu.Unlock()
	p.sched.SetChromaKey(k)
}

// SetTolerance changes the chroma sensitivity and smoothing. Applied
// on the next tick.
func (p *Pipeline) SetTolerance(sensitivity, smoothing float32) {
	p.mu.Lock()
	p.chroma.Sensitivity = sensitivity
	p.chroma.Smoothing = smoothing
	k := p.chroma
	p.mu.Unlock()
	p.sched.SetChromaKey(k)
}

// SetBackground loads a new background image from path, scaled and
// cropped to the viewport. A failed load substitutes a solid
// error-color image and logs a warning rather than returning an error,
// so a bad path degrades visibly instead of breaking the stream.
// Applied on the next tick.
func (p *Pipeline) SetBackground(path string) {
	p.mu.Lock()
	w, h := p.width, p.height
	p.mu.Unlock()

	img, ok := background.Load(path, w, h, w >= h)
	if !ok {
		Logger().Warn("background load failed, using error color", "path", path)
	}

	p.mu.Lock()
	p.chroma.Background = img
	k := p.chroma
	p.mu.Unlock()
	p.sched.SetChromaKey(k)
}

// SetBackgroundImage installs an already-decoded background image.
// Applied on the next tick.
func (p *Pipeline) SetBackgroundImage(img image.Image) {
	p.mu.Lock()
	w, h := p.width, p.height
	p.mu.Unlock()

	var prepared *image.RGBA
	if img != nil {
		prepared = background.Prepare(img, w, h, w >= h)
	}

	p.mu.Lock()
	p.chroma.Background = prepared
	k := p.chroma
	p.mu.Unlock()
	p.sched.SetChromaKey(k)
}

// UseProgram swaps in a new compositing program on the next tick. The
// current program keeps drawing until the replacement initializes.
func (p *Pipeline) UseProgram(prog render.Program) {
	p.sched.Rebind(prog)
}

// OnFrame ingests one camera frame in the converter's pixel format
// (NV21 by default). Frames arriving faster than draw ticks are
// dropped. Safe from any goroutine.
func (p *Pipeline) OnFrame(src []byte, width, height int) error {
	return p.sched.OnFrame(src, width, height)
}

// RequestStillCapture composites img through the filter and delivers
// the result to cb on the render goroutine, two ticks after the
// request at the earliest. Only one capture may be in flight.
func (p *Pipeline) RequestStillCapture(img *image.RGBA, cb CaptureCallback) (uuid.UUID, error) {
	return p.sched.RequestStillCapture(img, cb)
}

// OnDrawTick runs one scheduler tick: pending configuration is
// applied, queued uploads run, and the current frame is composited.
// Must run on the goroutine owning the GPU context.
func (p *Pipeline) OnDrawTick() error {
	return p.sched.OnDrawTick()
}

// Mode returns the scheduler's current render mode. Safe from any
// goroutine.
func (p *Pipeline) Mode() render.Mode {
	return p.sched.Mode()
}

// Dispose releases all resources. A pending capture fails with
// ErrNotInitialized. Dispose is idempotent; the pipeline rejects all
// operations afterwards.
func (p *Pipeline) Dispose() {
	p.mu.Lock()
	already := p.disposed
	p.disposed = true
	p.mu.Unlock()
	if already {
		return
	}
	unregisterPipeline(p)
	p.sched.Dispose()
	Logger().Info("pipeline disposed")
}
