// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/gogpu/greenscreen/convert"
	"github.com/gogpu/greenscreen/ingest"
)

// Mode is the scheduler's render mode.
type Mode int32

const (
	// ModePreview composites the most recent camera frame each tick.
	ModePreview Mode = iota

	// ModeCapturePending means a still image has been uploaded and
	// will be composited on the next tick.
	ModeCapturePending

	// ModeCapturing means the still image is being composited and
	// read back this tick.
	ModeCapturing
)

// String returns a human-readable mode description.
func (m Mode) String() string {
	switch m {
	case ModePreview:
		return "preview"
	case ModeCapturePending:
		return "capture-pending"
	case ModeCapturing:
		return "capturing"
	default:
		return "unknown"
	}
}

// CaptureResult delivers the outcome of a still capture.
type CaptureResult struct {
	// ID is the request identifier returned by RequestStillCapture.
	ID uuid.UUID

	// Image is the composited output at viewport resolution. Nil when
	// Err is set.
	Image *image.RGBA

	// Err reports why the capture failed.
	Err error
}

// CaptureCallback receives a capture result on the render goroutine.
type CaptureCallback func(CaptureResult)

// Scheduler coordinates frame ingest, still capture, and configuration
// changes against a single render goroutine.
//
// Producers may call OnFrame, RequestStillCapture, and the Set*
// configuration methods from any goroutine. OnDrawTick and Dispose must
// run on the render goroutine.
type Scheduler struct {
	renderer Renderer
	binding  Binding
	textures *Textures
	conv     convert.Converter

	previewQ ingest.Queue
	captureQ ingest.Queue

	// Render-goroutine state.
	mode      atomic.Int32
	frameBuf  []byte
	captureID uuid.UUID
	captureCb CaptureCallback
	inFlight  atomic.Bool
	disposed  atomic.Bool

	// Pending configuration, applied at the head of the next tick.
	mu             sync.Mutex
	pendingOrient  *Orientation
	pendingChroma  *ChromaKey
	pendingSize    *[2]int
	pendingProgram Program

	logger atomic.Pointer[slog.Logger]
}

// SchedulerOption configures a Scheduler during creation.
type SchedulerOption func(*Scheduler)

// WithConverter sets the camera frame converter. Defaults to NV21.
func WithConverter(c convert.Converter) SchedulerOption {
	return func(s *Scheduler) { s.conv = c }
}

// WithChromaKey sets the initial filter configuration. Defaults to
// DefaultChromaKey.
func WithChromaKey(k ChromaKey) SchedulerOption {
	return func(s *Scheduler) { s.binding.SetChromaKey(k) }
}

// WithOrientation sets the initial frame orientation.
func WithOrientation(o Orientation) SchedulerOption {
	return func(s *Scheduler) { s.textures.SetOrientation(o) }
}

// NewScheduler binds r, sizes its viewport, and returns a scheduler in
// preview mode.
func NewScheduler(r Renderer, width, height int, opts ...SchedulerOption) (*Scheduler, error) {
	if r == nil {
		return nil, ErrNotInitialized
	}
	s := &Scheduler{
		renderer: r,
		textures: NewTextures(r),
		conv:     convert.NV21{},
	}
	s.logger.Store(newNopLogger())
	s.binding.SetChromaKey(DefaultChromaKey())
	for _, opt := range opts {
		opt(s)
	}
	if err := s.binding.Bind(r); err != nil {
		return nil, err
	}
	s.binding.SetOutputSize(width, height)
	s.textures.SetOutputSize(width, height)
	return s, nil
}

// SetLogger configures the scheduler's logger. Pass nil to disable
// logging. Safe for concurrent use.
func (s *Scheduler) SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	s.logger.Store(l)
}

func (s *Scheduler) log() *slog.Logger { return s.logger.Load() }

// Mode returns the current render mode. Safe for concurrent use.
func (s *Scheduler) Mode() Mode { return Mode(s.mode.Load()) }

// SetOutputSize changes the viewport. Applied on the next tick.
func (s *Scheduler) SetOutputSize(width, height int) {
	s.mu.Lock()
	s.pendingSize = &[2]int{width, height}
	s.mu.Unlock()
}

// SetOrientation changes the frame orientation. Applied on the next
// tick.
func (s *Scheduler) SetOrientation(o Orientation) {
	s.mu.Lock()
	s.pendingOrient = &o
	s.mu.Unlock()
}

// SetChromaKey changes the filter configuration. Applied on the next
// tick.
func (s *Scheduler) SetChromaKey(k ChromaKey) {
	s.mu.Lock()
	s.pendingChroma = &k
	s.mu.Unlock()
}

// Rebind replaces the compositing program on the next tick. The current
// program keeps drawing until the replacement initializes.
func (s *Scheduler) Rebind(p Program) {
	s.mu.Lock()
	s.pendingProgram = p
	s.mu.Unlock()
}

// OnFrame ingests one camera frame in the converter's pixel format.
//
// The frame is converted and uploaded on the render goroutine during
// the next tick; src must stay untouched until then. When a previous
// frame is still waiting for its tick the new frame is dropped, keeping
// ingest from outrunning the render loop.
func (s *Scheduler) OnFrame(src []byte, width, height int) error {
	if s.disposed.Load() {
		return ErrNotInitialized
	}
	if width <= 0 || height <= 0 || len(src) != s.conv.FrameSize(width, height) {
		return ErrInvalidFrameData
	}

	accepted := s.previewQ.TryEnqueue(func() {
		need := width * height * 4
		if cap(s.frameBuf) < need {
			s.frameBuf = make([]byte, need)
		}
		buf := s.frameBuf[:need]
		if err := s.conv.Convert(src, width, height, buf); err != nil {
			s.log().Warn("frame conversion failed", "error", err)
			return
		}
		if err := s.textures.UploadPreview(buf, width, height); err != nil {
			s.log().Warn("preview upload failed", "error", err)
		}
	})
	if !accepted {
		s.log().Debug("preview frame dropped", "width", width, "height", height)
	}
	return nil
}

// RequestStillCapture composites img through the filter and delivers
// the result to cb on the render goroutine. The image is uploaded on
// the next tick and composited on the tick after, so the callback fires
// two ticks after the request at the earliest.
//
// Only one capture may be in flight; concurrent requests fail with
// ErrCaptureInProgress. The returned ID identifies the request in the
// delivered CaptureResult.
func (s *Scheduler) RequestStillCapture(img *image.RGBA, cb CaptureCallback) (uuid.UUID, error) {
	if s.disposed.Load() {
		return uuid.Nil, ErrNotInitialized
	}
	if img == nil || img.Rect.Dx() <= 0 || img.Rect.Dy() <= 0 {
		return uuid.Nil, ErrInvalidFrameData
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return uuid.Nil, ErrCaptureInProgress
	}

	id := uuid.New()
	pix, w, h := packedRGBA(img)
	accepted := s.captureQ.TryEnqueue(func() {
		s.captureID = id
		s.captureCb = cb
		if err := s.textures.UploadCapture(pix, w, h); err != nil {
			s.finishCapture(nil, err)
			return
		}
		s.mode.Store(int32(ModeCapturePending))
	})
	if !accepted {
		// Release the slot so a rejected enqueue does not strand all
		// future captures behind a permanently-true in-flight flag.
		s.inFlight.Store(false)
		return uuid.Nil, ErrNotInitialized
	}
	return id, nil
}

// packedRGBA returns img's pixels as a tightly packed RGBA buffer.
func packedRGBA(img *image.RGBA) ([]byte, int, int) {
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

// OnDrawTick runs one render pass. It must be called from the render
// goroutine, once per output frame.
func (s *Scheduler) OnDrawTick() error {
	if s.disposed.Load() {
		return ErrNotInitialized
	}
	s.applyPending()

	wasPending := s.Mode() == ModeCapturePending
	s.captureQ.Drain()

	if wasPending {
		return s.capturePass()
	}
	if s.Mode() == ModeCapturePending {
		// The capture upload landed this tick; the composite happens
		// on the next tick so the texture upload is fully visible.
		return nil
	}
	return s.previewPass()
}

func (s *Scheduler) applyPending() {
	s.mu.Lock()
	orient, chroma, size, program := s.pendingOrient, s.pendingChroma, s.pendingSize, s.pendingProgram
	s.pendingOrient, s.pendingChroma, s.pendingSize, s.pendingProgram = nil, nil, nil, nil
	s.mu.Unlock()

	if program != nil {
		if err := s.binding.Rebind(program); err != nil {
			s.log().Warn("program rebind failed", "error", err)
		}
	}
	if size != nil {
		s.binding.SetOutputSize(size[0], size[1])
		s.textures.SetOutputSize(size[0], size[1])
	}
	if orient != nil {
		s.textures.SetOrientation(*orient)
	}
	if chroma != nil {
		s.binding.SetChromaKey(*chroma)
	}
}

func (s *Scheduler) previewPass() error {
	s.renderer.Clear()
	s.previewQ.Drain()

	handle, quad, uv := s.textures.Preview()
	if handle == NoTexture {
		return nil
	}
	return s.binding.Draw(handle, quad, uv)
}

func (s *Scheduler) capturePass() error {
	s.mode.Store(int32(ModeCapturing))
	s.renderer.Clear()

	handle, quad, uv := s.textures.Capture()
	err := s.binding.Draw(handle, quad, uv)
	if err == nil {
		// Drawn twice: some drivers present a stale sample on the
		// first draw after an upload.
		err = s.binding.Draw(handle, quad, uv)
	}

	var img *image.RGBA
	if err == nil {
		img, err = s.renderer.ReadPixels()
	}
	s.finishCapture(img, err)
	s.mode.Store(int32(ModePreview))
	return err
}

// finishCapture delivers the result exactly once and releases the
// in-flight slot.
func (s *Scheduler) finishCapture(img *image.RGBA, err error) {
	cb := s.captureCb
	id := s.captureID
	s.captureCb = nil
	s.captureID = uuid.Nil
	s.inFlight.Store(false)
	if err != nil {
		s.log().Warn("still capture failed", "id", id, "error", err)
	} else {
		s.log().Debug("still capture delivered", "id", id)
	}
	if cb != nil {
		cb(CaptureResult{ID: id, Image: img, Err: err})
	}
}

// Dispose tears the pipeline down on the render goroutine. A capture
// that has not yet delivered fails with ErrNotInitialized. Subsequent
// calls are no-ops.
func (s *Scheduler) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	// Run any queued capture upload so its callback is known, then
	// fail the capture instead of leaving it dangling.
	s.captureQ.Drain()
	if s.inFlight.Load() {
		s.finishCapture(nil, ErrNotInitialized)
	}
	s.textures.ReleaseAll()
	s.binding.Release()
	s.mode.Store(int32(ModePreview))
}

// nopHandler discards all records; Enabled returns false so disabled
// logging skips formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }
