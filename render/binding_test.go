// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"testing"
)

// fakeProgram records Program calls for binding tests.
type fakeProgram struct {
	initErr   error
	initCalls int
	released  bool

	width, height int
	chroma        ChromaKey
	chromaSet     bool
	draws         int
}

func (f *fakeProgram) Init() error {
	f.initCalls++
	return f.initErr
}
func (f *fakeProgram) SetOutputSize(w, h int) { f.width, f.height = w, h }
func (f *fakeProgram) SetChromaKey(k ChromaKey) {
	f.chroma = k
	f.chromaSet = true
}
func (f *fakeProgram) Draw(TextureHandle, [8]float32, [8]float32) error {
	f.draws++
	return nil
}
func (f *fakeProgram) Release() { f.released = true }

func TestBindingBindNil(t *testing.T) {
	var b Binding

	if err := b.Bind(nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Bind(nil): err = %v, want ErrNotInitialized", err)
	}
	if b.Bound() {
		t.Error("Bound() = true after failed bind")
	}
}

func TestBindingPropagatesStateOnBind(t *testing.T) {
	// Size and filter configured before the program exists must be
	// applied as part of binding.
	var b Binding
	b.SetOutputSize(640, 480)
	k := DefaultChromaKey()
	k.Sensitivity = 0.7
	b.SetChromaKey(k)

	p := &fakeProgram{}
	if err := b.Bind(p); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if p.width != 640 || p.height != 480 {
		t.Errorf("program size = %dx%d, want 640x480", p.width, p.height)
	}
	if !p.chromaSet || p.chroma.Sensitivity != 0.7 {
		t.Errorf("program chroma = %+v, want sensitivity 0.7", p.chroma)
	}
}

func TestBindingDrawUnbound(t *testing.T) {
	var b Binding

	err := b.Draw(NoTexture, [8]float32{}, [8]float32{})
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestBindingRebindReleasesOld(t *testing.T) {
	var b Binding
	old := &fakeProgram{}
	if err := b.Bind(old); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	next := &fakeProgram{}
	if err := b.Rebind(next); err != nil {
		t.Fatalf("Rebind: %v", err)
	}

	if !old.released {
		t.Error("old program was not released")
	}
	if next.released {
		t.Error("new program was released")
	}
	if err := b.Draw(NoTexture, [8]float32{}, [8]float32{}); err != nil {
		t.Errorf("Draw after rebind: %v", err)
	}
	if next.draws != 1 {
		t.Errorf("new program draws = %d, want 1", next.draws)
	}
}

func TestBindingRebindFailureKeepsOld(t *testing.T) {
	var b Binding
	old := &fakeProgram{}
	if err := b.Bind(old); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	bad := &fakeProgram{initErr: errors.New("no device")}
	if err := b.Rebind(bad); err == nil {
		t.Fatal("Rebind with failing Init returned nil error")
	}

	if old.released {
		t.Error("old program released after failed rebind")
	}
	if err := b.Draw(NoTexture, [8]float32{}, [8]float32{}); err != nil {
		t.Errorf("Draw after failed rebind: %v", err)
	}
	if old.draws != 1 {
		t.Errorf("old program draws = %d, want 1", old.draws)
	}
}

func TestBindingReleaseIdempotent(t *testing.T) {
	var b Binding
	p := &fakeProgram{}
	if err := b.Bind(p); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	b.Release()
	b.Release()

	if !p.released {
		t.Error("program was not released")
	}
	if b.Bound() {
		t.Error("Bound() = true after release")
	}
}
