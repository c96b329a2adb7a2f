// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

// Binding manages the lifecycle of the bound compositing program:
// initialization, output size and filter propagation, and wholesale
// replacement. A Binding is confined to the render goroutine.
type Binding struct {
	program Program

	width, height int
	chroma        ChromaKey
	haveChroma    bool
}

// Bind initializes p and makes it the bound program. The previously
// propagated output size and filter configuration are applied so the
// program is immediately drawable.
func (b *Binding) Bind(p Program) error {
	if p == nil {
		return ErrNotInitialized
	}
	if err := p.Init(); err != nil {
		return err
	}
	if b.width > 0 && b.height > 0 {
		p.SetOutputSize(b.width, b.height)
	}
	if b.haveChroma {
		p.SetChromaKey(b.chroma)
	}
	b.program = p
	return nil
}

// Rebind replaces the bound program with p. The new program is
// initialized before the old one is released; on failure the old
// program stays bound.
func (b *Binding) Rebind(p Program) error {
	old := b.program
	if err := b.Bind(p); err != nil {
		b.program = old
		return err
	}
	if old != nil && old != p {
		old.Release()
	}
	return nil
}

// Bound reports whether a program is currently bound.
func (b *Binding) Bound() bool { return b.program != nil }

// SetOutputSize records the viewport size and propagates it to the
// bound program.
func (b *Binding) SetOutputSize(width, height int) {
	b.width, b.height = width, height
	if b.program != nil {
		b.program.SetOutputSize(width, height)
	}
}

// SetChromaKey records the filter configuration and propagates it to
// the bound program. The configuration is re-applied on Rebind.
func (b *Binding) SetChromaKey(k ChromaKey) {
	b.chroma = k
	b.haveChroma = true
	if b.program != nil {
		b.program.SetChromaKey(k)
	}
}

// Draw forwards to the bound program.
func (b *Binding) Draw(tex TextureHandle, quad, uv [8]float32) error {
	if b.program == nil {
		return ErrNotInitialized
	}
	return b.program.Draw(tex, quad, uv)
}

// Release releases the bound program and unbinds it. Safe to call more
// than once.
func (b *Binding) Release() {
	if b.program != nil {
		b.program.Release()
		b.program = nil
	}
}
