// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package greenscreen provides a real-time chroma-key compositing
// pipeline for camera frames.
//
// # Overview
//
// greenscreen replaces a keyed color (green by default) in incoming
// video frames with a background image, producing composited preview
// frames and still captures. It is designed to sit between a camera
// source and a rendering host: the host feeds frames and drives the
// draw loop, greenscreen does conversion, upload, and compositing.
//
// # Quick Start
//
//	import "github.com/gogpu/greenscreen"
//
//	// Create a pipeline with the software compositor.
//	p, err := greenscreen.New(1280, 720,
//	    greenscreen.WithBackground("beach.png"),
//	)
//
//	// Feed camera frames (NV21 by default) from any goroutine.
//	p.OnFrame(frame, 1280, 720)
//
//	// Drive from the render loop.
//	p.OnDrawTick()
//
// # Renderers
//
// The compositor program is injected, mirroring the host-owns-the-GPU
// model: pass backend/wgpu.NewProgram(...) through WithProgram for GPU
// compositing, or let the pipeline default to the pure-Go software
// program.
//
// # Threading
//
// OnFrame and the configuration setters are safe to call from any
// goroutine. OnDrawTick and RequestStillCapture callbacks run on the
// caller's goroutine, which must be the one owning the GPU context.
package greenscreen

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
