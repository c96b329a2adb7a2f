// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render drives the chroma-key compositing pipeline.
//
// The package is organized around a single render goroutine. Producers
// (camera callbacks, capture requests, configuration changes) hand work
// to the [Scheduler] from any goroutine; the host's render loop calls
// [Scheduler.OnDrawTick] on its render goroutine, where queued work is
// drained and frames are composited. All texture and pipeline state is
// confined to that goroutine.
//
// A [Program] is the compositing filter itself and a [Context] manages
// textures and the output target. [SoftwareProgram] implements both on
// the CPU; backend/wgpu provides the GPU implementation.
package render
