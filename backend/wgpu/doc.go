// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu provides the GPU compositing program using gogpu/wgpu.
//
// The chroma-key composite runs as a WGSL compute shader over storage
// buffers: the foreground frame, the background image, and the output
// target are tightly packed RGBA buffers, and each invocation composites
// one output pixel. Shaders are compiled to SPIR-V via gogpu/naga at
// initialization.
//
// # Device Ownership
//
// The program RECEIVES its device and queue from the host, it does NOT
// create them. Hosts embedding a gogpu application pass the shared
// device through Config; see DeviceHandle for the gpucontext
// integration point.
//
// # Usage
//
//	prog, err := wgpu.NewProgram(wgpu.Config{Device: dev, Queue: queue})
//	if err != nil {
//	    // no GPU compute support: fall back to render.SoftwareProgram
//	}
//	sched, err := render.NewScheduler(prog, 1280, 720)
//
// Program implements both render.Program and render.Context, mirroring
// the software compositor, so either can drive a render.Scheduler.
package wgpu
