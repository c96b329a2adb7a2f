// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (e.g. a gogpu.App or an embedding process that owns the
// swap chain) implements DeviceHandle and passes it to the pipeline,
// allowing the compositor to share the host's GPU device.
//
// Key principle: the compositor RECEIVES the device from the host, it
// does NOT create one. This keeps GPU resources shared across the
// stack and avoids duplicate device initialization.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// local name for the interface while staying compatible with the
// gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// HALSource is implemented by device providers that can expose the
// underlying HAL device and queue. Hosts built directly on gogpu/wgpu
// implement this alongside DeviceHandle.
type HALSource interface {
	HALDevice() hal.Device
	HALQueue() hal.Queue
}

// FromHandle extracts the HAL device and queue from a host device
// handle. It reports false when the handle does not carry a usable HAL
// pair, in which case the caller should fall back to the software
// compositor.
func FromHandle(h DeviceHandle) (hal.Device, hal.Queue, bool) {
	if h == nil {
		return nil, nil, false
	}
	src, ok := h.(HALSource)
	if !ok {
		return nil, nil, false
	}
	device, queue := src.HALDevice(), src.HALQueue()
	if device == nil || queue == nil {
		return nil, nil, false
	}
	return device, queue, true
}

// NullDeviceHandle is a DeviceHandle with nil implementations. Used
// for CPU-only compositing where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
