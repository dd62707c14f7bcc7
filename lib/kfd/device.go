// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

// Package kfd wraps the /dev/kfd character device: the ioctl surface
// the AMD KFD kernel driver exposes to compute processes. Only the
// read-side queries a diagnostics tool needs are implemented —
// interface version, clock counters, per-GPU process apertures, and
// available memory.
package kfd

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevicePath is the KFD character device node.
const DevicePath = "/dev/kfd"

// Version is the KFD ioctl interface version.
type Version struct {
	Major uint32
	Minor uint32
}

// ClockCounters is one correlated sample of the GPU, CPU, and system
// clock domains, plus the system counter frequency in Hz.
type ClockCounters struct {
	GPUClock    uint64
	CPUClock    uint64
	SystemClock uint64
	SystemFreq  uint64
}

// Apertures holds the virtual address ranges the driver reserves for
// one GPU in the calling process.
type Apertures struct {
	GPUID        uint32
	LDSBase      uint64
	LDSLimit     uint64
	ScratchBase  uint64
	ScratchLimit uint64
	GPUVMBase    uint64
	GPUVMLimit   uint64
}

// Device is an open handle on /dev/kfd.
type Device struct {
	file *os.File
}

// Open opens the KFD device read-write. Fails with the underlying
// errno when the node is absent (no driver) or access is denied (the
// caller is not in the video/render group).
func Open() (*Device, error) {
	return OpenPath(DevicePath)
}

// OpenPath opens the device at a non-standard node path.
func OpenPath(path string) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Device{file: file}, nil
}

// Close releases the device handle. Idempotent.
func (d *Device) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// ioctl issues one request against the device.
func (d *Device) ioctl(request uintptr, arg unsafe.Pointer) error {
	if d.file == nil {
		return fmt.Errorf("kfd device is closed")
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), request, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// GetVersion returns the KFD ioctl interface version.
func (d *Device) GetVersion() (Version, error) {
	var args getVersionArgs
	if err := d.ioctl(ioctlGetVersion, unsafe.Pointer(&args)); err != nil {
		return Version{}, fmt.Errorf("kfd get_version: %w", err)
	}
	return Version{Major: args.majorVersion, Minor: args.minorVersion}, nil
}

// GetClockCounters samples the clock domains of the GPU identified by
// its KFD GPU id.
func (d *Device) GetClockCounters(gpuID uint32) (ClockCounters, error) {
	args := clockCountersArgs{gpuID: gpuID}
	if err := d.ioctl(ioctlGetClockCounters, unsafe.Pointer(&args)); err != nil {
		return ClockCounters{}, fmt.Errorf("kfd get_clock_counters (gpu %d): %w", gpuID, err)
	}
	return ClockCounters{
		GPUClock:    args.gpuClockCounter,
		CPUClock:    args.cpuClockCounter,
		SystemClock: args.systemClockCounter,
		SystemFreq:  args.systemClockFreq,
	}, nil
}

// ProcessApertures returns the per-GPU aperture ranges for the
// calling process, one entry per GPU the driver manages. Uses the
// variable-length query, falling back to the legacy fixed-size one on
// kernels that predate it.
func (d *Device) ProcessApertures(gpuCount int) ([]Apertures, error) {
	if gpuCount <= 0 {
		return nil, nil
	}

	buffer := make([]processDeviceApertures, gpuCount)
	args := getProcessAperturesNewArgs{
		kfdProcessDeviceAperturesPtr: uint64(uintptr(unsafe.Pointer(&buffer[0]))),
		numOfNodes:                   uint32(gpuCount),
	}
	err := d.ioctl(ioctlAperturesNew, unsafe.Pointer(&args))
	if err == unix.ENOTTY {
		return d.legacyProcessApertures()
	}
	if err != nil {
		return nil, fmt.Errorf("kfd get_process_apertures_new: %w", err)
	}

	count := int(args.numOfNodes)
	if count > gpuCount {
		count = gpuCount
	}
	return aperturesFromRaw(buffer[:count]), nil
}

// legacyProcessApertures issues the fixed-size aperture query, which
// caps out at seven GPUs.
func (d *Device) legacyProcessApertures() ([]Apertures, error) {
	var args getProcessAperturesArgs
	if err := d.ioctl(ioctlGetProcessApertures, unsafe.Pointer(&args)); err != nil {
		return nil, fmt.Errorf("kfd get_process_apertures: %w", err)
	}
	count := int(args.numOfNodes)
	if count > maxSupportedGPUs {
		count = maxSupportedGPUs
	}
	return aperturesFromRaw(args.apertures[:count]), nil
}

// aperturesFromRaw converts the wire structs to the exported form.
func aperturesFromRaw(raw []processDeviceApertures) []Apertures {
	apertures := make([]Apertures, len(raw))
	for i, entry := range raw {
		apertures[i] = Apertures{
			GPUID:        entry.gpuID,
			LDSBase:      entry.ldsBase,
			LDSLimit:     entry.ldsLimit,
			ScratchBase:  entry.scratchBase,
			ScratchLimit: entry.scratchLimit,
			GPUVMBase:    entry.gpuvmBase,
			GPUVMLimit:   entry.gpuvmLimit,
		}
	}
	return apertures
}

// AvailableMemory returns the bytes of VRAM currently allocatable on
// the GPU identified by its KFD GPU id.
func (d *Device) AvailableMemory(gpuID uint32) (uint64, error) {
	args := availableMemoryArgs{gpuID: gpuID}
	if err := d.ioctl(ioctlAvailableMemory, unsafe.Pointer(&args)); err != nil {
		return 0, fmt.Errorf("kfd get_available_memory (gpu %d): %w", gpuID, err)
	}
	return args.available, nil
}
