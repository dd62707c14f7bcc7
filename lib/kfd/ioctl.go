// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package kfd

// KFD ioctl constants derived from the upstream Linux kernel UAPI
// header (include/uapi/linux/kfd_ioctl.h). These are stable ABI — the
// kernel guarantees backward compatibility for UAPI ioctl interfaces.
const (
	// kfdIoctlBase is the KFD ioctl type character ('K').
	kfdIoctlBase = 'K'

	// Command numbers within the 'K' type.
	commandGetVersion          = 0x01
	commandGetClockCounters    = 0x05
	commandGetProcessApertures = 0x06
	commandAperturesNew        = 0x14
	commandAvailableMemory     = 0x23
)

// _IOC bit layout: nr in bits 0-7, type in 8-15, size in 16-29,
// direction in 30-31.
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNrShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
)

// ioc encodes one ioctl request number.
func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNrShift | size<<iocSizeShift
}

// ior encodes a read-only (kernel writes to userspace) request.
func ior(typ, nr, size uintptr) uintptr {
	return ioc(iocRead, typ, nr, size)
}

// iowr encodes a read-write request.
func iowr(typ, nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, typ, nr, size)
}

// maxSupportedGPUs bounds the fixed aperture array in the legacy
// GetProcessApertures request. Systems with more GPUs need the
// variable-length New variant.
const maxSupportedGPUs = 7

// getVersionArgs mirrors struct kfd_ioctl_get_version_args.
type getVersionArgs struct {
	majorVersion uint32
	minorVersion uint32
}

// clockCountersArgs mirrors struct kfd_ioctl_get_clock_counters_args.
type clockCountersArgs struct {
	gpuClockCounter    uint64
	cpuClockCounter    uint64
	systemClockCounter uint64
	systemClockFreq    uint64
	gpuID              uint32
	pad                uint32
}

// processDeviceApertures mirrors struct kfd_process_device_apertures:
// the LDS, scratch, and GPUVM virtual address ranges the driver
// reserves for one GPU in this process.
type processDeviceApertures struct {
	ldsBase      uint64
	ldsLimit     uint64
	scratchBase  uint64
	scratchLimit uint64
	gpuvmBase    uint64
	gpuvmLimit   uint64
	gpuID        uint32
	pad          uint32
}

// getProcessAperturesArgs mirrors the legacy fixed-size
// struct kfd_ioctl_get_process_apertures_args.
type getProcessAperturesArgs struct {
	apertures  [maxSupportedGPUs]processDeviceApertures
	numOfNodes uint32
	pad        uint32
}

// getProcessAperturesNewArgs mirrors
// struct kfd_ioctl_get_process_apertures_new_args: userspace passes a
// buffer pointer and capacity, the driver fills it and reports the
// actual node count.
type getProcessAperturesNewArgs struct {
	kfdProcessDeviceAperturesPtr uint64
	numOfNodes                   uint32
	pad                          uint32
}

// availableMemoryArgs mirrors struct kfd_ioctl_get_available_memory_args.
type availableMemoryArgs struct {
	available uint64
	gpuID     uint32
	pad       uint32
}

// Encoded request numbers. Sizes are the struct sizes above; all of
// the structs are naturally aligned with explicit padding, so
// unsafe.Sizeof matches the C layout.
var (
	ioctlGetVersion          = ior(kfdIoctlBase, commandGetVersion, 8)
	ioctlGetClockCounters    = iowr(kfdIoctlBase, commandGetClockCounters, 40)
	ioctlGetProcessApertures = ior(kfdIoctlBase, commandGetProcessApertures, 7*56+8)
	ioctlAperturesNew        = iowr(kfdIoctlBase, commandAperturesNew, 16)
	ioctlAvailableMemory     = iowr(kfdIoctlBase, commandAvailableMemory, 16)
)
