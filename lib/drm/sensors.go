// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

// Package drm reads live GPU metrics through the amdgpu DRM render
// node: clocks, temperature, load, and power via the AMDGPU_INFO
// sensor ioctl, and VRAM usage from the device's sysfs directory
// (which is the only place the kernel reports it).
//
// Topology nodes carry their render node minor in drm_render_minor,
// so a KFD GPU maps straight to /dev/dri/renderD<minor>.
package drm

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DRM ioctl constants derived from the upstream Linux kernel UAPI
// headers (include/uapi/drm/amdgpu_drm.h). Stable ABI.
const (
	// ioctlAMDGPUInfo is the fully encoded DRM_IOCTL_AMDGPU_INFO
	// number: _IOW('d', 0x45, 64) where 64 is
	// sizeof(struct drm_amdgpu_info).
	ioctlAMDGPUInfo = 0x40406445

	// amdgpuInfoSensor is the AMDGPU_INFO_SENSOR query type.
	amdgpuInfoSensor = 0x1D
)

// AMDGPU_INFO_SENSOR sub-query constants.
const (
	// SensorGFXSCLK queries the current graphics clock in MHz.
	SensorGFXSCLK = 0x1

	// SensorGFXMCLK queries the current memory clock in MHz.
	SensorGFXMCLK = 0x2

	// SensorGPUTemp queries the GPU temperature in millidegrees
	// Celsius.
	SensorGPUTemp = 0x3

	// SensorGPULoad queries the GPU utilization percentage (0-100).
	SensorGPULoad = 0x4

	// SensorGPUAvgPower queries the average GPU power draw in watts.
	SensorGPUAvgPower = 0x5
)

// infoRequest mirrors struct drm_amdgpu_info from the kernel UAPI
// header: 8 (return_pointer) + 4 (return_size) + 4 (query) + 48
// (union data). Sensor queries use the first 4 union bytes for the
// sensor type.
type infoRequest struct {
	returnPointer uint64
	returnSize    uint32
	query         uint32
	unionData     [48]byte
}

// Sample is one reading of every supported sensor. Fields whose
// query failed (unsupported on the ASIC, no permission) stay zero.
type Sample struct {
	GFXClockMHz       uint32
	MemClockMHz       uint32
	TemperatureMilliC uint32
	LoadPercent       uint32
	PowerWatts        uint32
	VRAMUsedBytes     uint64
}

// Device is an open render node plus its sysfs device directory.
type Device struct {
	renderFile *os.File
	devicePath string
}

// OpenNode opens the render node with the given DRM minor number
// (renderD128 is minor 128).
func OpenNode(renderMinor int32) (*Device, error) {
	return openNodeFrom("/dev", "/sys", renderMinor)
}

// openNodeFrom is the testable implementation of OpenNode. The sysfs
// device path is resolved even when the node itself cannot be opened,
// so VRAM usage keeps working without render group membership.
func openNodeFrom(devRoot, sysRoot string, renderMinor int32) (*Device, error) {
	device := &Device{
		devicePath: filepath.Join(sysRoot, fmt.Sprintf("class/drm/renderD%d/device", renderMinor)),
	}

	nodePath := filepath.Join(devRoot, fmt.Sprintf("dri/renderD%d", renderMinor))
	file, err := os.OpenFile(nodePath, os.O_RDWR, 0)
	if err != nil {
		return device, fmt.Errorf("open %s: %w", nodePath, err)
	}
	device.renderFile = file
	return device, nil
}

// Close releases the render node file descriptor. Idempotent.
func (d *Device) Close() {
	if d.renderFile != nil {
		d.renderFile.Close()
		d.renderFile = nil
	}
}

// CanQuery reports whether the render node is open for sensor
// ioctls. VRAM usage is readable either way.
func (d *Device) CanQuery() bool { return d.renderFile != nil }

// Sample reads every sensor once. Individual sensor failures leave
// the field at zero rather than failing the whole sample.
func (d *Device) Sample() Sample {
	var sample Sample
	sample.VRAMUsedBytes = readVRAMUsed(d.devicePath)

	if d.renderFile == nil {
		return sample
	}
	fd := d.renderFile.Fd()
	if value, err := querySensor(fd, SensorGFXSCLK); err == nil {
		sample.GFXClockMHz = value
	}
	if value, err := querySensor(fd, SensorGFXMCLK); err == nil {
		sample.MemClockMHz = value
	}
	if value, err := querySensor(fd, SensorGPUTemp); err == nil {
		sample.TemperatureMilliC = value
	}
	if value, err := querySensor(fd, SensorGPULoad); err == nil {
		sample.LoadPercent = value
	}
	if value, err := querySensor(fd, SensorGPUAvgPower); err == nil {
		sample.PowerWatts = value
	}
	return sample
}

// querySensor issues a single AMDGPU_INFO_SENSOR ioctl and returns
// the uint32 result.
func querySensor(fd uintptr, sensorType uint32) (uint32, error) {
	var result uint32

	var request infoRequest
	request.returnPointer = uint64(uintptr(unsafe.Pointer(&result)))
	request.returnSize = 4
	request.query = amdgpuInfoSensor
	binary.LittleEndian.PutUint32(request.unionData[:4], sensorType)

	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		fd,
		uintptr(ioctlAMDGPUInfo),
		uintptr(unsafe.Pointer(&request)),
	)
	if errno != 0 {
		return 0, fmt.Errorf("amdgpu sensor query 0x%x: %w", sensorType, errno)
	}
	return result, nil
}

// readVRAMUsed reads mem_info_vram_used from the device's sysfs
// directory. Returns 0 when unavailable.
func readVRAMUsed(devicePath string) uint64 {
	data, err := os.ReadFile(filepath.Join(devicePath, "mem_info_vram_used"))
	if err != nil {
		return 0
	}
	value, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
