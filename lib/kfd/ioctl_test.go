// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package kfd

import (
	"testing"
	"unsafe"
)

// Request numbers checked against the values the kernel UAPI header
// expands to, so a struct layout change cannot slip through silently.
func TestRequestEncoding(t *testing.T) {
	cases := []struct {
		name    string
		request uintptr
		want    uintptr
	}{
		{"get_version", ioctlGetVersion, 0x80084B01},
		{"get_clock_counters", ioctlGetClockCounters, 0xC0284B05},
		{"get_process_apertures", ioctlGetProcessApertures, 0x81904B06},
		{"get_process_apertures_new", ioctlAperturesNew, 0xC0104B14},
		{"get_available_memory", ioctlAvailableMemory, 0xC0104B23},
	}
	for _, c := range cases {
		if c.request != c.want {
			t.Errorf("%s request = %#x, want %#x", c.name, c.request, c.want)
		}
	}
}

func TestStructSizesMatchEncoding(t *testing.T) {
	cases := []struct {
		name string
		size uintptr
		want uintptr
	}{
		{"kfd_ioctl_get_version_args", unsafe.Sizeof(getVersionArgs{}), 8},
		{"kfd_ioctl_get_clock_counters_args", unsafe.Sizeof(clockCountersArgs{}), 40},
		{"kfd_process_device_apertures", unsafe.Sizeof(processDeviceApertures{}), 56},
		{"kfd_ioctl_get_process_apertures_args", unsafe.Sizeof(getProcessAperturesArgs{}), 400},
		{"kfd_ioctl_get_process_apertures_new_args", unsafe.Sizeof(getProcessAperturesNewArgs{}), 16},
		{"kfd_ioctl_get_available_memory_args", unsafe.Sizeof(availableMemoryArgs{}), 16},
	}
	for _, c := range cases {
		if c.size != c.want {
			t.Errorf("sizeof(%s) = %d, want %d", c.name, c.size, c.want)
		}
	}
}

// TestLiveDevice exercises the real device when present. Skipped on
// machines without a loaded KFD driver or without device access.
func TestLiveDevice(t *testing.T) {
	device, err := Open()
	if err != nil {
		t.Skipf("no usable /dev/kfd: %v", err)
	}
	defer device.Close()

	version, err := device.GetVersion()
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if version.Major == 0 {
		t.Errorf("interface major version = 0, want nonzero")
	}
}
