// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package drm

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"
)

func TestInfoRequestLayout(t *testing.T) {
	// The encoded ioctl number bakes in sizeof(struct drm_amdgpu_info).
	if size := unsafe.Sizeof(infoRequest{}); size != 64 {
		t.Errorf("sizeof(infoRequest) = %d, want 64", size)
	}
	if encoded := uintptr(1)<<30 | uintptr(64)<<16 | uintptr('d')<<8 | 0x45; encoded != ioctlAMDGPUInfo {
		t.Errorf("encoded request = %#x, want %#x", encoded, ioctlAMDGPUInfo)
	}
}

func TestSampleWithoutRenderNode(t *testing.T) {
	base := t.TempDir()
	devicePath := filepath.Join(base, "sys/class/drm/renderD128/device")
	if err := os.MkdirAll(devicePath, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(devicePath, "mem_info_vram_used"), []byte("4294967296\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	device, err := openNodeFrom(filepath.Join(base, "dev"), filepath.Join(base, "sys"), 128)
	if err == nil {
		t.Fatal("expected open error for absent render node")
	}
	if device == nil {
		t.Fatal("device should still be usable for sysfs reads")
	}
	defer device.Close()

	if device.CanQuery() {
		t.Error("CanQuery() = true without an open render node")
	}
	sample := device.Sample()
	if sample.VRAMUsedBytes != 4294967296 {
		t.Errorf("VRAMUsedBytes = %d, want 4294967296", sample.VRAMUsedBytes)
	}
	if sample.GFXClockMHz != 0 || sample.LoadPercent != 0 {
		t.Errorf("sensor fields nonzero without ioctl access: %+v", sample)
	}
}

// TestLiveSample exercises the real render node when one exists.
func TestLiveSample(t *testing.T) {
	device, err := OpenNode(128)
	if err != nil {
		t.Skipf("no usable render node: %v", err)
	}
	defer device.Close()

	sample := device.Sample()
	t.Logf("sample: %+v", sample)
}
