// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kfd-project/kfdinfo/lib/schema"
)

// writeFile creates a file with parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// buildFixture writes a synthetic topology: one CPU socket (node 0)
// and two dGPUs (nodes 1 and 2) each hanging off the socket over
// PCIe, with no direct GPU-to-GPU link.
func buildFixture(t *testing.T) (root, procRoot, sysRoot string) {
	t.Helper()
	base := t.TempDir()
	root = filepath.Join(base, "topology")
	procRoot = filepath.Join(base, "proc")
	sysRoot = filepath.Join(base, "sys")

	writeFile(t, filepath.Join(root, "generation_id"), "3\n")
	writeFile(t, filepath.Join(root, "system_properties"),
		"platform_oem 0\nplatform_id 0\nplatform_rev 1\n")

	// Node 0: 16-core CPU socket.
	node0 := filepath.Join(root, "nodes/0")
	writeFile(t, filepath.Join(node0, "properties"),
		"cpu_cores_count 16\n"+
			"simd_count 0\n"+
			"mem_banks_count 1\n"+
			"caches_count 1\n"+
			"io_links_count 2\n"+
			"cpu_core_id_base 0\n"+
			"max_engine_clk_ccompute 3800\n")
	writeFile(t, filepath.Join(node0, "name"), "\n")
	writeFile(t, filepath.Join(node0, "mem_banks/0/properties"),
		"heap_type 0\nsize_in_bytes 68719476736\nflags 0\nwidth 64\nmem_clk_max 3200\n")
	writeFile(t, filepath.Join(node0, "caches/0/properties"),
		"processor_id_low 0\nlevel 3\nsize 32768\ncache_line_size 64\n"+
			"association 16\nlatency 40\ntype 5\nsibling_map 1,1,1,1\n")
	writeFile(t, filepath.Join(node0, "io_links/0/properties"),
		"type 2\nnode_from 0\nnode_to 1\nweight 20\n")
	writeFile(t, filepath.Join(node0, "io_links/1/properties"),
		"type 2\nnode_from 0\nnode_to 2\nweight 20\n")

	// Nodes 1 and 2: identical dGPUs (device id 0x73BF, gfx 10.3.0).
	for _, gpu := range []struct {
		id       string
		location string
		gpuID    string
	}{
		{"1", "768", "54321"}, // bus 03, device 00, function 0
		{"2", "1024", "54322"},
	} {
		dir := filepath.Join(root, "nodes", gpu.id)
		writeFile(t, filepath.Join(dir, "properties"),
			"cpu_cores_count 0\n"+
				"simd_count 144\n"+
				"simd_per_cu 2\n"+
				"max_waves_per_simd 16\n"+
				"mem_banks_count 1\n"+
				"caches_count 1\n"+
				"io_links_count 1\n"+
				"vendor_id 4098\n"+
				"device_id 29631\n"+
				"location_id "+gpu.location+"\n"+
				"domain 0\n"+
				"drm_render_minor 128\n"+
				"wave_front_size 32\n"+
				"lds_size_in_kb 64\n"+
				"local_mem_size 17163091968\n"+
				"array_count 8\n"+
				"simd_arrays_per_engine 2\n"+
				"gfx_target_version 100300\n"+
				"max_engine_clk_fcompute 2105\n")
		writeFile(t, filepath.Join(dir, "name"), "navi21\n")
		writeFile(t, filepath.Join(dir, "gpu_id"), gpu.gpuID+"\n")
		writeFile(t, filepath.Join(dir, "mem_banks/0/properties"),
			"heap_type 1\nsize_in_bytes 17163091968\nflags 0\nwidth 256\nmem_clk_max 2000\n")
		writeFile(t, filepath.Join(dir, "caches/0/properties"),
			"processor_id_low 16\nlevel 2\nsize 4096\ncache_line_size 64\n"+
				"association 16\nlatency 100\ntype 10\n")
		writeFile(t, filepath.Join(dir, "io_links/0/properties"),
			"type 2\nnode_from "+gpu.id+"\nnode_to 0\nweight 20\n")
	}

	writeFile(t, filepath.Join(procRoot, "cpuinfo"),
		"processor\t: 0\n"+
			"model name\t: AMD Ryzen 9 5950X 16-Core Processor\n"+
			"apicid\t\t: 0\n"+
			"\n"+
			"processor\t: 1\n"+
			"model name\t: AMD Ryzen 9 5950X 16-Core Processor\n"+
			"apicid\t\t: 1\n")

	return root, procRoot, sysRoot
}

func TestSnapshotFromFixture(t *testing.T) {
	root, procRoot, sysRoot := buildFixture(t)
	snapshot, err := snapshotFrom(root, procRoot, sysRoot)
	if err != nil {
		t.Fatalf("snapshotFrom: %v", err)
	}

	if snapshot.GenerationID != 3 {
		t.Errorf("GenerationID = %d, want 3", snapshot.GenerationID)
	}
	if snapshot.System.NumNodes != 3 {
		t.Fatalf("NumNodes = %d, want 3", snapshot.System.NumNodes)
	}

	cpu := snapshot.Nodes[0].Properties
	if !cpu.IsCPU() {
		t.Error("node 0 should classify as CPU")
	}
	if want := "AMD Ryzen 9 5950X 16-Core Processor"; cpu.MarketingName != want {
		t.Errorf("CPU MarketingName = %q, want %q", cpu.MarketingName, want)
	}

	gpu := snapshot.Nodes[1].Properties
	if !gpu.IsGPU() {
		t.Fatal("node 1 should classify as GPU")
	}
	if got := gpu.ComputeUnits(); got != 72 {
		t.Errorf("ComputeUnits = %d, want 72", got)
	}
	if want := (schema.EngineID{Major: 10, Minor: 3, Stepping: 0}); gpu.EngineID != want {
		t.Errorf("EngineID = %v, want %v", gpu.EngineID, want)
	}
	if gpu.ASICName != "Sienna Cichlid" {
		t.Errorf("ASICName = %q, want Sienna Cichlid", gpu.ASICName)
	}
	if gpu.NumShaderBanks != 4 {
		t.Errorf("NumShaderBanks = %d, want 4", gpu.NumShaderBanks)
	}
	if gpu.SGPRSizePerCU != 32*1024 || gpu.VGPRSizePerCU != 256*1024 {
		t.Errorf("register files = %d/%d, want 32768/262144",
			gpu.SGPRSizePerCU, gpu.VGPRSizePerCU)
	}
	if gpu.KFDGPUID != 54321 {
		t.Errorf("KFDGPUID = %d, want 54321", gpu.KFDGPUID)
	}
	// No amdgpu.ids match without a PCI revision file: the sysfs
	// family name stands.
	if gpu.MarketingName != "navi21" {
		t.Errorf("MarketingName = %q, want navi21", gpu.MarketingName)
	}

	// Cache size is normalized from KB to bytes.
	if got := snapshot.Nodes[1].Caches[0].SizeBytes; got != 4096*1024 {
		t.Errorf("GPU cache SizeBytes = %d, want %d", got, 4096*1024)
	}
	if got := snapshot.Nodes[0].Caches[0].SiblingMap; len(got) != 4 {
		t.Errorf("CPU cache sibling map has %d entries, want 4", len(got))
	}
}

func TestSnapshotSynthesizesIndirectLinks(t *testing.T) {
	root, procRoot, sysRoot := buildFixture(t)
	snapshot, err := snapshotFrom(root, procRoot, sysRoot)
	if err != nil {
		t.Fatalf("snapshotFrom: %v", err)
	}

	// GPU 1 and GPU 2 have no direct link; both are one PCIe hop
	// (weight 20) from the socket, so the bridged weight is 40.
	findLink := func(from, to uint32) *schema.IOLink {
		for i := range snapshot.Nodes {
			for j := range snapshot.Nodes[i].IOLinks {
				link := &snapshot.Nodes[i].IOLinks[j]
				if link.NodeFrom == from && link.NodeTo == to {
					return link
				}
			}
		}
		return nil
	}

	for _, direction := range []struct{ from, to uint32 }{{1, 2}, {2, 1}} {
		link := findLink(direction.from, direction.to)
		if link == nil {
			t.Fatalf("no link %d->%d synthesized", direction.from, direction.to)
		}
		if !link.Indirect {
			t.Errorf("link %d->%d not marked indirect", direction.from, direction.to)
		}
		if link.Weight != 40 {
			t.Errorf("link %d->%d weight = %d, want 40", direction.from, direction.to, link.Weight)
		}
		if link.Type != schema.LinkUndefined {
			t.Errorf("link %d->%d type = %v, want Indirect/Other", direction.from, direction.to, link.Type)
		}
	}

	// The direct CPU->GPU links stay untouched.
	if link := findLink(0, 1); link == nil || link.Indirect || link.Type != schema.LinkPCIe {
		t.Errorf("direct link 0->1 altered: %+v", link)
	}
}

func TestSnapshotMissingRoot(t *testing.T) {
	_, err := snapshotFrom(filepath.Join(t.TempDir(), "absent"), "/proc", "/sys")
	if err == nil {
		t.Fatal("expected error for missing topology root")
	}
}

func TestEngineIDOverride(t *testing.T) {
	t.Setenv("HSA_OVERRIDE_GFX_VERSION", "10.3.0")
	if got := engineIDOf(90402, 0); got != (schema.EngineID{Major: 10, Minor: 3, Stepping: 0}) {
		t.Errorf("global override ignored, got %v", got)
	}

	t.Setenv("HSA_OVERRIDE_GFX_VERSION_1", "9.0.6")
	if got := engineIDOf(90402, 1); got != (schema.EngineID{Major: 9, Minor: 0, Stepping: 6}) {
		t.Errorf("per-device override ignored, got %v", got)
	}

	t.Setenv("HSA_OVERRIDE_GFX_VERSION", "not.a.version")
	if got := engineIDOf(90402, 0); got != (schema.EngineID{Major: 9, Minor: 4, Stepping: 2}) {
		t.Errorf("malformed override not ignored, got %v", got)
	}
}

func TestVGPRSizePerCU(t *testing.T) {
	cases := []struct {
		engine schema.EngineID
		want   uint32
	}{
		{schema.EngineID{Major: 9, Minor: 0, Stepping: 8}, 512 * 1024},
		{schema.EngineID{Major: 9, Minor: 4, Stepping: 2}, 512 * 1024},
		{schema.EngineID{Major: 9, Minor: 5, Stepping: 0}, 512 * 1024},
		{schema.EngineID{Major: 11, Minor: 0, Stepping: 0}, 384 * 1024},
		{schema.EngineID{Major: 10, Minor: 3, Stepping: 0}, 256 * 1024},
		{schema.EngineID{Major: 9, Minor: 0, Stepping: 6}, 256 * 1024},
	}
	for _, c := range cases {
		if got := vgprSizePerCU(c.engine); got != c.want {
			t.Errorf("vgprSizePerCU(%v) = %d, want %d", c.engine, got, c.want)
		}
	}
}

func TestProductNameFromIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amdgpu.ids")
	writeFile(t, path,
		"# AMD GPU product database\n"+
			"1.0.0\n"+
			"73BF,\tC1,\tAMD Radeon RX 6900 XT\n"+
			"73BF,\tC3,\tAMD Radeon RX 6800\n")

	if got := productNameFromIDs(path, 0x73BF, 0xC3); got != "AMD Radeon RX 6800" {
		t.Errorf("lookup = %q, want AMD Radeon RX 6800", got)
	}
	if got := productNameFromIDs(path, 0x73BF, 0xFF); got != "" {
		t.Errorf("unknown revision = %q, want empty", got)
	}
	if got := productNameFromIDs(path, 0x1234, 0xC1); got != "" {
		t.Errorf("unknown device = %q, want empty", got)
	}
}

func TestPCIRevision(t *testing.T) {
	sysRoot := t.TempDir()
	writeFile(t, filepath.Join(sysRoot, "bus/pci/devices/0000:03:00.0/revision"), "0xc1\n")

	// location_id 768 is bus 03, device 00, function 0.
	revision, ok := pciRevision(sysRoot, 0, 768)
	if !ok || revision != 0xC1 {
		t.Errorf("pciRevision = %#x ok=%v, want 0xc1 true", revision, ok)
	}

	if _, ok := pciRevision(sysRoot, 0, 1024); ok {
		t.Error("expected lookup failure for absent device")
	}
}

func TestASICNameFallback(t *testing.T) {
	if got := asicName(0x73BF); got != "Sienna Cichlid" {
		t.Errorf("asicName(0x73BF) = %q", got)
	}
	if got := asicName(0xFFFF); got != "" {
		t.Errorf("asicName(0xFFFF) = %q, want empty", got)
	}
}
