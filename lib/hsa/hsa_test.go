// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package hsa

import (
	"errors"
	"testing"

	"github.com/kfd-project/kfdinfo/lib/kfd"
	"github.com/kfd-project/kfdinfo/lib/schema"
)

// testSnapshot builds a CPU socket plus one dGPU.
func testSnapshot() *schema.Snapshot {
	return &schema.Snapshot{
		GenerationID: 1,
		System:       schema.SystemProperties{NumNodes: 2},
		Nodes: []schema.Node{
			{
				Properties: schema.NodeProperties{
					NodeID:        0,
					CPUCoresCount: 16,
					MarketingName: "AMD Ryzen 9 5950X 16-Core Processor",
				},
				MemBanks: []schema.MemoryBank{
					{HeapType: schema.HeapSystem, SizeBytes: 64 << 30},
				},
				Caches: []schema.CacheInfo{
					{Level: 3, SizeBytes: 32 << 20, TypeFlags: schema.CacheTypeData | schema.CacheTypeCPU},
				},
			},
			{
				Properties: schema.NodeProperties{
					NodeID:           1,
					SIMDCount:        144,
					SIMDPerCU:        2,
					MaxWavesPerSIMD:  16,
					DeviceID:         0x73BF,
					LocationID:       768,
					KFDGPUID:         54321,
					LDSSizeKB:        64,
					GFXTargetVersion: 100300,
					MarketingName:    "AMD Radeon RX 6900 XT",
					EngineID:         schema.EngineID{Major: 10, Minor: 3},
				},
				MemBanks: []schema.MemoryBank{
					{HeapType: schema.HeapFrameBufferPublic, SizeBytes: 16 << 30},
				},
				Caches: []schema.CacheInfo{
					{Level: 2, SizeBytes: 4 << 20, TypeFlags: schema.CacheTypeData | schema.CacheTypeHSACU},
					{Level: 1, SizeBytes: 0, TypeFlags: schema.CacheTypeData},
				},
			},
		},
	}
}

func TestIterateAgents(t *testing.T) {
	runtime := newRuntime(testSnapshot(), kfd.Version{Major: 1, Minor: 14})

	major, minor := runtime.Version()
	if major != 1 || minor != 14 {
		t.Errorf("Version() = %d.%d, want 1.14", major, minor)
	}

	var types []DeviceType
	var names []string
	err := runtime.IterateAgents(func(agent Agent) error {
		types = append(types, agent.Type())
		names = append(names, agent.Name())
		return nil
	})
	if err != nil {
		t.Fatalf("IterateAgents: %v", err)
	}
	if len(types) != 2 || types[0] != DeviceTypeCPU || types[1] != DeviceTypeGPU {
		t.Errorf("agent types = %v, want [CPU GPU]", types)
	}
	if names[1] != "AMD Radeon RX 6900 XT" {
		t.Errorf("GPU name = %q", names[1])
	}
}

func TestIterateAgentsAborts(t *testing.T) {
	runtime := newRuntime(testSnapshot(), kfd.Version{})
	sentinel := errors.New("stop")

	calls := 0
	err := runtime.IterateAgents(func(Agent) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times after abort, want 1", calls)
	}
}

func TestAgentDerivedValues(t *testing.T) {
	runtime := newRuntime(testSnapshot(), kfd.Version{})
	var gpu Agent
	runtime.IterateAgents(func(agent Agent) error {
		if agent.Type() == DeviceTypeGPU {
			gpu = agent
		}
		return nil
	})

	if got := gpu.ComputeUnits(); got != 72 {
		t.Errorf("ComputeUnits = %d, want 72", got)
	}
	if got := gpu.WavesPerSIMD(); got != 16 {
		t.Errorf("WavesPerSIMD = %d, want 16", got)
	}
	if got := gpu.ChipID(); got != 0x73BF {
		t.Errorf("ChipID = %#x, want 0x73bf", got)
	}
}

func TestRegionClassification(t *testing.T) {
	cases := []struct {
		heap           schema.HeapType
		segment        Segment
		hostAccessible bool
	}{
		{schema.HeapSystem, SegmentGlobal, true},
		{schema.HeapFrameBufferPublic, SegmentGlobal, false},
		{schema.HeapGPULDS, SegmentGroup, false},
		{schema.HeapGPUGDS, SegmentGroup, false},
		{schema.HeapGPUScratch, SegmentPrivate, false},
		{schema.HeapDeviceSVM, SegmentGlobal, true},
		{schema.HeapMMIORemap, SegmentGlobal, true},
	}
	for _, c := range cases {
		region := regionFromBank(schema.MemoryBank{HeapType: c.heap, SizeBytes: 1})
		if region.Segment != c.segment {
			t.Errorf("%v segment = %v, want %v", c.heap, region.Segment, c.segment)
		}
		if region.HostAccessible != c.hostAccessible {
			t.Errorf("%v host accessible = %v, want %v", c.heap, region.HostAccessible, c.hostAccessible)
		}
	}
}

func TestMergeApertures(t *testing.T) {
	snapshot := testSnapshot()
	mergeApertures(snapshot, []kfd.Apertures{{
		GPUID:        54321,
		ScratchBase:  0x1000000,
		ScratchLimit: 0x1FFFFFF,
		GPUVMBase:    0x200000000,
		GPUVMLimit:   0x3FFFFFFFF,
	}})

	gpu := snapshot.Nodes[1]
	heaps := make(map[schema.HeapType]uint64)
	for _, bank := range gpu.MemBanks {
		heaps[bank.HeapType] = bank.SizeBytes
	}

	if size := heaps[schema.HeapGPULDS]; size != 64*1024 {
		t.Errorf("LDS size = %d, want 65536", size)
	}
	if size := heaps[schema.HeapGPUScratch]; size != 0x1000000 {
		t.Errorf("scratch size = %d, want 16 MiB", size)
	}
	if size := heaps[schema.HeapDeviceSVM]; size != 0x200000000 {
		t.Errorf("SVM size = %d, want 8 GiB", size)
	}
	if size := heaps[schema.HeapMMIORemap]; size != 4096 {
		t.Errorf("MMIO size = %d, want 4096", size)
	}
	if gpu.Properties.MemBanksCount != uint32(len(gpu.MemBanks)) {
		t.Errorf("MemBanksCount = %d, want %d", gpu.Properties.MemBanksCount, len(gpu.MemBanks))
	}

	// The CPU node gains nothing.
	if len(snapshot.Nodes[0].MemBanks) != 1 {
		t.Errorf("CPU mem banks = %d, want 1", len(snapshot.Nodes[0].MemBanks))
	}
}

func TestMergeAperturesKaveri(t *testing.T) {
	snapshot := testSnapshot()
	gpu := &snapshot.Nodes[1].Properties
	gpu.GFXTargetVersion = 70000
	gpu.CPUCoresCount = 4 // APU

	mergeApertures(snapshot, nil)

	if got := snapshot.Nodes[1].MemBanks[0].HeapType; got != schema.HeapFrameBufferPrivate {
		t.Errorf("Kaveri frame buffer heap = %v, want FrameBuffer (Private)", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	runtime := newRuntime(testSnapshot(), kfd.Version{})
	if err := runtime.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := runtime.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := runtime.IterateAgents(func(Agent) error { return nil }); err == nil {
		t.Error("IterateAgents on closed runtime should fail")
	}
}
