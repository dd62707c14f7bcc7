// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "fmt"

// HeapType identifies the kind of memory a bank provides. Values 0-7
// mirror the thunk's HSA_HEAPTYPE_* encoding; the driver publishes
// 0 (system) and 1/2 (frame buffer) in sysfs, the rest are virtual
// apertures synthesized from /dev/kfd queries.
type HeapType uint32

const (
	// HeapSystem is host-visible system RAM.
	HeapSystem HeapType = 0

	// HeapFrameBufferPublic is device local memory (VRAM) that the
	// host can map.
	HeapFrameBufferPublic HeapType = 1

	// HeapFrameBufferPrivate is device local memory invisible to the
	// host. Only APUs of the Kaveri generation report this.
	HeapFrameBufferPrivate HeapType = 2

	// HeapGPUGDS is the global data share.
	HeapGPUGDS HeapType = 3

	// HeapGPULDS is the per-workgroup local data share aperture.
	HeapGPULDS HeapType = 4

	// HeapGPUScratch is the private (per-lane spill) aperture.
	HeapGPUScratch HeapType = 5

	// HeapDeviceSVM is the shared virtual memory aperture.
	HeapDeviceSVM HeapType = 6

	// HeapMMIORemap is the remapped MMIO page used for cache
	// coherence control.
	HeapMMIORemap HeapType = 7
)

// String returns the display name used by the topology report.
func (h HeapType) String() string {
	switch h {
	case HeapSystem:
		return "System"
	case HeapFrameBufferPublic:
		return "FrameBuffer (VRAM)"
	case HeapFrameBufferPrivate:
		return "FrameBuffer (Private)"
	case HeapGPUGDS:
		return "GDS"
	case HeapGPULDS:
		return "LDS (Group)"
	case HeapGPUScratch:
		return "Scratch (Private)"
	case HeapDeviceSVM:
		return "SVM"
	case HeapMMIORemap:
		return "MMIO Remap"
	default:
		return fmt.Sprintf("Unknown (%d)", uint32(h))
	}
}

// IsAperture reports whether the heap is a virtual address aperture
// rather than physical memory. Aperture sizes describe address space,
// not allocatable bytes.
func (h HeapType) IsAperture() bool {
	switch h {
	case HeapGPULDS, HeapGPUScratch, HeapDeviceSVM, HeapMMIORemap:
		return true
	default:
		return false
	}
}

// IOLinkType identifies the physical interconnect of an IO link.
// Values mirror the driver's HSA_IOLINKTYPE_* encoding.
type IOLinkType uint32

const (
	// LinkUndefined is used for synthesized indirect links whose hops
	// cross interconnect types.
	LinkUndefined IOLinkType = 0

	// LinkPCIe is a PCI Express link.
	LinkPCIe IOLinkType = 2

	// LinkXGMI is an XGMI (Infinity Fabric) link between GPUs.
	LinkXGMI IOLinkType = 3

	// LinkNUMA is a link between CPU NUMA domains.
	LinkNUMA IOLinkType = 4

	// LinkQPI is an Intel QPI 1.1 socket interconnect.
	LinkQPI IOLinkType = 5
)

// String returns the display name used by the topology report.
func (t IOLinkType) String() string {
	switch t {
	case LinkPCIe:
		return "PCIe"
	case LinkXGMI:
		return "XGMI"
	case LinkNUMA:
		return "NUMA"
	case LinkQPI:
		return "QPI"
	default:
		return "Indirect/Other"
	}
}

// Cache type bit flags from the driver's caches/N/properties "type"
// field. A cache may be both data and instruction (unified).
const (
	CacheTypeData        uint32 = 1 << 0
	CacheTypeInstruction uint32 = 1 << 1
	CacheTypeCPU         uint32 = 1 << 2
	CacheTypeHSACU       uint32 = 1 << 3
)

// SystemProperties mirrors the topology directory's system_properties
// file plus the derived timestamp resolution.
type SystemProperties struct {
	// PlatformOEM, PlatformID, and PlatformRev identify the platform
	// as encoded by the firmware CRAT/ACPI tables. Zero on most
	// consumer boards.
	PlatformOEM uint32 `json:"platform_oem" cbor:"1,keyasint"`
	PlatformID  uint32 `json:"platform_id" cbor:"2,keyasint"`
	PlatformRev uint32 `json:"platform_rev" cbor:"3,keyasint"`

	// NumNodes is the number of topology nodes after enumeration.
	NumNodes uint32 `json:"num_nodes" cbor:"4,keyasint"`

	// TimestampFrequency is the system counter frequency in Hz,
	// derived from the monotonic clock resolution.
	TimestampFrequency uint64 `json:"timestamp_frequency" cbor:"5,keyasint"`
}

// EngineID is the decoded GFX IP version of a GPU node (e.g. 9.4.2
// for Aldebaran).
type EngineID struct {
	Major    uint32 `json:"major" cbor:"1,keyasint"`
	Minor    uint32 `json:"minor" cbor:"2,keyasint"`
	Stepping uint32 `json:"stepping" cbor:"3,keyasint"`
}

// String formats the version as "major.minor.stepping".
func (e EngineID) String() string {
	return fmt.Sprintf("%d.%d.%d", e.Major, e.Minor, e.Stepping)
}

// Version packs the engine id into the decimal encoding used by the
// driver's gfx_target_version (90402 for 9.4.2).
func (e EngineID) Version() uint32 {
	return e.Major*10000 + e.Minor*100 + e.Stepping
}

// NodeProperties holds every attribute the driver publishes in a
// node's properties file, plus enrichment computed during snapshot
// (names, engine id, register file sizes).
type NodeProperties struct {
	// NodeID is the node's index in enumeration order.
	NodeID uint32 `json:"node_id" cbor:"1,keyasint"`

	// CPUCoresCount is the number of CPU cores on this node. Zero
	// for dGPU nodes.
	CPUCoresCount uint32 `json:"cpu_cores_count" cbor:"2,keyasint"`

	// SIMDCount is the total number of SIMD units. Zero for CPU
	// nodes; a node with both CPU cores and SIMDs is an APU.
	SIMDCount uint32 `json:"simd_count" cbor:"3,keyasint"`

	// MemBanksCount, CachesCount, IOLinksCount, and P2PLinksCount are
	// the sub-object counts as reported (and adjusted when indirect
	// links or apertures are added).
	MemBanksCount uint32 `json:"mem_banks_count" cbor:"4,keyasint"`
	CachesCount   uint32 `json:"caches_count" cbor:"5,keyasint"`
	IOLinksCount  uint32 `json:"io_links_count" cbor:"6,keyasint"`
	P2PLinksCount uint32 `json:"p2p_links_count,omitempty" cbor:"7,keyasint,omitempty"`

	// CPUCoreIDBase is the APIC id of the node's first CPU core.
	// Joins the node to /proc/cpuinfo for model-name enrichment.
	CPUCoreIDBase uint32 `json:"cpu_core_id_base,omitempty" cbor:"8,keyasint,omitempty"`

	// SIMDIDBase is the id of the node's first SIMD unit.
	SIMDIDBase uint32 `json:"simd_id_base,omitempty" cbor:"9,keyasint,omitempty"`

	// VendorID and DeviceID are the PCI identity of a GPU node.
	// DeviceID doubles as the chip id in the diagnostics report.
	VendorID uint32 `json:"vendor_id,omitempty" cbor:"10,keyasint,omitempty"`
	DeviceID uint32 `json:"device_id,omitempty" cbor:"11,keyasint,omitempty"`

	// LocationID is the PCI BDF encoded as (bus<<8)|(dev<<3)|func;
	// Domain is the PCI domain (segment) number.
	LocationID uint32 `json:"location_id,omitempty" cbor:"12,keyasint,omitempty"`
	Domain     uint32 `json:"domain,omitempty" cbor:"13,keyasint,omitempty"`

	// DRMRenderMinor is the minor number of the GPU's DRM render
	// node (128 => /dev/dri/renderD128). Zero for CPU nodes.
	DRMRenderMinor int32 `json:"drm_render_minor,omitempty" cbor:"14,keyasint,omitempty"`

	// HiveID groups GPUs connected by XGMI into a hive. Zero when
	// the GPU is not part of a hive.
	HiveID uint64 `json:"hive_id,omitempty" cbor:"15,keyasint,omitempty"`

	// UniqueID is the GPU's hardware serial, when exposed.
	UniqueID uint64 `json:"unique_id,omitempty" cbor:"16,keyasint,omitempty"`

	// KFDGPUID is the driver's handle for this GPU, used in every
	// /dev/kfd ioctl that targets a device. Zero for CPU nodes.
	KFDGPUID uint32 `json:"kfd_gpu_id,omitempty" cbor:"17,keyasint,omitempty"`

	// Capability and Capability2 are raw capability bit words.
	// DebugProp is the raw debug properties word.
	Capability  uint32 `json:"capability,omitempty" cbor:"18,keyasint,omitempty"`
	Capability2 uint32 `json:"capability2,omitempty" cbor:"19,keyasint,omitempty"`
	DebugProp   uint64 `json:"debug_prop,omitempty" cbor:"20,keyasint,omitempty"`

	// MaxWavesPerSIMD is the wavefront slots per SIMD unit.
	MaxWavesPerSIMD uint32 `json:"max_waves_per_simd,omitempty" cbor:"21,keyasint,omitempty"`

	// LDSSizeKB and GDSSizeKB are the local and global data share
	// sizes in kilobytes. WaveFrontSize is 32 or 64.
	LDSSizeKB     uint32 `json:"lds_size_in_kb,omitempty" cbor:"22,keyasint,omitempty"`
	GDSSizeKB     uint32 `json:"gds_size_in_kb,omitempty" cbor:"23,keyasint,omitempty"`
	WaveFrontSize uint32 `json:"wave_front_size,omitempty" cbor:"24,keyasint,omitempty"`

	// LocalMemSize is the device-local memory (VRAM) size in bytes.
	LocalMemSize uint64 `json:"local_mem_size,omitempty" cbor:"25,keyasint,omitempty"`

	// Shader array geometry: ArrayCount arrays total,
	// SIMDArraysPerEngine arrays per shader engine, CUPerSIMDArray
	// compute units per array, SIMDPerCU SIMD units per compute unit.
	ArrayCount          uint32 `json:"array_count,omitempty" cbor:"26,keyasint,omitempty"`
	SIMDArraysPerEngine uint32 `json:"simd_arrays_per_engine,omitempty" cbor:"27,keyasint,omitempty"`
	CUPerSIMDArray      uint32 `json:"cu_per_simd_array,omitempty" cbor:"28,keyasint,omitempty"`
	SIMDPerCU           uint32 `json:"simd_per_cu,omitempty" cbor:"29,keyasint,omitempty"`

	// MaxSlotsScratchCU is the scratch slot count per compute unit.
	MaxSlotsScratchCU uint32 `json:"max_slots_scratch_cu,omitempty" cbor:"30,keyasint,omitempty"`

	// FWVersion is the microcode (CP firmware) version.
	// GFXTargetVersion is the decimal-encoded GFX IP version.
	FWVersion        uint32 `json:"fw_version,omitempty" cbor:"31,keyasint,omitempty"`
	GFXTargetVersion uint32 `json:"gfx_target_version,omitempty" cbor:"32,keyasint,omitempty"`

	// SDMA engine and queue configuration.
	NumSDMAEngines         uint32 `json:"num_sdma_engines,omitempty" cbor:"33,keyasint,omitempty"`
	NumSDMAXGMIEngines     uint32 `json:"num_sdma_xgmi_engines,omitempty" cbor:"34,keyasint,omitempty"`
	NumGWS                 uint32 `json:"num_gws,omitempty" cbor:"35,keyasint,omitempty"`
	NumSDMAQueuesPerEngine uint32 `json:"num_sdma_queues_per_engine,omitempty" cbor:"36,keyasint,omitempty"`
	NumCPQueues            uint32 `json:"num_cp_queues,omitempty" cbor:"37,keyasint,omitempty"`

	// NumXCC is the accelerator complex die count (MI300 class);
	// normalized to 1 when the driver reports 0.
	NumXCC uint32 `json:"num_xcc,omitempty" cbor:"38,keyasint,omitempty"`

	// Peak engine clocks in MHz: FCompute for the GPU, CCompute for
	// the CPU side of an APU.
	MaxEngineClkFCompute uint32 `json:"max_engine_clk_fcompute,omitempty" cbor:"39,keyasint,omitempty"`
	MaxEngineClkCCompute uint32 `json:"max_engine_clk_ccompute,omitempty" cbor:"40,keyasint,omitempty"`

	// MarketingName is the product name: the sysfs "name" field,
	// refined via libdrm's amdgpu.ids for GPUs or /proc/cpuinfo for
	// CPUs. ASICName is the internal codename (e.g. "Vega10"), or a
	// "GFXxxxx" placeholder when the device id is unknown.
	MarketingName string `json:"marketing_name" cbor:"41,keyasint"`
	ASICName      string `json:"asic_name,omitempty" cbor:"42,keyasint,omitempty"`

	// EngineID is the decoded GFX IP version.
	EngineID EngineID `json:"engine_id" cbor:"43,keyasint"`

	// NumShaderBanks is ArrayCount / SIMDArraysPerEngine.
	NumShaderBanks uint32 `json:"num_shader_banks,omitempty" cbor:"44,keyasint,omitempty"`

	// SGPRSizePerCU and VGPRSizePerCU are the scalar and vector
	// register file sizes per compute unit in bytes, determined by
	// the GFX generation.
	SGPRSizePerCU uint32 `json:"sgpr_size_per_cu,omitempty" cbor:"45,keyasint,omitempty"`
	VGPRSizePerCU uint32 `json:"vgpr_size_per_cu,omitempty" cbor:"46,keyasint,omitempty"`
}

// IsGPU reports whether the node has compute SIMDs.
func (p *NodeProperties) IsGPU() bool { return p.SIMDCount > 0 }

// IsCPU reports whether the node has CPU cores and no SIMDs. APUs
// (cores and SIMDs on one node) count as GPU agents.
func (p *NodeProperties) IsCPU() bool { return p.CPUCoresCount > 0 && p.SIMDCount == 0 }

// ComputeUnits derives the compute unit count from the SIMD totals.
// Zero when the node has no SIMDs or the driver omitted simd_per_cu.
func (p *NodeProperties) ComputeUnits() uint32 {
	if p.SIMDPerCU == 0 {
		return 0
	}
	return p.SIMDCount / p.SIMDPerCU
}

// MemoryBank describes one memory bank of a node.
type MemoryBank struct {
	// HeapType classifies the bank. SizeBytes is the bank size (for
	// apertures, the address range size).
	HeapType  HeapType `json:"heap_type" cbor:"1,keyasint"`
	SizeBytes uint64   `json:"size_in_bytes" cbor:"2,keyasint"`

	// Flags is the raw memory property flag word.
	Flags uint32 `json:"flags,omitempty" cbor:"3,keyasint,omitempty"`

	// WidthBits is the memory interface width; MemClkMax is the peak
	// memory clock in MHz. Both zero for virtual heaps.
	WidthBits uint32 `json:"width,omitempty" cbor:"4,keyasint,omitempty"`
	MemClkMax uint32 `json:"mem_clk_max,omitempty" cbor:"5,keyasint,omitempty"`
}

// CacheInfo describes one cache of a node.
type CacheInfo struct {
	// ProcessorIDLow is the id of the first processor covered by
	// this cache.
	ProcessorIDLow uint32 `json:"processor_id_low" cbor:"1,keyasint"`

	// Level is the cache level (1-3). SizeBytes is the capacity in
	// bytes (the driver reports KB; normalized during parsing).
	Level     uint32 `json:"cache_level" cbor:"2,keyasint"`
	SizeBytes uint32 `json:"cache_size" cbor:"3,keyasint"`

	// Geometry and timing as published by the driver.
	LineSize      uint32 `json:"cache_line_size,omitempty" cbor:"4,keyasint,omitempty"`
	LinesPerTag   uint32 `json:"cache_lines_per_tag,omitempty" cbor:"5,keyasint,omitempty"`
	Associativity uint32 `json:"cache_associativity,omitempty" cbor:"6,keyasint,omitempty"`
	LatencyCycles uint32 `json:"cache_latency,omitempty" cbor:"7,keyasint,omitempty"`

	// TypeFlags is a bitwise OR of the CacheType* constants.
	TypeFlags uint32 `json:"cache_type" cbor:"8,keyasint"`

	// SiblingMap lists which processors share this cache, one entry
	// per processor, 1 meaning shared.
	SiblingMap []uint32 `json:"sibling_map,omitempty" cbor:"9,keyasint,omitempty"`
}

// IOLink describes a connection from one node to another. Links are
// directional; the driver publishes each direction separately.
type IOLink struct {
	// Type is the interconnect kind; Undefined for synthesized
	// indirect links.
	Type IOLinkType `json:"type" cbor:"1,keyasint"`

	// VersionMajor and VersionMinor are the interconnect protocol
	// version, when the driver knows it.
	VersionMajor uint32 `json:"version_major,omitempty" cbor:"2,keyasint,omitempty"`
	VersionMinor uint32 `json:"version_minor,omitempty" cbor:"3,keyasint,omitempty"`

	// NodeFrom and NodeTo are topology node ids.
	NodeFrom uint32 `json:"node_from" cbor:"4,keyasint"`
	NodeTo   uint32 `json:"node_to" cbor:"5,keyasint"`

	// Weight is the routing cost (lower is closer; 20 or less means
	// a direct hop). Indirect links carry the sum of their hops.
	Weight uint32 `json:"weight" cbor:"6,keyasint"`

	// Latency and bandwidth envelope, zero when unknown.
	MinLatency   uint32 `json:"min_latency,omitempty" cbor:"7,keyasint,omitempty"`
	MaxLatency   uint32 `json:"max_latency,omitempty" cbor:"8,keyasint,omitempty"`
	MinBandwidth uint32 `json:"min_bandwidth,omitempty" cbor:"9,keyasint,omitempty"`
	MaxBandwidth uint32 `json:"max_bandwidth,omitempty" cbor:"10,keyasint,omitempty"`

	// RecTransferSize is the recommended transfer granularity in
	// bytes; RecSDMAEngineIDMask the recommended SDMA engines.
	RecTransferSize  uint32 `json:"recommended_transfer_size,omitempty" cbor:"11,keyasint,omitempty"`
	RecSDMAEngineIDMask uint32 `json:"recommended_sdma_engine_id_mask,omitempty" cbor:"12,keyasint,omitempty"`

	// Flags is the raw link flag word (atomics support, etc.).
	Flags uint32 `json:"flags,omitempty" cbor:"13,keyasint,omitempty"`

	// Indirect marks links synthesized by snapshot post-processing
	// rather than published by the driver.
	Indirect bool `json:"indirect,omitempty" cbor:"14,keyasint,omitempty"`
}

// Node is one topology node with its sub-objects.
type Node struct {
	Properties NodeProperties `json:"properties" cbor:"1,keyasint"`
	MemBanks   []MemoryBank   `json:"mem_banks,omitempty" cbor:"2,keyasint,omitempty"`
	Caches     []CacheInfo    `json:"caches,omitempty" cbor:"3,keyasint,omitempty"`
	IOLinks    []IOLink       `json:"io_links,omitempty" cbor:"4,keyasint,omitempty"`
}

// Snapshot is a complete topology capture.
type Snapshot struct {
	// CapturedAt is an ISO 8601 timestamp of the capture.
	CapturedAt string `json:"captured_at" cbor:"1,keyasint"`

	// KernelVersion is the running kernel release from uname(2).
	KernelVersion string `json:"kernel_version,omitempty" cbor:"2,keyasint,omitempty"`

	// GenerationID is the driver's topology generation counter at
	// capture time. It increments on hotplug and driver reload.
	GenerationID uint32 `json:"generation_id" cbor:"3,keyasint"`

	// System and Nodes are the captured topology.
	System SystemProperties `json:"system_properties" cbor:"4,keyasint"`
	Nodes  []Node           `json:"nodes" cbor:"5,keyasint"`
}
