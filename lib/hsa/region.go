// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package hsa

import "github.com/kfd-project/kfdinfo/lib/schema"

// Segment is the memory segment a region belongs to.
type Segment int

const (
	// SegmentGlobal is memory addressable by every agent: system
	// RAM, frame buffer, SVM, and the MMIO remap page.
	SegmentGlobal Segment = iota

	// SegmentGroup is workgroup-local memory (LDS, GDS).
	SegmentGroup

	// SegmentPrivate is per-lane spill memory (scratch).
	SegmentPrivate
)

// String returns the display name of the segment.
func (s Segment) String() string {
	switch s {
	case SegmentGlobal:
		return "Global"
	case SegmentGroup:
		return "Group"
	default:
		return "Private"
	}
}

// Region is one memory region of an agent.
type Region struct {
	// Segment classifies the region; Heap is the underlying bank
	// type with its fixed display name.
	Segment Segment
	Heap    schema.HeapType

	// SizeBytes is the region capacity; for apertures, the address
	// range size rather than allocatable memory.
	SizeBytes uint64

	// HostAccessible reports whether the host can address the
	// region directly.
	HostAccessible bool

	// Aperture marks virtual address ranges merged from the
	// process aperture query.
	Aperture bool
}

// Name is the region's fixed display name.
func (r Region) Name() string { return r.Heap.String() }

// regionFromBank classifies one topology memory bank.
func regionFromBank(bank schema.MemoryBank) Region {
	region := Region{
		Heap:      bank.HeapType,
		SizeBytes: bank.SizeBytes,
		Aperture:  bank.HeapType.IsAperture(),
	}
	switch bank.HeapType {
	case schema.HeapGPULDS, schema.HeapGPUGDS:
		region.Segment = SegmentGroup
	case schema.HeapGPUScratch:
		region.Segment = SegmentPrivate
	default:
		region.Segment = SegmentGlobal
	}
	switch bank.HeapType {
	case schema.HeapSystem, schema.HeapDeviceSVM, schema.HeapMMIORemap:
		region.HostAccessible = true
	}
	return region
}
