// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package hsa

import (
	"github.com/kfd-project/kfdinfo/lib/kfd"
	"github.com/kfd-project/kfdinfo/lib/schema"
)

// mmioRemapSize is the single remapped MMIO page.
const mmioRemapSize = 4096

// kaveriVersion is the gfx_target_version of the first supported
// APU generation, whose frame buffer the host cannot map.
const kaveriVersion = 70000

// svmBaselineVersion is the first GFX version whose address map
// always carries an SVM aperture, dGPU present or not.
const svmBaselineVersion = 90000

// mergeApertures appends the process aperture ranges to each GPU
// node's memory banks as virtual heaps, matching what the runtime
// reports to compute software: LDS and scratch on every GPU, SVM
// where the address map supports it, and the MMIO remap page.
func mergeApertures(snapshot *schema.Snapshot, apertures []kfd.Apertures) {
	byGPUID := make(map[uint32]kfd.Apertures, len(apertures))
	for _, entry := range apertures {
		byGPUID[entry.GPUID] = entry
	}

	hasDGPU := false
	for i := range snapshot.Nodes {
		properties := &snapshot.Nodes[i].Properties
		if properties.IsGPU() && properties.CPUCoresCount == 0 {
			hasDGPU = true
		}
	}

	for i := range snapshot.Nodes {
		node := &snapshot.Nodes[i]
		if !node.Properties.IsGPU() {
			continue
		}

		if node.Properties.GFXTargetVersion == kaveriVersion {
			for j := range node.MemBanks {
				if node.MemBanks[j].HeapType == schema.HeapFrameBufferPublic {
					node.MemBanks[j].HeapType = schema.HeapFrameBufferPrivate
				}
			}
		}

		entry, ok := byGPUID[node.Properties.KFDGPUID]
		if !ok {
			continue
		}

		node.MemBanks = append(node.MemBanks, schema.MemoryBank{
			HeapType:  schema.HeapGPULDS,
			SizeBytes: uint64(node.Properties.LDSSizeKB) * 1024,
		})
		if entry.ScratchLimit > entry.ScratchBase {
			node.MemBanks = append(node.MemBanks, schema.MemoryBank{
				HeapType:  schema.HeapGPUScratch,
				SizeBytes: entry.ScratchLimit - entry.ScratchBase + 1,
			})
		}
		if hasDGPU || node.Properties.GFXTargetVersion >= svmBaselineVersion {
			if entry.GPUVMLimit > entry.GPUVMBase {
				node.MemBanks = append(node.MemBanks, schema.MemoryBank{
					HeapType:  schema.HeapDeviceSVM,
					SizeBytes: entry.GPUVMLimit - entry.GPUVMBase + 1,
				})
			}
		}
		node.MemBanks = append(node.MemBanks, schema.MemoryBank{
			HeapType:  schema.HeapMMIORemap,
			SizeBytes: mmioRemapSize,
		})
		node.Properties.MemBanksCount = uint32(len(node.MemBanks))
	}
}
