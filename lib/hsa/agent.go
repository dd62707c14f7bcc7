// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package hsa

import "github.com/kfd-project/kfdinfo/lib/schema"

// DeviceType classifies an agent.
type DeviceType int

const (
	// DeviceTypeCPU is a host agent (a CPU socket).
	DeviceTypeCPU DeviceType = iota

	// DeviceTypeGPU is a compute agent. APUs count as GPU agents.
	DeviceTypeGPU

	// DeviceTypeOther is a node with neither CPU cores nor SIMDs,
	// such as a DSP exposed through the same driver.
	DeviceTypeOther
)

// String returns the display name of the device type.
func (t DeviceType) String() string {
	switch t {
	case DeviceTypeCPU:
		return "CPU"
	case DeviceTypeGPU:
		return "GPU"
	default:
		return "Other"
	}
}

// Agent is one compute agent of an open session.
type Agent struct {
	node *schema.Node
}

// Type classifies the agent by its node properties.
func (a Agent) Type() DeviceType {
	switch {
	case a.node.Properties.IsGPU():
		return DeviceTypeGPU
	case a.node.Properties.IsCPU():
		return DeviceTypeCPU
	default:
		return DeviceTypeOther
	}
}

// NodeID is the agent's topology node id.
func (a Agent) NodeID() uint32 { return a.node.Properties.NodeID }

// Name is the agent's product name. Falls back to the ASIC codename
// when no product name could be resolved, so it is never empty for a
// GPU agent.
func (a Agent) Name() string {
	if a.node.Properties.MarketingName != "" {
		return a.node.Properties.MarketingName
	}
	if a.node.Properties.ASICName != "" {
		return a.node.Properties.ASICName
	}
	return "Unknown Device"
}

// Properties exposes the full node attribute set for callers that
// need more than the iteration surface.
func (a Agent) Properties() *schema.NodeProperties { return &a.node.Properties }

// ComputeUnits is the agent's compute unit count (zero for CPUs).
func (a Agent) ComputeUnits() uint32 { return a.node.Properties.ComputeUnits() }

// SIMDCount is the total SIMD units.
func (a Agent) SIMDCount() uint32 { return a.node.Properties.SIMDCount }

// WavesPerSIMD is the wavefront slots per SIMD unit.
func (a Agent) WavesPerSIMD() uint32 { return a.node.Properties.MaxWavesPerSIMD }

// ChipID is the PCI device id.
func (a Agent) ChipID() uint32 { return a.node.Properties.DeviceID }

// LocationID is the packed PCI bus/device/function; Domain the PCI
// segment.
func (a Agent) LocationID() uint32 { return a.node.Properties.LocationID }

// Domain is the PCI domain (segment) number.
func (a Agent) Domain() uint32 { return a.node.Properties.Domain }

// EngineVersion is the decoded GFX IP version (zero value for CPUs).
func (a Agent) EngineVersion() schema.EngineID { return a.node.Properties.EngineID }

// IterateRegions calls fn for every memory region of the agent in
// bank order. An error from fn aborts the iteration and is returned
// unchanged.
func (a Agent) IterateRegions(fn func(Region) error) error {
	for _, bank := range a.node.MemBanks {
		if err := fn(regionFromBank(bank)); err != nil {
			return err
		}
	}
	return nil
}

// IterateCaches calls fn for every cache of the agent in reported
// order. An error from fn aborts the iteration and is returned
// unchanged.
func (a Agent) IterateCaches(fn func(Cache) error) error {
	for _, cache := range a.node.Caches {
		if err := fn(cache); err != nil {
			return err
		}
	}
	return nil
}

// Cache is the per-cache detail record.
type Cache = schema.CacheInfo
