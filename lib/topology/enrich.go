// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kfd-project/kfdinfo/lib/schema"
)

// enrich fills the derived node attributes that the driver does not
// publish directly: decoded engine versions, ASIC and marketing
// names, shader geometry, and register file sizes.
func enrich(snapshot *schema.Snapshot, procRoot, sysRoot string) {
	cpuModels := cpuModelsByAPICID(procRoot)

	gpuOrdinal := 0
	for i := range snapshot.Nodes {
		node := &snapshot.Nodes[i].Properties
		if node.IsGPU() {
			enrichGPU(node, gpuOrdinal, sysRoot)
			gpuOrdinal++
			continue
		}
		if model, ok := cpuModels[node.CPUCoreIDBase]; ok {
			node.MarketingName = model
		}
	}
}

// enrichGPU computes the GPU-only derived attributes. gpuOrdinal is
// the zero-based index among GPU nodes, used for the per-device
// engine version override variable.
func enrichGPU(node *schema.NodeProperties, gpuOrdinal int, sysRoot string) {
	node.EngineID = engineIDOf(node.GFXTargetVersion, gpuOrdinal)

	node.ASICName = asicName(node.DeviceID)
	if node.ASICName == "" {
		e := node.EngineID
		node.ASICName = fmt.Sprintf("GFX%d%x%x", e.Major, e.Minor, e.Stepping)
	}

	if node.SIMDArraysPerEngine > 0 {
		node.NumShaderBanks = node.ArrayCount / node.SIMDArraysPerEngine
	}
	node.SGPRSizePerCU = sgprSizePerCU
	node.VGPRSizePerCU = vgprSizePerCU(node.EngineID)

	if name := marketingName(node, sysRoot); name != "" {
		node.MarketingName = name
	}
	if node.MarketingName == "" {
		node.MarketingName = node.ASICName
	}
}

// engineIDOf decodes the driver's decimal gfx_target_version encoding
// (90402 -> 9.4.2). The HSA_OVERRIDE_GFX_VERSION environment variable
// (or its _N per-device form) replaces the reported version, matching
// the runtime's compatibility override.
func engineIDOf(version uint32, gpuOrdinal int) schema.EngineID {
	if override, ok := gfxOverride(gpuOrdinal); ok {
		return override
	}
	return schema.EngineID{
		Major:    version / 10000 % 100,
		Minor:    version / 100 % 100,
		Stepping: version % 100,
	}
}

// gfxOverride reads HSA_OVERRIDE_GFX_VERSION_<n> then
// HSA_OVERRIDE_GFX_VERSION, expecting "major.minor.stepping".
func gfxOverride(gpuOrdinal int) (schema.EngineID, bool) {
	for _, key := range []string{
		fmt.Sprintf("HSA_OVERRIDE_GFX_VERSION_%d", gpuOrdinal),
		"HSA_OVERRIDE_GFX_VERSION",
	} {
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		parts := strings.Split(value, ".")
		if len(parts) != 3 {
			continue
		}
		major, errMajor := strconv.ParseUint(parts[0], 10, 8)
		minor, errMinor := strconv.ParseUint(parts[1], 10, 8)
		stepping, errStepping := strconv.ParseUint(parts[2], 10, 8)
		if errMajor != nil || errMinor != nil || errStepping != nil {
			continue
		}
		return schema.EngineID{
			Major:    uint32(major),
			Minor:    uint32(minor),
			Stepping: uint32(stepping),
		}, true
	}
	return schema.EngineID{}, false
}

// sgprSizePerCU is the scalar register file size per compute unit.
// Constant across every supported GFX generation.
const sgprSizePerCU = 32 * 1024

// vgprSizePerCU returns the vector register file size per compute
// unit in bytes. Compute-optimized parts (MI100 stepping 9.0.8, the
// MI200/MI300 9.4.x family, 9.5.0) double the baseline; RDNA3 and
// later carry 1.5x.
func vgprSizePerCU(engine schema.EngineID) uint32 {
	switch {
	case engine.Major == 9 && engine.Minor == 0 && engine.Stepping == 8:
		return 512 * 1024
	case engine.Major == 9 && engine.Minor == 4:
		return 512 * 1024
	case engine.Major == 9 && engine.Minor == 5 && engine.Stepping == 0:
		return 512 * 1024
	case engine.Major >= 11:
		return 384 * 1024
	default:
		return 256 * 1024
	}
}
