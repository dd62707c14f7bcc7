// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package topology

// deviceIDRange maps a span of PCI device ids to an ASIC codename.
type deviceIDRange struct {
	lo, hi uint32
	name   string
}

// asicRanges covers the KFD-supported discrete and integrated parts.
// Spans follow the ids the amdgpu driver binds for each family; ids
// outside every span fall back to a GFX version placeholder.
var asicRanges = []deviceIDRange{
	// GFX7
	{0x1304, 0x131D, "Kaveri"},
	{0x67A0, 0x67B9, "Hawaii"},

	// GFX8
	{0x6920, 0x6939, "Tonga"},
	{0x7300, 0x730F, "Fiji"},
	{0x67C0, 0x67DF, "Polaris10"},
	{0x6FDF, 0x6FDF, "Polaris10"},
	{0x67E0, 0x67FF, "Polaris11"},
	{0x6980, 0x699F, "Polaris12"},
	{0x9870, 0x9877, "Carrizo"},

	// GFX9
	{0x6860, 0x687F, "Vega10"},
	{0x69A0, 0x69AF, "Vega12"},
	{0x66A0, 0x66AF, "Vega20"},
	{0x15DD, 0x15DD, "Raven"},
	{0x15D8, 0x15D8, "Raven"},
	{0x1636, 0x1638, "Renoir"},
	{0x164C, 0x164C, "Renoir"},
	{0x7388, 0x738E, "Arcturus"},
	{0x7408, 0x7410, "Aldebaran"},
	{0x74A0, 0x74BF, "Aqua Vanjaram"},

	// GFX10 (RDNA1/RDNA2)
	{0x7310, 0x731F, "Navi10"},
	{0x7340, 0x734F, "Navi14"},
	{0x73A0, 0x73BF, "Sienna Cichlid"},
	{0x73C0, 0x73DF, "Navy Flounder"},
	{0x73E0, 0x73FF, "Dimgrey Cavefish"},
	{0x7420, 0x743F, "Beige Goby"},
	{0x163F, 0x163F, "Van Gogh"},
	{0x164D, 0x164D, "Yellow Carp"},
	{0x1681, 0x1681, "Yellow Carp"},

	// GFX11 (RDNA3)
	{0x7448, 0x745F, "Navi31"},
	{0x747E, 0x747E, "Navi32"},
	{0x7480, 0x748F, "Navi33"},
	{0x15BF, 0x15C8, "Phoenix"},
	{0x150E, 0x150E, "Strix"},
}

// asicName resolves a PCI device id to its ASIC codename, or "".
func asicName(deviceID uint32) string {
	for _, span := range asicRanges {
		if deviceID >= span.lo && deviceID <= span.hi {
			return span.name
		}
	}
	return ""
}
