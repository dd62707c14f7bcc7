// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kfd-project/kfdinfo/lib/schema"
)

// amdgpuIDsPath is libdrm's product name database: one line per
// (device id, revision id) pair.
const amdgpuIDsPath = "/usr/share/libdrm/amdgpu.ids"

// marketingName resolves the product name of a GPU node from libdrm's
// database, keyed by PCI device id and revision. Returns "" when the
// device cannot be identified; callers fall back to the sysfs name.
func marketingName(node *schema.NodeProperties, sysRoot string) string {
	if node.DeviceID == 0 {
		return ""
	}
	revision, ok := pciRevision(sysRoot, node.Domain, node.LocationID)
	if !ok {
		return ""
	}
	return productNameFromIDs(amdgpuIDsPath, node.DeviceID, revision)
}

// pciRevision reads the PCI revision byte of the device at the given
// domain and KFD location id. The location id packs the BDF as
// (bus<<8)|(device<<3)|function.
func pciRevision(sysRoot string, domain, locationID uint32) (uint8, bool) {
	bus := locationID >> 8 & 0xFF
	device := locationID >> 3 & 0x1F
	function := locationID & 0x7

	path := filepath.Join(sysRoot,
		fmt.Sprintf("bus/pci/devices/%04x:%02x:%02x.%d/revision", domain, bus, device, function))
	value := readSysfsString(path)
	if value == "" {
		return 0, false
	}
	revision, err := strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 8)
	if err != nil {
		return 0, false
	}
	return uint8(revision), true
}

// productNameFromIDs scans an amdgpu.ids file for the given device id
// and revision. Lines are "DEVICE_ID, REVISION_ID, name" with hex ids;
// comments start with '#' and the version header line has no commas.
func productNameFromIDs(path string, deviceID uint32, revision uint8) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 3)
		if len(parts) != 3 {
			continue
		}
		lineDevice, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 16, 32)
		if err != nil {
			continue
		}
		lineRevision, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 16, 8)
		if err != nil {
			continue
		}
		if uint32(lineDevice) == deviceID && uint8(lineRevision) == revision {
			return strings.TrimSpace(parts[2])
		}
	}
	return ""
}
