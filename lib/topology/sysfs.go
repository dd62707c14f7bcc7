// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kfd-project/kfdinfo/lib/schema"
)

// readSysfsString reads a sysfs attribute and trims whitespace.
// Returns "" if the file cannot be read.
func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readSysfsUint parses a sysfs attribute as an unsigned integer.
// Returns 0 if the file is missing or malformed.
func readSysfsUint(path string) uint64 {
	value, err := strconv.ParseUint(readSysfsString(path), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// readGenerationID reads the topology generation counter.
func readGenerationID(root string) uint32 {
	return uint32(readSysfsUint(filepath.Join(root, "generation_id")))
}

// properties holds one parsed KFD properties file. Every line is
// "key value"; values are decimal except sibling_map, which is a
// comma-separated bit list.
type properties map[string]string

// readProperties parses a properties file. A missing file is an
// error: the driver always writes the file when the object exists.
func readProperties(path string) (properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	parsed := make(properties)
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		parsed[fields[0]] = fields[1]
	}
	return parsed, nil
}

// uint64Of returns the property as uint64, 0 when absent.
func (p properties) uint64Of(key string) uint64 {
	value, err := strconv.ParseUint(p[key], 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// uint32Of returns the property as uint32, 0 when absent.
func (p properties) uint32Of(key string) uint32 {
	return uint32(p.uint64Of(key))
}

// int32Of returns the property as int32, 0 when absent. Only
// drm_render_minor is signed (-1 means no render node).
func (p properties) int32Of(key string) int32 {
	value, err := strconv.ParseInt(p[key], 10, 32)
	if err != nil {
		return 0
	}
	return int32(value)
}

// numericSubdirs lists the numerically named subdirectories of dir in
// ascending order. The driver names nodes and their sub-objects 0..N
// but directory order is not guaranteed.
func numericSubdirs(dir string) []int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var indices []int
	for _, entry := range entries {
		index, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

// walkTopology reads the whole topology tree once. Enrichment and
// link synthesis happen afterwards, on a consistent snapshot.
func walkTopology(root string) (*schema.Snapshot, error) {
	snapshot := &schema.Snapshot{}

	if system, err := readProperties(filepath.Join(root, "system_properties")); err == nil {
		snapshot.System.PlatformOEM = system.uint32Of("platform_oem")
		snapshot.System.PlatformID = system.uint32Of("platform_id")
		snapshot.System.PlatformRev = system.uint32Of("platform_rev")
	}

	nodesDir := filepath.Join(root, "nodes")
	for _, index := range numericSubdirs(nodesDir) {
		node, err := readNode(filepath.Join(nodesDir, strconv.Itoa(index)), uint32(index))
		if err != nil {
			return nil, err
		}
		snapshot.Nodes = append(snapshot.Nodes, node)
	}
	if len(snapshot.Nodes) == 0 {
		return nil, fmt.Errorf("no topology nodes under %s", nodesDir)
	}
	return snapshot, nil
}

// readNode parses one nodes/N directory: properties plus the
// mem_banks, caches, io_links, and p2p_links sub-trees.
func readNode(dir string, id uint32) (schema.Node, error) {
	raw, err := readProperties(filepath.Join(dir, "properties"))
	if err != nil {
		return schema.Node{}, err
	}

	node := schema.Node{
		Properties: schema.NodeProperties{
			NodeID:                 id,
			CPUCoresCount:          raw.uint32Of("cpu_cores_count"),
			SIMDCount:              raw.uint32Of("simd_count"),
			MemBanksCount:          raw.uint32Of("mem_banks_count"),
			CachesCount:            raw.uint32Of("caches_count"),
			IOLinksCount:           raw.uint32Of("io_links_count"),
			P2PLinksCount:          raw.uint32Of("p2p_links_count"),
			CPUCoreIDBase:          raw.uint32Of("cpu_core_id_base"),
			SIMDIDBase:             raw.uint32Of("simd_id_base"),
			VendorID:               raw.uint32Of("vendor_id"),
			DeviceID:               raw.uint32Of("device_id"),
			LocationID:             raw.uint32Of("location_id"),
			Domain:                 raw.uint32Of("domain"),
			DRMRenderMinor:         raw.int32Of("drm_render_minor"),
			HiveID:                 raw.uint64Of("hive_id"),
			UniqueID:               raw.uint64Of("unique_id"),
			Capability:             raw.uint32Of("capability"),
			Capability2:            raw.uint32Of("capability2"),
			DebugProp:              raw.uint64Of("debug_prop"),
			MaxWavesPerSIMD:        raw.uint32Of("max_waves_per_simd"),
			LDSSizeKB:              raw.uint32Of("lds_size_in_kb"),
			GDSSizeKB:              raw.uint32Of("gds_size_in_kb"),
			WaveFrontSize:          raw.uint32Of("wave_front_size"),
			LocalMemSize:           raw.uint64Of("local_mem_size"),
			ArrayCount:             raw.uint32Of("array_count"),
			SIMDArraysPerEngine:    raw.uint32Of("simd_arrays_per_engine"),
			CUPerSIMDArray:         raw.uint32Of("cu_per_simd_array"),
			SIMDPerCU:              raw.uint32Of("simd_per_cu"),
			MaxSlotsScratchCU:      raw.uint32Of("max_slots_scratch_cu"),
			FWVersion:              raw.uint32Of("fw_version"),
			GFXTargetVersion:       raw.uint32Of("gfx_target_version"),
			NumSDMAEngines:         raw.uint32Of("num_sdma_engines"),
			NumSDMAXGMIEngines:     raw.uint32Of("num_sdma_xgmi_engines"),
			NumGWS:                 raw.uint32Of("num_gws"),
			NumSDMAQueuesPerEngine: raw.uint32Of("num_sdma_queues_per_engine"),
			NumCPQueues:            raw.uint32Of("num_cp_queues"),
			NumXCC:                 raw.uint32Of("num_xcc"),
			MaxEngineClkFCompute:   raw.uint32Of("max_engine_clk_fcompute"),
			MaxEngineClkCCompute:   raw.uint32Of("max_engine_clk_ccompute"),
		},
	}

	// Older kernels report 0 accelerator dies; there is always one.
	if node.Properties.NumXCC == 0 {
		node.Properties.NumXCC = 1
	}

	// The node's name file carries the ASIC family string ("vega10",
	// "navi31"). Enrichment may replace it with a product name.
	node.Properties.MarketingName = readSysfsString(filepath.Join(dir, "name"))

	// The KFD GPU handle lives in its own file.
	node.Properties.KFDGPUID = uint32(readSysfsUint(filepath.Join(dir, "gpu_id")))

	node.MemBanks = readMemBanks(filepath.Join(dir, "mem_banks"))
	node.Caches = readCaches(filepath.Join(dir, "caches"))
	node.IOLinks = readLinks(filepath.Join(dir, "io_links"))
	node.IOLinks = append(node.IOLinks, readLinks(filepath.Join(dir, "p2p_links"))...)
	return node, nil
}

// readMemBanks parses the mem_banks sub-tree in numeric order.
func readMemBanks(dir string) []schema.MemoryBank {
	var banks []schema.MemoryBank
	for _, index := range numericSubdirs(dir) {
		raw, err := readProperties(filepath.Join(dir, strconv.Itoa(index), "properties"))
		if err != nil {
			continue
		}
		banks = append(banks, schema.MemoryBank{
			HeapType:  schema.HeapType(raw.uint32Of("heap_type")),
			SizeBytes: raw.uint64Of("size_in_bytes"),
			Flags:     raw.uint32Of("flags"),
			WidthBits: raw.uint32Of("width"),
			MemClkMax: raw.uint32Of("mem_clk_max"),
		})
	}
	return banks
}

// readCaches parses the caches sub-tree. The driver reports size in
// kilobytes; it is normalized to bytes here so every size in the
// snapshot has one unit.
func readCaches(dir string) []schema.CacheInfo {
	var caches []schema.CacheInfo
	for _, index := range numericSubdirs(dir) {
		raw, err := readProperties(filepath.Join(dir, strconv.Itoa(index), "properties"))
		if err != nil {
			continue
		}
		caches = append(caches, schema.CacheInfo{
			ProcessorIDLow: raw.uint32Of("processor_id_low"),
			Level:          raw.uint32Of("level"),
			SizeBytes:      raw.uint32Of("size") * 1024,
			LineSize:       raw.uint32Of("cache_line_size"),
			LinesPerTag:    raw.uint32Of("cache_lines_per_tag"),
			Associativity:  raw.uint32Of("association"),
			LatencyCycles:  raw.uint32Of("latency"),
			TypeFlags:      raw.uint32Of("type"),
			SiblingMap:     parseSiblingMap(raw["sibling_map"]),
		})
	}
	return caches
}

// parseSiblingMap splits the comma-separated processor share list
// ("1,1,0,0"). Malformed entries become 0.
func parseSiblingMap(value string) []uint32 {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	siblings := make([]uint32, len(parts))
	for i, part := range parts {
		bit, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			continue
		}
		siblings[i] = uint32(bit)
	}
	return siblings
}

// readLinks parses an io_links or p2p_links sub-tree.
func readLinks(dir string) []schema.IOLink {
	var links []schema.IOLink
	for _, index := range numericSubdirs(dir) {
		raw, err := readProperties(filepath.Join(dir, strconv.Itoa(index), "properties"))
		if err != nil {
			continue
		}
		links = append(links, schema.IOLink{
			Type:                schema.IOLinkType(raw.uint32Of("type")),
			VersionMajor:        raw.uint32Of("version_major"),
			VersionMinor:        raw.uint32Of("version_minor"),
			NodeFrom:            raw.uint32Of("node_from"),
			NodeTo:              raw.uint32Of("node_to"),
			Weight:              raw.uint32Of("weight"),
			MinLatency:          raw.uint32Of("min_latency"),
			MaxLatency:          raw.uint32Of("max_latency"),
			MinBandwidth:        raw.uint32Of("min_bandwidth"),
			MaxBandwidth:        raw.uint32Of("max_bandwidth"),
			RecTransferSize:     raw.uint32Of("recommended_transfer_size"),
			RecSDMAEngineIDMask: raw.uint32Of("recommended_sdma_engine_id_mask"),
			Flags:               raw.uint32Of("flags"),
		})
	}
	return links
}
