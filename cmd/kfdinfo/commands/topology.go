// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kfd-project/kfdinfo/cmd/kfdinfo/cli"
	"github.com/kfd-project/kfdinfo/lib/schema"
)

// topologyCommand is the extended dump: everything the driver and the
// aperture queries report, per node.
func topologyCommand() *cli.Command {
	var params struct {
		cli.JSONOutput
		configParams
	}
	return &cli.Command{
		Name:    "topology",
		Summary: "print the full topology with links, heaps, and caches",
		Usage:   "kfdinfo topology [flags]",
		Examples: []cli.Example{
			{Description: "machine-readable dump", Command: "kfdinfo topology --json"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("topology", &params)
		},
		Run: func(args []string) error {
			cfg, err := params.load()
			if err != nil {
				return err
			}
			runtime, err := openRuntime(cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[-] %v\n", err)
				return &cli.ExitError{Code: 1}
			}
			defer runtime.Close()

			snapshot := runtime.Snapshot()
			if done, err := params.EmitJSON(snapshot); done {
				return err
			}
			major, minor := runtime.Version()
			printTopology(os.Stdout, snapshot, major, minor)
			return nil
		},
	}
}

func printTopology(w io.Writer, snapshot *schema.Snapshot, major, minor uint32) {
	fmt.Fprintf(w, "Kernel:            %s\n", snapshot.KernelVersion)
	fmt.Fprintf(w, "Interface Version: %d.%d\n", major, minor)
	fmt.Fprintf(w, "Generation ID:     %d\n", snapshot.GenerationID)
	fmt.Fprintf(w, "Platform:          oem %d, id %d, rev %d\n",
		snapshot.System.PlatformOEM, snapshot.System.PlatformID, snapshot.System.PlatformRev)
	fmt.Fprintf(w, "Nodes:             %d\n", snapshot.System.NumNodes)

	separator := strings.Repeat("-", sectionWidth)
	for i := range snapshot.Nodes {
		node := &snapshot.Nodes[i]
		properties := &node.Properties

		fmt.Fprintf(w, "\n%s\n", separator)
		fmt.Fprintf(w, " Node %d: %s\n", properties.NodeID, properties.MarketingName)
		fmt.Fprintln(w, separator)

		if properties.IsGPU() {
			fmt.Fprintf(w, "  ASIC:            %s (engine %s)\n", properties.ASICName, properties.EngineID)
			fmt.Fprintf(w, "  KFD GPU ID:      %d\n", properties.KFDGPUID)
			fmt.Fprintf(w, "  PCI:             device 0x%04x, location 0x%x, domain %d\n",
				properties.DeviceID, properties.LocationID, properties.Domain)
			fmt.Fprintf(w, "  Compute Units:   %d (%d SIMDs, wave size %d)\n",
				properties.ComputeUnits(), properties.SIMDCount, properties.WaveFrontSize)
			fmt.Fprintf(w, "  Shader Banks:    %d (%d arrays, %d CUs/array)\n",
				properties.NumShaderBanks, properties.ArrayCount, properties.CUPerSIMDArray)
			fmt.Fprintf(w, "  Registers/CU:    %s SGPR, %s VGPR\n",
				formatSize(uint64(properties.SGPRSizePerCU)), formatSize(uint64(properties.VGPRSizePerCU)))
			fmt.Fprintf(w, "  VRAM:            %s\n", formatSize(properties.LocalMemSize))
			fmt.Fprintf(w, "  Engine Clock:    %d MHz\n", properties.MaxEngineClkFCompute)
			if properties.NumXCC > 1 {
				fmt.Fprintf(w, "  XCC Dies:        %d\n", properties.NumXCC)
			}
			fmt.Fprintf(w, "  Render Minor:    %d\n", properties.DRMRenderMinor)
		} else {
			fmt.Fprintf(w, "  CPU Cores:       %d (APIC base %d)\n",
				properties.CPUCoresCount, properties.CPUCoreIDBase)
			fmt.Fprintf(w, "  Engine Clock:    %d MHz\n", properties.MaxEngineClkCCompute)
		}

		if len(node.MemBanks) > 0 {
			fmt.Fprintln(w, "\n  Memory Banks:")
			for j, bank := range node.MemBanks {
				note := ""
				if bank.HeapType.IsAperture() {
					note = " (Aperture)"
				}
				fmt.Fprintf(w, "    [%d] %-22s %s%s\n", j, bank.HeapType, formatSize(bank.SizeBytes), note)
			}
		}

		if len(node.Caches) > 0 {
			fmt.Fprintln(w, "\n  Caches:")
			for _, cache := range node.Caches {
				fmt.Fprintf(w, "    L%d %-12s %8s  line %d, %d-way\n",
					cache.Level, cacheKind(cache.TypeFlags),
					formatSize(uint64(cache.SizeBytes)), cache.LineSize, cache.Associativity)
			}
		}

		if len(node.IOLinks) > 0 {
			fmt.Fprintln(w, "\n  IO Links:")
			for _, link := range node.IOLinks {
				detail := fmt.Sprintf("weight %d", link.Weight)
				if link.MaxBandwidth > 0 {
					detail += fmt.Sprintf(", %d-%d MB/s", link.MinBandwidth, link.MaxBandwidth)
				}
				if link.MaxLatency > 0 {
					detail += fmt.Sprintf(", latency %d-%d ns", link.MinLatency, link.MaxLatency)
				}
				fmt.Fprintf(w, "    -> node %d over %s (%s)\n", link.NodeTo, link.Type, detail)
			}
		}
	}
}

// cacheKind renders the cache type flag bits.
func cacheKind(flags uint32) string {
	data := flags&schema.CacheTypeData != 0
	instruction := flags&schema.CacheTypeInstruction != 0
	switch {
	case data && instruction:
		return "Unified"
	case instruction:
		return "Instruction"
	default:
		return "Data"
	}
}
