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
	"github.com/kfd-project/kfdinfo/lib/config"
	"github.com/kfd-project/kfdinfo/lib/hsa"
)

// infoCommand is the one-shot diagnostics report: interface version,
// then one section per agent with its global memory banks and cache
// hierarchy. Any failure aborts with the underlying error on stderr
// and exit code 1.
func infoCommand() *cli.Command {
	var params struct {
		configParams
	}
	return &cli.Command{
		Name:    "info",
		Summary: "print the compute agent diagnostics report (default)",
		Usage:   "kfdinfo info [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("info", &params)
		},
		Run: func(args []string) error {
			cfg, err := params.load()
			if err != nil {
				return err
			}
			if err := runInfo(os.Stdout, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "[-] %v\n", err)
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

const sectionWidth = 60

func runInfo(w io.Writer, cfg *config.Config) error {
	banner := strings.Repeat("=", sectionWidth)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "             kfdinfo - Compute Agent Diagnostics")
	fmt.Fprintln(w, banner)

	fmt.Fprintln(w, "[+] Initializing runtime...")
	runtime, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	defer runtime.Close()

	major, minor := runtime.Version()
	fmt.Fprintf(w, "[+] KFD Interface Version: %d.%d\n", major, minor)

	fmt.Fprintln(w, "\n[+] Scanning System Agents...")

	separator := strings.Repeat("-", sectionWidth)
	err = runtime.IterateAgents(func(agent hsa.Agent) error {
		fmt.Fprintf(w, "\n%s\n", separator)
		fmt.Fprintf(w, " Node %d (%s)\n", agent.NodeID(), agent.Name())
		fmt.Fprintln(w, separator)

		switch agent.Type() {
		case hsa.DeviceTypeGPU:
			fmt.Fprintln(w, "    Type:          GPU")
			fmt.Fprintf(w, "    Compute Units: %d\n", agent.ComputeUnits())
			fmt.Fprintf(w, "    SIMDs:         %d\n", agent.SIMDCount())
			fmt.Fprintf(w, "    Waves/SIMD:    %d\n", agent.WavesPerSIMD())
			fmt.Fprintf(w, "    Chip ID:       0x%x\n", agent.ChipID())
			fmt.Fprintf(w, "    Location ID:   0x%x (Domain: %d)\n", agent.LocationID(), agent.Domain())
		case hsa.DeviceTypeCPU:
			fmt.Fprintln(w, "    Type:          CPU")
		default:
			fmt.Fprintln(w, "    Type:          Other")
		}

		fmt.Fprintln(w, "\n    Memory Banks:")
		bankIndex := 0
		if err := agent.IterateRegions(func(region hsa.Region) error {
			if region.Segment != hsa.SegmentGlobal {
				return nil
			}
			name := "FrameBuffer (VRAM)"
			if region.HostAccessible {
				name = "System"
			}
			fmt.Fprintf(w, "      [%d] %-20s Size: %d MB\n",
				bankIndex, name, region.SizeBytes/1024/1024)
			bankIndex++
			return nil
		}); err != nil {
			return err
		}

		fmt.Fprintln(w, "\n    Caches:")
		return agent.IterateCaches(func(cache hsa.Cache) error {
			if cache.SizeBytes == 0 {
				fmt.Fprintf(w, "      L%d Size: Unknown (Reported 0)\n", cache.Level)
			} else {
				fmt.Fprintf(w, "      L%d Size: %d KB\n", cache.Level, cache.SizeBytes/1024)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\n[+] Diagnostics Complete.")
	return nil
}
