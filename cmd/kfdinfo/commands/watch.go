// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/kfd-project/kfdinfo/cmd/kfdinfo/cli"
	"github.com/kfd-project/kfdinfo/lib/drm"
	"github.com/kfd-project/kfdinfo/lib/hsa"
	"github.com/kfd-project/kfdinfo/lib/sensorui"
)

// watchCommand is the live sensor view: one table row per GPU agent,
// refreshed on an interval.
func watchCommand() *cli.Command {
	var params struct {
		configParams
		Interval time.Duration `flag:"interval,i" desc:"sensor refresh interval (overrides config)"`
	}
	return &cli.Command{
		Name:    "watch",
		Summary: "live GPU utilization, VRAM, temperature, and clocks",
		Usage:   "kfdinfo watch [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("watch", &params)
		},
		Run: func(args []string) error {
			cfg, err := params.load()
			if err != nil {
				return err
			}
			interval := params.Interval
			if interval == 0 {
				interval, err = cfg.WatchInterval()
				if err != nil {
					return err
				}
			}

			switch cfg.Color {
			case "never":
				lipgloss.SetColorProfile(termenv.Ascii)
			case "always":
				lipgloss.SetColorProfile(termenv.TrueColor)
			}

			runtime, err := openRuntime(cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[-] %v\n", err)
				return &cli.ExitError{Code: 1}
			}
			defer runtime.Close()

			logger := cli.NewCommandLogger().With("command", "watch")

			// One watched device per GPU agent with a render node.
			type gpuEntry struct {
				nodeID    uint32
				name      string
				vramTotal uint64
				device    *drm.Device
			}
			var gpus []gpuEntry
			runtime.IterateAgents(func(agent hsa.Agent) error {
				properties := agent.Properties()
				if agent.Type() != hsa.DeviceTypeGPU || properties.DRMRenderMinor <= 0 {
					return nil
				}
				device, err := drm.OpenNode(properties.DRMRenderMinor)
				if err != nil {
					logger.Warn("render node unavailable, sensors limited to VRAM usage",
						"node", properties.NodeID, "error", err)
				}
				gpus = append(gpus, gpuEntry{
					nodeID:    properties.NodeID,
					name:      agent.Name(),
					vramTotal: properties.LocalMemSize,
					device:    device,
				})
				return nil
			})
			if len(gpus) == 0 {
				return fmt.Errorf("no GPU agents with render nodes to watch")
			}
			defer func() {
				for _, gpu := range gpus {
					gpu.device.Close()
				}
			}()

			sample := func() []sensorui.Row {
				rows := make([]sensorui.Row, 0, len(gpus))
				for _, gpu := range gpus {
					rows = append(rows, sensorui.Row{
						NodeID:    gpu.nodeID,
						Name:      gpu.name,
						VRAMTotal: gpu.vramTotal,
						Sample:    gpu.device.Sample(),
						IoctlOK:   gpu.device.CanQuery(),
					})
				}
				return rows
			}

			program := tea.NewProgram(sensorui.New(sample, interval))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("watch ui: %w", err)
			}
			return nil
		},
	}
}
