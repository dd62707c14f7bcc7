// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kfd-project/kfdinfo/cmd/kfdinfo/cli"
	"github.com/kfd-project/kfdinfo/lib/config"
	"github.com/kfd-project/kfdinfo/lib/topology"
)

// checkResult is one doctor check outcome.
type checkResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// doctorCommand verifies the environment: driver presence, device
// node access, and render node access. Failed checks produce exit
// code 1; the report itself is the output.
func doctorCommand() *cli.Command {
	var params struct {
		cli.JSONOutput
		configParams
	}
	return &cli.Command{
		Name:    "doctor",
		Summary: "check driver, device node, and permission prerequisites",
		Usage:   "kfdinfo doctor [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("doctor", &params)
		},
		Run: func(args []string) error {
			cfg, err := params.load()
			if err != nil {
				return err
			}
			results := runChecks(cfg)

			failed := 0
			for _, result := range results {
				if !result.OK {
					failed++
				}
			}

			if done, err := params.EmitJSON(results); done {
				if err != nil {
					return err
				}
				if failed > 0 {
					return &cli.ExitError{Code: 1}
				}
				return nil
			}

			for _, result := range results {
				marker := "[+]"
				if !result.OK {
					marker = "[-]"
				}
				fmt.Printf("%s %-24s %s\n", marker, result.Name, result.Detail)
			}
			if failed > 0 {
				fmt.Printf("\n%d of %d checks failed\n", failed, len(results))
				return &cli.ExitError{Code: 1}
			}
			fmt.Printf("\nall %d checks passed\n", len(results))
			return nil
		},
	}
}

func runChecks(cfg *config.Config) []checkResult {
	var results []checkResult
	add := func(name string, ok bool, detail string) {
		results = append(results, checkResult{Name: name, OK: ok, Detail: detail})
	}

	// Topology sysfs tree: present means the driver is loaded.
	snapshot, err := topology.SnapshotAt(cfg.Paths.TopologyRoot, cfg.Paths.ProcRoot, cfg.Paths.SysRoot)
	if err != nil {
		add("kfd topology", false, err.Error())
		return results
	}
	gpus := 0
	for i := range snapshot.Nodes {
		if snapshot.Nodes[i].Properties.IsGPU() {
			gpus++
		}
	}
	add("kfd topology", true,
		fmt.Sprintf("%d nodes (%d GPUs), generation %d", len(snapshot.Nodes), gpus, snapshot.GenerationID))
	if gpus == 0 {
		add("gpu agents", false, "no GPU nodes in topology")
	}

	// Device node existence and access.
	devicePath := filepath.Join(cfg.Paths.DevRoot, "kfd")
	if _, err := os.Stat(devicePath); err != nil {
		add("device node", false, err.Error())
	} else if file, err := os.OpenFile(devicePath, os.O_RDWR, 0); err != nil {
		add("device node", false, accessHint(devicePath, err))
	} else {
		file.Close()
		add("device node", true, devicePath+" is accessible")
	}

	// Render nodes for each GPU agent.
	for i := range snapshot.Nodes {
		properties := &snapshot.Nodes[i].Properties
		if !properties.IsGPU() || properties.DRMRenderMinor <= 0 {
			continue
		}
		nodePath := filepath.Join(cfg.Paths.DevRoot, fmt.Sprintf("dri/renderD%d", properties.DRMRenderMinor))
		name := fmt.Sprintf("render node %d", properties.NodeID)
		if file, err := os.OpenFile(nodePath, os.O_RDWR, 0); err != nil {
			add(name, false, accessHint(nodePath, err))
		} else {
			file.Close()
			add(name, true, nodePath+" is accessible")
		}
	}

	// Product name database (optional but explains blank names).
	if _, err := os.Stat("/usr/share/libdrm/amdgpu.ids"); err != nil {
		add("amdgpu.ids", false, "libdrm product database missing; GPU names fall back to ASIC codenames")
	} else {
		add("amdgpu.ids", true, "product name database present")
	}

	return results
}

// accessHint augments a permission error with the owning group, the
// usual fix being membership in video or render.
func accessHint(path string, err error) string {
	if !os.IsPermission(err) {
		return err.Error()
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		return err.Error()
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return fmt.Sprintf("%v (add this user to the group owning gid %d, typically video or render)", err, stat.Gid)
	}
	return err.Error()
}
