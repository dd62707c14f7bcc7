// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands defines the kfdinfo command tree.
package commands

import (
	"path/filepath"

	"github.com/kfd-project/kfdinfo/cmd/kfdinfo/cli"
	"github.com/kfd-project/kfdinfo/lib/config"
	"github.com/kfd-project/kfdinfo/lib/hsa"
)

// configParams is the shared --config parameter block.
type configParams struct {
	Config string `flag:"config" desc:"path to config file (overrides KFDINFO_CONFIG)"`
}

// load resolves the effective configuration.
func (p *configParams) load() (*config.Config, error) {
	if p.Config != "" {
		return config.LoadFile(p.Config)
	}
	return config.Load()
}

// openRuntime opens a diagnostics session against the configured
// kernel interface locations.
func openRuntime(cfg *config.Config) (*hsa.Runtime, error) {
	return hsa.InitAt(
		cfg.Paths.TopologyRoot,
		cfg.Paths.ProcRoot,
		cfg.Paths.SysRoot,
		filepath.Join(cfg.Paths.DevRoot, "kfd"),
	)
}

// Root builds the kfdinfo command tree. Running the bare binary is
// the same as "kfdinfo info".
func Root() *cli.Command {
	info := infoCommand()
	return &cli.Command{
		Name:    "kfdinfo",
		Summary: "AMD KFD compute topology diagnostics",
		Description: "kfdinfo inspects the compute topology the AMD KFD kernel driver\n" +
			"exposes on Linux: CPU and GPU agents, their memory banks, cache\n" +
			"hierarchies, and the IO links between them.",
		Usage: "kfdinfo [command] [flags]",
		Run:   info.Run,
		Flags: info.Flags,
		Subcommands: []*cli.Command{
			info,
			topologyCommand(),
			snapshotCommand(),
			watchCommand(),
			doctorCommand(),
			versionCommand(),
		},
	}
}
