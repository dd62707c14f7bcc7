// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for kfdinfo.
//
// Configuration is loaded from a single file specified by:
//   - KFDINFO_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery: an unset variable
// and no flag means defaults. Every value in the file is optional.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the tool configuration. The zero value with Default()
// applied is what runs on a standard system; the file exists for
// containers and test rigs where kernel interfaces are remounted
// elsewhere.
type Config struct {
	// Paths overrides the kernel interface locations.
	Paths PathsConfig `yaml:"paths"`

	// Watch configures the live sensor view.
	Watch WatchConfig `yaml:"watch"`

	// Color forces terminal color on or off; "auto" (default)
	// detects a TTY.
	Color string `yaml:"color"`
}

// PathsConfig overrides where the kernel interfaces are mounted.
type PathsConfig struct {
	// TopologyRoot is the KFD topology directory.
	TopologyRoot string `yaml:"topology_root"`

	// ProcRoot and SysRoot are the procfs and sysfs mounts.
	ProcRoot string `yaml:"proc_root"`
	SysRoot  string `yaml:"sys_root"`

	// DevRoot is the device node directory holding kfd and dri/.
	DevRoot string `yaml:"dev_root"`
}

// WatchConfig configures the live sensor view.
type WatchConfig struct {
	// Interval between sensor samples, as a Go duration string.
	Interval string `yaml:"interval"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			TopologyRoot: "/sys/class/kfd/kfd/topology",
			ProcRoot:     "/proc",
			SysRoot:      "/sys",
			DevRoot:      "/dev",
		},
		Watch: WatchConfig{Interval: "1s"},
		Color: "auto",
	}
}

// Load reads configuration from the path in KFDINFO_CONFIG, or
// returns defaults when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv("KFDINFO_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a specific configuration file over the defaults.
// The file is the single source of truth — environment variables do
// not override its values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := c.WatchInterval(); err != nil {
		return err
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("color must be auto, always, or never (got %q)", c.Color)
	}
	if c.Paths.TopologyRoot == "" {
		return fmt.Errorf("paths.topology_root is required")
	}
	return nil
}

// WatchInterval parses the sensor sampling interval.
func (c *Config) WatchInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Watch.Interval)
	if err != nil {
		return 0, fmt.Errorf("watch.interval: %w", err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("watch.interval must be positive (got %s)", interval)
	}
	return interval, nil
}
