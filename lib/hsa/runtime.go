// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

// Package hsa presents the machine's compute topology as a runtime
// session over agents, the shape compute software expects: open a
// session, query the interface version, iterate agents and their
// memory regions and caches, close.
//
// The session is built from a consistent sysfs topology snapshot.
// When /dev/kfd is accessible the session also carries the driver's
// interface version and the process aperture ranges, which appear as
// additional memory regions on each GPU agent; without device access
// the session degrades to what sysfs alone provides.
package hsa

import (
	"fmt"

	"github.com/kfd-project/kfdinfo/lib/kfd"
	"github.com/kfd-project/kfdinfo/lib/schema"
	"github.com/kfd-project/kfdinfo/lib/topology"
)

// Runtime is an open diagnostics session.
type Runtime struct {
	snapshot *schema.Snapshot
	device   *kfd.Device
	version  kfd.Version
}

// Init captures the topology and opens /dev/kfd when possible. A
// missing or inaccessible device node is not an error — the session
// still enumerates agents from sysfs, with a zero interface version
// and no aperture regions. A missing topology is an error: there is
// nothing to report without the driver.
func Init() (*Runtime, error) {
	return InitAt(topology.DefaultRoot, "/proc", "/sys", kfd.DevicePath)
}

// InitAt opens a session against relocated kernel interface mounts.
func InitAt(topologyRoot, procRoot, sysRoot, devicePath string) (*Runtime, error) {
	snapshot, err := topology.SnapshotAt(topologyRoot, procRoot, sysRoot)
	if err != nil {
		return nil, fmt.Errorf("initialize runtime: %w", err)
	}

	runtime := &Runtime{snapshot: snapshot}
	device, err := kfd.OpenPath(devicePath)
	if err != nil {
		return runtime, nil
	}
	runtime.device = device

	if version, err := device.GetVersion(); err == nil {
		runtime.version = version
	}
	if apertures, err := device.ProcessApertures(countGPUs(snapshot)); err == nil {
		mergeApertures(snapshot, apertures)
	}
	return runtime, nil
}

// newRuntime assembles a session from parts, for tests and for
// callers that already hold a snapshot.
func newRuntime(snapshot *schema.Snapshot, version kfd.Version) *Runtime {
	return &Runtime{snapshot: snapshot, version: version}
}

// Close releases the session. Idempotent.
func (r *Runtime) Close() error {
	r.snapshot = nil
	if r.device == nil {
		return nil
	}
	err := r.device.Close()
	r.device = nil
	return err
}

// Version returns the KFD ioctl interface version, or zeros when the
// device was not accessible.
func (r *Runtime) Version() (major, minor uint32) {
	return r.version.Major, r.version.Minor
}

// HasDevice reports whether /dev/kfd was opened.
func (r *Runtime) HasDevice() bool { return r.device != nil }

// Device returns the open KFD handle, or nil in sysfs-only mode.
func (r *Runtime) Device() *kfd.Device { return r.device }

// Snapshot returns the session's topology snapshot, including any
// merged aperture regions.
func (r *Runtime) Snapshot() *schema.Snapshot { return r.snapshot }

// IterateAgents calls fn for every agent in node-id order. An error
// from fn aborts the iteration and is returned unchanged.
func (r *Runtime) IterateAgents(fn func(Agent) error) error {
	if r.snapshot == nil {
		return fmt.Errorf("runtime is closed")
	}
	for i := range r.snapshot.Nodes {
		if err := fn(Agent{node: &r.snapshot.Nodes[i]}); err != nil {
			return err
		}
	}
	return nil
}

// countGPUs counts nodes with compute SIMDs.
func countGPUs(snapshot *schema.Snapshot) int {
	count := 0
	for i := range snapshot.Nodes {
		if snapshot.Nodes[i].Properties.IsGPU() {
			count++
		}
	}
	return count
}
