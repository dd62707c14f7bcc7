// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

// Package topology captures the compute topology that the AMD KFD
// kernel driver publishes under /sys/class/kfd/kfd/topology: one node
// per CPU socket and per GPU, each with memory banks, caches, and IO
// links to its peers.
//
// Snapshot is the entry point. It walks the sysfs tree, enriches the
// raw attributes (engine version decode, ASIC and marketing names,
// register file sizes, CPU model names from /proc/cpuinfo), and
// synthesizes indirect IO links for node pairs the driver does not
// connect directly. The walk is retried while the driver's
// generation_id changes underneath it, so a snapshot is always
// internally consistent.
package topology

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kfd-project/kfdinfo/lib/schema"
)

// DefaultRoot is the KFD topology directory on a standard kernel.
const DefaultRoot = "/sys/class/kfd/kfd/topology"

// maxGenerationRetries bounds the consistency loop. The generation id
// only moves on GPU hotplug or driver reload; more than a handful of
// flips during one walk means something is badly wrong.
const maxGenerationRetries = 5

// ErrUnstable is returned when the topology keeps changing while it
// is being read.
var ErrUnstable = errors.New("topology generation id kept changing during enumeration")

// Snapshot captures the current topology from the live system.
func Snapshot() (*schema.Snapshot, error) {
	return snapshotFrom(DefaultRoot, "/proc", "/sys")
}

// SnapshotAt captures the topology from relocated kernel interface
// mounts (containers, test rigs).
func SnapshotAt(root, procRoot, sysRoot string) (*schema.Snapshot, error) {
	return snapshotFrom(root, procRoot, sysRoot)
}

// snapshotFrom is the testable implementation of Snapshot. It accepts
// the topology root and the /proc and /sys roots so tests can point at
// synthetic trees.
func snapshotFrom(root, procRoot, sysRoot string) (*schema.Snapshot, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("kfd topology unavailable (is the amdgpu driver loaded?): %w", err)
	}

	for attempt := 0; attempt <= maxGenerationRetries; attempt++ {
		before := readGenerationID(root)
		snapshot, err := walkTopology(root)
		if err != nil {
			return nil, err
		}
		if readGenerationID(root) != before {
			continue
		}

		snapshot.GenerationID = before
		snapshot.CapturedAt = time.Now().UTC().Format(time.RFC3339)
		snapshot.KernelVersion = kernelRelease()
		snapshot.System.NumNodes = uint32(len(snapshot.Nodes))
		snapshot.System.TimestampFrequency = timestampFrequency()

		enrich(snapshot, procRoot, sysRoot)
		addIndirectLinks(snapshot)
		return snapshot, nil
	}
	return nil, ErrUnstable
}

// kernelRelease returns the running kernel release from uname(2).
func kernelRelease() string {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return ""
	}
	var buffer []byte
	for _, value := range utsname.Release {
		if value == 0 {
			break
		}
		buffer = append(buffer, value)
	}
	return string(buffer)
}

// timestampFrequency derives the system counter frequency in Hz from
// the raw monotonic clock resolution, the same value the runtime
// reports to compute kernels as the system timestamp rate.
func timestampFrequency() uint64 {
	var resolution unix.Timespec
	if err := unix.ClockGetres(unix.CLOCK_MONOTONIC_RAW, &resolution); err != nil {
		return 0
	}
	nanos := uint64(resolution.Sec)*1e9 + uint64(resolution.Nsec)
	if nanos == 0 {
		return 0
	}
	return 1e9 / nanos
}
