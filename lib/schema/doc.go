// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the inventory types that describe a machine's
// compute topology as reported by the AMD KFD kernel driver: system
// properties, per-node properties (CPU and GPU agents), memory banks,
// cache hierarchies, and IO links.
//
// The types are plain data carriers with json and cbor tags. They are
// filled by lib/topology from sysfs, optionally enriched by lib/kfd
// with process apertures, and serialized by "kfdinfo snapshot" for
// drift detection across boots and driver upgrades.
//
// Enum-valued fields (heap types, IO link types, cache type flags)
// mirror the driver's numeric encoding and carry String() methods with
// the fixed display names used by the CLI report.
package schema
