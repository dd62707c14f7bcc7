// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"

	"github.com/kfd-project/kfdinfo/cmd/kfdinfo/cli"
	"github.com/kfd-project/kfdinfo/lib/codec"
	"github.com/kfd-project/kfdinfo/lib/schema"
)

// snapshotCommand serializes the topology for later comparison. The
// output format follows the file extension: .json, .cbor, or
// .cbor.zst; no file means JSON on stdout. The BLAKE3 digest of the
// canonical CBOR form goes to stderr so operators can compare
// machines at a glance, and --check compares a stored snapshot
// against the live topology.
func snapshotCommand() *cli.Command {
	var params struct {
		configParams
		Output string `flag:"output,o" desc:"snapshot file to write (.json, .cbor, .cbor.zst)"`
		Check  string `flag:"check" desc:"stored snapshot to compare against the live topology"`
	}
	return &cli.Command{
		Name:    "snapshot",
		Summary: "serialize the topology, or check a stored snapshot for drift",
		Usage:   "kfdinfo snapshot [flags]",
		Examples: []cli.Example{
			{Description: "write a compressed snapshot", Command: "kfdinfo snapshot -o topology.cbor.zst"},
			{Description: "detect hardware or driver drift since the last boot", Command: "kfdinfo snapshot --check topology.cbor.zst"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("snapshot", &params)
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

			if params.Check != "" {
				return checkSnapshot(params.Check, snapshot)
			}
			return writeSnapshot(params.Output, snapshot)
		},
	}
}

// canonicalDigest hashes the snapshot's deterministic CBOR form with
// capture-time fields cleared, so two captures of the same hardware
// and driver produce the same digest across boots.
func canonicalDigest(snapshot *schema.Snapshot) ([32]byte, error) {
	canonical := *snapshot
	canonical.CapturedAt = ""
	canonical.KernelVersion = ""
	data, err := codec.Marshal(&canonical)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return blake3.Sum256(data), nil
}

// writeSnapshot serializes to path (or stdout) and reports the
// canonical digest on stderr.
func writeSnapshot(path string, snapshot *schema.Snapshot) error {
	digest, err := canonicalDigest(snapshot)
	if err != nil {
		return err
	}

	if path == "" {
		if err := cli.WriteJSON(snapshot); err != nil {
			return err
		}
	} else if err := writeSnapshotFile(path, snapshot); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "BLAKE3: %s\n", hex.EncodeToString(digest[:]))
	return nil
}

func writeSnapshotFile(path string, snapshot *schema.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch {
	case strings.HasSuffix(path, ".cbor.zst"):
		compressor, err := zstd.NewWriter(file)
		if err != nil {
			return err
		}
		if err := codec.NewEncoder(compressor).Encode(snapshot); err != nil {
			compressor.Close()
			return fmt.Errorf("encode %s: %w", path, err)
		}
		if err := compressor.Close(); err != nil {
			return err
		}
	case strings.HasSuffix(path, ".cbor"):
		if err := codec.NewEncoder(file).Encode(snapshot); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	case strings.HasSuffix(path, ".json"):
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(snapshot); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported snapshot extension on %q (want .json, .cbor, or .cbor.zst)", path)
	}
	return file.Sync()
}

// readSnapshotFile loads a stored snapshot by extension.
func readSnapshotFile(path string) (*schema.Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snapshot schema.Snapshot
	switch {
	case strings.HasSuffix(path, ".cbor.zst"):
		decompressor, err := zstd.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer decompressor.Close()
		if err := codec.NewDecoder(decompressor).Decode(&snapshot); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case strings.HasSuffix(path, ".cbor"):
		if err := codec.NewDecoder(file).Decode(&snapshot); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case strings.HasSuffix(path, ".json"):
		if err := json.NewDecoder(file).Decode(&snapshot); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot extension on %q (want .json, .cbor, or .cbor.zst)", path)
	}
	return &snapshot, nil
}

// checkSnapshot compares a stored snapshot's canonical digest to the
// live topology. Drift is a handled non-zero exit, not an error.
func checkSnapshot(path string, live *schema.Snapshot) error {
	stored, err := readSnapshotFile(path)
	if err != nil {
		return err
	}

	storedDigest, err := canonicalDigest(stored)
	if err != nil {
		return err
	}
	liveDigest, err := canonicalDigest(live)
	if err != nil {
		return err
	}

	if storedDigest == liveDigest {
		fmt.Printf("match: topology unchanged since %s\n", stored.CapturedAt)
		return nil
	}
	fmt.Printf("drift: stored %s (captured %s), live %s\n",
		hex.EncodeToString(storedDigest[:8]), stored.CapturedAt,
		hex.EncodeToString(liveDigest[:8]))
	return &cli.ExitError{Code: 1}
}
