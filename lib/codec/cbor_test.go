// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"

	"github.com/kfd-project/kfdinfo/lib/schema"
)

func TestDeterministicEncoding(t *testing.T) {
	snapshot := schema.Snapshot{
		GenerationID: 7,
		Nodes: []schema.Node{{
			Properties: schema.NodeProperties{NodeID: 0, CPUCoresCount: 8, MarketingName: "test"},
			MemBanks:   []schema.MemoryBank{{HeapType: schema.HeapSystem, SizeBytes: 1 << 30}},
		}},
	}

	first, err := Marshal(snapshot)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(snapshot)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same snapshot encoded to different bytes")
	}

	var decoded schema.Snapshot
	if err := Unmarshal(first, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.GenerationID != 7 || len(decoded.Nodes) != 1 {
		t.Errorf("round trip lost data: %+v", decoded)
	}
	if decoded.Nodes[0].Properties.MarketingName != "test" {
		t.Errorf("MarketingName = %q", decoded.Nodes[0].Properties.MarketingName)
	}
}

func TestDefaultMapType(t *testing.T) {
	data, err := Marshal(map[string]any{"key": "value"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Errorf("any-target decoded to %T, want map[string]any", decoded)
	}
}
