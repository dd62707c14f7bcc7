// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package sensorui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kfd-project/kfdinfo/lib/drm"
)

func testRows(load uint32) []Row {
	return []Row{{
		NodeID:    1,
		Name:      "AMD Radeon RX 6900 XT",
		VRAMTotal: 16 << 30,
		IoctlOK:   true,
		Sample: drm.Sample{
			LoadPercent:       load,
			VRAMUsedBytes:     4 << 30,
			TemperatureMilliC: 65000,
			PowerWatts:        180,
			GFXClockMHz:       2105,
			MemClockMHz:       1000,
		},
	}}
}

func TestViewShowsRows(t *testing.T) {
	model := New(func() []Row { return testRows(37) }, time.Second)
	view := model.View()

	for _, want := range []string{"AMD Radeon RX 6900 XT", "37%", "4.0G/16.0G", "65.0C", "180W"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTickResamples(t *testing.T) {
	load := uint32(10)
	model := New(func() []Row { return testRows(load) }, time.Second)

	load = 90
	updated, cmd := model.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick should schedule the next refresh")
	}
	view := updated.(Model).View()
	if !strings.Contains(view, "90%") {
		t.Errorf("view not refreshed:\n%s", view)
	}
}

func TestQuitKey(t *testing.T) {
	model := New(func() []Row { return nil }, time.Second)
	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should produce a quit command")
	}
	if view := updated.(Model).View(); view != "" {
		t.Errorf("quitting view = %q, want empty", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 28); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	got := truncate("a very long marketing name indeed", 10)
	if len([]rune(got)) > 10 {
		t.Errorf("truncate produced %d runes: %q", len([]rune(got)), got)
	}
}
