// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

// Package sensorui renders the live GPU sensor table for the watch
// command: one row per GPU agent, refreshed on a fixed interval.
package sensorui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kfd-project/kfdinfo/lib/drm"
)

// Row is one GPU's identity and latest sensor sample.
type Row struct {
	NodeID    uint32
	Name      string
	VRAMTotal uint64
	Sample    drm.Sample

	// IoctlOK is false when the render node could not be opened;
	// only VRAM usage is live in that case.
	IoctlOK bool
}

// Sampler produces a fresh set of rows.
type Sampler func() []Row

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	rowStyle    = lipgloss.NewStyle()
	dimStyle    = lipgloss.NewStyle().Faint(true)
	hotStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// hotMilliC is the temperature threshold for highlighting, in
// millidegrees.
const hotMilliC = 90000

// tickMsg drives the refresh loop.
type tickMsg time.Time

// Model is the bubbletea model for the sensor table.
type Model struct {
	sample   Sampler
	interval time.Duration
	rows     []Row
	width    int
	quitting bool
}

// New creates the model with an initial sample already taken, so the
// first frame has data.
func New(sample Sampler, interval time.Duration) Model {
	return Model{
		sample:   sample,
		interval: interval,
		rows:     sample(),
	}
}

// Init schedules the first refresh.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles refresh ticks, resize, and quit keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		m.rows = m.sample()
		return m, m.tick()
	}
	return m, nil
}

// View renders the table.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("kfdinfo watch: GPU sensors"))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf(
		"%-4s %-28s %5s %14s %7s %6s %6s %6s",
		"Node", "Name", "Load", "VRAM", "Temp", "Power", "SCLK", "MCLK")))
	b.WriteString("\n")

	for _, row := range m.rows {
		line := fmt.Sprintf("%-4d %-28s %4d%% %14s %6.1fC %5dW %5dM %5dM",
			row.NodeID,
			truncate(row.Name, 28),
			row.Sample.LoadPercent,
			vramColumn(row),
			float64(row.Sample.TemperatureMilliC)/1000,
			row.Sample.PowerWatts,
			row.Sample.GFXClockMHz,
			row.Sample.MemClockMHz,
		)
		style := rowStyle
		if !row.IoctlOK {
			style = dimStyle
		} else if row.Sample.TemperatureMilliC >= hotMilliC {
			style = hotStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q to quit"))
	return b.String()
}

// vramColumn renders "used/total" in GiB.
func vramColumn(row Row) string {
	used := float64(row.Sample.VRAMUsedBytes) / (1 << 30)
	if row.VRAMTotal == 0 {
		return fmt.Sprintf("%.1fG/?", used)
	}
	return fmt.Sprintf("%.1fG/%.1fG", used, float64(row.VRAMTotal)/(1<<30))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
