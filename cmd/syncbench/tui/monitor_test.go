package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

func sample(cpu, mem float64, sent uint64) types.ResourceSample {
	return types.ResourceSample{
		Time:       time.Date(2024, 1, 5, 10, 0, 0, 0, time.Local),
		CPUPercent: cpu,
		MemPercent: mem,
		BytesSent:  sent,
	}
}

func update(t *testing.T, m MonitorModel, msg tea.Msg) (MonitorModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(MonitorModel)
	require.True(t, ok)
	return mm, cmd
}

func TestNewMonitorModel(t *testing.T) {
	m := NewMonitorModel("system_usage.csv")

	assert.Equal(t, "system_usage.csv", m.output)
	assert.Zero(t, m.Count())
	assert.False(t, m.Quitting())
	assert.NotNil(t, m.Init())
}

func TestMonitorModel_Samples(t *testing.T) {
	m := NewMonitorModel("out.csv")

	m, _ = update(t, m, SampleMsg{Index: 1, Sample: sample(12.5, 40, uint64(types.MiB))})
	m, _ = update(t, m, SampleMsg{Index: 2, Sample: sample(95, 30, uint64(2*types.MiB))})

	assert.Equal(t, 2, m.Count())
	assert.InDelta(t, 95.0, m.peakCPU, 1e-9)
	assert.InDelta(t, 40.0, m.peakMem, 1e-9)
	assert.Len(t, m.recent, 2)

	view := m.View()
	assert.Contains(t, view, "syncbench monitor")
	assert.Contains(t, view, "95.0%")
	assert.Contains(t, view, "10:00:00")
}

func TestMonitorModel_KeepsRecentRows(t *testing.T) {
	m := NewMonitorModel("out.csv")
	for i := 1; i <= historyRows+5; i++ {
		m, _ = update(t, m, SampleMsg{Index: i, Sample: sample(float64(i), 1, 0)})
	}

	require.Len(t, m.recent, historyRows)
	assert.InDelta(t, float64(historyRows+5), m.recent[historyRows-1].CPUPercent, 1e-9)
	assert.InDelta(t, 6.0, m.recent[0].CPUPercent, 1e-9)
}

func TestMonitorModel_QuitKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		quit bool
	}{
		{name: "e", key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")}, quit: true},
		{name: "E", key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("E")}, quit: true},
		{name: "q", key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, quit: true},
		{name: "ctrl+c", key: tea.KeyMsg{Type: tea.KeyCtrlC}, quit: true},
		{name: "x", key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, quit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := update(t, NewMonitorModel("out.csv"), tt.key)
			assert.Equal(t, tt.quit, m.Quitting())
			if tt.quit {
				require.NotNil(t, cmd)
				assert.Equal(t, tea.Quit(), cmd())
			} else {
				assert.Nil(t, cmd)
			}
		})
	}
}

func TestMonitorModel_Done(t *testing.T) {
	m, cmd := update(t, NewMonitorModel("out.csv"), DoneMsg{Samples: 3, Elapsed: 1500 * time.Millisecond})
	require.NotNil(t, cmd)
	assert.True(t, m.done)
	assert.False(t, m.Quitting())

	m, _ = update(t, NewMonitorModel("out.csv"), DoneMsg{Err: errors.New("no counters")})
	assert.Contains(t, m.View(), "no counters")
}

func TestMonitorModel_WindowSize(t *testing.T) {
	m, _ := update(t, NewMonitorModel("out.csv"), tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
	assert.Contains(t, m.View(), "waiting for the first sample")
}
