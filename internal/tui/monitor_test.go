// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"luxsync/internal/dropbridge"
	"luxsync/internal/energy"
	"luxsync/internal/pipeline"
	"luxsync/internal/section"
)

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m MonitorModel, msg tea.Msg) (MonitorModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(MonitorModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

func TestMonitorReceivesSnapshots(t *testing.T) {
	ch := make(chan pipeline.Snapshot, 2)
	m := NewMonitorModel(ch, Controls{})

	if !strings.Contains(m.View(), "Waiting") {
		t.Errorf("initial view should wait for audio:\n%s", m.View())
	}

	ch <- pipeline.Snapshot{
		SessionID: "abc",
		Frame:     pipeline.Frame{Timestamp: 12 * time.Second},
		Energy:    energy.Context{Smoothed: 0.9, Zone: energy.Peak},
		Bridge:    dropbridge.Result{ShouldForceStrike: true, Intensity: 0.95, AlertLevel: dropbridge.AlertActivated},
	}
	msg := m.Init()()
	m, cmd := update(t, m, msg)
	if cmd == nil {
		t.Error("monitor should keep listening after a snapshot")
	}
	if m.strikes != 1 || m.lastStrike != 12*time.Second {
		t.Errorf("strikes = %d at %s", m.strikes, m.lastStrike)
	}

	view := m.View()
	for _, want := range []string{"abc", "peak", "STRIKE 0.95"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	close(ch)
	m, _ = update(t, m, cmd())
	if !m.closed || !strings.Contains(m.View(), "Stream ended") {
		t.Error("monitor should report the closed stream")
	}
}

func TestMonitorSectionKeys(t *testing.T) {
	sel := section.NewSelector(section.Unknown)
	m := NewMonitorModel(nil, Controls{Selector: sel})

	tests := []struct {
		key  rune
		want section.Label
	}{
		{'1', section.Intro},
		{'3', section.Buildup},
		{'5', section.Drop},
		{'8', section.Outro},
		{'9', section.Outro}, // unbound
	}
	for _, tt := range tests {
		m, _ = update(t, m, keyPress(tt.key))
		if got := sel.Current(); got != tt.want {
			t.Errorf("key %c: section = %s, want %s", tt.key, got, tt.want)
		}
	}
	if !strings.Contains(m.View(), "8 outro") {
		t.Errorf("view should list sections:\n%s", m.View())
	}
}

func TestMonitorResetAndQuit(t *testing.T) {
	resets := 0
	m := NewMonitorModel(nil, Controls{Reset: func() { resets++ }})
	m.strikes = 3

	m, _ = update(t, m, keyPress('r'))
	if resets != 1 || m.strikes != 0 {
		t.Errorf("resets = %d, strikes = %d", resets, m.strikes)
	}

	_, cmd := update(t, m, keyPress('q'))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
