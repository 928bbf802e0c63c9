// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"luxsync/internal/pipeline"
	"luxsync/internal/section"
)

// Controls are the operator actions the monitor can trigger.
type Controls struct {
	Selector *section.Selector // nil when a cue sheet drives sections
	Reset    func()            // start a new track
}

type monitorKeys struct {
	Sections key.Binding
	Reset    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k monitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Sections, k.Reset, k.Help, k.Quit}
}

func (k monitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultMonitorKeys = monitorKeys{
	Sections: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8"), key.WithHelp("1-8", "set section")),
	Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new track")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type snapshotMsg pipeline.Snapshot

type streamClosedMsg struct{}

// MonitorModel shows the live decision state and forwards operator input.
type MonitorModel struct {
	snaps <-chan pipeline.Snapshot
	ctl   Controls

	snap       pipeline.Snapshot
	received   bool
	closed     bool
	strikes    int
	lastStrike time.Duration

	bar  progress.Model
	help help.Model
	keys monitorKeys
}

// NewMonitorModel reads snapshots from snaps until it is closed.
func NewMonitorModel(snaps <-chan pipeline.Snapshot, ctl Controls) MonitorModel {
	return MonitorModel{
		snaps: snaps,
		ctl:   ctl,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:  help.New(),
		keys:  defaultMonitorKeys,
	}
}

func waitForSnapshot(ch <-chan pipeline.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m MonitorModel) Init() tea.Cmd {
	return waitForSnapshot(m.snaps)
}

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(msg.Width-16, 10)
		m.help.Width = msg.Width

	case snapshotMsg:
		m.snap = pipeline.Snapshot(msg)
		m.received = true
		if m.snap.Bridge.ShouldForceStrike {
			m.strikes++
			m.lastStrike = m.snap.Frame.Timestamp
		}
		return m, waitForSnapshot(m.snaps)

	case streamClosedMsg:
		m.closed = true

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.Reset):
			if m.ctl.Reset != nil {
				m.ctl.Reset()
				m.strikes = 0
			}

		case key.Matches(msg, m.keys.Sections):
			if m.ctl.Selector != nil {
				idx := int(msg.String()[0] - '1')
				m.ctl.Selector.Set(section.Labels[idx])
			}
		}
	}
	return m, nil
}

func (m MonitorModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("luxsync monitor"))
	sb.WriteString("\n\n")

	switch {
	case m.closed:
		sb.WriteString(infoStyle.Render("Stream ended."))
	case !m.received:
		sb.WriteString(infoStyle.Render("Waiting for audio..."))
	default:
		sb.WriteString(m.renderState())
	}

	sb.WriteString("\n\n")
	if m.ctl.Selector != nil {
		sb.WriteString(m.renderSections())
		sb.WriteString("\n\n")
	}
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}

func (m MonitorModel) renderState() string {
	s := m.snap
	var sb strings.Builder

	sb.WriteString(row("Session", fmt.Sprintf("%s  track %d  frame %d", s.SessionID, s.Track, s.Sequence)))
	sb.WriteString(row("Clock", s.Frame.Timestamp.Truncate(time.Millisecond).String()))
	sb.WriteString(row("Energy", m.bar.ViewAs(s.Energy.Smoothed)+fmt.Sprintf(" %.2f", s.Energy.Smoothed)))
	sb.WriteString(row("Zone", zoneStyle(s.Energy.Zone).Render(s.Energy.Zone.String())+
		fmt.Sprintf("  p%d  trend %+.3f  confidence %.2f", s.Energy.Percentile, s.Energy.Trend, s.Confidence)))

	var flags []string
	if s.Energy.Transient {
		flags = append(flags, "transient")
	}
	if s.Energy.IsFlashbang {
		flags = append(flags, "flashbang")
	}
	if s.Energy.SustainedHigh {
		flags = append(flags, "sustained high")
	}
	if s.Energy.SustainedLow {
		flags = append(flags, "sustained low")
	}
	if s.Vocal {
		flags = append(flags, "vocal")
	}
	if s.Memory.Anomaly.IsAnomaly {
		flags = append(flags, string(s.Memory.Anomaly.Type))
	}
	sb.WriteString(row("Flags", strings.Join(flags, ", ")))

	warm := "warming up"
	if s.Memory.WarmedUp {
		warm = fmt.Sprintf("z %+.2f  mean %.2f  sd %.2f", s.Memory.Energy.ZScore, s.Memory.Energy.Mean, s.Memory.Energy.StdDev)
	}
	sb.WriteString(row("Stats", warm))
	sb.WriteString(row("Section", fmt.Sprintf("%s for %s  phase %s  next %s (%.0f%%)",
		s.Memory.Section, s.Memory.SectionDuration.Truncate(100*time.Millisecond),
		s.Memory.Phase, s.Memory.Predicted, s.Memory.PredictionProbability*100)))

	alert := alertStyle(s.Bridge.AlertLevel).Render(string(s.Bridge.AlertLevel))
	if s.Bridge.ShouldForceStrike {
		alert = strikeStyle.Render(fmt.Sprintf("STRIKE %.2f", s.Bridge.Intensity))
	}
	sb.WriteString(row("Bridge", alert+"  "+s.Bridge.Reason))

	strikes := fmt.Sprintf("%d", m.strikes)
	if m.strikes > 0 {
		strikes += fmt.Sprintf(" (last at %s)", m.lastStrike.Truncate(time.Millisecond))
	}
	sb.WriteString(row("Strikes", strikes))
	return sb.String()
}

func (m MonitorModel) renderSections() string {
	current := m.ctl.Selector.Current()
	parts := make([]string, 0, 8)
	for i, l := range section.Labels[:8] {
		item := fmt.Sprintf("%d %s", i+1, l)
		if l == current {
			item = highlightStyle.Render(item)
		}
		parts = append(parts, item)
	}
	return strings.Join(parts, "  ")
}

// RunMonitor blocks until the operator quits.
func RunMonitor(snaps <-chan pipeline.Snapshot, ctl Controls) error {
	p := tea.NewProgram(NewMonitorModel(snaps, ctl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
