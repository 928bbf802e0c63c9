// SPDX-License-Identifier: MIT
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"luxsync/internal/dropbridge"
	"luxsync/internal/energy"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D7D7D")).
			Width(12)

	strikeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#E03C31")).
			Padding(0, 1).
			Bold(true)
)

// zoneColors runs from cold to hot across the energy ladder.
var zoneColors = map[energy.Zone]lipgloss.Color{
	energy.Silence: "#3C3C3C",
	energy.Valley:  "#3A6EA5",
	energy.Ambient: "#4E9A9A",
	energy.Gentle:  "#25A065",
	energy.Active:  "#E0A526",
	energy.Intense: "#E0662A",
	energy.Peak:    "#E03C31",
}

var alertColors = map[dropbridge.AlertLevel]lipgloss.Color{
	dropbridge.AlertNone:      "#7D7D7D",
	dropbridge.AlertWatching:  "#E0A526",
	dropbridge.AlertImminent:  "#E0662A",
	dropbridge.AlertActivated: "#E03C31",
}

func zoneStyle(z energy.Zone) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(zoneColors[z]).Bold(true)
}

func alertStyle(a dropbridge.AlertLevel) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(alertColors[a])
}
