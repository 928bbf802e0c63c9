// SPDX-License-Identifier: MIT
package memory

import "luxsync/internal/section"

type transition struct {
	next section.Label
	p    float64
}

// transitions is the fixed next-section table. Rows are ordered so that ties
// resolve to the earlier entry.
var transitions = map[section.Label][]transition{
	section.Intro:     {{section.Verse, 0.6}, {section.Buildup, 0.3}, {section.Drop, 0.1}},
	section.Verse:     {{section.Chorus, 0.5}, {section.Buildup, 0.3}, {section.Bridge, 0.2}},
	section.Buildup:   {{section.Drop, 0.7}, {section.Chorus, 0.2}, {section.Breakdown, 0.1}},
	section.Chorus:    {{section.Verse, 0.4}, {section.Bridge, 0.2}, {section.Buildup, 0.2}, {section.Drop, 0.2}},
	section.Drop:      {{section.Breakdown, 0.5}, {section.Verse, 0.3}, {section.Outro, 0.2}},
	section.Breakdown: {{section.Buildup, 0.7}, {section.Verse, 0.2}, {section.Outro, 0.1}},
	section.Bridge:    {{section.Chorus, 0.4}, {section.Buildup, 0.4}, {section.Drop, 0.2}},
	section.Outro:     {{section.Outro, 1.0}},
	section.Unknown:   {{section.Verse, 0.4}, {section.Buildup, 0.3}, {section.Chorus, 0.3}},
}

// doubleBuildupDrop overrides the table once two buildups have stacked up.
const doubleBuildupDrop = 0.9

func predictNext(current section.Label, buildupStreak bool) (section.Label, float64) {
	if buildupStreak {
		return section.Drop, doubleBuildupDrop
	}
	row, ok := transitions[current]
	if !ok {
		row = transitions[section.Unknown]
	}
	best := row[0]
	for _, tr := range row[1:] {
		if tr.p > best.p {
			best = tr
		}
	}
	return best.next, best.p
}

// buildupStreak walks back from the current section and reports whether two
// buildups occur before any drop releases them.
func (m *Memory) buildupStreak() bool {
	count := 0
	if m.current.label == section.Buildup {
		count++
	} else if m.current.label == section.Drop {
		return false
	}
	for i := m.history.Len() - 1; i >= 0; i-- {
		switch m.history.At(i).Type {
		case section.Buildup:
			count++
		case section.Drop:
			return false
		}
		if count >= 2 {
			return true
		}
	}
	return count >= 2
}

func (m *Memory) recentDrop() bool {
	n := m.history.Len()
	for i := n - 1; i >= 0 && i >= n-m.cfg.RecentDropLookback; i-- {
		if m.history.At(i).Type == section.Drop {
			return true
		}
	}
	return false
}

// derivePhase maps clear-cut labels directly and pattern-matches the history
// for the ambiguous ones. Without a pattern the previous phase carries over.
func (m *Memory) derivePhase(label section.Label, buildupStreak bool) section.Phase {
	switch label {
	case section.Intro:
		return section.PhaseIntro
	case section.Outro:
		return section.PhaseOutro
	case section.Drop, section.Chorus:
		return section.PhaseClimax
	case section.Buildup:
		return section.PhaseBuilding
	case section.Breakdown:
		return section.PhaseRelease
	}
	switch {
	case buildupStreak:
		return section.PhaseBuilding
	case m.recentDrop():
		return section.PhaseRelease
	default:
		return m.phase
	}
}
