// SPDX-License-Identifier: MIT
//
// Package section defines the musical section labels supplied by the upstream
// structure detector and the narrative phases derived from them.
package section

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLabel is returned by ParseLabel for names outside the label set.
var ErrUnknownLabel = errors.New("unknown section label")

// Label names the musical section the current frame belongs to.
type Label string

const (
	Unknown   Label = "unknown"
	Intro     Label = "intro"
	Verse     Label = "verse"
	Buildup   Label = "buildup"
	Chorus    Label = "chorus"
	Drop      Label = "drop"
	Breakdown Label = "breakdown"
	Bridge    Label = "bridge"
	Outro     Label = "outro"
)

// Labels lists every label in song order, Unknown last.
var Labels = []Label{Intro, Verse, Buildup, Chorus, Drop, Breakdown, Bridge, Outro, Unknown}

// ParseLabel converts a case-insensitive name to a Label. The empty string
// maps to Unknown so that missing upstream fields never fail a frame.
func ParseLabel(name string) (Label, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return Unknown, nil
	}
	if s == "build" || s == "build-up" || s == "build_up" {
		return Buildup, nil
	}
	for _, l := range Labels {
		if string(l) == s {
			return l, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownLabel, name)
}

// Valid reports whether l is one of the defined labels.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (l Label) String() string {
	if l == "" {
		return string(Unknown)
	}
	return string(l)
}

// MarshalText encodes the canonical name.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the same spellings as ParseLabel, which lets config
// files and cue sheets use labels directly.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Phase is the coarse narrative position within a track.
type Phase string

const (
	PhaseIntro    Phase = "intro"
	PhaseBuilding Phase = "building"
	PhaseClimax   Phase = "climax"
	PhaseRelease  Phase = "release"
	PhaseOutro    Phase = "outro"
)

// String implements fmt.Stringer.
func (p Phase) String() string { return string(p) }
