// SPDX-License-Identifier: MIT
package energy

import "fmt"

// Zone is one of seven ordered energy bands.
type Zone int

const (
	Silence Zone = iota
	Valley
	Ambient
	Gentle
	Active
	Intense
	Peak
)

var zoneNames = [...]string{"silence", "valley", "ambient", "gentle", "active", "intense", "peak"}

// String implements fmt.Stringer.
func (z Zone) String() string {
	if z < Silence || z > Peak {
		return "unknown"
	}
	return zoneNames[z]
}

// MarshalText encodes the zone by name.
func (z Zone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText decodes a zone name.
func (z *Zone) UnmarshalText(text []byte) error {
	for i, name := range zoneNames {
		if name == string(text) {
			*z = Zone(i)
			return nil
		}
	}
	return fmt.Errorf("unknown energy zone %q", text)
}

// IsLow reports silence, valley and ambient. Promotion out of a low zone is
// judged against the raw value.
func (z Zone) IsLow() bool { return z <= Ambient }

// IsHigh reports intense and peak, the targets of a flashbang.
func (z Zone) IsHigh() bool { return z >= Intense }

// Boundaries holds the lower edge of every zone above silence. Values must be
// strictly increasing.
type Boundaries struct {
	Valley  float64 `yaml:"valley" json:"valley"`
	Ambient float64 `yaml:"ambient" json:"ambient"`
	Gentle  float64 `yaml:"gentle" json:"gentle"`
	Active  float64 `yaml:"active" json:"active"`
	Intense float64 `yaml:"intense" json:"intense"`
	Peak    float64 `yaml:"peak" json:"peak"`
}

// DefaultBoundaries splits [0,1] into 0.15 wide bands with peak at 0.90.
func DefaultBoundaries() Boundaries {
	return Boundaries{
		Valley:  0.15,
		Ambient: 0.30,
		Gentle:  0.45,
		Active:  0.60,
		Intense: 0.75,
		Peak:    0.90,
	}
}

// Classify maps an energy value to its zone.
func (b Boundaries) Classify(v float64) Zone {
	switch {
	case v >= b.Peak:
		return Peak
	case v >= b.Intense:
		return Intense
	case v >= b.Active:
		return Active
	case v >= b.Gentle:
		return Gentle
	case v >= b.Ambient:
		return Ambient
	case v >= b.Valley:
		return Valley
	default:
		return Silence
	}
}

// Edges returns the boundaries in ascending order.
func (b Boundaries) Edges() []float64 {
	return []float64{b.Valley, b.Ambient, b.Gentle, b.Active, b.Intense, b.Peak}
}
