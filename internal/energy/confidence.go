// SPDX-License-Identifier: MIT
package energy

import "time"

// TransitionConfidence scores how much a caller should trust the current zone.
// Fresh transitions score low so that expensive effects wait for sustain.
func TransitionConfidence(ctx Context) float64 {
	since := ctx.SinceZoneChange()
	switch {
	case since < 100*time.Millisecond:
		return 0.2
	case since < 300*time.Millisecond:
		if ctx.Trend > 0.3 {
			return 0.6
		}
		return 0.4
	case since < 500*time.Millisecond:
		return 0.75
	default:
		return 1.0
	}
}

// IsProbablyVocal flags a jump from near-silence straight into a loud zone in
// under 150ms, the signature of a single shout or vocal entry rather than a
// band-wide rise.
func IsProbablyVocal(ctx Context) bool {
	fromQuiet := ctx.PreviousZone == Silence || ctx.PreviousZone == Valley
	toLoud := ctx.Zone >= Active
	return fromQuiet && toLoud && ctx.SinceZoneChange() < 150*time.Millisecond
}
