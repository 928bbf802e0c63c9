package config

import (
	"fmt"

	"luxsync/internal/analysis"
	"luxsync/internal/pipeline"
)

func validateAnalysis(a analysis.Config) []error {
	var errs []error
	if a.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("analysis.frame_rate must be positive"))
	}
	if a.FFTSize < 16 {
		errs = append(errs, fmt.Errorf("analysis.fft_size %d must be at least 16", a.FFTSize))
	}
	if _, err := analysis.ParseWindowFunc(a.Window); err != nil {
		errs = append(errs, fmt.Errorf("analysis.window: %w", err))
	}
	if a.FloorDB >= 0 {
		errs = append(errs, fmt.Errorf("analysis.floor_db %.1f must be negative", a.FloorDB))
	}
	for _, b := range []analysis.Band{a.Bass, a.Harshness} {
		if b.LowHz < 0 || b.HighHz <= b.LowHz {
			errs = append(errs, fmt.Errorf("analysis band %s [%.0f, %.0f) is empty", b.Name, b.LowHz, b.HighHz))
		}
	}
	return errs
}

func validatePipeline(p pipeline.Config) []error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	unit := func(v float64) bool { return v >= 0 && v <= 1 }

	e := p.Energy
	edges := e.Zones.Edges()
	for i, v := range edges {
		if v <= 0 || v >= 1 || (i > 0 && v <= edges[i-1]) {
			bad("pipeline.energy.zones must be strictly increasing inside (0, 1), got %v", edges)
			break
		}
	}
	if e.RisingFactor < 0 || e.RisingFactor >= 1 || e.FallingFactor < 0 || e.FallingFactor >= 1 {
		bad("pipeline.energy rising/falling factors must be in [0, 1)")
	}
	if e.PeakHold < 0 || e.TransientPersist < 0 || e.FlashbangWindow < 0 {
		bad("pipeline.energy durations must not be negative")
	}
	if e.PeakDecayFast <= 0 || e.PeakDecayFast > 1 || e.PeakDecaySlow <= 0 || e.PeakDecaySlow > 1 {
		bad("pipeline.energy peak decays must be in (0, 1]")
	}
	if e.PercentileWindow < 1 || e.TrendWindow < 2 {
		bad("pipeline.energy percentile_window must be >= 1 and trend_window >= 2")
	}
	if e.PercentileWarmup < 0 || e.PercentileWarmup > e.PercentileWindow {
		bad("pipeline.energy.percentile_warmup %d outside [0, %d]", e.PercentileWarmup, e.PercentileWindow)
	}
	if !unit(e.SustainedHighThreshold) || !unit(e.SustainedLowThreshold) || e.SustainedLowThreshold >= e.SustainedHighThreshold {
		bad("pipeline.energy sustained thresholds must satisfy 0 <= low < high <= 1")
	}

	m := p.Memory
	if m.Stats.WindowSize < 2 {
		bad("pipeline.memory.stats.window_size %d must be at least 2", m.Stats.WindowSize)
	}
	if m.Stats.MinStdDev <= 0 {
		bad("pipeline.memory.stats.min_std_dev must be positive")
	}
	if m.SectionHistorySize < 1 || m.RecentDropLookback < 1 {
		bad("pipeline.memory section_history_size and recent_drop_lookback must be positive")
	}
	if m.TransientWindow <= 0 {
		bad("pipeline.memory.transient_window must be positive")
	}
	if !(0 < m.NotableThreshold && m.NotableThreshold < m.SignificantThreshold && m.SignificantThreshold < m.EpicThreshold) {
		bad("pipeline.memory thresholds must satisfy 0 < notable < significant < epic")
	}

	b := p.Bridge
	if !(b.WatchingZ <= b.ImminentZ && b.ImminentZ <= b.StrikeZ) {
		bad("pipeline.drop_bridge must satisfy watching_z <= imminent_z <= strike_z")
	}
	if b.ImminentFrames < 1 {
		bad("pipeline.drop_bridge.imminent_frames must be at least 1")
	}
	if !unit(b.MinEnergy) || !unit(b.BaseIntensity) || !unit(b.HarshnessTrigger) {
		bad("pipeline.drop_bridge min_energy, base_intensity and harshness_trigger must be in [0, 1]")
	}
	if b.Cooldown < 0 {
		bad("pipeline.drop_bridge.cooldown must not be negative")
	}
	if len(b.AllowedSections) == 0 {
		bad("pipeline.drop_bridge.allowed_sections must not be empty")
	}
	for _, l := range b.AllowedSections {
		if !l.Valid() {
			bad("pipeline.drop_bridge.allowed_sections: unknown label %q", l)
		}
	}
	return errs
}
