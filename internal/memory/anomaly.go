// SPDX-License-Identifier: MIT
package memory

import (
	"fmt"
	"math"

	"luxsync/internal/section"
	"luxsync/internal/stats"
)

// AnomalyType classifies the strongest deviation of the frame.
type AnomalyType string

const (
	AnomalyNone          AnomalyType = "none"
	AnomalySpike         AnomalyType = "spike"
	AnomalyDrop          AnomalyType = "drop"
	AnomalySustainedHigh AnomalyType = "sustained_high"
	AnomalySustainedLow  AnomalyType = "sustained_low"
	AnomalyTextureShift  AnomalyType = "texture_shift"
)

// Recommendation is the suggested reaction downstream.
type Recommendation string

const (
	Ignore      Recommendation = "ignore"
	Prepare     Recommendation = "prepare"
	Strike      Recommendation = "strike"
	ForceStrike Recommendation = "force_strike"
)

// Metric names a tracked metric.
type Metric string

const (
	MetricNone      Metric = ""
	MetricEnergy    Metric = "energy"
	MetricBass      Metric = "bass"
	MetricHarshness Metric = "harshness"
)

// AnomalyReport says whether the frame is statistically extraordinary and
// what to do about it. Recomputed every frame.
type AnomalyReport struct {
	IsAnomaly      bool           `json:"isAnomaly"`
	Type           AnomalyType    `json:"type"`
	Severity       float64        `json:"severity"` // max |Z| across tracked metrics
	TriggerMetric  Metric         `json:"triggerMetric"`
	Recommendation Recommendation `json:"recommendation"`
	Reason         string         `json:"reason"`
}

func detectAnomaly(cfg Config, energy, bass, harshness stats.MetricStats, label section.Label, warmedUp bool) AnomalyReport {
	if !warmedUp {
		return AnomalyReport{
			Type:           AnomalyNone,
			Recommendation: Ignore,
			Reason:         "statistics warming up",
		}
	}

	trigger, z := MetricEnergy, energy.ZScore
	if math.Abs(bass.ZScore) > math.Abs(z) {
		trigger, z = MetricBass, bass.ZScore
	}
	if math.Abs(harshness.ZScore) > math.Abs(z) {
		trigger, z = MetricHarshness, harshness.ZScore
	}
	severity := math.Abs(z)

	report := AnomalyReport{
		Severity:       severity,
		TriggerMetric:  trigger,
		Type:           AnomalyNone,
		Recommendation: Ignore,
	}

	if severity < cfg.NotableThreshold {
		switch {
		case energy.Min >= cfg.SustainedHighLevel:
			report.Type = AnomalySustainedHigh
			report.TriggerMetric = MetricEnergy
			report.Reason = fmt.Sprintf("energy held above %.2f for the whole window", cfg.SustainedHighLevel)
		case energy.Max <= cfg.SustainedLowLevel:
			report.Type = AnomalySustainedLow
			report.TriggerMetric = MetricEnergy
			report.Reason = fmt.Sprintf("energy held below %.2f for the whole window", cfg.SustainedLowLevel)
		default:
			report.TriggerMetric = MetricNone
			report.Reason = "within normal range"
		}
		return report
	}

	report.Type = AnomalySpike
	if z < 0 {
		report.Type = AnomalyDrop
	}
	if trigger == MetricHarshness && severity >= cfg.SignificantThreshold {
		report.Type = AnomalyTextureShift
	}

	switch {
	case severity < cfg.SignificantThreshold:
		report.Reason = fmt.Sprintf("notable %s %s (%.2f sigma)", trigger, report.Type, z)
	case severity < cfg.EpicThreshold:
		report.Recommendation = Prepare
		report.Reason = fmt.Sprintf("significant %s %s (%.2f sigma)", trigger, report.Type, z)
	default:
		report.IsAnomaly = true
		switch {
		case z > 0 && label == section.Drop:
			report.Recommendation = ForceStrike
			report.Reason = fmt.Sprintf("epic %s spike in drop (%.2f sigma)", trigger, z)
		case z > 0:
			report.Recommendation = Strike
			report.Reason = fmt.Sprintf("epic %s spike in %s (%.2f sigma)", trigger, label, z)
		default:
			report.Recommendation = Prepare
			report.Reason = fmt.Sprintf("statistically significant quiet moment in %s (%.2f sigma)", trigger, z)
		}
	}
	return report
}
