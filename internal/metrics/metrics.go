// SPDX-License-Identifier: MIT
// Package metrics exports pipeline decisions as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"luxsync/internal/memory"
	"luxsync/internal/pipeline"
	"luxsync/internal/transport"
)

const namespace = "luxsync"

// Recorder is a transport that updates Prometheus collectors from every
// snapshot.
type Recorder struct {
	frames          prometheus.Counter
	strikes         prometheus.Counter
	zone            prometheus.Gauge
	energy          prometheus.Gauge
	zScore          prometheus.Gauge
	percentile      prometheus.Gauge
	transitions     *prometheus.CounterVec
	anomalies       *prometheus.CounterVec
	sections        *prometheus.CounterVec
	sectionDuration prometheus.Histogram

	lastZone string
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_total",
			Help: "Frames processed by the pipeline.",
		}),
		strikes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "force_strikes_total",
			Help: "Drop bridge force strikes.",
		}),
		zone: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "energy_zone",
			Help: "Current energy zone index, 0 silence to 6 peak.",
		}),
		energy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "energy_effective",
			Help: "Effective energy after smoothing and peak hold.",
		}),
		zScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "energy_zscore",
			Help: "Rolling Z-score of effective energy.",
		}),
		percentile: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "energy_percentile",
			Help: "Percentile of raw energy within the recent window.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "zone_transitions_total",
			Help: "Energy zone changes by destination zone.",
		}, []string{"zone"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "anomalies_total",
			Help: "Frames flagged as anomalous by type.",
		}, []string{"type"}),
		sections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sections_total",
			Help: "Closed song sections by label.",
		}, []string{"section"}),
		sectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "section_duration_seconds",
			Help:    "Duration of closed song sections.",
			Buckets: []float64{4, 8, 16, 32, 64, 128},
		}),
	}

	for _, c := range []prometheus.Collector{
		r.frames, r.strikes, r.zone, r.energy, r.zScore, r.percentile,
		r.transitions, r.anomalies, r.sections, r.sectionDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Send updates the collectors. It never fails.
func (r *Recorder) Send(snap pipeline.Snapshot) error {
	r.frames.Inc()
	r.zone.Set(float64(snap.Energy.Zone))
	r.energy.Set(snap.Energy.Smoothed)
	r.zScore.Set(snap.Memory.Energy.ZScore)
	r.percentile.Set(float64(snap.Energy.Percentile))

	if z := snap.Energy.Zone.String(); z != r.lastZone {
		if r.lastZone != "" {
			r.transitions.WithLabelValues(z).Inc()
		}
		r.lastZone = z
	}
	if snap.Memory.Anomaly.IsAnomaly && snap.Memory.Anomaly.Type != memory.AnomalyNone {
		r.anomalies.WithLabelValues(string(snap.Memory.Anomaly.Type)).Inc()
	}
	if c := snap.Memory.ClosedSection; c != nil {
		r.sections.WithLabelValues(c.Type.String()).Inc()
		r.sectionDuration.Observe(c.Duration.Seconds())
	}
	if snap.Bridge.ShouldForceStrike {
		r.strikes.Inc()
	}
	return nil
}

// Close is a no-op; collectors stay registered.
func (r *Recorder) Close() error { return nil }

var _ transport.Transport = (*Recorder)(nil)
