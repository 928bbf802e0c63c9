package transport

import (
	"luxsync/internal/log"
	"luxsync/internal/pipeline"
)

// LoggingTransport reports decisions through the application logger: force
// strikes and closed sections at info, and a periodic status line at debug.
type LoggingTransport struct {
	every uint64
}

// NewLoggingTransport logs a debug status line every n snapshots (0 disables).
func NewLoggingTransport(n uint64) *LoggingTransport {
	log.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{every: n}
}

// Send logs the snapshot.
func (lt *LoggingTransport) Send(snap pipeline.Snapshot) error {
	if snap.Bridge.ShouldForceStrike {
		log.Infof("Transport: STRIKE %s intensity=%.2f z=%.2f section=%s",
			snap.Frame.Timestamp, snap.Bridge.Intensity, snap.Memory.Energy.ZScore, snap.Frame.Section)
	}
	if c := snap.Memory.ClosedSection; c != nil {
		log.Infof("Transport: section %s closed after %s (avg %.2f, peak %.2f)", c.Type, c.Duration, c.AvgEnergy, c.PeakEnergy)
	}
	if lt.every > 0 && snap.Sequence%lt.every == 0 {
		log.Debugf("Transport: #%d %s zone=%s energy=%.2f pct=%d phase=%s alert=%s",
			snap.Sequence, snap.Frame.Timestamp, snap.Energy.Zone, snap.Energy.Smoothed,
			snap.Energy.Percentile, snap.Memory.Phase, snap.Bridge.AlertLevel)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	log.Debugf("Transport: LoggingTransport closed")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
