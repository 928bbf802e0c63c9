// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync/atomic"

	"luxsync/internal/pipeline"
)

// Transport delivers pipeline snapshots to a consumer. Implementations must
// be safe for concurrent use and must not block the caller for long: the
// pipeline calls Send once per frame.
type Transport interface {
	Send(snap pipeline.Snapshot) error
	Close() error
}

// Fanout sends every snapshot to each transport in order.
type Fanout []Transport

// Send delivers to all transports and joins their errors.
func (f Fanout) Send(snap pipeline.Snapshot) error {
	var errs []error
	for _, t := range f {
		if err := t.Send(snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport, in reverse order of registration.
func (f Fanout) Close() error {
	var errs []error
	for i := len(f) - 1; i >= 0; i-- {
		if err := f[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ChannelTransport forwards snapshots to a buffered channel, dropping them
// when the reader falls behind.
type ChannelTransport struct {
	ch      chan pipeline.Snapshot
	dropped atomic.Uint64
}

// NewChannelTransport creates a transport whose channel holds size snapshots.
func NewChannelTransport(size int) *ChannelTransport {
	return &ChannelTransport{ch: make(chan pipeline.Snapshot, size)}
}

// C returns the receive side of the channel.
func (c *ChannelTransport) C() <-chan pipeline.Snapshot { return c.ch }

// Send enqueues the snapshot without blocking.
func (c *ChannelTransport) Send(snap pipeline.Snapshot) error {
	select {
	case c.ch <- snap:
	default:
		c.dropped.Add(1)
	}
	return nil
}

// Dropped returns the number of snapshots discarded because the channel was
// full.
func (c *ChannelTransport) Dropped() uint64 { return c.dropped.Load() }

// Close closes the channel. Send must not be called afterwards.
func (c *ChannelTransport) Close() error {
	close(c.ch)
	return nil
}

var (
	_ Transport = Fanout(nil)
	_ Transport = (*ChannelTransport)(nil)
)
