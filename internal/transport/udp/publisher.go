// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"sync"
	"time"

	"luxsync/internal/log"
	"luxsync/internal/pipeline"
	"luxsync/internal/transport"
)

// Publisher sends the latest status packet at a fixed interval and an extra
// packet immediately whenever the drop bridge fires. It runs in a separate
// goroutine managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // protects ticker and doneChan during Start/Stop

	stateMu  sync.Mutex // protects latest, hasState, seq and buf
	latest   pipeline.Snapshot
	hasState bool
	seq      uint32
	buf      []byte
}

// NewPublisher wraps sender. Non-positive intervals default to 33ms.
func NewPublisher(interval time.Duration, sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
		log.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	log.Infof("UDPPublisher: Initializing (Interval: %s, Packet: %d bytes)", interval, PacketSize)
	return &Publisher{
		sender:   sender,
		interval: interval,
		buf:      make([]byte, 0, PacketSize),
	}, nil
}

// Send records the snapshot as the current state. A force strike is sent
// right away rather than waiting for the next tick.
func (p *Publisher) Send(snap pipeline.Snapshot) error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.latest = snap
	p.hasState = true
	if snap.Bridge.ShouldForceStrike {
		return p.sendLocked()
	}
	return nil
}

// Start launches the ticker goroutine. Calling Start twice is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("UDPPublisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, done := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.tick()
			case <-done:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call twice.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	log.Debugf("UDPPublisher: Publisher goroutine finished.")
	return nil
}

// Sequence returns the number of packets sent so far.
func (p *Publisher) Sequence() uint32 {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.seq
}

func (p *Publisher) tick() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if !p.hasState {
		return
	}
	if err := p.sendLocked(); err != nil {
		log.Debugf("UDPPublisher: %v", err)
	}
}

func (p *Publisher) sendLocked() error {
	p.seq++
	pkt := PacketFromSnapshot(p.seq, p.latest)
	b, err := pkt.AppendBinary(p.buf[:0])
	if err != nil {
		return err
	}
	p.buf = b
	return p.sender.Send(b)
}

// Close stops the publisher and closes the sender.
func (p *Publisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}

var _ transport.Transport = (*Publisher)(nil)
