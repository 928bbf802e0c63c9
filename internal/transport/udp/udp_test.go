// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"net"
	"testing"
	"time"

	"luxsync/internal/dropbridge"
	"luxsync/internal/energy"
	"luxsync/internal/memory"
	"luxsync/internal/pipeline"
	"luxsync/internal/stats"
)

func strikeSnapshot() pipeline.Snapshot {
	return pipeline.Snapshot{
		Frame:  pipeline.Frame{Timestamp: 12345 * time.Millisecond},
		Energy: energy.Context{Zone: energy.Peak, Smoothed: 0.95},
		Memory: memory.Output{Energy: stats.MetricStats{ZScore: 3.25}},
		Bridge: dropbridge.Result{
			ShouldForceStrike: true,
			Intensity:         0.8875,
			AlertLevel:        dropbridge.AlertActivated,
		},
	}
}

func TestPacketRoundTrip(t *testing.T) {
	want := PacketFromSnapshot(9, strikeSnapshot())
	b, err := want.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != PacketSize {
		t.Fatalf("encoded %d bytes, want %d", len(b), PacketSize)
	}

	// Fixed offsets consumers rely on.
	if b[3] != 9 || b[12] != uint8(energy.Peak) || b[13] != 3 || b[14] != 1 {
		t.Errorf("header bytes = % x", b[:15])
	}

	var got Packet
	if err := got.UnmarshalBinary(b); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestPacketShort(t *testing.T) {
	var p Packet
	if err := p.UnmarshalBinary(make([]byte, PacketSize-1)); !errors.Is(err, ErrShortPacket) {
		t.Errorf("error = %v, want ErrShortPacket", err)
	}
}

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readPacket(t *testing.T, conn *net.UDPConn) Packet {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var p Packet
	if err := p.UnmarshalBinary(buf[:n]); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPublisherSendsStrikeImmediately(t *testing.T) {
	conn := listen(t)
	sender, err := NewSender(conn.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	// Long interval so only the strike path can deliver.
	pub, err := NewPublisher(time.Hour, sender)
	if err != nil {
		t.Fatal(err)
	}
	pub.Start()
	defer pub.Close()

	if err := pub.Send(pipeline.Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if pub.Sequence() != 0 {
		t.Fatal("non-strike snapshot should wait for the ticker")
	}

	if err := pub.Send(strikeSnapshot()); err != nil {
		t.Fatal(err)
	}
	p := readPacket(t, conn)
	if !p.Force || p.Sequence != 1 || p.Timestamp != 12345*time.Millisecond {
		t.Errorf("strike packet = %+v", p)
	}
}

func TestPublisherTicks(t *testing.T) {
	conn := listen(t)
	sender, err := NewSender(conn.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	pub, err := NewPublisher(5*time.Millisecond, sender)
	if err != nil {
		t.Fatal(err)
	}
	snap := strikeSnapshot()
	snap.Bridge.ShouldForceStrike = false
	pub.Send(snap)
	pub.Start()
	pub.Start() // no-op

	first := readPacket(t, conn)
	second := readPacket(t, conn)
	if second.Sequence <= first.Sequence {
		t.Errorf("sequence did not advance: %d then %d", first.Sequence, second.Sequence)
	}
	if first.Force || first.Zone != energy.Peak {
		t.Errorf("status packet = %+v", first)
	}

	if err := pub.Close(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Stop(); err != nil {
		t.Errorf("second Stop = %v", err)
	}
	if err := sender.Send([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("send after close = %v, want ErrClosed", err)
	}
}

func TestNewPublisherNilSender(t *testing.T) {
	if _, err := NewPublisher(time.Second, nil); err == nil {
		t.Error("expected error for nil sender")
	}
}
