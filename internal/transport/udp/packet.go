// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"luxsync/internal/dropbridge"
	"luxsync/internal/energy"
	"luxsync/internal/pipeline"
)

/*
Status packet (BigEndian), PacketSize bytes:

	+----------+---------+--------------+------+-------+-------+-----------+--------+--------+
	| Field    | seq     | timestamp ms | zone | alert | force | intensity | energy | zScore |
	| Type     | uint32  | int64        | u8   | u8    | u8    | float32   | float32| float32|
	| Bytes    | 4       | 8            | 1    | 1     | 1     | 4         | 4      | 4      |
	+----------+---------+--------------+------+-------+-------+-----------+--------+--------+

Timestamp is the stream clock, not wall time. Alert is 0 none, 1 watching,
2 imminent, 3 activated. Force is 1 on the frame the drop bridge fired.
*/

// PacketSize is the encoded length of a Packet.
const PacketSize = 4 + 8 + 3 + 3*4

// ErrShortPacket is returned when decoding fewer than PacketSize bytes.
var ErrShortPacket = errors.New("udp: short packet")

// Packet is the decoded status datagram.
type Packet struct {
	Sequence  uint32
	Timestamp time.Duration // millisecond resolution on the wire
	Zone      energy.Zone
	Alert     dropbridge.AlertLevel
	Force     bool
	Intensity float32
	Energy    float32
	ZScore    float32
}

var alertCodes = []dropbridge.AlertLevel{
	dropbridge.AlertNone,
	dropbridge.AlertWatching,
	dropbridge.AlertImminent,
	dropbridge.AlertActivated,
}

func alertCode(a dropbridge.AlertLevel) uint8 {
	for i, v := range alertCodes {
		if v == a {
			return uint8(i)
		}
	}
	return 0
}

// PacketFromSnapshot extracts the status fields of a snapshot.
func PacketFromSnapshot(seq uint32, s pipeline.Snapshot) Packet {
	return Packet{
		Sequence:  seq,
		Timestamp: s.Frame.Timestamp,
		Zone:      s.Energy.Zone,
		Alert:     s.Bridge.AlertLevel,
		Force:     s.Bridge.ShouldForceStrike,
		Intensity: float32(s.Bridge.Intensity),
		Energy:    float32(s.Energy.Smoothed),
		ZScore:    float32(s.Memory.Energy.ZScore),
	}
}

// AppendBinary appends the wire encoding of p to b.
func (p Packet) AppendBinary(b []byte) ([]byte, error) {
	b = binary.BigEndian.AppendUint32(b, p.Sequence)
	b = binary.BigEndian.AppendUint64(b, uint64(p.Timestamp.Milliseconds()))
	var force uint8
	if p.Force {
		force = 1
	}
	b = append(b, uint8(p.Zone), alertCode(p.Alert), force)
	b = binary.BigEndian.AppendUint32(b, math.Float32bits(p.Intensity))
	b = binary.BigEndian.AppendUint32(b, math.Float32bits(p.Energy))
	b = binary.BigEndian.AppendUint32(b, math.Float32bits(p.ZScore))
	return b, nil
}

// MarshalBinary encodes p.
func (p Packet) MarshalBinary() ([]byte, error) {
	return p.AppendBinary(make([]byte, 0, PacketSize))
}

// UnmarshalBinary decodes a datagram produced by MarshalBinary.
func (p *Packet) UnmarshalBinary(b []byte) error {
	if len(b) < PacketSize {
		return ErrShortPacket
	}
	p.Sequence = binary.BigEndian.Uint32(b[0:4])
	p.Timestamp = time.Duration(int64(binary.BigEndian.Uint64(b[4:12]))) * time.Millisecond
	p.Zone = energy.Zone(b[12])
	p.Alert = dropbridge.AlertNone
	if int(b[13]) < len(alertCodes) {
		p.Alert = alertCodes[b[13]]
	}
	p.Force = b[14] == 1
	p.Intensity = math.Float32frombits(binary.BigEndian.Uint32(b[15:19]))
	p.Energy = math.Float32frombits(binary.BigEndian.Uint32(b[19:23]))
	p.ZScore = math.Float32frombits(binary.BigEndian.Uint32(b[23:27]))
	return nil
}
