// ABOUTME: Packet types and fixed control packets
// ABOUTME: Marshals packets to wire form and parses the bytes between two flags
package protocol

import (
	"errors"
	"fmt"
)

// PacketType is the first byte inside a packet
type PacketType byte

const (
	PacketData      PacketType = 0x00
	PacketStreamEnd PacketType = 0x01
	PacketAck       PacketType = 0x02
)

// ErrUnknownPacketType reports a type byte outside the known set
var ErrUnknownPacketType = errors.New("protocol: unknown packet type")

func (t PacketType) String() string {
	switch t {
	case PacketData:
		return "data"
	case PacketStreamEnd:
		return "stream-end"
	case PacketAck:
		return "ack"
	default:
		return fmt.Sprintf("type(0x%02x)", byte(t))
	}
}

// Valid reports whether t is a known packet type
func (t PacketType) Valid() bool {
	return t <= PacketAck
}

// Packet is one unescaped packet
type Packet struct {
	Type    PacketType
	Payload []byte
}

// controlPayload follows the type byte of stream start/end packets
var controlPayload = [8]byte{0x00, 0x01}

// ackPayload follows the type byte of acknowledgments
var ackPayload = [8]byte{}

// AppendPacket appends the wire form of a packet to dst
func AppendPacket(dst []byte, t PacketType, payload []byte) []byte {
	dst = append(dst, FlagByte)
	dst = AppendEscaped(dst, []byte{byte(t)})
	dst = AppendEscaped(dst, payload)
	return append(dst, FlagByte)
}

// Marshal returns the wire form of p
func (p Packet) Marshal() []byte {
	return AppendPacket(make([]byte, 0, EscapedLen(p.Payload)+3), p.Type, p.Payload)
}

// AckPacket returns the 11 byte acknowledgment sent after each data packet
func AckPacket() []byte {
	return AppendPacket(nil, PacketAck, ackPayload[:])
}

// ControlPacket returns the 11 byte packet that starts and ends a stream
func ControlPacket() []byte {
	return AppendPacket(nil, PacketStreamEnd, controlPayload[:])
}

// parsePacket decodes the bytes between two flags. raw is never empty.
// On a payload error the returned packet still carries its type.
func parsePacket(raw []byte) (Packet, error) {
	t := PacketType(raw[0])
	if !t.Valid() {
		return Packet{Type: t}, fmt.Errorf("%w: 0x%02x", ErrUnknownPacketType, raw[0])
	}
	payload, err := Unescape(raw[1:])
	if err != nil {
		return Packet{Type: t}, fmt.Errorf("%s packet: %w", t, err)
	}
	return Packet{Type: t, Payload: payload}, nil
}
