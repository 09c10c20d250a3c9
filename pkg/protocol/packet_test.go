// ABOUTME: Tests for packet types and marshaling
// ABOUTME: Checks the fixed control packets and type validation
package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestFixedPackets(t *testing.T) {
	tests := []struct {
		name     string
		got      []byte
		expected []byte
	}{
		{"ack", AckPacket(), []byte{0x7E, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x7E}},
		{"control", ControlPacket(), []byte{0x7E, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x7E}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, tt.expected) {
				t.Errorf("expected % x, got % x", tt.expected, tt.got)
			}
		})
	}

	// Callers may modify the returned slices
	a := AckPacket()
	a[1] = 0xFF
	if AckPacket()[1] != 0x02 {
		t.Error("AckPacket returned shared storage")
	}
}

func TestPacketMarshal(t *testing.T) {
	p := Packet{Type: PacketData, Payload: []byte{0x9C, 0x7E, 0x00}}
	want := []byte{0x7E, 0x00, 0x9C, 0x7D, 0x5E, 0x00, 0x7E}
	if got := p.Marshal(); !bytes.Equal(got, want) {
		t.Errorf("expected % x, got % x", want, got)
	}
}

func TestParsePacket(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		typ     PacketType
		payload []byte
		err     error
	}{
		{"data", []byte{0x00, 0x9C, 0x7D, 0x5E}, PacketData, []byte{0x9C, 0x7E}, nil},
		{"stream end", []byte{0x01, 0x00, 0x01}, PacketStreamEnd, []byte{0x00, 0x01}, nil},
		{"ack", []byte{0x02, 0x00}, PacketAck, []byte{0x00}, nil},
		{"type only", []byte{0x00}, PacketData, []byte{}, nil},
		{"unknown", []byte{0x05, 0x01}, PacketType(0x05), nil, ErrUnknownPacketType},
		{"truncated escape", []byte{0x00, 0x01, 0x7D}, PacketData, nil, ErrTruncatedEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := parsePacket(tt.raw)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pkt.Type != tt.typ {
				t.Errorf("expected type %v, got %v", tt.typ, pkt.Type)
			}
			if tt.err == nil && !bytes.Equal(pkt.Payload, tt.payload) {
				t.Errorf("expected payload %x, got %x", tt.payload, pkt.Payload)
			}
		})
	}
}

func TestPacketTypeString(t *testing.T) {
	if PacketData.String() != "data" || PacketStreamEnd.String() != "stream-end" || PacketAck.String() != "ack" {
		t.Error("unexpected packet type names")
	}
	if PacketType(0x10).String() != "type(0x10)" {
		t.Errorf("unexpected unknown type name %q", PacketType(0x10).String())
	}
}
