// ABOUTME: Flag-delimited packet protocol package
// ABOUTME: Byte stuffing, packet assembly and a packet connection over any byte stream
// Package protocol implements the packet framing used on audio links.
//
// Packets are delimited by the flag byte 0x7E on both ends. The first byte
// inside the flags is the packet type; the remainder is the payload with
// 0x7E and 0x7D byte-stuffed as 0x7D followed by the byte XOR 0x20:
//
//	7E 00 <escaped frames...> 7E      data
//	7E 01 00 01 00 00 00 00 00 00 7E  stream start / end
//	7E 02 00 00 00 00 00 00 00 00 7E  acknowledgment
//
// The transport is a plain byte stream without message boundaries, so an
// Assembler buffers reads and cuts packets at the flags.
//
// Example:
//
//	conn := protocol.NewConn(rw, protocol.DefaultMaxPacketSize)
//	pkt, err := conn.ReadPacket()
//	if pkt.Type == protocol.PacketData {
//	    err = conn.WriteAck()
//	}
package protocol
