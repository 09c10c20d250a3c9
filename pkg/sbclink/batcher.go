// ABOUTME: Packet batcher for the transmit path
// ABOUTME: Groups encoded frames into escaped, flag-delimited Data packets
package sbclink

import "github.com/Sendspin/sbclink-go/pkg/protocol"

// DefaultFramesPerPacket is the batch size used by the radio's own sender
const DefaultFramesPerPacket = 4

// Batcher accumulates codec frames and emits one Data packet per batch
type Batcher struct {
	perPacket int
	frames    int
	buf       []byte
}

// NewBatcher creates a batcher; framesPerPacket <= 0 selects the default
func NewBatcher(framesPerPacket int) *Batcher {
	if framesPerPacket <= 0 {
		framesPerPacket = DefaultFramesPerPacket
	}
	return &Batcher{perPacket: framesPerPacket}
}

// FramesPerPacket returns the batch size
func (b *Batcher) FramesPerPacket() int {
	return b.perPacket
}

// Pending returns the number of frames waiting for a full batch
func (b *Batcher) Pending() int {
	return b.frames
}

// Add appends an encoded frame. When the batch is full it returns the
// packet's wire bytes, which stay valid until the next Add or Flush.
func (b *Batcher) Add(frame []byte) []byte {
	if b.frames == 0 {
		b.buf = append(b.buf[:0], protocol.FlagByte, byte(protocol.PacketData))
	}
	b.buf = protocol.AppendEscaped(b.buf, frame)
	b.frames++

	if b.frames < b.perPacket {
		return nil
	}
	return b.Flush()
}

// Flush returns the packet for a partial batch, or nil when nothing is pending
func (b *Batcher) Flush() []byte {
	if b.frames == 0 {
		return nil
	}
	b.frames = 0
	b.buf = append(b.buf, protocol.FlagByte)
	return b.buf
}
