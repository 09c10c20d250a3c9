// ABOUTME: Packet assembler for flag-delimited byte streams
// ABOUTME: Buffers raw transport bytes and cuts out one packet at a time
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"log"
)

// DefaultMaxPacketSize bounds the raw bytes between two flags
const DefaultMaxPacketSize = 4096

var (
	// ErrIncomplete means no end flag is buffered yet; feed more bytes
	ErrIncomplete = errors.New("protocol: incomplete packet")

	// ErrPacketTooLarge reports a packet longer than the configured maximum
	ErrPacketTooLarge = errors.New("protocol: packet too large")

	// ErrUnterminated accompanies ErrPacketTooLarge when the limit was hit
	// before an end flag, so the packet type cannot be trusted
	ErrUnterminated = errors.New("protocol: no end flag")
)

// AssemblerStats counts what the assembler has seen
type AssemblerStats struct {
	Packets   uint64 // packets cut, including ones that failed to parse
	Empty     uint64 // back-to-back flags
	Noise     uint64 // bytes discarded before a start flag
	Oversized uint64 // packets rejected by size
}

// Assembler finds packets in a byte stream. It is not safe for concurrent use.
type Assembler struct {
	buf       []byte
	maxPacket int
	stats     AssemblerStats
}

// NewAssembler creates an assembler; maxPacketSize <= 0 selects the default
func NewAssembler(maxPacketSize int) *Assembler {
	if maxPacketSize <= 0 {
		maxPacketSize = DefaultMaxPacketSize
	}
	return &Assembler{maxPacket: maxPacketSize}
}

// Feed appends transport bytes
func (a *Assembler) Feed(p []byte) {
	a.buf = append(a.buf, p...)
}

// Buffered returns the number of bytes not yet consumed
func (a *Assembler) Buffered() int {
	return len(a.buf)
}

// Stats returns a snapshot of the counters
func (a *Assembler) Stats() AssemblerStats {
	return a.stats
}

// Next returns the next complete packet. It returns ErrIncomplete when the
// buffer holds no end flag yet. Packets that fail to parse or exceed the
// size limit are consumed and returned with their type and the error;
// Delimited reports whether that type can be trusted.
func (a *Assembler) Next() (Packet, error) {
	for {
		start := bytes.IndexByte(a.buf, FlagByte)
		if start < 0 {
			a.discardNoise(len(a.buf))
			return Packet{}, ErrIncomplete
		}
		a.discardNoise(start)

		end := bytes.IndexByte(a.buf[1:], FlagByte) + 1
		if end == 0 {
			if len(a.buf)-1 > a.maxPacket {
				n := len(a.buf) - 1
				a.consume(len(a.buf))
				a.stats.Oversized++
				return Packet{}, fmt.Errorf("%w: %w after %d bytes (max %d)", ErrPacketTooLarge, ErrUnterminated, n, a.maxPacket)
			}
			return Packet{}, ErrIncomplete
		}

		if end == 1 {
			// Two flags in a row: the second one opens the next packet
			a.consume(1)
			a.stats.Empty++
			continue
		}

		raw := a.buf[1:end]
		if len(raw) > a.maxPacket {
			n, t := len(raw), PacketType(raw[0])
			a.consume(end + 1)
			a.stats.Oversized++
			return Packet{Type: t}, fmt.Errorf("%w: %s packet of %d bytes (max %d)", ErrPacketTooLarge, t, n, a.maxPacket)
		}

		pkt, err := parsePacket(raw)
		a.consume(end + 1)
		a.stats.Packets++
		return pkt, err
	}
}

func (a *Assembler) discardNoise(n int) {
	if n == 0 {
		return
	}
	log.Printf("Warning: discarding %d bytes of noise before packet start", n)
	a.stats.Noise += uint64(n)
	a.consume(n)
}

// consume drops the first n buffered bytes
func (a *Assembler) consume(n int) {
	rest := copy(a.buf, a.buf[n:])
	a.buf = a.buf[:rest]
}

// Delimited reports whether a packet returned with err was cut between two
// flags, so its type byte is genuine even though the packet failed
func Delimited(err error) bool {
	return err == nil || !errors.Is(err, ErrUnterminated)
}
