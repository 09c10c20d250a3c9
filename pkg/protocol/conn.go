// ABOUTME: Packet connection over a raw byte stream transport
// ABOUTME: Reads assembled packets and serializes packet writes
package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

const readChunkSize = 1024

// ErrTransportClosed reports that the underlying stream ended or failed
var ErrTransportClosed = errors.New("protocol: transport closed")

// Conn reads and writes packets on a byte stream. ReadPacket must be called
// from a single goroutine; writes may come from any goroutine.
type Conn struct {
	rw      io.ReadWriter
	asm     *Assembler
	readBuf []byte
	readErr error

	writeMu sync.Mutex
}

// NewConn wraps a transport; maxPacketSize <= 0 selects the default
func NewConn(rw io.ReadWriter, maxPacketSize int) *Conn {
	return &Conn{
		rw:      rw,
		asm:     NewAssembler(maxPacketSize),
		readBuf: make([]byte, readChunkSize),
	}
}

// ReadPacket blocks until a packet is assembled. Per-packet errors
// (ErrTruncatedEscape, ErrUnknownPacketType, ErrPacketTooLarge) leave the
// connection usable; an error wrapping ErrTransportClosed is final and also
// wraps the transport's error (io.EOF for an orderly close).
func (c *Conn) ReadPacket() (Packet, error) {
	for {
		pkt, err := c.asm.Next()
		if !errors.Is(err, ErrIncomplete) {
			return pkt, err
		}
		if c.readErr != nil {
			return Packet{}, c.readErr
		}

		n, err := c.rw.Read(c.readBuf)
		if n > 0 {
			c.asm.Feed(c.readBuf[:n])
		}
		if err != nil {
			c.readErr = fmt.Errorf("%w: %w", ErrTransportClosed, err)
		}
	}
}

// Write sends already framed bytes
func (c *Conn) Write(raw []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.rw.Write(raw); err != nil {
		return fmt.Errorf("%w: %w", ErrTransportClosed, err)
	}
	return nil
}

// WritePacket frames and sends one packet
func (c *Conn) WritePacket(t PacketType, payload []byte) error {
	return c.Write(AppendPacket(nil, t, payload))
}

// WriteAck sends the acknowledgment packet
func (c *Conn) WriteAck() error {
	return c.Write(AckPacket())
}

// WriteControl sends the stream start/end control packet
func (c *Conn) WriteControl() error {
	return c.Write(ControlPacket())
}

// Stats returns the assembler counters. Call from the reading goroutine.
func (c *Conn) Stats() AssemblerStats {
	return c.asm.Stats()
}
