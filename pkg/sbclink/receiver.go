// ABOUTME: Receive path: packets in, decoded streams and acknowledgments out
// ABOUTME: Dispatches assembled packets to the session and replies to every Data packet
package sbclink

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/Sendspin/sbclink-go/pkg/audio/decode"
	"github.com/Sendspin/sbclink-go/pkg/protocol"
)

// ReceiverConfig configures a Receiver
type ReceiverConfig struct {
	// Sinks opens a sink per stream (default: Discard)
	Sinks SinkFactory

	// Decoder is the codec (default: SBC)
	Decoder decode.FrameDecoder

	// RepairLength bounds the bytes moved by a frame repair (0: whole frame)
	RepairLength int

	// MaxPacketSize bounds raw packets (default: protocol.DefaultMaxPacketSize)
	MaxPacketSize int

	// DisableAcks stops replies, for passive taps on a captured stream
	DisableAcks bool

	// Observer receives link events (optional)
	Observer Observer

	// Debug enables per-packet logging
	Debug bool
}

// ReceiverStats is a snapshot of receiver counters
type ReceiverStats struct {
	DataPackets int64
	StreamEnds  int64
	AcksIn      int64 // ack packets from the peer, ignored
	Dropped     int64 // packets rejected by the assembler
	Acks        int64 // acknowledgments sent
	Frames      int64
	Repairs     int64
	FrameErrors int64 // data packets cut short by a frame error
	Streams     int64
	NoiseBytes  uint64

	State   State
	Current StreamSummary // open stream, when State is StateOpen
	Last    StreamSummary // most recently closed stream
}

// Receiver reads packets from a transport, decodes Data packets into
// per-stream sinks and acknowledges each one
type Receiver struct {
	config   ReceiverConfig
	conn     *protocol.Conn
	rw       io.ReadWriter
	session  *Session
	observer Observer

	mu    sync.Mutex
	stats ReceiverStats
}

// NewReceiver creates a receiver on a byte-stream transport
func NewReceiver(rw io.ReadWriter, config ReceiverConfig) *Receiver {
	r := &Receiver{
		config:   config,
		conn:     protocol.NewConn(rw, config.MaxPacketSize),
		rw:       rw,
		observer: config.Observer,
	}
	if r.observer == nil {
		r.observer = NopObserver{}
	}
	r.session = NewSession(SessionConfig{
		Decoder:      config.Decoder,
		Sinks:        config.Sinks,
		RepairLength: config.RepairLength,
		OnOpen:       r.streamOpened,
		Debug:        config.Debug,
	})
	return r
}

// Stats returns a snapshot of the counters; safe to call from any goroutine
func (r *Receiver) Stats() ReceiverStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Run processes packets until the transport closes or ctx is cancelled.
// Cancelling closes the transport when it is an io.Closer. Any open stream
// is finalized before Run returns. An orderly close by the peer returns nil.
func (r *Receiver) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	if c, ok := r.rw.(io.Closer); ok {
		go func() {
			select {
			case <-ctx.Done():
				c.Close()
			case <-done:
			}
		}()
	}

	for {
		pkt, err := r.conn.ReadPacket()
		if errors.Is(err, protocol.ErrTransportClosed) {
			r.endStream()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				log.Printf("Transport closed by peer")
				return nil
			}
			return err
		}

		if err != nil {
			r.packetError(pkt, err)
			continue
		}
		r.dispatch(pkt)
	}
}

func (r *Receiver) dispatch(pkt protocol.Packet) {
	r.observer.PacketReceived(pkt.Type, len(pkt.Payload))

	switch pkt.Type {
	case protocol.PacketData:
		res, err := r.session.HandleData(pkt.Payload)
		r.observer.FramesDecoded(res)
		if err != nil {
			log.Printf("Warning: skipped rest of data packet after %d frames: %v", res.Frames, err)
			r.observer.FrameError(err)
		}

		r.update(func(s *ReceiverStats) {
			s.DataPackets++
			s.Frames += int64(res.Frames)
			s.Repairs += int64(res.Repairs)
			if err != nil {
				s.FrameErrors++
			}
		})
		r.ack()

	case protocol.PacketStreamEnd:
		r.update(func(s *ReceiverStats) { s.StreamEnds++ })
		r.endStream()

	case protocol.PacketAck:
		if r.config.Debug {
			log.Printf("Ignoring ack from peer")
		}
		r.update(func(s *ReceiverStats) { s.AcksIn++ })
	}
}

func (r *Receiver) packetError(pkt protocol.Packet, err error) {
	log.Printf("Warning: dropped packet: %v", err)
	r.observer.PacketDropped(err)
	r.update(func(s *ReceiverStats) { s.Dropped++ })

	// a delimited Data packet still consumed a packet slot
	if pkt.Type != protocol.PacketData || !protocol.Delimited(err) {
		return
	}
	if errors.Is(err, protocol.ErrTruncatedEscape) || errors.Is(err, protocol.ErrPacketTooLarge) {
		r.ack()
	}
}

func (r *Receiver) ack() {
	if r.config.DisableAcks {
		return
	}
	if err := r.conn.WriteAck(); err != nil {
		log.Printf("Error: failed to send ack: %v", err)
		return
	}
	r.observer.AckSent()
	r.update(func(s *ReceiverStats) { s.Acks++ })
}

func (r *Receiver) streamOpened(info StreamInfo) {
	r.observer.StreamOpened(info)
	r.update(func(s *ReceiverStats) { s.Streams++ })
}

func (r *Receiver) endStream() {
	sum, ok := r.session.HandleStreamEnd()
	if !ok {
		return
	}
	r.observer.StreamClosed(sum)
	r.update(func(s *ReceiverStats) { s.Last = sum })
}

// update applies fn to the counters and refreshes the session view
func (r *Receiver) update(fn func(*ReceiverStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.stats)
	r.stats.State = r.session.State()
	r.stats.Current, _ = r.session.Current()
	r.stats.NoiseBytes = r.conn.Stats().Noise
}
