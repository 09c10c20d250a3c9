// ABOUTME: Transmit path: audio source to paced, batched SBC packets
// ABOUTME: Sends stream control packets around the audio and counts returning acks
package sbclink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/encode"
	"github.com/Sendspin/sbclink-go/pkg/audio/resample"
	"github.com/Sendspin/sbclink-go/pkg/audio/sbc"
	"github.com/Sendspin/sbclink-go/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// DefaultCloseDelay is how long the transmitter keeps the link open after
// the stream-end packet so the receiver can drain
const DefaultCloseDelay = 10 * time.Second

// TransmitterConfig configures a Transmitter
type TransmitterConfig struct {
	// Source provides PCM (required)
	Source AudioSource

	// Codec is the SBC frame layout (default: sbc.DefaultConfig())
	Codec sbc.Config

	// FramesPerPacket is the batch size (default: 4)
	FramesPerPacket int

	// PacketInterval is the pause after each packet (default: the audio
	// duration of one batch; negative disables pacing)
	PacketInterval time.Duration

	// CloseDelay is the wait before closing the transport after the stream
	// ends (default: 10s; negative closes immediately)
	CloseDelay time.Duration

	// Observer receives link events (optional)
	Observer Observer

	// Debug enables per-packet logging
	Debug bool
}

// TransmitterStats is a snapshot of transmitter counters
type TransmitterStats struct {
	Packets int64
	Frames  int64
	Bytes   int64 // wire bytes of data packets
	Samples int64 // source samples per channel consumed
	Acks    int64
}

// InFlight returns data packets sent but not yet acknowledged
func (s TransmitterStats) InFlight() int64 {
	return s.Packets - s.Acks
}

// Transmitter streams one audio source over a transport
type Transmitter struct {
	config   TransmitterConfig
	rw       io.ReadWriteCloser
	conn     *protocol.Conn
	enc      *encode.SBCEncoder
	batcher  *Batcher
	conv     *resample.Converter
	observer Observer
	interval time.Duration

	packets atomic.Int64
	frames  atomic.Int64
	bytes   atomic.Int64
	samples atomic.Int64
	acks    atomic.Int64
}

// NewTransmitter validates the config and prepares the encoder
func NewTransmitter(rw io.ReadWriteCloser, config TransmitterConfig) (*Transmitter, error) {
	if config.Source == nil {
		return nil, fmt.Errorf("transmitter: source is required")
	}
	if config.Codec == (sbc.Config{}) {
		config.Codec = sbc.DefaultConfig()
	}
	if config.CloseDelay == 0 {
		config.CloseDelay = DefaultCloseDelay
	}

	enc, err := encode.NewSBC(config.Codec)
	if err != nil {
		return nil, fmt.Errorf("transmitter: %w", err)
	}

	t := &Transmitter{
		config:   config,
		rw:       rw,
		conn:     protocol.NewConn(rw, 0),
		enc:      enc,
		batcher:  NewBatcher(config.FramesPerPacket),
		observer: config.Observer,
	}
	if t.observer == nil {
		t.observer = NopObserver{}
	}

	from := audio.Format{SampleRate: config.Source.SampleRate(), Channels: config.Source.Channels()}
	if from.SampleRate <= 0 || from.Channels <= 0 {
		return nil, fmt.Errorf("transmitter: source reports %dHz %dch", from.SampleRate, from.Channels)
	}
	t.conv = resample.NewConverter(from, enc.Format())

	t.interval = config.PacketInterval
	if t.interval == 0 {
		t.interval = time.Duration(t.batcher.FramesPerPacket()) * config.Codec.FrameDuration()
	}
	return t, nil
}

// Interval returns the pause between packets
func (t *Transmitter) Interval() time.Duration {
	return max(t.interval, 0)
}

// Stats returns a snapshot of the counters; safe to call from any goroutine
func (t *Transmitter) Stats() TransmitterStats {
	return TransmitterStats{
		Packets: t.packets.Load(),
		Frames:  t.frames.Load(),
		Bytes:   t.bytes.Load(),
		Samples: t.samples.Load(),
		Acks:    t.acks.Load(),
	}
}

// Run streams the source until it ends or ctx is cancelled, then closes
// the transport. The stream-end packet is sent in both cases.
func (t *Transmitter) Run(ctx context.Context) error {
	log.Printf("Transmitting %s, %d frames per packet every %v", t.config.Codec, t.batcher.FramesPerPacket(), t.Interval())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer t.rw.Close()
		return t.stream(gctx)
	})
	g.Go(t.readAcks)
	return g.Wait()
}

func (t *Transmitter) stream(ctx context.Context) error {
	if err := t.conn.WriteControl(); err != nil {
		return fmt.Errorf("failed to send stream start: %w", err)
	}

	err := t.sendAll(ctx)
	if cerr := t.conn.WriteControl(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to send stream end: %w", cerr)
	}
	if err != nil {
		return err
	}

	s := t.Stats()
	log.Printf("Stream sent: %d packets, %d frames, %d bytes; waiting %v before closing",
		s.Packets, s.Frames, s.Bytes, max(t.config.CloseDelay, 0))
	if t.config.CloseDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(t.config.CloseDelay):
		}
	}
	return nil
}

func (t *Transmitter) sendAll(ctx context.Context) error {
	var tick <-chan time.Time
	if t.interval > 0 {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	src := t.config.Source
	codec := t.config.Codec
	batchFrames := t.batcher.FramesPerPacket() * codec.FrameSamples()
	srcFrames := (batchFrames*src.SampleRate() + codec.SampleRate - 1) / codec.SampleRate
	buf := make([]int32, srcFrames*src.Channels())
	var pcm []int32

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			t.samples.Add(int64(n / src.Channels()))
			pcm = t.conv.Process(pcm[:0], buf[:n])
			frames, err := t.enc.EncodeFrames(pcm)
			if err != nil {
				return fmt.Errorf("encode failed: %w", err)
			}
			for _, frame := range frames {
				if err := t.add(ctx, frame, tick); err != nil {
					return err
				}
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return fmt.Errorf("source read failed: %w", rerr)
		}
	}

	last, err := t.enc.Flush()
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}
	if last != nil {
		if err := t.add(ctx, last, tick); err != nil {
			return err
		}
	}
	if frames := t.batcher.Pending(); frames > 0 {
		return t.send(ctx, t.batcher.Flush(), frames, tick)
	}
	return nil
}

func (t *Transmitter) add(ctx context.Context, frame []byte, tick <-chan time.Time) error {
	if pkt := t.batcher.Add(frame); pkt != nil {
		return t.send(ctx, pkt, t.batcher.FramesPerPacket(), tick)
	}
	return nil
}

func (t *Transmitter) send(ctx context.Context, pkt []byte, frames int, tick <-chan time.Time) error {
	if err := t.conn.Write(pkt); err != nil {
		return err
	}
	t.packets.Add(1)
	t.frames.Add(int64(frames))
	t.bytes.Add(int64(len(pkt)))
	t.observer.PacketSent(frames, len(pkt))
	if t.config.Debug {
		log.Printf("Sent packet: %d frames, %d bytes", frames, len(pkt))
	}

	if tick == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tick:
		return nil
	}
}

// readAcks counts acknowledgments until the transport closes
func (t *Transmitter) readAcks() error {
	for {
		pkt, err := t.conn.ReadPacket()
		if errors.Is(err, protocol.ErrTransportClosed) {
			return nil
		}
		if err != nil {
			log.Printf("Warning: bad packet from receiver: %v", err)
			continue
		}
		if pkt.Type != protocol.PacketAck {
			if t.config.Debug {
				log.Printf("Ignoring %s packet from receiver", pkt.Type)
			}
			continue
		}
		t.acks.Add(1)
		t.observer.AckReceived()
	}
}
