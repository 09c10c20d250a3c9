// ABOUTME: Session manager for the receive path
// ABOUTME: Owns the codec state and opens, feeds and closes one sink per stream
package sbclink

import (
	"fmt"
	"log"
	"time"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/decode"
	"github.com/google/uuid"
)

// State is the session lifecycle state
type State int

const (
	// StateClosed means no sink is open; the next Data packet starts a stream
	StateClosed State = iota
	// StateOpen means a sink is receiving samples
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// StreamInfo identifies an open stream
type StreamInfo struct {
	ID      uuid.UUID
	Format  audio.Format
	Started time.Time
}

// StreamSummary is reported when a stream closes
type StreamSummary struct {
	StreamInfo
	Frames  int64 // decoded frames
	Samples int64 // samples per channel written to the sink
	Bytes   int64 // payload bytes received while the stream was open
	Packets int64 // data packets received while the stream was open
	Repairs int64 // in-place frame repairs
	Errors  int64 // packets cut short by a frame error
}

// Duration returns the playback time of the written samples
func (s StreamSummary) Duration() time.Duration {
	if s.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(s.Samples) * time.Second / time.Duration(s.Format.SampleRate)
}

func (s StreamSummary) String() string {
	return fmt.Sprintf("stream %s: wrote %d samples (%v) from %d received bytes in %d packets, %d repairs, %d errors",
		s.ID, s.Samples, s.Duration().Round(time.Millisecond), s.Bytes, s.Packets, s.Repairs, s.Errors)
}

// SessionConfig configures a Session
type SessionConfig struct {
	// Decoder is the codec state (default: SBC)
	Decoder decode.FrameDecoder

	// Sinks opens a sink per stream (default: Discard)
	Sinks SinkFactory

	// RepairLength is passed to the resynchronizer (0: whole frame)
	RepairLength int

	// OnOpen is called when a stream's first frame has been decoded
	OnOpen func(StreamInfo)

	// Debug enables per-packet logging
	Debug bool
}

// Session decodes Data packet payloads into per-stream sinks. It is not
// safe for concurrent use.
type Session struct {
	config SessionConfig
	dec    decode.FrameDecoder
	resync *Resync

	state  State
	primed bool // codec reset for the stream about to open
	resets int
	sink   Sink
	cur    StreamSummary
}

// NewSession creates a closed session
func NewSession(config SessionConfig) *Session {
	if config.Decoder == nil {
		config.Decoder = decode.NewSBC()
	}
	if config.Sinks == nil {
		config.Sinks = Discard
	}
	return &Session{
		config: config,
		dec:    config.Decoder,
		resync: NewResync(config.Decoder, config.RepairLength),
	}
}

// State returns the lifecycle state
func (s *Session) State() State {
	return s.state
}

// Resets returns how many times the codec state has been reset
func (s *Session) Resets() int {
	return s.resets
}

// Current returns the counters of the open stream
func (s *Session) Current() (StreamSummary, bool) {
	return s.cur, s.state == StateOpen
}

// HandleData decodes every frame in a Data packet payload. Errors are
// limited to this payload: the stream and codec state carry on with the
// next packet.
func (s *Session) HandleData(payload []byte) (ScanResult, error) {
	if s.state == StateClosed && !s.primed {
		s.dec.Reset()
		s.resets++
		s.primed = true
	}

	res, err := s.resync.Scan(payload, s.decodeFrame)

	if s.state == StateOpen {
		s.cur.Packets++
		s.cur.Bytes += int64(len(payload))
		s.cur.Repairs += int64(res.Repairs)
		if err != nil {
			s.cur.Errors++
		}
	}
	if s.config.Debug {
		log.Printf("Data packet: %d bytes, %d frames, %d repairs, %d leftover", len(payload), res.Frames, res.Repairs, res.Leftover)
	}
	return res, err
}

func (s *Session) decodeFrame(frame []byte, info decode.FrameInfo) error {
	pcm, _, err := s.dec.DecodeFrame(frame)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if s.state == StateClosed {
		s.open(info.Format)
	} else if info.Format != s.cur.Format {
		log.Printf("Warning: stream %s changed format mid-stream (%v -> %v)", s.cur.ID, s.cur.Format, info.Format)
		s.cur.Format = info.Format
	}

	if err := s.sink.Write(pcm); err != nil {
		log.Printf("Error: stream %s sink write failed, discarding further audio: %v", s.cur.ID, err)
		if cerr := s.sink.Close(); cerr != nil {
			log.Printf("Error: stream %s sink close failed: %v", s.cur.ID, cerr)
		}
		s.sink = discardSink{}
	}
	s.cur.Frames++
	s.cur.Samples += int64(info.Samples)
	return nil
}

func (s *Session) open(format audio.Format) {
	info := StreamInfo{ID: uuid.New(), Format: format, Started: time.Now()}
	log.Printf("Stream %s: %d channels, %d Hz", info.ID, format.Channels, format.SampleRate)

	sink, err := s.config.Sinks(info.ID, format)
	if err != nil {
		log.Printf("Error: stream %s sink open failed, discarding audio: %v", info.ID, err)
		sink = discardSink{}
	}

	s.sink = sink
	s.state = StateOpen
	s.cur = StreamSummary{StreamInfo: info}
	if s.config.OnOpen != nil {
		s.config.OnOpen(info)
	}
}

// HandleStreamEnd closes the open stream and reports its summary. It
// returns false when no stream was open.
func (s *Session) HandleStreamEnd() (StreamSummary, bool) {
	if s.state == StateClosed {
		return StreamSummary{}, false
	}

	if err := s.sink.Close(); err != nil {
		log.Printf("Error: stream %s sink close failed: %v", s.cur.ID, err)
	}
	sum := s.cur
	s.sink = nil
	s.state = StateClosed
	s.primed = false
	s.cur = StreamSummary{}

	log.Printf("Closing %v", sum)
	return sum, true
}

// Close ends any open stream as if a StreamEnd packet had arrived
func (s *Session) Close() (StreamSummary, bool) {
	return s.HandleStreamEnd()
}
