// ABOUTME: Microphone source using malgo capture
// ABOUTME: Device callbacks hand 16-bit chunks to Read through a channel
package source

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/gen2brain/malgo"
)

// micQueue is the number of capture chunks buffered before dropping
const micQueue = 32

// MicSource captures from the default input device
type MicSource struct {
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	chunks     chan []int32
	pending    []int32
	sampleRate int
	channels   int

	closeOnce sync.Once
	done      chan struct{}
	dropped   atomic.Int64
}

// NewMicSource starts capturing at the given rate and channel count
func NewMicSource(sampleRate, channels int) (*MicSource, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Printf("malgo: %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	s := &MicSource{
		malgoCtx:   ctx,
		chunks:     make(chan []int32, micQueue),
		sampleRate: sampleRate,
		channels:   channels,
		done:       make(chan struct{}),
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(channels)
	cfg.SampleRate = uint32(sampleRate)

	device, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{Data: s.capture})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}
	s.device = device

	log.Printf("Capturing from microphone: %dHz %dch", sampleRate, channels)
	return s, nil
}

// capture runs on the device thread
func (s *MicSource) capture(_, input []byte, frameCount uint32) {
	if len(input) < 2 {
		return
	}
	samples := make([]int32, len(input)/2)
	for i := range samples {
		samples[i] = audio.SampleFromInt16(int16(input[2*i]) | int16(input[2*i+1])<<8)
	}

	select {
	case s.chunks <- samples:
	default:
		s.dropped.Add(1)
	}
}

// Read blocks until captured audio is available; it returns io.EOF after Close
func (s *MicSource) Read(samples []int32) (int, error) {
	if len(s.pending) == 0 {
		select {
		case chunk := <-s.chunks:
			s.pending = chunk
		case <-s.done:
			return 0, io.EOF
		}
	}

	n := copy(samples, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *MicSource) SampleRate() int { return s.sampleRate }
func (s *MicSource) Channels() int   { return s.channels }

// Close stops the capture device
func (s *MicSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.device.Stop(); err != nil {
			log.Printf("Warning: capture stop error: %v", err)
		}
		s.device.Uninit()
		if err := s.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		s.malgoCtx.Free()
		if n := s.dropped.Load(); n > 0 {
			log.Printf("Warning: dropped %d capture chunks", n)
		}
	})
	return nil
}
