// ABOUTME: Malgo-based audio output implementation with 16/24/32-bit support
// ABOUTME: Feeds a miniaudio playback callback from a ring buffer
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/gen2brain/malgo"
)

// ringDuration is how much audio the playback ring holds
const ringDuration = 500 * time.Millisecond

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
	ring     *RingBuffer
	vol      volume
	scaled   []int32
	cbBuf    []int32
	closed   chan struct{}
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	return &Malgo{vol: volume{level: 100}}
}

// Open initializes the playback device, reinitializing it when the format changed
func (m *Malgo) Open(format audio.Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if format.BitDepth == 0 {
		format.BitDepth = 16
	}
	if m.device != nil && m.format == format {
		return nil
	}

	var devFormat malgo.FormatType
	switch format.BitDepth {
	case 16:
		devFormat = malgo.FormatS16
	case 24:
		devFormat = malgo.FormatS24
	case 32:
		devFormat = malgo.FormatS32
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", format.BitDepth)
	}

	if m.device != nil {
		log.Printf("Format change detected (%v -> %v), reinitializing device", m.format, format)
		m.closeDevice()
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	ring := NewRingBuffer(int(int64(format.SampleRate*format.Channels) * int64(ringDuration) / int64(time.Second)))

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = devFormat
	cfg.Playback.Channels = uint32(format.Channels)
	cfg.SampleRate = uint32(format.SampleRate)
	cfg.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			m.fill(ring, format, out, int(frameCount)*format.Channels)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, cfg, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.format = format
	m.ring = ring
	m.closed = make(chan struct{})

	log.Printf("Audio output initialized: %v (malgo/%s)", format, formatName(devFormat))
	return nil
}

// Write queues samples, waiting for the device to drain the ring when it is
// full. It must not be called concurrently.
func (m *Malgo) Write(samples []int32) error {
	m.mu.Lock()
	if m.device == nil {
		m.mu.Unlock()
		return ErrNotOpen
	}
	ring, closed := m.ring, m.closed
	m.scaled = m.vol.apply(m.scaled, samples)
	pending := m.scaled
	wait := m.format.Duration(max(len(pending)/4, m.format.Channels))
	m.mu.Unlock()

	for len(pending) > 0 {
		n := ring.Write(pending)
		pending = pending[n:]
		if n > 0 {
			continue
		}
		select {
		case <-closed:
			return ErrNotOpen
		case <-time.After(wait):
		}
	}
	return nil
}

// fill runs on the device thread
func (m *Malgo) fill(ring *RingBuffer, format audio.Format, out []byte, n int) {
	if cap(m.cbBuf) < n {
		m.cbBuf = make([]int32, n)
	}
	samples := m.cbBuf[:n]
	ring.Read(samples)

	switch format.BitDepth {
	case 16:
		for i, s := range samples {
			v := audio.SampleToInt16(s)
			out[i*2] = byte(v)
			out[i*2+1] = byte(v >> 8)
		}
	case 24:
		for i, s := range samples {
			b := audio.SampleTo24Bit(s)
			copy(out[i*3:], b[:])
		}
	case 32:
		for i, s := range samples {
			v := s << 8
			out[i*4] = byte(v)
			out[i*4+1] = byte(v >> 8)
			out[i*4+2] = byte(v >> 16)
			out[i*4+3] = byte(v >> 24)
		}
	}
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()
	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if err := m.device.Stop(); err != nil {
		log.Printf("Warning: device stop error: %v", err)
	}
	m.device.Uninit()
	m.device = nil
	close(m.closed)
}

// SetVolume sets the volume (0-100)
func (m *Malgo) SetVolume(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vol.set(level)
}

// SetMuted sets mute state
func (m *Malgo) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vol.muted = muted
}

func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
