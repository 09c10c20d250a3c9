// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams 16-bit PCM through a pipe into a persistent oto player
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process, shared by every Oto output
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
)

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	vol        volume
	scaled     []int32
	buf        []byte
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{vol: volume{level: 100}}
}

// Open starts a player for the format. The first Open fixes the device
// format for the process; later streams in another format are played at
// the first format's rate.
func (o *Oto) Open(format audio.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return nil
	}
	if format.BitDepth != 0 && format.BitDepth != 16 {
		log.Printf("Warning: oto only supports 16-bit output, ignoring requested bitDepth=%d", format.BitDepth)
	}

	ctx, err := sharedOtoContext(format)
	if err != nil {
		return err
	}

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = ctx.NewPlayer(o.pipeReader)
	o.player.Play()

	log.Printf("Audio output initialized: %dHz, %d channels (oto)", format.SampleRate, format.Channels)
	return nil
}

func sharedOtoContext(format audio.Format) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFormat.SampleRate != format.SampleRate || otoFormat.Channels != format.Channels {
			log.Printf("Warning: format change detected (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization",
				otoFormat.SampleRate, otoFormat.Channels, format.SampleRate, format.Channels)
		}
		if err := otoCtx.Resume(); err != nil {
			return nil, fmt.Errorf("failed to resume oto context: %w", err)
		}
		return otoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	otoCtx = ctx
	otoFormat = format
	return ctx, nil
}

// Write outputs audio samples (blocks until the player takes them)
func (o *Oto) Write(samples []int32) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return ErrNotOpen
	}

	o.scaled = o.vol.apply(o.scaled, samples)
	o.buf = o.buf[:0]
	for _, s := range o.scaled {
		o.buf = binary.LittleEndian.AppendUint16(o.buf, uint16(audio.SampleToInt16(s)))
	}

	if _, err := o.pipeWriter.Write(o.buf); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close stops the player; the shared context is suspended
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}

	otoMu.Lock()
	defer otoMu.Unlock()
	if otoCtx != nil {
		return otoCtx.Suspend()
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(level int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.vol.set(level)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.vol.muted = muted
}
