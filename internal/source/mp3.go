// ABOUTME: MP3 sources for files and HTTP streams
// ABOUTME: Decodes with go-mp3, which always produces 16-bit stereo
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// mp3Channels is the decoder's fixed output layout
const mp3Channels = 2

// MP3Source reads from an MP3 file or stream
type MP3Source struct {
	r          io.ReadCloser
	file       *os.File // nil for streams
	loop       bool
	decoder    *mp3.Decoder
	sampleRate int
	buf        []byte
}

// NewMP3Source opens an MP3 file
func NewMP3Source(path string, loop bool) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", title(path), decoder.SampleRate())

	return &MP3Source{
		r:          f,
		file:       f,
		loop:       loop,
		decoder:    decoder,
		sampleRate: decoder.SampleRate(),
	}, nil
}

// NewHTTPMP3Source streams MP3 from an HTTP URL; streams never loop
func NewHTTPMP3Source(url string) (*MP3Source, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTTP stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to decode MP3 stream: %w", err)
	}

	log.Printf("Streaming MP3 from HTTP: %s (sample rate: %d Hz)", url, decoder.SampleRate())

	return &MP3Source{r: resp.Body, decoder: decoder, sampleRate: decoder.SampleRate()}, nil
}

func (s *MP3Source) Read(samples []int32) (int, error) {
	// keep whole stereo frames
	need := (len(samples) / mp3Channels) * mp3Channels * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}

	n, err := io.ReadFull(s.decoder, s.buf[:need])
	count := n / 2
	for i := 0; i < count; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(s.buf[i*2:])))
	}

	switch {
	case err == nil:
		return count, nil
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		if count > 0 {
			return count, nil
		}
		if s.loop && s.file != nil {
			return 0, s.rewind()
		}
		return 0, io.EOF
	default:
		return count, err
	}
}

func (s *MP3Source) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder, err := mp3.NewDecoder(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new decoder: %w", err)
	}
	s.decoder = decoder
	return nil
}

func (s *MP3Source) SampleRate() int { return s.sampleRate }
func (s *MP3Source) Channels() int   { return mp3Channels }
func (s *MP3Source) Close() error    { return s.r.Close() }
