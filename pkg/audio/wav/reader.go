// ABOUTME: Streaming WAV reader
// ABOUTME: Walks RIFF chunks to the data chunk and converts PCM to 24-bit range samples
package wav

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/decode"
)

const formatExtensible = 0xFFFE

// Reader streams samples from a PCM WAV file
type Reader struct {
	r      *bufio.Reader
	closer io.Closer
	format audio.Format
	data   *io.LimitedReader
	dec    *decode.PCMDecoder
	buf    []byte
}

// NewReader parses the header and positions the reader at the first sample
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	var riff struct {
		ID   [4]byte
		Size uint32
		Wave [4]byte
	}
	if err := binary.Read(br, binary.LittleEndian, &riff); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if string(riff.ID[:]) != "RIFF" || string(riff.Wave[:]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalid)
	}

	wr := &Reader{r: br}
	haveFmt := false
	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(br, binary.LittleEndian, &chunk); err != nil {
			return nil, fmt.Errorf("%w: no data chunk: %w", ErrInvalid, err)
		}

		switch string(chunk.ID[:]) {
		case "fmt ":
			if err := wr.readFormat(chunk.Size); err != nil {
				return nil, err
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalid)
			}
			size := int64(chunk.Size)
			if chunk.Size == 0 || chunk.Size == 0xFFFFFFFF {
				// streamed files leave the size unset
				size = 1<<63 - 1
			}
			wr.data = &io.LimitedReader{R: br, N: size}
			return wr, nil
		default:
			if _, err := br.Discard(int(chunk.Size + chunk.Size&1)); err != nil {
				return nil, fmt.Errorf("%w: truncated %q chunk", ErrInvalid, chunk.ID[:])
			}
		}
	}
}

// Open opens a WAV file; Close closes it
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

func (r *Reader) readFormat(size uint32) error {
	if size < 16 {
		return fmt.Errorf("%w: fmt chunk too short (%d bytes)", ErrInvalid, size)
	}
	var f struct {
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}
	if err := binary.Read(r.r, binary.LittleEndian, &f); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if extra := int(size-16) + int(size&1); extra > 0 {
		if _, err := r.r.Discard(extra); err != nil {
			return fmt.Errorf("%w: truncated fmt chunk", ErrInvalid)
		}
	}
	if f.AudioFormat != formatPCM && f.AudioFormat != formatExtensible {
		return fmt.Errorf("%w: unsupported audio format %d (only PCM is supported)", ErrInvalid, f.AudioFormat)
	}

	r.format = audio.Format{
		Codec:      "pcm",
		SampleRate: int(f.SampleRate),
		Channels:   int(f.NumChannels),
		BitDepth:   int(f.BitsPerSample),
	}
	if err := validateFormat(r.format); err != nil {
		return err
	}
	dec, err := decode.NewPCM(r.format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	r.dec = dec
	return nil
}

// Format returns the stream format
func (r *Reader) Format() audio.Format {
	return r.format
}

// Read fills samples with whole sample values and returns io.EOF once the
// data chunk is exhausted
func (r *Reader) Read(samples []int32) (int, error) {
	width := r.format.BitDepth / 8
	need := len(samples) * width
	if cap(r.buf) < need {
		r.buf = make([]byte, need)
	}
	buf := r.buf[:need]

	n, err := io.ReadFull(r.data, buf)
	// a trailing partial sample is dropped with the rest of the chunk
	decoded, _ := r.dec.Decode(buf[:n-n%width])
	count := copy(samples, decoded)

	switch {
	case err == nil:
		return count, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		if count == 0 {
			return 0, io.EOF
		}
		return count, nil
	default:
		return count, err
	}
}

// Close closes the file opened by Open
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
