// ABOUTME: Frame resynchronizer for packet payloads
// ABOUTME: Finds codec frames in a payload window and repairs misaligned sync markers in place
package sbclink

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Sendspin/sbclink-go/pkg/audio/decode"
)

var (
	// ErrMalformedFrame reports a frame whose header the codec rejected
	ErrMalformedFrame = errors.New("sbclink: malformed frame")

	// ErrDecode reports a located frame that failed to decode
	ErrDecode = errors.New("sbclink: frame decode failed")
)

// FrameHandler receives one frame located by the resynchronizer. The frame
// slice aliases the payload window and is only valid during the call.
type FrameHandler func(frame []byte, info decode.FrameInfo) error

// ScanResult counts what one payload window produced
type ScanResult struct {
	Frames   int // frames handed to the handler
	Repairs  int // in-place rotations
	Skipped  int // bytes moved out of the way by repairs
	Leftover int // trailing bytes that held no whole frame, parked skipped bytes included
}

// Resync locates codec frames inside Data packet payloads
type Resync struct {
	dec          decode.FrameDecoder
	repairLength int
}

// NewResync creates a resynchronizer. repairLength is the number of bytes
// relocated by a repair; zero relocates everything from the marker to the
// end of the window.
func NewResync(dec decode.FrameDecoder, repairLength int) *Resync {
	if repairLength < 0 {
		repairLength = 0
	}
	return &Resync{dec: dec, repairLength: repairLength}
}

// Scan walks window frame by frame, calling handle for each. The window is
// modified in place when a repair is needed. Scanning stops at the first
// probe or handler failure; the returned result covers the frames handled
// before it.
//
// With the default repair length a repair rotates the rest of the window,
// so the skipped bytes end up behind the last frame and every following
// frame is realigned at once. A fixed repair length moves only that many
// bytes ahead of the skipped run.
func (r *Resync) Scan(window []byte, handle FrameHandler) (ScanResult, error) {
	var res ScanResult
	sync := r.dec.SyncWord()
	minSize := r.dec.HeaderSize()

	offset := 0
	limit := len(window) // skipped bytes parked by repairs sit past limit
	for limit-offset >= minSize {
		idx := bytes.IndexByte(window[offset:limit], sync)
		if idx < 0 {
			break
		}

		if idx > 0 {
			marker := offset + idx
			if limit-marker < minSize {
				break
			}
			n, err := r.repairSize(window[marker:limit])
			if err != nil {
				return res, fmt.Errorf("%w at offset %d: %w", ErrMalformedFrame, marker, err)
			}
			if marker+n > limit {
				break
			}
			if r.repairLength > 0 {
				rotate(window, offset, marker, marker+n)
			} else {
				rotate(window, offset, marker, limit)
				limit -= idx
			}
			res.Repairs++
			res.Skipped += idx
		}

		info, err := r.dec.Probe(window[offset:limit])
		if err != nil {
			return res, fmt.Errorf("%w at offset %d: %w", ErrMalformedFrame, offset, err)
		}
		if info.Size <= 0 {
			return res, fmt.Errorf("%w at offset %d: zero length frame", ErrMalformedFrame, offset)
		}
		end := offset + info.Size
		if end > limit {
			return res, fmt.Errorf("%w: frame needs %d bytes, %d left", ErrDecode, info.Size, limit-offset)
		}

		if err := handle(window[offset:end], info); err != nil {
			if errors.Is(err, ErrDecode) {
				return res, err
			}
			return res, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		res.Frames++
		offset = end
	}

	res.Leftover += len(window) - offset
	return res, nil
}

// repairSize is the number of bytes that must follow the marker at data
// for a repair to go ahead
func (r *Resync) repairSize(data []byte) (int, error) {
	if r.repairLength > 0 {
		return r.repairLength, nil
	}
	info, err := r.dec.Probe(data)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// rotate moves buf[mid:end] to start at from, followed by buf[from:mid],
// keeping the order within both runs. It reports false without touching
// buf when the range does not fit.
func rotate(buf []byte, from, mid, end int) bool {
	if from < 0 || from > mid || mid > end || end > len(buf) {
		return false
	}
	reverse(buf[from:mid])
	reverse(buf[mid:end])
	reverse(buf[from:end])
	return true
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
