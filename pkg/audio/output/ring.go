// ABOUTME: Ring buffer between the decode path and a device callback
// ABOUTME: Thread-safe circular buffer of int32 samples that zero-fills on underrun
package output

import "sync"

// RingBuffer provides thread-safe circular buffer for audio samples
type RingBuffer struct {
	buffer   []int32
	readPos  int
	writePos int
	count    int
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer with given capacity (in samples)
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{buffer: make([]int32, max(capacity, 1))}
}

// Write adds as many samples as fit and returns how many were taken
func (rb *RingBuffer) Write(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(len(samples), len(rb.buffer)-rb.count)
	for i := 0; i < n; i++ {
		rb.buffer[rb.writePos] = samples[i]
		rb.writePos = (rb.writePos + 1) % len(rb.buffer)
	}
	rb.count += n
	return n
}

// Read fills samples, zero-filling whatever the buffer cannot supply, and
// returns the number of real samples read
func (rb *RingBuffer) Read(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(len(samples), rb.count)
	for i := 0; i < n; i++ {
		samples[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % len(rb.buffer)
	}
	rb.count -= n
	clear(samples[n:])
	return n
}

// Available returns the number of samples available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of free slots in the buffer
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.buffer) - rb.count
}
