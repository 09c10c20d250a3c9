// ABOUTME: MSB-first bit reader and writer over frame buffers
// ABOUTME: Used for join flags, scale factors and quantized samples
package sbc

type bitReader struct {
	data []byte
	pos  int
}

// read returns the next n bits; callers check the frame length first
func (r *bitReader) read(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		bit := (r.data[r.pos>>3] >> (7 - uint(r.pos&7))) & 1
		v = v<<1 | uint32(bit)
		r.pos++
	}
	return v
}

type bitWriter struct {
	data []byte
	pos  int
}

// write appends the low n bits of v; data must be zeroed and large enough
func (w *bitWriter) write(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		if (v>>uint(i))&1 != 0 {
			w.data[w.pos>>3] |= 0x80 >> uint(w.pos&7)
		}
		w.pos++
	}
}
