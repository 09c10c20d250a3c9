// ABOUTME: Tests for byte stuffing
// ABOUTME: Covers known encodings, round trips and truncated escapes
package protocol

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{"empty", []byte{}, []byte{}},
		{"plain", []byte{0x01, 0x9C, 0xFF}, []byte{0x01, 0x9C, 0xFF}},
		{"flag", []byte{0x7E}, []byte{0x7D, 0x5E}},
		{"escape", []byte{0x7D}, []byte{0x7D, 0x5D}},
		{"mixed", []byte{0x00, 0x7E, 0x7D, 0x20}, []byte{0x00, 0x7D, 0x5E, 0x7D, 0x5D, 0x20}},
		{"xor partners untouched", []byte{0x5E, 0x5D}, []byte{0x5E, 0x5D}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Escape(tt.input)
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Escape(%x) = %x, want %x", tt.input, got, tt.expected)
			}
			if EscapedLen(tt.input) != len(tt.expected) {
				t.Errorf("EscapedLen(%x) = %d, want %d", tt.input, EscapedLen(tt.input), len(tt.expected))
			}
			if bytes.IndexByte(got, FlagByte) >= 0 {
				t.Errorf("escaped output %x contains a flag byte", got)
			}
		})
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0x7E, 0x7E, 0x7E},
		{0x7D, 0x7D, 0x7D, 0x7D},
		{0x7D, 0x7E, 0x7D, 0x5E, 0x5D},
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		b := make([]byte, rng.Intn(300))
		for j := range b {
			// Bias toward the reserved bytes
			switch rng.Intn(4) {
			case 0:
				b[j] = FlagByte
			case 1:
				b[j] = EscapeByte
			default:
				b[j] = byte(rng.Intn(256))
			}
		}
		inputs = append(inputs, b)
	}

	for i, in := range inputs {
		escaped := Escape(in)
		if len(escaped) < len(in) || len(escaped) > 2*len(in) {
			t.Errorf("input %d: escaped length %d outside [%d, %d]", i, len(escaped), len(in), 2*len(in))
		}
		out, err := Unescape(escaped)
		if err != nil {
			t.Fatalf("input %d: Unescape failed: %v", i, err)
		}
		if !bytes.Equal(out, in) {
			t.Errorf("input %d: round trip mismatch\n got %x\nwant %x", i, out, in)
		}
	}
}

func TestUnescapeTruncated(t *testing.T) {
	out, err := Unescape([]byte{0x01, 0x7D, 0x5E, 0x7D})
	if !errors.Is(err, ErrTruncatedEscape) {
		t.Fatalf("expected ErrTruncatedEscape, got %v", err)
	}
	if !bytes.Equal(out, []byte{0x01, 0x7E}) {
		t.Errorf("expected decoded prefix 017e, got %x", out)
	}
}

func TestAppendEscaped(t *testing.T) {
	dst := []byte{0xAA}
	dst = AppendEscaped(dst, []byte{0x7E, 0x01})
	if !bytes.Equal(dst, []byte{0xAA, 0x7D, 0x5E, 0x01}) {
		t.Errorf("unexpected result %x", dst)
	}
}
