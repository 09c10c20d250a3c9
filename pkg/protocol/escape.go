// ABOUTME: Byte stuffing for flag-delimited packets
// ABOUTME: Escapes and restores the flag and escape bytes inside payloads
package protocol

import "errors"

const (
	// FlagByte marks both the start and the end of a packet
	FlagByte byte = 0x7E

	// EscapeByte introduces a stuffed literal
	EscapeByte byte = 0x7D

	// EscapeMask is XORed with a stuffed literal
	EscapeMask byte = 0x20
)

// ErrTruncatedEscape reports an escape byte with nothing after it
var ErrTruncatedEscape = errors.New("protocol: truncated escape sequence")

// EscapedLen returns the length of payload after escaping
func EscapedLen(payload []byte) int {
	n := len(payload)
	for _, b := range payload {
		if b == FlagByte || b == EscapeByte {
			n++
		}
	}
	return n
}

// AppendEscaped appends the escaped form of payload to dst
func AppendEscaped(dst, payload []byte) []byte {
	for _, b := range payload {
		if b == FlagByte || b == EscapeByte {
			dst = append(dst, EscapeByte, b^EscapeMask)
			continue
		}
		dst = append(dst, b)
	}
	return dst
}

// Escape returns payload with every flag and escape byte stuffed
func Escape(payload []byte) []byte {
	return AppendEscaped(make([]byte, 0, EscapedLen(payload)), payload)
}

// Unescape reverses Escape. Bytes decoded before a truncated escape are
// returned along with ErrTruncatedEscape.
func Unescape(escaped []byte) ([]byte, error) {
	out := make([]byte, 0, len(escaped))
	for i := 0; i < len(escaped); i++ {
		b := escaped[i]
		if b != EscapeByte {
			out = append(out, b)
			continue
		}
		i++
		if i == len(escaped) {
			return out, ErrTruncatedEscape
		}
		out = append(out, escaped[i]^EscapeMask)
	}
	return out, nil
}
