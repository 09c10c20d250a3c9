// ABOUTME: Tests for the packet batcher
// ABOUTME: Checks batch boundaries, escaping and partial flushes
package sbclink

import (
	"bytes"
	"testing"

	"github.com/Sendspin/sbclink-go/pkg/protocol"
)

func TestBatcherFullBatch(t *testing.T) {
	b := NewBatcher(0)
	if b.FramesPerPacket() != DefaultFramesPerPacket {
		t.Fatalf("expected default batch of %d, got %d", DefaultFramesPerPacket, b.FramesPerPacket())
	}

	frames := [][]byte{{0x9c, 0x01}, {0x9c, 0x7e}, {0x9c, 0x7d}, {0x9c, 0x02}}
	for i, f := range frames[:3] {
		if pkt := b.Add(f); pkt != nil {
			t.Fatalf("frame %d: unexpected packet before the batch is full", i)
		}
	}
	if b.Pending() != 3 {
		t.Errorf("expected 3 pending frames, got %d", b.Pending())
	}

	pkt := b.Add(frames[3])
	want := []byte{0x7e, 0x00, 0x9c, 0x01, 0x9c, 0x7d, 0x5e, 0x9c, 0x7d, 0x5d, 0x9c, 0x02, 0x7e}
	if !bytes.Equal(pkt, want) {
		t.Errorf("expected % x\n got % x", want, pkt)
	}
	if b.Pending() != 0 {
		t.Errorf("expected empty batch, got %d pending", b.Pending())
	}
	if b.Flush() != nil {
		t.Error("expected nothing to flush")
	}
}

func TestBatcherFlush(t *testing.T) {
	b := NewBatcher(3)
	b.Add([]byte{0x9c, 0xaa})

	pkt := b.Flush()
	a := protocol.NewAssembler(0)
	a.Feed(pkt)
	got, err := a.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got.Type != protocol.PacketData || !bytes.Equal(got.Payload, []byte{0x9c, 0xaa}) {
		t.Errorf("unexpected packet %+v", got)
	}
}

func TestBatcherReuse(t *testing.T) {
	b := NewBatcher(1)
	first := append([]byte(nil), b.Add([]byte{0x01})...)
	second := b.Add([]byte{0x02})

	if !bytes.Equal(first, []byte{0x7e, 0x00, 0x01, 0x7e}) {
		t.Errorf("unexpected first packet % x", first)
	}
	if !bytes.Equal(second, []byte{0x7e, 0x00, 0x02, 0x7e}) {
		t.Errorf("unexpected second packet % x", second)
	}
}
