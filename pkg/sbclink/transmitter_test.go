// ABOUTME: Tests for the transmit path
// ABOUTME: Runs a transmitter against a receiver over an in-memory pipe
package sbclink

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Sendspin/sbclink-go/pkg/audio/sbc"
)

func TestNewTransmitterValidation(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	if _, err := NewTransmitter(a, TransmitterConfig{}); err == nil {
		t.Error("expected error without a source")
	}

	bad := sbc.DefaultConfig()
	bad.Bitpool = 1
	if _, err := NewTransmitter(a, TransmitterConfig{Source: NewTestTone(0, 0, 0), Codec: bad}); err == nil {
		t.Error("expected error for an invalid codec config")
	}

	tx, err := NewTransmitter(a, TransmitterConfig{Source: NewTestTone(0, 0, 0)})
	if err != nil {
		t.Fatalf("NewTransmitter failed: %v", err)
	}
	if tx.Interval() != 16*time.Millisecond {
		t.Errorf("expected a 16ms default interval, got %v", tx.Interval())
	}
}

func TestLoopback(t *testing.T) {
	txEnd, rxEnd := net.Pipe()

	rec := &recorder{}
	rx := NewReceiver(rxEnd, ReceiverConfig{Sinks: rec.open})
	rxDone := make(chan error, 1)
	go func() { rxDone <- rx.Run(context.Background()) }()

	tx, err := NewTransmitter(txEnd, TransmitterConfig{
		Source:         NewTestTone(32000, 1, 0.1),
		PacketInterval: -1,
		CloseDelay:     -1,
	})
	if err != nil {
		t.Fatalf("NewTransmitter failed: %v", err)
	}
	if err := tx.Run(context.Background()); err != nil {
		t.Fatalf("transmitter Run failed: %v", err)
	}

	select {
	case err := <-rxDone:
		if err != nil {
			t.Fatalf("receiver Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not stop after the transmitter closed")
	}

	// 0.1s at 32kHz is 25 frames of 128 samples: six full batches and one of one
	txStats := tx.Stats()
	if txStats.Packets != 7 || txStats.Frames != 25 || txStats.Samples != 3200 {
		t.Errorf("unexpected transmitter stats %+v", txStats)
	}
	if txStats.Acks != 7 || txStats.InFlight() != 0 {
		t.Errorf("expected every packet acknowledged, got %+v", txStats)
	}

	rxStats := rx.Stats()
	if rxStats.Frames != 25 || rxStats.Last.Samples != 3200 || rxStats.Streams != 1 {
		t.Errorf("unexpected receiver stats %+v", rxStats)
	}
	if rec.count() != 1 || rec.streams[0].closes != 1 {
		t.Fatalf("expected one finished stream, got %d", rec.count())
	}
	if len(rec.streams[0].samples) != 3200 {
		t.Errorf("expected 3200 samples in the sink, got %d", len(rec.streams[0].samples))
	}
}

func TestLoopbackResampled(t *testing.T) {
	txEnd, rxEnd := net.Pipe()

	rx := NewReceiver(rxEnd, ReceiverConfig{})
	go rx.Run(context.Background())

	tx, err := NewTransmitter(txEnd, TransmitterConfig{
		Source:          NewTestTone(48000, 2, 0.2),
		FramesPerPacket: 2,
		PacketInterval:  -1,
		CloseDelay:      -1,
	})
	if err != nil {
		t.Fatalf("NewTransmitter failed: %v", err)
	}
	if err := tx.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 0.2s becomes about 6400 mono samples at 32kHz, padded to whole frames
	s := tx.Stats()
	if s.Frames < 49 || s.Frames > 51 {
		t.Errorf("expected about 50 frames, got %d", s.Frames)
	}
	if s.Samples != 9600 {
		t.Errorf("expected 9600 source frames consumed, got %d", s.Samples)
	}
}

func TestTransmitterCancel(t *testing.T) {
	txEnd, rxEnd := net.Pipe()

	obs := &countingObserver{}
	rx := NewReceiver(rxEnd, ReceiverConfig{Observer: obs})
	rxDone := make(chan struct{})
	go func() {
		rx.Run(context.Background())
		close(rxDone)
	}()

	tx, err := NewTransmitter(txEnd, TransmitterConfig{
		Source:         NewTestTone(32000, 1, 0),
		PacketInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewTransmitter failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := tx.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}

	<-rxDone
	if obs.opened != 1 || obs.closed != 1 {
		t.Errorf("expected one stream opened and closed, got %+v", obs)
	}
	// the control packet both opens and closes the stream on the wire
	if rx.Stats().StreamEnds != 2 {
		t.Errorf("expected the stream-end packet after cancellation, got %d control packets", rx.Stats().StreamEnds)
	}
}
