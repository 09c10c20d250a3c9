// ABOUTME: Runs a transmitter and a receiver back to back in one process
// ABOUTME: Encodes a source, decodes it over an in-memory link and records the result
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sendspin/sbclink-go/internal/source"
	"github.com/Sendspin/sbclink-go/internal/version"
	"github.com/Sendspin/sbclink-go/pkg/audio/sbc"
	"github.com/Sendspin/sbclink-go/pkg/sbclink"
	"github.com/Sendspin/sbclink-go/pkg/transport"
	"golang.org/x/sync/errgroup"
)

var (
	audioSource = flag.String("source", "", "Audio to send: WAV/MP3/FLAC path (default: test tone)")
	duration    = flag.Float64("duration", 2, "Test tone length in seconds")
	outDir      = flag.String("out", "loopback", "Directory for the received WAV files")
	bitpool     = flag.Int("bitpool", 18, "SBC bitpool")
	frames      = flag.Int("frames", 4, "SBC frames per packet")
	realtime    = flag.Bool("realtime", false, "Pace packets at playback speed")
	debug       = flag.Bool("debug", false, "Log every packet")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stdout)
	log.Printf("Starting %s loopback", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codec := sbc.DefaultConfig()
	codec.Bitpool = *bitpool
	if err := codec.Validate(); err != nil {
		log.Fatalf("Invalid codec: %v", err)
	}

	src, err := source.Open(*audioSource, source.Options{
		ToneSeconds: *duration,
		SampleRate:  codec.SampleRate,
		Channels:    codec.Channels(),
	})
	if err != nil {
		log.Fatalf("Failed to open audio source: %v", err)
	}
	defer src.Close()

	wavs, err := sbclink.WAVSinks(*outDir)
	if err != nil {
		log.Fatalf("Failed to prepare output directory: %v", err)
	}

	interval := time.Duration(-1)
	if *realtime {
		interval = 0
	}

	txSide, rxSide := transport.Pipe()
	tx, err := sbclink.NewTransmitter(txSide, sbclink.TransmitterConfig{
		Source:          src,
		Codec:           codec,
		FramesPerPacket: *frames,
		PacketInterval:  interval,
		CloseDelay:      -1,
		Debug:           *debug,
	})
	if err != nil {
		log.Fatalf("Failed to create transmitter: %v", err)
	}
	rx := sbclink.NewReceiver(rxSide, sbclink.ReceiverConfig{
		Sinks: wavs,
		Debug: *debug,
	})

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return tx.Run(gctx) })
	g.Go(func() error {
		defer rxSide.Close()
		return rx.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("Loopback failed: %v", err)
	}

	ts := tx.Stats()
	rs := rx.Stats()
	log.Printf("Transmitter: %d packets, %d frames, %d bytes, %d acks", ts.Packets, ts.Frames, ts.Bytes, ts.Acks)
	log.Printf("Receiver: %d data packets, %d frames, %d repairs, %d streams", rs.DataPackets, rs.Frames, rs.Repairs, rs.Streams)
	log.Printf("Last %s", rs.Last)
	log.Printf("Done in %v", time.Since(start).Round(time.Millisecond))
}
