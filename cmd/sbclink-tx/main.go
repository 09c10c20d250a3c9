// ABOUTME: Entry point for the SBC link transmitter
// ABOUTME: Encodes a file, microphone or test tone and streams it to a receiver
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sendspin/sbclink-go/internal/config"
	"github.com/Sendspin/sbclink-go/internal/discovery"
	"github.com/Sendspin/sbclink-go/internal/metrics"
	"github.com/Sendspin/sbclink-go/internal/source"
	"github.com/Sendspin/sbclink-go/internal/version"
	"github.com/Sendspin/sbclink-go/pkg/sbclink"
	"github.com/Sendspin/sbclink-go/pkg/transport"
)

var (
	configPath  = flag.String("config", "", "YAML config file")
	addr        = flag.String("addr", "", "Receiver transport (rfcomm://AA:BB:CC:DD:EE:FF/2, tcp://host:port, ws://host:port/path)")
	discover    = flag.Bool("discover", false, "Find a receiver via mDNS instead of -addr")
	audioSource = flag.String("source", "", "Audio to send: WAV/MP3/FLAC path, http(s) MP3 URL, or mic (default: test tone)")
	duration    = flag.Float64("duration", 0, "Test tone length in seconds (0: until interrupted)")
	loop        = flag.Bool("loop", false, "Repeat file sources")
	bitpool     = flag.Int("bitpool", 0, "SBC bitpool (default from config: 18)")
	frames      = flag.Int("frames", 0, "SBC frames per packet (default from config: 4)")
	interval    = flag.Duration("interval", 0, "Pause after each packet (default: the audio duration of one packet)")
	closeDelay  = flag.Duration("close-delay", 0, "Wait after the stream ends before closing the link (default 10s)")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	logFile     = flag.String("log-file", "sbclink-tx.log", "Log file path")
	debug       = flag.Bool("debug", false, "Log every packet")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Set up logging (both file and console)
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, f))

	log.Printf("Starting %s transmitter", version.String())
	log.Printf("Press Ctrl-C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codec, err := cfg.Codec.SBC()
	if err != nil {
		log.Fatalf("Invalid codec: %v", err)
	}

	target := cfg.Transmitter.Addr
	if *discover {
		target, err = discoverReceiver(ctx)
		if err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
	}
	if target == "" {
		log.Fatalf("One of -addr or -discover is required")
	}

	src, err := source.Open(cfg.Transmitter.Source, source.Options{
		Loop:        *loop,
		ToneSeconds: cfg.Transmitter.Duration,
		SampleRate:  codec.SampleRate,
		Channels:    codec.Channels(),
	})
	if err != nil {
		log.Fatalf("Failed to open audio source: %v", err)
	}
	defer src.Close()

	var observer sbclink.Observer = sbclink.NopObserver{}
	if cfg.Metrics.Enabled {
		m := metrics.NewMetrics()
		observer = m
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Address); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	conn, err := transport.Dial(ctx, target)
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	log.Printf("Connected to %s", target)

	tx, err := sbclink.NewTransmitter(conn, sbclink.TransmitterConfig{
		Source:          src,
		Codec:           codec,
		FramesPerPacket: cfg.Transmitter.FramesPerPacket,
		PacketInterval:  cfg.Transmitter.PacketInterval,
		CloseDelay:      cfg.Transmitter.CloseDelay,
		Observer:        observer,
		Debug:           cfg.Logging.Debug,
	})
	if err != nil {
		conn.Close()
		log.Fatalf("Failed to create transmitter: %v", err)
	}

	go reportLoop(ctx, tx)

	err = tx.Run(ctx)
	s := tx.Stats()
	log.Printf("Sent %d packets (%d frames, %d bytes), %d acknowledged", s.Packets, s.Frames, s.Bytes, s.Acks)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Transmitter error: %v", err)
	}

	log.Printf("Transmitter stopped")
}

// loadConfig reads the config file and applies flags that were set
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Transmitter.Addr = *addr
		case "source":
			cfg.Transmitter.Source = *audioSource
		case "duration":
			cfg.Transmitter.Duration = *duration
		case "bitpool":
			cfg.Codec.Bitpool = *bitpool
		case "frames":
			cfg.Transmitter.FramesPerPacket = *frames
		case "interval":
			cfg.Transmitter.PacketInterval = *interval
		case "close-delay":
			cfg.Transmitter.CloseDelay = *closeDelay
		case "metrics-addr":
			cfg.Metrics.Enabled = *metricsAddr != ""
			cfg.Metrics.Address = *metricsAddr
		case "debug":
			cfg.Logging.Debug = *debug
		}
	})

	return cfg, cfg.Validate()
}

// discoverReceiver waits for the first receiver advertised via mDNS
func discoverReceiver(ctx context.Context) (string, error) {
	log.Printf("Starting receiver discovery...")
	disc := discovery.NewManager(discovery.Config{})
	disc.Browse()
	defer disc.Stop()

	select {
	case r := <-disc.Receivers():
		log.Printf("Discovered receiver %s at %s", r.Name, r.Addr())
		return r.Addr(), nil
	case <-time.After(10 * time.Second):
		return "", fmt.Errorf("no receiver found after 10 seconds")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// reportLoop logs transmit progress every few seconds
func reportLoop(ctx context.Context, tx *sbclink.Transmitter) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := tx.Stats()
			log.Printf("Sent %d packets, %d frames; %d in flight", s.Packets, s.Frames, s.InFlight())
		}
	}
}
