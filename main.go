// ABOUTME: Entry point for the SBC link receiver
// ABOUTME: Accepts or dials a transport, records streams to WAV and acknowledges packets
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
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Sendspin/sbclink-go/internal/config"
	"github.com/Sendspin/sbclink-go/internal/discovery"
	"github.com/Sendspin/sbclink-go/internal/metrics"
	"github.com/Sendspin/sbclink-go/internal/ui"
	"github.com/Sendspin/sbclink-go/internal/version"
	"github.com/Sendspin/sbclink-go/pkg/audio/output"
	"github.com/Sendspin/sbclink-go/pkg/sbclink"
	"github.com/Sendspin/sbclink-go/pkg/transport"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	configPath  = flag.String("config", "", "YAML config file")
	addr        = flag.String("addr", "", "Transport to dial (rfcomm://AA:BB:CC:DD:EE:FF/2, tcp://host:port, ws://host:port/path)")
	listen      = flag.String("listen", "", "Transport to accept on (tcp://:7000, ws://:8927/link)")
	outDir      = flag.String("out", "recordings", "Directory for numbered WAV files (empty: no files)")
	play        = flag.String("play", "", "Play streams on the speaker (oto or malgo)")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	logFile     = flag.String("log-file", "sbclink.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	debug       = flag.Bool("debug", false, "Log every packet")
	noAck       = flag.Bool("no-ack", false, "Do not acknowledge data packets (passive tap)")
	advertise   = flag.Bool("advertise", false, "Advertise the listening transport via mDNS")
	name        = flag.String("name", "", "mDNS service name (default: hostname-sbclink)")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(cfg.Logging.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s receiver", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc := cfg.Receiver
	if rc.Addr == "" && rc.Listen == "" {
		log.Fatalf("One of -addr or -listen is required")
	}

	// Sinks
	var factories []sbclink.SinkFactory
	if rc.OutputDir != "" {
		wavs, err := sbclink.WAVSinks(rc.OutputDir)
		if err != nil {
			log.Fatalf("Failed to prepare output directory: %v", err)
		}
		factories = append(factories, wavs)
	}

	var speaker output.Output
	if rc.Play != "" {
		speaker, err = output.New(rc.Play)
		if err != nil {
			log.Fatalf("Failed to create audio output: %v", err)
		}
		defer speaker.Close()
		factories = append(factories, sbclink.OutputSinks(speaker))
	}

	sinks := sbclink.Discard
	if len(factories) > 0 {
		sinks = sbclink.MultiSink(factories...)
	}

	// Metrics
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

	// TUI setup
	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl
	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg, err = ui.Run(volumeCtrl, speaker != nil)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			stop()
		}()
		defer tuiProg.Quit()
		go handleVolumeControl(ctx, speaker, volumeCtrl)
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	var current atomic.Pointer[sbclink.Receiver]
	if tuiProg != nil {
		go statsUpdateLoop(ctx, &current, updateTUI)
	}

	rxConfig := sbclink.ReceiverConfig{
		Sinks:         sinks,
		RepairLength:  rc.RepairLength,
		MaxPacketSize: rc.MaxPacketSize,
		DisableAcks:   rc.DisableAcks,
		Observer:      observer,
		Debug:         cfg.Logging.Debug,
	}

	serve := func(conn io.ReadWriteCloser, peer string) error {
		connected := true
		updateTUI(ui.StatusMsg{Connected: &connected, Peer: peer})
		defer func() {
			connected := false
			updateTUI(ui.StatusMsg{Connected: &connected})
		}()

		rx := sbclink.NewReceiver(conn, rxConfig)
		current.Store(rx)
		err := rx.Run(ctx)
		conn.Close()

		st := rx.Stats()
		log.Printf("Link to %s closed: %d data packets, %d acks, %d frames, %d repairs, %d streams",
			peer, st.DataPackets, st.Acks, st.Frames, st.Repairs, st.Streams)
		return err
	}

	if rc.Addr != "" {
		err = dialAndServe(ctx, rc.Addr, serve)
	} else {
		err = listenAndServe(ctx, rc, serve)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Receiver stopped: %v", err)
		if !useTUI {
			fmt.Fprintf(os.Stderr, "receiver stopped: %v\n", err)
		}
	}

	log.Printf("Receiver stopped")
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
			cfg.Receiver.Addr = *addr
		case "listen":
			cfg.Receiver.Listen = *listen
		case "out":
			cfg.Receiver.OutputDir = *outDir
		case "play":
			cfg.Receiver.Play = *play
		case "metrics-addr":
			cfg.Metrics.Enabled = *metricsAddr != ""
			cfg.Metrics.Address = *metricsAddr
		case "log-file":
			cfg.Logging.File = *logFile
		case "debug":
			cfg.Logging.Debug = *debug
		case "no-ack":
			cfg.Receiver.DisableAcks = *noAck
		case "advertise":
			cfg.Receiver.Advertise = *advertise
		case "name":
			cfg.Receiver.Name = *name
		}
	})

	if cfg.Receiver.Advertise && *name == "" && *configPath == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Receiver.Name = fmt.Sprintf("%s-sbclink", hostname)
	}

	return cfg, cfg.Validate()
}

// dialAndServe receives from one outgoing link
func dialAndServe(ctx context.Context, addr string, serve func(io.ReadWriteCloser, string) error) error {
	conn, err := transport.Dial(ctx, addr)
	if err != nil {
		return err
	}
	log.Printf("Connected to %s", addr)
	return serve(conn, addr)
}

// listenAndServe receives from one peer at a time until ctx is cancelled
func listenAndServe(ctx context.Context, rc config.ReceiverConfig, serve func(io.ReadWriteCloser, string) error) error {
	ln, err := transport.Listen(rc.Listen)
	if err != nil {
		return err
	}
	defer ln.Close()
	log.Printf("Listening on %s", ln.Addr())

	if rc.Advertise {
		disc := discovery.NewManager(discovery.Config{
			ServiceName: rc.Name,
			Port:        ln.Addr().Port(),
			Scheme:      ln.Addr().Scheme,
			Path:        ln.Addr().Path,
		})
		if err := disc.Advertise(); err != nil {
			log.Printf("Warning: mDNS advertisement failed: %v", err)
		}
		defer disc.Stop()
	}

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			return err
		}
		if err := serve(conn, ln.Addr().String()); err != nil && ctx.Err() == nil {
			log.Printf("Link error: %v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type volumeSetter interface {
	SetVolume(level int)
	SetMuted(muted bool)
}

// handleVolumeControl applies volume changes from the TUI
func handleVolumeControl(ctx context.Context, speaker output.Output, volumeCtrl *ui.VolumeControl) {
	setter, _ := speaker.(volumeSetter)
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			if setter != nil {
				setter.SetVolume(vol.Volume)
				setter.SetMuted(vol.Muted)
			}
		case <-volumeCtrl.Quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

// statsUpdateLoop periodically updates the TUI with receiver statistics
func statsUpdateLoop(ctx context.Context, current *atomic.Pointer[sbclink.Receiver], updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	// Use a slower ticker for expensive runtime stats to avoid GC pauses
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			updateTUI(ui.StatusMsg{Goroutines: runtime.NumGoroutine(), MemAlloc: m.Alloc})
		case <-ticker.C:
			if rx := current.Load(); rx != nil {
				stats := rx.Stats()
				updateTUI(ui.StatusMsg{Stats: &stats})
			}
		}
	}
}
