// ABOUTME: Prometheus metrics for the audio link
// ABOUTME: Implements the link observer and serves the registry over HTTP
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Sendspin/sbclink-go/pkg/protocol"
	"github.com/Sendspin/sbclink-go/pkg/sbclink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the link
type Metrics struct {
	registry *prometheus.Registry

	// Receive path
	PacketsReceived *prometheus.CounterVec
	PacketsDropped  *prometheus.CounterVec
	FramesDecoded   prometheus.Counter
	FrameRepairs    prometheus.Counter
	SkippedBytes    prometheus.Counter
	FrameErrors     *prometheus.CounterVec
	AcksSent        prometheus.Counter

	// Streams
	StreamsOpened  prometheus.Counter
	StreamOpen     prometheus.Gauge
	StreamDuration prometheus.Histogram
	StreamSamples  prometheus.Counter

	// Transmit path
	PacketsSent  prometheus.Counter
	FramesSent   prometheus.Counter
	BytesSent    prometheus.Counter
	AcksReceived prometheus.Counter
}

var _ sbclink.Observer = (*Metrics)(nil)

// NewMetrics creates the metrics on their own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PacketsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sbclink_packets_received_total",
			Help: "Total number of packets received, by type",
		}, []string{"type"}),
		PacketsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sbclink_packets_dropped_total",
			Help: "Total number of packets rejected by the assembler, by reason",
		}, []string{"reason"}),
		FramesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_frames_decoded_total",
			Help: "Total number of SBC frames decoded",
		}),
		FrameRepairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_frame_repairs_total",
			Help: "Total number of frames realigned inside a packet",
		}),
		SkippedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_skipped_bytes_total",
			Help: "Total number of payload bytes that belonged to no frame",
		}),
		FrameErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sbclink_frame_errors_total",
			Help: "Total number of data packets cut short by a frame error, by kind",
		}, []string{"kind"}),
		AcksSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_acks_sent_total",
			Help: "Total number of acknowledgments sent",
		}),

		StreamsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_streams_opened_total",
			Help: "Total number of streams opened",
		}),
		StreamOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sbclink_stream_open",
			Help: "1 while a stream is being received",
		}),
		StreamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sbclink_stream_duration_seconds",
			Help:    "Audio duration of closed streams",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34 minutes
		}),
		StreamSamples: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_stream_samples_total",
			Help: "Total number of decoded samples written to sinks",
		}),

		PacketsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_packets_sent_total",
			Help: "Total number of data packets sent",
		}),
		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_frames_sent_total",
			Help: "Total number of SBC frames sent",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_bytes_sent_total",
			Help: "Total number of data packet bytes written to the transport",
		}),
		AcksReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "sbclink_acks_received_total",
			Help: "Total number of acknowledgments received",
		}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Printf("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (m *Metrics) PacketReceived(t protocol.PacketType, size int) {
	m.PacketsReceived.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) PacketDropped(err error) {
	m.PacketsDropped.WithLabelValues(dropReason(err)).Inc()
}

func (m *Metrics) FramesDecoded(res sbclink.ScanResult) {
	m.FramesDecoded.Add(float64(res.Frames))
	m.FrameRepairs.Add(float64(res.Repairs))
	m.SkippedBytes.Add(float64(res.Skipped))
}

func (m *Metrics) FrameError(err error) {
	kind := "other"
	switch {
	case errors.Is(err, sbclink.ErrMalformedFrame):
		kind = "malformed"
	case errors.Is(err, sbclink.ErrDecode):
		kind = "decode"
	}
	m.FrameErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) AckSent() {
	m.AcksSent.Inc()
}

func (m *Metrics) StreamOpened(info sbclink.StreamInfo) {
	m.StreamsOpened.Inc()
	m.StreamOpen.Set(1)
}

func (m *Metrics) StreamClosed(sum sbclink.StreamSummary) {
	m.StreamOpen.Set(0)
	m.StreamDuration.Observe(sum.Duration().Seconds())
	m.StreamSamples.Add(float64(sum.Samples))
}

func (m *Metrics) PacketSent(frames, size int) {
	m.PacketsSent.Inc()
	m.FramesSent.Add(float64(frames))
	m.BytesSent.Add(float64(size))
}

func (m *Metrics) AckReceived() {
	m.AcksReceived.Inc()
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrTruncatedEscape):
		return "truncated_escape"
	case errors.Is(err, protocol.ErrUnknownPacketType):
		return "unknown_type"
	case errors.Is(err, protocol.ErrPacketTooLarge):
		return "too_large"
	default:
		return "other"
	}
}
