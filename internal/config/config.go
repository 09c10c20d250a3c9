// ABOUTME: YAML configuration with defaults and validation
// ABOUTME: Converts the codec section into an SBC frame layout
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Sendspin/sbclink-go/pkg/audio/output"
	"github.com/Sendspin/sbclink-go/pkg/audio/sbc"
	"github.com/Sendspin/sbclink-go/pkg/protocol"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration file
type Config struct {
	Receiver    ReceiverConfig    `yaml:"receiver"`
	Transmitter TransmitterConfig `yaml:"transmitter"`
	Codec       CodecConfig       `yaml:"codec"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ReceiverConfig configures the receiving end
type ReceiverConfig struct {
	Addr          string `yaml:"addr"`   // transport URL to dial
	Listen        string `yaml:"listen"` // tcp or ws URL to accept on
	OutputDir     string `yaml:"output_dir"`
	Play          string `yaml:"play"` // speaker backend, empty for none
	RepairLength  int    `yaml:"repair_length"`
	MaxPacketSize int    `yaml:"max_packet_size"`
	DisableAcks   bool   `yaml:"disable_acks"`
	Advertise     bool   `yaml:"advertise"`
	Name          string `yaml:"name"` // advertised service name
}

// TransmitterConfig configures the sending end
type TransmitterConfig struct {
	Addr            string        `yaml:"addr"`
	Source          string        `yaml:"source"`   // file path, "mic", or empty for a test tone
	Duration        float64       `yaml:"duration"` // test tone seconds, 0 for endless
	FramesPerPacket int           `yaml:"frames_per_packet"`
	PacketInterval  time.Duration `yaml:"packet_interval"`
	CloseDelay      time.Duration `yaml:"close_delay"`
}

// CodecConfig is the SBC profile used by the transmitter
type CodecConfig struct {
	SampleRate int    `yaml:"sample_rate"`
	Mode       string `yaml:"mode"`
	Blocks     int    `yaml:"blocks"`
	Subbands   int    `yaml:"subbands"`
	Allocation string `yaml:"allocation"`
	Bitpool    int    `yaml:"bitpool"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	codec := sbc.DefaultConfig()
	return &Config{
		Receiver: ReceiverConfig{
			OutputDir:     "recordings",
			MaxPacketSize: protocol.DefaultMaxPacketSize,
			Name:          "sbclink",
		},
		Transmitter: TransmitterConfig{
			FramesPerPacket: 4,
			CloseDelay:      10 * time.Second,
		},
		Codec: CodecConfig{
			SampleRate: codec.SampleRate,
			Mode:       codec.Mode.String(),
			Blocks:     codec.Blocks,
			Subbands:   codec.Subbands,
			Allocation: codec.Allocation.String(),
			Bitpool:    codec.Bitpool,
		},
		Metrics: MetricsConfig{
			Address: ":9464",
		},
		Logging: LoggingConfig{
			File: "sbclink.log",
		},
	}
}

// Load reads a configuration file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Receiver.Validate(); err != nil {
		return fmt.Errorf("receiver config: %w", err)
	}
	if err := c.Transmitter.Validate(); err != nil {
		return fmt.Errorf("transmitter config: %w", err)
	}
	if err := c.Codec.Validate(); err != nil {
		return fmt.Errorf("codec config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	return nil
}

// Validate validates receiver configuration
func (r *ReceiverConfig) Validate() error {
	if r.Addr != "" && r.Listen != "" {
		return fmt.Errorf("addr and listen are mutually exclusive")
	}
	if r.RepairLength < 0 {
		return fmt.Errorf("repair_length cannot be negative, got %d", r.RepairLength)
	}
	if r.MaxPacketSize < 64 {
		return fmt.Errorf("max_packet_size must be at least 64 bytes, got %d", r.MaxPacketSize)
	}
	if r.Play != "" {
		valid := false
		for _, b := range output.Backends {
			if r.Play == b {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("play must be one of %v or empty, got '%s'", output.Backends, r.Play)
		}
	}
	if r.Advertise && r.Name == "" {
		return fmt.Errorf("name cannot be empty when advertise is set")
	}
	return nil
}

// Validate validates transmitter configuration
func (t *TransmitterConfig) Validate() error {
	if t.FramesPerPacket < 1 {
		return fmt.Errorf("frames_per_packet must be at least 1, got %d", t.FramesPerPacket)
	}
	if t.Duration < 0 {
		return fmt.Errorf("duration cannot be negative, got %f", t.Duration)
	}
	return nil
}

// Validate checks that the codec section describes a usable SBC profile
func (c *CodecConfig) Validate() error {
	_, err := c.SBC()
	return err
}

// SBC converts the section into a frame layout
func (c *CodecConfig) SBC() (sbc.Config, error) {
	cfg := sbc.Config{
		SampleRate: c.SampleRate,
		Blocks:     c.Blocks,
		Subbands:   c.Subbands,
		Bitpool:    c.Bitpool,
	}

	switch c.Mode {
	case "mono":
		cfg.Mode = sbc.Mono
	case "dual":
		cfg.Mode = sbc.DualChannel
	case "stereo":
		cfg.Mode = sbc.Stereo
	case "joint":
		cfg.Mode = sbc.JointStereo
	default:
		return cfg, fmt.Errorf("mode must be one of [mono, dual, stereo, joint], got '%s'", c.Mode)
	}

	switch c.Allocation {
	case "snr":
		cfg.Allocation = sbc.SNR
	case "loudness":
		cfg.Allocation = sbc.Loudness
	default:
		return cfg, fmt.Errorf("allocation must be 'snr' or 'loudness', got '%s'", c.Allocation)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Address == "" {
		return fmt.Errorf("address cannot be empty when metrics are enabled")
	}
	return nil
}
