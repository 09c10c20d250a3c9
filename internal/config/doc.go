// ABOUTME: Package config loads the YAML configuration of the link commands
// ABOUTME: Holds receiver, transmitter, codec, metrics and logging settings
// Package config loads and validates the YAML configuration shared by the
// receiver and transmitter commands. Command-line flags override file values.
package config
