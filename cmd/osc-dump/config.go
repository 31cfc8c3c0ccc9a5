package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the monitor configuration.
type Config struct {
	// Listen is the TCP address to listen on.
	Listen string `yaml:"listen"`

	// MaxPacketSize is the maximum encoded packet size in bytes.
	MaxPacketSize uint32 `yaml:"max_packet_size"`

	// Capture is the protocol capture file path (empty disables).
	Capture string `yaml:"capture"`

	// Advertise enables mDNS advertisement under this instance name
	// (empty disables).
	Advertise string `yaml:"advertise"`

	// ShowFrames prints transport-layer frames in addition to decoded
	// packets.
	ShowFrames bool `yaml:"show_frames"`
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{
		Listen: ":57110",
	}
}

// ParseConfig parses a configuration from YAML bytes. Omitted fields
// keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.Listen == "" {
		return Config{}, fmt.Errorf("config: listen address is required")
	}
	return config, nil
}

// LoadConfig loads a configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}
