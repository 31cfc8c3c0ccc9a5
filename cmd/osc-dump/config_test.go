package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config, err := ParseConfig([]byte("{}"))
		if err != nil {
			t.Fatalf("ParseConfig failed: %v", err)
		}
		if config.Listen != ":57110" {
			t.Errorf("Listen = %q, want %q", config.Listen, ":57110")
		}
		if config.MaxPacketSize != 0 {
			t.Errorf("MaxPacketSize = %d, want 0", config.MaxPacketSize)
		}
		if config.ShowFrames {
			t.Error("ShowFrames should default to false")
		}
	})

	t.Run("Full", func(t *testing.T) {
		data := []byte(`
listen: ":9000"
max_packet_size: 1048576
capture: traffic.oclog
advertise: monitor-1
show_frames: true
`)
		config, err := ParseConfig(data)
		if err != nil {
			t.Fatalf("ParseConfig failed: %v", err)
		}
		if config.Listen != ":9000" {
			t.Errorf("Listen = %q, want %q", config.Listen, ":9000")
		}
		if config.MaxPacketSize != 1048576 {
			t.Errorf("MaxPacketSize = %d, want 1048576", config.MaxPacketSize)
		}
		if config.Capture != "traffic.oclog" {
			t.Errorf("Capture = %q, want %q", config.Capture, "traffic.oclog")
		}
		if config.Advertise != "monitor-1" {
			t.Errorf("Advertise = %q, want %q", config.Advertise, "monitor-1")
		}
		if !config.ShowFrames {
			t.Error("ShowFrames should be true")
		}
	})

	t.Run("EmptyListen", func(t *testing.T) {
		if _, err := ParseConfig([]byte(`listen: ""`)); err == nil {
			t.Error("expected error for empty listen address")
		}
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		if _, err := ParseConfig([]byte("listen: [unclosed")); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.yaml")
	if err := os.WriteFile(path, []byte("listen: \":8000\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Listen != ":8000" {
		t.Errorf("Listen = %q, want %q", config.Listen, ":8000")
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
