package log

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func sampleEvent(connID string) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    DirectionIn,
		Layer:        LayerCodec,
		Category:     CategoryMessage,
		Packet: &PacketEvent{
			Kind:     PacketKindMessage,
			Address:  "/synth/freq",
			TypeTags: ",f",
			ArgCount: 1,
		},
	}
}

func TestEventRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		event Event
	}{
		{
			name:  "packet event",
			event: sampleEvent("conn-1"),
		},
		{
			name: "frame event",
			event: Event{
				Timestamp:    time.Now(),
				ConnectionID: "conn-2",
				Direction:    DirectionOut,
				Layer:        LayerTransport,
				Category:     CategoryMessage,
				Frame:        &FrameEvent{Size: 20, Data: []byte{0, 0, 0, 16}},
			},
		},
		{
			name: "bundle packet event",
			event: Event{
				Timestamp:    time.Now(),
				ConnectionID: "conn-3",
				Direction:    DirectionIn,
				Layer:        LayerCodec,
				Category:     CategoryMessage,
				Packet: &PacketEvent{
					Kind:         PacketKindBundle,
					Time:         10.5,
					ElementCount: 2,
				},
			},
		},
		{
			name: "error event",
			event: Event{
				Timestamp:    time.Now(),
				ConnectionID: "conn-4",
				Direction:    DirectionIn,
				Layer:        LayerCodec,
				Category:     CategoryError,
				Error: &ErrorEventData{
					Layer:   LayerCodec,
					Message: "truncated packet",
					Context: "receive",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}

			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}

			if decoded.ConnectionID != tt.event.ConnectionID {
				t.Errorf("ConnectionID = %q, want %q", decoded.ConnectionID, tt.event.ConnectionID)
			}
			if decoded.Direction != tt.event.Direction {
				t.Errorf("Direction = %v, want %v", decoded.Direction, tt.event.Direction)
			}
			if (decoded.Packet == nil) != (tt.event.Packet == nil) {
				t.Fatalf("Packet presence mismatch")
			}
			if tt.event.Packet != nil && *decoded.Packet != *tt.event.Packet {
				t.Errorf("Packet = %+v, want %+v", *decoded.Packet, *tt.event.Packet)
			}
		})
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.olog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	logger.Log(sampleEvent("conn-a"))
	logger.Log(sampleEvent("conn-b"))
	logger.Log(sampleEvent("conn-a"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Logging after close is silently ignored.
	logger.Log(sampleEvent("conn-c"))

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		count++
	}
	if count != 3 {
		t.Errorf("read %d events, want 3", count)
	}
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.olog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(sampleEvent("conn-a"))
	logger.Log(sampleEvent("conn-b"))
	logger.Log(sampleEvent("conn-a"))
	logger.Close()

	reader, err := NewFilteredReader(path, Filter{ConnectionID: "conn-a"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if event.ConnectionID != "conn-a" {
			t.Errorf("filter leaked event for %q", event.ConnectionID)
		}
		count++
	}
	if count != 2 {
		t.Errorf("read %d events, want 2", count)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.olog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.Log(sampleEvent("conn-x"))
			}
		}()
	}
	wg.Wait()
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		if _, err := reader.Next(); err != nil {
			break
		}
		count++
	}
	if count != 200 {
		t.Errorf("read %d events, want 200", count)
	}
}

type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func TestMultiLogger(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}

	multi := NewMultiLogger(a, b, NoopLogger{})
	multi.Log(sampleEvent("conn-m"))

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("events not fanned out: a=%d b=%d", len(a.events), len(b.events))
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(sampleEvent("conn-s"))

	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("conn-s")) {
		t.Errorf("slog output missing connection ID: %q", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("/synth/freq")) {
		t.Errorf("slog output missing address: %q", out)
	}
}
