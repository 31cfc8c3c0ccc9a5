// Package log provides structured protocol capture for osc-go.
//
// This package defines the Logger interface and Event types for
// recording protocol-level events at the transport (raw frames) and
// codec (decoded packets) layers. It is separate from operational
// logging (slog): protocol capture produces a complete machine-readable
// trace of every frame and packet for debugging and analysis.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a binary capture file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/osc/server.olog")
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys.
// Reader iterates over a capture file with optional filtering.
package log
