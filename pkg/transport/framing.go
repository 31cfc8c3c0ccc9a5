package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/osc-protocol/osc-go/pkg/log"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4

	// DefaultMaxPacketSize is the default maximum encoded packet
	// size (64 KB).
	DefaultMaxPacketSize = 65536

	// MaxLogFrameDataSize is the maximum frame data size to include in
	// capture events (4 KB). Larger frames are truncated in the event.
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrPacketTooLarge indicates the encoded packet exceeds the
	// maximum frame size.
	ErrPacketTooLarge = errors.New("packet too large")

	// ErrFrameEmpty indicates a zero-length frame.
	ErrFrameEmpty = errors.New("frame is empty")

	// ErrConnectionClosed indicates the stream ended before a complete
	// length prefix or payload arrived.
	ErrConnectionClosed = errors.New("connection closed")
)

// FrameWriter writes length-prefixed frames to an underlying writer.
type FrameWriter struct {
	w             io.Writer
	maxPacketSize uint32
	mu            sync.Mutex

	// Capture support (optional)
	logger log.Logger
	connID string
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{
		w:             w,
		maxPacketSize: DefaultMaxPacketSize,
	}
}

// NewFrameWriterWithMaxSize creates a frame writer with a custom max
// frame size.
func NewFrameWriterWithMaxSize(w io.Writer, maxSize uint32) *FrameWriter {
	return &FrameWriter{
		w:             w,
		maxPacketSize: maxSize,
	}
}

// SetLogger configures protocol capture for this writer.
// Pass nil to disable capture.
func (fw *FrameWriter) SetLogger(logger log.Logger, connID string) {
	fw.logger = logger
	fw.connID = connID
}

// WriteFrame writes a length-prefixed frame. If the underlying writer
// buffers output it is flushed before returning.
// Thread-safe: can be called from multiple goroutines.
func (fw *FrameWriter) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrFrameEmpty
	}
	if uint32(len(data)) > fw.maxPacketSize {
		return fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, len(data), fw.maxPacketSize)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	// Write length prefix (4 bytes, big-endian)
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(data)))

	if _, err := fw.w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}

	if _, err := fw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	// Flush buffered output so the frame is actually on the wire.
	if f, ok := fw.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to flush frame: %w", err)
		}
	}

	if fw.logger != nil {
		fw.logger.Log(makeFrameEvent(fw.connID, data, log.DirectionOut))
	}

	return nil
}

// FrameReader reads length-prefixed frames from an underlying reader.
type FrameReader struct {
	r             io.Reader
	maxPacketSize uint32
	lengthBuf     [LengthPrefixSize]byte

	// Capture support (optional)
	logger log.Logger
	connID string
}

// NewFrameReader creates a new frame reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:             r,
		maxPacketSize: DefaultMaxPacketSize,
	}
}

// NewFrameReaderWithMaxSize creates a frame reader with a custom max
// frame size.
func NewFrameReaderWithMaxSize(r io.Reader, maxSize uint32) *FrameReader {
	return &FrameReader{
		r:             r,
		maxPacketSize: maxSize,
	}
}

// SetLogger configures protocol capture for this reader.
// Pass nil to disable capture.
func (fr *FrameReader) SetLogger(logger log.Logger, connID string) {
	fr.logger = logger
	fr.connID = connID
}

// ReadFrame reads a length-prefixed frame, blocking until one full
// frame is available. Returns the frame payload without the prefix.
//
// A stream that ends cleanly between frames returns
// ErrConnectionClosed; so does a stream that ends mid-frame. Both
// wrap the underlying io error.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(fr.r, fr.lengthBuf[:]); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %w", ErrConnectionClosed, err)
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(fr.lengthBuf[:])

	if length == 0 {
		return nil, ErrFrameEmpty
	}
	if length > fr.maxPacketSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, length, fr.maxPacketSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %w", ErrConnectionClosed, err)
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	if fr.logger != nil {
		fr.logger.Log(makeFrameEvent(fr.connID, payload, log.DirectionIn))
	}

	return payload, nil
}

// SetMaxPacketSize updates the maximum frame size.
func (fr *FrameReader) SetMaxPacketSize(size uint32) {
	fr.maxPacketSize = size
}

// makeFrameEvent creates a capture event for a frame.
func makeFrameEvent(connID string, data []byte, direction log.Direction) log.Event {
	frameData := data
	truncated := false

	if len(data) > MaxLogFrameDataSize {
		frameData = data[:MaxLogFrameDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      LengthPrefixSize + len(data),
			Data:      frameData,
			Truncated: truncated,
		},
	}
}

// Framer combines frame reading and writing.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(rw),
		FrameWriter: NewFrameWriter(rw),
	}
}

// NewFramerWithMaxSize creates a framer with a custom max frame size.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize uint32) *Framer {
	return &Framer{
		FrameReader: NewFrameReaderWithMaxSize(rw, maxSize),
		FrameWriter: NewFrameWriterWithMaxSize(rw, maxSize),
	}
}

// SetLogger configures protocol capture for both reader and writer.
// Pass nil to disable capture.
func (f *Framer) SetLogger(logger log.Logger, connID string) {
	f.FrameReader.SetLogger(logger, connID)
	f.FrameWriter.SetLogger(logger, connID)
}

// FrameSize returns the total frame size including the length prefix.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}
