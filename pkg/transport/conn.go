package transport

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/osc-protocol/osc-go/pkg/log"
	"github.com/osc-protocol/osc-go/pkg/osc"
)

// Conn turns a reliable byte stream into a packet-boundary-preserving
// OSC channel. It owns no state beyond the underlying stream; each
// Receive consumes exactly one frame.
//
// Send and Receive may be called concurrently with each other on
// stream implementations whose reads and writes do not corrupt one
// another (true of ordinary stream sockets). Concurrent Sends
// serialize internally; concurrent Receives must be serialized by the
// caller.
type Conn struct {
	rw     io.ReadWriteCloser
	framer *Framer

	readMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error

	logger log.Logger
	connID string
}

// NewConn wraps a byte stream in a packet connection.
func NewConn(rw io.ReadWriteCloser) *Conn {
	return NewConnWithMaxSize(rw, DefaultMaxPacketSize)
}

// NewConnWithMaxSize wraps a byte stream with a custom max packet size.
func NewConnWithMaxSize(rw io.ReadWriteCloser, maxSize uint32) *Conn {
	return &Conn{
		rw:     rw,
		framer: NewFramerWithMaxSize(rw, maxSize),
	}
}

// SetLogger configures protocol capture for this connection.
// Pass nil to disable capture.
func (c *Conn) SetLogger(logger log.Logger, connID string) {
	c.logger = logger
	c.connID = connID
	c.framer.SetLogger(logger, connID)
}

// Send encodes the packet and writes it as one frame, flushing any
// buffered output before returning.
func (c *Conn) Send(p osc.Packet) error {
	data, err := osc.EncodePacket(p)
	if err != nil {
		return fmt.Errorf("encode packet: %w", err)
	}
	if err := c.framer.WriteFrame(data); err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Log(makePacketEvent(c.connID, p, log.DirectionOut))
	}
	return nil
}

// Receive blocks until one full frame arrives and decodes it.
//
// The stream ending before a complete frame is reported as
// ErrConnectionClosed; a frame whose payload fails to decode is
// reported as the codec's malformed-value error. After either failure
// the connection is not trustworthy and should be closed.
func (c *Conn) Receive() (osc.Packet, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	data, err := c.framer.ReadFrame()
	if err != nil {
		return nil, err
	}

	p, err := osc.DecodePacket(data)
	if err != nil {
		if c.logger != nil {
			c.logger.Log(log.Event{
				Timestamp:    time.Now(),
				ConnectionID: c.connID,
				Direction:    log.DirectionIn,
				Layer:        log.LayerCodec,
				Category:     log.CategoryError,
				Error: &log.ErrorEventData{
					Layer:   log.LayerCodec,
					Message: err.Error(),
					Context: "receive",
				},
			})
		}
		return nil, fmt.Errorf("decode packet: %w", err)
	}

	if c.logger != nil {
		c.logger.Log(makePacketEvent(c.connID, p, log.DirectionIn))
	}
	return p, nil
}

// Close closes the underlying stream. It is safe to call multiple
// times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rw.Close()
	})
	return c.closeErr
}

// makePacketEvent creates a capture event for a decoded packet.
func makePacketEvent(connID string, p osc.Packet, direction log.Direction) log.Event {
	pe := &log.PacketEvent{}
	switch v := p.(type) {
	case *osc.Message:
		pe.Kind = log.PacketKindMessage
		pe.Address = v.Address
		pe.TypeTags = v.TypeTags()
		pe.ArgCount = len(v.Arguments)
	case *osc.Bundle:
		pe.Kind = log.PacketKindBundle
		pe.Time = float64(v.Time)
		pe.ElementCount = len(v.Elements)
	}
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerCodec,
		Category:     log.CategoryMessage,
		Packet:       pe,
	}
}
