package transport

import (
	"net"
	"time"

	"github.com/osc-protocol/osc-go/pkg/osc"
)

// PacketSender sends encoded OSC packets.
// Implemented by Conn, ClientConn and ServerConn.
type PacketSender interface {
	// Send encodes and sends one packet.
	Send(p osc.Packet) error
}

// PacketConn is a bidirectional packet channel over a byte stream.
// Implemented by Conn.
type PacketConn interface {
	PacketSender

	// Receive blocks until one full packet arrives.
	Receive() (osc.Packet, error)

	// Close closes the underlying stream.
	Close() error
}

// ClientConnection represents a client-side connection to a server.
// Implemented by ClientConn.
type ClientConnection interface {
	PacketSender

	// Receive receives a packet with the specified timeout.
	Receive(timeout time.Duration) (osc.Packet, error)

	// LocalAddr returns the local network address.
	LocalAddr() net.Addr

	// RemoteAddr returns the remote network address.
	RemoteAddr() net.Addr

	// Close closes the connection.
	Close() error
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads a length-prefixed frame.
	ReadFrame() ([]byte, error)

	// WriteFrame writes a length-prefixed frame.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ PacketConn       = (*Conn)(nil)
	_ ClientConnection = (*ClientConn)(nil)
	_ PacketSender     = (*ServerConn)(nil)
	_ FrameReadWriter  = (*Framer)(nil)
)
