package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/osc-protocol/osc-go/pkg/log"
	"github.com/osc-protocol/osc-go/pkg/osc"
)

// ClientConfig configures an OSC stream client.
type ClientConfig struct {
	// MaxPacketSize is the maximum encoded packet size (default: 64KB).
	MaxPacketSize uint32

	// ConnectTimeout is the connection timeout (default: 30s).
	ConnectTimeout time.Duration

	// Logger for protocol capture (optional).
	Logger log.Logger
}

// Client dials OSC servers over TCP.
type Client struct {
	config ClientConfig
}

// NewClient creates a new OSC stream client.
func NewClient(config ClientConfig) *Client {
	if config.MaxPacketSize == 0 {
		config.MaxPacketSize = DefaultMaxPacketSize
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	return &Client{config: config}
}

// Connect establishes a connection to the specified address.
func (c *Client) Connect(ctx context.Context, address string) (*ClientConn, error) {
	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	cc := &ClientConn{
		conn:    conn,
		pktConn: NewConnWithMaxSize(conn, c.config.MaxPacketSize),
		closeCh: make(chan struct{}),
	}
	if c.config.Logger != nil {
		cc.pktConn.SetLogger(c.config.Logger, newConnID())
	}
	return cc, nil
}

// ClientConn represents a connection from client to server.
type ClientConn struct {
	conn    net.Conn
	pktConn *Conn
	closeCh chan struct{}

	closeOnce sync.Once
	readMu    sync.Mutex
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send encodes and sends one packet to the server.
func (c *ClientConn) Send(p osc.Packet) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.pktConn.Send(p)
}

// Receive receives one packet from the server with the specified
// timeout (zero means block indefinitely). A timed-out receive leaves
// the stream mid-frame and must be treated like a closed connection:
// close and reconnect before reuse.
func (c *ClientConn) Receive(timeout time.Duration) (osc.Packet, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}

	return c.pktConn.Receive()
}

// Close closes the connection.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}
