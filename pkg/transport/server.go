package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/osc-protocol/osc-go/pkg/log"
	"github.com/osc-protocol/osc-go/pkg/osc"
)

// DefaultPort is the conventional TCP port for OSC stream servers.
const DefaultPort = 57110

// newConnID returns a fresh connection identifier.
func newConnID() string {
	return uuid.New().String()
}

// ServerConfig configures an OSC stream server.
type ServerConfig struct {
	// Address to listen on (e.g., ":57110" or "127.0.0.1:57110").
	Address string

	// MaxPacketSize is the maximum encoded packet size (default: 64KB).
	MaxPacketSize uint32

	// Logger for protocol capture (optional).
	Logger log.Logger

	// OnConnect is called when a new connection is established.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called when a connection is closed.
	OnDisconnect func(conn *ServerConn)

	// OnPacket is called for each packet received.
	OnPacket func(conn *ServerConn, p osc.Packet)

	// OnError is called when a connection fails. After a decode error
	// the connection is closed; per-connection errors never stop the
	// server.
	OnError func(conn *ServerConn, err error)
}

// Server accepts OSC stream connections over TCP.
type Server struct {
	config   ServerConfig
	listener net.Listener

	// Active connections
	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new OSC stream server.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxPacketSize == 0 {
		config.MaxPacketSize = DefaultMaxPacketSize
	}
	return &Server{
		config: config,
		conns:  make(map[*ServerConn]struct{}),
	}
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)
	s.cancel()

	err := s.listener.Close()

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return err
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// acceptLoop accepts connections until the server stops.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			select {
			case <-s.ctx.Done():
				return
			default:
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn runs one connection's read loop.
func (s *Server) handleConn(netConn net.Conn) {
	defer s.wg.Done()

	sc := &ServerConn{
		id:      newConnID(),
		conn:    netConn,
		pktConn: NewConnWithMaxSize(netConn, s.config.MaxPacketSize),
	}
	if s.config.Logger != nil {
		sc.pktConn.SetLogger(s.config.Logger, sc.id)
		s.config.Logger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: sc.id,
			Direction:    log.DirectionIn,
			Layer:        log.LayerTransport,
			Category:     log.CategoryState,
			RemoteAddr:   netConn.RemoteAddr().String(),
			State:        &log.StateEvent{NewState: "CONNECTED"},
		})
	}

	s.connsMu.Lock()
	s.conns[sc] = struct{}{}
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(sc)
	}

	defer func() {
		sc.Close()
		s.connsMu.Lock()
		delete(s.conns, sc)
		s.connsMu.Unlock()
		if s.config.OnDisconnect != nil {
			s.config.OnDisconnect(sc)
		}
	}()

	for {
		p, err := sc.pktConn.Receive()
		if err != nil {
			// A closed connection during shutdown is not an error
			// worth reporting.
			if errors.Is(err, ErrConnectionClosed) && !s.running.Load() {
				return
			}
			if s.config.OnError != nil {
				s.config.OnError(sc, err)
			}
			// Both a closed stream and a malformed payload end this
			// connection; the peer must reconnect.
			return
		}
		if s.config.OnPacket != nil {
			s.config.OnPacket(sc, p)
		}
	}
}

// ServerConn represents a server-side connection to a client.
type ServerConn struct {
	id      string
	conn    net.Conn
	pktConn *Conn

	closeOnce sync.Once
}

// ID returns the unique identifier assigned to this connection.
func (c *ServerConn) ID() string {
	return c.id
}

// RemoteAddr returns the remote network address of the client.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send encodes and sends one packet to the client.
func (c *ServerConn) Send(p osc.Packet) error {
	return c.pktConn.Send(p)
}

// Close closes the connection.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
