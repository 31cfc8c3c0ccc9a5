package connection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/osc-protocol/osc-go/pkg/log"
	"github.com/osc-protocol/osc-go/pkg/osc"
	"github.com/osc-protocol/osc-go/pkg/transport"
)

// Connection errors.
var (
	ErrClosed       = errors.New("connection manager closed")
	ErrNotConnected = errors.New("not connected")
	ErrConnecting   = errors.New("connection attempt in progress")
)

// State represents the connection state.
type State uint8

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateReconnecting indicates automatic reconnection is in progress.
	StateReconnecting

	// StateClosed indicates the client has been closed.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a reconnecting client.
type Config struct {
	// Address of the server to dial (host:port).
	Address string

	// MaxPacketSize is the maximum encoded packet size (default: 64KB).
	MaxPacketSize uint32

	// ConnectTimeout bounds each dial attempt (default: 30s).
	ConnectTimeout time.Duration

	// DisableReconnect turns off automatic reconnection after a
	// connection loss.
	DisableReconnect bool

	// Backoff customizes retry delays. Zero values select defaults.
	Backoff BackoffConfig

	// Logger for protocol capture (optional).
	Logger log.Logger

	// OnPacket is called for each packet received.
	OnPacket func(p osc.Packet)

	// OnStateChange is called on every state transition.
	OnStateChange func(oldState, newState State)

	// OnReconnecting is called before each reconnection attempt with
	// the attempt number and the delay about to be waited.
	OnReconnecting func(attempt int, delay time.Duration)

	// OnError is called when a receive fails for a reason other than
	// the connection closing.
	OnError func(err error)
}

// Client maintains a connection to one OSC server, dispatching
// received packets to a callback and reconnecting with exponential
// backoff when the connection drops.
type Client struct {
	config Config
	dialer *transport.Client

	mu      sync.RWMutex
	state   State
	conn    *transport.ClientConn
	backoff *Backoff

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	reconnectCh chan struct{}
}

// NewClient creates a reconnecting client. Call Connect to establish
// the first connection.
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		config: config,
		dialer: transport.NewClient(transport.ClientConfig{
			MaxPacketSize:  config.MaxPacketSize,
			ConnectTimeout: config.ConnectTimeout,
			Logger:         config.Logger,
		}),
		state:       StateDisconnected,
		backoff:     NewBackoff(config.Backoff),
		ctx:         ctx,
		cancel:      cancel,
		reconnectCh: make(chan struct{}, 1),
	}

	c.wg.Add(1)
	go c.reconnectLoop()

	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether a connection is currently established.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Connect dials the server and starts the receive loop. It returns an
// error if the dial fails; automatic reconnection only covers losses
// of an established connection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	case StateConnecting, StateReconnecting:
		c.mu.Unlock()
		return ErrConnecting
	case StateConnected:
		c.mu.Unlock()
		return nil
	}
	notify := c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	notify()

	conn, err := c.dialer.Connect(ctx, c.config.Address)
	if err != nil {
		c.mu.Lock()
		if c.state == StateClosed {
			c.mu.Unlock()
			return err
		}
		notify = c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		notify()
		return err
	}

	c.adopt(conn)
	return nil
}

// Send transmits a packet over the current connection.
func (c *Client) Send(p osc.Packet) error {
	c.mu.RLock()
	conn := c.conn
	state := c.state
	c.mu.RUnlock()

	if state == StateClosed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Send(p)
}

// Close shuts the client down. Any active connection is closed and no
// further reconnection is attempted.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.conn = nil
	notify := c.setStateLocked(StateClosed)
	c.mu.Unlock()
	notify()

	c.cancel()
	var err error
	if conn != nil {
		err = conn.Close()
	}
	c.wg.Wait()
	return err
}

// BackoffAttempts returns the number of reconnection attempts since
// the last successful connect.
func (c *Client) BackoffAttempts() int {
	return c.backoff.Attempts()
}

// adopt installs a freshly dialed connection and starts its receive
// loop. If the client was closed while the dial was in flight, the
// connection is discarded instead.
func (c *Client) adopt(conn *transport.ClientConn) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.backoff.Reset()
	c.wg.Add(1)
	notify := c.setStateLocked(StateConnected)
	c.mu.Unlock()
	notify()

	go c.receiveLoop(conn)
}

// setStateLocked transitions the state and returns a func the caller
// must invoke after releasing c.mu to fire the state callback.
func (c *Client) setStateLocked(newState State) func() {
	oldState := c.state
	c.state = newState
	if c.config.OnStateChange == nil || oldState == newState {
		return func() {}
	}
	return func() { c.config.OnStateChange(oldState, newState) }
}

// receiveLoop reads packets until the connection fails, then hands
// over to the reconnect loop.
func (c *Client) receiveLoop(conn *transport.ClientConn) {
	defer c.wg.Done()

	for {
		p, err := conn.Receive(0)
		if err != nil {
			c.onConnectionLost(conn, err)
			return
		}
		if c.config.OnPacket != nil {
			c.config.OnPacket(p)
		}
	}
}

// onConnectionLost records the loss and triggers reconnection unless
// the client is shutting down.
func (c *Client) onConnectionLost(conn *transport.ClientConn, err error) {
	conn.Close()

	c.mu.Lock()
	if c.state == StateClosed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil

	if c.config.DisableReconnect {
		notify := c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		notify()
		return
	}
	notify := c.setStateLocked(StateReconnecting)
	c.mu.Unlock()
	notify()

	if c.config.OnError != nil && !errors.Is(err, transport.ErrConnectionClosed) {
		c.config.OnError(err)
	}

	select {
	case c.reconnectCh <- struct{}{}:
	default:
	}
}

// reconnectLoop runs for the lifetime of the client and redials with
// backoff whenever a connection loss is signalled.
func (c *Client) reconnectLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.reconnectCh:
			c.redial()
		}
	}
}

// redial attempts to reconnect until it succeeds or the client closes.
func (c *Client) redial() {
	for {
		if c.State() != StateReconnecting {
			return
		}

		delay := c.backoff.Next()
		if c.config.OnReconnecting != nil {
			c.config.OnReconnecting(c.backoff.Attempts(), delay)
		}

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(delay):
		}

		if c.State() != StateReconnecting {
			return
		}

		conn, err := c.dialer.Connect(c.ctx, c.config.Address)
		if err != nil {
			continue
		}

		c.adopt(conn)
		return
	}
}
