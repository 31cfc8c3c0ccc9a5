package connection

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/osc-protocol/osc-go/pkg/osc"
	"github.com/osc-protocol/osc-go/pkg/transport"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Jitter: 0})

		// Expected sequence: 1s, 2s, 4s, 8s, 16s, 30s, 30s...
		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			30 * time.Second,
			30 * time.Second, // Should stay at max
		}

		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("Attempt %d: delay = %v, want %v", i, got, exp)
			}
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{})

		// All samples should be between 1s and 1.25s.
		samples := make([]time.Duration, 10)
		for i := range samples {
			samples[i] = b.Peek()
		}
		for i, s := range samples {
			if s < 1*time.Second || s > time.Duration(float64(time.Second)*1.25)+time.Millisecond {
				t.Errorf("Sample %d: %v out of expected range [1s, 1.25s]", i, s)
			}
		}

		// At least some samples should differ.
		allSame := true
		for i := 1; i < len(samples); i++ {
			if samples[i] != samples[0] {
				allSame = false
			}
		}
		if allSame {
			t.Error("jitter produced identical samples")
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Jitter: 0})

		b.Next()
		b.Next()
		b.Next()
		if b.Attempts() != 3 {
			t.Errorf("Attempts = %d, want 3", b.Attempts())
		}

		b.Reset()
		if b.Attempts() != 0 {
			t.Errorf("Attempts after reset = %d, want 0", b.Attempts())
		}
		if got := b.Next(); got != 1*time.Second {
			t.Errorf("delay after reset = %v, want 1s", got)
		}
	})

	t.Run("CustomConfig", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{
			Initial:    10 * time.Millisecond,
			Max:        40 * time.Millisecond,
			Multiplier: 2.0,
			Jitter:     0,
		})

		expected := []time.Duration{
			10 * time.Millisecond,
			20 * time.Millisecond,
			40 * time.Millisecond,
			40 * time.Millisecond,
		}
		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("Attempt %d: delay = %v, want %v", i, got, exp)
			}
		}
	})
}

// fastBackoff keeps reconnection tests quick.
func fastBackoff() BackoffConfig {
	return BackoffConfig{
		Initial:    5 * time.Millisecond,
		Max:        20 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     0,
	}
}

func startServer(t *testing.T, config transport.ServerConfig) *transport.Server {
	t.Helper()
	config.Address = "127.0.0.1:0"
	server := transport.NewServer(config)
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("server start failed: %v", err)
	}
	t.Cleanup(func() { server.Stop() })
	return server
}

func TestClientConnect(t *testing.T) {
	serverGot := make(chan osc.Packet, 1)
	server := startServer(t, transport.ServerConfig{
		OnPacket: func(conn *transport.ServerConn, p osc.Packet) {
			serverGot <- p
			// Echo back.
			if err := conn.Send(p); err != nil {
				t.Errorf("echo failed: %v", err)
			}
		},
	})

	clientGot := make(chan osc.Packet, 1)
	client := NewClient(Config{
		Address:  server.Addr().String(),
		Backoff:  fastBackoff(),
		OnPacket: func(p osc.Packet) { clientGot <- p },
	})
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !client.IsConnected() {
		t.Error("IsConnected = false after Connect")
	}

	// Connecting again while connected is a no-op.
	if err := client.Connect(context.Background()); err != nil {
		t.Errorf("second Connect = %v, want nil", err)
	}

	msg, err := osc.NewMessage("/ping", osc.Int32(7))
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if err := client.Send(msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case p := <-serverGot:
		if !reflect.DeepEqual(p, msg) {
			t.Errorf("server received %#v, want %#v", p, msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server packet")
	}

	select {
	case p := <-clientGot:
		if !reflect.DeepEqual(p, msg) {
			t.Errorf("client received %#v, want %#v", p, msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

func TestClientSendNotConnected(t *testing.T) {
	client := NewClient(Config{Address: "127.0.0.1:1", Backoff: fastBackoff()})
	defer client.Close()

	msg, _ := osc.NewMessage("/x")
	if err := client.Send(msg); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send = %v, want ErrNotConnected", err)
	}
}

func TestClientConnectRefused(t *testing.T) {
	client := NewClient(Config{
		Address:        "127.0.0.1:1",
		ConnectTimeout: 2 * time.Second,
		Backoff:        fastBackoff(),
	})
	defer client.Close()

	if err := client.Connect(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
	// A failed first dial leaves the client disconnected, not
	// reconnecting.
	if state := client.State(); state != StateDisconnected {
		t.Errorf("State = %v, want DISCONNECTED", state)
	}
}

func TestClientReconnect(t *testing.T) {
	var mu sync.Mutex
	var serverConns []*transport.ServerConn

	connected := make(chan struct{}, 4)
	server := startServer(t, transport.ServerConfig{
		OnConnect: func(conn *transport.ServerConn) {
			mu.Lock()
			serverConns = append(serverConns, conn)
			mu.Unlock()
			connected <- struct{}{}
		},
	})

	var statesMu sync.Mutex
	var states []State
	client := NewClient(Config{
		Address: server.Addr().String(),
		Backoff: fastBackoff(),
		OnStateChange: func(oldState, newState State) {
			statesMu.Lock()
			states = append(states, newState)
			statesMu.Unlock()
		},
	})
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	<-connected

	// Drop the connection server-side; the client should redial.
	mu.Lock()
	serverConns[0].Close()
	mu.Unlock()

	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reconnect")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !client.IsConnected() {
		if time.Now().After(deadline) {
			t.Fatal("client never returned to CONNECTED")
		}
		time.Sleep(5 * time.Millisecond)
	}

	statesMu.Lock()
	defer statesMu.Unlock()
	want := []State{StateConnecting, StateConnected, StateReconnecting, StateConnected}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("state transitions = %v, want %v", states, want)
	}
}

func TestClientDisableReconnect(t *testing.T) {
	var mu sync.Mutex
	var serverConns []*transport.ServerConn

	connected := make(chan struct{}, 1)
	server := startServer(t, transport.ServerConfig{
		OnConnect: func(conn *transport.ServerConn) {
			mu.Lock()
			serverConns = append(serverConns, conn)
			mu.Unlock()
			connected <- struct{}{}
		},
	})

	client := NewClient(Config{
		Address:          server.Addr().String(),
		Backoff:          fastBackoff(),
		DisableReconnect: true,
	})
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	<-connected

	mu.Lock()
	serverConns[0].Close()
	mu.Unlock()

	deadline := time.Now().Add(5 * time.Second)
	for client.State() != StateDisconnected {
		if time.Now().After(deadline) {
			t.Fatalf("State = %v, want DISCONNECTED", client.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientClose(t *testing.T) {
	server := startServer(t, transport.ServerConfig{})

	client := NewClient(Config{
		Address: server.Addr().String(),
		Backoff: fastBackoff(),
	})

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if state := client.State(); state != StateClosed {
		t.Errorf("State = %v, want CLOSED", state)
	}

	msg, _ := osc.NewMessage("/x")
	if err := client.Send(msg); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
	if err := client.Connect(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Connect after Close = %v, want ErrClosed", err)
	}

	// Close is idempotent.
	if err := client.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestClientCloseDuringConnect(t *testing.T) {
	server := startServer(t, transport.ServerConfig{})

	// Race Close against an in-flight dial. Whichever order the two
	// land in, a closed client must stay closed: no connection may be
	// adopted and no receive loop started after Close returns.
	for i := 0; i < 50; i++ {
		client := NewClient(Config{
			Address: server.Addr().String(),
			Backoff: fastBackoff(),
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			client.Connect(context.Background())
		}()

		// Vary the offset so Close lands before, during, and after
		// the dial across iterations.
		time.Sleep(time.Duration(i%5) * 100 * time.Microsecond)

		if err := client.Close(); err != nil {
			t.Fatalf("iteration %d: Close failed: %v", i, err)
		}
		<-done

		if state := client.State(); state != StateClosed {
			t.Fatalf("iteration %d: client resurrected after Close: state = %v", i, state)
		}

		msg, _ := osc.NewMessage("/x")
		if err := client.Send(msg); !errors.Is(err, ErrClosed) {
			t.Fatalf("iteration %d: Send after Close = %v, want ErrClosed", i, err)
		}
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateDisconnected: "DISCONNECTED",
		StateConnecting:   "CONNECTING",
		StateConnected:    "CONNECTED",
		StateReconnecting: "RECONNECTING",
		StateClosed:       "CLOSED",
		State(99):         "UNKNOWN",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
