// Package interactive provides the interactive command-line interface
// for the OSC console.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/osc-protocol/osc-go/pkg/connection"
	"github.com/osc-protocol/osc-go/pkg/discovery"
	"github.com/osc-protocol/osc-go/pkg/inspect"
	"github.com/osc-protocol/osc-go/pkg/log"
	"github.com/osc-protocol/osc-go/pkg/osc"
)

// Console handles the interactive command loop.
type Console struct {
	client    *connection.Client
	formatter *inspect.Formatter
	rl        *readline.Instance

	logger  log.Logger
	address string
}

// Config configures a console session.
type Config struct {
	// Address to connect to on startup (optional).
	Address string

	// Logger for protocol capture (optional).
	Logger log.Logger
}

// New creates a console handler. If config.Address is set the first
// connect command is implied.
func New(config Config) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "osc> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{
		formatter: inspect.NewFormatter(),
		rl:        rl,
		logger:    config.Logger,
		address:   config.Address,
	}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with input.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()
	defer c.closeClient()

	c.printHelp()

	if c.address != "" {
		c.cmdConnect(ctx, []string{c.address})
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		tokens, err := Tokenize(input)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Parse error: %v\n", err)
			continue
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "connect":
			c.cmdConnect(ctx, args)

		case "disconnect":
			c.cmdDisconnect()

		case "send", "s":
			c.cmdSend(args)

		case "bundle", "b":
			c.cmdBundle(args)

		case "discover", "d":
			c.cmdDiscover(ctx)

		case "status":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
OSC Console Commands:
  Connection:
    connect <host:port>        - Connect to a server
    disconnect                 - Close the current connection
    discover                   - Browse for servers via mDNS
    status                     - Show connection state

  Sending:
    send /address [args...]    - Send a message
    bundle <delay-s> /address [args...] ; /address [args...]
                               - Send messages in one bundle scheduled
                                 delay-s seconds from now (0 = now)

  Argument Literals:
    42      int32      42h         int64
    1.5     float32    1.5d        float64
    "text"  string     b:deadbeef  blob
    t:now   immediate  m:01903c7f  MIDI

  General:
    help                       - Show this help
    quit                       - Exit console`)
}

// cmdConnect handles the connect command.
func (c *Console) cmdConnect(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: connect <host:port>")
		return
	}

	c.closeClient()

	client := connection.NewClient(connection.Config{
		Address: args[0],
		Logger:  c.logger,
		OnPacket: func(p osc.Packet) {
			fmt.Fprintf(c.rl.Stdout(), "<< %s\n", c.formatter.FormatPacket(p))
		},
		OnStateChange: func(oldState, newState connection.State) {
			fmt.Fprintf(c.rl.Stdout(), "[%s -> %s]\n", oldState, newState)
		},
		OnReconnecting: func(attempt int, delay time.Duration) {
			fmt.Fprintf(c.rl.Stdout(), "[reconnect attempt %d in %s]\n", attempt, delay)
		},
	})

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := client.Connect(connectCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Connect failed: %v\n", err)
		client.Close()
		return
	}

	c.client = client
	fmt.Fprintf(c.rl.Stdout(), "Connected to %s\n", args[0])
}

// cmdDisconnect handles the disconnect command.
func (c *Console) cmdDisconnect() {
	if c.client == nil {
		fmt.Fprintln(c.rl.Stdout(), "Not connected")
		return
	}
	c.closeClient()
	fmt.Fprintln(c.rl.Stdout(), "Disconnected")
}

// cmdSend handles the send command.
func (c *Console) cmdSend(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: send /address [args...]")
		return
	}

	msg, err := buildMessage(args)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	c.sendPacket(msg)
}

// cmdBundle handles the bundle command. Messages are separated by ";"
// tokens.
func (c *Console) cmdBundle(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: bundle <delay-s> /address [args...] ; /address [args...]")
		return
	}

	var when osc.Time
	delayArg, err := ParseArgument(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid delay: %v\n", err)
		return
	}
	switch d := delayArg.(type) {
	case osc.Int32:
		if d == 0 {
			when = osc.Immediate
		} else {
			when = osc.TimeNow() + osc.Time(d)
		}
	case osc.Float32:
		when = osc.TimeNow() + osc.Time(d)
	default:
		fmt.Fprintln(c.rl.Stdout(), "Delay must be a number of seconds")
		return
	}

	var elements []osc.Packet
	for _, group := range splitOnSemicolons(args[1:]) {
		if len(group) == 0 {
			continue
		}
		msg, err := buildMessage(group)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
			return
		}
		elements = append(elements, msg)
	}

	bundle, err := osc.NewBundle(when, elements...)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	c.sendPacket(bundle)
}

// cmdDiscover handles the discover command.
func (c *Console) cmdDiscover(ctx context.Context) {
	fmt.Fprintln(c.rl.Stdout(), "Browsing for OSC servers...")

	browseCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	browser := discovery.NewBrowser(discovery.BrowserConfig{})
	results, err := browser.Browse(browseCtx)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Browse error: %v\n", err)
		return
	}

	found := 0
	for svc := range results {
		found++
		addr := svc.Host
		if len(svc.Addresses) > 0 {
			addr = svc.Addresses[0]
		}
		fmt.Fprintf(c.rl.Stdout(), "  %d. %s at %s:%d (proto %s",
			found, svc.InstanceName, addr, svc.Port, svc.Protocol)
		if svc.ServerName != "" {
			fmt.Fprintf(c.rl.Stdout(), ", %s", svc.ServerName)
		}
		fmt.Fprintln(c.rl.Stdout(), ")")
	}
	if found == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No servers found")
	}
}

// cmdStatus handles the status command.
func (c *Console) cmdStatus() {
	if c.client == nil {
		fmt.Fprintln(c.rl.Stdout(), "Not connected")
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "State: %s\n", c.client.State())
	if attempts := c.client.BackoffAttempts(); attempts > 0 {
		fmt.Fprintf(c.rl.Stdout(), "Reconnect attempts: %d\n", attempts)
	}
}

func (c *Console) sendPacket(p osc.Packet) {
	if c.client == nil {
		fmt.Fprintln(c.rl.Stdout(), "Not connected (use 'connect <host:port>')")
		return
	}
	if err := c.client.Send(p); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Send failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), ">> %s\n", c.formatter.FormatPacket(p))
}

func (c *Console) closeClient() {
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

// buildMessage parses an address token and argument literals.
func buildMessage(tokens []string) (*osc.Message, error) {
	args, err := ParseArguments(tokens[1:])
	if err != nil {
		return nil, err
	}
	return osc.NewMessage(tokens[0], args...)
}

// splitOnSemicolons splits tokens into groups separated by ";" tokens.
func splitOnSemicolons(tokens []string) [][]string {
	var groups [][]string
	var current []string
	for _, tok := range tokens {
		if tok == ";" {
			groups = append(groups, current)
			current = nil
			continue
		}
		current = append(current, tok)
	}
	groups = append(groups, current)
	return groups
}
