// Command osc-console is an interactive OSC client.
//
// It connects to an OSC server over TCP, sends messages and bundles
// typed as literals at a prompt, and prints every packet the server
// sends back. Servers on the local network can be found via mDNS.
//
// Usage:
//
//	osc-console [flags]
//
// Flags:
//
//	-addr string     Server address to connect to on startup (host:port)
//	-capture string  Write a protocol capture of all traffic to this file
//
// Examples:
//
//	# Connect on startup
//	osc-console -addr 127.0.0.1:57110
//
//	# Record everything sent and received
//	osc-console -addr 127.0.0.1:57110 -capture session.oclog
//
// Interactive Commands:
//
//	connect <host:port>     - Connect to a server
//	discover                - Browse for servers via mDNS
//	send /address [args...] - Send a message
//	bundle <delay-s> ...    - Send a scheduled bundle
//	status                  - Show connection state
//	quit                    - Exit the console
package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/osc-protocol/osc-go/cmd/osc-console/interactive"
	"github.com/osc-protocol/osc-go/pkg/log"
)

func main() {
	var (
		addr    = flag.String("addr", "", "Server address to connect to on startup (host:port)")
		capture = flag.String("capture", "", "Write a protocol capture to this file")
	)
	flag.Parse()

	var logger log.Logger
	if *capture != "" {
		fileLogger, err := log.NewFileLogger(*capture)
		if err != nil {
			stdlog.Fatalf("Failed to open capture file: %v", err)
		}
		defer fileLogger.Close()
		logger = fileLogger
	}

	console, err := interactive.New(interactive.Config{
		Address: *addr,
		Logger:  logger,
	})
	if err != nil {
		stdlog.Fatalf("Failed to create console: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redirect log output through readline to avoid interfering with
	// the prompt.
	stdlog.SetOutput(console.Stdout())

	go console.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}
}
