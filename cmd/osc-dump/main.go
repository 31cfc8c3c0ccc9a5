// Command osc-dump is an OSC monitor server.
//
// It listens for OSC stream connections, decodes every incoming
// packet and prints it in human-readable form. Traffic can also be
// recorded to a capture file for later analysis with osc-log, and the
// monitor can announce itself via mDNS so consoles find it without
// configuration.
//
// Usage:
//
//	osc-dump [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-listen string     TCP address to listen on (default ":57110")
//	-capture string    Write a protocol capture to this file
//	-advertise string  Advertise via mDNS under this instance name
//	-frames            Also print transport-layer frames
//
// Examples:
//
//	# Print every packet arriving on the default port
//	osc-dump
//
//	# Record traffic and announce the monitor on the local network
//	osc-dump -listen :9000 -capture traffic.oclog -advertise monitor-1
//
// Flags override values from the configuration file.
package main

import (
	"context"
	"flag"
	stdlog "log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/osc-protocol/osc-go/pkg/discovery"
	"github.com/osc-protocol/osc-go/pkg/inspect"
	"github.com/osc-protocol/osc-go/pkg/log"
	"github.com/osc-protocol/osc-go/pkg/osc"
	"github.com/osc-protocol/osc-go/pkg/transport"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path (YAML)")
		listen     = flag.String("listen", "", "TCP address to listen on")
		capture    = flag.String("capture", "", "Write a protocol capture to this file")
		advertise  = flag.String("advertise", "", "Advertise via mDNS under this instance name")
		frames     = flag.Bool("frames", false, "Also print transport-layer frames")
	)
	flag.Parse()

	config := DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = LoadConfig(*configPath)
		if err != nil {
			stdlog.Fatalf("Failed to load config: %v", err)
		}
	}
	if *listen != "" {
		config.Listen = *listen
	}
	if *capture != "" {
		config.Capture = *capture
	}
	if *advertise != "" {
		config.Advertise = *advertise
	}
	if *frames {
		config.ShowFrames = true
	}

	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)

	var loggers []log.Logger
	if config.Capture != "" {
		fileLogger, err := log.NewFileLogger(config.Capture)
		if err != nil {
			stdlog.Fatalf("Failed to open capture file: %v", err)
		}
		defer fileLogger.Close()
		loggers = append(loggers, fileLogger)
		stdlog.Printf("Recording capture to %s", config.Capture)
	}
	if config.ShowFrames {
		loggers = append(loggers, frameLogger{})
	}

	var logger log.Logger
	switch len(loggers) {
	case 0:
	case 1:
		logger = loggers[0]
	default:
		logger = log.NewMultiLogger(loggers...)
	}

	formatter := inspect.NewFormatter()

	server := transport.NewServer(transport.ServerConfig{
		Address:       config.Listen,
		MaxPacketSize: config.MaxPacketSize,
		Logger:        logger,
		OnConnect: func(conn *transport.ServerConn) {
			stdlog.Printf("[%s] connected from %s", shortID(conn.ID()), conn.RemoteAddr())
		},
		OnDisconnect: func(conn *transport.ServerConn) {
			stdlog.Printf("[%s] disconnected", shortID(conn.ID()))
		},
		OnPacket: func(conn *transport.ServerConn, p osc.Packet) {
			stdlog.Printf("[%s] %s", shortID(conn.ID()), formatter.FormatPacket(p))
		},
		OnError: func(conn *transport.ServerConn, err error) {
			stdlog.Printf("[%s] error: %v", shortID(conn.ID()), err)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	stdlog.Printf("Listening on %s", server.Addr())

	if config.Advertise != "" {
		adv := discovery.NewAdvertiser(discovery.DefaultAdvertiserConfig())
		maxSize := config.MaxPacketSize
		if maxSize == 0 {
			maxSize = transport.DefaultMaxPacketSize
		}
		tcpAddr := server.Addr().(*net.TCPAddr)
		err := adv.Advertise(&discovery.ServiceInfo{
			InstanceName:  config.Advertise,
			Port:          uint16(tcpAddr.Port),
			ServerName:    "osc-dump",
			MaxPacketSize: maxSize,
		})
		if err != nil {
			stdlog.Printf("Warning: mDNS advertise failed: %v", err)
		} else {
			defer adv.Stop()
			stdlog.Printf("Advertising as %q", config.Advertise)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	stdlog.Printf("Received signal: %v", sig)

	if err := server.Stop(); err != nil {
		stdlog.Printf("Error stopping server: %v", err)
	}
}

// frameLogger prints transport-layer frame events to the standard
// logger.
type frameLogger struct{}

func (frameLogger) Log(event log.Event) {
	if event.Frame == nil {
		return
	}
	stdlog.Printf("[%s] frame %s %d bytes",
		shortID(event.ConnectionID), event.Direction, event.Frame.Size)
}

// shortID returns the first 8 characters of a connection ID.
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
