package discovery

import (
	"errors"

	"github.com/osc-protocol/osc-go/pkg/version"
)

// Service discovery constants.
const (
	// ServiceType is the mDNS service type for OSC over TCP.
	ServiceType = "_osc._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// TXTVersion is the TXT record format version.
	TXTVersion = "1"

	// ProtocolVersion is the OSC protocol version advertised by this
	// implementation.
	ProtocolVersion = version.Current

	// MaxInstanceNameLen is the maximum mDNS instance name length.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyVersion       = "txtvers"
	TXTKeyProtocol      = "proto"
	TXTKeyServerName    = "srv"
	TXTKeyMaxPacketSize = "maxpkt"
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrNotFound            = errors.New("service not found")
	ErrInstanceNameInvalid = errors.New("invalid instance name")
)

// ServiceInfo describes an OSC server to advertise.
type ServiceInfo struct {
	// InstanceName is the mDNS instance name (e.g. "synth-1").
	InstanceName string

	// Port the server listens on.
	Port uint16

	// ServerName is a human-readable server name (optional).
	ServerName string

	// MaxPacketSize is the server's maximum encoded packet size in
	// bytes (optional, 0 means unspecified).
	MaxPacketSize uint32
}

// Service is a discovered OSC server.
type Service struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Host is the mDNS hostname.
	Host string

	// Port the server listens on.
	Port uint16

	// Addresses are the resolved IP addresses (IPv4 and IPv6).
	Addresses []string

	// Protocol is the advertised OSC protocol version.
	Protocol string

	// ServerName is the advertised server name, if any.
	ServerName string

	// MaxPacketSize is the advertised maximum packet size, 0 if not
	// advertised.
	MaxPacketSize uint32
}

// Compatible reports whether the discovered service speaks a protocol
// version this library can talk to (same major version).
func (s *Service) Compatible() bool {
	remote, err := version.Parse(s.Protocol)
	if err != nil {
		return false
	}
	local, _ := version.Parse(version.Current)
	return local.Compatible(remote)
}
