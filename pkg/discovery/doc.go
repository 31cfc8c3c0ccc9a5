// Package discovery provides mDNS advertisement and browsing for OSC
// servers.
//
// Servers register the service type "_osc._tcp" in the local domain.
// TXT records carry the protocol version, a human-readable server
// name and the server's maximum packet size, so clients can size
// their receive buffers before connecting.
//
// # TXT Record Keys
//
//	txtvers  TXT record format version (always "1", required)
//	proto    OSC protocol version, e.g. "1.0" (required)
//	srv      server name (optional)
//	maxpkt   maximum encoded packet size in bytes (optional)
package discovery
