// Package transport provides stream framing for OSC packets.
//
// OSC packets have no self-delimiting header, so a reliable byte
// stream needs explicit framing to preserve packet boundaries:
//
//	┌────────────────────────────────┐
//	│         OSC Packets            │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// Each frame is a 4-byte big-endian unsigned length followed by
// exactly that many bytes holding one encoded packet. There are no
// other framing bytes.
//
// FrameReader and FrameWriter operate on raw byte frames. Conn layers
// the codec on top and exchanges decoded osc.Packet values; Client and
// Server add TCP connection management.
//
// # Concurrency
//
// One concurrent reader plus one concurrent writer per connection are
// safe. Multiple concurrent writers serialize on the writer's mutex so
// partial frames never interleave; multiple concurrent readers must be
// serialized by the caller.
//
// # Failure Semantics
//
// A stream that ends before a complete length prefix or payload is a
// connection-closed condition (ErrConnectionClosed), reported
// distinctly from a malformed-payload decode error. Neither is retried
// here; after either failure the connection should be closed and
// re-established before reuse.
package transport
