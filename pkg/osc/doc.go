// Package osc implements the OSC 1.0 binary codec.
//
// OSC data is built from three layers:
//   - Argument: a tagged scalar or blob value (int32, int64, float32,
//     float64, ASCII string, blob, time tag, MIDI tuple)
//   - Message: an address plus an ordered argument list
//   - Bundle: a time-tagged, non-empty ordered list of packets
//
// A Packet is either a Message or a Bundle and is the unit placed on
// the wire. All multi-byte values are big-endian and every field is
// padded to a 4-byte boundary as required by OSC 1.0. The 64-bit float
// tag 'd' is supported as an extension.
//
// # Encoding
//
//	msg, _ := osc.NewMessage("/synth/freq", osc.Float32(440))
//	data, _ := osc.EncodePacket(msg)
//
// # Decoding
//
// DecodePacket consumes the whole buffer; leftover bytes are an error.
// Decode failures never yield a partial packet.
//
//	pkt, err := osc.DecodePacket(data)
//
// Bundles may nest recursively on the wire; decoding enforces
// MaxBundleDepth to bound recursion on untrusted input.
package osc
