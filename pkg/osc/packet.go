package osc

import (
	"errors"
	"fmt"
	"strings"
)

// Construction and decode errors.
var (
	// ErrInvalidAddress indicates a message address that does not
	// start with '/'.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrEmptyBundle indicates a bundle with no elements.
	ErrEmptyBundle = errors.New("bundle has no elements")

	// ErrUnknownTag indicates an unrecognized type tag character.
	ErrUnknownTag = errors.New("unknown type tag")

	// ErrInvalidDescriptor indicates a type descriptor string that
	// does not start with ','.
	ErrInvalidDescriptor = errors.New("invalid type descriptor")

	// ErrTruncated indicates fewer bytes than a field requires.
	ErrTruncated = errors.New("truncated packet")

	// ErrInvalidBlobLength indicates a blob length that is negative
	// or runs past the end of the buffer.
	ErrInvalidBlobLength = errors.New("invalid blob length")

	// ErrTrailingBytes indicates unconsumed bytes after a complete
	// packet.
	ErrTrailingBytes = errors.New("trailing bytes after packet")

	// ErrBundleTooDeep indicates bundle nesting beyond MaxBundleDepth.
	ErrBundleTooDeep = errors.New("bundle nested too deeply")
)

// Packet is the unit transmitted on the wire: either a *Message or a
// *Bundle. The set of implementations is closed.
type Packet interface {
	isPacket()
}

// Message is an addressed, ordered list of arguments.
// Build with NewMessage; the address must start with '/'.
type Message struct {
	Address   string
	Arguments []Argument
}

// Bundle is a time-tagged, non-empty ordered list of packets. Elements
// are usually messages, but the wire format allows bundles to nest, so
// elements are packets.
// Build with NewBundle.
type Bundle struct {
	Time     Time
	Elements []Packet
}

func (*Message) isPacket() {}
func (*Bundle) isPacket()  {}

// NewMessage builds a message. The address must start with '/';
// malformed addresses are a construction-time error and never reach
// the codec.
func NewMessage(address string, args ...Argument) (*Message, error) {
	if !strings.HasPrefix(address, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return &Message{Address: address, Arguments: args}, nil
}

// NewBundle builds a bundle. At least one element is required;
// constructing an empty bundle is an error.
func NewBundle(t Time, elements ...Packet) (*Bundle, error) {
	if len(elements) == 0 {
		return nil, ErrEmptyBundle
	}
	return &Bundle{Time: t, Elements: elements}, nil
}

// TypeTags returns the comma-prefixed descriptor string for the
// message's arguments, e.g. ",ifs".
func (m *Message) TypeTags() string {
	tags := make([]byte, len(m.Arguments)+1)
	tags[0] = ','
	for i, a := range m.Arguments {
		tags[i+1] = a.Tag()
	}
	return string(tags)
}
