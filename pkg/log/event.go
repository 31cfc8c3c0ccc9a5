package log

import (
	"time"
)

// Event represents one protocol capture event. CBOR encoding uses
// integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame  *FrameEvent     `cbor:"7,keyasint,omitempty"`  // Transport layer
	Packet *PacketEvent    `cbor:"8,keyasint,omitempty"`  // Codec layer (decoded)
	State  *StateEvent     `cbor:"9,keyasint,omitempty"`  // Connection state
	Error  *ErrorEventData `cbor:"10,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming frame or packet.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing frame or packet.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerCodec is the packet encoding layer (decoded OSC).
	LayerCodec Layer = 1
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerCodec:
		return "CODEC"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a frame or packet.
	CategoryMessage Category = 0
	// CategoryState indicates a connection state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame payload (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// PacketKind distinguishes messages from bundles.
type PacketKind uint8

const (
	// PacketKindMessage indicates an OSC message.
	PacketKindMessage PacketKind = 0
	// PacketKindBundle indicates an OSC bundle.
	PacketKindBundle PacketKind = 1
)

// String returns the packet kind name.
func (k PacketKind) String() string {
	switch k {
	case PacketKindMessage:
		return "MESSAGE"
	case PacketKindBundle:
		return "BUNDLE"
	default:
		return "UNKNOWN"
	}
}

// PacketEvent captures a decoded OSC packet at the codec layer.
type PacketEvent struct {
	// Kind distinguishes message from bundle.
	Kind PacketKind `cbor:"1,keyasint"`

	// For messages: the address pattern.
	Address string `cbor:"2,keyasint,omitempty"`

	// For messages: the comma-prefixed type tag string.
	TypeTags string `cbor:"3,keyasint,omitempty"`

	// For messages: the number of arguments.
	ArgCount int `cbor:"4,keyasint,omitempty"`

	// For bundles: the time tag in fractional seconds.
	Time float64 `cbor:"5,keyasint,omitempty"`

	// For bundles: the number of contained elements.
	ElementCount int `cbor:"6,keyasint,omitempty"`
}

// StateEvent captures connection lifecycle changes.
type StateEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
