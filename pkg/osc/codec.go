package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// MaxBundleDepth bounds bundle nesting during encode and decode, so a
// hostile buffer cannot drive unbounded recursion.
const MaxBundleDepth = 8

// bundleMarker is the encoded ASCII string "#bundle" that opens every
// bundle: seven characters plus the null terminator, already a
// multiple of 4.
var bundleMarker = []byte("#bundle\x00")

// EncodePacket encodes a message or bundle to its canonical byte
// representation.
func EncodePacket(p Packet) ([]byte, error) {
	return encodePacket(nil, p, 0)
}

func encodePacket(buf []byte, p Packet, depth int) ([]byte, error) {
	switch v := p.(type) {
	case *Message:
		return encodeMessage(buf, v)
	case *Bundle:
		return encodeBundle(buf, v, depth)
	default:
		return nil, fmt.Errorf("cannot encode packet of type %T", p)
	}
}

// encodeMessage appends: address string, type descriptor string, then
// each argument's encoding in order.
func encodeMessage(buf []byte, m *Message) ([]byte, error) {
	if len(m.Address) == 0 || m.Address[0] != '/' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, m.Address)
	}
	buf = appendPaddedString(buf, m.Address)
	buf = appendPaddedString(buf, m.TypeTags())
	for _, a := range m.Arguments {
		buf = appendArgument(buf, a)
	}
	return buf, nil
}

// encodeBundle appends: the "#bundle" marker, the 8-byte time tag,
// then each element as a 4-byte big-endian length followed by the
// element's encoding.
func encodeBundle(buf []byte, b *Bundle, depth int) ([]byte, error) {
	if depth >= MaxBundleDepth {
		return nil, ErrBundleTooDeep
	}
	if len(b.Elements) == 0 {
		return nil, ErrEmptyBundle
	}
	buf = append(buf, bundleMarker...)
	buf = appendTimeTag(buf, b.Time)
	for _, el := range b.Elements {
		enc, err := encodePacket(nil, el, depth+1)
		if err != nil {
			return nil, err
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(enc)))
		buf = append(buf, enc...)
	}
	return buf, nil
}

// appendArgument appends the wire encoding of a single argument.
func appendArgument(buf []byte, a Argument) []byte {
	switch v := a.(type) {
	case Int32:
		return binary.BigEndian.AppendUint32(buf, uint32(v))
	case Int64:
		return binary.BigEndian.AppendUint64(buf, uint64(v))
	case Float32:
		return binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(v)))
	case Float64:
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(float64(v)))
	case String:
		return appendPaddedString(buf, string(v))
	case Blob:
		return appendBlob(buf, v)
	case Time:
		return appendTimeTag(buf, v)
	case MIDI:
		return append(buf, v[:]...)
	default:
		// Unreachable: Argument is a closed union.
		panic(fmt.Sprintf("unknown argument type %T", a))
	}
}

// appendPaddedString appends s, a null terminator, and further zero
// padding so the emitted length is a multiple of 4. At least one null
// is always emitted.
func appendPaddedString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	pad := 4 - len(s)%4
	return append(buf, make([]byte, pad)...)
}

// appendBlob appends a 4-byte big-endian length, the raw bytes, and
// zero padding so bytes-plus-padding is a multiple of 4. The length
// field excludes padding.
func appendBlob(buf []byte, b Blob) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	buf = append(buf, b...)
	if pad := len(b) % 4; pad != 0 {
		buf = append(buf, make([]byte, 4-pad)...)
	}
	return buf
}

// DecodePacket decodes one complete packet from data. The buffer must
// be consumed exactly; leftover bytes are an error. A failed decode
// never returns a partial packet.
func DecodePacket(data []byte) (Packet, error) {
	return decodePacket(data, 0)
}

func decodePacket(data []byte, depth int) (Packet, error) {
	if len(data) >= len(bundleMarker) && bytes.Equal(data[:len(bundleMarker)], bundleMarker) {
		return decodeBundle(data, depth)
	}
	return decodeMessage(data)
}

// decodeMessage parses address, descriptor, then one argument per
// descriptor tag. The descriptor and the bytes actually present must
// agree exactly.
func decodeMessage(data []byte) (*Message, error) {
	addr, off, err := readPaddedString(data, 0)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	if len(addr) == 0 || addr[0] != '/' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}

	tags, off, err := readPaddedString(data, off)
	if err != nil {
		return nil, fmt.Errorf("type descriptor: %w", err)
	}
	if len(tags) == 0 || tags[0] != ',' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDescriptor, tags)
	}

	args := make([]Argument, 0, len(tags)-1)
	for _, tag := range []byte(tags[1:]) {
		arg, n, err := decodeArgument(tag, data, off)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%q): %w", len(args), tag, err)
		}
		args = append(args, arg)
		off += n
	}
	if off != len(data) {
		return nil, fmt.Errorf("%w: %d bytes left", ErrTrailingBytes, len(data)-off)
	}

	if len(args) == 0 {
		args = nil
	}
	return &Message{Address: addr, Arguments: args}, nil
}

// decodeBundle parses the time tag, then repeatedly a 4-byte length
// and that many bytes as one element, until the buffer is exhausted.
// Each element must consume its declared length exactly.
func decodeBundle(data []byte, depth int) (*Bundle, error) {
	if depth >= MaxBundleDepth {
		return nil, ErrBundleTooDeep
	}
	off := len(bundleMarker)
	if len(data) < off+TimeTagSize {
		return nil, fmt.Errorf("time tag: %w", ErrTruncated)
	}
	t := TimeFromBits(binary.BigEndian.Uint64(data[off:]))
	off += TimeTagSize

	var elements []Packet
	for off < len(data) {
		if len(data)-off < 4 {
			return nil, fmt.Errorf("element length: %w", ErrTruncated)
		}
		size := binary.BigEndian.Uint32(data[off:])
		off += 4
		if size > math.MaxInt32 || int(size) > len(data)-off {
			return nil, fmt.Errorf("element %d: %w", len(elements), ErrTruncated)
		}
		el, err := decodePacket(data[off:off+int(size)], depth+1)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", len(elements), err)
		}
		elements = append(elements, el)
		off += int(size)
	}
	if len(elements) == 0 {
		return nil, ErrEmptyBundle
	}
	return &Bundle{Time: t, Elements: elements}, nil
}

// decodeArgument decodes one argument of the given tag at offset,
// returning the value and the bytes consumed.
func decodeArgument(tag byte, data []byte, off int) (Argument, int, error) {
	remain := len(data) - off
	switch tag {
	case TagInt32:
		if remain < 4 {
			return nil, 0, ErrTruncated
		}
		return Int32(binary.BigEndian.Uint32(data[off:])), 4, nil
	case TagInt64:
		if remain < 8 {
			return nil, 0, ErrTruncated
		}
		return Int64(binary.BigEndian.Uint64(data[off:])), 8, nil
	case TagFloat32:
		if remain < 4 {
			return nil, 0, ErrTruncated
		}
		return Float32(math.Float32frombits(binary.BigEndian.Uint32(data[off:]))), 4, nil
	case TagFloat64:
		if remain < 8 {
			return nil, 0, ErrTruncated
		}
		return Float64(math.Float64frombits(binary.BigEndian.Uint64(data[off:]))), 8, nil
	case TagString:
		s, end, err := readPaddedString(data, off)
		if err != nil {
			return nil, 0, err
		}
		return String(s), end - off, nil
	case TagBlob:
		return decodeBlob(data, off)
	case TagTime:
		if remain < TimeTagSize {
			return nil, 0, ErrTruncated
		}
		return TimeFromBits(binary.BigEndian.Uint64(data[off:])), TimeTagSize, nil
	case TagMIDI:
		if remain < 4 {
			return nil, 0, ErrTruncated
		}
		var m MIDI
		copy(m[:], data[off:off+4])
		return m, 4, nil
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
}

// decodeBlob reads the length prefix, the raw bytes, and skips the
// padding. The padding must be present in the buffer.
func decodeBlob(data []byte, off int) (Argument, int, error) {
	if len(data)-off < 4 {
		return nil, 0, ErrTruncated
	}
	n := binary.BigEndian.Uint32(data[off:])
	if n > math.MaxInt32 {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidBlobLength, n)
	}
	padded := (int(n) + 3) &^ 3
	if padded > len(data)-off-4 {
		return nil, 0, fmt.Errorf("%w: %d bytes declared, %d available",
			ErrInvalidBlobLength, n, len(data)-off-4)
	}
	b := make(Blob, n)
	copy(b, data[off+4:off+4+int(n)])
	return b, 4 + padded, nil
}

// readPaddedString reads bytes up to the first null starting at off,
// then skips to the next 4-byte boundary from the field start. Returns
// the string and the offset past the padding.
func readPaddedString(data []byte, off int) (string, int, error) {
	i := bytes.IndexByte(data[off:], 0)
	if i < 0 {
		return "", 0, fmt.Errorf("%w: unterminated string", ErrTruncated)
	}
	end := off + ((i + 4) &^ 3)
	if end > len(data) {
		return "", 0, fmt.Errorf("%w: string padding", ErrTruncated)
	}
	return string(data[off : off+i]), end, nil
}
