package osc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func mustMessage(t *testing.T, address string, args ...Argument) *Message {
	t.Helper()
	m, err := NewMessage(address, args...)
	if err != nil {
		t.Fatalf("NewMessage(%q) failed: %v", address, err)
	}
	return m
}

func mustBundle(t *testing.T, tm Time, elements ...Packet) *Bundle {
	t.Helper()
	b, err := NewBundle(tm, elements...)
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}
	return b
}

func TestArgumentRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		arg  Argument
	}{
		{name: "int32", arg: Int32(42)},
		{name: "int32 negative", arg: Int32(-1)},
		{name: "int32 min", arg: Int32(-2147483648)},
		{name: "int64", arg: Int64(1 << 40)},
		{name: "int64 negative", arg: Int64(-9000000000)},
		{name: "float32", arg: Float32(440.0)},
		{name: "float32 tiny", arg: Float32(1e-30)},
		{name: "float64", arg: Float64(3.141592653589793)},
		{name: "string", arg: String("hello")},
		{name: "string empty", arg: String("")},
		{name: "string exact pad", arg: String("abc")},
		{name: "blob", arg: Blob{0xde, 0xad, 0xbe, 0xef}},
		{name: "blob unaligned", arg: Blob{1, 2, 3, 4, 5}},
		{name: "midi", arg: MIDI{0x00, 0x90, 0x3c, 0x7f}},
		{name: "time", arg: Time(1.5)},
		{name: "time immediate", arg: Immediate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := mustMessage(t, "/t", tt.arg)
			data, err := EncodePacket(msg)
			if err != nil {
				t.Fatalf("EncodePacket failed: %v", err)
			}

			decoded, err := DecodePacket(data)
			if err != nil {
				t.Fatalf("DecodePacket failed: %v", err)
			}

			got, ok := decoded.(*Message)
			if !ok {
				t.Fatalf("decoded %T, want *Message", decoded)
			}
			if len(got.Arguments) != 1 {
				t.Fatalf("got %d arguments, want 1", len(got.Arguments))
			}
			if !reflect.DeepEqual(got.Arguments[0], tt.arg) {
				t.Errorf("argument mismatch: got %#v, want %#v", got.Arguments[0], tt.arg)
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
	}{
		{
			name: "no arguments",
			msg:  &Message{Address: "/status"},
		},
		{
			name: "mixed arguments",
			msg: &Message{
				Address: "/s_new",
				Arguments: []Argument{
					String("default"), Int32(1001), Int32(0), Int32(1),
					String("freq"), Float32(440),
				},
			},
		},
		{
			name: "all types",
			msg: &Message{
				Address: "/all",
				Arguments: []Argument{
					Int32(1), Int64(2), Float32(3), Float64(4),
					String("five"), Blob{6}, Time(7), MIDI{8, 9, 10, 11},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePacket(tt.msg)
			if err != nil {
				t.Fatalf("EncodePacket failed: %v", err)
			}
			if len(data)%4 != 0 {
				t.Errorf("encoded length %d not a multiple of 4", len(data))
			}

			decoded, err := DecodePacket(data)
			if err != nil {
				t.Fatalf("DecodePacket failed: %v", err)
			}
			if !reflect.DeepEqual(decoded, tt.msg) {
				t.Errorf("round trip mismatch:\n got  %#v\n want %#v", decoded, tt.msg)
			}
		})
	}
}

func TestBundleRoundTrip(t *testing.T) {
	msg1 := &Message{Address: "/a", Arguments: []Argument{Int32(1)}}
	msg2 := &Message{Address: "/b", Arguments: []Argument{String("x")}}

	tests := []struct {
		name   string
		bundle *Bundle
	}{
		{
			name:   "single message",
			bundle: &Bundle{Time: Immediate, Elements: []Packet{msg1}},
		},
		{
			name:   "two messages",
			bundle: &Bundle{Time: Time(10.5), Elements: []Packet{msg1, msg2}},
		},
		{
			name: "nested bundle",
			bundle: &Bundle{
				Time: Time(1),
				Elements: []Packet{
					msg1,
					&Bundle{Time: Time(2), Elements: []Packet{msg2}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePacket(tt.bundle)
			if err != nil {
				t.Fatalf("EncodePacket failed: %v", err)
			}

			decoded, err := DecodePacket(data)
			if err != nil {
				t.Fatalf("DecodePacket failed: %v", err)
			}
			if !reflect.DeepEqual(decoded, tt.bundle) {
				t.Errorf("round trip mismatch:\n got  %#v\n want %#v", decoded, tt.bundle)
			}
		})
	}
}

// Encoding /foo with a single int32 argument must produce exactly the
// canonical 16 bytes.
func TestKnownMessageEncoding(t *testing.T) {
	msg := mustMessage(t, "/foo", Int32(1))
	data, err := EncodePacket(msg)
	if err != nil {
		t.Fatalf("EncodePacket failed: %v", err)
	}

	want := []byte{
		'/', 'f', 'o', 'o', 0, 0, 0, 0,
		',', 'i', 0, 0,
		0, 0, 0, 1,
	}
	if !bytes.Equal(data, want) {
		t.Errorf("encoding mismatch:\n got  % x\n want % x", data, want)
	}
}

func TestImmediateBundleDecode(t *testing.T) {
	b := mustBundle(t, Immediate, mustMessage(t, "/g_new"))
	data, err := EncodePacket(b)
	if err != nil {
		t.Fatalf("EncodePacket failed: %v", err)
	}

	decoded, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}

	bundle, ok := decoded.(*Bundle)
	if !ok {
		t.Fatalf("decoded %T, want *Bundle", decoded)
	}
	if bundle.Time != Immediate {
		t.Errorf("bundle time = %v, want Immediate", bundle.Time)
	}
	if len(bundle.Elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(bundle.Elements))
	}
	msg, ok := bundle.Elements[0].(*Message)
	if !ok {
		t.Fatalf("element is %T, want *Message", bundle.Elements[0])
	}
	if msg.Address != "/g_new" {
		t.Errorf("address = %q, want /g_new", msg.Address)
	}
	if len(msg.Arguments) != 0 {
		t.Errorf("got %d arguments, want 0", len(msg.Arguments))
	}
}

func TestStringPaddingLaw(t *testing.T) {
	// The encoded string field is the smallest multiple of 4 that can
	// hold the content plus at least one null terminator.
	for length := 0; length <= 9; length++ {
		s := bytes.Repeat([]byte("x"), length)
		enc := appendPaddedString(nil, string(s))

		want := (length + 4) &^ 3
		if len(enc) != want {
			t.Errorf("len %d: encoded %d bytes, want %d", length, len(enc), want)
		}
		if enc[len(enc)-1] != 0 {
			t.Errorf("len %d: missing null terminator", length)
		}
	}
}

func TestBlobLaw(t *testing.T) {
	for length := 0; length <= 9; length++ {
		blob := Blob(bytes.Repeat([]byte{0xab}, length))
		enc := appendBlob(nil, blob)

		// Length field always equals the raw byte count.
		if got := binary.BigEndian.Uint32(enc); int(got) != length {
			t.Errorf("len %d: length field = %d", length, got)
		}
		// Content plus padding is a multiple of 4, after the 4-byte
		// length field.
		if (len(enc)-4)%4 != 0 {
			t.Errorf("len %d: %d content+padding bytes not aligned", length, len(enc)-4)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	goodMsg, err := EncodePacket(&Message{Address: "/foo", Arguments: []Argument{Int32(1)}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "empty buffer",
			data: nil,
			want: ErrTruncated,
		},
		{
			name: "unterminated address",
			data: []byte("/foo"),
			want: ErrTruncated,
		},
		{
			name: "address without slash",
			data: []byte("foo\x00,\x00\x00\x00"),
			want: ErrInvalidAddress,
		},
		{
			name: "descriptor missing comma",
			data: []byte("/f\x00\x00ix\x00\x00"),
			want: ErrInvalidDescriptor,
		},
		{
			name: "unknown tag",
			data: []byte("/f\x00\x00,q\x00\x00AAAA"),
			want: ErrUnknownTag,
		},
		{
			name: "descriptor claims two args, one present",
			data: []byte("/f\x00\x00,ii\x00\x00\x00\x00\x01"),
			want: ErrTruncated,
		},
		{
			name: "trailing bytes",
			data: append(append([]byte{}, goodMsg...), 0, 0, 0, 0),
			want: ErrTrailingBytes,
		},
		{
			name: "blob length past buffer",
			data: []byte("/f\x00\x00,b\x00\x00\x00\x00\x00\x10AAAA"),
			want: ErrInvalidBlobLength,
		},
		{
			name: "bundle truncated time tag",
			data: []byte("#bundle\x00\x00\x00"),
			want: ErrTruncated,
		},
		{
			name: "bundle truncated element length",
			data: append([]byte("#bundle\x00"), make([]byte, 10)...),
			want: ErrTruncated,
		},
		{
			name: "bundle element length past buffer",
			data: func() []byte {
				data := append([]byte("#bundle\x00"), make([]byte, 8)...)
				return append(data, 0, 0, 0, 0xff)
			}(),
			want: ErrTruncated,
		},
		{
			name: "bundle with zero elements",
			data: append([]byte("#bundle\x00"), make([]byte, 8)...),
			want: ErrEmptyBundle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := DecodePacket(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodePacket error = %v, want %v", err, tt.want)
			}
			if pkt != nil {
				t.Errorf("DecodePacket returned partial packet %#v on error", pkt)
			}
		})
	}
}

func TestBundleDepthLimit(t *testing.T) {
	// One level past the limit must fail at encode time.
	if _, err := EncodePacket(nestedBundle(MaxBundleDepth + 1)); !errors.Is(err, ErrBundleTooDeep) {
		t.Errorf("EncodePacket error = %v, want ErrBundleTooDeep", err)
	}

	// Nesting at the limit encodes; wrapping that wire image in one
	// more hand-built bundle layer must be rejected by the decoder.
	data, err := EncodePacket(nestedBundle(MaxBundleDepth))
	if err != nil {
		t.Fatalf("encode at limit: %v", err)
	}
	wrapped := []byte("#bundle\x00")
	wrapped = append(wrapped, make([]byte, 8)...)
	wrapped = binary.BigEndian.AppendUint32(wrapped, uint32(len(data)))
	wrapped = append(wrapped, data...)

	if _, err := DecodePacket(wrapped); !errors.Is(err, ErrBundleTooDeep) {
		t.Errorf("DecodePacket error = %v, want ErrBundleTooDeep", err)
	}
}

// nestedBundle builds a bundle nested to the given depth with a single
// message at the bottom.
func nestedBundle(depth int) Packet {
	var p Packet = &Message{Address: "/x"}
	for i := 0; i < depth; i++ {
		p = &Bundle{Time: Immediate, Elements: []Packet{p}}
	}
	return p
}
