package osc

// Type tag characters from the OSC 1.0 type tag string.
const (
	TagInt32   = 'i'
	TagInt64   = 'h'
	TagFloat32 = 'f'
	TagFloat64 = 'd' // 64-bit float extension
	TagString  = 's'
	TagBlob    = 'b'
	TagTime    = 't'
	TagMIDI    = 'm'
)

// Argument is one tagged value carried by a Message. The set of
// implementations is closed; the tag character is derived from the
// concrete type and never stored separately.
type Argument interface {
	// Tag returns the OSC type tag character for this argument.
	Tag() byte

	isArgument()
}

// Int32 is a 32-bit signed integer argument (tag 'i').
type Int32 int32

// Int64 is a 64-bit signed integer argument (tag 'h').
type Int64 int64

// Float32 is a 32-bit IEEE-754 float argument (tag 'f').
type Float32 float32

// Float64 is a 64-bit IEEE-754 float argument (tag 'd').
type Float64 float64

// String is an ASCII string argument (tag 's').
// Use NewString to sanitize arbitrary input.
type String string

// Blob is an opaque byte-sequence argument (tag 'b').
type Blob []byte

// MIDI is a 4-byte MIDI argument (tag 'm'):
// port ID, status byte, data1, data2.
type MIDI [4]byte

// Tag returns 'i'.
func (Int32) Tag() byte { return TagInt32 }

// Tag returns 'h'.
func (Int64) Tag() byte { return TagInt64 }

// Tag returns 'f'.
func (Float32) Tag() byte { return TagFloat32 }

// Tag returns 'd'.
func (Float64) Tag() byte { return TagFloat64 }

// Tag returns 's'.
func (String) Tag() byte { return TagString }

// Tag returns 'b'.
func (Blob) Tag() byte { return TagBlob }

// Tag returns 't'.
func (Time) Tag() byte { return TagTime }

// Tag returns 'm'.
func (MIDI) Tag() byte { return TagMIDI }

func (Int32) isArgument()   {}
func (Int64) isArgument()   {}
func (Float32) isArgument() {}
func (Float64) isArgument() {}
func (String) isArgument()  {}
func (Blob) isArgument()    {}
func (Time) isArgument()    {}
func (MIDI) isArgument()    {}

// Printable ASCII range accepted in OSC strings.
const (
	minStringByte = 0x20
	maxStringByte = 0x7e
)

// NewString builds a String argument, replacing every byte outside the
// printable ASCII range with '?'. This is a documented approximation,
// not an error.
func NewString(s string) String {
	clean := []byte(s)
	dirty := false
	for i, b := range clean {
		if b < minStringByte || b > maxStringByte {
			clean[i] = '?'
			dirty = true
		}
	}
	if !dirty {
		return String(s)
	}
	return String(clean)
}
