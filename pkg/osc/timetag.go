package osc

import (
	"encoding/binary"
	"math"
	"time"
)

// Time is a time value in fractional seconds. It serves both as the
// bundle header time tag and as an ordinary 't' argument; the wire
// encodings are identical.
//
// The wire representation is 64-bit fixed point: a 32-bit unsigned
// seconds part and a 32-bit unsigned fraction of one second. Precision
// below 2^-32 seconds is lost on encoding; this is a documented lossy
// conversion, not an error.
type Time float64

// Immediate is the reserved sentinel meaning "dispatch as soon as
// possible". It encodes to the bit pattern {seconds=0, fraction=1} and
// that exact pattern decodes back to Immediate.
const Immediate Time = 1.0 / (1 << 32)

// immediateBits is the wire pattern of the Immediate sentinel.
const immediateBits uint64 = 1

// TimeTagSize is the encoded size of a time tag in bytes.
const TimeTagSize = 8

// Bits returns the 64-bit fixed-point wire representation.
func (t Time) Bits() uint64 {
	if t == Immediate {
		return immediateBits
	}
	sec := math.Floor(float64(t))
	if sec < 0 {
		sec = 0
	}
	if sec > math.MaxUint32 {
		sec = math.MaxUint32
	}
	frac := (float64(t) - sec) * (1 << 32)
	if frac < 0 {
		frac = 0
	}
	if frac > math.MaxUint32 {
		frac = math.MaxUint32
	}
	return uint64(sec)<<32 | uint64(frac)
}

// TimeFromBits converts a 64-bit fixed-point wire value to a Time.
func TimeFromBits(bits uint64) Time {
	if bits == immediateBits {
		return Immediate
	}
	sec := bits >> 32
	frac := bits & math.MaxUint32
	return Time(float64(sec) + float64(frac)/(1<<32))
}

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01). Absolute time tags
// count seconds from the NTP epoch.
const ntpEpochOffset = 2208988800

// TimeAt converts a wall-clock time to a time tag.
func TimeAt(t time.Time) Time {
	return Time(float64(t.Unix()+ntpEpochOffset) + float64(t.Nanosecond())/1e9)
}

// TimeNow returns the current wall-clock time as a time tag.
func TimeNow() Time {
	return TimeAt(time.Now())
}

// Wall converts an absolute time tag to wall-clock time. The result
// is meaningless for Immediate and for small relative values.
func (t Time) Wall() time.Time {
	sec := math.Floor(float64(t))
	frac := float64(t) - sec
	return time.Unix(int64(sec)-ntpEpochOffset, int64(frac*1e9))
}

// appendTimeTag appends the 8-byte encoding of t.
func appendTimeTag(buf []byte, t Time) []byte {
	return binary.BigEndian.AppendUint64(buf, t.Bits())
}
