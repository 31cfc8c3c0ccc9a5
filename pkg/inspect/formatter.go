// Package inspect renders OSC packets as human-readable text for
// consoles and capture dumps.
package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/osc-protocol/osc-go/pkg/osc"
)

// Formatter formats packets for display.
type Formatter struct {
	// ShowTypeTags includes the type tag string after the address.
	ShowTypeTags bool

	// IndentWidth is the number of spaces per bundle nesting level.
	IndentWidth int

	// MaxBlobBytes bounds how many blob bytes are printed before the
	// output is truncated with an ellipsis. Zero means 16.
	MaxBlobBytes int
}

// NewFormatter creates a Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowTypeTags: true,
		IndentWidth:  2,
		MaxBlobBytes: 16,
	}
}

// FormatPacket renders a packet. Messages are a single line; bundles
// span multiple lines with their elements indented.
func (f *Formatter) FormatPacket(p osc.Packet) string {
	var sb strings.Builder
	f.writePacket(&sb, p, 0)
	return sb.String()
}

// FormatMessage renders one message on a single line, for example:
//
//	/synth/freq ,if 440 0.5
func (f *Formatter) FormatMessage(m *osc.Message) string {
	var sb strings.Builder
	f.writeMessage(&sb, m)
	return sb.String()
}

func (f *Formatter) writePacket(sb *strings.Builder, p osc.Packet, depth int) {
	indent := strings.Repeat(" ", depth*f.indentWidth())

	switch v := p.(type) {
	case *osc.Message:
		sb.WriteString(indent)
		f.writeMessage(sb, v)
	case *osc.Bundle:
		sb.WriteString(indent)
		sb.WriteString("#bundle ")
		sb.WriteString(FormatTime(v.Time))
		for _, elem := range v.Elements {
			sb.WriteString("\n")
			f.writePacket(sb, elem, depth+1)
		}
	}
}

func (f *Formatter) writeMessage(sb *strings.Builder, m *osc.Message) {
	sb.WriteString(m.Address)
	if f.ShowTypeTags {
		sb.WriteString(" ")
		sb.WriteString(m.TypeTags())
	}
	for _, arg := range m.Arguments {
		sb.WriteString(" ")
		sb.WriteString(f.FormatArgument(arg))
	}
}

// FormatArgument renders one argument.
func (f *Formatter) FormatArgument(arg osc.Argument) string {
	switch v := arg.(type) {
	case osc.Int32:
		return fmt.Sprintf("%d", int32(v))
	case osc.Int64:
		return fmt.Sprintf("%d", int64(v))
	case osc.Float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case osc.Float64:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case osc.String:
		return fmt.Sprintf("%q", string(v))
	case osc.Blob:
		return f.formatBlob(v)
	case osc.Time:
		return FormatTime(v)
	case osc.MIDI:
		return fmt.Sprintf("midi(%02x %02x %02x %02x)", v[0], v[1], v[2], v[3])
	default:
		return fmt.Sprintf("%v", arg)
	}
}

func (f *Formatter) formatBlob(b osc.Blob) string {
	max := f.MaxBlobBytes
	if max <= 0 {
		max = 16
	}
	if len(b) <= max {
		return fmt.Sprintf("blob[%d](%x)", len(b), []byte(b))
	}
	return fmt.Sprintf("blob[%d](%x...)", len(b), []byte(b[:max]))
}

func (f *Formatter) indentWidth() int {
	if f.IndentWidth <= 0 {
		return 2
	}
	return f.IndentWidth
}

// FormatTime renders a time tag. The immediate sentinel prints as
// "@now", other values as the UTC wall-clock time they name.
func FormatTime(t osc.Time) string {
	if t == osc.Immediate {
		return "@now"
	}
	return t.Wall().UTC().Format("2006-01-02T15:04:05.000Z")
}
