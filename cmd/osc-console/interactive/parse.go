package interactive

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/osc-protocol/osc-go/pkg/osc"
)

// Argument literal syntax accepted by the console:
//
//	42          int32
//	42h         int64
//	1.5         float32
//	1.5d        float64
//	"text"      string (quotes optional for bare words)
//	b:deadbeef  blob from hex digits
//	m:01903c7f  MIDI message (4 hex bytes)
//	t:now       immediate time tag
//	t:+1.5      time tag 1.5 seconds from now
//	t:3326572800.5  absolute time tag in seconds
var ErrUnterminatedQuote = errors.New("unterminated quote")

// Tokenize splits a command line into fields, honoring double quotes.
func Tokenize(s string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inQuote := false
	hasToken := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			hasToken = true
		case c == ' ' || c == '\t':
			if inQuote {
				current.WriteByte(c)
			} else if hasToken {
				tokens = append(tokens, current.String())
				current.Reset()
				hasToken = false
			}
		default:
			current.WriteByte(c)
			hasToken = true
		}
	}
	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	if hasToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

// ParseArguments converts literal tokens to OSC arguments.
func ParseArguments(tokens []string) ([]osc.Argument, error) {
	args := make([]osc.Argument, 0, len(tokens))
	for _, tok := range tokens {
		arg, err := ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

// ParseArgument converts one literal token to an OSC argument.
func ParseArgument(tok string) (osc.Argument, error) {
	switch {
	case strings.HasPrefix(tok, "b:"):
		data, err := hex.DecodeString(tok[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid blob literal %q: %w", tok, err)
		}
		return osc.Blob(data), nil

	case strings.HasPrefix(tok, "m:"):
		data, err := hex.DecodeString(tok[2:])
		if err != nil || len(data) != 4 {
			return nil, fmt.Errorf("invalid midi literal %q: want 4 hex bytes", tok)
		}
		return osc.MIDI{data[0], data[1], data[2], data[3]}, nil

	case strings.HasPrefix(tok, "t:"):
		return parseTimeLiteral(tok[2:])
	}

	// Numeric literals, with h/d suffixes selecting the 64-bit types.
	if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		return osc.Int32(n), nil
	}
	if strings.HasSuffix(tok, "h") {
		if n, err := strconv.ParseInt(tok[:len(tok)-1], 10, 64); err == nil {
			return osc.Int64(n), nil
		}
	}
	if strings.HasSuffix(tok, "d") {
		if f, err := strconv.ParseFloat(tok[:len(tok)-1], 64); err == nil {
			return osc.Float64(f), nil
		}
	}
	if f, err := strconv.ParseFloat(tok, 32); err == nil {
		return osc.Float32(f), nil
	}

	// Anything else is a string; Tokenize already stripped quotes.
	return osc.NewString(tok), nil
}

func parseTimeLiteral(s string) (osc.Argument, error) {
	if s == "now" {
		return osc.Immediate, nil
	}
	if strings.HasPrefix(s, "+") {
		offset, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid time offset %q", s)
		}
		return osc.TimeNow() + osc.Time(offset), nil
	}
	abs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid time literal %q", s)
	}
	return osc.Time(abs), nil
}
