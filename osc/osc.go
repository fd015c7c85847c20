// Package osc decodes and encodes OpenSoundControl datagrams.
//
// Only string ('s') and 32-bit float ('f') arguments are supported. Any
// other type tag makes the payload malformed. Addresses are not required
// to start with a slash.
package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dudk/oscfx"
)

const bundleTag = "#bundle"

// Kind is a type of argument.
type Kind byte

// Argument kinds, values are OSC type tags.
const (
	String Kind = 's'
	Float  Kind = 'f'
)

type (
	// Argument is either string or float value.
	Argument struct {
		kind Kind
		str  string
		f    float32
	}

	// Message is a decoded OSC message.
	Message struct {
		Path      string
		Arguments []Argument
	}
)

// S returns new string argument.
func S(s string) Argument {
	return Argument{kind: String, str: s}
}

// F returns new float argument.
func F(f float32) Argument {
	return Argument{kind: Float, f: f}
}

// Kind returns type of the argument.
func (a Argument) Kind() Kind {
	return a.kind
}

// Text returns string value and true if argument is a string.
func (a Argument) Text() (string, bool) {
	return a.str, a.kind == String
}

// Float returns float value and true if argument is a float.
func (a Argument) Float() (float32, bool) {
	return a.f, a.kind == Float
}

// GoString is used for formatting arguments in logs.
func (a Argument) GoString() string {
	if a.kind == Float {
		return fmt.Sprintf("f:%v", a.f)
	}
	return fmt.Sprintf("s:%q", a.str)
}

// NewMessage creates a new message.
func NewMessage(path string, args ...Argument) Message {
	return Message{Path: path, Arguments: args}
}

// Decode parses a single OSC message. Bundles are rejected, use
// DecodePacket to decode them.
func Decode(b []byte) (Message, error) {
	if isBundle(b) {
		return Message{}, malformed("unexpected bundle")
	}
	return decodeMessage(b)
}

// DecodePacket parses OSC packet which is either a message or a bundle.
// Bundles are flattened into the list of their messages.
func DecodePacket(b []byte) ([]Message, error) {
	if !isBundle(b) {
		m, err := decodeMessage(b)
		if err != nil {
			return nil, err
		}
		return []Message{m}, nil
	}
	return decodeBundle(b, nil)
}

func isBundle(b []byte) bool {
	return len(b) >= 8 && bytes.Equal(b[:8], []byte(bundleTag+"\x00"))
}

func decodeMessage(b []byte) (Message, error) {
	if len(b) == 0 {
		return Message{}, malformed("empty payload")
	}
	r := reader{b: b}
	path, err := r.string()
	if err != nil {
		return Message{}, err
	}
	m := Message{Path: path}
	// no type tag string is allowed for messages without arguments.
	if r.done() {
		return m, nil
	}
	tags, err := r.string()
	if err != nil {
		return Message{}, err
	}
	if len(tags) == 0 || tags[0] != ',' {
		return Message{}, malformed("type tag string must start with ','")
	}
	tags = tags[1:]
	if len(tags) > 0 {
		m.Arguments = make([]Argument, 0, len(tags))
	}
	for i := 0; i < len(tags); i++ {
		switch Kind(tags[i]) {
		case String:
			s, err := r.string()
			if err != nil {
				return Message{}, err
			}
			m.Arguments = append(m.Arguments, S(s))
		case Float:
			v, err := r.uint32()
			if err != nil {
				return Message{}, err
			}
			m.Arguments = append(m.Arguments, F(math.Float32frombits(v)))
		default:
			return Message{}, malformed(fmt.Sprintf("unsupported type tag %q", tags[i]))
		}
	}
	return m, nil
}

func decodeBundle(b []byte, ms []Message) ([]Message, error) {
	r := reader{b: b}
	// tag and time tag.
	if err := r.skip(16); err != nil {
		return nil, err
	}
	for !r.done() {
		size, err := r.uint32()
		if err != nil {
			return nil, err
		}
		if size%4 != 0 {
			return nil, malformed("bundle element size is not aligned")
		}
		element, err := r.next(int(size))
		if err != nil {
			return nil, err
		}
		if isBundle(element) {
			if ms, err = decodeBundle(element, ms); err != nil {
				return nil, err
			}
			continue
		}
		m, err := decodeMessage(element)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// MarshalBinary encodes message into OSC wire format.
func (m Message) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeString(&buf, m.Path)
	tags := make([]byte, 0, len(m.Arguments)+1)
	tags = append(tags, ',')
	for _, a := range m.Arguments {
		switch a.kind {
		case String, Float:
			tags = append(tags, byte(a.kind))
		default:
			return nil, fmt.Errorf("unsupported argument kind %q", a.kind)
		}
	}
	writeString(&buf, string(tags))
	for _, a := range m.Arguments {
		if a.kind == Float {
			var v [4]byte
			binary.BigEndian.PutUint32(v[:], math.Float32bits(a.f))
			buf.Write(v[:])
			continue
		}
		writeString(&buf, a.str)
	}
	return buf.Bytes(), nil
}

// writeString writes null-terminated string padded to 4 bytes.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.Write(make([]byte, pad(len(s)+1)-len(s)))
}

// pad rounds n up to multiple of four.
func pad(n int) int {
	return (n + 3) &^ 3
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", oscfx.ErrMalformedPayload, reason)
}

// reader reads OSC primitives from a byte slice.
type reader struct {
	b   []byte
	pos int
}

func (r *reader) done() bool {
	return r.pos >= len(r.b)
}

func (r *reader) next(n int) ([]byte, error) {
	if n < 0 || len(r.b)-r.pos < n {
		return nil, malformed("truncated payload")
	}
	v := r.b[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func (r *reader) skip(n int) error {
	_, err := r.next(n)
	return err
}

func (r *reader) uint32() (uint32, error) {
	v, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(v), nil
}

func (r *reader) string() (string, error) {
	end := bytes.IndexByte(r.b[r.pos:], 0)
	if end < 0 {
		return "", malformed("string is not terminated")
	}
	v, err := r.next(pad(end + 1))
	if err != nil {
		return "", err
	}
	return string(v[:end]), nil
}
