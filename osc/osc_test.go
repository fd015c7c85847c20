package osc_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/osc"
)

func encode(t *testing.T, m osc.Message) []byte {
	t.Helper()
	b, err := m.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestDecode(t *testing.T) {
	tests := []osc.Message{
		osc.NewMessage("millisecond", osc.S("pressed"), osc.F(0.2)),
		osc.NewMessage("feedback", osc.S("s_moved"), osc.F(0.5)),
		osc.NewMessage("/1/fader1", osc.F(1)),
		osc.NewMessage("abc", osc.S(""), osc.S("abcd"), osc.F(-3.5)),
		osc.NewMessage("no-args"),
	}
	for _, test := range tests {
		b := encode(t, test)
		assert.Zero(t, len(b)%4, "packet must be aligned")
		m, err := osc.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, test.Path, m.Path)
		assert.Equal(t, len(test.Arguments), len(m.Arguments))
		for i := range test.Arguments {
			assert.Equal(t, test.Arguments[i], m.Arguments[i])
		}
	}
}

func TestWireFormat(t *testing.T) {
	b := encode(t, osc.NewMessage("feedback", osc.S("s_moved"), osc.F(0.5)))
	expected := []byte("feedback\x00\x00\x00\x00,sf\x00s_moved\x00")
	expected = binary.BigEndian.AppendUint32(expected, 0x3f000000)
	assert.Equal(t, expected, b)
}

func TestDecodeWithoutTypeTags(t *testing.T) {
	m, err := osc.Decode([]byte("feedback\x00\x00\x00\x00"))
	require.NoError(t, err)
	assert.Equal(t, "feedback", m.Path)
	assert.Empty(t, m.Arguments)
}

func TestDecodeMalformed(t *testing.T) {
	valid := encode(t, osc.NewMessage("millisecond", osc.S("pressed"), osc.F(0.2)))
	tests := []struct {
		name string
		b    []byte
	}{
		{name: "empty", b: []byte{}},
		{name: "unterminated path", b: []byte("millisecond")},
		{name: "unpadded path", b: []byte("millisecond\x00,f")},
		{name: "truncated float", b: valid[:len(valid)-2]},
		{name: "truncated string", b: valid[:len(valid)-8]},
		{name: "missing comma", b: []byte("feedback\x00\x00\x00\x00f\x00\x00\x00\x3f\x00\x00\x00")},
		{name: "bad tag", b: []byte("feedback\x00\x00\x00\x00,x\x00\x00\x3f\x00\x00\x00")},
		{name: "int tag", b: []byte("feedback\x00\x00\x00\x00,i\x00\x00\x00\x00\x00\x01")},
		{name: "bundle", b: bundle(t, valid)},
	}
	for _, test := range tests {
		_, err := osc.Decode(test.b)
		assert.ErrorIs(t, err, oscfx.ErrMalformedPayload, test.name)
	}
}

func bundle(t *testing.T, elements ...[]byte) []byte {
	t.Helper()
	b := []byte("#bundle\x00")
	b = binary.BigEndian.AppendUint64(b, 1)
	for _, e := range elements {
		b = binary.BigEndian.AppendUint32(b, uint32(len(e)))
		b = append(b, e...)
	}
	return b
}

func TestDecodePacket(t *testing.T) {
	m1 := osc.NewMessage("millisecond", osc.S("pressed"), osc.F(0.2))
	m2 := osc.NewMessage("feedback", osc.F(0.5))
	m3 := osc.NewMessage("unknown")

	ms, err := osc.DecodePacket(encode(t, m1))
	require.NoError(t, err)
	assert.Equal(t, []osc.Message{m1}, ms)

	// nested bundles are flattened.
	b := bundle(t, encode(t, m1), bundle(t, encode(t, m2)), encode(t, m3))
	ms, err = osc.DecodePacket(b)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, m1, ms[0])
	assert.Equal(t, m2, ms[1])
	assert.Equal(t, m3.Path, ms[2].Path)

	// empty bundle.
	ms, err = osc.DecodePacket(bundle(t))
	require.NoError(t, err)
	assert.Empty(t, ms)

	malformed := [][]byte{
		[]byte("#bundle\x00\x00\x00"),
		append(bundle(t), 0, 0, 0, 8, 'a'),
		append(bundle(t), 0, 0, 0, 3, 'a', 'b', 'c'),
		bundle(t, []byte("abc\x00,z\x00\x00")),
	}
	for _, b := range malformed {
		_, err := osc.DecodePacket(b)
		assert.ErrorIs(t, err, oscfx.ErrMalformedPayload)
	}
}

func TestArgument(t *testing.T) {
	s := osc.S("pressed")
	v, ok := s.Text()
	assert.True(t, ok)
	assert.Equal(t, "pressed", v)
	_, ok = s.Float()
	assert.False(t, ok)
	assert.Equal(t, osc.String, s.Kind())

	f := osc.F(0.25)
	fv, ok := f.Float()
	assert.True(t, ok)
	assert.Equal(t, float32(0.25), fv)
	_, ok = f.Text()
	assert.False(t, ok)
	assert.Equal(t, osc.Float, f.Kind())
}

func TestMarshalInvalidArgument(t *testing.T) {
	_, err := osc.NewMessage("x", osc.Argument{}).MarshalBinary()
	assert.Error(t, err)
}
