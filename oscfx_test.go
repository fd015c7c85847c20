package oscfx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/oscfx"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		path     string
		expected oscfx.Target
		ok       bool
	}{
		{path: "millisecond", expected: oscfx.Millisecond, ok: true},
		{path: "feedback", expected: oscfx.Feedback, ok: true},
		{path: "/feedback"},
		{path: "Feedback"},
		{path: ""},
		{path: "unknown"},
	}
	for _, test := range tests {
		target, ok := oscfx.ParseTarget(test.path)
		assert.Equal(t, test.ok, ok, test.path)
		assert.Equal(t, test.expected, target, test.path)
		if ok {
			assert.Equal(t, test.path, target.String())
		}
	}
	assert.Equal(t, "unknown", oscfx.Target(0).String())
	assert.Equal(t, "unknown", oscfx.Target(100).String())
}

func TestScale(t *testing.T) {
	assert.InDelta(t, 100, oscfx.Millisecond.Scale(0.2), 1e-4)
	assert.InDelta(t, 50, oscfx.Feedback.Scale(0.5), 1e-4)
	// values are not clamped.
	assert.InDelta(t, 1000, oscfx.Millisecond.Scale(2), 1e-4)
	assert.InDelta(t, -10, oscfx.Feedback.Scale(-0.1), 1e-4)
	assert.Equal(t, float32(0.3), oscfx.Target(0).Scale(0.3))
}

func TestValidate(t *testing.T) {
	valid := oscfx.DefaultStreamConfig()
	assert.NoError(t, valid.Validate())

	tests := []struct {
		description string
		modify      func(*oscfx.StreamConfig)
		bounds      bool
	}{
		{
			description: "buffer exceeds capacity",
			modify:      func(c *oscfx.StreamConfig) { c.FramesPerBuffer = c.Capacity + 1 },
			bounds:      true,
		},
		{
			description: "empty buffer",
			modify:      func(c *oscfx.StreamConfig) { c.FramesPerBuffer = 0 },
			bounds:      true,
		},
		{
			description: "sample rate",
			modify:      func(c *oscfx.StreamConfig) { c.SampleRate = 0 },
		},
		{
			description: "no output",
			modify:      func(c *oscfx.StreamConfig) { c.OutputChannels = 0 },
		},
		{
			description: "negative input",
			modify:      func(c *oscfx.StreamConfig) { c.InputChannels = -1 },
		},
	}
	for _, test := range tests {
		c := valid
		test.modify(&c)
		err := c.Validate()
		assert.Error(t, err, test.description)
		assert.Equal(t, test.bounds, err == oscfx.ErrBufferBounds, test.description)
	}

	c := valid
	c.InputChannels = 0
	assert.NoError(t, c.Validate())
	c.FramesPerBuffer = c.Capacity
	assert.NoError(t, c.Validate())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "move", oscfx.Move.String())
	assert.Equal(t, "press", oscfx.Press.String())
	assert.Equal(t, "unpress", oscfx.Unpress.String())
	assert.Equal(t, "continue", oscfx.Continue.String())
	assert.Equal(t, "abort", oscfx.Abort.String())
}
