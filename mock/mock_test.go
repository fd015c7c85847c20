package mock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/mock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var tests = []struct {
	description string
	backend     *mock.Backend
	engine      *mock.Engine
	calls       int
	frames      int
	value       float32
}{
	{
		description: "limit",
		backend:     &mock.Backend{Limit: 10, Input: 0.5},
		engine:      &mock.Engine{},
		calls:       10,
		frames:      100,
		value:       0.5,
	},
	{
		description: "gain and frames override",
		backend:     &mock.Backend{Limit: 3, Input: 0.5, FramesPerBuffer: 5},
		engine:      &mock.Engine{Gain: 2},
		calls:       3,
		frames:      15,
		value:       1,
	},
}

func TestStream(t *testing.T) {
	c := oscfx.StreamConfig{
		SampleRate:      44100,
		FramesPerBuffer: 10,
		Capacity:        10,
		InputChannels:   1,
		OutputChannels:  1,
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			require.NoError(t, test.engine.Init(c.SampleRate))
			s, err := test.backend.Open(c, func(in, out []float32, p oscfx.Period) oscfx.Result {
				test.engine.Compute(len(out), in, out)
				return oscfx.Continue
			})
			require.NoError(t, err)
			require.NoError(t, s.Start())
			select {
			case <-s.Done():
			case <-time.After(time.Second):
				t.Fatal("stream is not done")
			}
			require.NoError(t, s.Stop())
			require.NoError(t, s.Close())

			stream := test.backend.Streams()[0]
			assert.Equal(t, test.calls, stream.Calls())
			assert.True(t, stream.Closed())
			assert.False(t, stream.Aborted())
			calls, frames := test.engine.Computed()
			assert.Equal(t, test.calls, calls)
			assert.Equal(t, test.frames, frames)
			for _, v := range stream.Output() {
				assert.Equal(t, test.value, v)
			}
		})
	}
}

func TestStreamStop(t *testing.T) {
	b := &mock.Backend{Interval: time.Millisecond}
	s, err := b.Open(oscfx.DefaultStreamConfig(), func(in, out []float32, p oscfx.Period) oscfx.Result {
		return oscfx.Continue
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	require.Eventually(t, func() bool {
		return b.Streams()[0].Calls() > 0
	}, time.Second, time.Millisecond)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	calls := b.Streams()[0].Calls()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, calls, b.Streams()[0].Calls())
	select {
	case <-s.Done():
		t.Fatal("stopped stream must not be done")
	default:
	}
}

func TestEngine(t *testing.T) {
	e := &mock.Engine{Known: []string{"feedback"}}
	assert.True(t, e.SetParameter("feedback", 10))
	assert.False(t, e.SetParameter("millisecond", 10))
	assert.Equal(t, []mock.Param{{Name: "feedback", Value: 10}}, e.Params())
}
