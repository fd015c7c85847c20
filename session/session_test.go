package session_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/control"
	"github.com/dudk/oscfx/log"
	"github.com/dudk/oscfx/metric"
	"github.com/dudk/oscfx/mock"
	"github.com/dudk/oscfx/osc"
	"github.com/dudk/oscfx/queue"
	"github.com/dudk/oscfx/render"
	"github.com/dudk/oscfx/session"
)

const timeout = 20 * time.Millisecond

var (
	bufferSize = 64
	sampleRate = 44100
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSession(options ...session.Option) *session.Session {
	return session.New(append([]session.Option{
		session.Address("127.0.0.1:0"),
		session.Timeout(timeout),
		session.BufferSize(bufferSize),
		session.SampleRate(sampleRate),
		session.Logger(log.Discard()),
	}, options...)...)
}

func wait(t *testing.T, s *session.Session) error {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		errc <- s.Wait()
	}()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
	return nil
}

func TestSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := &mock.Engine{}
	b := &mock.Backend{Interval: time.Millisecond}
	s := newSession()
	require.NoError(t, s.Start(ctx, e, b))
	assert.Equal(t, sampleRate, e.SampleRate())

	// initial parameters are applied one per render call.
	require.Eventually(t, func() bool {
		return len(e.Params()) == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, []mock.Param{
		{Name: "feedback", Value: 50},
		{Name: "millisecond", Value: 70},
	}, e.Params())

	conn, err := net.Dial("udp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	payload, err := osc.NewMessage("millisecond", osc.S("pressed"), osc.F(0.2)).MarshalBinary()
	require.NoError(t, err)
	_, err = conn.Write(payload)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(e.Params()) == 3
	}, time.Second, time.Millisecond)
	p := e.Params()[2]
	assert.Equal(t, "millisecond", p.Name)
	assert.InDelta(t, 100, p.Value, 1e-4)

	cancel()
	assert.NoError(t, wait(t, s))
	streams := b.Streams()
	require.Len(t, streams, 1)
	assert.True(t, streams[0].Closed())
	calls := streams[0].Calls()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, streams[0].Calls())
}

func TestStreamFinished(t *testing.T) {
	e := &mock.Engine{}
	b := &mock.Backend{Limit: 5}
	s := newSession(session.Parameters())
	require.NoError(t, s.Run(context.Background(), e, b))

	streams := b.Streams()
	require.Len(t, streams, 1)
	assert.Equal(t, 5, streams[0].Calls())
	assert.True(t, streams[0].Closed())
	assert.Empty(t, e.Params())
	_, frames := e.Computed()
	assert.Equal(t, 5*bufferSize, frames)
}

func TestSummary(t *testing.T) {
	component := metric.Name(render.Callback{})
	// every session reports only its own render periods.
	for i := 0; i < 2; i++ {
		logger, hook := logtest.NewNullLogger()
		s := newSession(session.Parameters(), session.Logger(logger))
		require.NoError(t, s.Run(context.Background(), &mock.Engine{}, &mock.Backend{Limit: 5}))

		var counters map[string]int64
		for _, entry := range hook.AllEntries() {
			if entry.Message == "stopped" {
				counters, _ = entry.Data[component].(map[string]int64)
			}
		}
		require.NotNil(t, counters, "session %d", i)
		assert.Equal(t, int64(5), counters[metric.MessageCounter], "session %d", i)
		assert.Equal(t, int64(5*bufferSize), counters[metric.SampleCounter], "session %d", i)
	}
}

func TestRenderAbort(t *testing.T) {
	e := &mock.Engine{}
	// backend asks for more frames than engine buffers can hold.
	b := &mock.Backend{FramesPerBuffer: oscfx.DefaultCapacity + 1}
	s := newSession()
	require.NoError(t, s.Start(context.Background(), e, b))
	assert.NoError(t, wait(t, s))

	streams := b.Streams()
	require.Len(t, streams, 1)
	assert.True(t, streams[0].Aborted())
	assert.Equal(t, 1, streams[0].Calls())
	calls, _ := e.Computed()
	assert.Zero(t, calls)
	for _, v := range streams[0].Output() {
		assert.Zero(t, v)
	}
}

// failingChannel fails every send after the ring.
type failingChannel struct {
	*queue.Ring
	err error
}

func (c failingChannel) Send(oscfx.Event) error { return c.err }

func TestReceiverFailed(t *testing.T) {
	errSend := fmt.Errorf("%w: send failed", oscfx.ErrSocket)
	e := &mock.Engine{}
	b := &mock.Backend{Interval: time.Millisecond}
	s := newSession(session.WithChannel(func(r *queue.Ring) control.Channel {
		return failingChannel{Ring: r, err: errSend}
	}))
	require.NoError(t, s.Start(context.Background(), e, b))

	conn, err := net.Dial("udp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	payload, err := osc.NewMessage("feedback", osc.F(0.5)).MarshalBinary()
	require.NoError(t, err)
	_, err = conn.Write(payload)
	require.NoError(t, err)

	err = wait(t, s)
	assert.ErrorIs(t, err, oscfx.ErrSocket)
	assert.ErrorIs(t, err, errSend)
	streams := b.Streams()
	require.Len(t, streams, 1)
	assert.True(t, streams[0].Closed())
}

func TestStartErrors(t *testing.T) {
	errInit := errors.New("init failed")
	errOpen := errors.New("open failed")
	errStart := errors.New("start failed")
	busy, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer busy.Close()

	tests := []struct {
		description string
		engine      *mock.Engine
		backend     *mock.Backend
		options     []session.Option
		expected    error
		streams     int
	}{
		{
			description: "engine init",
			engine:      &mock.Engine{ErrorOnInit: errInit},
			backend:     &mock.Backend{},
			expected:    errInit,
		},
		{
			description: "buffer bounds",
			engine:      &mock.Engine{},
			backend:     &mock.Backend{},
			options:     []session.Option{session.BufferSize(oscfx.DefaultCapacity * 2)},
			expected:    oscfx.ErrBufferBounds,
		},
		{
			description: "bind failed",
			engine:      &mock.Engine{},
			backend:     &mock.Backend{},
			options:     []session.Option{session.Address(busy.LocalAddr().String())},
			expected:    oscfx.ErrBindFailed,
		},
		{
			description: "open stream",
			engine:      &mock.Engine{},
			backend:     &mock.Backend{ErrorOnOpen: errOpen},
			expected:    errOpen,
		},
		{
			description: "start stream",
			engine:      &mock.Engine{},
			backend:     &mock.Backend{ErrorOnStart: errStart},
			expected:    errStart,
			streams:     1,
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			s := newSession(test.options...)
			err := s.Start(context.Background(), test.engine, test.backend)
			assert.ErrorIs(t, err, test.expected)
			streams := test.backend.Streams()
			assert.Len(t, streams, test.streams)
			for _, stream := range streams {
				assert.True(t, stream.Closed())
				assert.Zero(t, stream.Calls())
			}
		})
	}
}

func TestWaitNotStarted(t *testing.T) {
	assert.ErrorIs(t, newSession().Wait(), session.ErrNotStarted)
}

func TestOptions(t *testing.T) {
	s := session.New(session.Logger(log.Discard()))
	assert.Equal(t, oscfx.DefaultStreamConfig(), s.Config())
	assert.NotEmpty(t, s.ID())
	assert.Nil(t, s.Addr())

	undo := session.Channels(2, 2)(s)
	assert.Equal(t, 2, s.Config().InputChannels)
	undo(s)
	assert.Equal(t, 1, s.Config().InputChannels)
	assert.Equal(t, 2, s.Config().OutputChannels)

	undo = session.SampleRate(48000)(s)
	assert.Equal(t, 48000, s.Config().SampleRate)
	undo(s)
	assert.Equal(t, oscfx.DefaultSampleRate, s.Config().SampleRate)
}
