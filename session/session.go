// Package session wires control receiver, event channel, render callback
// and audio backend together and drives their lifecycle.
//
// Start order is engine, channel, render callback, control socket, initial
// parameters, stream. Shutdown stops the stream first, so render callback
// is never called after the channel is closed. Then the channel is closed
// and the receiver loop is joined.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/control"
	"github.com/dudk/oscfx/internal/rt"
	"github.com/dudk/oscfx/log"
	"github.com/dudk/oscfx/metric"
	"github.com/dudk/oscfx/queue"
	"github.com/dudk/oscfx/render"
)

// ErrNotStarted is returned by Wait if session wasn't started.
var ErrNotStarted = errors.New("session not started")

// Session is a single run of the parameter hot-swap pipeline.
type Session struct {
	uid        string
	address    string
	config     oscfx.StreamConfig
	capacity   int
	timeout    time.Duration
	params     []oscfx.Event
	lockMemory bool
	log        log.Logger
	// channel wraps the ring on the receiver side, nil means ring is used.
	channel func(*queue.Ring) control.Channel

	ring     *queue.Ring
	receiver *control.Receiver
	stream   oscfx.Stream
	group    *errgroup.Group
	ctx      context.Context
	locked   bool
	// counters at start, summary reports the difference.
	counters metric.Values
}

// Option of a session. It returns an option that restores previous value.
type Option func(s *Session) Option

// New creates a new session with default stream config, control address
// and initial parameters.
func New(options ...Option) *Session {
	s := &Session{
		uid:      xid.New().String(),
		address:  control.DefaultAddress,
		config:   oscfx.DefaultStreamConfig(),
		capacity: queue.DefaultCapacity,
		timeout:  control.DefaultTimeout,
		params:   DefaultParameters(),
	}
	for _, option := range options {
		option(s)
	}
	if s.log == nil {
		s.log = log.GetLogger()
	}
	s.log = s.log.WithField("session", s.uid)
	return s
}

// DefaultParameters returns initial parameter values in engine units.
func DefaultParameters() []oscfx.Event {
	return []oscfx.Event{
		{Target: oscfx.Feedback, Value: 50},
		{Target: oscfx.Millisecond, Value: 70},
	}
}

// Address sets control socket address.
func Address(address string) Option {
	return func(s *Session) Option {
		previous := s.address
		s.address = address
		return Address(previous)
	}
}

// SampleRate defines sample rate.
func SampleRate(sampleRate int) Option {
	return func(s *Session) Option {
		previous := s.config.SampleRate
		s.config.SampleRate = sampleRate
		return SampleRate(previous)
	}
}

// BufferSize defines number of frames per render call.
func BufferSize(bufferSize int) Option {
	return func(s *Session) Option {
		previous := s.config.FramesPerBuffer
		s.config.FramesPerBuffer = bufferSize
		return BufferSize(previous)
	}
}

// Capacity defines size of pre-allocated engine buffers in frames.
func Capacity(capacity int) Option {
	return func(s *Session) Option {
		previous := s.config.Capacity
		s.config.Capacity = capacity
		return Capacity(previous)
	}
}

// Channels defines number of input and output channels.
func Channels(in, out int) Option {
	return func(s *Session) Option {
		previousIn, previousOut := s.config.InputChannels, s.config.OutputChannels
		s.config.InputChannels, s.config.OutputChannels = in, out
		return Channels(previousIn, previousOut)
	}
}

// QueueCapacity defines capacity of event channel.
func QueueCapacity(capacity int) Option {
	return func(s *Session) Option {
		previous := s.capacity
		s.capacity = capacity
		return QueueCapacity(previous)
	}
}

// Timeout defines receive timeout of control socket. It bounds the time
// needed for receiver to notice closed channel.
func Timeout(timeout time.Duration) Option {
	return func(s *Session) Option {
		previous := s.timeout
		s.timeout = timeout
		return Timeout(previous)
	}
}

// Parameters replaces initial parameter values. Values are in engine
// units and are applied by the first render calls.
func Parameters(params ...oscfx.Event) Option {
	return func(s *Session) Option {
		previous := s.params
		s.params = params
		return Parameters(previous...)
	}
}

// LockMemory locks process memory while session is running.
func LockMemory(lock bool) Option {
	return func(s *Session) Option {
		previous := s.lockMemory
		s.lockMemory = lock
		return LockMemory(previous)
	}
}

// Logger sets session logger.
func Logger(l log.Logger) Option {
	return func(s *Session) Option {
		previous := s.log
		s.log = l
		return Logger(previous)
	}
}

// Config returns stream config of the session.
func (s *Session) Config() oscfx.StreamConfig {
	return s.config
}

// ID returns unique session id.
func (s *Session) ID() string {
	return s.uid
}

// Run starts the session and waits until it's done.
func (s *Session) Run(ctx context.Context, e oscfx.Engine, b oscfx.Backend) error {
	if err := s.Start(ctx, e, b); err != nil {
		return err
	}
	return s.Wait()
}

// Start initializes engine, binds control socket and starts the stream.
// Session is stopped when ctx is done, stream is done or receiver fails.
func (s *Session) Start(ctx context.Context, e oscfx.Engine, b oscfx.Backend) (err error) {
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.lockMemory {
		if err := rt.LockMemory(); err != nil {
			s.log.Warn("failed to lock memory: ", err)
		} else {
			s.locked = true
		}
	}
	defer func() {
		if err != nil {
			s.unlock()
		}
	}()

	s.counters = metric.Snapshot()
	if err := e.Init(s.config.SampleRate); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	s.ring = queue.New(s.capacity)
	cb, err := render.Open(s.config, e, s.ring)
	if err != nil {
		return err
	}
	var ch control.Channel = s.ring
	if s.channel != nil {
		ch = s.channel(s.ring)
	}
	s.receiver, err = control.Listen(s.address, ch,
		control.WithTimeout(s.timeout),
		control.WithLogger(s.log),
	)
	if err != nil {
		return err
	}
	for _, p := range s.params {
		if err := s.ring.Send(p); err != nil {
			s.receiver.Close()
			return err
		}
	}

	s.stream, err = b.Open(s.config, cb.Render)
	if err != nil {
		s.receiver.Close()
		return fmt.Errorf("open stream: %w", err)
	}
	s.group, s.ctx = errgroup.WithContext(ctx)
	s.group.Go(s.receiver.Run)
	if err := s.stream.Start(); err != nil {
		s.ring.Close()
		s.receiver.Close()
		s.group.Wait()
		s.stream.Close()
		s.stream = nil
		return fmt.Errorf("start stream: %w", err)
	}
	s.log.Info("started: ", s.config.SampleRate, " Hz, ", s.config.FramesPerBuffer, " frames, control on ", s.receiver.Addr())
	return nil
}

// Addr returns address of control socket. It's nil until session is
// started.
func (s *Session) Addr() net.Addr {
	if s.receiver == nil {
		return nil
	}
	return s.receiver.Addr()
}

// Wait blocks until session is done and shuts it down. It returns nil if
// session was cancelled or stream finished on its own.
func (s *Session) Wait() error {
	if s.stream == nil {
		return ErrNotStarted
	}
	select {
	case <-s.ctx.Done():
		s.log.Debug("session cancelled")
	case <-s.stream.Done():
		s.log.Info("stream finished")
	}
	return s.shutdown()
}

func (s *Session) shutdown() error {
	defer s.unlock()
	stopErr := s.stream.Stop()
	s.ring.Close()
	runErr := s.group.Wait()
	closeErr := s.stream.Close()
	s.summary()
	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if stopErr != nil {
		errs = append(errs, fmt.Errorf("stop stream: %w", stopErr))
	}
	if closeErr != nil {
		errs = append(errs, fmt.Errorf("close stream: %w", closeErr))
	}
	return errors.Join(errs...)
}

func (s *Session) unlock() {
	if !s.locked {
		return
	}
	if err := rt.UnlockMemory(); err != nil {
		s.log.Warn("failed to unlock memory: ", err)
	}
	s.locked = false
}

// summary logs counters changed since the session was started. Counters
// are process-wide, so sessions running at the same time are summed.
func (s *Session) summary() {
	d := metric.Snapshot().Sub(s.counters)
	l := s.log.WithField("dropped", s.ring.Dropped()).
		WithField("load", fmt.Sprintf("%.2f%%", 100*d.Load(metric.Name(render.Callback{}))))
	for component, counters := range d {
		l = l.WithField(component, counters)
	}
	l.Info("stopped")
}
