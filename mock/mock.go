// Package mock provides test doubles for engine and audio backend.
package mock

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dudk/oscfx"
)

// Param is a recorded SetParameter call.
type Param struct {
	Name  string
	Value float32
}

// Engine mocks oscfx.Engine. It copies input to output multiplied by
// gain and records every parameter update.
type Engine struct {
	sync.Mutex
	// Known parameter names. Empty means all names are known.
	Known       []string
	Gain        float32
	ErrorOnInit error

	sampleRate int
	params     []Param
	computed   int
	frames     int
}

// Init implements oscfx.Engine.
func (e *Engine) Init(sampleRate int) error {
	e.Lock()
	defer e.Unlock()
	if e.ErrorOnInit != nil {
		return e.ErrorOnInit
	}
	e.sampleRate = sampleRate
	return nil
}

// SetParameter implements oscfx.Engine.
func (e *Engine) SetParameter(name string, value float32) bool {
	e.Lock()
	defer e.Unlock()
	if !e.known(name) {
		return false
	}
	e.params = append(e.params, Param{Name: name, Value: value})
	return true
}

func (e *Engine) known(name string) bool {
	if len(e.Known) == 0 {
		return true
	}
	for _, k := range e.Known {
		if k == name {
			return true
		}
	}
	return false
}

// Compute implements oscfx.Engine.
func (e *Engine) Compute(frames int, in, out []float32) {
	e.Lock()
	defer e.Unlock()
	gain := e.Gain
	if gain == 0 {
		gain = 1
	}
	for i := 0; i < frames; i++ {
		out[i] = in[i] * gain
	}
	e.computed++
	e.frames += frames
}

// SampleRate returns sample rate passed to Init.
func (e *Engine) SampleRate() int {
	e.Lock()
	defer e.Unlock()
	return e.sampleRate
}

// Params returns recorded parameter updates.
func (e *Engine) Params() []Param {
	e.Lock()
	defer e.Unlock()
	return append([]Param(nil), e.params...)
}

// Computed returns number of Compute calls and total frames.
func (e *Engine) Computed() (int, int) {
	e.Lock()
	defer e.Unlock()
	return e.computed, e.frames
}

// Backend mocks oscfx.Backend. Every opened stream calls render function
// from its own goroutine.
type Backend struct {
	// Limit is the number of render calls after which stream is done.
	// Zero means stream runs until stopped.
	Limit    int
	Interval time.Duration
	// FramesPerBuffer overrides frames passed to render function.
	FramesPerBuffer int
	Input           float32
	ErrorOnOpen     error
	ErrorOnStart    error

	mu      sync.Mutex
	streams []*Stream
}

// Open implements oscfx.Backend.
func (b *Backend) Open(c oscfx.StreamConfig, fn oscfx.RenderFunc) (oscfx.Stream, error) {
	if b.ErrorOnOpen != nil {
		return nil, b.ErrorOnOpen
	}
	frames := c.FramesPerBuffer
	if b.FramesPerBuffer != 0 {
		frames = b.FramesPerBuffer
	}
	in := make([]float32, frames*c.InputChannels)
	for i := range in {
		in[i] = b.Input
	}
	s := &Stream{
		fn:       fn,
		limit:    b.Limit,
		interval: b.Interval,
		err:      b.ErrorOnStart,
		in:       in,
		out:      make([]float32, frames*c.OutputChannels),
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}
	b.mu.Lock()
	b.streams = append(b.streams, s)
	b.mu.Unlock()
	return s, nil
}

// Streams returns all opened streams.
func (b *Backend) Streams() []*Stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Stream(nil), b.streams...)
}

// Stream mocks oscfx.Stream.
type Stream struct {
	fn       oscfx.RenderFunc
	limit    int
	interval time.Duration
	err      error
	in, out  []float32

	calls    atomic.Int64
	aborted  atomic.Bool
	started  atomic.Bool
	closed   atomic.Bool
	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Start implements oscfx.Stream.
func (s *Stream) Start() error {
	if s.err != nil {
		return s.err
	}
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("stream already started")
	}
	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *Stream) run() {
	defer s.wg.Done()
	var t time.Duration
	for s.limit == 0 || int(s.calls.Load()) < s.limit {
		select {
		case <-s.stop:
			return
		default:
		}
		r := s.fn(s.in, s.out, oscfx.Period{Time: t})
		s.calls.Add(1)
		if r == oscfx.Abort {
			s.aborted.Store(true)
			break
		}
		t += time.Duration(len(s.out))
		if s.interval > 0 {
			select {
			case <-time.After(s.interval):
			case <-s.stop:
				return
			}
		}
	}
	close(s.done)
}

// Done implements oscfx.Stream.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Stop implements oscfx.Stream. No render calls happen after it returns.
func (s *Stream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
	return nil
}

// Close implements oscfx.Stream.
func (s *Stream) Close() error {
	s.closed.Store(true)
	return nil
}

// Calls returns number of render calls.
func (s *Stream) Calls() int {
	return int(s.calls.Load())
}

// Aborted returns true if render function returned oscfx.Abort.
func (s *Stream) Aborted() bool {
	return s.aborted.Load()
}

// Closed returns true if stream was closed.
func (s *Stream) Closed() bool {
	return s.closed.Load()
}

// Output returns copy of the last output buffer. Must be called after Stop.
func (s *Stream) Output() []float32 {
	return append([]float32(nil), s.out...)
}
