// Package oto plays render output through the system audio device.
//
// The device pulls little-endian float32 samples from Reader, which calls
// render function one period at a time. Input is preloaded and optionally
// looped.
package oto

import (
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/signal"
)

// sampleSize is the size of float32 sample in bytes.
const sampleSize = 4

// Reader is an io.Reader over rendered periods. It doesn't allocate or
// lock after creation. Read must be called from a single goroutine, Stop
// and Frames are safe to call from any goroutine.
type Reader struct {
	fn      oscfx.RenderFunc
	config  oscfx.StreamConfig
	input   []float32
	loop    bool
	pos     int
	in      []float32
	out     []float32
	buf     []byte
	pending []byte

	frames   atomic.Int64
	stopped  atomic.Bool
	finished bool
	done     chan struct{}
}

// NewReader returns reader bound to render function. Input contains
// interleaved samples with config's number of input channels. Nil input
// means silence.
func NewReader(c oscfx.StreamConfig, fn oscfx.RenderFunc, input []float32, loop bool) *Reader {
	return &Reader{
		fn:     fn,
		config: c,
		input:  input,
		loop:   loop && len(input) > 0,
		in:     make([]float32, c.FramesPerBuffer*c.InputChannels),
		out:    make([]float32, c.FramesPerBuffer*c.OutputChannels),
		buf:    make([]byte, c.FramesPerBuffer*c.OutputChannels*sampleSize),
		done:   make(chan struct{}),
	}
}

// Read fills p with rendered samples. It returns io.EOF when input is
// exhausted, render function aborted or reader is stopped.
func (r *Reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && !r.stopped.Load() {
		if len(r.pending) == 0 && !r.render() {
			break
		}
		c := copy(p[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// render calls render function for the next period.
func (r *Reader) render() bool {
	if r.finished || !r.fill() {
		r.finish()
		return false
	}
	res := r.fn(r.in, r.out, oscfx.Period{Time: signal.DurationOf(r.config.SampleRate, r.frames.Load())})
	r.frames.Add(int64(r.config.FramesPerBuffer))
	if res == oscfx.Abort {
		r.finish()
		return false
	}
	for i, v := range r.out {
		binary.LittleEndian.PutUint32(r.buf[i*sampleSize:], math.Float32bits(v))
	}
	r.pending = r.buf
	return true
}

// fill copies next period of input. Returns false if input is exhausted.
func (r *Reader) fill() bool {
	if len(r.in) == 0 {
		return true
	}
	if r.input == nil {
		signal.Silence(r.in)
		return true
	}
	if r.pos >= len(r.input) {
		if !r.loop {
			return false
		}
		r.pos = 0
	}
	n := 0
	for n < len(r.in) {
		c := copy(r.in[n:], r.input[r.pos:])
		r.pos += c
		n += c
		if r.pos < len(r.input) {
			continue
		}
		if !r.loop {
			break
		}
		r.pos = 0
	}
	signal.Silence(r.in[n:])
	return true
}

func (r *Reader) finish() {
	if !r.finished {
		r.finished = true
		close(r.done)
	}
}

// Done is closed when input is exhausted or render function aborted.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Stop the reader. It doesn't wait for Read in progress, which renders
// at most one more period. Reads started after Stop return io.EOF.
func (r *Reader) Stop() {
	r.stopped.Store(true)
}

// Frames returns number of rendered frames.
func (r *Reader) Frames() int64 {
	return r.frames.Load()
}
