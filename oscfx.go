package oscfx

import (
	"errors"
	"time"
)

// Target is a parameter of the engine addressable by control messages.
type Target uint8

// Known targets.
const (
	Millisecond Target = iota + 1
	Feedback
)

// targets maps control paths to targets. Index is the target value.
var targets = [...]struct {
	name  string
	scale float32
}{
	Millisecond: {name: "millisecond", scale: 500},
	Feedback:    {name: "feedback", scale: 100},
}

// ParseTarget returns target for provided control path. Match is exact.
func ParseTarget(path string) (Target, bool) {
	for i := range targets {
		if targets[i].name != "" && targets[i].name == path {
			return Target(i), true
		}
	}
	return 0, false
}

// String returns the engine parameter name of the target.
func (t Target) String() string {
	if !t.valid() {
		return "unknown"
	}
	return targets[t].name
}

// Scale converts a normalized control value into the engine unit.
// Values outside of [0, 1] are passed through unclamped.
func (t Target) Scale(v float32) float32 {
	if !t.valid() {
		return v
	}
	return v * targets[t].scale
}

func (t Target) valid() bool {
	return t > 0 && int(t) < len(targets)
}

// Gesture is a phase of the continuous control interaction.
type Gesture uint8

// Gesture phases.
const (
	Move Gesture = iota
	Press
	Unpress
)

func (g Gesture) String() string {
	switch g {
	case Press:
		return "press"
	case Unpress:
		return "unpress"
	}
	return "move"
}

// Event is a parameter update crossing from control thread to render
// thread. Value is already scaled into the engine unit.
type Event struct {
	Target  Target
	Gesture Gesture
	Value   float32
}

// Result tells the backend if the stream should keep running.
type Result int

const (
	// Continue the stream.
	Continue Result = iota
	// Abort the stream.
	Abort
)

func (r Result) String() string {
	if r == Abort {
		return "abort"
	}
	return "continue"
}

// Period carries metadata of a single render invocation.
type Period struct {
	// Time is the stream time of the first output frame.
	Time      time.Duration
	Underflow bool
	Overflow  bool
}

// RenderFunc is a render callback: it consumes interleaved input and fills
// interleaved output. It is called on the realtime thread of the backend.
type RenderFunc func(in, out []float32, p Period) Result

// Engine is a signal processing engine with named parameters.
//
// SetParameter and Compute are only called from the render thread.
type Engine interface {
	Init(sampleRate int) error
	SetParameter(name string, value float32) bool
	Compute(frames int, in, out []float32)
}

// StreamConfig defines audio stream properties negotiated before start.
type StreamConfig struct {
	SampleRate      int
	FramesPerBuffer int
	// Capacity is the number of frames pre-allocated for the engine
	// buffers. FramesPerBuffer must never exceed it.
	Capacity       int
	InputChannels  int
	OutputChannels int
}

// Default stream properties.
const (
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 512
	DefaultCapacity        = 4096
)

// DefaultStreamConfig returns stream config with mono input and stereo output.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		SampleRate:      DefaultSampleRate,
		FramesPerBuffer: DefaultFramesPerBuffer,
		Capacity:        DefaultCapacity,
		InputChannels:   1,
		OutputChannels:  2,
	}
}

// Validate checks that stream config is consistent. Stream must not be
// started if this check fails.
func (c StreamConfig) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return errors.New("sample rate must be positive")
	case c.OutputChannels <= 0:
		return errors.New("at least one output channel required")
	case c.InputChannels < 0:
		return errors.New("negative number of input channels")
	case c.FramesPerBuffer <= 0:
		return ErrBufferBounds
	case c.FramesPerBuffer > c.Capacity:
		return ErrBufferBounds
	}
	return nil
}

// Backend opens audio streams which drive a render callback.
type Backend interface {
	Open(c StreamConfig, fn RenderFunc) (Stream, error)
}

// Stream is an opened audio stream.
type Stream interface {
	Start() error
	// Done is signalled when stream finished on its own: render callback
	// returned Abort or input is exhausted.
	Done() <-chan struct{}
	Stop() error
	Close() error
}

var (
	// ErrMalformedPayload is returned when datagram cannot be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrBindFailed is returned when control socket cannot be bound.
	ErrBindFailed = errors.New("bind failed")
	// ErrChannelClosed is returned when event is sent to closed channel.
	ErrChannelClosed = errors.New("channel closed")
	// ErrSocket is returned when control socket read fails.
	ErrSocket = errors.New("socket error")
	// ErrBufferBounds is returned when stream buffer exceeds pre-allocated
	// engine buffers.
	ErrBufferBounds = errors.New("buffer bounds violation")
)
