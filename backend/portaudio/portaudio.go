// Package portaudio provides live duplex audio streams.
package portaudio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/signal"
)

// ErrDeviceNotFound is returned when device index is out of range.
var ErrDeviceNotFound = errors.New("device not found")

// NoDevice means default device should be used.
const NoDevice = -1

type (
	// Backend opens portaudio streams on selected devices. Initialize
	// must be called before use.
	Backend struct {
		Input  int
		Output int
	}

	// Stream is a duplex portaudio stream driven by render function.
	Stream struct {
		stream  *portaudio.Stream
		fn      oscfx.RenderFunc
		done    chan struct{}
		aborted atomic.Bool
		once    sync.Once
	}
)

// Initialize portaudio library.
func Initialize() error {
	return portaudio.Initialize()
}

// Terminate portaudio library.
func Terminate() error {
	return portaudio.Terminate()
}

// New returns backend for input and output devices. Use NoDevice for
// default devices.
func New(input, output int) *Backend {
	return &Backend{Input: input, Output: output}
}

// Open opens the stream with fixed buffer size, so backend never asks for
// more frames than configured.
func (b *Backend) Open(c oscfx.StreamConfig, fn oscfx.RenderFunc) (oscfx.Stream, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out, err := device(b.Output, portaudio.DefaultOutputDevice)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	p := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   out,
			Channels: c.OutputChannels,
			Latency:  out.DefaultLowOutputLatency,
		},
		SampleRate:      float64(c.SampleRate),
		FramesPerBuffer: c.FramesPerBuffer,
	}
	if c.InputChannels > 0 {
		in, err := device(b.Input, portaudio.DefaultInputDevice)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		p.Input = portaudio.StreamDeviceParameters{
			Device:   in,
			Channels: c.InputChannels,
			Latency:  in.DefaultLowInputLatency,
		}
	}

	s := &Stream{
		fn:   fn,
		done: make(chan struct{}, 1),
	}
	s.stream, err = portaudio.OpenStream(p, s.callback)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// callback is called by portaudio on its realtime thread.
func (s *Stream) callback(in, out []float32, t portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if s.aborted.Load() {
		signal.Silence(out)
		return
	}
	r := s.fn(in, out, oscfx.Period{
		Time:      t.OutputBufferDacTime,
		Underflow: flags&(portaudio.InputUnderflow|portaudio.OutputUnderflow) != 0,
		Overflow:  flags&(portaudio.InputOverflow|portaudio.OutputOverflow) != 0,
	})
	if r == oscfx.Abort {
		s.aborted.Store(true)
		select {
		case s.done <- struct{}{}:
		default:
		}
	}
}

// Start the stream.
func (s *Stream) Start() error {
	return s.stream.Start()
}

// Done is signalled when render function aborts the stream.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Stop the stream. Render function is not called after Stop returns.
func (s *Stream) Stop() error {
	if s.aborted.Load() {
		return s.stream.Abort()
	}
	return s.stream.Stop()
}

// Close the stream.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.stream.Close()
	})
	return err
}

func device(index int, fallback func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if index == NoDevice {
		return fallback()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devices) {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, index)
	}
	return devices[index], nil
}
