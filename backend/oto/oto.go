//go:build !headless

package oto

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/dudk/oscfx"
)

// ErrContextMismatch is returned when stream config differs from the
// config of already created audio context. Only one context is allowed
// per process.
var ErrContextMismatch = errors.New("audio context already created with different config")

// DefaultBufferSize is the default device buffer duration.
const DefaultBufferSize = 20 * time.Millisecond

var shared struct {
	sync.Mutex
	ctx        *oto.Context
	sampleRate int
	channels   int
}

// sharedContext returns process-wide audio context.
func sharedContext(c oscfx.StreamConfig, bufferSize time.Duration) (*oto.Context, error) {
	shared.Lock()
	defer shared.Unlock()
	if shared.ctx != nil {
		if shared.sampleRate != c.SampleRate || shared.channels != c.OutputChannels {
			return nil, fmt.Errorf("%w: %d Hz %d channels", ErrContextMismatch, shared.sampleRate, shared.channels)
		}
		return shared.ctx, nil
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   c.SampleRate,
		ChannelCount: c.OutputChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	shared.ctx, shared.sampleRate, shared.channels = ctx, c.SampleRate, c.OutputChannels
	return ctx, nil
}

// Backend plays render output on the default device.
type Backend struct {
	// Input is interleaved input signal. Nil means silence.
	Input      []float32
	Loop       bool
	BufferSize time.Duration
}

// Stream is an oto player driven by Reader.
type Stream struct {
	player *oto.Player
	reader *Reader
}

// Open creates a player. Audio context is created on the first call.
func (b *Backend) Open(c oscfx.StreamConfig, fn oscfx.RenderFunc) (oscfx.Stream, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	bufferSize := b.BufferSize
	if bufferSize == 0 {
		bufferSize = DefaultBufferSize
	}
	ctx, err := sharedContext(c, bufferSize)
	if err != nil {
		return nil, err
	}
	r := NewReader(c, fn, b.Input, b.Loop)
	return &Stream{
		player: ctx.NewPlayer(r),
		reader: r,
	}, nil
}

// Start playback.
func (s *Stream) Start() error {
	s.player.Play()
	return nil
}

// Done is closed when input is exhausted or render function aborted.
func (s *Stream) Done() <-chan struct{} {
	return s.reader.Done()
}

// Stop playback.
func (s *Stream) Stop() error {
	s.reader.Stop()
	s.player.Pause()
	return nil
}

// Close the player.
func (s *Stream) Close() error {
	return s.player.Close()
}
