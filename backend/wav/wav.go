// Package wav renders WAV files through render function without audio
// hardware.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/signal"
)

// pcmFormat is WAV format tag for integer PCM.
const pcmFormat = 1

var (
	// ErrInvalidFile is returned when file is not a valid WAV.
	ErrInvalidFile = errors.New("wav is not valid")
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")
	// ErrFormatMismatch is returned when stream config doesn't match file.
	ErrFormatMismatch = errors.New("stream config doesn't match file")
)

// Info describes WAV file.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
}

// Stat reads WAV file properties without loading samples.
func Stat(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	d, err := decoder(f)
	if err != nil {
		return Info{}, err
	}
	return info(d)
}

// Load reads the whole WAV file into interleaved samples.
func Load(path string) ([]float32, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, err
	}
	defer f.Close()
	d, err := decoder(f)
	if err != nil {
		return nil, Info{}, err
	}
	i, err := info(d)
	if err != nil {
		return nil, Info{}, err
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, Info{}, err
	}
	samples := make([]float32, len(buf.Data))
	signal.IntToFloat(buf.Data, samples, signal.BitDepth(i.BitDepth))
	i.Frames = len(samples) / i.Channels
	return samples, i, nil
}

func decoder(r io.ReadSeeker) (*wav.Decoder, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalidFile
	}
	return d, nil
}

func info(d *wav.Decoder) (Info, error) {
	if !signal.BitDepth(d.BitDepth).Supported() {
		return Info{}, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, d.BitDepth)
	}
	i := Info{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}
	// moves decoder to the beginning of PCM chunk.
	if err := d.FwdToPCM(); err != nil {
		return Info{}, err
	}
	i.Frames = int(d.PCMLen()) / (i.Channels * i.BitDepth / 8)
	return i, nil
}

// Backend reads input file and writes output file. Stream config must
// match input file: sample rate and number of input channels.
type Backend struct {
	Input    string
	Output   string
	BitDepth int
	// Tail is the duration of silence rendered after input ends.
	Tail time.Duration
}

// Stream renders files as fast as possible from its own goroutine.
type Stream struct {
	in       *os.File
	out      *os.File
	decoder  *wav.Decoder
	encoder  *wav.Encoder
	fn       oscfx.RenderFunc
	config   oscfx.StreamConfig
	bitDepth int
	tail     int

	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	err      error
	frames   int64
}

// Open opens input file, creates output file and checks stream config.
func (b *Backend) Open(c oscfx.StreamConfig, fn oscfx.RenderFunc) (oscfx.Stream, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	bitDepth := b.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	if !signal.BitDepth(bitDepth).Supported() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	in, err := os.Open(b.Input)
	if err != nil {
		return nil, err
	}
	d, err := decoder(in)
	if err != nil {
		in.Close()
		return nil, err
	}
	i, err := info(d)
	if err != nil {
		in.Close()
		return nil, err
	}
	if i.SampleRate != c.SampleRate || i.Channels != c.InputChannels {
		in.Close()
		return nil, fmt.Errorf("%w: file %d Hz %d channels, stream %d Hz %d channels",
			ErrFormatMismatch, i.SampleRate, i.Channels, c.SampleRate, c.InputChannels)
	}
	out, err := os.Create(b.Output)
	if err != nil {
		in.Close()
		return nil, err
	}
	return &Stream{
		in:       in,
		out:      out,
		decoder:  d,
		encoder:  wav.NewEncoder(out, c.SampleRate, bitDepth, c.OutputChannels, pcmFormat),
		fn:       fn,
		config:   c,
		bitDepth: bitDepth,
		tail:     int(b.Tail.Seconds() * float64(c.SampleRate)),
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}, nil
}

// Start rendering.
func (s *Stream) Start() error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.err = s.run(); s.err != nil {
			// stream is done anyway.
			close(s.done)
		}
	}()
	return nil
}

func (s *Stream) run() error {
	frames := s.config.FramesPerBuffer
	inBuf := &audio.IntBuffer{
		Format:         s.decoder.Format(),
		Data:           make([]int, frames*s.config.InputChannels),
		SourceBitDepth: int(s.decoder.BitDepth),
	}
	outBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: s.config.OutputChannels,
			SampleRate:  s.config.SampleRate,
		},
		Data:           make([]int, frames*s.config.OutputChannels),
		SourceBitDepth: s.bitDepth,
	}
	in := make([]float32, frames*s.config.InputChannels)
	out := make([]float32, frames*s.config.OutputChannels)
	tail := s.tail
	var eof bool
	for {
		select {
		case <-s.stop:
			return nil
		default:
		}
		n := 0
		if !eof {
			var err error
			if n, err = s.decoder.PCMBuffer(inBuf); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			eof = n < len(inBuf.Data)
		}
		rendered := n / s.config.InputChannels
		if rendered < frames && tail > 0 {
			pad := min(frames-rendered, tail)
			tail -= pad
			rendered += pad
		}
		if rendered == 0 {
			close(s.done)
			return nil
		}
		signal.IntToFloat(inBuf.Data[:n], in, signal.BitDepth(s.decoder.BitDepth))
		signal.Silence(in[n:])
		r := s.fn(in, out, oscfx.Period{Time: signal.DurationOf(s.config.SampleRate, s.frames)})
		s.frames += int64(rendered)
		if r == oscfx.Abort {
			close(s.done)
			return nil
		}
		signal.FloatToInt(out[:rendered*s.config.OutputChannels], outBuf.Data, signal.BitDepth(s.bitDepth))
		outBuf.Data = outBuf.Data[:rendered*s.config.OutputChannels]
		if err := s.encoder.Write(outBuf); err != nil {
			return err
		}
		outBuf.Data = outBuf.Data[:cap(outBuf.Data)]
	}
}

// Done is signalled when input is exhausted or render aborted.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Stop rendering and wait for render goroutine.
func (s *Stream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
	return s.err
}

// Frames returns number of rendered frames. Must be called after Stop.
func (s *Stream) Frames() int64 {
	return s.frames
}

// Close flushes encoder and closes files.
func (s *Stream) Close() error {
	err := s.encoder.Close()
	if cerr := s.out.Close(); err == nil {
		err = cerr
	}
	if cerr := s.in.Close(); err == nil {
		err = cerr
	}
	return err
}
