// Package signal provides allocation-free helpers to manipulate float32
// audio buffers. It allows to:
//	- extract a single channel of interleaved signal
//	- fan out mono signal into interleaved channels
//	- convert int samples of given bit depth to float and back
package signal

import (
	"time"
)

const (
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// Supported returns true for 16, 24 and 32 bit depths.
func (bitDepth BitDepth) Supported() bool {
	return bitDepth == BitDepth16 || bitDepth == BitDepth24 || bitDepth == BitDepth32
}

// scale is the int value of full scale float sample.
func (bitDepth BitDepth) scale() float64 {
	return float64(int64(1) << (bitDepth - 1))
}

// DurationOf returns time duration of frames for this sample rate.
func DurationOf(sampleRate int, frames int64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// IntToFloat converts int samples into [-1, 1) range. Dst must be at least
// as long as src.
func IntToFloat(src []int, dst []float32, bitDepth BitDepth) {
	scale := float32(bitDepth.scale())
	for i, v := range src {
		dst[i] = float32(v) / scale
	}
}

// FloatToInt converts float samples into ints, rounding to the nearest
// value. Values out of [-1, 1] range are clipped. Dst must be at least as
// long as src.
func FloatToInt(src []float32, dst []int, bitDepth BitDepth) {
	scale := bitDepth.scale()
	for i, v := range src {
		s := float64(v) * scale
		switch {
		case s >= scale-1:
			dst[i] = int(scale - 1)
		case s <= -scale:
			dst[i] = int(-scale)
		case s < 0:
			dst[i] = int(s - 0.5)
		default:
			dst[i] = int(s + 0.5)
		}
	}
}

// Channel copies a single channel of interleaved signal into dst. Dst is
// silenced if there are no channels or signal is empty.
func Channel(interleaved, dst []float32, channels, channel int) {
	if channels == 0 || len(interleaved) == 0 {
		Silence(dst)
		return
	}
	for i := range dst {
		dst[i] = interleaved[i*channels+channel]
	}
}

// FanOut copies mono signal into every channel of interleaved dst. The
// rest of dst is silenced.
func FanOut(mono, dst []float32, channels int) {
	for i, v := range mono {
		for j := 0; j < channels; j++ {
			dst[i*channels+j] = v
		}
	}
	Silence(dst[len(mono)*channels:])
}

// Silence sets all samples to zero.
func Silence(b []float32) {
	for i := range b {
		b[i] = 0
	}
}
