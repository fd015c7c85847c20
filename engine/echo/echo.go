// Package echo provides a mono echo engine with two parameters:
// "millisecond" delay in [0, 1000] and "feedback" in percent [0, 100].
package echo

import (
	"errors"
)

const (
	// delay line length, power of two.
	lineSize = 1 << 17
	lineMask = lineSize - 1
	// maximum delay in samples, delays are wrapped into this range.
	delayMask = 1<<16 - 1
	// maximum supported sample rate.
	maxSampleRate = 192000
)

// Parameter names.
const (
	Millisecond = "millisecond"
	Feedback    = "feedback"
)

// slider is a named parameter with range.
type slider struct {
	name     string
	value    float32
	min, max float32
}

// set clamps v into slider range. NaN is ignored and the last value is kept.
func (s *slider) set(v float32) {
	switch {
	case v != v:
		return
	case v < s.min:
		v = s.min
	case v > s.max:
		v = s.max
	}
	s.value = v
}

// Engine is an echo processor. It implements oscfx.Engine.
type Engine struct {
	line       []float32
	pos        int
	sampleRate int
	// samples per millisecond.
	perMs       float32
	feedback    slider
	millisecond slider
	sliders     [2]*slider
}

// New returns echo engine with zero delay and feedback.
func New() *Engine {
	e := &Engine{
		line:        make([]float32, lineSize),
		feedback:    slider{name: Feedback, max: 100},
		millisecond: slider{name: Millisecond, max: 1000},
	}
	e.sliders = [2]*slider{&e.feedback, &e.millisecond}
	return e
}

// Init resets the engine state for provided sample rate.
func (e *Engine) Init(sampleRate int) error {
	if sampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	e.sampleRate = sampleRate
	e.perMs = 0.001 * float32(min(maxSampleRate, sampleRate))
	e.feedback.value = 0
	e.millisecond.value = 0
	e.pos = 0
	for i := range e.line {
		e.line[i] = 0
	}
	return nil
}

// SetParameter sets parameter by name. Values are clamped into parameter
// range and NaN values are ignored. False is returned if parameter is
// unknown.
func (e *Engine) SetParameter(name string, value float32) bool {
	for _, s := range e.sliders {
		if s.name == name {
			s.set(value)
			return true
		}
	}
	return false
}

// Parameter returns current value of parameter.
func (e *Engine) Parameter(name string) (float32, bool) {
	for _, s := range e.sliders {
		if s.name == name {
			return s.value, true
		}
	}
	return 0, false
}

// Delay returns current delay in samples.
func (e *Engine) Delay() int {
	return 1 + ((int(e.perMs*e.millisecond.value) - 1) & delayMask)
}

// Compute processes frames of input into output.
func (e *Engine) Compute(frames int, in, out []float32) {
	gain := 0.01 * e.feedback.value
	delay := e.Delay()
	for i := 0; i < frames; i++ {
		v := gain*e.line[(e.pos-delay)&lineMask] + in[i]
		e.line[e.pos&lineMask] = v
		out[i] = v
		e.pos++
	}
	e.pos &= lineMask
}
