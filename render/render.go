// Package render implements the realtime render callback.
//
// Callback applies at most one pending parameter event per invocation and
// runs the engine over pre-allocated buffers. Once opened, it does not
// allocate, lock or log.
package render

import (
	"expvar"
	"time"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/metric"
	"github.com/dudk/oscfx/signal"
)

// Channel is a consumer side of the parameter event channel.
type Channel interface {
	TryReceive() (oscfx.Event, bool)
}

// Callback is a render callback bound to engine and event channel.
type Callback struct {
	engine   oscfx.Engine
	channel  Channel
	config   oscfx.StreamConfig
	in       []float32
	out      []float32
	meter    *metric.Meter
	applied  *expvar.Int
	unknown  *expvar.Int
	aborted  *expvar.Int
	overflow *expvar.Int
}

// Open validates stream config and allocates engine buffers. Config with
// buffer bigger than capacity is rejected with oscfx.ErrBufferBounds.
func Open(c oscfx.StreamConfig, e oscfx.Engine, ch Channel) (*Callback, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Callback{
		engine:   e,
		channel:  ch,
		config:   c,
		in:       make([]float32, c.Capacity),
		out:      make([]float32, c.Capacity),
		meter:    metric.NewMeter(Callback{}, c.SampleRate),
		applied:  metric.Counter(Callback{}, metric.EventCounter),
		unknown:  metric.Counter(Callback{}, metric.DropCounter),
		aborted:  metric.Counter(Callback{}, metric.ErrorCounter),
		overflow: metric.Counter(xrun{}, metric.ErrorCounter),
	}, nil
}

// xrun is used to count buffer underflows and overflows reported by the
// backend.
type xrun struct{}

// Config returns stream config of the callback.
func (c *Callback) Config() oscfx.StreamConfig {
	return c.config
}

// Render is the oscfx.RenderFunc. Input and output are interleaved.
// Input may be empty if stream has no input channels.
func (c *Callback) Render(in, out []float32, p oscfx.Period) oscfx.Result {
	frames := len(out) / c.config.OutputChannels
	if frames > len(c.out) || (c.config.InputChannels > 0 && len(in) > 0 && len(in) < frames*c.config.InputChannels) {
		signal.Silence(out)
		c.aborted.Add(1)
		return oscfx.Abort
	}
	start := time.Now()
	if p.Underflow || p.Overflow {
		c.overflow.Add(1)
	}

	if e, ok := c.channel.TryReceive(); ok {
		if c.engine.SetParameter(e.Target.String(), e.Value) {
			c.applied.Add(1)
		} else {
			c.unknown.Add(1)
		}
	}

	engineIn, engineOut := c.in[:frames], c.out[:frames]
	signal.Channel(in, engineIn, c.config.InputChannels, 0)
	c.engine.Compute(frames, engineIn, engineOut)
	signal.FanOut(engineOut, out, c.config.OutputChannels)
	c.meter.Measure(int64(frames), time.Since(start))
	return oscfx.Continue
}
