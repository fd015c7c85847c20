// Package metric publishes component counters with expvar. Counters are
// plain atomic integers, so they can be updated from the render callback.
//
// Counters of a component are published as
// oscfx.components.<package.Type>.<Counter>. Durations are in nanoseconds.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/dudk/oscfx/signal"
)

const prefix = "oscfx.components"

const (
	// MessageCounter counts received datagrams or render periods.
	MessageCounter = "Messages"
	// SampleCounter counts rendered frames.
	SampleCounter = "Samples"
	// LatencyCounter accumulates time spent rendering periods.
	LatencyCounter = "Latency"
	// DurationCounter accumulates signal duration of rendered periods.
	DurationCounter = "Duration"
	// LateCounter counts periods rendered slower than their duration.
	LateCounter = "Late"
	// ComponentCounter counts meters created for the component.
	ComponentCounter = "Components"
	// EventCounter counts parameter events sent or applied.
	EventCounter = "Events"
	// DropCounter counts ignored messages and evicted events.
	DropCounter = "Dropped"
	// ErrorCounter counts malformed payloads and aborted render calls.
	ErrorCounter = "Errors"
)

// names of all counters, index is the position in component counters.
var names = [...]string{
	MessageCounter,
	SampleCounter,
	LatencyCounter,
	DurationCounter,
	LateCounter,
	ComponentCounter,
	EventCounter,
	DropCounter,
	ErrorCounter,
}

func index(counter string) int {
	for i, name := range names {
		if name == counter {
			return i
		}
	}
	return -1
}

// counters of a single component.
type counters [len(names)]*expvar.Int

func (c *counters) get(counter string) *expvar.Int {
	return c[index(counter)]
}

var registry = struct {
	sync.Mutex
	components map[string]*counters
}{
	components: make(map[string]*counters),
}

// lookup returns counters of component, publishing them on first use.
func lookup(component string) *counters {
	registry.Lock()
	defer registry.Unlock()
	if c, ok := registry.components[component]; ok {
		return c
	}
	c := &counters{}
	for i, name := range names {
		c[i] = expvar.NewInt(fmt.Sprintf("%s.%s.%s", prefix, component, name))
	}
	registry.components[component] = c
	return c
}

// Name returns the name counters of component are published under. It's
// the type name, pointers are dereferenced.
func Name(component any) string {
	t := reflect.TypeOf(component)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// Counter returns counter of the component type. Returned value can be
// cached and incremented from any goroutine. It panics if counter is
// unknown.
func Counter(component any, counter string) *expvar.Int {
	if index(counter) < 0 {
		panic(fmt.Sprintf("unknown counter %q", counter))
	}
	return lookup(Name(component)).get(counter)
}

// Get returns current counter values of component type.
func Get(component any) map[string]int64 {
	return lookup(Name(component)).values()
}

func (c *counters) values() map[string]int64 {
	m := make(map[string]int64, len(c))
	for i, name := range names {
		m[name] = c[i].Value()
	}
	return m
}

// Values are counter values keyed by component and counter names.
type Values map[string]map[string]int64

// Snapshot returns current values of all components.
func Snapshot() Values {
	registry.Lock()
	defer registry.Unlock()
	v := make(Values, len(registry.components))
	for component, c := range registry.components {
		v[component] = c.values()
	}
	return v
}

// Sub returns counters accumulated since previous snapshot. Components
// without changes are omitted.
func (v Values) Sub(previous Values) Values {
	d := make(Values)
	for component, current := range v {
		var changed map[string]int64
		for name, value := range current {
			delta := value - previous[component][name]
			if delta == 0 {
				continue
			}
			if changed == nil {
				changed = make(map[string]int64)
			}
			changed[name] = delta
		}
		if changed != nil {
			d[component] = changed
		}
	}
	return d
}

// Load returns share of period duration that component spent rendering.
// It's zero if component didn't render.
func (v Values) Load(component string) float64 {
	c := v[component]
	if c[DurationCounter] == 0 {
		return 0
	}
	return float64(c[LatencyCounter]) / float64(c[DurationCounter])
}

// Meter measures render periods of a component against their deadline.
// Single meter must be used from one goroutine, many meters can share the
// component counters.
type Meter struct {
	sampleRate int
	frames     int64
	deadline   time.Duration

	messages *expvar.Int
	samples  *expvar.Int
	latency  *expvar.Int
	duration *expvar.Int
	late     *expvar.Int
}

// NewMeter returns meter for component that renders at sample rate.
func NewMeter(component any, sampleRate int) *Meter {
	c := lookup(Name(component))
	c.get(ComponentCounter).Add(1)
	return &Meter{
		sampleRate: sampleRate,
		messages:   c.get(MessageCounter),
		samples:    c.get(SampleCounter),
		latency:    c.get(LatencyCounter),
		duration:   c.get(DurationCounter),
		late:       c.get(LateCounter),
	}
}

// Measure records a period of frames rendered in elapsed time. Period is
// late if elapsed exceeds its duration.
func (m *Meter) Measure(frames int64, elapsed time.Duration) {
	if frames != m.frames {
		m.frames = frames
		m.deadline = signal.DurationOf(m.sampleRate, frames)
	}
	m.messages.Add(1)
	m.samples.Add(frames)
	m.latency.Add(int64(elapsed))
	m.duration.Add(int64(m.deadline))
	if elapsed > m.deadline {
		m.late.Add(1)
	}
}
