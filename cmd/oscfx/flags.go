package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/control"
	"github.com/dudk/oscfx/engine/echo"
	"github.com/dudk/oscfx/queue"
	"github.com/dudk/oscfx/session"
)

// sessionFlags are shared by commands which start a session.
type sessionFlags struct {
	address     string
	frames      int
	capacity    int
	queue       int
	timeout     time.Duration
	feedback    float64
	millisecond float64
	lockMemory  bool
}

func (f *sessionFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.address, "addr", control.DefaultAddress, "control socket address")
	fs.IntVar(&f.frames, "frames", oscfx.DefaultFramesPerBuffer, "frames per buffer")
	fs.IntVar(&f.capacity, "capacity", oscfx.DefaultCapacity, "max frames per buffer the engine can process")
	fs.IntVar(&f.queue, "queue", queue.DefaultCapacity, "capacity of parameter event queue")
	fs.DurationVar(&f.timeout, "timeout", control.DefaultTimeout, "control socket receive timeout")
	fs.Float64Var(&f.feedback, "feedback", 50, "initial feedback in percent")
	fs.Float64Var(&f.millisecond, "millisecond", 70, "initial delay in milliseconds")
	fs.BoolVar(&f.lockMemory, "mlock", false, "lock process memory")
}

func (f *sessionFlags) options() []session.Option {
	return []session.Option{
		session.Address(f.address),
		session.BufferSize(f.frames),
		session.Capacity(f.capacity),
		session.QueueCapacity(f.queue),
		session.Timeout(f.timeout),
		session.LockMemory(f.lockMemory),
		session.Parameters(
			oscfx.Event{Target: oscfx.Feedback, Value: float32(f.feedback)},
			oscfx.Event{Target: oscfx.Millisecond, Value: float32(f.millisecond)},
		),
	}
}

// run starts the echo session and waits for interrupt or end of stream.
func (f *sessionFlags) run(b oscfx.Backend, options ...session.Option) error {
	ctx, cancel := interruptible()
	defer cancel()
	s := session.New(append(f.options(), options...)...)
	return s.Run(ctx, echo.New(), b)
}

// required returns error listing missing required flags.
func required(flags map[string]string) error {
	var missing []string
	for name, value := range flags {
		if value == "" {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required flags: %s", strings.Join(missing, " "))
}
