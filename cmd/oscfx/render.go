package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/dudk/oscfx/backend/wav"
	"github.com/dudk/oscfx/session"
)

type renderCommand struct {
	sessionFlags
	in       string
	out      string
	tail     time.Duration
	bitDepth int
	channels int
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Process WAV file offline"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	cmd.sessionFlags.register(fs)
	fs.StringVar(&cmd.in, "in", "", "input WAV file to process (required)")
	fs.StringVar(&cmd.out, "out", "", "output WAV file (required)")
	fs.DurationVar(&cmd.tail, "tail", time.Second, "silence rendered after input ends")
	fs.IntVar(&cmd.bitDepth, "bits", 16, "output bit depth")
	fs.IntVar(&cmd.channels, "channels", 2, "number of output channels")
}

func (cmd *renderCommand) Run() error {
	if err := required(map[string]string{"in": cmd.in, "out": cmd.out}); err != nil {
		return err
	}
	i, err := wav.Stat(cmd.in)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.in, err)
	}
	return cmd.run(
		&wav.Backend{
			Input:    cmd.in,
			Output:   cmd.out,
			BitDepth: cmd.bitDepth,
			Tail:     cmd.tail,
		},
		session.SampleRate(i.SampleRate),
		session.Channels(i.Channels, cmd.channels),
	)
}
