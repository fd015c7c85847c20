package main

import (
	"flag"
	"fmt"

	"github.com/dudk/oscfx/backend/oto"
	"github.com/dudk/oscfx/backend/wav"
	"github.com/dudk/oscfx/session"
)

type playCommand struct {
	sessionFlags
	in         string
	loop       bool
	sampleRate int
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play WAV file through the effect on default output device"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	cmd.sessionFlags.register(fs)
	fs.StringVar(&cmd.in, "in", "", "input WAV file, silence if not set")
	fs.BoolVar(&cmd.loop, "loop", false, "loop input file")
	fs.IntVar(&cmd.sampleRate, "rate", 44100, "sample rate if input is not set")
}

func (cmd *playCommand) Run() error {
	if cmd.in == "" {
		return cmd.run(&oto.Backend{}, session.SampleRate(cmd.sampleRate))
	}
	samples, i, err := wav.Load(cmd.in)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.in, err)
	}
	return cmd.run(
		&oto.Backend{Input: samples, Loop: cmd.loop},
		session.SampleRate(i.SampleRate),
		session.Channels(i.Channels, 2),
	)
}
