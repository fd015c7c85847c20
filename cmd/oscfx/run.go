package main

import (
	"flag"

	"github.com/dudk/oscfx/backend/portaudio"
	"github.com/dudk/oscfx/session"
)

type runCommand struct {
	sessionFlags
	input          int
	output         int
	sampleRate     int
	inputChannels  int
	outputChannels int
}

func (cmd *runCommand) Name() string {
	return "run"
}

func (cmd *runCommand) Help() string {
	return "Process live audio from input device"
}

func (cmd *runCommand) Register(fs *flag.FlagSet) {
	cmd.sessionFlags.register(fs)
	fs.IntVar(&cmd.input, "input", portaudio.NoDevice, "input device index, default device if not set")
	fs.IntVar(&cmd.output, "output", portaudio.NoDevice, "output device index, default device if not set")
	fs.IntVar(&cmd.sampleRate, "rate", 44100, "sample rate")
	fs.IntVar(&cmd.inputChannels, "in-channels", 1, "number of input channels")
	fs.IntVar(&cmd.outputChannels, "out-channels", 2, "number of output channels")
}

func (cmd *runCommand) Run() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()
	return cmd.run(
		portaudio.New(cmd.input, cmd.output),
		session.SampleRate(cmd.sampleRate),
		session.Channels(cmd.inputChannels, cmd.outputChannels),
	)
}
