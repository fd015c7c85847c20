package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dudk/oscfx/backend/portaudio"
)

type listCommand struct{}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show the list of available audio devices"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {}

func (cmd *listCommand) Run() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()
	devices, in, out, err := portaudio.Devices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		d.Print(os.Stdout)
		fmt.Println()
	}
	fmt.Printf("default input device: %d\n", in)
	fmt.Printf("default output device: %d\n", out)
	return nil
}
