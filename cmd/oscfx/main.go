package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

type config struct {
	args   []string
	output io.Writer
}

type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

func (config *config) run() int {
	cmdName, args := parseArgs(config.args)
	if cmdName == "" {
		printUsage(config.output)
		return errorExitCode
	}

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}
		flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		flags.SetOutput(config.output)
		cmd.Register(flags)
		if err := flags.Parse(args); err != nil {
			return errorExitCode
		}
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(config.output, "Command failed: %v\n", err)
			return errorExitCode
		}
		return successExitCode
	}

	fmt.Fprintf(config.output, "Unknown command: %s\n\n", cmdName)
	printUsage(config.output)
	return errorExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
	commands        = []command{
		&runCommand{},
		&playCommand{},
		&renderCommand{},
		&listCommand{},
		&sendCommand{},
	}
)

func main() {
	c := config{
		args:   os.Args,
		output: os.Stderr,
	}
	os.Exit(c.run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "oscfx is an echo effect controlled over OSC")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: oscfx <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}

// interruptible returns context cancelled on interrupt or termination.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
