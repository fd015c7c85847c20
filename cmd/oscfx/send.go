package main

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/dudk/oscfx/osc"
)

// defaultSendAddress is the control socket of local instance.
const defaultSendAddress = "127.0.0.1:8000"

// argList collects repeated flag values.
type argList []string

func (l *argList) String() string {
	return strings.Join(*l, " ")
}

func (l *argList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type sendCommand struct {
	address string
	path    string
	args    argList
}

func (cmd *sendCommand) Name() string {
	return "send"
}

func (cmd *sendCommand) Help() string {
	return "Send control message to running instance"
}

func (cmd *sendCommand) Register(fs *flag.FlagSet) {
	cmd.args = nil
	fs.StringVar(&cmd.address, "addr", defaultSendAddress, "control address of running instance")
	fs.StringVar(&cmd.path, "path", "", "message path, e.g. millisecond (required)")
	fs.Var(&cmd.args, "arg", "message argument, numbers are sent as floats, can be repeated")
}

func (cmd *sendCommand) Run() error {
	if err := required(map[string]string{"path": cmd.path}); err != nil {
		return err
	}
	b, err := message(cmd.path, cmd.args).MarshalBinary()
	if err != nil {
		return err
	}
	conn, err := net.Dial("udp", cmd.address)
	if err != nil {
		return err
	}
	defer conn.Close()
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("send %s: %w", cmd.path, err)
	}
	return nil
}

// message builds control message. Arguments which parse as numbers are
// floats, the rest are strings.
func message(path string, args []string) osc.Message {
	arguments := make([]osc.Argument, 0, len(args))
	for _, a := range args {
		if f, err := strconv.ParseFloat(a, 32); err == nil {
			arguments = append(arguments, osc.F(float32(f)))
			continue
		}
		arguments = append(arguments, osc.S(a))
	}
	return osc.NewMessage(path, arguments...)
}
