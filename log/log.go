// Package log provides loggers for oscfx components.
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var debug bool

// Logger is a global interface for oscfx loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
	WithField(key string, value interface{}) *logrus.Entry
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("OSCFX_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if term.IsTerminal(int(os.Stderr.Fd())) {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Discard returns a logger without output.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
