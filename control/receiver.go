// Package control receives control datagrams and turns them into
// parameter events.
package control

import (
	"errors"
	"expvar"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/xid"

	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/log"
	"github.com/dudk/oscfx/metric"
	"github.com/dudk/oscfx/osc"
)

const (
	// DefaultAddress is the default address of control socket.
	DefaultAddress = "0.0.0.0:8000"
	// DefaultTimeout is the default receive timeout.
	DefaultTimeout = 100 * time.Millisecond
	// maximum datagram size.
	maxDatagram = 1 << 16
)

// Channel is a producer side of the parameter event channel.
type Channel interface {
	Send(oscfx.Event) error
	Closed() bool
}

// Receiver listens for control datagrams and pushes parameter events into
// the channel. It owns the socket exclusively.
type Receiver struct {
	uid     string
	conn    *net.UDPConn
	channel Channel
	timeout time.Duration
	buf     []byte
	log     log.Logger

	messages *expvar.Int
	events   *expvar.Int
	dropped  *expvar.Int
	errors   *expvar.Int
}

// Option configures receiver.
type Option func(*Receiver)

// WithTimeout sets receive timeout. Receiver checks if channel was closed
// every time timeout expires.
func WithTimeout(d time.Duration) Option {
	return func(r *Receiver) {
		r.timeout = d
	}
}

// WithLogger sets logger.
func WithLogger(l log.Logger) Option {
	return func(r *Receiver) {
		r.log = l
	}
}

// Listen binds control socket to the address.
func Listen(address string, c Channel, options ...Option) (*Receiver, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %w", oscfx.ErrBindFailed, address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %w", oscfx.ErrBindFailed, address, err)
	}
	r := &Receiver{
		uid:     xid.New().String(),
		conn:    conn,
		channel: c,
		timeout: DefaultTimeout,
		buf:     make([]byte, maxDatagram),

		messages: metric.Counter(Receiver{}, metric.MessageCounter),
		events:   metric.Counter(Receiver{}, metric.EventCounter),
		dropped:  metric.Counter(Receiver{}, metric.DropCounter),
		errors:   metric.Counter(Receiver{}, metric.ErrorCounter),
	}
	for _, option := range options {
		option(r)
	}
	if r.log == nil {
		r.log = log.GetLogger()
	}
	r.log = r.log.WithField("receiver", r.uid)
	return r, nil
}

// Addr returns local address of control socket.
func (r *Receiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Close closes the socket. Running loop returns without error.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

// Run listens for datagrams until channel is closed. Malformed datagrams
// are skipped. Socket errors terminate the loop. Socket is closed when
// Run returns.
func (r *Receiver) Run() error {
	defer r.conn.Close()
	r.log.Info("listening on ", r.conn.LocalAddr())
	for {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("%w: %w", oscfx.ErrSocket, err)
		}
		n, src, err := r.conn.ReadFromUDP(r.buf)
		if err != nil {
			switch {
			case errors.Is(err, os.ErrDeadlineExceeded):
				if r.channel.Closed() {
					r.log.Debug("channel closed")
					return nil
				}
				continue
			case errors.Is(err, net.ErrClosed):
				return nil
			}
			return fmt.Errorf("%w: %w", oscfx.ErrSocket, err)
		}
		r.messages.Add(1)
		if err := r.receive(r.buf[:n], src); err != nil {
			if errors.Is(err, oscfx.ErrChannelClosed) {
				r.log.Debug("channel closed")
				return nil
			}
			return err
		}
	}
}

// receive decodes datagram and sends extracted events.
func (r *Receiver) receive(b []byte, src *net.UDPAddr) error {
	ms, err := osc.DecodePacket(b)
	if err != nil {
		r.errors.Add(1)
		r.log.Warn("drop datagram from ", src, ": ", err)
		return nil
	}
	for _, m := range ms {
		e, ok := Extract(m)
		if !ok {
			r.dropped.Add(1)
			r.log.Debug("ignore message ", m.Path, " ", m.Arguments)
			continue
		}
		if err := r.channel.Send(e); err != nil {
			return err
		}
		r.events.Add(1)
		r.log.Debug("sent ", e.Target, " ", e.Gesture, " ", e.Value)
	}
	return nil
}
