package session

import (
	"github.com/dudk/oscfx/control"
	"github.com/dudk/oscfx/queue"
)

// WithChannel replaces the channel used by the receiver.
func WithChannel(fn func(*queue.Ring) control.Channel) Option {
	return func(s *Session) Option {
		previous := s.channel
		s.channel = fn
		return WithChannel(previous)
	}
}
