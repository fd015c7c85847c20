//go:build headless

package oto

import (
	"errors"
	"time"

	"github.com/dudk/oscfx"
)

// ErrUnavailable is returned when binary is built without audio output.
var ErrUnavailable = errors.New("audio output is not available in headless build")

// DefaultBufferSize is the default device buffer duration.
const DefaultBufferSize = 20 * time.Millisecond

// Backend is not available in headless build.
type Backend struct {
	Input      []float32
	Loop       bool
	BufferSize time.Duration
}

// Open always fails.
func (b *Backend) Open(oscfx.StreamConfig, oscfx.RenderFunc) (oscfx.Stream, error) {
	return nil, ErrUnavailable
}
