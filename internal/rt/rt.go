// Package rt prepares the process for realtime audio rendering.
package rt

import "errors"

// ErrUnsupported is returned when platform doesn't support the operation.
var ErrUnsupported = errors.New("not supported on this platform")
