//go:build !linux

package rt

// LockMemory is not supported.
func LockMemory() error {
	return ErrUnsupported
}

// UnlockMemory is not supported.
func UnlockMemory() error {
	return ErrUnsupported
}
