//go:build linux

package rt

import "golang.org/x/sys/unix"

// LockMemory locks current and future pages of the process in RAM, so
// render thread never waits for page faults.
func LockMemory() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}

// UnlockMemory releases memory locked by LockMemory.
func UnlockMemory() error {
	return unix.Munlockall()
}
